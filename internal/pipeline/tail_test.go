package pipeline

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTailBufferKeepsLastBytes(t *testing.T) {
	tb := newTailBuffer(8)
	_, _ = fmt.Fprint(tb, "0123456789")
	_, _ = fmt.Fprint(tb, "ab\n")
	assert.Equal(t, "56789ab", tb.String())
}

func TestTailBufferSingleOversizedWrite(t *testing.T) {
	tb := newTailBuffer(4)
	n, err := tb.Write([]byte("make: *** [all] Error 2"))
	assert.NoError(t, err)
	assert.Equal(t, len("make: *** [all] Error 2"), n)
	assert.Equal(t, "or 2", tb.String())
}

func TestTailBufferUnderLimit(t *testing.T) {
	tb := newTailBuffer(64)
	_, _ = fmt.Fprint(tb, "  warning: unused\n")
	assert.Equal(t, "warning: unused", tb.String())
	assert.False(t, strings.HasSuffix(tb.String(), "\n"))
}
