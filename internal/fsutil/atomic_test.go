package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	require.NoError(t, WriteFileAtomic(path, []byte("t,a\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "t,a\n", string(data))
}

func TestAbortKeepsPreviousContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	f, err := CreateAtomic(path)
	require.NoError(t, err)
	_, err = f.WriteString("partial")
	require.NoError(t, err)
	f.Abort()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be removed")
}

func TestCommitTwiceIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x")
	f, err := CreateAtomic(path)
	require.NoError(t, err)
	require.NoError(t, f.Commit())
	require.NoError(t, f.Commit())
	f.Abort()
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
