package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Stage", KeyStage, "generate", Stage("generate")},
		{"Command", KeyCommand, "./modgen", Command("./modgen")},
		{"Path", KeyPath, "out.csv", Path("out.csv")},
		{"Renderer", KeyRenderer, "headless", Renderer("headless")},
		{"Error", KeyError, "boom", Error(errors.New("boom"))},
		{"NilError", KeyError, "", Error(nil)},
	}
	for _, c := range cases {
		if c.attr.Key != c.attrKey {
			t.Fatalf("%s: key = %q, want %q", c.name, c.attr.Key, c.attrKey)
		}
		if c.attr.Value.String() != c.attrVal {
			t.Fatalf("%s: value = %q, want %q", c.name, c.attr.Value.String(), c.attrVal)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := ExitCode(2); a.Key != KeyExitCode || a.Value.Int64() != 2 {
		t.Fatalf("unexpected exit code attr %v", a)
	}
	if a := Rows(3); a.Key != KeyRows || a.Value.Int64() != 3 {
		t.Fatalf("unexpected rows attr %v", a)
	}
	if a := Duration(1500 * time.Microsecond); a.Value.Float64() != 1.5 {
		t.Fatalf("duration = %v, want 1.5", a.Value.Float64())
	}
}
