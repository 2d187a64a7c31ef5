package normalization

import (
	"strings"
	"testing"
)

type testMode string

const (
	testModeSteps testMode = "steps"
	testModeShell testMode = "shell"
)

func newModes() *Normalizer[testMode] {
	return NewNormalizer("pipeline mode", map[string]testMode{
		"steps": testModeSteps,
		"shell": testModeShell,
	}, testModeSteps)
}

func TestNormalizer_Normalize(t *testing.T) {
	n := newModes()

	tests := []struct {
		name     string
		input    string
		expected testMode
	}{
		{"exact match", "shell", testModeShell},
		{"case insensitive", "SHELL", testModeShell},
		{"with spaces", "  steps  ", testModeSteps},
		{"invalid input falls back", "parallel", testModeSteps},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizer_Parse(t *testing.T) {
	n := newModes()

	if v, err := n.Parse(""); err != nil || v != testModeSteps {
		t.Fatalf("empty input should yield default, got %v, %v", v, err)
	}
	if v, err := n.Parse(" Shell "); err != nil || v != testModeShell {
		t.Fatalf("expected shell, got %v, %v", v, err)
	}

	_, err := n.Parse("parallel")
	if err == nil {
		t.Fatal("expected error for unknown value")
	}
	if !strings.Contains(err.Error(), "pipeline mode") || !strings.Contains(err.Error(), "[shell steps]") {
		t.Errorf("error should name the enum and list options: %v", err)
	}
}

func TestNormalizer_ValidKeysIsCopy(t *testing.T) {
	n := newModes()
	keys := n.ValidKeys()
	keys[0] = "mutated"
	if n.ValidKeys()[0] != "shell" {
		t.Error("ValidKeys must return a copy")
	}
}
