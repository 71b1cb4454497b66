package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/filedash/filedash/internal/models"
	"github.com/filedash/filedash/internal/state"
)

func TestConfirmer(t *testing.T) {
	prompt := state.DeletePrompt(models.FileEntry{Name: "old.txt"})

	tests := []struct {
		name      string
		input     string
		assumeYes bool
		want      bool
	}{
		{"yes", "y\n", false, true},
		{"full yes", "YES\n", false, true},
		{"no", "n\n", false, false},
		{"empty", "\n", false, false},
		{"eof", "", false, false},
		{"assume yes", "", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := confirmer(strings.NewReader(tt.input), &out, tt.assumeYes)(prompt)
			if got != tt.want {
				t.Errorf("confirmer(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if !tt.assumeYes && !strings.Contains(out.String(), "Confirm Permanent Deletion") {
				t.Errorf("prompt not printed: %q", out.String())
			}
		})
	}
}

func TestPromptLine(t *testing.T) {
	tests := []struct {
		input string
		def   string
		want  string
	}{
		{"value\n", "", "value"},
		{"  spaced  \n", "", "spaced"},
		{"\n", "default", "default"},
		{"", "default", "default"},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got, err := promptLine(bufio.NewReader(strings.NewReader(tt.input)), &out, "Label", tt.def)
		if err != nil {
			t.Fatalf("promptLine(%q) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("promptLine(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
