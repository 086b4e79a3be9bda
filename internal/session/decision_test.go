package session

import (
	"bytes"
	"strings"
	"testing"
)

func TestPromptDeciderAnswers(t *testing.T) {
	tests := []struct {
		input string
		want  Decision
	}{
		{"y\n", Proceed},
		{"Y\n", Proceed},
		{"yes\n", Proceed},
		{"n\n", Skip},
		{"\n", Skip},
		{"anything else\n", Skip},
		{"s\n", SkipAll},
		{"q\n", Abort},
		{"quit\n", Abort},
		{"y", Proceed}, // final line without newline
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input)+"_input", func(t *testing.T) {
			var out bytes.Buffer
			d := NewPromptDecider(strings.NewReader(tt.input), &out)

			if got := d.Decide(Item{}); got != tt.want {
				t.Errorf("Decide(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if !strings.Contains(out.String(), "[y/N/s/q]") {
				t.Errorf("prompt not written: %q", out.String())
			}
		})
	}
}

func TestPromptDeciderEOF(t *testing.T) {
	d := NewPromptDecider(strings.NewReader(""), &bytes.Buffer{})
	if got := d.Decide(Item{}); got != Abort {
		t.Errorf("Decide on EOF = %v, want Abort", got)
	}
}

func TestAutoDecider(t *testing.T) {
	for _, answer := range []Decision{Proceed, Skip, SkipAll, Abort} {
		if got := (AutoDecider{Answer: answer}).Decide(Item{}); got != answer {
			t.Errorf("AutoDecider{%v}.Decide() = %v", answer, got)
		}
	}
}
