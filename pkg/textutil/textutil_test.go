package textutil

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "hello there", "hello there"},
		{"collapses whitespace", "  hello \n\t world  ", "hello world"},
		{"strips decorations", "so… the plan → ship it ✨", "so the plan ship it"},
		{"keeps punctuation", "Wait, really?! Yes - it's done.", "Wait, really?! Yes - it's done."},
		{"unicode letters survive", "héllo wörld", "héllo wörld"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestChunk(t *testing.T) {
	text := strings.Repeat("word ", 100)

	chunks := Chunk(text, 50)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, c := range chunks {
		if len(c) > 50 {
			t.Errorf("chunk %d exceeds size: %d bytes", i, len(c))
		}
	}

	// Round-trip keeps every word.
	joined := strings.Join(chunks, " ")
	if joined != strings.TrimSpace(text) {
		t.Error("chunking lost or reordered words")
	}
}

func TestChunk_Edge(t *testing.T) {
	if got := Chunk("", 10); got != nil {
		t.Errorf("empty input: got %v", got)
	}
	if got := Chunk("hello", 0); got != nil {
		t.Errorf("zero size: got %v", got)
	}
	// A single oversized word still becomes one chunk.
	got := Chunk("supercalifragilistic", 5)
	if len(got) != 1 || got[0] != "supercalifragilistic" {
		t.Errorf("oversized word: got %v", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("a longer sentence", 10); got != "a longe..." {
		t.Errorf("got %q", got)
	}
}
