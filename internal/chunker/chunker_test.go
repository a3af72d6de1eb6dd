package chunker

import (
	"strings"
	"testing"
)

func repeatWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = "word"
	}
	return strings.Join(words, " ")
}

func TestSplit_Empty(t *testing.T) {
	c := New(600, 100)

	if got := c.Split(""); got != nil {
		t.Fatalf("expected no chunks for empty text, got %d", len(got))
	}
	if got := c.Split("   \n\t  "); got != nil {
		t.Fatalf("expected no chunks for whitespace text, got %d", len(got))
	}
}

func TestSplit_SingleChunk(t *testing.T) {
	c := New(600, 100)
	text := repeatWords(50)

	chunks := c.Split(text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].WordCount != 50 {
		t.Errorf("word count = %d, want 50", chunks[0].WordCount)
	}
	if chunks[0].Text != text {
		t.Errorf("chunk text does not round-trip")
	}
	if chunks[0].StartChar != 0 || chunks[0].EndChar != len(text) {
		t.Errorf("offsets = [%d,%d], want [0,%d]", chunks[0].StartChar, chunks[0].EndChar, len(text))
	}
}

func TestSplit_OverlappingWindows(t *testing.T) {
	c := New(10, 3)
	text := repeatWords(24)

	chunks := c.Split(text)
	// Windows advance by 7 words: [0,10) [7,17) [14,24) then done.
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].WordCount != 10 || chunks[1].WordCount != 10 || chunks[2].WordCount != 10 {
		t.Errorf("word counts = %d,%d,%d, want 10,10,10",
			chunks[0].WordCount, chunks[1].WordCount, chunks[2].WordCount)
	}
	for i, ch := range chunks {
		if ch.Index != i {
			t.Errorf("chunk %d has index %d", i, ch.Index)
		}
	}
}

func TestSplit_OffsetsSliceOriginal(t *testing.T) {
	c := New(4, 1)
	text := "alpha beta gamma delta epsilon zeta eta theta"

	chunks := c.Split(text)
	for _, ch := range chunks {
		if text[ch.StartChar:ch.EndChar] != ch.Text {
			t.Errorf("chunk %d offsets do not match text: %q", ch.Index, ch.Text)
		}
	}
}

func TestSplit_WindowAlwaysAdvances(t *testing.T) {
	// overlap >= window must not loop forever
	c := New(5, 10)
	chunks := c.Split(repeatWords(20))
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(0, -1)
	if c.chunkWords != DefaultChunkWords || c.overlapWords != DefaultOverlapWords {
		t.Errorf("defaults not applied: %d/%d", c.chunkWords, c.overlapWords)
	}
}
