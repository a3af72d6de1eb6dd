// Package chunker splits document text into overlapping word-count windows.
package chunker

import (
	"unicode"

	"github.com/curator-labs/curator/internal/domain"
)

const (
	// DefaultChunkWords is the window size in words.
	DefaultChunkWords = 600
	// DefaultOverlapWords is how many words consecutive windows share.
	DefaultOverlapWords = 100
)

// Chunker is a pure, stateless sliding-window splitter.
type Chunker struct {
	chunkWords   int
	overlapWords int
}

// New creates a Chunker. Non-positive arguments fall back to defaults; an
// overlap >= window is clamped so the window always advances.
func New(chunkWords, overlapWords int) *Chunker {
	if chunkWords <= 0 {
		chunkWords = DefaultChunkWords
	}
	if overlapWords < 0 {
		overlapWords = DefaultOverlapWords
	}
	if overlapWords >= chunkWords {
		overlapWords = chunkWords - 1
	}
	return &Chunker{chunkWords: chunkWords, overlapWords: overlapWords}
}

// word is a token plus its byte offsets in the original text.
type word struct {
	start int
	end   int
}

// Split breaks text into overlapping chunks. Empty or near-empty text
// produces no chunks.
func (c *Chunker) Split(text string) []domain.Chunk {
	words := splitWords(text)
	if len(words) == 0 {
		return nil
	}

	step := c.chunkWords - c.overlapWords

	var chunks []domain.Chunk
	for start := 0; start < len(words); start += step {
		end := start + c.chunkWords
		if end > len(words) {
			end = len(words)
		}

		startChar := words[start].start
		endChar := words[end-1].end

		chunks = append(chunks, domain.Chunk{
			Index:     len(chunks),
			Text:      text[startChar:endChar],
			WordCount: end - start,
			StartChar: startChar,
			EndChar:   endChar,
		})

		if end == len(words) {
			break
		}
	}

	return chunks
}

// splitWords tokenizes on whitespace, recording byte offsets.
func splitWords(text string) []word {
	var words []word
	inWord := false
	start := 0
	for i, r := range text {
		if unicode.IsSpace(r) {
			if inWord {
				words = append(words, word{start: start, end: i})
				inWord = false
			}
			continue
		}
		if !inWord {
			start = i
			inWord = true
		}
	}
	if inWord {
		words = append(words, word{start: start, end: len(text)})
	}
	return words
}
