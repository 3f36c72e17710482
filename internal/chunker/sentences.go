package chunker

import (
	"regexp"
	"strings"
)

// minChunkWords is inclusive: sentence chunks need at least this many words.
const minChunkWords = 10

var sentenceBoundary = regexp.MustCompile(`[.!?]+\s+`)

// Sentences splits text after every run of '.', '!' or '?' that is followed
// by whitespace. Terminal punctuation stays with its sentence and empty
// pieces are dropped.
func Sentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var out []string
	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		end := loc[0] + len(strings.TrimRight(text[loc[0]:loc[1]], " \t\r\n\f\v"))
		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// SentenceChunks groups whole sentences into chunks shorter than maxLength
// using the same greedy rule as Chunk, but it only ever cuts at sentence
// punctuation. Chunks with fewer than ten words are dropped.
func SentenceChunks(text string, maxLength int) []string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	var (
		chunks  []string
		current string
	)
	for _, sentence := range Sentences(text) {
		if runeLen(current)+runeLen(sentence)+1 < maxLength {
			if current == "" {
				current = sentence
			} else {
				current += " " + sentence
			}
			continue
		}
		if current != "" {
			chunks = append(chunks, current)
		}
		current = sentence
	}
	if current != "" {
		chunks = append(chunks, current)
	}

	out := chunks[:0]
	for _, c := range chunks {
		if len(strings.Fields(c)) >= minChunkWords {
			out = append(out, c)
		}
	}
	return out
}
