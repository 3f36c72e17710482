package chunker

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxLength = 500
	// minPassageLength is exclusive: passages must be longer than this.
	minPassageLength = 10
)

// Passage is one bounded, sentence-respecting unit of document text.
type Passage struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Length int    `json:"length"`
}

// Chunk splits text into passages of at most maxLength characters.
// Sentences are detected with the literal ". " delimiter, so abbreviations
// and decimals can be mis-split; a single sentence longer than maxLength
// becomes its own oversized passage.
func Chunk(text string, maxLength int) []Passage {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	normalized := strings.TrimSpace(text)
	normalized = strings.ReplaceAll(normalized, "\r\n", " ")
	normalized = strings.ReplaceAll(normalized, "\n", " ")

	var (
		raw     []string
		current string
	)
	for _, unit := range strings.Split(normalized, ". ") {
		unit = strings.TrimSpace(unit)
		if unit == "" {
			continue
		}
		if !hasTerminalPunctuation(unit) {
			unit += "."
		}

		if runeLen(current)+runeLen(unit)+1 < maxLength {
			if current == "" {
				current = unit
			} else {
				current += " " + unit
			}
			continue
		}
		if current != "" {
			raw = append(raw, strings.TrimSpace(current))
		}
		current = unit
	}
	if current != "" {
		raw = append(raw, strings.TrimSpace(current))
	}

	passages := make([]Passage, 0, len(raw))
	for _, c := range raw {
		if runeLen(strings.TrimSpace(c)) <= minPassageLength {
			continue
		}
		passages = append(passages, Passage{
			Index:  len(passages),
			Text:   c,
			Length: runeLen(c),
		})
	}
	return passages
}

// Texts returns the passage texts in order.
func Texts(passages []Passage) []string {
	out := make([]string, len(passages))
	for i := range passages {
		out[i] = passages[i].Text
	}
	return out
}

func hasTerminalPunctuation(s string) bool {
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?")
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
