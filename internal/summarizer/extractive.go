package summarizer

import (
	"regexp"
	"sort"
	"strings"

	"papermind/internal/chunker"
)

const DefaultSentenceCount = 3

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	wordPattern   = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// sentenceRecord is a sentence with its position in the source and its score.
type sentenceRecord struct {
	text  string
	index int
	score float64
}

// Extractive returns the n most salient sentences of text in their original
// order. Salience is the mean corpus frequency of a sentence's informative
// words (stopwords and words of two letters or fewer are ignored). Text that
// already has n sentences or fewer is returned with whitespace normalized.
func Extractive(text string, n int) string {
	if n <= 0 {
		n = DefaultSentenceCount
	}
	text = normalizeWhitespace(text)
	sentences := chunker.Sentences(text)
	if len(sentences) <= n {
		return text
	}

	freq := make(map[string]int)
	for _, s := range sentences {
		for _, w := range informativeWords(s) {
			freq[w]++
		}
	}

	records := make([]sentenceRecord, len(sentences))
	for i, s := range sentences {
		records[i] = sentenceRecord{text: s, index: i}
		words := informativeWords(s)
		if len(words) == 0 {
			continue
		}
		total := 0
		for _, w := range words {
			total += freq[w]
		}
		records[i].score = float64(total) / float64(len(words))
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].score != records[j].score {
			return records[i].score > records[j].score
		}
		return records[i].index < records[j].index
	})
	selected := records[:n]
	sort.Slice(selected, func(i, j int) bool { return selected[i].index < selected[j].index })

	out := make([]string, len(selected))
	for i := range selected {
		out[i] = selected[i].text
	}
	return strings.Join(out, " ")
}

func informativeWords(sentence string) []string {
	tokens := wordPattern.FindAllString(strings.ToLower(sentence), -1)
	out := tokens[:0]
	for _, tok := range tokens {
		if len([]rune(tok)) <= 2 {
			continue
		}
		if _, ok := stopwords[tok]; ok {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func normalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
