package summarizer

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"papermind/internal/chunker"
)

const (
	DefaultMaxChunkLength = 1000
	TooShortMessage       = "Text too short to summarize."

	fallbackSentences = 3
)

// FailureReason says why a chunk could not be summarized by its backend.
type FailureReason int

const (
	FailureNone FailureReason = iota
	FailureBackendError
	FailureTimeout
	FailureMalformed
)

func (r FailureReason) String() string {
	switch r {
	case FailureNone:
		return "none"
	case FailureBackendError:
		return "backend_error"
	case FailureTimeout:
		return "timeout"
	case FailureMalformed:
		return "malformed_output"
	default:
		return "unknown"
	}
}

// ChunkOutcome is either a chunk summary or the reason it failed.
type ChunkOutcome struct {
	Summary string
	Failure FailureReason
	Err     error
}

// Result describes one assembled summary.
type Result struct {
	Summary   string  `json:"summary"`
	Style     Style   `json:"style"`
	Backend   Backend `json:"backend"`
	Chunks    int     `json:"chunks"`
	Fallbacks int     `json:"fallbacks"`
}

// FallbackObserver is notified for every chunk that needed the fallback.
type FallbackObserver func(backend Backend, reason FailureReason)

// Assembler splits long text into sentence-bounded chunks, summarizes each one
// with the active backend and stitches the partial summaries together.
// Chunks are summarized sequentially.
type Assembler struct {
	styles         *StyleRegistry
	backends       *Manager
	maxChunkLength int
	onFallback     FallbackObserver
}

func NewAssembler(styles *StyleRegistry, backends *Manager, maxChunkLength int) *Assembler {
	if maxChunkLength <= 0 {
		maxChunkLength = DefaultMaxChunkLength
	}
	return &Assembler{styles: styles, backends: backends, maxChunkLength: maxChunkLength}
}

// OnFallback registers an observer for chunk fallbacks.
func (a *Assembler) OnFallback(fn FallbackObserver) {
	a.onFallback = fn
}

// Summarize uses the assembler's configured chunk length.
func (a *Assembler) Summarize(ctx context.Context, text string, style Style) Result {
	return a.SummarizeWithLimit(ctx, text, a.maxChunkLength, style)
}

// ChunkLimit resolves a requested chunk length, zero or negative meaning the
// configured default.
func (a *Assembler) ChunkLimit(maxChunkLength int) int {
	if maxChunkLength <= 0 {
		return a.maxChunkLength
	}
	return maxChunkLength
}

// SummarizeWithLimit summarizes text with chunks no longer than maxChunkLength.
// A chunk whose backend call fails is replaced by its first sentences; the
// call as a whole never fails.
func (a *Assembler) SummarizeWithLimit(ctx context.Context, text string, maxChunkLength int, style Style) Result {
	maxChunkLength = a.ChunkLimit(maxChunkLength)
	backend, model := a.backends.Current(ctx)
	result := Result{Style: style, Backend: backend}

	cleaned := Preprocess(text)
	chunks := chunker.SentenceChunks(cleaned, maxChunkLength)
	if len(chunks) == 0 {
		result.Summary = TooShortMessage
		return result
	}
	result.Chunks = len(chunks)

	maxLength, minLength := LengthBounds(style, len(strings.Fields(cleaned)))
	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		outcome := a.summarizeChunk(ctx, model, chunk, style, maxLength, minLength)
		switch outcome.Failure {
		case FailureNone:
			summaries = append(summaries, outcome.Summary)
		default:
			result.Fallbacks++
			log.Warn().
				Err(outcome.Err).
				Int("chunk", i).
				Str("backend", string(backend)).
				Str("reason", outcome.Failure.String()).
				Msg("chunk summarization failed, using leading sentences")
			if a.onFallback != nil {
				a.onFallback(backend, outcome.Failure)
			}
			summaries = append(summaries, FirstSentences(chunk, fallbackSentences))
		}
	}

	result.Summary = Stitch(summaries)
	return result
}

func (a *Assembler) summarizeChunk(ctx context.Context, model Abstractive, chunk string, style Style, maxLength, minLength int) ChunkOutcome {
	if model == nil {
		return ChunkOutcome{Summary: a.styles.Styled(chunk, style)}
	}
	summary, err := model.Summarize(ctx, chunk, maxLength, minLength)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ChunkOutcome{Failure: FailureTimeout, Err: err}
	case err != nil:
		return ChunkOutcome{Failure: FailureBackendError, Err: err}
	}
	summary = normalizeWhitespace(summary)
	if summary == "" {
		return ChunkOutcome{Failure: FailureMalformed, Err: errors.New("empty summary")}
	}
	return ChunkOutcome{Summary: summary}
}

var styleLengths = map[Style][2]int{
	StyleAcademic: {150, 40},
	StyleBrief:    {80, 20},
	StyleDetailed: {250, 80},
}

// LengthBounds returns the max and min summary length (in tokens) for one
// chunk. The style's base budget shrinks for documents under 1000 words, down
// to half at 500 words or fewer.
func LengthBounds(style Style, totalWords int) (maxLength, minLength int) {
	base, ok := styleLengths[style]
	if !ok {
		base = styleLengths[DefaultStyle]
	}
	scale := float64(totalWords) / 1000
	if scale < 0.5 {
		scale = 0.5
	}
	if scale > 1 {
		scale = 1
	}
	maxLength = int(float64(base[0]) * scale)
	minLength = int(float64(base[1]) * scale)
	if minLength < 10 {
		minLength = 10
	}
	if maxLength < minLength+10 {
		maxLength = minLength + 10
	}
	return maxLength, minLength
}

// FirstSentences joins the first n sentences of chunk and makes sure the
// result ends with terminal punctuation.
func FirstSentences(chunk string, n int) string {
	sentences := chunker.Sentences(chunk)
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	out := strings.Join(sentences, " ")
	if out == "" {
		return out
	}
	if !strings.HasSuffix(out, ".") && !strings.HasSuffix(out, "!") && !strings.HasSuffix(out, "?") {
		out += "."
	}
	return out
}

// Stitch joins partial summaries into one passage: middle parts are prefixed
// with "Additionally, " and the last with "Finally, ".
func Stitch(summaries []string) string {
	switch len(summaries) {
	case 0:
		return ""
	case 1:
		return summaries[0]
	}

	parts := make([]string, len(summaries))
	parts[0] = summaries[0]
	last := len(summaries) - 1
	for i := 1; i < last; i++ {
		parts[i] = "Additionally, " + lowerFirst(summaries[i])
	}
	parts[last] = "Finally, " + lowerFirst(summaries[last])
	return strings.Join(parts, " ")
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return strings.ToLower(string(r)) + s[size:]
}
