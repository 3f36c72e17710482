package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"papermind/internal/cache"
	"papermind/internal/pkg/metrics"
	"papermind/internal/summarizer"
)

// SummaryCache stores finished summaries keyed by text, style, backend and
// chunk limit.
type SummaryCache interface {
	Get(ctx context.Context, req cache.SummaryRequest) (*cache.CachedSummary, bool, error)
	Set(ctx context.Context, req cache.SummaryRequest, summary cache.CachedSummary) error
}

type SummaryService struct {
	assembler *summarizer.Assembler
	styles    *summarizer.StyleRegistry
	backends  *summarizer.Manager
	cache     SummaryCache
}

// NewSummaryService builds the summarize surface; summaryCache may be nil.
func NewSummaryService(
	assembler *summarizer.Assembler,
	styles *summarizer.StyleRegistry,
	backends *summarizer.Manager,
	summaryCache SummaryCache,
) *SummaryService {
	return &SummaryService{
		assembler: assembler,
		styles:    styles,
		backends:  backends,
		cache:     summaryCache,
	}
}

type SummarizeInput struct {
	Text    string
	Style   string
	Backend string
	// MaxChunkLength overrides the configured chunk length when positive.
	MaxChunkLength int
}

// Summarize produces a styled summary. Naming a backend switches the
// process-wide backend first; if that backend cannot load the summary is
// produced by the minimal backend.
func (s *SummaryService) Summarize(ctx context.Context, input SummarizeInput) (*summarizer.Result, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, ErrNoText
	}
	style, err := s.styles.Parse(input.Style)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if name := strings.TrimSpace(input.Backend); name != "" {
		backend, err := summarizer.ParseBackend(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		if backend != s.backends.Active() {
			if err := s.backends.Switch(ctx, backend); err != nil {
				log.Warn().Err(err).Str("backend", string(backend)).Msg("requested backend unavailable, summarizing with minimal")
			}
		}
	}

	// loads the configured backend on first use so the key names what is really installed
	activeBackend, _ := s.backends.Current(ctx)
	req := cache.SummaryRequest{
		Text:           text,
		Style:          string(style),
		Backend:        string(activeBackend),
		MaxChunkLength: s.assembler.ChunkLimit(input.MaxChunkLength),
	}
	if cached, ok := s.lookup(ctx, req); ok {
		return &summarizer.Result{
			Summary:   cached.Summary,
			Style:     style,
			Backend:   activeBackend,
			Chunks:    cached.Chunks,
			Fallbacks: cached.Fallbacks,
		}, nil
	}

	result := s.assembler.SummarizeWithLimit(ctx, text, req.MaxChunkLength, style)
	metrics.SummariesTotal.WithLabelValues(string(result.Backend), string(result.Style)).Inc()

	// summaries that needed fallbacks are not cached so a recovered backend gets another try
	if s.cache != nil && result.Chunks > 0 && result.Fallbacks == 0 {
		req.Backend = string(result.Backend)
		err := s.cache.Set(ctx, req, cache.CachedSummary{
			Summary:   result.Summary,
			Chunks:    result.Chunks,
			Fallbacks: result.Fallbacks,
		})
		if err != nil {
			log.Warn().Err(err).Msg("cache summary failed")
		}
	}
	return &result, nil
}

func (s *SummaryService) lookup(ctx context.Context, req cache.SummaryRequest) (*cache.CachedSummary, bool) {
	if s.cache == nil {
		return nil, false
	}
	cached, ok, err := s.cache.Get(ctx, req)
	if err != nil {
		metrics.SummaryCacheTotal.WithLabelValues("error").Inc()
		log.Warn().Err(err).Msg("read summary cache failed")
		return nil, false
	}
	if !ok {
		metrics.SummaryCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.SummaryCacheTotal.WithLabelValues("hit").Inc()
	return cached, true
}

type BackendsView struct {
	Active    summarizer.Backend   `json:"active"`
	Available []summarizer.Backend `json:"available"`
	Styles    []summarizer.Style   `json:"styles"`
}

func (s *SummaryService) Backends() BackendsView {
	return BackendsView{
		Active:    s.backends.Active(),
		Available: summarizer.Backends(),
		Styles:    s.styles.Names(),
	}
}

// SwitchBackend reloads the process-wide backend. On a load failure the
// minimal backend is active afterwards and the error wraps
// summarizer.ErrBackendUnavailable.
func (s *SummaryService) SwitchBackend(ctx context.Context, name string) (summarizer.Backend, error) {
	backend, err := summarizer.ParseBackend(name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.backends.Switch(ctx, backend); err != nil {
		if errors.Is(err, summarizer.ErrBackendUnavailable) {
			return s.backends.Active(), err
		}
		return "", err
	}
	return s.backends.Active(), nil
}

// ActiveBackend reports the installed backend without loading it.
func (s *SummaryService) ActiveBackend() summarizer.Backend {
	return s.backends.Active()
}
