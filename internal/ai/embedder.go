package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

const DefaultEmbeddingBatchSize = 10

var ErrEmbeddingNotConfigured = errors.New("embedding backend not configured")

// Embedder turns passages and queries into vectors with one model. The
// endpoint configuration is checked on first use, once.
type Embedder struct {
	client    *OpenAICompatibleClient
	cfg       EmbeddingConfig
	batchSize int
	gate      *Gate

	initOnce sync.Once
	initErr  error
}

func NewEmbedder(client *OpenAICompatibleClient, cfg EmbeddingConfig, batchSize int, gate *Gate) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultEmbeddingBatchSize
	}
	return &Embedder{client: client, cfg: cfg, batchSize: batchSize, gate: gate}
}

// Model identifies the embedding model; vectors from different models are
// never compared.
func (e *Embedder) Model() string {
	return e.cfg.Model
}

func (e *Embedder) init() error {
	e.initOnce.Do(func() {
		switch {
		case e.client == nil:
			e.initErr = fmt.Errorf("%w: no client", ErrEmbeddingNotConfigured)
		case strings.TrimSpace(e.cfg.BaseURL) == "":
			e.initErr = fmt.Errorf("%w: base url is empty", ErrEmbeddingNotConfigured)
		case strings.TrimSpace(e.cfg.Model) == "":
			e.initErr = fmt.Errorf("%w: model is empty", ErrEmbeddingNotConfigured)
		}
	})
	return e.initErr
}

// EmbedTexts embeds texts in batches and returns vectors aligned with the
// input. All vectors share one dimension.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.init(); err != nil {
		return nil, err
	}
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		var batch [][]float32
		err := e.gate.Do(ctx, "embed", func(ctx context.Context) error {
			var err error
			batch, err = e.client.EmbedBatch(ctx, e.cfg, texts[start:end])
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d failed: %w", start, end, err)
		}
		vectors = append(vectors, batch...)
	}
	for i := 1; i < len(vectors); i++ {
		if len(vectors[i]) != len(vectors[0]) {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(vectors[i]), len(vectors[0]))
		}
	}
	return vectors, nil
}

// EmbedQuery embeds a single search query.
func (e *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if err := e.init(); err != nil {
		return nil, err
	}
	var vector []float32
	err := e.gate.Do(ctx, "embed_query", func(ctx context.Context) error {
		var err error
		vector, err = e.client.Embed(ctx, e.cfg, query)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}
	return vector, nil
}
