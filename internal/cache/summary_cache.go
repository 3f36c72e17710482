package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// CachedSummary is what gets stored for one summarize request.
type CachedSummary struct {
	Summary   string `json:"summary"`
	Chunks    int    `json:"chunks"`
	Fallbacks int    `json:"fallbacks"`
}

type SummaryCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewSummaryCache(client *redisv9.Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SummaryCache{client: client, ttl: ttl}
}

// SummaryRequest identifies a summary. MaxChunkLength is the resolved chunk
// limit, since it changes how the text is split.
type SummaryRequest struct {
	Text           string
	Style          string
	Backend        string
	MaxChunkLength int
}

func (c *SummaryCache) Get(ctx context.Context, req SummaryRequest) (*CachedSummary, bool, error) {
	raw, err := c.client.Get(ctx, SummaryKey(req)).Result()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get summary failed: %w", err)
	}

	var cached CachedSummary
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached summary failed: %w", err)
	}
	return &cached, true, nil
}

func (c *SummaryCache) Set(ctx context.Context, req SummaryRequest, summary CachedSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary cache failed: %w", err)
	}
	if err := c.client.Set(ctx, SummaryKey(req), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set summary failed: %w", err)
	}
	return nil
}

// SummaryKey hashes the input so arbitrarily long texts map to short keys.
func SummaryKey(req SummaryRequest) string {
	h := sha256.New()
	h.Write([]byte(req.Backend))
	h.Write([]byte{0})
	h.Write([]byte(req.Style))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(req.MaxChunkLength)))
	h.Write([]byte{0})
	h.Write([]byte(req.Text))
	return "summary:" + req.Backend + ":" + req.Style + ":" + strconv.Itoa(req.MaxChunkLength) + ":" + hex.EncodeToString(h.Sum(nil))
}
