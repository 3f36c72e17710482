package ai

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"papermind/internal/pkg/metrics"
)

const (
	DefaultGateLimit   = 4
	DefaultCallTimeout = 60 * time.Second
)

// Gate bounds the number of in-flight model calls and gives each one a
// deadline. A call that cannot get a slot before the deadline fails with
// context.DeadlineExceeded.
type Gate struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

func NewGate(limit int, timeout time.Duration) *Gate {
	if limit <= 0 {
		limit = DefaultGateLimit
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Gate{sem: semaphore.NewWeighted(int64(limit)), timeout: timeout}
}

// Do runs fn holding one slot. op labels the call in metrics.
func (g *Gate) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if g == nil {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.sem.Acquire(callCtx, 1); err != nil {
		metrics.BackendCallDuration.WithLabelValues(op, "rejected").Observe(0)
		return fmt.Errorf("acquire %s slot failed: %w", op, err)
	}
	defer g.sem.Release(1)

	start := time.Now()
	err := fn(callCtx)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.BackendCallDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}
