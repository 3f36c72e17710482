package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownBackend     = errors.New("unknown summarizer backend")
	ErrBackendUnavailable = errors.New("summarizer backend unavailable")
)

// Backend names a summarization engine. The set is closed.
type Backend string

const (
	// BackendMinimal is the rule-based summarizer. It has no external
	// dependency and is the fallback when a neural backend cannot load.
	BackendMinimal Backend = "minimal"
	BackendBART    Backend = "bart"
	BackendT5      Backend = "t5"
	BackendPegasus Backend = "pegasus"
)

var allBackends = []Backend{BackendMinimal, BackendBART, BackendT5, BackendPegasus}

// Backends lists every supported backend.
func Backends() []Backend {
	return append([]Backend(nil), allBackends...)
}

// ParseBackend resolves a backend name, rejecting anything outside the set.
func ParseBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, b := range allBackends {
		if string(b) == name {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}

// Neural reports whether the backend calls an external model.
func (b Backend) Neural() bool {
	return b != BackendMinimal
}

// Abstractive is an external neural summarizer. Implementations may fail on
// malformed or over-length input; callers fall back per chunk.
type Abstractive interface {
	Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error)
}

// Loader builds the neural summarizer for a backend.
type Loader func(ctx context.Context, backend Backend) (Abstractive, error)

// Manager owns the process-wide summarization backend. The backend is loaded
// on first use, at most once, and replaced only through Switch. Readers get
// a consistent (backend, model) pair even while a switch is in progress.
type Manager struct {
	mu     sync.RWMutex
	load   Loader
	wanted Backend
	loaded bool
	active Backend
	model  Abstractive
}

func NewManager(initial Backend, load Loader) *Manager {
	if initial == "" {
		initial = BackendMinimal
	}
	return &Manager{load: load, wanted: initial, active: BackendMinimal}
}

// Current returns the active backend and its model; the model is nil for the
// minimal backend.
func (m *Manager) Current(ctx context.Context) (Backend, Abstractive) {
	m.mu.RLock()
	if m.loaded {
		backend, model := m.active, m.model
		m.mu.RUnlock()
		return backend, model
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		if err := m.install(ctx, m.wanted); err != nil {
			log.Warn().Err(err).Str("backend", string(m.wanted)).Msg("initial summarizer backend failed, using minimal")
		}
	}
	return m.active, m.model
}

// Active returns the backend currently installed without triggering a load.
func (m *Manager) Active() Backend {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.loaded {
		return m.wanted
	}
	return m.active
}

// Switch reloads the process-wide backend. If the new backend fails to load,
// the minimal backend is installed and the load error is returned.
func (m *Manager) Switch(ctx context.Context, backend Backend) error {
	if _, err := ParseBackend(string(backend)); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wanted = backend
	if err := m.install(ctx, backend); err != nil {
		log.Warn().Err(err).Str("backend", string(backend)).Msg("summarizer backend switch failed, reverted to minimal")
		return err
	}
	log.Info().Str("backend", string(backend)).Msg("summarizer backend switched")
	return nil
}

// install must be called with the write lock held.
func (m *Manager) install(ctx context.Context, backend Backend) error {
	m.loaded = true
	if !backend.Neural() {
		m.active, m.model = BackendMinimal, nil
		return nil
	}
	if m.load == nil {
		m.active, m.model = BackendMinimal, nil
		return fmt.Errorf("%w: %s: no loader configured", ErrBackendUnavailable, backend)
	}
	model, err := m.load(ctx, backend)
	if err != nil || model == nil {
		m.active, m.model = BackendMinimal, nil
		if err == nil {
			err = errors.New("loader returned no model")
		}
		return fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, backend, err)
	}
	m.active, m.model = backend, model
	return nil
}
