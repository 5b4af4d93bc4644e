// Package embedding selects and fronts the active embedding backend.
package embedding

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/loreline-ai/loreline/internal/domain"
	"github.com/loreline-ai/loreline/internal/repository"
)

// Backend generates embeddings. Implementations live in
// internal/openai, internal/ollama and internal/fastembed.
type Backend interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string, progress domain.ProgressFunc) ([][]float32, error)
	Dimension() int
	Name() string
}

// Pinger is implemented by backends that support a cheap reachability
// probe, used during auto-detection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreClearer wipes all stored vectors. Invoked when a backend switch
// changes the embedding dimension, since vectors from different models
// are not comparable.
type StoreClearer interface {
	ClearAll(ctx context.Context) error
}

// SettingsStore persists the active backend choice across restarts.
type SettingsStore interface {
	GetSettings(ctx context.Context) (*repository.Settings, error)
	SaveSettings(ctx context.Context, settings *repository.Settings) error
}

// detectOrder is the auto-detection priority.
var detectOrder = []string{"openai", "ollama", "local"}

const pingTimeout = 3 * time.Second

// Provider owns the set of registered backends and the active choice.
// All methods are safe for concurrent use.
type Provider struct {
	settings SettingsStore
	clearer  StoreClearer

	mu       sync.RWMutex
	backends map[string]Backend
	active   Backend
}

// NewProvider creates a provider over the given backends. Nil backends
// are skipped so callers can pass conditionally-constructed ones.
func NewProvider(settings SettingsStore, clearer StoreClearer, backends ...Backend) *Provider {
	p := &Provider{
		settings: settings,
		clearer:  clearer,
		backends: make(map[string]Backend),
	}
	for _, b := range backends {
		if b != nil {
			p.backends[b.Name()] = b
		}
	}
	return p
}

// Resolve activates a backend. An explicit name wins; otherwise the
// first available backend in detection priority order is used. Ollama
// counts as available only when it answers a ping.
func (p *Provider) Resolve(ctx context.Context, preferred string) (Backend, error) {
	if preferred != "" {
		if err := p.SwitchBackend(ctx, preferred); err != nil {
			return nil, err
		}
		return p.Active(), nil
	}

	for _, name := range detectOrder {
		p.mu.RLock()
		backend, ok := p.backends[name]
		p.mu.RUnlock()
		if !ok {
			continue
		}

		if pinger, needsProbe := backend.(Pinger); needsProbe {
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := pinger.Ping(pingCtx)
			cancel()
			if err != nil {
				log.Printf("embedding: backend %s not reachable, trying next: %v", name, err)
				continue
			}
		}

		if err := p.SwitchBackend(ctx, name); err != nil {
			return nil, err
		}
		return p.Active(), nil
	}

	return nil, domain.ErrBackendUnavailable
}

// SwitchBackend makes the named backend active. Switching to the
// already-active backend is a no-op. When the new backend's dimension
// differs from the persisted one, stored vectors are cleared first.
func (p *Provider) SwitchBackend(ctx context.Context, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active != nil && p.active.Name() == name {
		return nil
	}

	backend, ok := p.backends[name]
	if !ok {
		return domain.NewDomainErrorWithCause(domain.ErrCodeBackendUnavailable,
			fmt.Sprintf("unknown embedding backend %q", name), nil)
	}

	settings, err := p.settings.GetSettings(ctx)
	if err != nil {
		return err
	}

	if settings.BackendName != "" && settings.Dimension != backend.Dimension() {
		log.Printf("embedding: dimension change %d -> %d, clearing vector store",
			settings.Dimension, backend.Dimension())
		if err := p.clearer.ClearAll(ctx); err != nil {
			return err
		}
	}

	settings.BackendName = name
	settings.Dimension = backend.Dimension()
	if err := p.settings.SaveSettings(ctx, settings); err != nil {
		return err
	}

	p.active = backend
	return nil
}

// Active returns the current backend, nil before Resolve.
func (p *Provider) Active() Backend {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active
}

// Name returns the active backend name, empty before Resolve.
func (p *Provider) Name() string {
	if b := p.Active(); b != nil {
		return b.Name()
	}
	return ""
}

// Dimension returns the active backend's vector width, 0 before Resolve.
func (p *Provider) Dimension() int {
	if b := p.Active(); b != nil {
		return b.Dimension()
	}
	return 0
}

// Embed delegates to the active backend.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	b := p.Active()
	if b == nil {
		return nil, domain.ErrBackendUnavailable
	}
	return b.Embed(ctx, text)
}

// EmbedBatch delegates to the active backend.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string, progress domain.ProgressFunc) ([][]float32, error) {
	b := p.Active()
	if b == nil {
		return nil, domain.ErrBackendUnavailable
	}
	return b.EmbedBatch(ctx, texts, progress)
}
