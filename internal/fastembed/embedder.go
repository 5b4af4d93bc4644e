// Package fastembed provides the local embedding backend over ONNX
// models. The first embedding call may download model weights, so
// initialization is asynchronous and bounded by a timeout.
package fastembed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	fastembed "github.com/anush008/fastembed-go"

	"github.com/loreline-ai/loreline/internal/domain"
)

const (
	// DefaultModel is the local model used when none is configured
	DefaultModel = "BAAI/bge-small-en-v1.5"

	defaultInitTimeout = 2 * time.Minute
	passageBatchSize   = 256
)

// modelMapping maps friendly model names to fastembed constants.
var modelMapping = map[string]fastembed.EmbeddingModel{
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-small-en":                      fastembed.BGESmallEN,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
	"BAAI/bge-base-en":                       fastembed.BGEBaseEN,
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
}

// modelDimensions maps fastembed models to their vector width.
var modelDimensions = map[fastembed.EmbeddingModel]int{
	fastembed.BGESmallENV15: 384,
	fastembed.BGESmallEN:    384,
	fastembed.BGEBaseENV15:  768,
	fastembed.BGEBaseEN:     768,
	fastembed.AllMiniLML6V2: 384,
}

// embeddingModel is the seam around *fastembed.FlagEmbedding.
type embeddingModel interface {
	QueryEmbed(input string) ([]float32, error)
	PassageEmbed(input []string, batchSize int) ([][]float32, error)
	Destroy() error
}

// Embedder is the local embedding backend. Model initialization runs
// once in the background; concurrent callers share the same in-flight
// init and each waits up to the configured timeout.
type Embedder struct {
	modelName   string
	dimension   int
	initTimeout time.Duration
	onProgress  domain.ProgressFunc
	initFn      func() (embeddingModel, error)

	mu       sync.Mutex
	initDone chan struct{}
	model    embeddingModel
	initErr  error
}

type Config struct {
	Model       string
	CacheDir    string
	InitTimeout time.Duration
	OnProgress  domain.ProgressFunc
}

// New creates the local backend. Unknown models are rejected here so a
// misconfiguration fails before any download starts.
func New(cfg Config) (*Embedder, error) {
	name := cfg.Model
	if name == "" {
		name = DefaultModel
	}

	model, ok := modelMapping[name]
	if !ok {
		model = fastembed.EmbeddingModel(name)
		if _, known := modelDimensions[model]; !known {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation,
				fmt.Sprintf("unsupported local embedding model %q", name), nil)
		}
	}

	timeout := cfg.InitTimeout
	if timeout <= 0 {
		timeout = defaultInitTimeout
	}

	cacheDir := cfg.CacheDir
	e := &Embedder{
		modelName:   name,
		dimension:   modelDimensions[model],
		initTimeout: timeout,
		onProgress:  cfg.OnProgress,
		initFn: func() (embeddingModel, error) {
			showProgress := false
			opts := &fastembed.InitOptions{
				Model:                model,
				MaxLength:            512,
				ShowDownloadProgress: &showProgress,
			}
			if cacheDir != "" {
				opts.CacheDir = cacheDir
			}
			return fastembed.NewFlagEmbedding(opts)
		},
	}
	return e, nil
}

func (e *Embedder) Name() string { return "local" }

func (e *Embedder) Dimension() int { return e.dimension }

// ensureModel starts initialization on first use and waits for it.
// A timed-out caller returns INIT_TIMEOUT while the download keeps
// running; a later call can still succeed.
func (e *Embedder) ensureModel(ctx context.Context) (embeddingModel, error) {
	e.mu.Lock()
	if e.initDone == nil {
		e.initDone = make(chan struct{})
		e.emit(domain.Progress{Stage: "loading-model", Current: 0, Total: 1})
		go func() {
			model, err := e.initFn()
			e.mu.Lock()
			e.model, e.initErr = model, err
			e.mu.Unlock()
			if err == nil {
				e.emit(domain.Progress{Stage: "model-ready", Current: 1, Total: 1})
			}
			close(e.initDone)
		}()
	}
	done := e.initDone
	e.mu.Unlock()

	timer := time.NewTimer(e.initTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, domain.ErrInitTimeout
	case <-done:
	}

	e.mu.Lock()
	model, err := e.model, e.initErr
	e.mu.Unlock()
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeBackendUnavailable,
			"local embedding model failed to initialize", err)
	}
	return model, nil
}

// Embed generates a query embedding for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyText
	}

	model, err := e.ensureModel(ctx)
	if err != nil {
		return nil, err
	}

	embedding, err := model.QueryEmbed(text)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeBackendUnavailable,
			"local query embedding failed", err)
	}
	return embedding, nil
}

// EmbedBatch generates passage embeddings for document chunks.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string, progress domain.ProgressFunc) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, domain.ErrEmptyText
		}
	}

	model, err := e.ensureModel(ctx)
	if err != nil {
		return nil, err
	}

	embeddings, err := model.PassageEmbed(texts, passageBatchSize)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeBackendUnavailable,
			"local batch embedding failed", err)
	}

	if progress != nil {
		progress(domain.Progress{Stage: "embedding", Current: len(texts), Total: len(texts)})
	}
	return embeddings, nil
}

// Close releases the underlying ONNX session, if one was created.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model != nil {
		return e.model.Destroy()
	}
	return nil
}

func (e *Embedder) emit(p domain.Progress) {
	if e.onProgress != nil {
		e.onProgress(p)
	}
}
