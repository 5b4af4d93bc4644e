package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/loreline-ai/loreline/internal/domain"
)

const (
	// DefaultBaseURL is the standard local Ollama endpoint
	DefaultBaseURL = "http://localhost:11434"
	// DefaultModel is the embedding model used when none is configured
	DefaultModel = "nomic-embed-text"

	defaultTimeout = 30 * time.Second
)

// modelDimensions maps common Ollama embedding models to their vector
// width. Unknown models fall back to the nomic-embed-text width.
var modelDimensions = map[string]int{
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
	"snowflake-arctic-embed": 1024,
}

// Client generates embeddings through a local Ollama server.
type Client struct {
	client    *http.Client
	baseURL   string
	model     string
	dimension int
}

type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewClient creates an Ollama embedding client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	dimension, ok := modelDimensions[cfg.Model]
	if !ok {
		dimension = modelDimensions[DefaultModel]
	}

	return &Client{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		model:     cfg.Model,
		dimension: dimension,
	}
}

func (c *Client) Name() string { return "ollama" }

func (c *Client) Dimension() int { return c.dimension }

// Embed generates an embedding for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyText
	}

	jsonBody, err := json.Marshal(embedRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError("ollama request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, domain.NewUpstreamError(
			fmt.Sprintf("ollama returned status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, domain.NewUpstreamError("decode ollama response", err)
	}

	embedding := make([]float32, len(embedResp.Embedding))
	for i, v := range embedResp.Embedding {
		embedding[i] = float32(v)
	}
	return embedding, nil
}

// EmbedBatch embeds texts one request at a time; Ollama has no native
// batch endpoint.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, progress domain.ProgressFunc) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, domain.ErrEmptyText
		}
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := c.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		embeddings[i] = embedding

		if progress != nil {
			progress(domain.Progress{Stage: "embedding", Current: i + 1, Total: len(texts)})
		}
	}
	return embeddings, nil
}

// Ping checks reachability via /api/tags without running inference.
// Used during backend auto-detection.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return nil
}
