package openai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/loreline-ai/loreline/internal/domain"
)

const (
	// DefaultModel is the OpenAI model used for generating embeddings
	DefaultModel = openai.SmallEmbedding3

	// maxBatchSize caps the number of inputs per upstream request.
	maxBatchSize = 100
)

// modelDimensions maps supported embedding models to their vector width.
var modelDimensions = map[openai.EmbeddingModel]int{
	openai.AdaEmbeddingV2:  1536,
	openai.SmallEmbedding3: 1536,
	openai.LargeEmbedding3: 3072,
}

// embeddingAPI is the upstream seam, satisfied by *openai.Client.
type embeddingAPI interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Client generates embeddings through the OpenAI API.
type Client struct {
	api       embeddingAPI
	model     openai.EmbeddingModel
	dimension int
}

type Config struct {
	APIKey string
	Model  string
}

// NewClient creates an OpenAI embedding client. An empty model falls
// back to DefaultModel; unknown models report the ada/3-small width.
func NewClient(cfg Config) *Client {
	model := openai.EmbeddingModel(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	dimension, ok := modelDimensions[model]
	if !ok {
		dimension = modelDimensions[DefaultModel]
	}
	return &Client{
		api:       openai.NewClient(cfg.APIKey),
		model:     model,
		dimension: dimension,
	}
}

func (c *Client) Name() string { return "openai" }

func (c *Client) Dimension() int { return c.dimension }

// Embed generates an embedding for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyText
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.model,
	})
	if err != nil {
		return nil, domain.NewUpstreamError("openai embedding request failed", err)
	}
	if len(resp.Data) == 0 {
		return nil, domain.NewUpstreamError("openai returned no embedding data", nil)
	}

	return resp.Data[0].Embedding, nil
}

// EmbedBatch embeds texts in upstream sub-batches of at most 100
// inputs. Response items are reordered by their upstream index before
// concatenation, so output position i always corresponds to texts[i].
func (c *Client) EmbedBatch(ctx context.Context, texts []string, progress domain.ProgressFunc) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, domain.ErrEmptyText
		}
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts[start:end],
			Model: c.model,
		})
		if err != nil {
			return nil, domain.NewUpstreamError(
				fmt.Sprintf("openai batch embedding failed at offset %d", start), err)
		}
		if len(resp.Data) != end-start {
			return nil, domain.NewUpstreamError(
				fmt.Sprintf("openai returned %d embeddings for %d inputs", len(resp.Data), end-start), nil)
		}

		data := resp.Data
		sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })
		for _, item := range data {
			embeddings = append(embeddings, item.Embedding)
		}

		if progress != nil {
			progress(domain.Progress{Stage: "embedding", Current: end, Total: len(texts)})
		}
	}

	return embeddings, nil
}
