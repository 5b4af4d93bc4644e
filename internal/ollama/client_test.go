package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loreline-ai/loreline/internal/domain"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, NewClient(Config{BaseURL: server.URL})
}

func TestClient_Embed_Success(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.Equal(t, "hello world", req.Prompt)

		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.25, -0.5, 1.0}})
	})

	embedding, err := client.Embed(context.Background(), "hello world")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5, 1.0}, embedding)
}

func TestClient_Embed_EmptyText(t *testing.T) {
	client := NewClient(Config{})

	embedding, err := client.Embed(context.Background(), "  ")

	assert.Nil(t, embedding)
	assert.Equal(t, domain.ErrEmptyText, err)
}

func TestClient_Embed_ServerError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})

	embedding, err := client.Embed(context.Background(), "hello")

	assert.Nil(t, embedding)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeUpstream, domainErr.Code)
	assert.Contains(t, domainErr.Message, "404")
}

func TestClient_EmbedBatch_LoopsWithProgress(t *testing.T) {
	var calls int
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{float64(calls)}})
	})

	var events []domain.Progress
	embeddings, err := client.EmbedBatch(context.Background(), []string{"a", "b", "c"}, func(p domain.Progress) {
		events = append(events, p)
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	require.Len(t, embeddings, 3)
	assert.Equal(t, []float32{1}, embeddings[0])
	assert.Equal(t, []float32{3}, embeddings[2])
	require.Len(t, events, 3)
	assert.Equal(t, domain.Progress{Stage: "embedding", Current: 3, Total: 3}, events[2])
}

func TestClient_Ping(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, client.Ping(context.Background()))

	down := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	assert.Error(t, down.Ping(context.Background()))
}

func TestNewClient_Dimensions(t *testing.T) {
	assert.Equal(t, 768, NewClient(Config{}).Dimension())
	assert.Equal(t, 1024, NewClient(Config{Model: "mxbai-embed-large"}).Dimension())
	assert.Equal(t, 768, NewClient(Config{Model: "custom-model"}).Dimension())
	assert.Equal(t, "ollama", NewClient(Config{}).Name())
}
