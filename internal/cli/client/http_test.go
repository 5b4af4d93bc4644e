package client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient_Get_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer lrl_token", r.Header.Get("Authorization"))
		assert.Equal(t, "/stats", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"document_count":3}}`))
	}))
	defer server.Close()

	api, err := NewAPIClientWithConfig("lrl_token", server.URL)
	require.NoError(t, err)

	resp, err := api.Get("/stats")
	require.NoError(t, err)
	assert.Contains(t, string(resp.Data), "document_count")
}

func TestAPIClient_NoToken_OmitsAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	api, err := NewAPIClientWithConfig("", server.URL)
	require.NoError(t, err)

	_, err = api.Get("/documents")
	require.NoError(t, err)
}

func TestAPIClient_Post_SendsJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"doc-1"}}`))
	}))
	defer server.Close()

	api, err := NewAPIClientWithConfig("lrl_token", server.URL)
	require.NoError(t, err)

	resp, err := api.Post("/documents", CreateDocumentRequest{Name: "n", Content: "c"})
	require.NoError(t, err)
	assert.Contains(t, string(resp.Data), "doc-1")
}

func TestAPIClient_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"document not found","code":"NOT_FOUND"}`))
	}))
	defer server.Close()

	api, err := NewAPIClientWithConfig("lrl_token", server.URL)
	require.NoError(t, err)

	_, err = api.Get("/documents/missing")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
	assert.Contains(t, apiErr.Error(), "document not found")
}

func TestAPIClient_NonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	api, err := NewAPIClientWithConfig("lrl_token", server.URL)
	require.NoError(t, err)

	_, err = api.Get("/search")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "upstream exploded")
}
