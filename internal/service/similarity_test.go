package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loreline-ai/loreline/internal/domain"
)

func chunkWithEmbedding(id string, embedding []float32) *domain.Chunk {
	return &domain.Chunk{ID: id, DocID: "doc", Text: "text for " + id, Embedding: embedding}
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors score 1", func(t *testing.T) {
		v := []float32{0.3, 0.5, 0.7}
		assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
	})

	t.Run("orthogonal vectors score 0", func(t *testing.T) {
		assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	})

	t.Run("opposite vectors score -1", func(t *testing.T) {
		assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 2}, []float32{-1, -2}), 1e-9)
	})

	t.Run("zero magnitude scores 0", func(t *testing.T) {
		assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 2}))
	})

	t.Run("length mismatch scores 0", func(t *testing.T) {
		assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	})
}

func TestFindSimilar_ThresholdAndOrder(t *testing.T) {
	query := []float32{1, 0}
	chunks := []*domain.Chunk{
		chunkWithEmbedding("low", []float32{0, 1}),      // similarity 0
		chunkWithEmbedding("exact", []float32{2, 0}),    // similarity 1
		chunkWithEmbedding("close", []float32{1, 0.2}),  // high
		chunkWithEmbedding("medium", []float32{1, 1}),   // ~0.707
	}

	results := FindSimilar(chunks, query, 10, 0.5)

	require.Len(t, results, 3)
	assert.Equal(t, "exact", results[0].Chunk.ID)
	assert.Equal(t, "close", results[1].Chunk.ID)
	assert.Equal(t, "medium", results[2].Chunk.ID)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Similarity, 0.5)
	}
}

func TestFindSimilar_TopKLimits(t *testing.T) {
	query := []float32{1, 0}
	chunks := []*domain.Chunk{
		chunkWithEmbedding("a", []float32{1, 0}),
		chunkWithEmbedding("b", []float32{1, 0.1}),
		chunkWithEmbedding("c", []float32{1, 0.2}),
	}

	assert.Len(t, FindSimilar(chunks, query, 2, 0), 2)
	assert.Nil(t, FindSimilar(chunks, query, 0, 0))
	assert.Nil(t, FindSimilar(nil, query, 5, 0))
}

func TestFindSimilar_StableTieOrder(t *testing.T) {
	query := []float32{1, 0}
	chunks := []*domain.Chunk{
		chunkWithEmbedding("first", []float32{3, 0}),
		chunkWithEmbedding("second", []float32{5, 0}),
	}

	results := FindSimilar(chunks, query, 10, 0)

	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Chunk.ID)
	assert.Equal(t, "second", results[1].Chunk.ID)
}

func TestDeduplicateResults(t *testing.T) {
	base := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 10)

	t.Run("exact duplicate dropped", func(t *testing.T) {
		results := []SearchResult{
			{Chunk: &domain.Chunk{ID: "a", Text: base}, Similarity: 0.9},
			{Chunk: &domain.Chunk{ID: "b", Text: base}, Similarity: 0.8},
		}
		kept := DeduplicateResults(results, 0.95)
		require.Len(t, kept, 1)
		assert.Equal(t, "a", kept[0].Chunk.ID)
	})

	t.Run("near-total containment dropped", func(t *testing.T) {
		results := []SearchResult{
			{Chunk: &domain.Chunk{ID: "a", Text: base}, Similarity: 0.9},
			{Chunk: &domain.Chunk{ID: "b", Text: strings.TrimSuffix(base, " ")}, Similarity: 0.8},
		}
		kept := DeduplicateResults(results, 0.95)
		assert.Len(t, kept, 1)
	})

	t.Run("small contained snippet kept", func(t *testing.T) {
		results := []SearchResult{
			{Chunk: &domain.Chunk{ID: "a", Text: base}, Similarity: 0.9},
			{Chunk: &domain.Chunk{ID: "b", Text: "quick brown fox"}, Similarity: 0.8},
		}
		kept := DeduplicateResults(results, 0.95)
		assert.Len(t, kept, 2)
	})

	t.Run("matching prefix and suffix windows dropped", func(t *testing.T) {
		middleA := base + "variant one in the middle section here " + base
		middleB := base + "variant two with other middle content " + base
		results := []SearchResult{
			{Chunk: &domain.Chunk{ID: "a", Text: middleA}, Similarity: 0.9},
			{Chunk: &domain.Chunk{ID: "b", Text: middleB}, Similarity: 0.8},
		}
		kept := DeduplicateResults(results, 0.95)
		assert.Len(t, kept, 1)
	})

	t.Run("distinct texts kept", func(t *testing.T) {
		results := []SearchResult{
			{Chunk: &domain.Chunk{ID: "a", Text: strings.Repeat("alpha content ", 20)}, Similarity: 0.9},
			{Chunk: &domain.Chunk{ID: "b", Text: strings.Repeat("omega content ", 20)}, Similarity: 0.8},
		}
		kept := DeduplicateResults(results, 0.95)
		assert.Len(t, kept, 2)
	})
}

func TestFormatResultsAsContext(t *testing.T) {
	t.Run("entries in rank order with relevance tags", func(t *testing.T) {
		results := []SearchResult{
			{Chunk: &domain.Chunk{Text: "first chunk"}, Similarity: 0.92},
			{Chunk: &domain.Chunk{Text: "second chunk"}, Similarity: 0.455},
		}

		out := FormatResultsAsContext(results, 1000)

		assert.Contains(t, out, "[relevance: 92%]\nfirst chunk\n\n")
		assert.Contains(t, out, "[relevance: 46%]\nsecond chunk\n\n")
		assert.Less(t, strings.Index(out, "first"), strings.Index(out, "second"))
	})

	t.Run("overflowing entry truncated with marker", func(t *testing.T) {
		results := []SearchResult{
			{Chunk: &domain.Chunk{Text: strings.Repeat("x", 500)}, Similarity: 0.9},
		}

		out := FormatResultsAsContext(results, 200)

		assert.Len(t, out, 200)
		assert.True(t, strings.HasSuffix(out, truncationMarker))
	})

	t.Run("truncation never splits a rune", func(t *testing.T) {
		results := []SearchResult{
			{Chunk: &domain.Chunk{Text: strings.Repeat("世", 200)}, Similarity: 0.9},
		}

		out := FormatResultsAsContext(results, 100)

		assert.True(t, utf8.ValidString(out))
		assert.True(t, strings.HasSuffix(out, truncationMarker))
		assert.LessOrEqual(t, len(out), 100)
	})

	t.Run("entry omitted when remaining budget too small", func(t *testing.T) {
		first := strings.Repeat("a", 100)
		results := []SearchResult{
			{Chunk: &domain.Chunk{Text: first}, Similarity: 0.9},
			{Chunk: &domain.Chunk{Text: strings.Repeat("b", 100)}, Similarity: 0.8},
		}

		// First entry is "[relevance: 90%]\n" + 100 + "\n\n" = 119 chars,
		// leaving well under the minimal budget.
		out := FormatResultsAsContext(results, 140)

		assert.Contains(t, out, first)
		assert.NotContains(t, out, "b")
		assert.LessOrEqual(t, len(out), 140)
	})

	t.Run("empty inputs", func(t *testing.T) {
		assert.Equal(t, "", FormatResultsAsContext(nil, 100))
		assert.Equal(t, "", FormatResultsAsContext([]SearchResult{{Chunk: &domain.Chunk{Text: "x"}}}, 0))
	})
}

func TestComputeSearchStatistics(t *testing.T) {
	results := []SearchResult{
		{Similarity: 0.9},
		{Similarity: 0.5},
		{Similarity: 0.7},
	}

	stats := ComputeSearchStatistics(results)

	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 0.7, stats.Avg, 1e-9)
	assert.Equal(t, 0.5, stats.Min)
	assert.Equal(t, 0.9, stats.Max)

	assert.Equal(t, SearchStatistics{}, ComputeSearchStatistics(nil))
}
