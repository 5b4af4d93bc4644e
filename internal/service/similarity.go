package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/loreline-ai/loreline/internal/domain"
)

// SearchResult pairs a chunk with its similarity to the query.
type SearchResult struct {
	Chunk      *domain.Chunk
	Similarity float64
}

// SearchStatistics summarizes a result set.
type SearchStatistics struct {
	Count int
	Avg   float64
	Min   float64
	Max   float64
}

const (
	truncationMarker = "..."
	// minTruncateBudget is the smallest remaining context budget worth
	// filling with a truncated entry.
	minTruncateBudget = 50
	// dedupWindow is the prefix/suffix width compared when testing two
	// chunk texts for near-identity.
	dedupWindow = 100
)

// CosineSimilarity computes the cosine of the angle between two
// vectors. Mismatched lengths or a zero-magnitude vector yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// FindSimilar scores every chunk against the query vector, keeps those
// at or above threshold, and returns the topK best. Ties keep the
// original enumeration order.
func FindSimilar(chunks []*domain.Chunk, query []float32, topK int, threshold float64) []SearchResult {
	if len(chunks) == 0 || topK <= 0 {
		return nil
	}

	results := make([]SearchResult, 0, len(chunks))
	for _, chunk := range chunks {
		similarity := CosineSimilarity(chunk.Embedding, query)
		if similarity >= threshold {
			results = append(results, SearchResult{Chunk: chunk, Similarity: similarity})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// DeduplicateResults walks results in rank order and drops any whose
// text is near-identical to an already-kept one. Overlapping chunk
// windows routinely produce such near-duplicates.
func DeduplicateResults(results []SearchResult, dupThreshold float64) []SearchResult {
	if len(results) <= 1 {
		return results
	}

	kept := make([]SearchResult, 0, len(results))
	for _, candidate := range results {
		duplicate := false
		for _, existing := range kept {
			if nearIdentical(candidate.Chunk.Text, existing.Chunk.Text, dupThreshold) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// nearIdentical is a cheap structural test: containment with a length
// ratio at or above threshold, or matching prefix and suffix windows.
func nearIdentical(a, b string, threshold float64) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return true
	}

	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return false
	}

	if strings.Contains(longer, shorter) {
		return float64(len(shorter))/float64(len(longer)) >= threshold
	}

	if len(shorter) >= 2*dedupWindow {
		return a[:dedupWindow] == b[:dedupWindow] &&
			a[len(a)-dedupWindow:] == b[len(b)-dedupWindow:]
	}
	return false
}

// FormatResultsAsContext renders results in rank order as
// "[relevance: NN%]\n<text>\n\n" entries within maxLength. An entry
// that would overflow is truncated with a marker when a minimal budget
// remains, otherwise dropped; formatting stops either way.
func FormatResultsAsContext(results []SearchResult, maxLength int) string {
	if len(results) == 0 || maxLength <= 0 {
		return ""
	}

	var sb strings.Builder
	for _, result := range results {
		entry := fmt.Sprintf("[relevance: %d%%]\n%s\n\n",
			int(math.Round(result.Similarity*100)), result.Chunk.Text)

		remaining := maxLength - sb.Len()
		if len(entry) <= remaining {
			sb.WriteString(entry)
			continue
		}

		if remaining >= minTruncateBudget {
			cut := remaining - len(truncationMarker)
			// Never split a multibyte rune at the cut point.
			for cut > 0 && !utf8.RuneStart(entry[cut]) {
				cut--
			}
			sb.WriteString(entry[:cut])
			sb.WriteString(truncationMarker)
		}
		break
	}
	return sb.String()
}

// ComputeSearchStatistics aggregates count/avg/min/max similarity.
func ComputeSearchStatistics(results []SearchResult) SearchStatistics {
	stats := SearchStatistics{Count: len(results)}
	if len(results) == 0 {
		return stats
	}

	stats.Min = results[0].Similarity
	stats.Max = results[0].Similarity
	var sum float64
	for _, r := range results {
		sum += r.Similarity
		if r.Similarity < stats.Min {
			stats.Min = r.Similarity
		}
		if r.Similarity > stats.Max {
			stats.Max = r.Similarity
		}
	}
	stats.Avg = sum / float64(len(results))
	return stats
}
