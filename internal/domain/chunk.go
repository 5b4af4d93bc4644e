package domain

import "fmt"

// Chunk represents one embeddable unit of text belonging to exactly one
// Document. Text carries a human-readable provenance prefix so ranked
// results can be attributed to a source without a join.
type Chunk struct {
	ID        string
	DocID     string
	Text      string
	Embedding []float32
	Position  int
}

// ChunkID builds the deterministic chunk identifier from the owning
// document ID and ordinal position.
func ChunkID(docID string, position int) string {
	return fmt.Sprintf("%s:%d", docID, position)
}

// NewChunk creates a Chunk at the given position within a document.
func NewChunk(docID string, position int, text string, embedding []float32) *Chunk {
	return &Chunk{
		ID:        ChunkID(docID, position),
		DocID:     docID,
		Text:      text,
		Embedding: embedding,
		Position:  position,
	}
}

// ValidateChunk validates a Chunk instance
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("chunk ID is required")
	}

	if c.DocID == "" {
		return fmt.Errorf("chunk DocID is required")
	}

	if c.Text == "" {
		return fmt.Errorf("chunk Text is required")
	}

	if len(c.Embedding) == 0 {
		return fmt.Errorf("chunk Embedding is required")
	}

	if c.Position < 0 {
		return fmt.Errorf("chunk Position cannot be negative")
	}

	return nil
}
