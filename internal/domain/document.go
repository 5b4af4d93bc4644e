package domain

import (
	"fmt"
	"time"
)

// SourceType represents where a document's content originated
type SourceType string

const (
	SourceTypeUpload   SourceType = "upload"
	SourceTypeWikiPage SourceType = "wiki-page"
)

// Document represents one ingested source unit. Documents are created
// together with their chunk batch and removed only through cascade delete.
type Document struct {
	ID         string
	Name       string
	SourceType SourceType
	SizeBytes  int64
	ChunkCount int

	// Provenance for externally-synced documents. Empty for uploads.
	SourceURL      string
	ExternalPageID string
	LastModified   string // source-side timestamp, opaque ISO-8601 string
	CollectionKey  string
	CollectionName string

	CreatedAt time.Time
}

// NewDocument creates a new Document instance
func NewDocument(id, name string, sourceType SourceType, sizeBytes int64, createdAt time.Time) *Document {
	return &Document{
		ID:         id,
		Name:       name,
		SourceType: sourceType,
		SizeBytes:  sizeBytes,
		CreatedAt:  createdAt,
	}
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if d.Name == "" {
		return fmt.Errorf("document Name is required")
	}

	if !isValidSourceType(d.SourceType) {
		return fmt.Errorf("document SourceType is invalid: %s", d.SourceType)
	}

	if d.ChunkCount < 0 {
		return fmt.Errorf("document ChunkCount cannot be negative")
	}

	if d.SourceType == SourceTypeWikiPage && d.ExternalPageID == "" {
		return fmt.Errorf("wiki-page document requires ExternalPageID")
	}

	return nil
}

// isValidSourceType checks if a SourceType is valid
func isValidSourceType(t SourceType) bool {
	switch t {
	case SourceTypeUpload, SourceTypeWikiPage:
		return true
	}
	return false
}
