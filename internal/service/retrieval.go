package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/loreline-ai/loreline/internal/domain"
	"github.com/loreline-ai/loreline/internal/pagination"
	"github.com/loreline-ai/loreline/internal/repository"
	"github.com/loreline-ai/loreline/internal/telemetry"
)

// VectorStore defines the persistence surface the orchestrator needs.
type VectorStore interface {
	AddDocument(ctx context.Context, doc *domain.Document) error
	AddChunks(ctx context.Context, chunks []*domain.Chunk) error
	DeleteDocument(ctx context.Context, id string) error
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	GetAllDocuments(ctx context.Context) ([]*domain.Document, error)
	GetDocumentsPage(ctx context.Context, limit int, cursor *pagination.Cursor) ([]*domain.Document, error)
	GetDocumentsByCollection(ctx context.Context, collectionKey string) ([]*domain.Document, error)
	GetAllChunks(ctx context.Context) ([]*domain.Chunk, error)
	GetChunksByDocID(ctx context.Context, docID string) ([]*domain.Chunk, error)
	DocumentCount(ctx context.Context) (int, error)
	ChunkCount(ctx context.Context) (int, error)
	ClearAll(ctx context.Context) error
	GetSettings(ctx context.Context) (*repository.Settings, error)
	SaveSettings(ctx context.Context, settings *repository.Settings) error
}

// Embedder is the embedding surface, satisfied by embedding.Provider.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string, progress domain.ProgressFunc) ([][]float32, error)
	Name() string
	Dimension() int
}

// Archiver stores the original bytes of ingested uploads, satisfied by
// the S3 storage client. A nil Archiver disables archival.
type Archiver interface {
	Archive(ctx context.Context, key string, data []byte) error
	DeleteObject(ctx context.Context, key string) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// RetrievalConfig carries the tunables for search and prompt
// augmentation.
type RetrievalConfig struct {
	TopK             int
	Threshold        float64
	DedupThreshold   float64
	MaxContextLength int
	ContextPrefix    string
	ContextSuffix    string
	// StalePolicy decides what happens to sync candidates without a
	// comparable timestamp: "skip" or "reingest".
	StalePolicy string
}

// DefaultRetrievalConfig provides sane defaults for retrieval.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopK:             5,
		Threshold:        0.3,
		DedupThreshold:   0.95,
		MaxContextLength: 4000,
		ContextPrefix:    "Relevant context from the knowledge base:\n\n",
		ContextSuffix:    "\n\nUse the context above when it is relevant to the question.",
		StalePolicy:      StalePolicySkip,
	}
}

// RetrievalService coordinates document lifecycle, search and prompt
// augmentation. It is the single writer of the vector store.
type RetrievalService struct {
	store    VectorStore
	embedder Embedder
	chunker  Chunker
	archiver Archiver
	uuidGen  UUIDGenerator
	cfg      RetrievalConfig
}

// NewRetrievalService creates a new RetrievalService. archiver may be
// nil when upload archival is not configured.
func NewRetrievalService(store VectorStore, embedder Embedder, chunker Chunker, archiver Archiver, cfg RetrievalConfig) *RetrievalService {
	if cfg.TopK <= 0 {
		cfg = DefaultRetrievalConfig()
	}
	return &RetrievalService{
		store:    store,
		embedder: embedder,
		chunker:  chunker,
		archiver: archiver,
		uuidGen:  &DefaultUUIDGenerator{},
		cfg:      cfg,
	}
}

// provenanceTag prefixes chunk text with its source document name.
func provenanceTag(name, chunk string) string {
	return fmt.Sprintf("[Document: %s]\n%s", name, chunk)
}

// ingest chunks, embeds and persists content as a fresh document.
// On any failure after the document row was written, the document is
// deleted again so no partial state survives.
func (s *RetrievalService) ingest(ctx context.Context, doc *domain.Document, content string) (int, error) {
	pieces := s.chunker.ChunkText(content)
	if len(pieces) == 0 {
		return 0, domain.ErrEmptyText
	}

	tagged := make([]string, len(pieces))
	for i, piece := range pieces {
		tagged[i] = provenanceTag(doc.Name, piece)
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, tagged, nil)
	if err != nil {
		return 0, err
	}
	if len(embeddings) != len(tagged) {
		return 0, domain.NewUpstreamError(
			fmt.Sprintf("embedding count mismatch: %d embeddings for %d chunks", len(embeddings), len(tagged)), nil)
	}

	doc.ChunkCount = len(pieces)
	if err := s.store.AddDocument(ctx, doc); err != nil {
		return 0, err
	}

	chunks := make([]*domain.Chunk, len(tagged))
	for i := range tagged {
		chunks[i] = domain.NewChunk(doc.ID, i, tagged[i], embeddings[i])
	}
	if err := s.store.AddChunks(ctx, chunks); err != nil {
		// Compensate: the store has no cross-table transaction spanning
		// this path, so remove the half-written document.
		if delErr := s.store.DeleteDocument(ctx, doc.ID); delErr != nil {
			log.Printf("retrieval: compensating delete of %s failed: %v", doc.ID, delErr)
		}
		return 0, err
	}

	return len(chunks), nil
}

// AddDocument ingests uploaded content as a new document.
func (s *RetrievalService) AddDocument(ctx context.Context, name, content string, sizeBytes int64) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.AddDocument", telemetry.SpanAttributes{
		Backend: s.embedder.Name(),
	})
	defer span.End()

	if strings.TrimSpace(name) == "" {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "document name is required", nil)
	}

	doc := domain.NewDocument(s.uuidGen.NewString(), name, domain.SourceTypeUpload, sizeBytes, time.Now().UTC())
	if _, err := s.ingest(ctx, doc, content); err != nil {
		span.SetError(err)
		return nil, err
	}

	if s.archiver != nil {
		// Best-effort: the document is already searchable either way.
		key := "uploads/" + doc.ID
		if err := s.archiver.Archive(ctx, key, []byte(content)); err != nil {
			log.Printf("retrieval: archiving %s failed: %v", key, err)
		}
	}

	return doc, nil
}

// RemoveDocument cascade-deletes a document and its chunks.
func (s *RetrievalService) RemoveDocument(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.RemoveDocument", telemetry.SpanAttributes{
		DocumentID: id,
	})
	defer span.End()

	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return err
	}

	if s.archiver != nil {
		// Best-effort: deleting a missing archive key is harmless.
		key := "uploads/" + id
		if err := s.archiver.DeleteObject(ctx, key); err != nil {
			log.Printf("retrieval: deleting archive %s failed: %v", key, err)
		}
	}
	return nil
}

// ArchiveURL returns a presigned download URL for the archived original
// of an uploaded document.
func (s *RetrievalService) ArchiveURL(ctx context.Context, id string) (string, error) {
	if s.archiver == nil {
		return "", domain.NewDomainError(domain.ErrCodeNotFound, "archival is not configured")
	}

	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}
	if doc.SourceType != domain.SourceTypeUpload {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation,
			"only uploaded documents are archived", nil)
	}

	return s.archiver.GenerateDownloadURL(ctx, "uploads/"+id)
}

// GetDocument returns a single document by ID.
func (s *RetrievalService) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// ListDocuments returns all documents, newest first.
func (s *RetrievalService) ListDocuments(ctx context.Context) ([]*domain.Document, error) {
	return s.store.GetAllDocuments(ctx)
}

// ListDocumentsPage returns a cursor page of documents, newest first.
func (s *RetrievalService) ListDocumentsPage(ctx context.Context, limit int, cursor string) (*pagination.PageResult[*domain.Document], error) {
	decoded, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}

	docs, err := s.store.GetDocumentsPage(ctx, limit, decoded)
	if err != nil {
		return nil, err
	}

	next := pagination.CreateNextCursor(docs, limit,
		func(d *domain.Document) string { return d.ID },
		func(d *domain.Document) time.Time { return d.CreatedAt },
	)
	return &pagination.PageResult[*domain.Document]{
		Items:   docs,
		Cursor:  next,
		HasMore: next != "",
	}, nil
}

// rank embeds the query and runs the full ranking pipeline.
func (s *RetrievalService) rank(ctx context.Context, query string) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	chunks, err := s.store.GetAllChunks(ctx)
	if err != nil {
		return nil, err
	}

	results := FindSimilar(chunks, queryVector, s.cfg.TopK, s.cfg.Threshold)
	return DeduplicateResults(results, s.cfg.DedupThreshold), nil
}

// Search returns a bounded context string for the query.
func (s *RetrievalService) Search(ctx context.Context, query string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.Search", telemetry.SpanAttributes{
		Backend: s.embedder.Name(),
	})
	defer span.End()

	results, err := s.rank(ctx, query)
	if err != nil {
		span.SetError(err)
		return "", err
	}
	return FormatResultsAsContext(results, s.cfg.MaxContextLength), nil
}

// SourceDetail is one distinct source document with its best chunk
// similarity.
type SourceDetail struct {
	DocumentID string  `json:"document_id"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// DetailedSearchResult carries the formatted context plus per-document
// attribution.
type DetailedSearchResult struct {
	Context string         `json:"context"`
	Sources []SourceDetail `json:"sources"`
}

// SearchWithDetails is Search plus per-document best-similarity
// attribution, one entry per distinct source, sorted descending.
func (s *RetrievalService) SearchWithDetails(ctx context.Context, query string) (*DetailedSearchResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.SearchWithDetails", telemetry.SpanAttributes{
		Backend: s.embedder.Name(),
	})
	defer span.End()

	results, err := s.rank(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	sources, err := s.aggregateSources(ctx, results)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return &DetailedSearchResult{
		Context: FormatResultsAsContext(results, s.cfg.MaxContextLength),
		Sources: sources,
	}, nil
}

func (s *RetrievalService) aggregateSources(ctx context.Context, results []SearchResult) ([]SourceDetail, error) {
	if len(results) == 0 {
		return nil, nil
	}

	docs, err := s.store.GetAllDocuments(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(docs))
	for _, doc := range docs {
		names[doc.ID] = doc.Name
	}

	best := make(map[string]float64)
	order := make([]string, 0, len(results))
	for _, r := range results {
		if current, seen := best[r.Chunk.DocID]; !seen {
			best[r.Chunk.DocID] = r.Similarity
			order = append(order, r.Chunk.DocID)
		} else if r.Similarity > current {
			best[r.Chunk.DocID] = r.Similarity
		}
	}

	sources := make([]SourceDetail, 0, len(order))
	for _, docID := range order {
		sources = append(sources, SourceDetail{
			DocumentID: docID,
			Name:       names[docID],
			Similarity: best[docID],
		})
	}
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Similarity > sources[j].Similarity
	})
	return sources, nil
}

// AugmentOptions controls AugmentPrompt behavior.
type AugmentOptions struct {
	ReturnSources bool
}

// AugmentPrompt splices retrieved context into a chat message list.
// The input is returned unchanged (never an error) when retrieval is
// disabled, the store is empty, no query can be determined, or no
// context clears the threshold.
func (s *RetrievalService) AugmentPrompt(ctx context.Context, messages []domain.Message, query string, opts AugmentOptions) ([]domain.Message, []SourceDetail, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.AugmentPrompt", telemetry.SpanAttributes{
		Backend: s.embedder.Name(),
	})
	defer span.End()

	enabled, err := s.Enabled(ctx)
	if err != nil {
		span.SetError(err)
		return nil, nil, err
	}
	if !enabled {
		return messages, nil, nil
	}

	chunkCount, err := s.store.ChunkCount(ctx)
	if err != nil {
		span.SetError(err)
		return nil, nil, err
	}
	if chunkCount == 0 {
		return messages, nil, nil
	}

	if query == "" {
		query = lastUserMessage(messages)
	}
	if strings.TrimSpace(query) == "" {
		return messages, nil, nil
	}

	results, err := s.rank(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, nil, err
	}

	contextText := FormatResultsAsContext(results, s.cfg.MaxContextLength)
	if contextText == "" {
		return messages, nil, nil
	}

	var sources []SourceDetail
	if opts.ReturnSources {
		sources, err = s.aggregateSources(ctx, results)
		if err != nil {
			span.SetError(err)
			return nil, nil, err
		}
	}

	wrapped := s.cfg.ContextPrefix + contextText + s.cfg.ContextSuffix

	augmented := make([]domain.Message, len(messages))
	copy(augmented, messages)
	for i, msg := range augmented {
		if msg.Role == domain.RoleSystem {
			augmented[i].Content = msg.Content + "\n\n" + wrapped
			return augmented, sources, nil
		}
	}

	withSystem := make([]domain.Message, 0, len(augmented)+1)
	withSystem = append(withSystem, domain.Message{Role: domain.RoleSystem, Content: wrapped})
	withSystem = append(withSystem, augmented...)
	return withSystem, sources, nil
}

func lastUserMessage(messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

// SetEnabled persists the retrieval enabled flag.
func (s *RetrievalService) SetEnabled(ctx context.Context, enabled bool) error {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return err
	}
	settings.Enabled = enabled
	return s.store.SaveSettings(ctx, settings)
}

// Enabled reads the persisted retrieval enabled flag.
func (s *RetrievalService) Enabled(ctx context.Context) (bool, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return false, err
	}
	return settings.Enabled, nil
}

// RetrievalStats summarizes the store and active backend.
type RetrievalStats struct {
	DocumentCount int    `json:"document_count"`
	ChunkCount    int    `json:"chunk_count"`
	Backend       string `json:"backend"`
	Dimension     int    `json:"dimension"`
	Enabled       bool   `json:"enabled"`
}

// Stats reports document/chunk counts and the active backend.
func (s *RetrievalService) Stats(ctx context.Context) (*RetrievalStats, error) {
	docCount, err := s.store.DocumentCount(ctx)
	if err != nil {
		return nil, err
	}
	chunkCount, err := s.store.ChunkCount(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	return &RetrievalStats{
		DocumentCount: docCount,
		ChunkCount:    chunkCount,
		Backend:       s.embedder.Name(),
		Dimension:     s.embedder.Dimension(),
		Enabled:       settings.Enabled,
	}, nil
}
