package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/loreline-ai/loreline/internal/domain"
	"github.com/loreline-ai/loreline/internal/pagination"
)

const documentColumns = `id, name, source_type, size_bytes, chunk_count,
	source_url, external_page_id, last_modified, collection_key, collection_name, created_at`

// AddDocument upserts a document by id. created_at is written once and
// preserved on conflict.
func (s *Store) AddDocument(ctx context.Context, d *domain.Document) error {
	if err := domain.ValidateDocument(d); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid document", err)
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents
			(id, name, source_type, size_bytes, chunk_count, source_url, external_page_id, last_modified, collection_key, collection_name, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			source_type = EXCLUDED.source_type,
			size_bytes = EXCLUDED.size_bytes,
			chunk_count = EXCLUDED.chunk_count,
			source_url = EXCLUDED.source_url,
			external_page_id = EXCLUDED.external_page_id,
			last_modified = EXCLUDED.last_modified,
			collection_key = EXCLUDED.collection_key,
			collection_name = EXCLUDED.collection_name`,
		d.ID, d.Name, d.SourceType, d.SizeBytes, d.ChunkCount,
		nullableString(d.SourceURL), nullableString(d.ExternalPageID), nullableString(d.LastModified),
		nullableString(d.CollectionKey), nullableString(d.CollectionName), d.CreatedAt,
	)
	if err != nil {
		return domain.NewStorageError("failed to upsert document", err)
	}
	return nil
}

// DeleteDocument cascades: chunks go first, then the document row.
// Deleting an unknown id is a no-op.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.NewStorageError("failed to begin delete transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE doc_id = $1`, id); err != nil {
		return domain.NewStorageError("failed to delete chunks", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		return domain.NewStorageError("failed to delete document", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.NewStorageError("failed to commit delete", err)
	}
	return nil
}

// GetDocument returns a document by id or domain.ErrDocumentNotFound.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, domain.NewStorageError("failed to get document", err)
	}
	return doc, nil
}

// GetAllDocuments returns all documents ordered by created_at descending.
func (s *Store) GetAllDocuments(ctx context.Context) ([]*domain.Document, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, domain.NewStorageError("failed to list documents", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// GetDocumentsByCollection returns externally-synced documents belonging to
// a collection, used to build the sync classification map.
func (s *Store) GetDocumentsByCollection(ctx context.Context, collectionKey string) ([]*domain.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM documents
		 WHERE collection_key = $1 AND source_type = $2
		 ORDER BY created_at DESC`,
		collectionKey, domain.SourceTypeWikiPage,
	)
	if err != nil {
		return nil, domain.NewStorageError("failed to list collection documents", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// GetDocumentByExternalID returns the synced document for an external page
// within a collection, or domain.ErrDocumentNotFound.
func (s *Store) GetDocumentByExternalID(ctx context.Context, collectionKey, externalID string) (*domain.Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents
		 WHERE collection_key = $1 AND external_page_id = $2 AND source_type = $3`,
		collectionKey, externalID, domain.SourceTypeWikiPage,
	)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, domain.NewStorageError("failed to get document by external id", err)
	}
	return doc, nil
}

// GetDocumentsPage returns up to limit documents, newest first. A non-nil
// cursor resumes after the (created_at, id) position it encodes.
func (s *Store) GetDocumentsPage(ctx context.Context, limit int, cursor *pagination.Cursor) ([]*domain.Document, error) {
	var rows pgx.Rows
	var err error
	if cursor != nil {
		rows, err = s.pool.Query(ctx,
			`SELECT `+documentColumns+` FROM documents
			 WHERE (created_at, id) < ($1, $2)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit,
		)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT `+documentColumns+` FROM documents
			 ORDER BY created_at DESC, id DESC
			 LIMIT $1`,
			limit,
		)
	}
	if err != nil {
		return nil, domain.NewStorageError("failed to list document page", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// DocumentCount returns the number of stored documents.
func (s *Store) DocumentCount(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, domain.NewStorageError("failed to count documents", err)
	}
	return count, nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var d domain.Document
	var sourceURL, externalPageID, lastModified, collectionKey, collectionName *string
	err := row.Scan(
		&d.ID, &d.Name, &d.SourceType, &d.SizeBytes, &d.ChunkCount,
		&sourceURL, &externalPageID, &lastModified, &collectionKey, &collectionName, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.SourceURL = stringOrEmpty(sourceURL)
	d.ExternalPageID = stringOrEmpty(externalPageID)
	d.LastModified = stringOrEmpty(lastModified)
	d.CollectionKey = stringOrEmpty(collectionKey)
	d.CollectionName = stringOrEmpty(collectionName)
	return &d, nil
}

func scanDocuments(rows pgx.Rows) ([]*domain.Document, error) {
	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, domain.NewStorageError("failed to scan document", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("failed to read documents", err)
	}
	return docs, nil
}
