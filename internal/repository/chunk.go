package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/loreline-ai/loreline/internal/domain"
)

// AddChunks upserts a batch of chunks in a single transaction. An empty
// batch succeeds immediately; any single failure rolls back the whole batch.
func (s *Store) AddChunks(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for _, c := range chunks {
		if err := domain.ValidateChunk(c); err != nil {
			return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid chunk", err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.NewStorageError("failed to begin chunk transaction", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range chunks {
		_, err := tx.Exec(ctx,
			`INSERT INTO chunks (id, doc_id, content, embedding, position)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding,
				position = EXCLUDED.position`,
			c.ID, c.DocID, c.Text, pgvector.NewVector(c.Embedding), c.Position,
		)
		if err != nil {
			return domain.NewStorageError("failed to upsert chunk", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.NewStorageError("failed to commit chunks", err)
	}
	return nil
}

// GetAllChunks returns every stored chunk. The similarity engine scores
// the full set in process.
func (s *Store) GetAllChunks(ctx context.Context) ([]*domain.Chunk, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, doc_id, content, embedding, position FROM chunks`)
	if err != nil {
		return nil, domain.NewStorageError("failed to list chunks", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// GetChunksByDocID returns a document's chunks ordered by position.
func (s *Store) GetChunksByDocID(ctx context.Context, docID string) ([]*domain.Chunk, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, doc_id, content, embedding, position
		 FROM chunks WHERE doc_id = $1 ORDER BY position ASC`,
		docID,
	)
	if err != nil {
		return nil, domain.NewStorageError("failed to list document chunks", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// ChunkCount returns the number of stored chunks.
func (s *Store) ChunkCount(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, domain.NewStorageError("failed to count chunks", err)
	}
	return count, nil
}

func scanChunks(rows pgx.Rows) ([]*domain.Chunk, error) {
	var chunks []*domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var embedding pgvector.Vector
		if err := rows.Scan(&c.ID, &c.DocID, &c.Text, &embedding, &c.Position); err != nil {
			return nil, domain.NewStorageError("failed to scan chunk", err)
		}
		c.Embedding = embedding.Slice()
		chunks = append(chunks, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("failed to read chunks", err)
	}
	return chunks, nil
}
