package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loreline-ai/loreline/internal/domain"
)

// dbtx is the subset of pgx operations shared by pools and transactions.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the persistence facade over documents, chunks and retrieval
// settings. The retrieval service is its only writer; all multi-row
// mutations run in a single transaction.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ClearAll wipes documents and chunks in one transaction. Settings are
// preserved; the caller updates the recorded dimension separately.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.NewStorageError("failed to begin clear transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE chunks`); err != nil {
		return domain.NewStorageError("failed to clear chunks", err)
	}
	if _, err := tx.Exec(ctx, `TRUNCATE documents CASCADE`); err != nil {
		return domain.NewStorageError("failed to clear documents", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.NewStorageError("failed to commit clear", err)
	}
	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
