package repository

import (
	"context"
	"time"

	"github.com/loreline-ai/loreline/internal/domain"
)

// Settings is the single persisted settings record: which embedding backend
// produced the stored vectors, at what dimension, and whether retrieval is
// enabled at query time.
type Settings struct {
	BackendName string
	Dimension   int
	Enabled     bool
}

// GetSettings reads the settings row, which always exists after migration.
func (s *Store) GetSettings(ctx context.Context) (*Settings, error) {
	var out Settings
	err := s.pool.QueryRow(ctx,
		`SELECT backend_name, dimension, enabled FROM retrieval_settings WHERE id`,
	).Scan(&out.BackendName, &out.Dimension, &out.Enabled)
	if err != nil {
		return nil, domain.NewStorageError("failed to read retrieval settings", err)
	}
	return &out, nil
}

// SaveSettings overwrites the settings row.
func (s *Store) SaveSettings(ctx context.Context, settings *Settings) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE retrieval_settings
		 SET backend_name = $1, dimension = $2, enabled = $3, updated_at = $4
		 WHERE id`,
		settings.BackendName, settings.Dimension, settings.Enabled, time.Now().UTC(),
	)
	if err != nil {
		return domain.NewStorageError("failed to save retrieval settings", err)
	}
	return nil
}
