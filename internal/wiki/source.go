// Package wiki talks to the remote wiki that collections are synced
// from, and maintains the lazy page-selection tree used to scope a
// sync.
package wiki

import (
	"context"

	"github.com/loreline-ai/loreline/internal/domain"
)

// Source is the remote content contract. Pagination happens inside
// implementations; callers always receive full slices.
type Source interface {
	ListSpaces(ctx context.Context) ([]*domain.Space, error)
	RootPages(ctx context.Context, spaceKey string) ([]*domain.PageSummary, error)
	ChildPages(ctx context.Context, pageID string) ([]*domain.PageSummary, error)
	PageContent(ctx context.Context, pageID string) (*domain.Page, error)
}
