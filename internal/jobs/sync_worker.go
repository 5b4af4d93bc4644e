package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/loreline-ai/loreline/internal/domain"
	"github.com/loreline-ai/loreline/internal/service"
	"github.com/loreline-ai/loreline/internal/wiki"
)

// CollectionSyncer is the orchestrator surface the sync worker needs.
type CollectionSyncer interface {
	SyncCollection(ctx context.Context, collectionKey, collectionName string, pages []*domain.Page, progress service.SyncProgressFunc) (*service.SyncResult, error)
}

// SyncWorker periodically re-syncs configured wiki collections. It
// implements JobProcessor and runs under the polling Worker.
type SyncWorker struct {
	source      wiki.Source
	syncer      CollectionSyncer
	collections []string
}

// NewSyncWorker creates a new SyncWorker instance
func NewSyncWorker(source wiki.Source, syncer CollectionSyncer, collections []string) *SyncWorker {
	return &SyncWorker{
		source:      source,
		syncer:      syncer,
		collections: collections,
	}
}

// ProcessJobs implements the JobProcessor interface: one full sync
// pass over every configured collection. A failing collection is
// logged and does not block the others.
func (w *SyncWorker) ProcessJobs(ctx context.Context) error {
	if len(w.collections) == 0 {
		return nil
	}

	names, err := w.spaceNames(ctx)
	if err != nil {
		return fmt.Errorf("failed to list wiki spaces: %w", err)
	}

	for _, key := range w.collections {
		if err := w.syncOne(ctx, key, names[key]); err != nil {
			log.Printf("jobs: sync of collection %s failed: %v", key, err)
		}
	}
	return nil
}

func (w *SyncWorker) spaceNames(ctx context.Context) (map[string]string, error) {
	spaces, err := w.source.ListSpaces(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(spaces))
	for _, space := range spaces {
		names[space.Key] = space.Name
	}
	return names, nil
}

// syncOne walks a collection's full page hierarchy and hands the
// candidates to the orchestrator.
func (w *SyncWorker) syncOne(ctx context.Context, key, name string) error {
	pages, err := w.CollectPages(ctx, key)
	if err != nil {
		return err
	}

	result, err := w.syncer.SyncCollection(ctx, key, name, pages, nil)
	if err != nil {
		return err
	}

	log.Printf("jobs: collection %s synced: %d new, %d updated, %d skipped, %d empty, %d chunks, %d failed",
		key, result.NewCount, result.UpdateCount, result.SkipCount, result.EmptyCount,
		result.ChunksWritten, len(result.FailedPages))
	return nil
}

// CollectPages breadth-first walks a collection and fetches each
// page's content. Pages whose content fetch fails are skipped with a
// log line; the sync itself reconciles whatever arrives.
func (w *SyncWorker) CollectPages(ctx context.Context, collectionKey string) ([]*domain.Page, error) {
	roots, err := w.source.RootPages(ctx, collectionKey)
	if err != nil {
		return nil, err
	}

	queue := append([]*domain.PageSummary(nil), roots...)
	var pages []*domain.Page

	for len(queue) > 0 {
		summary := queue[0]
		queue = queue[1:]

		page, err := w.source.PageContent(ctx, summary.ID)
		if err != nil {
			log.Printf("jobs: fetch of page %s (%s) failed: %v", summary.ID, summary.Title, err)
		} else {
			pages = append(pages, page)
		}

		if summary.HasChildren {
			children, err := w.source.ChildPages(ctx, summary.ID)
			if err != nil {
				log.Printf("jobs: listing children of %s failed: %v", summary.ID, err)
				continue
			}
			queue = append(queue, children...)
		}
	}

	return pages, nil
}

// CollectPagesByID fetches content for an explicit page selection,
// typically the ids picked through the selection tree. Failed fetches
// are skipped with a log line, like the full walk.
func (w *SyncWorker) CollectPagesByID(ctx context.Context, pageIDs []string) ([]*domain.Page, error) {
	pages := make([]*domain.Page, 0, len(pageIDs))
	for _, id := range pageIDs {
		page, err := w.source.PageContent(ctx, id)
		if err != nil {
			log.Printf("jobs: fetch of page %s failed: %v", id, err)
			continue
		}
		pages = append(pages, page)
	}
	return pages, nil
}
