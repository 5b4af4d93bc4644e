package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/loreline-ai/loreline/internal/domain"
	"github.com/loreline-ai/loreline/internal/telemetry"
)

// Stale policies for sync candidates whose freshness cannot be
// compared because a LastModified timestamp is missing on either side.
const (
	StalePolicySkip     = "skip"
	StalePolicyReingest = "reingest"
)

// SyncResult tallies one collection sync run.
type SyncResult struct {
	NewCount      int      `json:"new_count"`
	UpdateCount   int      `json:"update_count"`
	SkipCount     int      `json:"skip_count"`
	EmptyCount    int      `json:"empty_count"`
	ChunksWritten int      `json:"chunks_written"`
	FailedPages   []string `json:"failed_pages,omitempty"`
}

// SyncProgress reports sync phases: the classification tally first
// (Phase "planned", before any write), then one event per ingested
// page (Phase "ingesting").
type SyncProgress struct {
	Phase     string
	New       int
	Update    int
	Skip      int
	Empty     int
	Processed int
	Total     int
	PageTitle string
}

// SyncProgressFunc receives sync progress events; nil disables them.
type SyncProgressFunc func(SyncProgress)

// pageAction is one planned write: ingest a page, deleting its
// predecessor first on update.
type pageAction struct {
	page       *domain.Page
	update     bool
	existingID string
}

// SyncCollection incrementally synchronizes candidate pages into the
// store. Each candidate lands in exactly one bucket: empty, new,
// update or skip. A page is an update only when both sides carry a
// LastModified timestamp and the candidate's is strictly newer; a
// missing timestamp on either side skips the page unless the stale
// policy says re-ingest. Per-page failures are recorded and never
// abort the run.
func (s *RetrievalService) SyncCollection(ctx context.Context, collectionKey, collectionName string, pages []*domain.Page, progress SyncProgressFunc) (*SyncResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.SyncCollection", telemetry.SpanAttributes{
		CollectionKey: collectionKey,
		Backend:       s.embedder.Name(),
	})
	defer span.End()

	existing, err := s.store.GetDocumentsByCollection(ctx, collectionKey)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	byExternalID := make(map[string]*domain.Document, len(existing))
	for _, doc := range existing {
		byExternalID[doc.ExternalPageID] = doc
	}

	result := &SyncResult{}
	actions := make([]pageAction, 0, len(pages))

	for _, page := range pages {
		if page == nil || page.ID == "" {
			result.FailedPages = append(result.FailedPages, fmt.Sprintf("%s: %v", pageTitle(page), domain.ErrMalformedPage))
			continue
		}

		if strings.TrimSpace(page.Content) == "" {
			result.EmptyCount++
			continue
		}

		prior, known := byExternalID[page.ID]
		if !known {
			result.NewCount++
			actions = append(actions, pageAction{page: page})
			continue
		}

		switch {
		case page.LastModified != "" && prior.LastModified != "":
			// ISO-8601 timestamps compare correctly as strings.
			if page.LastModified > prior.LastModified {
				result.UpdateCount++
				actions = append(actions, pageAction{page: page, update: true, existingID: prior.ID})
			} else {
				result.SkipCount++
			}
		case s.cfg.StalePolicy == StalePolicyReingest:
			result.UpdateCount++
			actions = append(actions, pageAction{page: page, update: true, existingID: prior.ID})
		default:
			result.SkipCount++
		}
	}

	if progress != nil {
		progress(SyncProgress{
			Phase:  "planned",
			New:    result.NewCount,
			Update: result.UpdateCount,
			Skip:   result.SkipCount,
			Empty:  result.EmptyCount,
			Total:  len(actions),
		})
	}

	for i, action := range actions {
		written, err := s.ingestPage(ctx, collectionKey, collectionName, action)
		if err != nil {
			log.Printf("sync: page %q failed: %v", action.page.Title, err)
			result.FailedPages = append(result.FailedPages, fmt.Sprintf("%s: %v", action.page.Title, err))
		} else {
			result.ChunksWritten += written
		}

		if progress != nil {
			progress(SyncProgress{
				Phase:     "ingesting",
				Processed: i + 1,
				Total:     len(actions),
				PageTitle: action.page.Title,
			})
		}
	}

	return result, nil
}

// ingestPage replaces (on update) and ingests a single wiki page,
// returning the number of chunks written.
func (s *RetrievalService) ingestPage(ctx context.Context, collectionKey, collectionName string, action pageAction) (int, error) {
	if action.update {
		if err := s.store.DeleteDocument(ctx, action.existingID); err != nil {
			return 0, fmt.Errorf("delete stale document: %w", err)
		}
	}

	page := action.page
	doc := domain.NewDocument(s.uuidGen.NewString(), page.Title, domain.SourceTypeWikiPage,
		int64(len(page.Content)), time.Now().UTC())
	doc.ExternalPageID = page.ID
	doc.SourceURL = page.URL
	doc.LastModified = page.LastModified
	doc.CollectionKey = collectionKey
	doc.CollectionName = collectionName

	return s.ingest(ctx, doc, page.Content)
}

func pageTitle(page *domain.Page) string {
	if page == nil {
		return "(nil page)"
	}
	if page.Title != "" {
		return page.Title
	}
	return "(untitled)"
}
