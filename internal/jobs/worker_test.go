package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/loreline-ai/loreline/internal/domain"
	"github.com/loreline-ai/loreline/internal/service"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(250 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(150 * time.Millisecond)

	cancel()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// fakeWikiSource serves a small two-level hierarchy.
type fakeWikiSource struct {
	contentErr map[string]error
}

func (f *fakeWikiSource) ListSpaces(ctx context.Context) ([]*domain.Space, error) {
	return []*domain.Space{{Key: "ENG", Name: "Engineering"}}, nil
}

func (f *fakeWikiSource) RootPages(ctx context.Context, spaceKey string) ([]*domain.PageSummary, error) {
	return []*domain.PageSummary{
		{ID: "r1", Title: "Root", HasChildren: true},
	}, nil
}

func (f *fakeWikiSource) ChildPages(ctx context.Context, pageID string) ([]*domain.PageSummary, error) {
	if pageID == "r1" {
		return []*domain.PageSummary{
			{ID: "c1", Title: "Child One"},
			{ID: "c2", Title: "Child Two"},
		}, nil
	}
	return nil, nil
}

func (f *fakeWikiSource) PageContent(ctx context.Context, pageID string) (*domain.Page, error) {
	if err := f.contentErr[pageID]; err != nil {
		return nil, err
	}
	return &domain.Page{ID: pageID, Title: "Page " + pageID, Content: "content of " + pageID}, nil
}

// MockCollectionSyncer is a mock implementation of CollectionSyncer
type MockCollectionSyncer struct {
	mock.Mock
}

func (m *MockCollectionSyncer) SyncCollection(ctx context.Context, collectionKey, collectionName string, pages []*domain.Page, progress service.SyncProgressFunc) (*service.SyncResult, error) {
	args := m.Called(ctx, collectionKey, collectionName, pages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SyncResult), args.Error(1)
}

func TestSyncWorker_ProcessJobs(t *testing.T) {
	source := &fakeWikiSource{}
	syncer := new(MockCollectionSyncer)
	syncer.On("SyncCollection", mock.Anything, "ENG", "Engineering", mock.MatchedBy(func(pages []*domain.Page) bool {
		return len(pages) == 3 // r1 + c1 + c2
	})).Return(&service.SyncResult{NewCount: 3, ChunksWritten: 3}, nil)

	worker := NewSyncWorker(source, syncer, []string{"ENG"})

	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	syncer.AssertExpectations(t)
}

func TestSyncWorker_ProcessJobs_NoCollections(t *testing.T) {
	syncer := new(MockCollectionSyncer)
	worker := NewSyncWorker(&fakeWikiSource{}, syncer, nil)

	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	syncer.AssertNotCalled(t, "SyncCollection")
}

func TestSyncWorker_CollectPages_SkipsFailedFetches(t *testing.T) {
	source := &fakeWikiSource{contentErr: map[string]error{"c1": errors.New("boom")}}
	worker := NewSyncWorker(source, new(MockCollectionSyncer), []string{"ENG"})

	pages, err := worker.CollectPages(context.Background(), "ENG")

	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "r1", pages[0].ID)
	assert.Equal(t, "c2", pages[1].ID)
}

func TestSyncWorker_CollectPagesByID(t *testing.T) {
	source := &fakeWikiSource{contentErr: map[string]error{"c1": errors.New("boom")}}
	worker := NewSyncWorker(source, new(MockCollectionSyncer), []string{"ENG"})

	pages, err := worker.CollectPagesByID(context.Background(), []string{"c2", "c1", "r1"})

	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "c2", pages[0].ID)
	assert.Equal(t, "r1", pages[1].ID)
}

func TestSyncWorker_ProcessJobs_SyncFailureDoesNotPropagate(t *testing.T) {
	syncer := new(MockCollectionSyncer)
	syncer.On("SyncCollection", mock.Anything, "ENG", "Engineering", mock.Anything).
		Return(nil, errors.New("store down"))

	worker := NewSyncWorker(&fakeWikiSource{}, syncer, []string{"ENG"})

	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	syncer.AssertExpectations(t)
}
