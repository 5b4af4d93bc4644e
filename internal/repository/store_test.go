//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loreline-ai/loreline/internal/domain"
	"github.com/loreline-ai/loreline/internal/testutil"
)

func makeTestDocument(name string) *domain.Document {
	return domain.NewDocument(uuid.NewString(), name, domain.SourceTypeUpload, 2048, time.Now().UTC().Truncate(time.Microsecond))
}

func makeTestChunks(docID string, n int) []*domain.Chunk {
	chunks := make([]*domain.Chunk, 0, n)
	for i := 0; i < n; i++ {
		embedding := []float32{float32(i), float32(i) + 0.5, 1.0}
		chunks = append(chunks, domain.NewChunk(docID, i, "[Document: test]\nchunk body", embedding))
	}
	return chunks
}

func TestStore_AddDocument_RoundTrip(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewStore(pool)

	doc := makeTestDocument("notes.md")
	doc.ChunkCount = 3
	require.NoError(t, store.AddDocument(ctx, doc))
	require.NoError(t, store.AddChunks(ctx, makeTestChunks(doc.ID, 3)))

	retrieved, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, retrieved.ID)
	assert.Equal(t, doc.Name, retrieved.Name)
	assert.Equal(t, domain.SourceTypeUpload, retrieved.SourceType)
	assert.Equal(t, 3, retrieved.ChunkCount)

	chunks, err := store.GetChunksByDocID(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.Position)
		assert.Equal(t, domain.ChunkID(doc.ID, i), c.ID)
		assert.Len(t, c.Embedding, 3)
	}
}

func TestStore_AddDocument_UpsertPreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewStore(pool)

	doc := makeTestDocument("original")
	require.NoError(t, store.AddDocument(ctx, doc))

	updated := *doc
	updated.Name = "renamed"
	updated.CreatedAt = doc.CreatedAt.Add(time.Hour)
	require.NoError(t, store.AddDocument(ctx, &updated))

	retrieved, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", retrieved.Name)
	assert.WithinDuration(t, doc.CreatedAt, retrieved.CreatedAt, time.Millisecond)
}

func TestStore_DeleteDocument_Cascades(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewStore(pool)

	doc := makeTestDocument("to-delete")
	doc.ChunkCount = 4
	require.NoError(t, store.AddDocument(ctx, doc))
	require.NoError(t, store.AddChunks(ctx, makeTestChunks(doc.ID, 4)))

	docCount, err := store.DocumentCount(ctx)
	require.NoError(t, err)
	chunkCount, err := store.ChunkCount(ctx)
	require.NoError(t, err)

	require.NoError(t, store.DeleteDocument(ctx, doc.ID))

	afterDocs, err := store.DocumentCount(ctx)
	require.NoError(t, err)
	afterChunks, err := store.ChunkCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, docCount-1, afterDocs)
	assert.Equal(t, chunkCount-4, afterChunks)

	chunks, err := store.GetChunksByDocID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	// Unknown id is a no-op, not an error.
	require.NoError(t, store.DeleteDocument(ctx, uuid.NewString()))
}

func TestStore_AddChunks_EmptyBatchIsNoOp(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewStore(pool)
	require.NoError(t, store.AddChunks(ctx, nil))
}

func TestStore_GetAllDocuments_OrderedByCreatedAtDesc(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewStore(pool)

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 3; i++ {
		doc := makeTestDocument("doc")
		doc.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.AddDocument(ctx, doc))
	}

	docs, err := store.GetAllDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for i := 1; i < len(docs); i++ {
		assert.True(t, !docs[i-1].CreatedAt.Before(docs[i].CreatedAt))
	}
}

func TestStore_GetDocumentsByCollection(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewStore(pool)

	wikiDoc := makeTestDocument("Runbook")
	wikiDoc.SourceType = domain.SourceTypeWikiPage
	wikiDoc.ExternalPageID = "page-1"
	wikiDoc.CollectionKey = "ENG"
	wikiDoc.LastModified = "2024-01-01T00:00:00Z"
	require.NoError(t, store.AddDocument(ctx, wikiDoc))

	upload := makeTestDocument("upload.md")
	require.NoError(t, store.AddDocument(ctx, upload))

	docs, err := store.GetDocumentsByCollection(ctx, "ENG")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "page-1", docs[0].ExternalPageID)
	assert.Equal(t, "2024-01-01T00:00:00Z", docs[0].LastModified)

	byExternal, err := store.GetDocumentByExternalID(ctx, "ENG", "page-1")
	require.NoError(t, err)
	assert.Equal(t, wikiDoc.ID, byExternal.ID)

	_, err = store.GetDocumentByExternalID(ctx, "ENG", "page-2")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestStore_ClearAll_Idempotent(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewStore(pool)

	doc := makeTestDocument("doc")
	doc.ChunkCount = 2
	require.NoError(t, store.AddDocument(ctx, doc))
	require.NoError(t, store.AddChunks(ctx, makeTestChunks(doc.ID, 2)))

	for i := 0; i < 2; i++ {
		require.NoError(t, store.ClearAll(ctx))

		docCount, err := store.DocumentCount(ctx)
		require.NoError(t, err)
		chunkCount, err := store.ChunkCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, docCount)
		assert.Equal(t, 0, chunkCount)
	}
}

func TestStore_Settings_RoundTrip(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewStore(pool)

	settings, err := store.GetSettings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.Enabled)

	settings.BackendName = "openai"
	settings.Dimension = 1536
	settings.Enabled = false
	require.NoError(t, store.SaveSettings(ctx, settings))

	reloaded, err := store.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "openai", reloaded.BackendName)
	assert.Equal(t, 1536, reloaded.Dimension)
	assert.False(t, reloaded.Enabled)
}
