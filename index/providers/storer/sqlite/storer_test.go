package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w-h-a/docqa/index/providers/storer"
)

func TestStorerPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewStorer(
		storer.WithLocation(dir),
		storer.WithCollection("persist_test"),
	)
	require.NoError(t, err)

	records := []storer.Record{
		{
			Id:        "rec-1",
			Content:   "machine learning fundamentals",
			Metadata:  map[string]any{"source_id": "doc-1", "chunk_index": 0},
			Embedding: []float32{0.1, 0.9, 0.3},
			CreatedAt: time.Now().UTC(),
		},
		{
			Id:        "rec-2",
			Content:   "cooking with cast iron",
			Metadata:  map[string]any{"source_id": "doc-2", "chunk_index": 0},
			Embedding: []float32{0.8, 0.1, 0.2},
			CreatedAt: time.Now().UTC(),
		},
	}

	require.NoError(t, s.Upsert(ctx, records))
	require.NoError(t, s.Close())

	reopened, err := NewStorer(
		storer.WithLocation(dir),
		storer.WithCollection("persist_test"),
	)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	found, err := reopened.Search(ctx, []float32{0.1, 0.9, 0.3}, 1, nil)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "rec-1", found[0].Id)
	assert.Equal(t, "machine learning fundamentals", found[0].Content)
	assert.Equal(t, "doc-1", found[0].Metadata["source_id"])
}

func TestStorerClearIsIrreversible(t *testing.T) {
	ctx := context.Background()

	s, err := NewStorer(
		storer.WithLocation(t.TempDir()),
		storer.WithCollection("clear_test"),
	)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Upsert(ctx, []storer.Record{
		{Id: "rec-1", Content: "x", Metadata: map[string]any{}, Embedding: []float32{1, 0}},
	}))

	require.NoError(t, s.Clear(ctx))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	found, err := s.Search(ctx, []float32{1, 0}, 4, nil)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestStorerCollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewStorer(storer.WithLocation(dir), storer.WithCollection("first"))
	require.NoError(t, err)
	defer first.Close()

	second, err := NewStorer(storer.WithLocation(dir), storer.WithCollection("second"))
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, first.Upsert(ctx, []storer.Record{
		{Id: "rec-1", Content: "only in first", Metadata: map[string]any{}, Embedding: []float32{1}},
	}))

	count, err := second.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
