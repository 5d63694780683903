package index

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w-h-a/docqa/chunker"
	"github.com/w-h-a/docqa/index/providers/storer/memory"
)

// fakeEmbedder maps text to a deterministic bag-of-words vector so that
// identical text always embeds identically.
type fakeEmbedder struct {
	dim      int
	failOn   string
	shrinkOn string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(f.failOn) > 0 && strings.Contains(text, f.failOn) {
		return nil, errors.New("provider unreachable")
	}

	dim := f.dim
	if len(f.shrinkOn) > 0 && strings.Contains(text, f.shrinkOn) {
		dim = f.dim / 2
	}

	vec := make([]float32, dim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%dim]++
	}

	return vec, nil
}

func newTestIndex(t *testing.T, e *fakeEmbedder) *Index {
	t.Helper()

	idx, err := NewIndex(
		WithEmbedder(e),
		WithStorer(memory.NewStorer()),
		WithCollection("test_documents"),
	)
	require.NoError(t, err)

	return idx
}

func chunksOf(texts ...string) []chunker.Chunk {
	chunks := make([]chunker.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, chunker.Chunk{
			Text:     text,
			Metadata: map[string]any{"source_id": "doc-1", "chunk_index": i},
		})
	}
	return chunks
}

func TestAddThenSearchRanksExactMatchFirst(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, &fakeEmbedder{dim: 64})

	_, err := idx.Add(ctx, chunksOf(
		"machine learning is a subset of artificial intelligence",
		"the weather in oslo is cold in january",
		"sourdough bread needs a mature starter",
	))
	require.NoError(t, err)

	results, err := idx.Search(ctx, "machine learning is a subset of artificial intelligence", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "machine learning is a subset of artificial intelligence", results[0].Text)
	assert.Equal(t, 1, results[0].Rank)
}

func TestAddReturnsIDsInChunkOrder(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, &fakeEmbedder{dim: 32})

	ids, err := idx.Add(ctx, chunksOf("first chunk", "second chunk", "third chunk"))
	require.NoError(t, err)
	require.Len(t, ids, 3)

	seen := map[string]struct{}{}
	for _, id := range ids {
		assert.NotEmpty(t, id)
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestAddIsAtomicWhenEmbeddingFails(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, &fakeEmbedder{dim: 32, failOn: "broken"})

	_, err := idx.Add(ctx, chunksOf("fine chunk", "broken chunk", "another fine chunk"))

	var embErr *EmbeddingError
	require.ErrorAs(t, err, &embErr)

	info, err := idx.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Records)
}

func TestAddRejectsDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, &fakeEmbedder{dim: 32, shrinkOn: "short"})

	_, err := idx.Add(ctx, chunksOf("regular chunk", "short chunk"))

	var embErr *EmbeddingError
	require.ErrorAs(t, err, &embErr)

	info, err := idx.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Records)
}

func TestSearchRejectsBadK(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, &fakeEmbedder{dim: 32})

	_, err := idx.Search(ctx, "anything", 0)
	require.Error(t, err)
}

func TestSearchWithMetadataFilter(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, &fakeEmbedder{dim: 64})

	_, err := idx.Add(ctx, []chunker.Chunk{
		{Text: "alpha content", Metadata: map[string]any{"source_id": "a"}},
		{Text: "beta content", Metadata: map[string]any{"source_id": "b"}},
	})
	require.NoError(t, err)

	results, err := idx.Search(ctx, "content", 5, WithFilter(map[string]any{"source_id": "b"}))
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "beta content", results[0].Text)
}

func TestClearEmptiesCollection(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, &fakeEmbedder{dim: 32})

	_, err := idx.Add(ctx, chunksOf("some chunk"))
	require.NoError(t, err)

	require.NoError(t, idx.Clear(ctx))

	info, err := idx.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Records)

	results, err := idx.Search(ctx, "some chunk", 4)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNewIndexRequiresProviders(t *testing.T) {
	_, err := NewIndex(WithStorer(memory.NewStorer()))
	require.Error(t, err)

	_, err = NewIndex(WithEmbedder(&fakeEmbedder{dim: 8}))
	require.Error(t, err)
}
