package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/w-h-a/docqa/chunker"
	"github.com/w-h-a/docqa/index/providers/storer"
)

type Result struct {
	Text     string
	Metadata map[string]any
	Rank     int
	Score    float32
}

type Info struct {
	Collection string
	Records    int
	Dimension  int
}

// Index pairs an embedding provider with a record store: inserted chunks and
// query strings are vectorized through the same embedder so their distances
// are comparable.
type Index struct {
	options   Options
	dimension int
	mtx       sync.Mutex
}

// Add embeds each chunk and stores the batch all-or-nothing, returning the
// assigned record ids in chunk order. Embedding calls run in parallel up to
// the configured bound; one failure or a dimension mismatch aborts the whole
// batch with an EmbeddingError and nothing is committed.
func (i *Index) Add(ctx context.Context, chunks []chunker.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(chunks))
	failures := make([]error, len(chunks))

	var wg sync.WaitGroup
	sem := make(chan struct{}, i.options.Parallelism)

	for n, ch := range chunks {
		wg.Add(1)
		go func(n int, text string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			vectors[n], failures[n] = i.options.Embedder.Embed(ctx, text)
		}(n, ch.Text)
	}

	wg.Wait()

	for _, err := range failures {
		if err != nil {
			return nil, &EmbeddingError{Err: err}
		}
	}

	i.mtx.Lock()
	defer i.mtx.Unlock()

	for _, vec := range vectors {
		if err := i.checkDimension(vec); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()

	ids := make([]string, len(chunks))
	records := make([]storer.Record, len(chunks))

	for n, ch := range chunks {
		ids[n] = uuid.New().String()
		records[n] = storer.Record{
			Id:        ids[n],
			Content:   ch.Text,
			Metadata:  ch.Metadata,
			Embedding: vectors[n],
			CreatedAt: now,
		}
	}

	if err := i.options.Storer.Upsert(ctx, records); err != nil {
		return nil, fmt.Errorf("store records: %w", err)
	}

	return ids, nil
}

// Search embeds the query and returns up to k records ranked by descending
// similarity, ties broken on record id.
func (i *Index) Search(ctx context.Context, query string, k int, opts ...SearchOption) ([]Result, error) {
	if k < 1 {
		return nil, errors.New("k must be at least 1")
	}

	options := NewSearchOptions(opts...)

	vec, err := i.options.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}

	i.mtx.Lock()
	err = i.checkDimension(vec)
	i.mtx.Unlock()
	if err != nil {
		return nil, err
	}

	records, err := i.options.Storer.Search(ctx, vec, k, options.Filter)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}

	results := make([]Result, 0, len(records))
	for n, rec := range records {
		results = append(results, Result{
			Text:     rec.Content,
			Metadata: rec.Metadata,
			Rank:     n + 1,
			Score:    rec.Score,
		})
	}

	return results, nil
}

func (i *Index) Info(ctx context.Context) (Info, error) {
	count, err := i.options.Storer.Count(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("collection info: %w", err)
	}

	i.mtx.Lock()
	dimension := i.dimension
	i.mtx.Unlock()

	info := Info{
		Collection: i.options.Collection,
		Records:    count,
		Dimension:  dimension,
	}

	return info, nil
}

// Clear drops every record in the collection. Irreversible; record ids are
// never reused afterwards.
func (i *Index) Clear(ctx context.Context) error {
	return i.options.Storer.Clear(ctx)
}

func (i *Index) Close() error {
	return i.options.Storer.Close()
}

// checkDimension pins the index to the dimensionality of the first vector it
// sees and rejects any later vector that disagrees. Callers hold i.mtx.
func (i *Index) checkDimension(vec []float32) error {
	if len(vec) == 0 {
		return &EmbeddingError{Err: errors.New("provider returned an empty vector")}
	}
	if i.dimension == 0 {
		i.dimension = len(vec)
		return nil
	}
	if len(vec) != i.dimension {
		return &EmbeddingError{Err: fmt.Errorf("provider returned a %d-dimension vector, want %d", len(vec), i.dimension)}
	}
	return nil
}

func NewIndex(opts ...Option) (*Index, error) {
	options := NewOptions(opts...)

	if options.Embedder == nil {
		return nil, errors.New("an embedder is required")
	}
	if options.Storer == nil {
		return nil, errors.New("a storer is required")
	}

	i := &Index{
		options:   options,
		dimension: options.Dimension,
	}

	return i, nil
}
