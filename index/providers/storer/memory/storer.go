package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/w-h-a/docqa/index/providers/storer"
)

type memoryStorer struct {
	options storer.Options
	records map[string]storer.Record
	mtx     sync.RWMutex
}

func (s *memoryStorer) Upsert(ctx context.Context, records []storer.Record) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for _, rec := range records {
		cpy := make([]float32, len(rec.Embedding))
		copy(cpy, rec.Embedding)
		rec.Embedding = cpy

		meta := make(map[string]any, len(rec.Metadata))
		maps.Copy(meta, rec.Metadata)
		rec.Metadata = meta

		s.records[rec.Id] = rec
	}

	return nil
}

func (s *memoryStorer) Search(ctx context.Context, vector []float32, limit int, filter map[string]any) ([]storer.Record, error) {
	if limit < 1 {
		return nil, nil
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	candidates := make([]storer.Record, 0, len(s.records))

	for _, rec := range s.records {
		if len(filter) > 0 && !storer.MatchesFilter(rec.Metadata, filter) {
			continue
		}
		rec.Score = float32(storer.CosineSimilarity(vector, rec.Embedding))
		candidates = append(candidates, rec)
	}

	storer.Rank(candidates)

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates, nil
}

func (s *memoryStorer) Count(ctx context.Context) (int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return len(s.records), nil
}

func (s *memoryStorer) Clear(ctx context.Context) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.records = map[string]storer.Record{}

	return nil
}

func (s *memoryStorer) Close() error {
	return nil
}

func NewStorer(opts ...storer.Option) storer.Storer {
	options := storer.NewOptions(opts...)

	s := &memoryStorer{
		options: options,
		records: map[string]storer.Record{},
		mtx:     sync.RWMutex{},
	}

	return s
}
