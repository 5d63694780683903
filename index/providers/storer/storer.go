package storer

import (
	"context"
	"time"
)

// Storer is the durable record store behind a vector index. Implementations
// must serialize structural mutations (Upsert, Clear) against each other
// while allowing concurrent searches.
type Storer interface {
	Upsert(ctx context.Context, records []Record) error
	Search(ctx context.Context, vector []float32, limit int, filter map[string]any) ([]Record, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	Close() error
}

type Record struct {
	Id        string
	Content   string
	Metadata  map[string]any
	Embedding []float32
	Score     float32
	CreatedAt time.Time
}
