package index

import (
	"context"

	"github.com/w-h-a/docqa/embedder"
	"github.com/w-h-a/docqa/index/providers/storer"
)

type Option func(*Options)

type Options struct {
	Embedder    embedder.Embedder
	Storer      storer.Storer
	Collection  string
	Dimension   int
	Parallelism int
	Context     context.Context
}

func WithEmbedder(e embedder.Embedder) Option {
	return func(o *Options) {
		o.Embedder = e
	}
}

func WithStorer(s storer.Storer) Option {
	return func(o *Options) {
		o.Storer = s
	}
}

func WithCollection(name string) Option {
	return func(o *Options) {
		if len(name) > 0 {
			o.Collection = name
		}
	}
}

func WithDimension(dim int) Option {
	return func(o *Options) {
		if dim > 0 {
			o.Dimension = dim
		}
	}
}

func WithParallelism(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Parallelism = n
		}
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Collection:  "qa_documents",
		Parallelism: 4,
		Context:     context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

type SearchOption func(*SearchOptions)

type SearchOptions struct {
	Filter  map[string]any
	Context context.Context
}

func WithFilter(filter map[string]any) SearchOption {
	return func(o *SearchOptions) {
		o.Filter = filter
	}
}

func NewSearchOptions(opts ...SearchOption) SearchOptions {
	options := SearchOptions{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
