package docqa

import (
	"context"

	"github.com/w-h-a/docqa/chunker"
	"github.com/w-h-a/docqa/embedder"
	"github.com/w-h-a/docqa/generator"
	"github.com/w-h-a/docqa/index/providers/storer"
)

type Option func(*Options)

type Options struct {
	Embedder  embedder.Embedder
	Generator generator.Generator
	Storer    storer.Storer
	Chunker   chunker.Chunker

	Collection string
	PersistDir string

	ChunkSize    int
	ChunkOverlap int
	TopK         int

	MemoryWindow  int
	PreviewLength int
	Temperature   float32
	MaxTokens     int

	Context context.Context
}

func WithEmbedder(e embedder.Embedder) Option {
	return func(o *Options) {
		o.Embedder = e
	}
}

func WithGenerator(g generator.Generator) Option {
	return func(o *Options) {
		o.Generator = g
	}
}

func WithStorer(s storer.Storer) Option {
	return func(o *Options) {
		o.Storer = s
	}
}

func WithChunker(c chunker.Chunker) Option {
	return func(o *Options) {
		o.Chunker = c
	}
}

func WithCollection(name string) Option {
	return func(o *Options) {
		if len(name) > 0 {
			o.Collection = name
		}
	}
}

func WithPersistDir(dir string) Option {
	return func(o *Options) {
		if len(dir) > 0 {
			o.PersistDir = dir
		}
	}
}

func WithChunkSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.ChunkSize = size
		}
	}
}

func WithChunkOverlap(overlap int) Option {
	return func(o *Options) {
		if overlap >= 0 {
			o.ChunkOverlap = overlap
		}
	}
}

func WithTopK(k int) Option {
	return func(o *Options) {
		if k > 0 {
			o.TopK = k
		}
	}
}

func WithMemoryWindow(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.MemoryWindow = size
		}
	}
}

func WithPreviewLength(length int) Option {
	return func(o *Options) {
		if length > 0 {
			o.PreviewLength = length
		}
	}
}

func WithTemperature(temperature float32) Option {
	return func(o *Options) {
		if temperature >= 0 {
			o.Temperature = temperature
		}
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(o *Options) {
		if maxTokens > 0 {
			o.MaxTokens = maxTokens
		}
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Collection:    "qa_documents",
		PersistDir:    "./docqa_db",
		ChunkSize:     1000,
		ChunkOverlap:  200,
		TopK:          4,
		MemoryWindow:  10,
		PreviewLength: 300,
		Temperature:   0.1,
		MaxTokens:     1000,
		Context:       context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
