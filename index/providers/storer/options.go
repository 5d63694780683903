package storer

import "context"

type Option func(*Options)

type Options struct {
	Location   string
	Collection string
	Dimension  int
	Context    context.Context
}

func WithLocation(loc string) Option {
	return func(o *Options) {
		o.Location = loc
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

func NewOptions(opts ...Option) Options {
	options := Options{
		Collection: "qa_documents",
		Context:    context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
