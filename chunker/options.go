package chunker

type Option func(*Options)

type Options struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
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

func WithSeparators(separators []string) Option {
	return func(o *Options) {
		if len(separators) > 0 {
			o.Separators = separators
		}
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		Separators:   []string{"\n\n", "\n", " ", ""},
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.ChunkOverlap >= options.ChunkSize {
		options.ChunkOverlap = options.ChunkSize / 4
	}
	return options
}
