package generator

import "context"

type Option func(*Options)

type Options struct {
	ApiKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Context     context.Context
}

func WithApiKey(apiKey string) Option {
	return func(o *Options) {
		o.ApiKey = apiKey
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
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
		Temperature: 0.1,
		MaxTokens:   1000,
		Context:     context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
