package generator

import "context"

// Generator is the chat completion capability. Call-level options override
// the generation parameters the provider was constructed with.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts ...Option) (string, error)
}
