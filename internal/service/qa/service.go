package qa

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/w-h-a/docqa/generator"
	"github.com/w-h-a/docqa/history"
	"github.com/w-h-a/docqa/index"
)

type FailureKind string

const (
	FailureValidation FailureKind = "ValidationError"
	FailureRetrieval  FailureKind = "RetrievalError"
	FailureGeneration FailureKind = "GenerationError"
)

type Failure struct {
	Kind   FailureKind
	Detail string
}

func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.Detail
}

type Source struct {
	Excerpt  string
	Metadata map[string]any
	Rank     int
}

type Response struct {
	Answer  string
	Sources []Source
	Success bool
	Err     *Failure
}

type Config struct {
	TopK          int
	PreviewLength int
	Temperature   float32
	MaxTokens     int
}

// Service runs the question protocol: validate, retrieve, compose, generate,
// record. Each question is synchronous; a failure at any step aborts that
// question only and comes back as a structured failure, never a raised error.
type Service struct {
	index     *index.Index
	generator generator.Generator
	window    *history.Window

	topK          int
	previewLength int

	mtx         sync.RWMutex
	temperature float32
	maxTokens   int
}

func (s *Service) Ask(ctx context.Context, question string) Response {
	if len(strings.TrimSpace(question)) == 0 {
		return fail(FailureValidation, "question is empty")
	}

	results, err := s.index.Search(ctx, question, s.topK)
	if err != nil {
		slog.ErrorContext(ctx, "retrieval failed", "error", err)
		return fail(FailureRetrieval, err.Error())
	}

	prompt := buildPrompt(results, s.window.Recent(s.window.Size()), question)

	s.mtx.RLock()
	temperature := s.temperature
	maxTokens := s.maxTokens
	s.mtx.RUnlock()

	answer, err := s.generator.Generate(
		ctx,
		prompt,
		generator.WithTemperature(temperature),
		generator.WithMaxTokens(maxTokens),
	)
	if err != nil {
		slog.ErrorContext(ctx, "generation failed", "error", err)
		return fail(FailureGeneration, err.Error())
	}

	sources := make([]Source, 0, len(results))
	for _, r := range results {
		sources = append(sources, Source{
			Excerpt:  truncate(r.Text, s.previewLength),
			Metadata: r.Metadata,
			Rank:     r.Rank,
		})
	}

	s.window.Append(history.Turn{
		Question:    question,
		Answer:      answer,
		SourceCount: len(sources),
		CreatedAt:   time.Now().UTC(),
	})

	slog.InfoContext(ctx, "answered question", "sources", len(sources))

	return Response{
		Answer:  answer,
		Sources: sources,
		Success: true,
	}
}

// SetTemperature and SetMaxTokens are side channels: they skip the question
// protocol and take effect on the next question.
func (s *Service) SetTemperature(temperature float32) {
	if temperature < 0 {
		return
	}
	s.mtx.Lock()
	s.temperature = temperature
	s.mtx.Unlock()
}

func (s *Service) SetMaxTokens(maxTokens int) {
	if maxTokens <= 0 {
		return
	}
	s.mtx.Lock()
	s.maxTokens = maxTokens
	s.mtx.Unlock()
}

func (s *Service) ClearHistory() {
	s.window.Clear()
}

func (s *Service) MemorySummary() history.Summary {
	return s.window.Summary()
}

func fail(kind FailureKind, detail string) Response {
	return Response{
		Err: &Failure{
			Kind:   kind,
			Detail: detail,
		},
	}
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func New(idx *index.Index, gen generator.Generator, window *history.Window, cfg Config) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	if cfg.PreviewLength <= 0 {
		cfg.PreviewLength = 300
	}
	if cfg.Temperature < 0 {
		cfg.Temperature = 0.1
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}

	s := &Service{
		index:         idx,
		generator:     gen,
		window:        window,
		topK:          cfg.TopK,
		previewLength: cfg.PreviewLength,
		temperature:   cfg.Temperature,
		maxTokens:     cfg.MaxTokens,
	}

	return s
}
