package docqa

import (
	"context"
	"fmt"

	"github.com/w-h-a/docqa/chunker"
	"github.com/w-h-a/docqa/chunker/recursive"
	"github.com/w-h-a/docqa/history"
	"github.com/w-h-a/docqa/index"
	"github.com/w-h-a/docqa/index/providers/storer"
	"github.com/w-h-a/docqa/index/providers/storer/sqlite"
	"github.com/w-h-a/docqa/internal/service/ingest"
	"github.com/w-h-a/docqa/internal/service/qa"
)

type Source struct {
	Excerpt  string
	Metadata map[string]any
	Rank     int
}

type Answer struct {
	Answer  string
	Sources []Source
	Success bool
	Error   string
}

type SkippedFile struct {
	Path   string
	Reason string
}

type IngestResult struct {
	Chunks  int
	Skipped []SkippedFile
}

type CollectionInfo struct {
	Collection string
	Records    int
}

type MemorySummary struct {
	Turns  int
	Window int
}

// Session is one independent conversation over one document collection.
// Multiple sessions may coexist in a process; nothing here is global.
type Session struct {
	options Options
	index   *index.Index
	qa      *qa.Service
	ingest  *ingest.Service
	window  *history.Window
}

func (s *Session) IngestFiles(ctx context.Context, paths []string) IngestResult {
	return toIngestResult(s.ingest.Files(ctx, paths))
}

func (s *Session) IngestDirectory(ctx context.Context, dir string) IngestResult {
	return toIngestResult(s.ingest.Directory(ctx, dir))
}

func (s *Session) Ask(ctx context.Context, question string) Answer {
	rsp := s.qa.Ask(ctx, question)

	answer := Answer{
		Answer:  rsp.Answer,
		Success: rsp.Success,
	}

	if rsp.Err != nil {
		answer.Error = rsp.Err.Error()
	}

	for _, src := range rsp.Sources {
		answer.Sources = append(answer.Sources, Source{
			Excerpt:  src.Excerpt,
			Metadata: src.Metadata,
			Rank:     src.Rank,
		})
	}

	return answer
}

func (s *Session) ClearCollection(ctx context.Context) error {
	return s.index.Clear(ctx)
}

func (s *Session) CollectionInfo(ctx context.Context) (CollectionInfo, error) {
	info, err := s.index.Info(ctx)
	if err != nil {
		return CollectionInfo{}, err
	}

	return CollectionInfo{
		Collection: info.Collection,
		Records:    info.Records,
	}, nil
}

func (s *Session) ClearConversation() {
	s.qa.ClearHistory()
}

func (s *Session) MemorySummary() MemorySummary {
	summary := s.qa.MemorySummary()

	return MemorySummary{
		Turns:  summary.Turns,
		Window: summary.Window,
	}
}

func (s *Session) SetTemperature(temperature float32) {
	s.qa.SetTemperature(temperature)
}

func (s *Session) SetMaxTokens(maxTokens int) {
	s.qa.SetMaxTokens(maxTokens)
}

func (s *Session) Close() error {
	return s.index.Close()
}

func toIngestResult(report ingest.Report) IngestResult {
	result := IngestResult{
		Chunks: report.Chunks,
	}

	for _, skipped := range report.Skipped() {
		result.Skipped = append(result.Skipped, SkippedFile{
			Path:   skipped.Path,
			Reason: skipped.Err.Error(),
		})
	}

	return result
}

// NewSession wires the pipeline from validated options. When no storer is
// supplied the sqlite collection store is opened at the persist directory;
// failure to open it is fatal here, not recoverable later.
func NewSession(opts ...Option) (*Session, error) {
	options := NewOptions(opts...)

	if options.Embedder == nil {
		return nil, fmt.Errorf("an embedder is required")
	}
	if options.Generator == nil {
		return nil, fmt.Errorf("a generator is required")
	}

	st := options.Storer
	if st == nil {
		var err error
		st, err = sqlite.NewStorer(
			storer.WithLocation(options.PersistDir),
			storer.WithCollection(options.Collection),
		)
		if err != nil {
			return nil, fmt.Errorf("collection store: %w", err)
		}
	}

	idx, err := index.NewIndex(
		index.WithEmbedder(options.Embedder),
		index.WithStorer(st),
		index.WithCollection(options.Collection),
	)
	if err != nil {
		return nil, err
	}

	window := history.NewWindow(options.MemoryWindow)

	splitter := options.Chunker
	if splitter == nil {
		splitter = recursive.NewChunker(
			chunker.WithChunkSize(options.ChunkSize),
			chunker.WithChunkOverlap(options.ChunkOverlap),
		)
	}

	session := &Session{
		options: options,
		index:   idx,
		window:  window,
		qa: qa.New(idx, options.Generator, window, qa.Config{
			TopK:          options.TopK,
			PreviewLength: options.PreviewLength,
			Temperature:   options.Temperature,
			MaxTokens:     options.MaxTokens,
		}),
		ingest: ingest.New(splitter, idx),
	}

	return session, nil
}
