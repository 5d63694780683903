package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/w-h-a/docqa/chunker"
	"github.com/w-h-a/docqa/document"
	"github.com/w-h-a/docqa/index"
)

type FileResult struct {
	Path   string
	Chunks int
	Err    error
}

type Report struct {
	Chunks int
	Files  []FileResult
}

// Skipped returns the files that produced no chunks and why.
func (r Report) Skipped() []FileResult {
	var skipped []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			skipped = append(skipped, f)
		}
	}
	return skipped
}

// Service turns files into indexed chunks. Failures are isolated per file:
// an unsupported or unreadable file is skipped and reported, never aborting
// the rest of the batch.
type Service struct {
	chunker chunker.Chunker
	index   *index.Index
}

func (s *Service) Files(ctx context.Context, paths []string) Report {
	var report Report

	for _, path := range paths {
		result := s.file(ctx, path)
		report.Files = append(report.Files, result)
		report.Chunks += result.Chunks
	}

	slog.InfoContext(ctx, "ingested files", "files", len(paths), "chunks", report.Chunks, "skipped", len(report.Skipped()))

	return report
}

func (s *Service) Directory(ctx context.Context, dir string) Report {
	var paths []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && document.Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "directory walk failed", "dir", dir, "error", err)
		return Report{
			Files: []FileResult{{Path: dir, Err: fmt.Errorf("walk directory: %w", err)}},
		}
	}

	return s.Files(ctx, paths)
}

func (s *Service) file(ctx context.Context, path string) FileResult {
	doc, err := document.Load(path)
	if err != nil {
		slog.WarnContext(ctx, "skipping file", "path", path, "error", err)
		return FileResult{Path: path, Err: err}
	}

	chunks, err := s.chunker.Split(doc.Content, doc.Metadata)
	if err != nil {
		slog.WarnContext(ctx, "skipping file", "path", path, "error", err)
		return FileResult{Path: path, Err: err}
	}

	if len(chunks) == 0 {
		return FileResult{Path: path, Err: document.ErrEmptyDocument}
	}

	ids, err := s.index.Add(ctx, chunks)
	if err != nil {
		slog.WarnContext(ctx, "skipping file", "path", path, "error", err)
		return FileResult{Path: path, Err: err}
	}

	return FileResult{Path: path, Chunks: len(ids)}
}

func New(c chunker.Chunker, idx *index.Index) *Service {
	s := &Service{
		chunker: c,
		index:   idx,
	}

	return s
}
