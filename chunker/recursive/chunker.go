package recursive

import (
	"maps"
	"strings"

	"github.com/w-h-a/docqa/chunker"
)

// recursiveChunker cuts text at the largest structural boundary that still
// fits a chunk under the size limit, falling back to finer separators only
// when a piece is too large on its own.
type recursiveChunker struct {
	options chunker.Options
}

func (c *recursiveChunker) Split(text string, metadata map[string]any) ([]chunker.Chunk, error) {
	if len(strings.TrimSpace(text)) == 0 {
		return nil, nil
	}

	pieces := c.splitText(text, c.options.Separators)

	chunks := make([]chunker.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		meta := make(map[string]any, len(metadata)+1)
		maps.Copy(meta, metadata)
		meta[chunker.MetaChunkIndex] = i
		chunks = append(chunks, chunker.Chunk{Text: piece, Metadata: meta})
	}

	return chunks, nil
}

func (c *recursiveChunker) splitText(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var remaining []string

	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			separator = s
			remaining = separators[i+1:]
			break
		}
	}

	splits := strings.Split(text, separator)

	var final []string
	var pending []string

	for _, split := range splits {
		if len(split) < c.options.ChunkSize {
			pending = append(pending, split)
			continue
		}

		if len(pending) > 0 {
			final = append(final, c.merge(pending, separator)...)
			pending = nil
		}

		if len(remaining) == 0 {
			final = append(final, split)
		} else {
			final = append(final, c.splitText(split, remaining)...)
		}
	}

	if len(pending) > 0 {
		final = append(final, c.merge(pending, separator)...)
	}

	return final
}

// merge packs adjacent splits into chunks of at most ChunkSize characters,
// re-seeding each new chunk with up to ChunkOverlap trailing characters of
// the previous one.
func (c *recursiveChunker) merge(splits []string, separator string) []string {
	var docs []string
	var current []string
	total := 0

	for _, split := range splits {
		added := len(split)
		if len(current) > 0 {
			added += len(separator)
		}

		if total+added > c.options.ChunkSize && len(current) > 0 {
			if doc := join(current, separator); len(doc) > 0 {
				docs = append(docs, doc)
			}
			for len(current) > 0 && (total > c.options.ChunkOverlap || total+added > c.options.ChunkSize) {
				removed := len(current[0])
				if len(current) > 1 {
					removed += len(separator)
				}
				total -= removed
				current = current[1:]
			}
		}

		if len(current) > 0 {
			total += len(separator)
		}
		total += len(split)
		current = append(current, split)
	}

	if doc := join(current, separator); len(doc) > 0 {
		docs = append(docs, doc)
	}

	return docs
}

func join(splits []string, separator string) string {
	return strings.TrimSpace(strings.Join(splits, separator))
}

func NewChunker(opts ...chunker.Option) chunker.Chunker {
	options := chunker.NewOptions(opts...)

	c := &recursiveChunker{
		options: options,
	}

	return c
}
