package recursive

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w-h-a/docqa/chunker"
)

func TestSplitIsDeterministic(t *testing.T) {
	c := NewChunker(
		chunker.WithChunkSize(80),
		chunker.WithChunkOverlap(20),
	)

	text := strings.Repeat("alpha beta gamma delta epsilon zeta eta theta. ", 20)

	first, err := c.Split(text, map[string]any{"source_id": "doc-1"})
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := c.Split(text, map[string]any{"source_id": "doc-1"})
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Text, second[i].Text)
	}
}

func TestSplitRespectsSizeBound(t *testing.T) {
	size := 100
	c := NewChunker(
		chunker.WithChunkSize(size),
		chunker.WithChunkOverlap(10),
	)

	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 50)

	chunks, err := c.Split(text, nil)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), size)
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	c := NewChunker(
		chunker.WithChunkSize(50),
		chunker.WithChunkOverlap(0),
	)

	text := "First paragraph stays whole.\n\nSecond paragraph stays whole."

	chunks, err := c.Split(text, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "First paragraph stays whole.", chunks[0].Text)
	assert.Equal(t, "Second paragraph stays whole.", chunks[1].Text)
}

func TestSplitOverlapBound(t *testing.T) {
	size := 60
	overlap := 20
	c := NewChunker(
		chunker.WithChunkSize(size),
		chunker.WithChunkOverlap(overlap),
	)

	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("w")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(" ")
	}

	chunks, err := c.Split(sb.String(), nil)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		shared := sharedBoundary(chunks[i-1].Text, chunks[i].Text)
		assert.LessOrEqual(t, shared, overlap)
	}
}

func TestSplitOrdersChunkIndex(t *testing.T) {
	c := NewChunker(
		chunker.WithChunkSize(40),
		chunker.WithChunkOverlap(5),
	)

	chunks, err := c.Split(strings.Repeat("word ", 60), map[string]any{"source_name": "w.txt"})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Metadata[chunker.MetaChunkIndex])
		assert.Equal(t, "w.txt", ch.Metadata["source_name"])
	}
}

func TestSplitEmptyInput(t *testing.T) {
	c := NewChunker()

	chunks, err := c.Split("   \n\t  ", nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestNewOptionsClampsOverlap(t *testing.T) {
	options := chunker.NewOptions(
		chunker.WithChunkSize(100),
		chunker.WithChunkOverlap(100),
	)

	assert.Less(t, options.ChunkOverlap, options.ChunkSize)
}

// sharedBoundary returns the length of the longest suffix of prev that is a
// prefix of next.
func sharedBoundary(prev, next string) int {
	max := len(prev)
	if len(next) < max {
		max = len(next)
	}
	for n := max; n > 0; n-- {
		if strings.HasSuffix(prev, next[:n]) {
			return n
		}
	}
	return 0
}
