package qa

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w-h-a/docqa/chunker"
	"github.com/w-h-a/docqa/generator"
	"github.com/w-h-a/docqa/history"
	"github.com/w-h-a/docqa/index"
	"github.com/w-h-a/docqa/index/providers/storer/memory"
)

type fakeEmbedder struct {
	fail bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, errors.New("embedding provider unreachable")
	}
	vec := make([]float32, 64)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%64]++
	}
	return vec, nil
}

type fakeGenerator struct {
	answer  string
	err     error
	calls   int
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, opts ...generator.Option) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func newTestService(t *testing.T, e *fakeEmbedder, g *fakeGenerator) (*Service, *index.Index, *history.Window) {
	t.Helper()

	idx, err := index.NewIndex(
		index.WithEmbedder(e),
		index.WithStorer(memory.NewStorer()),
	)
	require.NoError(t, err)

	window := history.NewWindow(10)

	return New(idx, g, window, Config{}), idx, window
}

func TestAskEmptyQuestionSkipsProviders(t *testing.T) {
	g := &fakeGenerator{answer: "unused"}
	s, _, window := newTestService(t, &fakeEmbedder{}, g)

	rsp := s.Ask(context.Background(), "   \t ")

	assert.False(t, rsp.Success)
	require.NotNil(t, rsp.Err)
	assert.Equal(t, FailureValidation, rsp.Err.Kind)
	assert.Zero(t, g.calls)
	assert.Zero(t, window.Len())
}

func TestAskAnswersFromIngestedContext(t *testing.T) {
	ctx := context.Background()
	g := &fakeGenerator{answer: "Machine learning is a branch of AI."}
	s, idx, window := newTestService(t, &fakeEmbedder{}, g)

	_, err := idx.Add(ctx, []chunker.Chunk{
		{
			Text:     "Machine learning is a subset of artificial intelligence.",
			Metadata: map[string]any{"source_name": "ml.txt", "chunk_index": 0},
		},
	})
	require.NoError(t, err)

	rsp := s.Ask(ctx, "What is machine learning?")

	require.True(t, rsp.Success)
	assert.Equal(t, "Machine learning is a branch of AI.", rsp.Answer)
	require.NotEmpty(t, rsp.Sources)
	assert.Contains(t, rsp.Sources[0].Excerpt, "Machine learning is a subset of artificial intelligence.")
	assert.Equal(t, 1, window.Len())

	turns := window.Recent(1)
	assert.Equal(t, "What is machine learning?", turns[0].Question)
	assert.Equal(t, len(rsp.Sources), turns[0].SourceCount)
}

func TestAskRetrievalFailure(t *testing.T) {
	g := &fakeGenerator{answer: "unused"}
	s, _, window := newTestService(t, &fakeEmbedder{fail: true}, g)

	rsp := s.Ask(context.Background(), "anything at all?")

	assert.False(t, rsp.Success)
	require.NotNil(t, rsp.Err)
	assert.Equal(t, FailureRetrieval, rsp.Err.Kind)
	assert.Zero(t, g.calls)
	assert.Zero(t, window.Len())
}

func TestAskGenerationFailureAppendsNoTurn(t *testing.T) {
	ctx := context.Background()
	g := &fakeGenerator{err: context.DeadlineExceeded}
	s, idx, window := newTestService(t, &fakeEmbedder{}, g)

	_, err := idx.Add(ctx, []chunker.Chunk{
		{Text: "some context", Metadata: map[string]any{}},
	})
	require.NoError(t, err)

	rsp := s.Ask(ctx, "will this time out?")

	assert.False(t, rsp.Success)
	require.NotNil(t, rsp.Err)
	assert.Equal(t, FailureGeneration, rsp.Err.Kind)
	assert.Contains(t, rsp.Err.Detail, "deadline exceeded")
	assert.Zero(t, window.Len())
}

func TestAskPromptOrdering(t *testing.T) {
	ctx := context.Background()
	g := &fakeGenerator{answer: "ok"}
	s, idx, _ := newTestService(t, &fakeEmbedder{}, g)

	_, err := idx.Add(ctx, []chunker.Chunk{
		{Text: "alpha context chunk", Metadata: map[string]any{}},
	})
	require.NoError(t, err)

	s.Ask(ctx, "first question?")
	s.Ask(ctx, "second question?")

	require.Len(t, g.prompts, 2)
	prompt := g.prompts[1]

	ctxPos := strings.Index(prompt, "CONTEXT DOCUMENTS:")
	histPos := strings.Index(prompt, "CONVERSATION HISTORY:")
	questionPos := strings.Index(prompt, "CURRENT QUESTION: second question?")

	require.GreaterOrEqual(t, ctxPos, 0)
	require.Greater(t, histPos, ctxPos)
	require.Greater(t, questionPos, histPos)
	assert.Contains(t, prompt, "[user]: first question?")
}

func TestAskTruncatesSourcePreviews(t *testing.T) {
	ctx := context.Background()
	g := &fakeGenerator{answer: "ok"}
	s, idx, _ := newTestService(t, &fakeEmbedder{}, g)

	long := strings.Repeat("machine learning context ", 30)
	_, err := idx.Add(ctx, []chunker.Chunk{
		{Text: long, Metadata: map[string]any{}},
	})
	require.NoError(t, err)

	rsp := s.Ask(ctx, "machine learning context")
	require.True(t, rsp.Success)
	require.NotEmpty(t, rsp.Sources)

	assert.Len(t, []rune(rsp.Sources[0].Excerpt), 303)
	assert.True(t, strings.HasSuffix(rsp.Sources[0].Excerpt, "..."))
}

func TestParameterUpdatesAreSideChannel(t *testing.T) {
	g := &fakeGenerator{answer: "ok"}
	s, _, _ := newTestService(t, &fakeEmbedder{}, g)

	s.SetTemperature(0.7)
	s.SetMaxTokens(256)

	assert.Zero(t, g.calls)

	s.ClearHistory()
	summary := s.MemorySummary()
	assert.Equal(t, 0, summary.Turns)
	assert.Equal(t, 10, summary.Window)
}
