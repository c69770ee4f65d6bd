package knowledge

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-ai/triage-backend/internal/models"
)

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding endpoint down")
}

type staticIndex struct {
	passages []models.KnowledgePassage
	err      error
}

func (s staticIndex) Search(context.Context, []float32, int) ([]models.KnowledgePassage, error) {
	return s.passages, s.err
}

func TestRetrieveFiltersBlankPassagesAndCapsTopK(t *testing.T) {
	r := NewRetriever(HashEmbedder{}, staticIndex{passages: []models.KnowledgePassage{
		{Text: "Reset the router", Score: 0.9},
		{Text: "   ", Score: 0.8},
		{Text: "Clear the app cache", Score: 0.7},
		{Text: "Reinstall", Score: 0.6},
	}})

	got, err := r.Retrieve(context.Background(), "router keeps dropping", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Reset the router", got[0].Text)
	assert.Equal(t, "Clear the app cache", got[1].Text)
}

func TestRetrieveEmbedFailureIsUnavailable(t *testing.T) {
	r := NewRetriever(failingEmbedder{}, NewMemoryIndex())
	_, err := r.Retrieve(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
}

func TestRetrieveSearchFailureIsUnavailable(t *testing.T) {
	r := NewRetriever(HashEmbedder{}, staticIndex{err: errors.New("index offline")})
	_, err := r.Retrieve(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
}

func TestNilRetrieverIsUnavailable(t *testing.T) {
	var r *Retriever
	_, err := r.Retrieve(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
}

func TestMemoryIndexRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	r := NewRetriever(HashEmbedder{Dims: 512}, NewMemoryIndex())
	added, err := r.Ingest(ctx, []models.KnowledgePassage{
		{Text: "How to track a delivery shipment", Metadata: map[string]any{"source": "kb/delivery"}},
		{Text: "Resetting your account password on the mobile app", Metadata: map[string]any{"source": "kb/login"}},
		{Text: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	got, err := r.Retrieve(ctx, "mobile app password reset", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kb/login", got[0].Metadata["source"])
	assert.Greater(t, got[0].Score, 0.0)
}

func TestIngestReadOnlyIndex(t *testing.T) {
	r := NewRetriever(HashEmbedder{}, staticIndex{})
	_, err := r.Ingest(context.Background(), []models.KnowledgePassage{{Text: "x"}})
	require.Error(t, err)
}

type stubEmbeddings struct {
	resp openai.EmbeddingResponse
	err  error
}

func (s stubEmbeddings) CreateEmbeddings(context.Context, openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	return s.resp, s.err
}

func TestOpenAIEmbedder(t *testing.T) {
	e := newOpenAIEmbedder(stubEmbeddings{resp: openai.EmbeddingResponse{
		Data: []openai.Embedding{{Embedding: []float32{0.1, 0.2}}},
	}}, "")
	vec, err := e.Embed(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, vec)

	_, err = newOpenAIEmbedder(stubEmbeddings{}, "").Embed(context.Background(), "hi")
	require.Error(t, err)
}
