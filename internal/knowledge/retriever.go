package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/helpdesk-ai/triage-backend/internal/models"
)

// ErrRetrievalUnavailable wraps any embedding or search failure. Callers treat
// it the same as an empty result.
var ErrRetrievalUnavailable = errors.New("knowledge retrieval unavailable")

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex returns passages ordered best match first.
type VectorIndex interface {
	Search(ctx context.Context, vector []float32, topK int) ([]models.KnowledgePassage, error)
}

// Writer is implemented by indexes that accept new passages.
type Writer interface {
	Add(ctx context.Context, passage models.KnowledgePassage, vector []float32) error
}

type Retriever struct {
	Embedder Embedder
	Index    VectorIndex
}

func NewRetriever(embedder Embedder, index VectorIndex) *Retriever {
	return &Retriever{Embedder: embedder, Index: index}
}

func (r *Retriever) Embed(ctx context.Context, text string) ([]float32, error) {
	if r == nil || r.Embedder == nil {
		return nil, fmt.Errorf("%w: no embedder", ErrRetrievalUnavailable)
	}
	vec, err := r.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embed: %v", ErrRetrievalUnavailable, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", ErrRetrievalUnavailable)
	}
	return vec, nil
}

// Search returns at most topK passages with non-blank text.
func (r *Retriever) Search(ctx context.Context, vector []float32, topK int) ([]models.KnowledgePassage, error) {
	if r == nil || r.Index == nil {
		return nil, fmt.Errorf("%w: no index", ErrRetrievalUnavailable)
	}
	if topK <= 0 {
		return nil, nil
	}
	found, err := r.Index.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrRetrievalUnavailable, err)
	}
	out := make([]models.KnowledgePassage, 0, len(found))
	for _, p := range found {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		out = append(out, p)
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

func (r *Retriever) Retrieve(ctx context.Context, text string, topK int) ([]models.KnowledgePassage, error) {
	vec, err := r.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return r.Search(ctx, vec, topK)
}

// Ingest embeds and stores passages when the index is writable.
func (r *Retriever) Ingest(ctx context.Context, passages []models.KnowledgePassage) (int, error) {
	w, ok := r.Index.(Writer)
	if !ok {
		return 0, errors.New("knowledge: index is read-only")
	}
	added := 0
	for _, p := range passages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		vec, err := r.Embed(ctx, p.Text)
		if err != nil {
			return added, err
		}
		if err := w.Add(ctx, p, vec); err != nil {
			return added, fmt.Errorf("knowledge: add passage: %w", err)
		}
		added++
	}
	return added, nil
}
