package knowledge

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/helpdesk-ai/triage-backend/internal/models"
)

// MemoryIndex keeps embeddings in memory and ranks by cosine similarity.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs []indexedPassage
}

type indexedPassage struct {
	passage   models.KnowledgePassage
	embedding []float32
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

func (m *MemoryIndex) Add(_ context.Context, passage models.KnowledgePassage, vector []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, indexedPassage{passage: passage, embedding: vector})
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, vector []float32, topK int) ([]models.KnowledgePassage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.docs) == 0 || topK <= 0 {
		return nil, nil
	}

	results := make([]models.KnowledgePassage, 0, len(m.docs))
	for _, doc := range m.docs {
		p := doc.passage
		p.Score = cosineSimilarity(vector, doc.embedding)
		results = append(results, p)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
