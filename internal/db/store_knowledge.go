package db

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/helpdesk-ai/triage-backend/internal/models"
)

// Search ranks stored passages by cosine distance to vector using pgvector.
// Score is reported as similarity (1 - distance).
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]models.KnowledgePassage, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT text, metadata, 1 - (embedding <=> $1::vector) AS score
		FROM knowledge_passages
		ORDER BY embedding <=> $1::vector
		LIMIT $2
	`, vectorLiteral(vector), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.KnowledgePassage
	for rows.Next() {
		var (
			p    models.KnowledgePassage
			meta []byte
		)
		if err := rows.Scan(&p.Text, &meta, &p.Score); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &p.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) Add(ctx context.Context, passage models.KnowledgePassage, vector []float32) error {
	meta := passage.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `INSERT INTO knowledge_passages (text, metadata, embedding) VALUES ($1, $2, $3::vector)`, passage.Text, b, vectorLiteral(vector))
	return err
}

// vectorLiteral renders v in pgvector's text input format, e.g. [0.1,0.2].
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
