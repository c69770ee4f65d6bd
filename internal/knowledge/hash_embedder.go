package knowledge

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/helpdesk-ai/triage-backend/internal/utils"
)

// HashEmbedder is a provider-free bag-of-words embedder: every lowercased token
// is hashed into one of Dims buckets and the vector is L2 normalized. Used when
// no embedding endpoint is configured.
type HashEmbedder struct {
	Dims int
}

func (h HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dims := h.Dims
	if dims <= 0 {
		dims = 256
	}
	vec := make([]float32, dims)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		vec[utils.HashStringToUint64(tok)%uint64(dims)]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
