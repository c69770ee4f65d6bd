package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	resp  *genai.GenerateContentResponse
	err   error
	parts []genai.Part
}

func (s *stubGenerator) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	s.parts = parts
	return s.resp, s.err
}

func candidate(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestGeminiProviderJoinsTextParts(t *testing.T) {
	stub := &stubGenerator{resp: candidate(genai.Text(" SOLUTION: restart"), genai.Blob{MIMEType: "image/png"}, genai.Text(" the router \n"))}
	p := &GeminiProvider{model: stub}

	out, err := p.Complete(context.Background(), "fix my router")
	require.NoError(t, err)
	assert.Equal(t, "SOLUTION: restart the router", out)
	require.Len(t, stub.parts, 1)
	assert.Equal(t, genai.Text("fix my router"), stub.parts[0])
}

func TestGeminiProviderEmptyResponses(t *testing.T) {
	cases := map[string]*genai.GenerateContentResponse{
		"nil response":  nil,
		"no candidates": {},
		"nil content":   {Candidates: []*genai.Candidate{{}}},
		"no parts":      candidate(),
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			p := &GeminiProvider{model: &stubGenerator{resp: resp}}
			_, err := p.Complete(context.Background(), "hi")
			assert.Error(t, err)
		})
	}
}

func TestGeminiProviderWrapsErrors(t *testing.T) {
	cause := errors.New("quota exceeded")
	p := &GeminiProvider{model: &stubGenerator{err: cause}}
	_, err := p.Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, cause)
}

func TestGeminiProviderCloseWithoutClient(t *testing.T) {
	assert.NoError(t, (&GeminiProvider{}).Close())
}
