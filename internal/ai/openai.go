package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider talks to any OpenAI-compatible /chat/completions endpoint.
type OpenAIProvider struct {
	client    chatCompleter
	model     string
	maxTokens int
}

type RateLimitError struct {
	Err error
}

func (r RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: %v", r.Err)
}

func (r RateLimitError) Unwrap() error {
	return r.Err
}

func NewOpenAIProvider(baseURL, apiKey, model string, maxTokens int) (*OpenAIProvider, error) {
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("ai: AI_MODEL is not set")
	}
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return newOpenAIProvider(openai.NewClientWithConfig(cfg), model, maxTokens), nil
}

func newOpenAIProvider(client chatCompleter, model string, maxTokens int) *OpenAIProvider {
	if maxTokens <= 0 {
		maxTokens = 800
	}
	return &OpenAIProvider{client: client, model: model, maxTokens: maxTokens}
}

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", RateLimitError{Err: err}
		}
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty assistant response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
