package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/helpdesk-ai/triage-backend/internal/cache"
	"github.com/helpdesk-ai/triage-backend/internal/metrics"
	"github.com/helpdesk-ai/triage-backend/internal/utils"
)

const DefaultTimeout = 20 * time.Second

// TextCompletionProvider is a single-turn text completion capability.
type TextCompletionProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderFailure reports a failed, timed out or empty generative call.
type ProviderFailure struct {
	Op  string
	Err error
}

func (p *ProviderFailure) Error() string {
	return fmt.Sprintf("provider failure (%s): %v", p.Op, p.Err)
}

func (p *ProviderFailure) Unwrap() error {
	return p.Err
}

func IsProviderFailure(err error) bool {
	var pf *ProviderFailure
	return errors.As(err, &pf)
}

var errNoProvider = errors.New("no provider configured")

// Client applies a bounded timeout, response caching and metrics to every call
// made through a TextCompletionProvider. All failures come back as *ProviderFailure.
type Client struct {
	Provider TextCompletionProvider
	Timeout  time.Duration
	Cache    *cache.Cache
	CacheTTL time.Duration
	Metrics  *metrics.Metrics
}

func (c *Client) Complete(ctx context.Context, op string, prompt string) (string, error) {
	if c == nil || c.Provider == nil {
		return "", &ProviderFailure{Op: op, Err: errNoProvider}
	}

	key := "completion:" + utils.HashKey(prompt)
	if c.CacheTTL > 0 {
		if v, ok := c.Cache.Get(ctx, key); ok {
			return string(v), nil
		}
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	out, err := c.call(callCtx, prompt)
	if err == nil && out == "" {
		err = errors.New("empty completion")
	}
	c.Metrics.ObserveProviderCall(op, err == nil, time.Since(start).Seconds())
	if err != nil {
		return "", &ProviderFailure{Op: op, Err: err}
	}

	if c.CacheTTL > 0 {
		c.Cache.Set(ctx, key, []byte(out), c.CacheTTL)
	}
	return out, nil
}

type completion struct {
	out string
	err error
}

// call returns at the provider's answer or at ctx expiry, whichever is first.
// A late answer is dropped.
func (c *Client) call(ctx context.Context, prompt string) (string, error) {
	done := make(chan completion, 1)
	go func() {
		out, err := c.Provider.Complete(ctx, prompt)
		done <- completion{out: out, err: err}
	}()
	select {
	case r := <-done:
		if r.err == nil && ctx.Err() != nil {
			return "", ctx.Err()
		}
		return r.out, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
