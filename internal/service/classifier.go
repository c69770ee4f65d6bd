package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helpdesk-ai/triage-backend/internal/ai"
	"github.com/helpdesk-ai/triage-backend/internal/metrics"
	"github.com/helpdesk-ai/triage-backend/internal/models"
)

const summaryFallbackRunes = 100

// categoryKeywords is scanned in order; the first category with a matching
// substring wins.
var categoryKeywords = []struct {
	Category string
	Keywords []string
}{
	{models.CategoryOrder, []string{"order", "purchase", "checkout", "cart", "payment", "refund", "invoice", "cancel"}},
	{models.CategoryDelivery, []string{"delivery", "deliver", "shipping", "shipment", "tracking", "courier", "package", "arrive"}},
	{models.CategoryTechnical, []string{"error", "bug", "crash", "login", "password", "app", "website", "not working", "technical"}},
}

const categorizePrompt = `You are a support triage assistant. Classify the ticket into exactly one category.
Reply with one of: order, delivery, technical, general
Reply with the label only.

Ticket:
%s`

const priorityPrompt = `You are a support triage assistant. Rate the urgency of the ticket.
Reply with exactly one of: High, Medium, Low
Reply with the label only.

Ticket:
%s`

const summaryPrompt = `Summarize the following support ticket in one short sentence for an agent dashboard.

Ticket:
%s`

type Classifier struct {
	AI      *ai.Client
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// Categorize always returns order, delivery, technical or general.
func (c *Classifier) Categorize(ctx context.Context, text string) string {
	out, err := c.AI.Complete(ctx, "categorize", fmt.Sprintf(categorizePrompt, text))
	return categoryFromResponse(text, out, err, c.fallback("categorize"))
}

// Priority always returns High, Medium or Low.
func (c *Classifier) Priority(ctx context.Context, text string) string {
	out, err := c.AI.Complete(ctx, "priority", fmt.Sprintf(priorityPrompt, text))
	return priorityFromResponse(out, err, c.fallback("priority"))
}

func (c *Classifier) Summarize(ctx context.Context, text string) string {
	out, err := c.AI.Complete(ctx, "summary", fmt.Sprintf(summaryPrompt, text))
	return summaryFromResponse(text, out, err, c.fallback("summary"))
}

func (c *Classifier) fallback(op string) func(error) {
	return func(err error) {
		c.Metrics.ObserveFallback(op)
		ev := c.Logger.Warn().Str("op", op)
		if err != nil {
			ev = ev.Err(err)
		}
		ev.Msg("classifier fallback")
	}
}

func categoryFromResponse(text, out string, err error, onFallback func(error)) string {
	if err == nil {
		if label, ok := normalizeCategory(out); ok {
			return label
		}
	}
	onFallback(err)
	return KeywordCategory(text)
}

func priorityFromResponse(out string, err error, onFallback func(error)) string {
	if err == nil {
		if level, ok := normalizePriority(out); ok {
			return level
		}
	}
	onFallback(err)
	return models.PriorityMedium
}

func summaryFromResponse(text, out string, err error, onFallback func(error)) string {
	if err == nil {
		if s := strings.TrimSpace(out); s != "" {
			return s
		}
	}
	onFallback(err)
	return truncateRunes(strings.TrimSpace(text), summaryFallbackRunes)
}

// KeywordCategory is the deterministic classifier used when the provider cannot
// produce a known label.
func KeywordCategory(text string) string {
	lower := strings.ToLower(text)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.Keywords {
			if strings.Contains(lower, kw) {
				return entry.Category
			}
		}
	}
	return models.CategoryGeneral
}

func normalizeCategory(raw string) (string, bool) {
	switch cleanLabel(raw) {
	case models.CategoryOrder:
		return models.CategoryOrder, true
	case models.CategoryDelivery:
		return models.CategoryDelivery, true
	case models.CategoryTechnical:
		return models.CategoryTechnical, true
	case models.CategoryGeneral:
		return models.CategoryGeneral, true
	default:
		return "", false
	}
}

func normalizePriority(raw string) (string, bool) {
	switch cleanLabel(raw) {
	case "high":
		return models.PriorityHigh, true
	case "medium":
		return models.PriorityMedium, true
	case "low":
		return models.PriorityLow, true
	default:
		return "", false
	}
}

func cleanLabel(raw string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(raw), "\"'`.*: \n"))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
