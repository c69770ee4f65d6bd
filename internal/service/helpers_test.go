package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/helpdesk-ai/triage-backend/internal/ai"
	"github.com/helpdesk-ai/triage-backend/internal/models"
)

type funcProvider func(ctx context.Context, prompt string) (string, error)

func (f funcProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// countingProvider records how many prompts reached the provider.
type countingProvider struct {
	calls atomic.Int32
	fn    func(prompt string) (string, error)
}

func (c *countingProvider) Complete(_ context.Context, prompt string) (string, error) {
	c.calls.Add(1)
	return c.fn(prompt)
}

func failingClient() *ai.Client {
	return &ai.Client{Provider: funcProvider(func(context.Context, string) (string, error) {
		return "", errors.New("provider down")
	})}
}

func clientReturning(out string) *ai.Client {
	return &ai.Client{Provider: funcProvider(func(context.Context, string) (string, error) {
		return out, nil
	})}
}

type staticCases []models.TicketCase

func (s staticCases) ListCases(context.Context) ([]models.TicketCase, error) {
	return s, nil
}

func (s staticCases) CountCases(context.Context) (int, error) {
	return len(s), nil
}

type staticKnowledge struct {
	passages []models.KnowledgePassage
	err      error
}

func (s staticKnowledge) Retrieve(_ context.Context, _ string, topK int) ([]models.KnowledgePassage, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.passages) > topK {
		return s.passages[:topK], nil
	}
	return s.passages, nil
}

type staticRoster []models.Technician

func (s staticRoster) ListTechnicians(context.Context) ([]models.Technician, error) {
	return s, nil
}

func testRoster() staticRoster {
	return staticRoster{
		{Name: "Priya", Skills: []string{"order", "general"}, Available: true},
		{Name: "Rahul", Skills: []string{"delivery", "order"}, Available: true},
		{Name: "Anjali", Skills: []string{"technical"}, Available: true},
		{Name: "Mohit", Skills: []string{"general"}, Available: false},
	}
}

type fakeTickets struct {
	tickets []models.Ticket
	util    map[string]models.UtilizationRecord
}

func (f fakeTickets) ListTicketsByAgent(_ context.Context, agentID string) ([]models.Ticket, error) {
	var out []models.Ticket
	for _, t := range f.tickets {
		if t.AgentID == agentID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f fakeTickets) ListTicketsByTeam(_ context.Context, team string) ([]models.Ticket, error) {
	var out []models.Ticket
	for _, t := range f.tickets {
		if t.Team == team {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f fakeTickets) ListUtilization(_ context.Context, ids []string) (map[string]models.UtilizationRecord, error) {
	out := map[string]models.UtilizationRecord{}
	for _, id := range ids {
		if u, ok := f.util[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

// fixedQuality grades each ticket from a lookup, defaulting to the fallback.
type fixedQuality map[string]models.QualityAssessment

func (f fixedQuality) QualityAssessment(_ context.Context, t models.Ticket, _ string) models.QualityAssessment {
	if qa, ok := f[t.ID]; ok {
		return qa
	}
	return FallbackQualityAssessment()
}

func uniformQuality(score int) models.QualityAssessment {
	return models.QualityAssessment{
		Completeness: score, Clarity: score, Empathy: score,
		Proactiveness: score, TechnicalAccuracy: score, CustomerFocus: score,
		Grade: "B",
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrFloat(v float64) *float64 { return &v }

func ptrString(s string) *string { return &s }
