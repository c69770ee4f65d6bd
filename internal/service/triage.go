package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helpdesk-ai/triage-backend/internal/metrics"
	"github.com/helpdesk-ai/triage-backend/internal/models"
)

const (
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"

	maxRunSamples = 5
)

type CaseCounter interface {
	CountCases(ctx context.Context) (int, error)
}

// TriageStore supplies untriaged tickets and persists outcomes for batch runs.
type TriageStore interface {
	ListUntriagedTickets(ctx context.Context) ([]models.Ticket, error)
	SaveTriage(ctx context.Context, outcome models.TriageOutcome) error
}

type TriageRequest struct {
	Description string   `json:"description" validate:"required"`
	ChatHistory []string `json:"chat_history,omitempty"`
}

type TriageResult struct {
	Category           string          `json:"category"`
	Priority           string          `json:"priority"`
	Solution           string          `json:"solution"`
	AgentNeeded        bool            `json:"agent_needed"`
	Summary            string          `json:"summary"`
	AssignedTechnician string          `json:"assigned_technician"`
	Confidence         string          `json:"confidence"`
	SolutionSources    SolutionSources `json:"solution_sources"`
	TicketsInDB        int             `json:"tickets_in_db"`
}

type TriageService struct {
	Classifier *Classifier
	Solutions  *SolutionSynthesizer
	Assigner   *ResourceAssigner
	Cases      CaseCounter
	Store      TriageStore
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Triage runs classify, hybrid solution, assignment and summary for one ticket.
// Provider outages never fail the request; only validation and storage errors do.
func (s *TriageService) Triage(ctx context.Context, req TriageRequest) (TriageResult, error) {
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		return TriageResult{}, ValidationError{Field: "description", Reason: "required"}
	}
	start := time.Now()
	defer func() { s.Metrics.ObserveTriage(time.Since(start).Seconds()) }()

	text := triageText(desc, req.ChatHistory)
	category := s.Classifier.Categorize(ctx, text)
	priority := s.Classifier.Priority(ctx, text)

	hybrid, err := s.Solutions.HybridSolution(ctx, desc)
	if err != nil {
		return TriageResult{}, err
	}
	technician, err := s.Assigner.Assign(ctx, category)
	if err != nil {
		return TriageResult{}, fmt.Errorf("load technicians: %w", err)
	}
	summary := s.Classifier.Summarize(ctx, text)

	total, err := s.Cases.CountCases(ctx)
	if err != nil {
		return TriageResult{}, fmt.Errorf("count past cases: %w", err)
	}

	return TriageResult{
		Category:           category,
		Priority:           priority,
		Solution:           hybrid.Solution,
		AgentNeeded:        hybrid.RequiresHuman,
		Summary:            summary,
		AssignedTechnician: technician,
		Confidence:         hybrid.Confidence,
		SolutionSources:    hybrid.Sources,
		TicketsInDB:        total,
	}, nil
}

// triageText is what the classifier sees: the description followed by any prior
// chat lines.
func triageText(desc string, history []string) string {
	lines := nonEmpty(history)
	if len(lines) == 0 {
		return desc
	}
	return desc + "\n\nConversation so far:\n" + strings.Join(lines, "\n")
}

type RunSummary struct {
	Events  []map[string]any `json:"events"`
	Counts  map[string]any   `json:"counts"`
	Samples []map[string]any `json:"samples,omitempty"`
}

// ProcessTickets triages every stored ticket that has no outcome yet. A failure
// on one ticket is counted and the batch continues.
func (s *TriageService) ProcessTickets(ctx context.Context, debug bool) (RunSummary, error) {
	tickets, err := s.Store.ListUntriagedTickets(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{Counts: map[string]any{}}
	start := time.Now()
	summary.Events = append(summary.Events, map[string]any{
		"type":    "load",
		"message": "Tickets ready for triage",
		"count":   len(tickets),
		"time":    time.Now().UTC(),
	})

	var (
		triaged         int
		unassigned      int
		humanNeeded     int
		errorsCount     int
		byCategory      = map[string]int{}
		byPriority      = map[string]int{}
		unassignedByCat = map[string]int{}
	)

	for _, t := range tickets {
		res, err := s.Triage(ctx, TriageRequest{Description: ticketText(t)})
		if err != nil {
			errorsCount++
			s.Logger.Error().Err(err).Str("ticket_id", t.ID).Msg("triage failed")
			continue
		}
		outcome := models.TriageOutcome{
			TicketID:           t.ID,
			Category:           res.Category,
			Priority:           res.Priority,
			Summary:            res.Summary,
			Solution:           res.Solution,
			RequiresHuman:      res.AgentNeeded,
			Confidence:         res.Confidence,
			AssignedTechnician: res.AssignedTechnician,
			TriagedAt:          s.now().UTC(),
		}
		if err := s.Store.SaveTriage(ctx, outcome); err != nil {
			errorsCount++
			s.Logger.Error().Err(err).Str("ticket_id", t.ID).Msg("triage write failed")
			continue
		}
		triaged++
		byCategory[res.Category]++
		byPriority[res.Priority]++
		if res.AgentNeeded {
			humanNeeded++
		}
		if res.AssignedTechnician == NoTechnicianAvailable {
			unassigned++
			unassignedByCat[res.Category]++
			if debug && len(summary.Samples) < maxRunSamples {
				summary.Samples = append(summary.Samples, map[string]any{
					"ticket_id": t.ID,
					"category":  res.Category,
					"reason":    NoTechnicianAvailable,
				})
			}
		}
	}

	summary.Events = append(summary.Events, map[string]any{
		"type":       "classification",
		"categories": byCategory,
		"priorities": byPriority,
		"time":       time.Now().UTC(),
	})
	summary.Events = append(summary.Events, map[string]any{
		"type":         "assignment",
		"assigned":     triaged - unassigned,
		"unassigned":   unassigned,
		"human_needed": humanNeeded,
		"time":         time.Now().UTC(),
	})
	summary.Events = append(summary.Events, map[string]any{
		"type":       "db_save",
		"message":    "Triage saved",
		"elapsed_ms": time.Since(start).Milliseconds(),
		"time":       time.Now().UTC(),
	})

	summary.Counts["tickets_processed"] = len(tickets)
	summary.Counts["triaged"] = triaged
	summary.Counts["assigned"] = triaged - unassigned
	summary.Counts["unassigned"] = unassigned
	summary.Counts["human_needed"] = humanNeeded
	summary.Counts["errors"] = errorsCount
	summary.Counts["unassigned_by_category"] = unassignedByCat
	return summary, nil
}

func (s *TriageService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func ticketText(t models.Ticket) string {
	title := strings.TrimSpace(t.Title)
	desc := strings.TrimSpace(t.Description)
	switch {
	case title == "":
		return desc
	case desc == "":
		return title
	default:
		return title + "\n" + desc
	}
}
