package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helpdesk-ai/triage-backend/internal/models"
)

const maxRecentFeedback = 5

type TicketRepository interface {
	ListTicketsByAgent(ctx context.Context, agentID string) ([]models.Ticket, error)
	ListTicketsByTeam(ctx context.Context, team string) ([]models.Ticket, error)
	ListUtilization(ctx context.Context, ticketIDs []string) (map[string]models.UtilizationRecord, error)
}

type Feedback struct {
	TicketID   string     `json:"ticket_id"`
	Rating     *float64   `json:"rating,omitempty"`
	Text       string     `json:"text"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

type AgentPerformance struct {
	AgentPerformance        models.PerformanceSnapshot `json:"agent_performance"`
	CoachingRecommendations models.CoachingPlan        `json:"coaching_recommendations"`
	RecentFeedback          []Feedback                 `json:"recent_feedback"`
}

type TeamOverview struct {
	Team                   string  `json:"team"`
	TotalAgents            int     `json:"total_agents"`
	TotalTickets           int     `json:"total_tickets"`
	AvgHandlingTimeMinutes float64 `json:"avg_handling_time_minutes"`
	AvgCSAT                float64 `json:"avg_csat"`
	AvgQuality             float64 `json:"avg_quality"`
	TopPerformer           string  `json:"top_performer"`
}

type PerformanceTrends struct {
	HighPerformers []string `json:"high_performers"`
	NeedsAttention []string `json:"needs_attention"`
}

type TeamPerformance struct {
	TeamOverview          TeamOverview                 `json:"team_overview"`
	IndividualPerformance []models.PerformanceSnapshot `json:"individual_performance"`
	PerformanceTrends     PerformanceTrends            `json:"performance_trends"`
}

type PerformanceService struct {
	Tickets    TicketRepository
	Aggregator *Aggregator
	Coaching   *CoachingEngine
	Logger     zerolog.Logger
}

// AgentPerformance returns ErrNotFound when the agent has no tickets.
func (s *PerformanceService) AgentPerformance(ctx context.Context, agentID string) (AgentPerformance, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return AgentPerformance{}, ValidationError{Field: "agent_id", Reason: "required"}
	}
	tickets, err := s.Tickets.ListTicketsByAgent(ctx, agentID)
	if err != nil {
		return AgentPerformance{}, fmt.Errorf("list agent tickets: %w", err)
	}
	if len(tickets) == 0 {
		return AgentPerformance{}, ErrNotFound
	}
	util, err := s.Tickets.ListUtilization(ctx, ticketIDs(tickets))
	if err != nil {
		return AgentPerformance{}, fmt.Errorf("list utilization: %w", err)
	}

	assessments := s.Aggregator.AssessAll(ctx, tickets, util)
	snap := BuildSnapshot(agentID, tickets, assessments, util)
	plan := s.Coaching.GenerateCoachingRecommendations(ctx, snap)

	s.Logger.Info().Str("agent_id", agentID).Int("tickets", snap.TotalTickets).Float64("composite", snap.CompositeScore).Msg("agent performance computed")
	return AgentPerformance{
		AgentPerformance:        snap,
		CoachingRecommendations: plan,
		RecentFeedback:          RecentFeedback(tickets, util, maxRecentFeedback),
	}, nil
}

// TeamPerformance returns ErrNotFound when the team has no tickets.
func (s *PerformanceService) TeamPerformance(ctx context.Context, team string) (TeamPerformance, error) {
	team = strings.TrimSpace(team)
	if team == "" {
		return TeamPerformance{}, ValidationError{Field: "team", Reason: "required"}
	}
	tickets, err := s.Tickets.ListTicketsByTeam(ctx, team)
	if err != nil {
		return TeamPerformance{}, fmt.Errorf("list team tickets: %w", err)
	}
	if len(tickets) == 0 {
		return TeamPerformance{}, ErrNotFound
	}
	util, err := s.Tickets.ListUtilization(ctx, ticketIDs(tickets))
	if err != nil {
		return TeamPerformance{}, fmt.Errorf("list utilization: %w", err)
	}

	assessments := s.Aggregator.AssessAll(ctx, tickets, util)
	snaps := GroupSnapshots(tickets, assessments, util)
	whole := BuildSnapshot(team, tickets, assessments, util)

	overview := TeamOverview{
		Team:                   team,
		TotalAgents:            len(snaps),
		TotalTickets:           whole.TotalTickets,
		AvgHandlingTimeMinutes: whole.AvgHandlingTimeMinutes,
		AvgCSAT:                whole.AvgCSAT,
		AvgQuality:             whole.QualityMean,
	}
	if top, ok := TopPerformer(snaps); ok {
		overview.TopPerformer = top.AgentID
	}

	trends := PerformanceTrends{HighPerformers: []string{}, NeedsAttention: []string{}}
	for _, sn := range snaps {
		if sn.Trend == TrendImproving {
			trends.HighPerformers = append(trends.HighPerformers, sn.AgentID)
		} else {
			trends.NeedsAttention = append(trends.NeedsAttention, sn.AgentID)
		}
	}

	return TeamPerformance{
		TeamOverview:          overview,
		IndividualPerformance: RankByComposite(snaps),
		PerformanceTrends:     trends,
	}, nil
}

// RecentFeedback returns up to limit non-empty review texts, newest resolution
// first. Records without a resolution time sort last.
func RecentFeedback(tickets []models.Ticket, util map[string]models.UtilizationRecord, limit int) []Feedback {
	out := []Feedback{}
	for _, t := range tickets {
		u, ok := util[t.ID]
		if !ok {
			continue
		}
		text := strings.TrimSpace(reviewText(u))
		if text == "" {
			continue
		}
		out = append(out, Feedback{TicketID: t.ID, Rating: u.ReviewRating, Text: text, ResolvedAt: u.ResolvedAt})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].ResolvedAt, out[j].ResolvedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func ticketIDs(tickets []models.Ticket) []string {
	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	return ids
}
