package service

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/helpdesk-ai/triage-backend/internal/models"
)

const (
	csatWeight    = 0.4
	qualityWeight = 0.6

	TrendImproving      = "improving"
	TrendNeedsAttention = "needs_attention"

	maxCommonIssues = 5
)

// QualityAssessor grades a single ticket and never fails.
type QualityAssessor interface {
	QualityAssessment(ctx context.Context, t models.Ticket, review string) models.QualityAssessment
}

// HandlingTimeMinutes is resolvedAt - seenAt in minutes, floored at zero; zero
// when either timestamp is missing.
func HandlingTimeMinutes(u models.UtilizationRecord) float64 {
	if u.SeenAt == nil || u.ResolvedAt == nil {
		return 0
	}
	d := u.ResolvedAt.Sub(*u.SeenAt).Minutes()
	if d < 0 {
		return 0
	}
	return d
}

func CompositeScore(avgCSAT, qualityMean float64) float64 {
	return csatWeight*avgCSAT + qualityWeight*qualityMean
}

func Trend(avgCSAT float64) string {
	if avgCSAT >= 4 {
		return TrendImproving
	}
	return TrendNeedsAttention
}

type Aggregator struct {
	Quality     QualityAssessor
	Concurrency int
}

// AssessAll grades every ticket independently, in parallel, and returns the
// assessments in input order.
func (a *Aggregator) AssessAll(ctx context.Context, tickets []models.Ticket, util map[string]models.UtilizationRecord) []models.QualityAssessment {
	out := make([]models.QualityAssessment, len(tickets))
	limit := a.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, t := range tickets {
		g.Go(func() error {
			out[i] = a.Quality.QualityAssessment(gctx, t, reviewText(util[t.ID]))
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Aggregate groups tickets by agent (first-seen order) and computes one
// snapshot per agent.
func (a *Aggregator) Aggregate(ctx context.Context, tickets []models.Ticket, util map[string]models.UtilizationRecord) []models.PerformanceSnapshot {
	return GroupSnapshots(tickets, a.AssessAll(ctx, tickets, util), util)
}

// GroupSnapshots is the reduce step of Aggregate; assessments[i] belongs to
// tickets[i].
func GroupSnapshots(tickets []models.Ticket, assessments []models.QualityAssessment, util map[string]models.UtilizationRecord) []models.PerformanceSnapshot {
	type group struct {
		tickets     []models.Ticket
		assessments []models.QualityAssessment
	}
	var order []string
	groups := map[string]*group{}
	for i, t := range tickets {
		g, ok := groups[t.AgentID]
		if !ok {
			g = &group{}
			groups[t.AgentID] = g
			order = append(order, t.AgentID)
		}
		g.tickets = append(g.tickets, t)
		g.assessments = append(g.assessments, assessments[i])
	}

	out := make([]models.PerformanceSnapshot, 0, len(order))
	for _, agentID := range order {
		g := groups[agentID]
		out = append(out, BuildSnapshot(agentID, g.tickets, g.assessments, util))
	}
	return out
}

// BuildSnapshot reduces one agent's tickets and their assessments (same order).
func BuildSnapshot(agentID string, tickets []models.Ticket, assessments []models.QualityAssessment, util map[string]models.UtilizationRecord) models.PerformanceSnapshot {
	snap := models.PerformanceSnapshot{
		AgentID:      agentID,
		TotalTickets: len(tickets),
		CommonIssues: CommonIssues(tickets),
	}
	if len(tickets) > 0 {
		snap.Team = tickets[0].Team
	}

	var htSum, csatSum float64
	var htCount, csatCount int
	for _, t := range tickets {
		u, ok := util[t.ID]
		if !ok {
			continue
		}
		if ht := HandlingTimeMinutes(u); ht > 0 {
			htSum += ht
			htCount++
		}
		if u.ReviewRating != nil {
			csatSum += *u.ReviewRating
			csatCount++
		}
	}
	snap.AvgHandlingTimeMinutes = mean(htSum, htCount)
	snap.AvgCSAT = mean(csatSum, csatCount)

	var m models.QualityMetrics
	for _, qa := range assessments {
		m.Completeness += float64(qa.Completeness)
		m.Clarity += float64(qa.Clarity)
		m.Empathy += float64(qa.Empathy)
		m.Proactiveness += float64(qa.Proactiveness)
		m.TechnicalAccuracy += float64(qa.TechnicalAccuracy)
		m.CustomerFocus += float64(qa.CustomerFocus)
	}
	n := len(assessments)
	snap.QualityMetrics = models.QualityMetrics{
		Completeness:      mean(m.Completeness, n),
		Clarity:           mean(m.Clarity, n),
		Empathy:           mean(m.Empathy, n),
		Proactiveness:     mean(m.Proactiveness, n),
		TechnicalAccuracy: mean(m.TechnicalAccuracy, n),
		CustomerFocus:     mean(m.CustomerFocus, n),
	}
	snap.QualityMean = QualityMean(snap.QualityMetrics)
	snap.CompositeScore = CompositeScore(snap.AvgCSAT, snap.QualityMean)
	snap.Trend = Trend(snap.AvgCSAT)
	return snap
}

func QualityMean(m models.QualityMetrics) float64 {
	return (m.Completeness + m.Clarity + m.Empathy + m.Proactiveness + m.TechnicalAccuracy + m.CustomerFocus) / 6
}

// CommonIssues returns the first word of each title, de-duplicated, first five
// in first-seen order.
func CommonIssues(tickets []models.Ticket) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, t := range tickets {
		fields := strings.Fields(t.Title)
		if len(fields) == 0 {
			continue
		}
		tok := fields[0]
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
		if len(out) == maxCommonIssues {
			break
		}
	}
	return out
}

// TopPerformer returns the snapshot with the highest composite score; the
// earliest wins among equals.
func TopPerformer(snaps []models.PerformanceSnapshot) (models.PerformanceSnapshot, bool) {
	if len(snaps) == 0 {
		return models.PerformanceSnapshot{}, false
	}
	best := snaps[0]
	for _, s := range snaps[1:] {
		if s.CompositeScore > best.CompositeScore {
			best = s
		}
	}
	return best, true
}

// RankByComposite sorts descending by composite score, stable for ties.
func RankByComposite(snaps []models.PerformanceSnapshot) []models.PerformanceSnapshot {
	out := append([]models.PerformanceSnapshot(nil), snaps...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompositeScore > out[j].CompositeScore
	})
	return out
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func reviewText(u models.UtilizationRecord) string {
	if u.ReviewText == nil {
		return ""
	}
	return *u.ReviewText
}
