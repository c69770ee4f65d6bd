package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helpdesk-ai/triage-backend/internal/ai"
	"github.com/helpdesk-ai/triage-backend/internal/metrics"
	"github.com/helpdesk-ai/triage-backend/internal/models"
)

const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"

	planItems = 3
)

// CoachingTier: high if csat < 3.5 or quality < 6, medium if csat < 4 or
// quality < 7, low otherwise.
func CoachingTier(avgCSAT, qualityMean float64) string {
	switch {
	case avgCSAT < 3.5 || qualityMean < 6:
		return TierHigh
	case avgCSAT < 4 || qualityMean < 7:
		return TierMedium
	default:
		return TierLow
	}
}

// FocusAreas is keyed by tier only, not by the agent's weakest dimensions.
func FocusAreas(tier string) []string {
	if tier == TierHigh {
		return []string{"Solution Quality", "Customer Empathy", "Technical Accuracy"}
	}
	return []string{"Advanced Skills", "Leadership"}
}

func fallbackPlan() models.CoachingPlan {
	return models.CoachingPlan{
		Strengths:      []string{"Consistent ticket handling", "Professional communication", "Follows standard procedures"},
		Improvements:   []string{"Provide more detailed solutions", "Respond faster to new tickets", "Confirm resolution with customers"},
		TrainingTopics: []string{"Advanced troubleshooting", "Customer communication", "Product knowledge refresh"},
		ShortTermGoals: []string{"Reduce average handling time", "Raise CSAT above 4.0", "Complete one training module"},
		LongTermPlan:   []string{"Build specialist expertise", "Mentor newer agents", "Contribute to the knowledge base"},
	}
}

const coachingPrompt = `You are a support team coach. Build a coaching plan for this agent.

Agent: %s
Tickets handled: %d
Average handling time (minutes): %.1f
Average CSAT (0-5): %.2f
Quality averages (0-10): completeness %.1f, clarity %.1f, empathy %.1f, proactiveness %.1f, technical accuracy %.1f, customer focus %.1f
Common issues: %s
Coaching priority: %s

Respond with JSON only, three short items per list:
{"strengths": [], "improvements": [], "training_topics": [], "short_term_goals": [], "long_term_plan": []}`

type CoachingEngine struct {
	AI      *ai.Client
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// GenerateCoachingRecommendations never fails; priority and focus areas are
// always derived from the snapshot thresholds.
func (e *CoachingEngine) GenerateCoachingRecommendations(ctx context.Context, snap models.PerformanceSnapshot) models.CoachingPlan {
	tier := CoachingTier(snap.AvgCSAT, snap.QualityMean)
	q := snap.QualityMetrics
	prompt := fmt.Sprintf(coachingPrompt,
		snap.AgentID, snap.TotalTickets, snap.AvgHandlingTimeMinutes, snap.AvgCSAT,
		q.Completeness, q.Clarity, q.Empathy, q.Proactiveness, q.TechnicalAccuracy, q.CustomerFocus,
		strings.Join(snap.CommonIssues, ", "), tier)

	plan := fallbackPlan()
	out, err := e.AI.Complete(ctx, "coaching", prompt)
	if err == nil {
		if parsed, ok := parseCoachingPlan(out); ok {
			plan = parsed
		} else {
			err = fmt.Errorf("unparseable coaching plan")
		}
	}
	if err != nil {
		e.Logger.Warn().Err(err).Str("agent_id", snap.AgentID).Msg("coaching synthesis failed, using generic plan")
		e.Metrics.ObserveFallback("coaching")
	}

	plan.Priority = tier
	plan.FocusAreas = FocusAreas(tier)
	return plan
}

// parseCoachingPlan pads or trims every list to three items using the generic plan.
func parseCoachingPlan(text string) (models.CoachingPlan, bool) {
	obj, ok := extractJSONObject(text)
	if !ok {
		return models.CoachingPlan{}, false
	}
	var raw struct {
		Strengths      []string `json:"strengths"`
		Improvements   []string `json:"improvements"`
		TrainingTopics []string `json:"training_topics"`
		ShortTermGoals []string `json:"short_term_goals"`
		LongTermPlan   []string `json:"long_term_plan"`
	}
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return models.CoachingPlan{}, false
	}
	fb := fallbackPlan()
	return models.CoachingPlan{
		Strengths:      exactlyThree(raw.Strengths, fb.Strengths),
		Improvements:   exactlyThree(raw.Improvements, fb.Improvements),
		TrainingTopics: exactlyThree(raw.TrainingTopics, fb.TrainingTopics),
		ShortTermGoals: exactlyThree(raw.ShortTermGoals, fb.ShortTermGoals),
		LongTermPlan:   exactlyThree(raw.LongTermPlan, fb.LongTermPlan),
	}, true
}

func exactlyThree(items, pad []string) []string {
	out := nonEmpty(items)
	if len(out) > planItems {
		out = out[:planItems]
	}
	for i := len(out); i < planItems; i++ {
		out = append(out, pad[i])
	}
	return out
}
