package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helpdesk-ai/triage-backend/internal/ai"
	"github.com/helpdesk-ai/triage-backend/internal/cache"
	"github.com/helpdesk-ai/triage-backend/internal/metrics"
	"github.com/helpdesk-ai/triage-backend/internal/models"
	"github.com/helpdesk-ai/triage-backend/internal/utils"
)

const (
	NoMatchSolution   = "No similar cases. Escalate."
	ErrorSolution     = "Error combining solutions."
	maxContextCases   = 3
	defaultKnowledgeK = 5
	qualityCacheTTL   = time.Hour
)

type CaseSource interface {
	ListCases(ctx context.Context) ([]models.TicketCase, error)
}

type KnowledgeSearcher interface {
	Retrieve(ctx context.Context, text string, topK int) ([]models.KnowledgePassage, error)
}

type CaseMatch struct {
	Case       models.TicketCase
	Similarity float64
}

// CaseMatcher selects past cases relevant to a problem, in priority order.
type CaseMatcher interface {
	Match(problem string, cases []models.TicketCase) []CaseMatch
}

// LexicalPrefilter matches a stored case when the first PrefixLen characters of
// its problem occur, case-insensitively, anywhere in the incoming problem.
type LexicalPrefilter struct {
	PrefixLen int
}

func (l LexicalPrefilter) Match(problem string, cases []models.TicketCase) []CaseMatch {
	n := l.PrefixLen
	if n <= 0 {
		n = 5
	}
	incoming := strings.ToLower(problem)
	var out []CaseMatch
	for _, c := range cases {
		prefix := []rune(strings.ToLower(c.Problem))
		if len(prefix) > n {
			prefix = prefix[:n]
		}
		if strings.Contains(incoming, string(prefix)) {
			out = append(out, CaseMatch{Case: c, Similarity: 1.0})
		}
	}
	return out
}

type SolutionSources struct {
	PastTickets   int `json:"past_tickets"`
	KnowledgeBase int `json:"knowledge_base"`
}

type HybridResult struct {
	Solution      string          `json:"solution"`
	RequiresHuman bool            `json:"requires_human"`
	Confidence    string          `json:"confidence"`
	Sources       SolutionSources `json:"sources"`
}

type SolutionSynthesizer struct {
	AI         *ai.Client
	Cases      CaseSource
	Knowledge  KnowledgeSearcher
	Matcher    CaseMatcher
	KnowledgeK int
	Cache      *cache.Cache
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
}

// HybridSolution combines matching past cases and knowledge passages into one
// recommendation. The only error it returns is a failure to read past cases.
func (s *SolutionSynthesizer) HybridSolution(ctx context.Context, problem string) (HybridResult, error) {
	cases, err := s.Cases.ListCases(ctx)
	if err != nil {
		return HybridResult{}, fmt.Errorf("list past cases: %w", err)
	}
	matcher := s.Matcher
	if matcher == nil {
		matcher = LexicalPrefilter{PrefixLen: 5}
	}
	matches := matcher.Match(problem, cases)

	k := s.KnowledgeK
	if k <= 0 {
		k = defaultKnowledgeK
	}
	var passages []models.KnowledgePassage
	if s.Knowledge != nil {
		passages, err = s.Knowledge.Retrieve(ctx, problem, k)
		if err != nil {
			s.Logger.Warn().Err(err).Str("op", "knowledge_search").Msg("knowledge retrieval unavailable, continuing without passages")
			s.Metrics.ObserveFallback("knowledge_search")
			passages = nil
		}
	}

	sources := SolutionSources{PastTickets: len(matches), KnowledgeBase: len(passages)}
	if len(matches) == 0 && len(passages) == 0 {
		return HybridResult{
			Solution:      NoMatchSolution,
			RequiresHuman: true,
			Confidence:    models.ConfidenceLow,
			Sources:       sources,
		}, nil
	}

	out, err := s.AI.Complete(ctx, "hybrid_solution", buildHybridPrompt(problem, matches, passages))
	if err != nil {
		s.Logger.Warn().Err(err).Str("op", "hybrid_solution").Msg("solution synthesis failed")
		s.Metrics.ObserveFallback("hybrid_solution")
		return HybridResult{
			Solution:      ErrorSolution,
			RequiresHuman: true,
			Confidence:    models.ConfidenceLow,
			Sources:       sources,
		}, nil
	}
	res := ParseHybridResponse(out)
	res.Sources = sources
	return res, nil
}

func buildHybridPrompt(problem string, matches []CaseMatch, passages []models.KnowledgePassage) string {
	var b strings.Builder
	b.WriteString("You are a senior support engineer. Recommend one solution for the customer problem below.\n\n")
	b.WriteString("Problem:\n")
	b.WriteString(problem)
	b.WriteString("\n\n")

	if len(matches) > 0 {
		b.WriteString("Similar past cases:\n")
		for i, m := range matches {
			if i == maxContextCases {
				break
			}
			fmt.Fprintf(&b, "%d. Problem: %s\n   Solution: %s\n   Needed human agent: %t\n", i+1, m.Case.Problem, m.Case.Solution, m.Case.RequiresHuman)
		}
		b.WriteString("\n")
	}
	if len(passages) > 0 {
		b.WriteString("Knowledge base:\n")
		for _, p := range passages {
			fmt.Fprintf(&b, "- %s\n", p.Text)
		}
		b.WriteString("\n")
	}

	b.WriteString("Answer with exactly three lines:\n")
	b.WriteString("SOLUTION: <the recommended solution>\n")
	b.WriteString("AGENT_NEEDED: <true or false>\n")
	b.WriteString("CONFIDENCE: <high, medium or low>\n")
	return b.String()
}

// ParseHybridResponse reads the labeled lines of a synthesis response. A missing
// AGENT_NEEDED line means a human is needed; a missing or unknown CONFIDENCE is low.
func ParseHybridResponse(text string) HybridResult {
	res := HybridResult{RequiresHuman: true, Confidence: models.ConfidenceLow}
	var solution []string
	inSolution := false
	sawSolution := false

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "SOLUTION:"):
			solution = append(solution[:0], strings.TrimSpace(line[len("SOLUTION:"):]))
			inSolution = true
			sawSolution = true
		case strings.HasPrefix(upper, "AGENT_NEEDED:"):
			v := strings.ToLower(strings.TrimSpace(line[len("AGENT_NEEDED:"):]))
			res.RequiresHuman = strings.HasPrefix(v, "true")
			inSolution = false
		case strings.HasPrefix(upper, "CONFIDENCE:"):
			v := strings.ToLower(strings.Trim(strings.TrimSpace(line[len("CONFIDENCE:"):]), ".*"))
			switch v {
			case models.ConfidenceHigh, models.ConfidenceMedium, models.ConfidenceLow:
				res.Confidence = v
			}
			inSolution = false
		case inSolution && line != "":
			solution = append(solution, line)
		}
	}

	if sawSolution {
		res.Solution = strings.TrimSpace(strings.Join(solution, "\n"))
	} else {
		res.Solution = strings.TrimSpace(text)
	}
	return res
}

const qualityPrompt = `You are a support quality reviewer. Grade how the agent handled this ticket.
Score each dimension from 0 to 10:
completeness, clarity, empathy, proactiveness, technical_accuracy, customer_focus.

Ticket title: %s
Ticket description: %s
Category: %s
Customer review: %s

Respond with JSON only, in this shape:
{"completeness": 0, "clarity": 0, "empathy": 0, "proactiveness": 0, "technical_accuracy": 0, "customer_focus": 0, "strengths": [""], "improvements": [""], "grade": "A-F", "feedback": ""}`

// FallbackQualityAssessment is the neutral assessment used whenever grading fails.
func FallbackQualityAssessment() models.QualityAssessment {
	return models.QualityAssessment{
		Completeness:      6,
		Clarity:           6,
		Empathy:           6,
		Proactiveness:     6,
		TechnicalAccuracy: 6,
		CustomerFocus:     6,
		Strengths:         []string{"Responded to the customer request"},
		Improvements:      []string{"Provide more detailed and personalized solutions"},
		Grade:             "C",
		Feedback:          "Automated quality assessment unavailable; neutral scores applied.",
	}
}

// QualityAssessment grades one ticket. It never fails.
func (s *SolutionSynthesizer) QualityAssessment(ctx context.Context, t models.Ticket, review string) models.QualityAssessment {
	key := "quality:" + t.ID + ":" + utils.HashKey(t.Title, t.Description, t.Category, review)
	if raw, ok := s.Cache.Get(ctx, key); ok {
		var qa models.QualityAssessment
		if err := json.Unmarshal(raw, &qa); err == nil {
			return qa
		}
	}

	if review == "" {
		review = "none"
	}
	out, err := s.AI.Complete(ctx, "quality_assessment", fmt.Sprintf(qualityPrompt, t.Title, t.Description, t.Category, review))
	if err != nil {
		s.Logger.Warn().Err(err).Str("ticket_id", t.ID).Msg("quality assessment failed, using neutral scores")
		s.Metrics.ObserveFallback("quality_assessment")
		return FallbackQualityAssessment()
	}
	qa, ok := ParseQualityAssessment(out)
	if !ok {
		s.Logger.Warn().Str("ticket_id", t.ID).Msg("quality assessment unparseable, using neutral scores")
		s.Metrics.ObserveFallback("quality_assessment")
		return FallbackQualityAssessment()
	}
	if b, err := json.Marshal(qa); err == nil {
		s.Cache.Set(ctx, key, b, qualityCacheTTL)
	}
	return qa
}

// ParseQualityAssessment extracts the first JSON object in text. Scores are
// clamped to 0..10.
func ParseQualityAssessment(text string) (models.QualityAssessment, bool) {
	obj, ok := extractJSONObject(text)
	if !ok {
		return models.QualityAssessment{}, false
	}
	var raw struct {
		Completeness      *float64 `json:"completeness"`
		Clarity           *float64 `json:"clarity"`
		Empathy           *float64 `json:"empathy"`
		Proactiveness     *float64 `json:"proactiveness"`
		TechnicalAccuracy *float64 `json:"technical_accuracy"`
		CustomerFocus     *float64 `json:"customer_focus"`
		Strengths         []string `json:"strengths"`
		Improvements      []string `json:"improvements"`
		Grade             string   `json:"grade"`
		Feedback          string   `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return models.QualityAssessment{}, false
	}
	scores := []*float64{raw.Completeness, raw.Clarity, raw.Empathy, raw.Proactiveness, raw.TechnicalAccuracy, raw.CustomerFocus}
	for _, s := range scores {
		if s == nil {
			return models.QualityAssessment{}, false
		}
	}
	grade := strings.TrimSpace(raw.Grade)
	if grade == "" {
		grade = "C"
	}
	return models.QualityAssessment{
		Completeness:      clampScore(*raw.Completeness),
		Clarity:           clampScore(*raw.Clarity),
		Empathy:           clampScore(*raw.Empathy),
		Proactiveness:     clampScore(*raw.Proactiveness),
		TechnicalAccuracy: clampScore(*raw.TechnicalAccuracy),
		CustomerFocus:     clampScore(*raw.CustomerFocus),
		Strengths:         nonEmpty(raw.Strengths),
		Improvements:      nonEmpty(raw.Improvements),
		Grade:             grade,
		Feedback:          strings.TrimSpace(raw.Feedback),
	}, true
}

func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func clampScore(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 10:
		return 10
	default:
		return int(v + 0.5)
	}
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}
