package models

import (
	"encoding/json"
	"time"
)

const (
	CategoryOrder     = "order"
	CategoryDelivery  = "delivery"
	CategoryTechnical = "technical"
	CategoryGeneral   = "general"

	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"

	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// TicketCase is a resolved case recorded by an agent. Cases are append-only.
type TicketCase struct {
	ID            string    `json:"id"`
	Problem       string    `json:"problem"`
	Solution      string    `json:"solution"`
	RequiresHuman bool      `json:"requires_human"`
	CreatedAt     time.Time `json:"created_at"`
}

type Ticket struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AgentID     string    `json:"agent_id"`
	Team        string    `json:"team"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
}

// UtilizationRecord holds the servicing timeline and review of one ticket.
type UtilizationRecord struct {
	TicketID     string     `json:"ticket_id"`
	SeenAt       *time.Time `json:"seen_at,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	ReviewRating *float64   `json:"review_rating,omitempty"`
	ReviewText   *string    `json:"review_text,omitempty"`
}

type QualityAssessment struct {
	Completeness      int      `json:"completeness"`
	Clarity           int      `json:"clarity"`
	Empathy           int      `json:"empathy"`
	Proactiveness     int      `json:"proactiveness"`
	TechnicalAccuracy int      `json:"technical_accuracy"`
	CustomerFocus     int      `json:"customer_focus"`
	Strengths         []string `json:"strengths"`
	Improvements      []string `json:"improvements"`
	Grade             string   `json:"grade"`
	Feedback          string   `json:"feedback"`
}

// Technician is a roster member eligible for ticket assignment by skill.
type Technician struct {
	Name      string   `json:"name"`
	Skills    []string `json:"skills"`
	Available bool     `json:"available"`
}

// ChatAgent is a live chat operator; hand-off picks by load, not by skill.
type ChatAgent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ActiveChats int    `json:"active_chats"`
	Online      bool   `json:"online"`
}

type ConversationEntry struct {
	Query    string    `json:"query"`
	Response string    `json:"response"`
	At       time.Time `json:"at"`
}

type KnowledgePassage struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Score    float64        `json:"score"`
}

type QualityMetrics struct {
	Completeness      float64 `json:"completeness"`
	Clarity           float64 `json:"clarity"`
	Empathy           float64 `json:"empathy"`
	Proactiveness     float64 `json:"proactiveness"`
	TechnicalAccuracy float64 `json:"technical_accuracy"`
	CustomerFocus     float64 `json:"customer_focus"`
}

type PerformanceSnapshot struct {
	AgentID                string         `json:"agent_id"`
	Team                   string         `json:"team,omitempty"`
	TotalTickets           int            `json:"total_tickets"`
	AvgHandlingTimeMinutes float64        `json:"avg_handling_time_minutes"`
	AvgCSAT                float64        `json:"avg_csat"`
	QualityMetrics         QualityMetrics `json:"quality_metrics"`
	QualityMean            float64        `json:"quality_mean"`
	CompositeScore         float64        `json:"composite_score"`
	CommonIssues           []string       `json:"common_issues"`
	Trend                  string         `json:"trend"`
}

type CoachingPlan struct {
	Strengths      []string `json:"strengths"`
	Improvements   []string `json:"improvements"`
	TrainingTopics []string `json:"training_topics"`
	ShortTermGoals []string `json:"short_term_goals"`
	LongTermPlan   []string `json:"long_term_plan"`
	Priority       string   `json:"priority"`
	FocusAreas     []string `json:"focus_areas"`
}

// Run records one batch triage pass.
type Run struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at"`
	Status     string          `json:"status"`
	Summary    json.RawMessage `json:"summary"`
}

// TriageOutcome is the persisted result of triaging a stored ticket.
type TriageOutcome struct {
	TicketID           string    `json:"ticket_id"`
	Category           string    `json:"category"`
	Priority           string    `json:"priority"`
	Summary            string    `json:"summary"`
	Solution           string    `json:"solution"`
	RequiresHuman      bool      `json:"requires_human"`
	Confidence         string    `json:"confidence"`
	AssignedTechnician string    `json:"assigned_technician"`
	TriagedAt          time.Time `json:"triaged_at"`
}
