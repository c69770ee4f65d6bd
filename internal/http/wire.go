package httpapi

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/helpdesk-ai/triage-backend/internal/ai"
	"github.com/helpdesk-ai/triage-backend/internal/cache"
	"github.com/helpdesk-ai/triage-backend/internal/config"
	"github.com/helpdesk-ai/triage-backend/internal/conversation"
	"github.com/helpdesk-ai/triage-backend/internal/db"
	"github.com/helpdesk-ai/triage-backend/internal/http/handlers"
	"github.com/helpdesk-ai/triage-backend/internal/knowledge"
	"github.com/helpdesk-ai/triage-backend/internal/metrics"
	"github.com/helpdesk-ai/triage-backend/internal/service"
)

// Deps are the long-lived collaborators the handlers are built from.
type Deps struct {
	Store        db.Repository
	AI           *ai.Client
	Knowledge    *knowledge.Retriever
	Conversation conversation.Store
	Cache        *cache.Cache
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
}

func NewHandler(cfg config.Config, d Deps) *handlers.Handler {
	classifier := &service.Classifier{AI: d.AI, Metrics: d.Metrics, Logger: d.Logger}
	solutions := &service.SolutionSynthesizer{
		AI:         d.AI,
		Cases:      d.Store,
		Knowledge:  d.Knowledge,
		KnowledgeK: cfg.KnowledgeTopK,
		Cache:      d.Cache,
		Metrics:    d.Metrics,
		Logger:     d.Logger,
	}

	return &handlers.Handler{
		Store: d.Store,
		Triage: &service.TriageService{
			Classifier: classifier,
			Solutions:  solutions,
			Assigner:   &service.ResourceAssigner{Technicians: d.Store},
			Cases:      d.Store,
			Store:      d.Store,
			Metrics:    d.Metrics,
			Logger:     d.Logger,
			Now:        time.Now,
		},
		Chat: &service.ChatAssistant{
			AI:           d.AI,
			Knowledge:    d.Knowledge,
			Conversation: d.Conversation,
			KnowledgeK:   cfg.KnowledgeTopK,
			ContextSize:  cfg.ConversationContextSize,
			Metrics:      d.Metrics,
			Logger:       d.Logger,
		},
		Conversation: d.Conversation,
		Handoff:      &service.HandoffService{Agents: d.Store},
		Performance: &service.PerformanceService{
			Tickets:    d.Store,
			Aggregator: &service.Aggregator{Quality: solutions, Concurrency: cfg.QualityConcurrency},
			Coaching:   &service.CoachingEngine{AI: d.AI, Metrics: d.Metrics, Logger: d.Logger},
			Logger:     d.Logger,
		},
		Knowledge: d.Knowledge,
		Validator: validator.New(),
		Logger:    d.Logger,
	}
}
