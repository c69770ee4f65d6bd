package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/helpdesk-ai/triage-backend/internal/config"
	"github.com/helpdesk-ai/triage-backend/internal/http/handlers"
	"github.com/helpdesk-ai/triage-backend/internal/http/middleware"
	"github.com/helpdesk-ai/triage-backend/internal/metrics"

	_ "github.com/helpdesk-ai/triage-backend/docs"
)

// Router wires routes onto h. gatherer serves /metrics and may be nil.
func Router(cfg config.Config, h *handlers.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(h.Logger, m))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.AdminKeyHeader, middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" || cfg.CORSAllowed == "" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", h.Healthz)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		api.POST("/triage", h.TriageTicket)
		api.GET("/runs/latest", h.RunsLatest)

		api.POST("/chat", h.ChatAsk)
		api.POST("/chat/handoff", h.ChatHandoff)
		api.GET("/chat/:sessionId", h.ChatSummary)
		api.DELETE("/chat/:sessionId", h.ChatClear)

		api.GET("/performance/agents/:agentId", h.AgentPerformance)
		api.GET("/performance/teams/:team", h.TeamPerformance)

		api.GET("/cases", h.CasesList)
		api.GET("/technicians", h.TechniciansList)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/import", h.Import)
		admin.POST("/triage/run", h.RunTriage)
		admin.POST("/cases", h.CreateCase)
		admin.PATCH("/technicians/:name/availability", h.SetAvailability)
		admin.POST("/knowledge", h.IngestKnowledge)
		admin.GET("/debug/eligibility", h.DebugEligibility)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
