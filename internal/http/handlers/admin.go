package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-ai/triage-backend/internal/models"
)

const (
	minReviewRating = 0
	maxReviewRating = 5
)

type CaseRequest struct {
	Problem       string `json:"problem" validate:"required"`
	Solution      string `json:"solution" validate:"required"`
	RequiresHuman bool   `json:"requires_human"`
}

type AvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

type ImportRequest struct {
	Tickets     []models.Ticket            `json:"tickets"`
	Utilization []models.UtilizationRecord `json:"utilization"`
	Technicians []models.Technician        `json:"technicians"`
	ChatAgents  []models.ChatAgent         `json:"chat_agents"`
}

type ImportCount struct {
	Parsed   int   `json:"parsed"`
	Inserted int64 `json:"inserted"`
	Errors   int   `json:"errors"`
}

type ImportSummary struct {
	Tickets     ImportCount `json:"tickets"`
	Utilization ImportCount `json:"utilization"`
	Technicians ImportCount `json:"technicians"`
	ChatAgents  ImportCount `json:"chat_agents"`
	Errors      []string    `json:"errors"`
}

type KnowledgeRequest struct {
	Passages []models.KnowledgePassage `json:"passages" validate:"required,min=1"`
}

// @Summary Record a resolved case
// @Tags cases
// @Accept json
// @Produce json
// @Param request body CaseRequest true "case"
// @Success 201 {object} models.TicketCase
// @Failure 400 {object} map[string]any
// @Router /api/cases [post]
func (h *Handler) CreateCase(c *gin.Context) {
	var req CaseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Problem) == "" || strings.TrimSpace(req.Solution) == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "problem and solution must not be blank", nil)
		return
	}
	created, err := h.Store.InsertCase(c.Request.Context(), models.TicketCase{
		Problem:       strings.TrimSpace(req.Problem),
		Solution:      strings.TrimSpace(req.Solution),
		RequiresHuman: req.RequiresHuman,
	})
	if err != nil {
		h.writeServiceError(c, err, "Not found")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary List resolved cases
// @Tags cases
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/cases [get]
func (h *Handler) CasesList(c *gin.Context) {
	cases, err := h.Store.ListCases(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "Not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": cases, "total": len(cases)})
}

// @Summary List technicians
// @Tags technicians
// @Produce json
// @Success 200 {array} models.Technician
// @Router /api/technicians [get]
func (h *Handler) TechniciansList(c *gin.Context) {
	roster, err := h.Store.ListTechnicians(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "Not found")
		return
	}
	c.JSON(http.StatusOK, roster)
}

// @Summary Toggle technician availability
// @Tags technicians
// @Accept json
// @Produce json
// @Param name path string true "technician name"
// @Param request body AvailabilityRequest true "availability"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/technicians/{name}/availability [patch]
func (h *Handler) SetAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	name := c.Param("name")
	if err := h.Store.SetTechnicianAvailability(c.Request.Context(), name, *req.Available); err != nil {
		h.writeServiceError(c, err, "Technician not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "available": *req.Available})
}

// @Summary Import operational data
// @Description Bulk load tickets, utilization records, technicians and chat agents
// @Tags admin
// @Accept json
// @Produce json
// @Param request body ImportRequest true "records"
// @Success 200 {object} ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	var req ImportRequest
	if !h.bindJSON(c, &req) {
		return
	}

	summary := ImportSummary{Errors: []string{}}
	check := func(count *ImportCount, kind string, n int, invalid func(i int) string) {
		count.Parsed = n
		for i := 0; i < n; i++ {
			if reason := invalid(i); reason != "" {
				count.Errors++
				summary.Errors = append(summary.Errors, fmt.Sprintf("%s row %d: %s", kind, i+1, reason))
			}
		}
	}
	check(&summary.Tickets, "tickets", len(req.Tickets), func(i int) string {
		if strings.TrimSpace(req.Tickets[i].ID) == "" {
			return "id required"
		}
		return ""
	})
	check(&summary.Utilization, "utilization", len(req.Utilization), func(i int) string {
		u := req.Utilization[i]
		if strings.TrimSpace(u.TicketID) == "" {
			return "ticket_id required"
		}
		if u.ReviewRating != nil && (*u.ReviewRating < minReviewRating || *u.ReviewRating > maxReviewRating) {
			return fmt.Sprintf("review_rating %g out of range %d-%d", *u.ReviewRating, minReviewRating, maxReviewRating)
		}
		return ""
	})
	check(&summary.Technicians, "technicians", len(req.Technicians), func(i int) string {
		if strings.TrimSpace(req.Technicians[i].Name) == "" {
			return "name required"
		}
		return ""
	})
	check(&summary.ChatAgents, "chat_agents", len(req.ChatAgents), func(i int) string {
		if strings.TrimSpace(req.ChatAgents[i].ID) == "" {
			return "id required"
		}
		return ""
	})
	if len(summary.Errors) > 0 {
		writeError(c, http.StatusBadRequest, "IMPORT_VALIDATION_ERROR", "Import validation errors", summary.Errors)
		return
	}

	ctx := c.Request.Context()
	var err error
	if summary.Tickets.Inserted, err = h.Store.InsertTickets(ctx, req.Tickets); err != nil {
		h.importFailed(c, "tickets", err)
		return
	}
	if summary.Utilization.Inserted, err = h.Store.InsertUtilization(ctx, req.Utilization); err != nil {
		h.importFailed(c, "utilization", err)
		return
	}
	if summary.Technicians.Inserted, err = h.Store.InsertTechnicians(ctx, req.Technicians); err != nil {
		h.importFailed(c, "technicians", err)
		return
	}
	if summary.ChatAgents.Inserted, err = h.Store.InsertChatAgents(ctx, req.ChatAgents); err != nil {
		h.importFailed(c, "chat_agents", err)
		return
	}

	h.Logger.Info().
		Int64("tickets", summary.Tickets.Inserted).
		Int64("utilization", summary.Utilization.Inserted).
		Int64("technicians", summary.Technicians.Inserted).
		Int64("chat_agents", summary.ChatAgents.Inserted).
		Msg("import finished")
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) importFailed(c *gin.Context, kind string, err error) {
	h.Logger.Error().Err(err).Str("kind", kind).Msg("import failed")
	writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert "+kind, err.Error())
}

// @Summary Ingest knowledge passages
// @Tags knowledge
// @Accept json
// @Produce json
// @Param request body KnowledgeRequest true "passages"
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /api/knowledge [post]
func (h *Handler) IngestKnowledge(c *gin.Context) {
	var req KnowledgeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	added, err := h.Knowledge.Ingest(c.Request.Context(), req.Passages)
	if err != nil {
		h.Logger.Warn().Err(err).Int("added", added).Msg("knowledge ingest incomplete")
		writeError(c, http.StatusServiceUnavailable, "KNOWLEDGE_UNAVAILABLE", "Knowledge ingest failed", gin.H{"added": added, "reason": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}
