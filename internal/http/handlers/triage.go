package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-ai/triage-backend/internal/service"
)

// @Summary Triage a ticket
// @Description Classify, synthesize a solution and assign a technician
// @Tags triage
// @Accept json
// @Produce json
// @Param request body service.TriageRequest true "ticket"
// @Success 200 {object} service.TriageResult
// @Failure 400 {object} map[string]any
// @Router /api/triage [post]
func (h *Handler) TriageTicket(c *gin.Context) {
	var req service.TriageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.Triage.Triage(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err, "Not found")
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Run batch triage
// @Description Triage every stored ticket without an outcome and record the run
// @Tags runs
// @Produce json
// @Param debug query string false "include samples (1|true)"
// @Success 200 {object} service.RunSummary
// @Router /api/triage/run [post]
func (h *Handler) RunTriage(c *gin.Context) {
	runID, err := h.Store.CreateRun(c.Request.Context(), service.RunStatusRunning)
	if err != nil {
		h.Logger.Error().Err(err).Msg("failed to create run")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create run", err.Error())
		return
	}

	debug := c.Query("debug")
	summary, err := h.Triage.ProcessTickets(c.Request.Context(), debug == "1" || strings.EqualFold(debug, "true"))
	status := service.RunStatusSuccess
	if err != nil {
		status = service.RunStatusFailed
	}
	b, _ := json.Marshal(summary)
	if finishErr := h.Store.FinishRun(c.Request.Context(), runID, status, b); finishErr != nil {
		h.Logger.Error().Err(finishErr).Msg("failed to finish run")
	}

	if err != nil {
		h.Logger.Error().Err(err).Msg("batch triage failed")
		writeError(c, http.StatusInternalServerError, "PROCESSING_ERROR", "Processing failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": runID, "summary": summary})
}

// @Summary Latest run
// @Tags runs
// @Produce json
// @Success 200 {object} models.Run
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	run, err := h.Store.GetLatestRun(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "No runs found")
		return
	}
	c.JSON(http.StatusOK, run)
}

// @Summary Explain technician eligibility
// @Description Show each filtering stage for a category
// @Tags technicians
// @Produce json
// @Param category query string true "ticket category"
// @Success 200 {object} map[string]any
// @Router /api/debug/eligibility [get]
func (h *Handler) DebugEligibility(c *gin.Context) {
	category := strings.TrimSpace(c.Query("category"))
	if category == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "category is required", nil)
		return
	}
	roster, err := h.Store.ListTechnicians(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load technicians", err.Error())
		return
	}

	elig := service.FilterEligibleTechnicians(roster, category)
	stages := make([]gin.H, 0, len(elig.Stages))
	for _, st := range elig.Stages {
		names := make([]string, 0, len(st.Candidates))
		for _, t := range st.Candidates {
			names = append(names, t.Name)
		}
		stages = append(stages, gin.H{"name": st.Name, "count": len(names), "technicians": names})
	}
	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"stages":   stages,
		"final": gin.H{
			"assigned":    service.AssignTechnician(roster, category),
			"reason_code": elig.ReasonCode,
			"reason_text": elig.ReasonText,
		},
	})
}
