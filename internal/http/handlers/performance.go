package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Agent performance and coaching
// @Tags performance
// @Produce json
// @Param agentId path string true "agent id"
// @Success 200 {object} service.AgentPerformance
// @Failure 404 {object} map[string]any
// @Router /api/performance/agents/{agentId} [get]
func (h *Handler) AgentPerformance(c *gin.Context) {
	res, err := h.Performance.AgentPerformance(c.Request.Context(), c.Param("agentId"))
	if err != nil {
		h.writeServiceError(c, err, "Agent has no tickets")
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Team performance rollup
// @Tags performance
// @Produce json
// @Param team path string true "team name"
// @Success 200 {object} service.TeamPerformance
// @Failure 404 {object} map[string]any
// @Router /api/performance/teams/{team} [get]
func (h *Handler) TeamPerformance(c *gin.Context) {
	res, err := h.Performance.TeamPerformance(c.Request.Context(), c.Param("team"))
	if err != nil {
		h.writeServiceError(c, err, "Team has no tickets")
		return
	}
	c.JSON(http.StatusOK, res)
}
