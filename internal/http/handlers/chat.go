package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-ai/triage-backend/internal/conversation"
	"github.com/helpdesk-ai/triage-backend/internal/models"
)

type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Question  string `json:"question" validate:"required"`
}

// @Summary Ask the support assistant
// @Tags chat
// @Accept json
// @Produce json
// @Param request body ChatRequest true "question"
// @Success 200 {object} service.ChatResult
// @Failure 400 {object} map[string]any
// @Router /api/chat [post]
func (h *Handler) ChatAsk(c *gin.Context) {
	var req ChatRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.Chat.Ask(c.Request.Context(), req.SessionID, req.Question)
	if err != nil {
		h.writeServiceError(c, err, "Session not found")
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Conversation summary
// @Description Store errors are logged and yield an empty history
// @Tags chat
// @Produce json
// @Param sessionId path string true "session id"
// @Success 200 {object} conversation.Summary
// @Router /api/chat/{sessionId} [get]
func (h *Handler) ChatSummary(c *gin.Context) {
	sessionID := c.Param("sessionId")
	sum, err := h.Conversation.Summarize(c.Request.Context(), sessionID)
	if err != nil {
		h.Logger.Warn().Err(err).Str("session_id", sessionID).Msg("conversation summary unavailable")
		sum = conversation.Summary{SessionID: sessionID, History: []models.ConversationEntry{}}
	}
	c.JSON(http.StatusOK, sum)
}

// @Summary Clear a conversation
// @Tags chat
// @Produce json
// @Param sessionId path string true "session id"
// @Success 200 {object} map[string]any
// @Router /api/chat/{sessionId} [delete]
func (h *Handler) ChatClear(c *gin.Context) {
	sessionID := c.Param("sessionId")
	removed, err := h.Conversation.Clear(c.Request.Context(), sessionID)
	if err != nil {
		h.Logger.Warn().Err(err).Str("session_id", sessionID).Msg("conversation clear failed")
		removed = false
	}
	c.JSON(http.StatusOK, gin.H{"cleared": removed})
}

// @Summary Hand the chat off to a live agent
// @Tags chat
// @Produce json
// @Success 200 {object} models.ChatAgent
// @Failure 404 {object} map[string]any
// @Router /api/chat/handoff [post]
func (h *Handler) ChatHandoff(c *gin.Context) {
	agent, err := h.Handoff.Handoff(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "No chat agent online")
		return
	}
	c.JSON(http.StatusOK, agent)
}
