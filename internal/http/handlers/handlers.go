package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/helpdesk-ai/triage-backend/internal/conversation"
	"github.com/helpdesk-ai/triage-backend/internal/db"
	"github.com/helpdesk-ai/triage-backend/internal/knowledge"
	"github.com/helpdesk-ai/triage-backend/internal/service"
)

type Handler struct {
	Store        db.Repository
	Triage       *service.TriageService
	Chat         *service.ChatAssistant
	Conversation conversation.Store
	Handoff      *service.HandoffService
	Performance  *service.PerformanceService
	Knowledge    *knowledge.Retriever
	Validator    *validator.Validate
	Logger       zerolog.Logger
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bindJSON decodes and validates the request body, writing the error response
// itself when it returns false.
func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return false
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return false
	}
	return true
}

// writeServiceError maps service and storage errors onto the HTTP envelope.
func (h *Handler) writeServiceError(c *gin.Context, err error, notFoundMsg string) {
	var verr service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", verr.Error())
	case errors.Is(err, service.ErrNotFound), db.IsNotFound(err):
		writeError(c, http.StatusNotFound, "NOT_FOUND", notFoundMsg, nil)
	default:
		h.Logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Storage error", err.Error())
	}
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
