package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/billyagent/dialogue-service/internal/api/dto"
	"github.com/billyagent/dialogue-service/internal/api/middleware"
	domainerrors "github.com/billyagent/dialogue-service/internal/domain/errors"
	"github.com/billyagent/dialogue-service/internal/services/dialogue"
)

const defaultHistoryLimit = 20

// SessionsHandler handles session inspection endpoints.
type SessionsHandler struct {
	orchestrator *dialogue.Orchestrator
}

// NewSessionsHandler creates a new SessionsHandler.
func NewSessionsHandler(orchestrator *dialogue.Orchestrator) *SessionsHandler {
	return &SessionsHandler{orchestrator: orchestrator}
}

// GetSummary handles GET /sessions/:sessionId/summary.
// @Summary Session handoff summary
// @Description Returns the session state, analytics and recent history for human handoff
// @Tags Sessions
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} dialogue.Summary "Session summary"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{sessionId}/summary [get]
func (s *SessionsHandler) GetSummary(c *gin.Context) {
	summary, err := s.orchestrator.SessionSummary(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetHistory handles GET /sessions/:sessionId/history.
// @Summary Session history window
// @Description Returns the last N entries of the session conversation history
// @Tags Sessions
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param limit query int false "Window size" default(20)
// @Success 200 {object} dto.HistoryResponse "History window"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{sessionId}/history [get]
func (s *SessionsHandler) GetHistory(c *gin.Context) {
	sessionID := c.Param("sessionId")

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			middleware.HandleError(c, domainerrors.NewValidationError("invalid limit", raw))
			return
		}
		limit = parsed
	}

	entries, err := s.orchestrator.History(c.Request.Context(), sessionID, limit)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.HistoryResponse{
		SessionID: sessionID,
		Entries:   entries,
		Count:     len(entries),
	})
}
