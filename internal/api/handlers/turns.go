package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billyagent/dialogue-service/internal/api/dto"
	"github.com/billyagent/dialogue-service/internal/api/middleware"
	domainerrors "github.com/billyagent/dialogue-service/internal/domain/errors"
	"github.com/billyagent/dialogue-service/internal/services/dialogue"
)

// TurnsHandler handles conversation-turn endpoints.
type TurnsHandler struct {
	orchestrator *dialogue.Orchestrator
}

// NewTurnsHandler creates a new TurnsHandler.
func NewTurnsHandler(orchestrator *dialogue.Orchestrator) *TurnsHandler {
	return &TurnsHandler{orchestrator: orchestrator}
}

// ProcessTurn handles POST /turns.
// @Summary Process a conversation turn
// @Description Processes one inbound user message and returns the agent reply
// @Tags Turns
// @Accept json
// @Produce json
// @Param request body dto.ProcessTurnRequest true "Inbound message"
// @Success 200 {object} dto.ProcessTurnResponse "Agent reply"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Router /turns [post]
func (t *TurnsHandler) ProcessTurn(c *gin.Context) {
	var req dto.ProcessTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	result := t.orchestrator.Process(c.Request.Context(), &dialogue.TurnRequest{
		UserID:      req.UserID,
		UserPhone:   req.UserPhone,
		UserName:    req.UserName,
		Text:        req.Text,
		MessageType: req.MessageType,
	})

	c.JSON(http.StatusOK, dto.ProcessTurnResponse{
		Response:       result.Response,
		SessionID:      result.SessionID,
		CurrentFlow:    string(result.CurrentFlow),
		ShouldEscalate: result.ShouldEscalate,
		ShouldComplete: result.ShouldComplete,
		Metadata:       result.Metadata,
	})
}

// NotifyTimeout handles POST /turns/timeout.
// @Summary Deliver the idle-timeout notice
// @Description Appends the idle-timeout notice to a session and returns it
// @Tags Turns
// @Accept json
// @Produce json
// @Param request body dto.TimeoutNotificationRequest true "Target session"
// @Success 200 {object} dto.ProcessTurnResponse "Timeout notice"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /turns/timeout [post]
func (t *TurnsHandler) NotifyTimeout(c *gin.Context) {
	var req dto.TimeoutNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	result, err := t.orchestrator.NotifyTimeout(c.Request.Context(), req.SessionID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ProcessTurnResponse{
		Response:    result.Response,
		SessionID:   result.SessionID,
		CurrentFlow: string(result.CurrentFlow),
		Metadata:    result.Metadata,
	})
}
