package dto

import (
	"github.com/billyagent/dialogue-service/internal/domain/models"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// ProcessTurnResponse represents the reply for one processed turn.
type ProcessTurnResponse struct {
	Response       string                 `json:"response"`
	SessionID      string                 `json:"sessionId"`
	CurrentFlow    string                 `json:"currentFlow"`
	ShouldEscalate bool                   `json:"shouldEscalate"`
	ShouldComplete bool                   `json:"shouldComplete"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// HistoryResponse represents a session history window.
type HistoryResponse struct {
	SessionID string                     `json:"sessionId"`
	Entries   []models.ConversationEntry `json:"entries"`
	Count     int                        `json:"count"`
}
