// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// ProcessTurnRequest represents the request body for one inbound message.
type ProcessTurnRequest struct {
	UserID      string `json:"userId" binding:"required"`
	UserPhone   string `json:"userPhone"`
	UserName    string `json:"userName"`
	Text        string `json:"text" binding:"required,min=1,max=4096"`
	MessageType string `json:"messageType"`
}

// TimeoutNotificationRequest represents the request body for delivering
// the idle-timeout notice to a session.
type TimeoutNotificationRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}
