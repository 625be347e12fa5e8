// Package models contains domain models for the dialogue service.
package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the lifecycle status of a session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusEscalated SessionStatus = "escalated"
	StatusTimeout   SessionStatus = "timeout"
)

// FlowState represents one stage of the conversation state machine.
type FlowState string

const (
	FlowGreeting       FlowState = "greeting"
	FlowIdentification FlowState = "identification"
	FlowPolicyInquiry  FlowState = "policy_inquiry"
	FlowBilling        FlowState = "billing"
	FlowPayment        FlowState = "payment"
	FlowEscalation     FlowState = "escalation"
	FlowCompleted      FlowState = "completed"
)

// validFlows is the closed set of declared stages.
var validFlows = map[FlowState]bool{
	FlowGreeting:       true,
	FlowIdentification: true,
	FlowPolicyInquiry:  true,
	FlowBilling:        true,
	FlowPayment:        true,
	FlowEscalation:     true,
	FlowCompleted:      true,
}

// Valid reports whether the flow state is one of the declared stages.
func (f FlowState) Valid() bool {
	return validFlows[f]
}

// MessageOrigin identifies which party produced a conversation entry.
type MessageOrigin string

const (
	OriginUser   MessageOrigin = "user"
	OriginSystem MessageOrigin = "system"
)

// ConversationEntry is one message record in the session history.
type ConversationEntry struct {
	Timestamp time.Time              `json:"timestamp" bson:"timestamp"`
	Origin    MessageOrigin          `json:"origin" bson:"origin"`
	Text      string                 `json:"text" bson:"text"`
	Type      string                 `json:"type" bson:"type"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// CustomerData holds the verified identity attached to a session once
// identification succeeds.
type CustomerData struct {
	PolicyNumber string `json:"policyNumber,omitempty" bson:"policyNumber,omitempty"`
	TaxID        string `json:"taxId,omitempty" bson:"taxId,omitempty"`
	CustomerName string `json:"customerName,omitempty" bson:"customerName,omitempty"`
	Verified     bool   `json:"verified" bson:"verified"`
}

// SessionContext is the free-form side channel for flow bookkeeping.
type SessionContext struct {
	LastPolicyCheck    *time.Time `json:"lastPolicyCheck,omitempty" bson:"lastPolicyCheck,omitempty"`
	LastBillingInquiry *time.Time `json:"lastBillingInquiry,omitempty" bson:"lastBillingInquiry,omitempty"`
	PendingActions     []string   `json:"pendingActions,omitempty" bson:"pendingActions,omitempty"`
	EscalationReason   string     `json:"escalationReason,omitempty" bson:"escalationReason,omitempty"`
}

// SessionAnalytics holds per-session counters.
type SessionAnalytics struct {
	StartTime          time.Time  `json:"startTime" bson:"startTime"`
	EndTime            *time.Time `json:"endTime,omitempty" bson:"endTime,omitempty"`
	TotalMessages      int        `json:"totalMessages" bson:"totalMessages"`
	SystemResponses    int        `json:"systemResponses" bson:"systemResponses"`
	EscalationAttempts int        `json:"escalationAttempts" bson:"escalationAttempts"`
	CompletionReason   string     `json:"completionReason,omitempty" bson:"completionReason,omitempty"`
}

// Session is the mutable record of one ongoing conversation with one user.
type Session struct {
	SessionID   string              `json:"sessionId" bson:"sessionId"`
	UserID      string              `json:"userId" bson:"userId"`
	UserPhone   string              `json:"userPhone" bson:"userPhone"`
	UserName    string              `json:"userName" bson:"userName"`
	Status      SessionStatus       `json:"status" bson:"status"`
	CurrentFlow FlowState           `json:"currentFlow" bson:"currentFlow"`
	Customer    *CustomerData       `json:"customerData,omitempty" bson:"customerData,omitempty"`
	History     []ConversationEntry `json:"conversationHistory" bson:"conversationHistory"`
	Context     SessionContext      `json:"context" bson:"context"`
	Analytics   SessionAnalytics    `json:"analytics" bson:"analytics"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt" bson:"updatedAt"`
	ExpiresAt   time.Time           `json:"expiresAt" bson:"expiresAt"`
}

// NewSession creates a new active session in the greeting stage.
func NewSession(userID, userPhone, userName string, idleTimeout time.Duration) *Session {
	now := time.Now().UTC()
	if userName == "" {
		userName = "Cliente"
	}
	return &Session{
		SessionID:   uuid.NewString(),
		UserID:      userID,
		UserPhone:   userPhone,
		UserName:    userName,
		Status:      StatusActive,
		CurrentFlow: FlowGreeting,
		History:     []ConversationEntry{},
		Analytics:   SessionAnalytics{StartTime: now},
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(idleTimeout),
	}
}

// IsExpired reports whether the session passed its idle deadline.
func (s *Session) IsExpired() bool {
	return time.Now().UTC().After(s.ExpiresAt)
}

// IsTerminal reports whether the session reached a terminal status.
// Terminal sessions may still receive messages for audit, but their
// stage can no longer advance.
func (s *Session) IsTerminal() bool {
	switch s.Status {
	case StatusCompleted, StatusEscalated, StatusTimeout:
		return true
	}
	return false
}

// AppendEntry appends a message record, enforcing the history cap by
// dropping the oldest entries, and bumps the analytics counters.
func (s *Session) AppendEntry(entry ConversationEntry, cap int) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.Type == "" {
		entry.Type = "text"
	}
	s.History = append(s.History, entry)
	if cap > 0 && len(s.History) > cap {
		s.History = s.History[len(s.History)-cap:]
	}
	s.Analytics.TotalMessages++
	if entry.Origin == OriginSystem {
		s.Analytics.SystemResponses++
	}
}

// MergeCustomerData shallow-merges non-empty fields into the session's
// customer record.
func (s *Session) MergeCustomerData(data CustomerData) {
	if s.Customer == nil {
		s.Customer = &CustomerData{}
	}
	if data.PolicyNumber != "" {
		s.Customer.PolicyNumber = data.PolicyNumber
	}
	if data.TaxID != "" {
		s.Customer.TaxID = data.TaxID
	}
	if data.CustomerName != "" {
		s.Customer.CustomerName = data.CustomerName
	}
	if data.Verified {
		s.Customer.Verified = true
	}
}

// RecentHistory returns the last n history entries.
func (s *Session) RecentHistory(n int) []ConversationEntry {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// Duration returns how long the session has been running, or ran.
func (s *Session) Duration() time.Duration {
	if s.Analytics.EndTime != nil {
		return s.Analytics.EndTime.Sub(s.Analytics.StartTime)
	}
	return time.Since(s.Analytics.StartTime)
}
