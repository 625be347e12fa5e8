// Package dialogue orchestrates one conversation turn: session
// resolution, reserved commands, flow dispatch, the optional generative
// rewrite and the resulting session side effects.
package dialogue

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/billyagent/dialogue-service/internal/domain/models"
	"github.com/billyagent/dialogue-service/internal/services/augment"
	"github.com/billyagent/dialogue-service/internal/services/flow"
	"github.com/billyagent/dialogue-service/internal/services/persona"
	"github.com/billyagent/dialogue-service/internal/services/session"
)

const (
	// DefaultAugmentTimeout bounds the generative rewrite call.
	DefaultAugmentTimeout = 15 * time.Second

	// rewriteHistoryWindow is how many recent history entries are sent
	// as rewrite context.
	rewriteHistoryWindow = 6
)

// TurnRequest is one inbound message from the transport.
type TurnRequest struct {
	UserID      string
	UserPhone   string
	UserName    string
	Text        string
	MessageType string
}

// TurnResult is the reply plus side-effect metadata for the transport.
type TurnResult struct {
	Response       string                 `json:"response"`
	SessionID      string                 `json:"sessionId"`
	CurrentFlow    models.FlowState       `json:"currentFlow"`
	ShouldEscalate bool                   `json:"shouldEscalate"`
	ShouldComplete bool                   `json:"shouldComplete"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// Config holds the orchestrator dependencies.
type Config struct {
	Store          *session.Store
	Flow           *flow.Controller
	Persona        *persona.Persona
	Rewriter       augment.Rewriter // nil disables augmentation
	AugmentTimeout time.Duration
	Logger         zerolog.Logger
}

// Orchestrator is the single entry point for processing a text turn.
type Orchestrator struct {
	store          *session.Store
	flow           *flow.Controller
	persona        *persona.Persona
	rewriter       augment.Rewriter
	augmentTimeout time.Duration
	logger         zerolog.Logger
}

// NewOrchestrator creates a dialogue orchestrator.
func NewOrchestrator(cfg *Config) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if cfg.Flow == nil {
		return nil, fmt.Errorf("flow controller is required")
	}
	if cfg.Persona == nil {
		return nil, fmt.Errorf("persona is required")
	}

	augmentTimeout := cfg.AugmentTimeout
	if augmentTimeout == 0 {
		augmentTimeout = DefaultAugmentTimeout
	}

	return &Orchestrator{
		store:          cfg.Store,
		flow:           cfg.Flow,
		persona:        cfg.Persona,
		rewriter:       cfg.Rewriter,
		augmentTimeout: augmentTimeout,
		logger:         cfg.Logger.With().Str("component", "dialogue").Logger(),
	}, nil
}

// Process handles one inbound message and always produces a reply.
// Internal failures collapse to the templated system-error reply with
// an escalation flag; they are never propagated to the transport.
func (o *Orchestrator) Process(ctx context.Context, req *TurnRequest) *TurnResult {
	if req.MessageType == "" {
		req.MessageType = "text"
	}

	// Turns for the same user are serialized; different users proceed
	// independently.
	unlock := o.store.LockUser(req.UserID)
	defer unlock()

	result, err := o.process(ctx, req)
	if err != nil {
		o.logger.Error().Err(err).
			Str("user_id", req.UserID).
			Msg("turn failed")
		return &TurnResult{
			Response:       o.persona.ErrorMessage(persona.ErrSystemError),
			ShouldEscalate: true,
		}
	}
	return result
}

func (o *Orchestrator) process(ctx context.Context, req *TurnRequest) (*TurnResult, error) {
	sess, err := o.store.GetOrCreate(ctx, req.UserID, req.UserPhone, req.UserName)
	if err != nil {
		return nil, err
	}

	sess, err = o.store.AppendMessage(ctx, sess.SessionID, models.OriginUser, req.Text, req.MessageType, nil)
	if err != nil {
		return nil, err
	}

	// Reserved commands bypass the flow controller for this turn.
	if cmdResult, err := o.handleCommand(ctx, sess, req); err != nil {
		return nil, err
	} else if cmdResult != nil {
		if _, err := o.store.AppendMessage(ctx, cmdResult.SessionID, models.OriginSystem, cmdResult.Response, "text", nil); err != nil {
			return nil, err
		}
		return cmdResult, nil
	}

	flowResult := o.flow.Process(ctx, sess, req.Text)

	if flowResult.VerifiedCustomer != nil {
		sess, err = o.store.MergeCustomerData(ctx, sess.SessionID, *flowResult.VerifiedCustomer)
		if err != nil {
			return nil, err
		}
	}

	finalResponse := o.augmentResponse(ctx, sess, req.Text, flowResult)

	currentFlow := sess.CurrentFlow
	if flowResult.NextFlow != "" && flowResult.NextFlow != sess.CurrentFlow {
		sess, err = o.store.AdvanceFlow(ctx, sess.SessionID, flowResult.NextFlow)
		if err != nil {
			return nil, err
		}
		currentFlow = sess.CurrentFlow
	}

	if flowResult.ShouldEscalate {
		reason := flowResult.EscalationReason
		if reason == "" {
			reason = "solicitação do cliente"
		}
		if sess, err = o.store.Escalate(ctx, sess.SessionID, reason); err != nil {
			return nil, err
		}
	}

	if flowResult.ShouldComplete {
		if sess, err = o.store.Complete(ctx, sess.SessionID, "completed_successfully"); err != nil {
			return nil, err
		}
	}

	if _, err := o.store.AppendMessage(ctx, sess.SessionID, models.OriginSystem, finalResponse, "text", nil); err != nil {
		return nil, err
	}

	o.logger.Info().
		Str("user_id", req.UserID).
		Str("session_id", sess.SessionID).
		Str("flow", string(currentFlow)).
		Bool("escalate", flowResult.ShouldEscalate).
		Msg("turn processed")

	return &TurnResult{
		Response:       finalResponse,
		SessionID:      sess.SessionID,
		CurrentFlow:    currentFlow,
		ShouldEscalate: flowResult.ShouldEscalate,
		ShouldComplete: flowResult.ShouldComplete,
		Metadata:       turnMetadata(flowResult),
	}, nil
}

// augmentResponse attempts the generative rewrite of the draft reply.
// Any failure falls back to the draft verbatim; the rewrite never
// influences stage transitions, escalation or completion.
func (o *Orchestrator) augmentResponse(ctx context.Context, sess *models.Session, userText string, flowResult *flow.Result) string {
	if o.rewriter == nil || flowResult.ShouldEscalate {
		return flowResult.Response
	}

	augmentCtx, cancel := context.WithTimeout(ctx, o.augmentTimeout)
	defer cancel()

	recent := sess.RecentHistory(rewriteHistoryWindow)
	history := make([]augment.Turn, 0, len(recent))
	for _, entry := range recent {
		role := "assistant"
		if entry.Origin == models.OriginUser {
			role = "user"
		}
		history = append(history, augment.Turn{Role: role, Content: entry.Text})
	}

	rewritten, err := o.rewriter.Rewrite(augmentCtx, &augment.Request{
		SystemPrompt: o.persona.SystemPrompt(),
		FlowGuidance: o.persona.FlowGuidance(sess.CurrentFlow),
		History:      history,
		UserMessage:  userText,
		Draft:        flowResult.Response,
	})
	if err != nil {
		o.logger.Warn().Err(err).
			Str("session_id", sess.SessionID).
			Msg("augmentation failed, using draft response")
		return flowResult.Response
	}
	return rewritten
}

// NotifyTimeout appends the idle-timeout notice to a session so the
// transport can deliver it.
func (o *Orchestrator) NotifyTimeout(ctx context.Context, sessionID string) (*TurnResult, error) {
	message := o.persona.ErrorMessage(persona.ErrTimeout)
	sess, err := o.store.AppendMessage(ctx, sessionID, models.OriginSystem, message, "text", nil)
	if err != nil {
		return nil, err
	}

	return &TurnResult{
		Response:    message,
		SessionID:   sess.SessionID,
		CurrentFlow: sess.CurrentFlow,
		Metadata:    map[string]interface{}{"timeout": true},
	}, nil
}

// Summary is the handoff view of a session for human agents.
type Summary struct {
	SessionID        string                      `json:"sessionId"`
	UserID           string                      `json:"userId"`
	UserName         string                      `json:"userName"`
	Status           models.SessionStatus        `json:"status"`
	CurrentFlow      models.FlowState            `json:"currentFlow"`
	Customer         *models.CustomerData        `json:"customerData,omitempty"`
	Analytics        *session.AnalyticsSnapshot  `json:"analytics"`
	RecentHistory    []models.ConversationEntry  `json:"recentHistory"`
	EscalationReason string                      `json:"escalationReason,omitempty"`
}

// SessionSummary builds the handoff summary for a session.
func (o *Orchestrator) SessionSummary(ctx context.Context, sessionID string) (*Summary, error) {
	sess, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	analytics, err := o.store.Analytics(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &Summary{
		SessionID:        sess.SessionID,
		UserID:           sess.UserID,
		UserName:         sess.UserName,
		Status:           sess.Status,
		CurrentFlow:      sess.CurrentFlow,
		Customer:         sess.Customer,
		Analytics:        analytics,
		RecentHistory:    sess.RecentHistory(10),
		EscalationReason: sess.Context.EscalationReason,
	}, nil
}

// History returns the last limit entries of a session's history.
func (o *Orchestrator) History(ctx context.Context, sessionID string, limit int) ([]models.ConversationEntry, error) {
	return o.store.HistoryWindow(ctx, sessionID, limit)
}

func turnMetadata(result *flow.Result) map[string]interface{} {
	metadata := map[string]interface{}{}
	if result.Action != "" {
		metadata["action"] = result.Action
	}
	if result.Extracted != nil && !result.Extracted.Empty() {
		metadata["extracted"] = result.Extracted
	}
	if result.EscalationReason != "" {
		metadata["escalationReason"] = result.EscalationReason
	}
	if len(metadata) == 0 {
		return nil
	}
	return metadata
}
