package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/billyagent/dialogue-service/internal/domain/models"
)

// handleCommand intercepts reserved commands before flow dispatch.
// Returns nil when the text is not a command.
func (o *Orchestrator) handleCommand(ctx context.Context, sess *models.Session, req *TurnRequest) (*TurnResult, error) {
	switch normalizeCommand(req.Text) {
	case "help":
		return &TurnResult{
			Response:    o.persona.HelpText(),
			SessionID:   sess.SessionID,
			CurrentFlow: sess.CurrentFlow,
		}, nil
	case "status":
		return o.statusCommand(ctx, sess)
	case "restart":
		return o.restartCommand(ctx, sess, req)
	case "human":
		return o.humanCommand(ctx, sess)
	default:
		return nil, nil
	}
}

// normalizeCommand maps the raw text onto a command name. The set is
// closed: anything outside it falls through to the flow dispatch.
func normalizeCommand(text string) string {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "/help", "/menu", "help":
		return "help"
	case "/status":
		return "status"
	case "/restart", "restart":
		return "restart"
	case "/human", "human", "atendente":
		return "human"
	default:
		return ""
	}
}

// statusCommand reports the session analytics snapshot. It mutates
// nothing: repeated calls return the same stage and customer data.
func (o *Orchestrator) statusCommand(ctx context.Context, sess *models.Session) (*TurnResult, error) {
	snapshot, err := o.store.Analytics(ctx, sess.SessionID)
	if err != nil {
		return nil, err
	}

	response := fmt.Sprintf(`📊 *Status da Sessão*

🆔 Sessão: %s
🔄 Etapa atual: %s
📌 Status: %s
💬 Mensagens trocadas: %d
⏱️ Duração: %d minutos`,
		shortID(snapshot.SessionID),
		snapshot.CurrentFlow,
		snapshot.Status,
		snapshot.TotalMessages,
		int(snapshot.Duration.Minutes()))

	return &TurnResult{
		Response:    response,
		SessionID:   sess.SessionID,
		CurrentFlow: sess.CurrentFlow,
	}, nil
}

// restartCommand completes the current session and starts a fresh one
// already positioned at the identification stage.
func (o *Orchestrator) restartCommand(ctx context.Context, sess *models.Session, req *TurnRequest) (*TurnResult, error) {
	if _, err := o.store.Complete(ctx, sess.SessionID, "user_restart"); err != nil {
		return nil, err
	}

	fresh, err := o.store.GetOrCreate(ctx, req.UserID, req.UserPhone, req.UserName)
	if err != nil {
		return nil, err
	}
	fresh, err = o.store.AdvanceFlow(ctx, fresh.SessionID, models.FlowIdentification)
	if err != nil {
		return nil, err
	}

	response := fmt.Sprintf(`🔄 *Conversa reiniciada!*

%s

Para começar, me informe seu *CPF/CNPJ* ou *número da apólice*.`, o.persona.Greeting())

	return &TurnResult{
		Response:    response,
		SessionID:   fresh.SessionID,
		CurrentFlow: fresh.CurrentFlow,
	}, nil
}

// humanCommand escalates the session immediately.
func (o *Orchestrator) humanCommand(ctx context.Context, sess *models.Session) (*TurnResult, error) {
	if _, err := o.store.AdvanceFlow(ctx, sess.SessionID, models.FlowEscalation); err != nil {
		return nil, err
	}
	if _, err := o.store.Escalate(ctx, sess.SessionID, "solicitação direta do usuário"); err != nil {
		return nil, err
	}

	return &TurnResult{
		Response:       o.persona.EscalationNotice("solicitação direta do usuário"),
		SessionID:      sess.SessionID,
		CurrentFlow:    models.FlowEscalation,
		ShouldEscalate: true,
	}, nil
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
