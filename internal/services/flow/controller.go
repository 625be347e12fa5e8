// Package flow implements the conversation state machine. One handler
// per stage maps the session and inbound text to a reply, a next stage
// and control flags. Handlers never mutate the session; extracted data
// and side effects travel in the Result for the orchestrator to apply
// through the session store.
package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/billyagent/dialogue-service/internal/domain/models"
	"github.com/billyagent/dialogue-service/internal/services/business"
	"github.com/billyagent/dialogue-service/internal/services/identify"
	"github.com/billyagent/dialogue-service/internal/services/persona"
)

// Result is the outcome of one flow step.
type Result struct {
	Response         string
	NextFlow         models.FlowState
	ShouldEscalate   bool
	ShouldComplete   bool
	EscalationReason string
	Action           string
	Extracted        *identify.Extraction
	VerifiedCustomer *models.CustomerData
}

// handlerFunc processes one inbound message for a single stage.
type handlerFunc func(ctx context.Context, session *models.Session, text string) *Result

// branch is one (predicate, outcome) pair of a keyword dispatch table.
// Branches are evaluated in order; the first match wins.
type branch struct {
	keywords []string
	handle   handlerFunc
}

// escalationKeywords trigger an immediate human handoff when contained
// in the message.
var escalationKeywords = []string{"humano", "atendente", "pessoa", "operador", "supervisor"}

// closureKeywords signal the user is done in the completed stage.
var closureKeywords = []string{"não", "nao", "obrigad"}

// Controller drives the conversation state machine.
type Controller struct {
	persona   *persona.Persona
	directory business.Directory
	logger    zerolog.Logger
	handlers  map[models.FlowState]handlerFunc
}

// NewController creates a flow controller.
func NewController(p *persona.Persona, directory business.Directory, logger zerolog.Logger) *Controller {
	c := &Controller{
		persona:   p,
		directory: directory,
		logger:    logger.With().Str("component", "flow").Logger(),
	}
	c.handlers = map[models.FlowState]handlerFunc{
		models.FlowGreeting:       c.handleGreeting,
		models.FlowIdentification: c.handleIdentification,
		models.FlowPolicyInquiry:  c.handlePolicyInquiry,
		models.FlowBilling:        c.handleBilling,
		models.FlowPayment:        c.handlePayment,
		models.FlowEscalation:     c.handleEscalation,
		models.FlowCompleted:      c.handleCompleted,
	}
	return c
}

// Process runs the handler for the session's current stage. An
// unrecognized stage routes to the escalation fallback.
func (c *Controller) Process(ctx context.Context, session *models.Session, text string) *Result {
	handler, ok := c.handlers[session.CurrentFlow]
	if !ok {
		c.logger.Error().
			Str("session_id", session.SessionID).
			Str("flow", string(session.CurrentFlow)).
			Msg("unknown flow state")
		return c.handleUnknownFlow(ctx, session, text)
	}

	c.logger.Debug().
		Str("session_id", session.SessionID).
		Str("flow", string(session.CurrentFlow)).
		Msg("processing message")
	return handler(ctx, session, text)
}

func (c *Controller) handleGreeting(ctx context.Context, session *models.Session, text string) *Result {
	lower := strings.ToLower(text)

	if containsAny(lower, escalationKeywords) {
		return &Result{
			Response:         c.persona.EscalationNotice("solicitação do cliente"),
			NextFlow:         models.FlowEscalation,
			ShouldEscalate:   true,
			EscalationReason: "solicitação do cliente",
		}
	}

	if identify.HasIdentification(text) {
		extracted := identify.Extract(text)
		return &Result{
			Response: c.persona.Greeting() + "\n\nVi que você já informou alguns dados. Vou verificar suas informações...",
			NextFlow: models.FlowIdentification,
			Extracted: &extracted,
		}
	}

	return &Result{
		Response: c.persona.Greeting() + `

Para que eu possa ajudá-lo, preciso de algumas informações:

📋 *Número da apólice* OU
🆔 *CPF/CNPJ*

Poderia me informar um desses dados?`,
		NextFlow: models.FlowIdentification,
	}
}

func (c *Controller) handleIdentification(ctx context.Context, session *models.Session, text string) *Result {
	extracted := identify.Extract(text)

	if extracted.Empty() {
		return &Result{
			Response: `Não consegui identificar um número de apólice ou CPF/CNPJ válido na sua mensagem.

Poderia informar:
📋 *Número da apólice* (ex: 123456789)
OU
🆔 *CPF/CNPJ* (apenas números)`,
			NextFlow: models.FlowIdentification,
		}
	}

	var customer *models.Customer
	var err error
	if extracted.TaxID != "" {
		customer, err = c.directory.FindByTaxID(ctx, extracted.TaxID)
	} else {
		customer, err = c.directory.FindByPolicyNumber(ctx, extracted.PolicyNumber)
	}
	if err != nil {
		// Lookup failure is recoverable by re-entry; keep the user in
		// the identification stage.
		c.logger.Error().Err(err).
			Str("session_id", session.SessionID).
			Msg("customer lookup failed")
		return &Result{
			Response:  c.persona.ErrorMessage(persona.ErrIdentificationNotFound),
			NextFlow:  models.FlowIdentification,
			Extracted: &extracted,
		}
	}
	if customer == nil {
		return &Result{
			Response:  c.persona.ErrorMessage(persona.ErrIdentificationNotFound),
			NextFlow:  models.FlowIdentification,
			Extracted: &extracted,
		}
	}

	return &Result{
		Response: fmt.Sprintf(`Perfeito! Localizei sua conta:

👤 *%s*
📋 *Apólices ativas:* %d

Vou verificar o status das suas faturas...`, customer.Name, len(customer.ActivePolicies())),
		NextFlow:  models.FlowPolicyInquiry,
		Extracted: &extracted,
		VerifiedCustomer: &models.CustomerData{
			PolicyNumber: extracted.PolicyNumber,
			TaxID:        customer.TaxID,
			CustomerName: customer.Name,
			Verified:     true,
		},
	}
}

func (c *Controller) handlePolicyInquiry(ctx context.Context, session *models.Session, text string) *Result {
	status, err := c.directory.BillingStatus(ctx, session.Customer)
	if err != nil {
		c.logger.Error().Err(err).
			Str("session_id", session.SessionID).
			Msg("billing status query failed")
		return &Result{
			Response:         c.persona.ErrorMessage(persona.ErrSystemError),
			NextFlow:         models.FlowEscalation,
			ShouldEscalate:   true,
			EscalationReason: "falha na consulta de apólices",
		}
	}

	if status.HasOverdue {
		return &Result{
			Response: fmt.Sprintf(`📊 *Status das suas apólices:*

⚠️ *FATURA EM ATRASO*
💰 Valor: R$ %.2f
📅 Vencimento: %s

📋 *Próxima fatura:*
💰 Valor: R$ %.2f
📅 Vencimento: %s

%s`, status.OverdueAmount, status.DueDate, status.NextAmount, status.NextDueDate, c.persona.PaymentOptions()),
			NextFlow: models.FlowBilling,
			Action:   "billing_status",
		}
	}

	return &Result{
		Response: fmt.Sprintf(`✅ *Suas apólices estão em dia!*

📋 *Próxima fatura:*
💰 Valor: R$ %.2f
📅 Vencimento: %s

Posso ajudá-lo com mais alguma coisa?`, status.NextAmount, status.NextDueDate),
		NextFlow: models.FlowCompleted,
	}
}

func (c *Controller) handleBilling(ctx context.Context, session *models.Session, text string) *Result {
	lower := strings.ToLower(text)

	// Ordering matters: phrases can satisfy several keywords and the
	// first matching branch wins.
	branches := []branch{
		{keywords: []string{"boleto", "gerar"}, handle: c.billingBoleto},
		{keywords: []string{"pix"}, handle: c.billingPix},
		{keywords: []string{"parcel", "dividir"}, handle: c.billingInstallments},
		{keywords: []string{"humano", "atendente"}, handle: c.billingEscalate},
	}

	for _, b := range branches {
		if containsAny(lower, b.keywords) {
			return b.handle(ctx, session, text)
		}
	}

	return &Result{
		Response: "Não entendi sua escolha. Poderia selecionar uma das opções:\n\n" + c.persona.PaymentOptions(),
		NextFlow: models.FlowBilling,
	}
}

func (c *Controller) billingBoleto(ctx context.Context, session *models.Session, text string) *Result {
	return &Result{
		Response: `📄 *Gerando seu boleto...*

Em instantes você receberá o link para pagamento.

✅ Boleto gerado com sucesso!
🔗 Link: https://pagamento.exemplo.com/boleto/123456

O boleto também foi enviado por email.

Posso ajudá-lo com mais alguma coisa?`,
		NextFlow: models.FlowPayment,
		Action:   "generate_boleto",
	}
}

func (c *Controller) billingPix(ctx context.Context, session *models.Session, text string) *Result {
	return &Result{
		Response: `📱 *Gerando link PIX...*

✅ Link PIX gerado!
🔗 https://pagamento.exemplo.com/pix/123456

O pagamento via PIX é processado instantaneamente.

Posso ajudá-lo com mais alguma coisa?`,
		NextFlow: models.FlowPayment,
		Action:   "generate_pix",
	}
}

func (c *Controller) billingInstallments(ctx context.Context, session *models.Session, text string) *Result {
	status, err := c.directory.BillingStatus(ctx, session.Customer)
	if err != nil || len(status.Installments) == 0 {
		if err != nil {
			c.logger.Error().Err(err).
				Str("session_id", session.SessionID).
				Msg("installment lookup failed")
		}
		return &Result{
			Response: "Não consegui montar as opções de parcelamento agora. Poderia escolher outra opção?\n\n" + c.persona.PaymentOptions(),
			NextFlow: models.FlowBilling,
		}
	}

	var sb strings.Builder
	sb.WriteString("💳 *Opções de parcelamento:*\n\n")
	for _, opt := range status.Installments {
		if opt.InterestPct == 0 {
			sb.WriteString(fmt.Sprintf("%dx de R$ %.2f (sem juros)\n", opt.Count, opt.Amount))
		} else {
			sb.WriteString(fmt.Sprintf("%dx de R$ %.2f (juros %.0f%%)\n", opt.Count, opt.Amount, opt.InterestPct))
		}
	}
	sb.WriteString("\nQual opção você prefere?")

	return &Result{
		Response: sb.String(),
		NextFlow: models.FlowPayment,
		Action:   "installment_options",
	}
}

func (c *Controller) billingEscalate(ctx context.Context, session *models.Session, text string) *Result {
	return &Result{
		Response:         c.persona.EscalationNotice("solicitação de atendimento humano"),
		NextFlow:         models.FlowEscalation,
		ShouldEscalate:   true,
		EscalationReason: "solicitação de atendimento humano",
	}
}

func (c *Controller) handlePayment(ctx context.Context, session *models.Session, text string) *Result {
	lower := strings.ToLower(text)

	if containsAny(lower, []string{"2x", "duas"}) {
		return &Result{
			Response: `✅ *Parcelamento confirmado!*

💳 2x sem juros
📄 Os boletos foram gerados e enviados por email.

Sua situação foi regularizada! Posso ajudá-lo com mais alguma coisa?`,
			NextFlow: models.FlowCompleted,
			Action:   "installment_confirmed",
		}
	}

	// No real gateway call: any other reply is treated as payment
	// confirmed, per the stubbed business behavior.
	return &Result{
		Response: `✅ *Pagamento processado com sucesso!*

Sua apólice está regularizada. Você receberá uma confirmação por email em breve.

Obrigado por manter sua apólice em dia! Posso ajudá-lo com mais alguma coisa?`,
		NextFlow: models.FlowCompleted,
		Action:   "payment_confirmed",
	}
}

func (c *Controller) handleEscalation(ctx context.Context, session *models.Session, text string) *Result {
	// Sticky state: every message re-signals the handoff until a human
	// takes over.
	return &Result{
		Response: `👥 *Transferindo para atendente humano...*

Um de nossos especialistas entrará em contato em breve. Mantenha esta conversa aberta.

Tempo estimado de espera: 5-10 minutos.

Obrigado pela paciência!`,
		NextFlow:         models.FlowEscalation,
		ShouldEscalate:   true,
		EscalationReason: "Transferido para atendimento humano",
	}
}

func (c *Controller) handleCompleted(ctx context.Context, session *models.Session, text string) *Result {
	lower := strings.ToLower(text)

	if containsAny(lower, closureKeywords) {
		return &Result{
			Response:       c.persona.Farewell(),
			NextFlow:       models.FlowCompleted,
			ShouldComplete: true,
		}
	}

	// Anything else is a new request: loop back to the start.
	return &Result{
		Response: `Claro! Como posso ajudá-lo?

Precisa de:
📋 Consultar outra apólice
💰 Gerar novo boleto
📞 Falar com atendente

Ou me diga como posso ajudar.`,
		NextFlow: models.FlowGreeting,
	}
}

func (c *Controller) handleUnknownFlow(ctx context.Context, session *models.Session, text string) *Result {
	return &Result{
		Response:         c.persona.ErrorMessage(persona.ErrSystemError),
		NextFlow:         models.FlowEscalation,
		ShouldEscalate:   true,
		EscalationReason: "estado de conversa desconhecido",
	}
}

// containsAny reports whether the lowercased text contains any of the
// keywords.
func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
