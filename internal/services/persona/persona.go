// Package persona produces all user-facing template text for the virtual
// agent: greetings, farewells, per-flow guidance and error messages.
// It is stateless given its configuration.
package persona

import (
	"fmt"

	"github.com/billyagent/dialogue-service/internal/config"
	"github.com/billyagent/dialogue-service/internal/domain/models"
)

// ErrorKind identifies a templated error message.
type ErrorKind string

const (
	ErrIdentificationNotFound ErrorKind = "identification_not_found"
	ErrInvalidIdentifier      ErrorKind = "invalid_identifier"
	ErrSystemError            ErrorKind = "system_error"
	ErrTimeout                ErrorKind = "timeout"
	ErrUnknownCommand         ErrorKind = "unknown_command"
)

// Persona renders templated replies for the configured agent identity.
type Persona struct {
	cfg config.PersonaConfig
}

// New creates a Persona from configuration.
func New(cfg config.PersonaConfig) *Persona {
	return &Persona{cfg: cfg}
}

// AgentName returns the configured agent display name.
func (p *Persona) AgentName() string {
	return p.cfg.AgentName
}

// Greeting returns the configured greeting text.
func (p *Persona) Greeting() string {
	return p.cfg.Greeting
}

// Farewell returns the configured farewell text.
func (p *Persona) Farewell() string {
	return p.cfg.Farewell
}

// SystemPrompt returns the long-form persona description used as context
// for the generative rewrite step. Never shown to the end user.
func (p *Persona) SystemPrompt() string {
	return fmt.Sprintf(`Você é %s, um agente virtual de atendimento ao cliente especializado em seguros e cobrança de apólices da %s.

PERSONALIDADE E TOM:
- Seja sempre %s
- Mantenha um tom profissional mas acolhedor
- Seja direto e objetivo, mas empático
- Use linguagem clara e acessível

SUAS RESPONSABILIDADES:
1. Atendimento ao cliente com foco em cobrança de apólices
2. Identificação e verificação de clientes
3. Consulta de status de apólices e faturas
4. Geração de boletos e links de pagamento
5. Negociação de parcelamentos quando apropriado
6. Escalonamento para atendimento humano quando necessário

DIRETRIZES IMPORTANTES:
- SEMPRE confirme ações antes de executá-las
- NUNCA invente informações sobre apólices ou pagamentos
- Se não souber algo, seja honesto e ofereça escalonamento
- Se o cliente digitar "HUMANO" ou "ATENDENTE", escalone imediatamente
- Destaque informações importantes com *asteriscos*
- Termine sempre perguntando se pode ajudar em mais alguma coisa`,
		p.cfg.AgentName, p.cfg.Company, p.cfg.Tone)
}

// flowGuidance holds one short contextual-guidance fragment per stage,
// used only as rewrite context.
var flowGuidance = map[models.FlowState]string{
	models.FlowGreeting: `Você está na fase de SAUDAÇÃO.
- Se apresente
- Seja caloroso mas profissional
- Pergunte como pode ajudar`,

	models.FlowIdentification: `Você está na fase de IDENTIFICAÇÃO.
- Solicite número da apólice OU CPF/CNPJ
- Explique que precisa dessas informações para localizar a conta
- Seja paciente se o cliente não tiver as informações em mãos`,

	models.FlowPolicyInquiry: `Você está na fase de CONSULTA DE APÓLICE.
- Apresente as informações da apólice de forma clara
- Destaque status de pagamento
- Identifique se há pendências`,

	models.FlowBilling: `Você está na fase de COBRANÇA.
- Apresente valores e datas de vencimento
- Ofereça opções de pagamento`,

	models.FlowPayment: `Você está na fase de PAGAMENTO.
- Confirme o método de pagamento escolhido
- Confirme o recebimento das informações pelo cliente`,

	models.FlowEscalation: `Você está na fase de ESCALONAMENTO.
- Explique que vai transferir para um atendente humano
- Tranquilize o cliente sobre a continuidade do atendimento`,

	models.FlowCompleted: `Você está FINALIZANDO o atendimento.
- Resuma as ações realizadas
- Se despeça cordialmente`,
}

// FlowGuidance returns the contextual-guidance fragment for a stage.
func (p *Persona) FlowGuidance(flow models.FlowState) string {
	return flowGuidance[flow]
}

var errorMessages = map[ErrorKind]string{
	ErrIdentificationNotFound: "Não consegui localizar uma apólice com essas informações. Poderia verificar os dados e tentar novamente?",
	ErrInvalidIdentifier:      "O CPF/CNPJ informado não parece estar correto. Poderia verificar e informar novamente?",
	ErrSystemError:            "Estou enfrentando uma dificuldade técnica no momento. Gostaria que eu transferisse você para um atendente humano?",
	ErrTimeout:                "Percebi que você ficou um tempo sem responder. Ainda posso ajudá-lo com alguma coisa?",
	ErrUnknownCommand:         "Não entendi sua solicitação. Poderia reformular ou me dizer como posso ajudá-lo?",
}

// ErrorMessage returns the templated error text for a kind. Unknown kinds
// fall back to the unknown-command message.
func (p *Persona) ErrorMessage(kind ErrorKind) string {
	if msg, ok := errorMessages[kind]; ok {
		return msg
	}
	return errorMessages[ErrUnknownCommand]
}

// PaymentOptions returns the fixed payment-options menu.
func (p *Persona) PaymentOptions() string {
	return `Posso ajudá-lo com as seguintes opções de pagamento:

💳 *Gerar novo boleto*
📱 *Link para pagamento via PIX*
💰 *Parcelamento da fatura*
📞 *Falar com atendente humano*

Qual opção você prefere?`
}

// EscalationNotice returns the parameterized escalation notice.
func (p *Persona) EscalationNotice(reason string) string {
	if reason == "" {
		reason = "solicitação do cliente"
	}
	return fmt.Sprintf(`Entendi! Vou transferir você para um de nossos atendentes humanos.

*Motivo:* %s

Um atendente especializado entrará em contato em breve. Enquanto isso, mantenha esta conversa aberta.

Obrigado pela paciência! 😊`, reason)
}

// HelpText returns the reserved-command help menu.
func (p *Persona) HelpText() string {
	return fmt.Sprintf(`🤖 *%s - Menu de Ajuda*

📋 *Comandos disponíveis:*
/status - Ver status da sessão
/restart - Reiniciar conversa
/human - Falar com atendente

💡 *Como posso ajudar:*
• Consultar apólices
• Gerar boletos
• Parcelar faturas
• Tirar dúvidas sobre pagamentos

Digite sua dúvida ou informe seu CPF/CNPJ para começar!`, p.cfg.AgentName)
}
