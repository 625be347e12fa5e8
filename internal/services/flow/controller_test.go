package flow_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billyagent/dialogue-service/internal/config"
	"github.com/billyagent/dialogue-service/internal/domain/models"
	"github.com/billyagent/dialogue-service/internal/services/business"
	"github.com/billyagent/dialogue-service/internal/services/flow"
	"github.com/billyagent/dialogue-service/internal/services/persona"
)

// stubDirectory is a canned business.Directory for flow tests.
type stubDirectory struct {
	customer  *models.Customer
	lookupErr error
	status    *business.BillingStatus
	statusErr error
}

func (d *stubDirectory) FindByTaxID(ctx context.Context, taxID string) (*models.Customer, error) {
	return d.customer, d.lookupErr
}

func (d *stubDirectory) FindByPolicyNumber(ctx context.Context, policyNumber string) (*models.Customer, error) {
	return d.customer, d.lookupErr
}

func (d *stubDirectory) BillingStatus(ctx context.Context, customer *models.CustomerData) (*business.BillingStatus, error) {
	return d.status, d.statusErr
}

func testPersona() *persona.Persona {
	return persona.New(config.PersonaConfig{
		AgentName: "Billy, Agente X",
		Company:   "Seguradora X",
		Tone:      "profissional, cordial e assertivo",
		Greeting:  "Olá, sou Billy, seu agente de atendimento X. Em que posso ajudar hoje?",
		Farewell:  "Foi um prazer atendê-lo! Tenha um ótimo dia e conte sempre conosco.",
	})
}

func newController(directory business.Directory) *flow.Controller {
	return flow.NewController(testPersona(), directory, zerolog.Nop())
}

func sessionAt(state models.FlowState) *models.Session {
	sess := models.NewSession("user-1", "+5511999990000", "Maria", 0)
	sess.CurrentFlow = state
	return sess
}

func TestGreeting_MovesToIdentification(t *testing.T) {
	c := newController(&stubDirectory{})

	result := c.Process(context.Background(), sessionAt(models.FlowGreeting), "oi")

	assert.Equal(t, models.FlowIdentification, result.NextFlow)
	assert.Contains(t, result.Response, "Olá, sou Billy")
	assert.False(t, result.ShouldEscalate)
}

func TestGreeting_EscalationKeyword(t *testing.T) {
	c := newController(&stubDirectory{})

	result := c.Process(context.Background(), sessionAt(models.FlowGreeting), "quero falar com um humano")

	assert.True(t, result.ShouldEscalate)
	assert.Equal(t, models.FlowEscalation, result.NextFlow)
	assert.Equal(t, "solicitação do cliente", result.EscalationReason)
}

func TestGreeting_CarriesEarlyIdentification(t *testing.T) {
	c := newController(&stubDirectory{})

	result := c.Process(context.Background(), sessionAt(models.FlowGreeting), "oi, meu cpf é 12345678901")

	assert.Equal(t, models.FlowIdentification, result.NextFlow)
	require.NotNil(t, result.Extracted)
	assert.Equal(t, "12345678901", result.Extracted.TaxID)
}

func TestIdentification_NoTokensReprompts(t *testing.T) {
	c := newController(&stubDirectory{})

	result := c.Process(context.Background(), sessionAt(models.FlowIdentification), "não sei meu número")

	assert.Equal(t, models.FlowIdentification, result.NextFlow)
	assert.Contains(t, result.Response, "Não consegui identificar")
}

func TestIdentification_VerifiesCustomer(t *testing.T) {
	c := newController(&stubDirectory{
		customer: &models.Customer{
			Name:  "Maria Oliveira",
			TaxID: "12345678901",
			Policies: []models.Policy{
				{PolicyNumber: "123456789", Status: "active"},
			},
		},
	})

	result := c.Process(context.Background(), sessionAt(models.FlowIdentification), "12345678901")

	assert.Equal(t, models.FlowPolicyInquiry, result.NextFlow)
	require.NotNil(t, result.VerifiedCustomer)
	assert.True(t, result.VerifiedCustomer.Verified)
	assert.Equal(t, "Maria Oliveira", result.VerifiedCustomer.CustomerName)
	assert.Equal(t, "12345678901", result.VerifiedCustomer.TaxID)
}

func TestIdentification_UnknownCustomerStays(t *testing.T) {
	c := newController(&stubDirectory{customer: nil})

	result := c.Process(context.Background(), sessionAt(models.FlowIdentification), "99999999999")

	assert.Equal(t, models.FlowIdentification, result.NextFlow)
	assert.Nil(t, result.VerifiedCustomer)
	assert.Contains(t, result.Response, "Não consegui localizar")
}

func TestIdentification_LookupFailureStays(t *testing.T) {
	c := newController(&stubDirectory{lookupErr: assert.AnError})

	result := c.Process(context.Background(), sessionAt(models.FlowIdentification), "12345678901")

	assert.Equal(t, models.FlowIdentification, result.NextFlow)
	assert.False(t, result.ShouldEscalate)
	assert.Nil(t, result.VerifiedCustomer)
}

func TestPolicyInquiry_OverdueMovesToBilling(t *testing.T) {
	c := newController(&stubDirectory{
		status: &business.BillingStatus{
			HasOverdue:    true,
			OverdueAmount: 450.00,
			DueDate:       "15/01/2024",
			NextAmount:    380.00,
			NextDueDate:   "15/02/2024",
		},
	})

	result := c.Process(context.Background(), sessionAt(models.FlowPolicyInquiry), "ok")

	assert.Equal(t, models.FlowBilling, result.NextFlow)
	assert.Equal(t, "billing_status", result.Action)
	assert.Contains(t, result.Response, "FATURA EM ATRASO")
	assert.Contains(t, result.Response, "450.00")
}

func TestPolicyInquiry_UpToDateCompletes(t *testing.T) {
	c := newController(&stubDirectory{
		status: &business.BillingStatus{
			HasOverdue:  false,
			NextAmount:  380.00,
			NextDueDate: "15/02/2024",
		},
	})

	result := c.Process(context.Background(), sessionAt(models.FlowPolicyInquiry), "ok")

	assert.Equal(t, models.FlowCompleted, result.NextFlow)
	assert.Contains(t, result.Response, "em dia")
}

func TestPolicyInquiry_QueryFailureEscalates(t *testing.T) {
	c := newController(&stubDirectory{statusErr: assert.AnError})

	result := c.Process(context.Background(), sessionAt(models.FlowPolicyInquiry), "ok")

	assert.True(t, result.ShouldEscalate)
	assert.Equal(t, models.FlowEscalation, result.NextFlow)
}

func TestBilling_Boleto(t *testing.T) {
	c := newController(&stubDirectory{})

	result := c.Process(context.Background(), sessionAt(models.FlowBilling), "quero o boleto")

	assert.Equal(t, models.FlowPayment, result.NextFlow)
	assert.Equal(t, "generate_boleto", result.Action)
}

func TestBilling_Pix(t *testing.T) {
	c := newController(&stubDirectory{})

	result := c.Process(context.Background(), sessionAt(models.FlowBilling), "prefiro pix")

	assert.Equal(t, models.FlowPayment, result.NextFlow)
	assert.Equal(t, "generate_pix", result.Action)
}

func TestBilling_Installments(t *testing.T) {
	c := newController(&stubDirectory{
		status: &business.BillingStatus{
			Installments: []business.Installment{
				{Count: 2, Amount: 225.00},
				{Count: 3, Amount: 155.00, InterestPct: 2},
			},
		},
	})

	result := c.Process(context.Background(), sessionAt(models.FlowBilling), "quero parcelar")

	assert.Equal(t, models.FlowPayment, result.NextFlow)
	assert.Equal(t, "installment_options", result.Action)
	assert.Contains(t, result.Response, "2x de R$ 225.00")
	assert.Contains(t, result.Response, "juros 2%")
}

func TestBilling_InstallmentLookupFailureReprompts(t *testing.T) {
	c := newController(&stubDirectory{statusErr: assert.AnError})

	result := c.Process(context.Background(), sessionAt(models.FlowBilling), "quero parcelar")

	assert.Equal(t, models.FlowBilling, result.NextFlow)
	assert.Empty(t, result.Action)
}

func TestBilling_HumanEscalates(t *testing.T) {
	c := newController(&stubDirectory{})

	result := c.Process(context.Background(), sessionAt(models.FlowBilling), "quero falar com atendente")

	assert.True(t, result.ShouldEscalate)
	assert.Equal(t, models.FlowEscalation, result.NextFlow)
}

func TestBilling_UnknownChoiceReprompts(t *testing.T) {
	c := newController(&stubDirectory{})

	result := c.Process(context.Background(), sessionAt(models.FlowBilling), "tanto faz")

	assert.Equal(t, models.FlowBilling, result.NextFlow)
	assert.Contains(t, result.Response, "opções")
}

func TestPayment_InstallmentConfirmed(t *testing.T) {
	c := newController(&stubDirectory{})

	result := c.Process(context.Background(), sessionAt(models.FlowPayment), "2x por favor")

	assert.Equal(t, models.FlowCompleted, result.NextFlow)
	assert.Equal(t, "installment_confirmed", result.Action)
}

func TestPayment_DefaultConfirmed(t *testing.T) {
	c := newController(&stubDirectory{})

	result := c.Process(context.Background(), sessionAt(models.FlowPayment), "ok, paguei")

	assert.Equal(t, models.FlowCompleted, result.NextFlow)
	assert.Equal(t, "payment_confirmed", result.Action)
}

func TestEscalation_IsSticky(t *testing.T) {
	c := newController(&stubDirectory{})

	result := c.Process(context.Background(), sessionAt(models.FlowEscalation), "alguém aí?")

	assert.True(t, result.ShouldEscalate)
	assert.Equal(t, models.FlowEscalation, result.NextFlow)
}

func TestCompleted_ClosureEndsSession(t *testing.T) {
	c := newController(&stubDirectory{})

	result := c.Process(context.Background(), sessionAt(models.FlowCompleted), "não, obrigada")

	assert.True(t, result.ShouldComplete)
	assert.Contains(t, result.Response, "prazer")
}

func TestCompleted_NewRequestLoopsToGreeting(t *testing.T) {
	c := newController(&stubDirectory{})

	result := c.Process(context.Background(), sessionAt(models.FlowCompleted), "sim, tenho outra dúvida")

	assert.Equal(t, models.FlowGreeting, result.NextFlow)
	assert.False(t, result.ShouldComplete)
}

func TestUnknownFlow_EscalatesSafely(t *testing.T) {
	c := newController(&stubDirectory{})

	result := c.Process(context.Background(), sessionAt(models.FlowState("warp")), "oi")

	assert.True(t, result.ShouldEscalate)
	assert.Equal(t, models.FlowEscalation, result.NextFlow)
}
