// Package business defines the customer/business-data collaborator port.
//
// The dialogue engine never hardcodes business values: billing amounts,
// due dates and installment tables always come from a Directory
// implementation. Payment and installment confirmation remain stubbed
// behind this port.
package business

import (
	"context"

	"github.com/billyagent/dialogue-service/internal/domain/models"
)

// Installment is one option of a fixed installment table.
type Installment struct {
	Count       int     `json:"count"`
	Amount      float64 `json:"amount"`
	InterestPct float64 `json:"interestPct"`
}

// BillingStatus is the policy/billing snapshot presented to the user.
type BillingStatus struct {
	HasOverdue    bool          `json:"hasOverdue"`
	OverdueAmount float64       `json:"overdueAmount"`
	DueDate       string        `json:"dueDate"`
	NextAmount    float64       `json:"nextAmount"`
	NextDueDate   string        `json:"nextDueDate"`
	Installments  []Installment `json:"installments"`
}

// Directory is the lookup interface over customer and billing data.
// Lookups return (nil, nil) for absence — never an error.
type Directory interface {
	// FindByTaxID retrieves a customer by tax identifier.
	FindByTaxID(ctx context.Context, taxID string) (*models.Customer, error)

	// FindByPolicyNumber retrieves a customer holding the given policy.
	FindByPolicyNumber(ctx context.Context, policyNumber string) (*models.Customer, error)

	// BillingStatus queries the billing snapshot for a verified customer.
	BillingStatus(ctx context.Context, customer *models.CustomerData) (*BillingStatus, error)
}
