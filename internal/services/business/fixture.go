package business

import (
	"context"
	"strings"
	"time"

	"github.com/billyagent/dialogue-service/internal/domain/models"
)

// Fixture is a Directory returning deterministic sample data. It backs
// demo deployments and tests; production wiring supplies the
// repository-backed directory instead.
type Fixture struct {
	customers []models.Customer
}

// NewFixture creates a fixture directory with a small sample book.
func NewFixture() *Fixture {
	due := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	next := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	return &Fixture{
		customers: []models.Customer{
			{
				CustomerID: "cust-0001",
				Name:       "Maria Oliveira",
				TaxID:      "12345678901",
				Phone:      "+5511999990001",
				Policies: []models.Policy{
					{
						PolicyNumber: "123456789",
						PolicyType:   "auto",
						Status:       models.PolicyActive,
						Premium:      380.00,
						NextDueDate:  &due,
					},
				},
			},
			{
				CustomerID: "cust-0002",
				Name:       "Comercial Andrade LTDA",
				TaxID:      "12345678000190",
				Phone:      "+5511999990002",
				Policies: []models.Policy{
					{
						PolicyNumber: "987654321",
						PolicyType:   "business",
						Status:       models.PolicyActive,
						Premium:      1250.00,
						NextDueDate:  &next,
					},
				},
			},
		},
	}
}

// FindByTaxID retrieves a sample customer by tax identifier.
func (f *Fixture) FindByTaxID(ctx context.Context, taxID string) (*models.Customer, error) {
	for i := range f.customers {
		if f.customers[i].TaxID == taxID {
			return &f.customers[i], nil
		}
	}
	return nil, nil
}

// FindByPolicyNumber retrieves a sample customer by policy number.
func (f *Fixture) FindByPolicyNumber(ctx context.Context, policyNumber string) (*models.Customer, error) {
	for i := range f.customers {
		for _, p := range f.customers[i].Policies {
			if strings.EqualFold(p.PolicyNumber, policyNumber) {
				return &f.customers[i], nil
			}
		}
	}
	return nil, nil
}

// BillingStatus returns the fixed sample snapshot: one overdue invoice
// plus the upcoming one.
func (f *Fixture) BillingStatus(ctx context.Context, customer *models.CustomerData) (*BillingStatus, error) {
	return &BillingStatus{
		HasOverdue:    true,
		OverdueAmount: 450.00,
		DueDate:       "2024-01-15",
		NextAmount:    380.00,
		NextDueDate:   "2024-02-15",
		Installments: []Installment{
			{Count: 2, Amount: 225.00, InterestPct: 0},
			{Count: 3, Amount: 155.00, InterestPct: 2},
			{Count: 4, Amount: 120.00, InterestPct: 3},
		},
	}, nil
}
