package business

import (
	"context"
	"fmt"
	"time"

	domainerrors "github.com/billyagent/dialogue-service/internal/domain/errors"
	"github.com/billyagent/dialogue-service/internal/domain/models"
	"github.com/billyagent/dialogue-service/internal/core/docdb"
)

// docdbDirectory is a Directory backed by the durable repository's
// customers collection. Billing status is derived from policy due dates.
type docdbDirectory struct {
	customers docdb.CustomersCollection
	timeout   time.Duration
}

// NewDirectory creates a repository-backed Directory.
func NewDirectory(customers docdb.CustomersCollection, timeout time.Duration) Directory {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &docdbDirectory{
		customers: customers,
		timeout:   timeout,
	}
}

// FindByTaxID retrieves a customer by tax identifier.
func (d *docdbDirectory) FindByTaxID(ctx context.Context, taxID string) (*models.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	customer, err := d.customers.FindByTaxID(ctx, taxID)
	if err != nil {
		return nil, domainerrors.NewBusinessLookupFailureError("find by tax id", err)
	}
	return customer, nil
}

// FindByPolicyNumber retrieves a customer holding the given policy.
func (d *docdbDirectory) FindByPolicyNumber(ctx context.Context, policyNumber string) (*models.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	customer, err := d.customers.FindByPolicyNumber(ctx, policyNumber)
	if err != nil {
		return nil, domainerrors.NewBusinessLookupFailureError("find by policy number", err)
	}
	return customer, nil
}

// BillingStatus derives the billing snapshot from the customer's active
// policies: a policy past its next due date counts as overdue.
func (d *docdbDirectory) BillingStatus(ctx context.Context, data *models.CustomerData) (*BillingStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var customer *models.Customer
	var err error
	switch {
	case data != nil && data.TaxID != "":
		customer, err = d.customers.FindByTaxID(ctx, data.TaxID)
	case data != nil && data.PolicyNumber != "":
		customer, err = d.customers.FindByPolicyNumber(ctx, data.PolicyNumber)
	default:
		return nil, domainerrors.NewBusinessLookupFailureError("billing status", fmt.Errorf("no customer identifier"))
	}
	if err != nil {
		return nil, domainerrors.NewBusinessLookupFailureError("billing status", err)
	}
	if customer == nil {
		return nil, domainerrors.NewBusinessLookupFailureError("billing status", fmt.Errorf("customer no longer present"))
	}

	status := &BillingStatus{}
	now := time.Now().UTC()

	for _, p := range customer.ActivePolicies() {
		if p.NextDueDate == nil {
			continue
		}
		if p.NextDueDate.Before(now) {
			if !status.HasOverdue || p.NextDueDate.Format("2006-01-02") < status.DueDate {
				status.DueDate = p.NextDueDate.Format("2006-01-02")
			}
			status.HasOverdue = true
			status.OverdueAmount += p.Premium
		} else if status.NextDueDate == "" || p.NextDueDate.Format("2006-01-02") < status.NextDueDate {
			status.NextDueDate = p.NextDueDate.Format("2006-01-02")
			status.NextAmount = p.Premium
		}
	}

	if status.HasOverdue {
		status.Installments = installmentTable(status.OverdueAmount)
	}
	return status, nil
}

// installmentTable is the fixed split offer over the overdue amount:
// two interest-free parts, then 2% and 3% surcharges.
func installmentTable(amount float64) []Installment {
	return []Installment{
		{Count: 2, Amount: round2(amount / 2), InterestPct: 0},
		{Count: 3, Amount: round2(amount * 1.02 / 3), InterestPct: 2},
		{Count: 4, Amount: round2(amount * 1.03 / 4), InterestPct: 3},
	}
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
