package business_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/billyagent/dialogue-service/internal/domain/errors"
	"github.com/billyagent/dialogue-service/internal/domain/models"
	"github.com/billyagent/dialogue-service/internal/services/business"
)

// stubCustomers is a canned docdb.CustomersCollection.
type stubCustomers struct {
	customer *models.Customer
	err      error
}

func (s *stubCustomers) FindByTaxID(ctx context.Context, taxID string) (*models.Customer, error) {
	return s.customer, s.err
}

func (s *stubCustomers) FindByPolicyNumber(ctx context.Context, policyNumber string) (*models.Customer, error) {
	return s.customer, s.err
}

func TestDirectory_BillingStatus_Overdue(t *testing.T) {
	overdue := time.Now().UTC().Add(-10 * 24 * time.Hour)
	d := business.NewDirectory(&stubCustomers{
		customer: &models.Customer{
			Name:  "Maria Oliveira",
			TaxID: "12345678901",
			Policies: []models.Policy{
				{PolicyNumber: "123456789", Status: models.PolicyActive, Premium: 450.00, NextDueDate: &overdue},
			},
		},
	}, 0)

	status, err := d.BillingStatus(context.Background(), &models.CustomerData{TaxID: "12345678901"})
	require.NoError(t, err)

	assert.True(t, status.HasOverdue)
	assert.Equal(t, 450.00, status.OverdueAmount)
	require.Len(t, status.Installments, 3)
	assert.Equal(t, 225.00, status.Installments[0].Amount)
	assert.Equal(t, 2, status.Installments[0].Count)
	assert.Equal(t, 153.00, status.Installments[1].Amount)
	assert.Equal(t, float64(2), status.Installments[1].InterestPct)
}

func TestDirectory_BillingStatus_UpToDate(t *testing.T) {
	upcoming := time.Now().UTC().Add(20 * 24 * time.Hour)
	d := business.NewDirectory(&stubCustomers{
		customer: &models.Customer{
			TaxID: "12345678901",
			Policies: []models.Policy{
				{Status: models.PolicyActive, Premium: 380.00, NextDueDate: &upcoming},
			},
		},
	}, 0)

	status, err := d.BillingStatus(context.Background(), &models.CustomerData{TaxID: "12345678901"})
	require.NoError(t, err)

	assert.False(t, status.HasOverdue)
	assert.Equal(t, 380.00, status.NextAmount)
	assert.Empty(t, status.Installments)
}

func TestDirectory_BillingStatus_IgnoresInactivePolicies(t *testing.T) {
	overdue := time.Now().UTC().Add(-24 * time.Hour)
	d := business.NewDirectory(&stubCustomers{
		customer: &models.Customer{
			TaxID: "12345678901",
			Policies: []models.Policy{
				{Status: models.PolicyCancelled, Premium: 999.00, NextDueDate: &overdue},
			},
		},
	}, 0)

	status, err := d.BillingStatus(context.Background(), &models.CustomerData{TaxID: "12345678901"})
	require.NoError(t, err)

	assert.False(t, status.HasOverdue)
	assert.Zero(t, status.OverdueAmount)
}

func TestDirectory_BillingStatus_NoIdentifier(t *testing.T) {
	d := business.NewDirectory(&stubCustomers{}, 0)

	_, err := d.BillingStatus(context.Background(), &models.CustomerData{})

	require.Error(t, err)
	assert.True(t, domainerrors.IsBusinessLookupFailure(err))
}

func TestDirectory_LookupFailureWrapped(t *testing.T) {
	d := business.NewDirectory(&stubCustomers{err: assert.AnError}, 0)

	_, err := d.FindByTaxID(context.Background(), "12345678901")

	require.Error(t, err)
	assert.True(t, domainerrors.IsBusinessLookupFailure(err))
}

func TestFixture_Lookups(t *testing.T) {
	f := business.NewFixture()
	ctx := context.Background()

	byTax, err := f.FindByTaxID(ctx, "12345678901")
	require.NoError(t, err)
	require.NotNil(t, byTax)
	assert.Equal(t, "Maria Oliveira", byTax.Name)

	byPolicy, err := f.FindByPolicyNumber(ctx, "987654321")
	require.NoError(t, err)
	require.NotNil(t, byPolicy)
	assert.Equal(t, "Comercial Andrade LTDA", byPolicy.Name)

	missing, err := f.FindByTaxID(ctx, "00000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFixture_BillingStatus(t *testing.T) {
	f := business.NewFixture()

	status, err := f.BillingStatus(context.Background(), &models.CustomerData{TaxID: "12345678901"})
	require.NoError(t, err)

	assert.True(t, status.HasOverdue)
	assert.Equal(t, 450.00, status.OverdueAmount)
	assert.Len(t, status.Installments, 3)
}
