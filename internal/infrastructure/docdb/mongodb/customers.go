// Package mongodb provides the customers collection implementation.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/billyagent/dialogue-service/internal/domain/models"
)

// CustomersCollectionName is the name of the customers collection.
const CustomersCollectionName = "customers"

// CustomersCollection implements docdb.CustomersCollection for MongoDB.
type CustomersCollection struct {
	customers *mongo.Collection
}

// NewCustomersCollection creates a new customers collection wrapper.
func NewCustomersCollection(db *mongo.Database) *CustomersCollection {
	return &CustomersCollection{
		customers: db.Collection(CustomersCollectionName),
	}
}

// FindByTaxID retrieves a customer by tax identifier. Returns (nil, nil)
// if absent.
func (c *CustomersCollection) FindByTaxID(ctx context.Context, taxID string) (*models.Customer, error) {
	var customer models.Customer
	err := c.customers.FindOne(ctx, bson.M{"taxId": taxID}).Decode(&customer)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find customer by tax id: %w", err)
	}
	return &customer, nil
}

// FindByPolicyNumber retrieves a customer holding the given policy.
// Returns (nil, nil) if absent.
func (c *CustomersCollection) FindByPolicyNumber(ctx context.Context, policyNumber string) (*models.Customer, error) {
	var customer models.Customer
	err := c.customers.FindOne(ctx, bson.M{"policies.policyNumber": policyNumber}).Decode(&customer)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find customer by policy number: %w", err)
	}
	return &customer, nil
}

// EnsureIndexes creates the indexes for the customers collection.
func (c *CustomersCollection) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "taxId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "policies.policyNumber", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "phone", Value: 1}},
		},
	}

	if _, err := c.customers.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create customer indexes: %w", err)
	}
	return nil
}
