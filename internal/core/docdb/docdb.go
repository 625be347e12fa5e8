// Package docdb defines the durable repository interfaces.
package docdb

import (
	"context"
	"time"

	"github.com/billyagent/dialogue-service/internal/domain/models"
)

// SessionsCollection defines the interface for session persistence.
// Lookups return (nil, nil) for absence; errors are reserved for
// repository failures.
type SessionsCollection interface {
	// Insert stores a new session.
	Insert(ctx context.Context, session *models.Session) error

	// Get retrieves a session by its id.
	Get(ctx context.Context, sessionID string) (*models.Session, error)

	// FindActive retrieves the single active, unexpired session for a user.
	FindActive(ctx context.Context, userID string) (*models.Session, error)

	// Replace overwrites the stored session document keyed by session id.
	Replace(ctx context.Context, session *models.Session) error

	// DeleteTerminalBefore removes terminal sessions last updated before
	// the cutoff. Used by the retention sweep.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CustomersCollection defines the interface for customer lookups.
// Lookups return (nil, nil) for absence.
type CustomersCollection interface {
	// FindByTaxID retrieves a customer by tax identifier.
	FindByTaxID(ctx context.Context, taxID string) (*models.Customer, error)

	// FindByPolicyNumber retrieves a customer holding the given policy.
	FindByPolicyNumber(ctx context.Context, policyNumber string) (*models.Customer, error)
}

// Client defines the interface for the durable repository.
type Client interface {
	// Sessions returns the sessions collection.
	Sessions() SessionsCollection

	// Customers returns the customers collection.
	Customers() CustomersCollection

	// EnsureIndexes creates all necessary indexes.
	EnsureIndexes(ctx context.Context) error

	// Ping verifies the repository connection.
	Ping(ctx context.Context) error

	// Close closes the repository connection.
	Close(ctx context.Context) error
}
