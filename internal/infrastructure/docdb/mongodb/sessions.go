// Package mongodb provides the sessions collection implementation.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/billyagent/dialogue-service/internal/domain/models"
)

// SessionsCollectionName is the name of the sessions collection.
const SessionsCollectionName = "sessions"

// SessionsCollection implements docdb.SessionsCollection for MongoDB.
type SessionsCollection struct {
	sessions *mongo.Collection
}

// NewSessionsCollection creates a new sessions collection wrapper.
func NewSessionsCollection(db *mongo.Database) *SessionsCollection {
	return &SessionsCollection{
		sessions: db.Collection(SessionsCollectionName),
	}
}

// Insert stores a new session.
func (c *SessionsCollection) Insert(ctx context.Context, session *models.Session) error {
	if session.SessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	session.UpdatedAt = time.Now().UTC()

	_, err := c.sessions.InsertOne(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// Get retrieves a session by its id. Returns (nil, nil) if absent.
func (c *SessionsCollection) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	err := c.sessions.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// FindActive retrieves the single active, unexpired session for a user.
func (c *SessionsCollection) FindActive(ctx context.Context, userID string) (*models.Session, error) {
	filter := bson.M{
		"userId":    userID,
		"status":    models.StatusActive,
		"expiresAt": bson.M{"$gt": time.Now().UTC()},
	}

	var session models.Session
	err := c.sessions.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active session: %w", err)
	}
	return &session, nil
}

// Replace overwrites the stored session document keyed by session id.
func (c *SessionsCollection) Replace(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()

	result, err := c.sessions.ReplaceOne(ctx, bson.M{"sessionId": session.SessionID}, session)
	if err != nil {
		return fmt.Errorf("failed to replace session: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("session %s not found", session.SessionID)
	}
	return nil
}

// DeleteTerminalBefore removes terminal sessions last updated before the cutoff.
func (c *SessionsCollection) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{
		"status": bson.M{"$in": []models.SessionStatus{
			models.StatusCompleted,
			models.StatusEscalated,
			models.StatusTimeout,
		}},
		"updatedAt": bson.M{"$lt": cutoff},
	}

	result, err := c.sessions.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete terminal sessions: %w", err)
	}
	return result.DeletedCount, nil
}

// EnsureIndexes creates the indexes for the sessions collection,
// including the TTL index the repository uses for its own expiry.
func (c *SessionsCollection) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	if _, err := c.sessions.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}
	return nil
}
