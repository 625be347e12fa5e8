// Package session owns session records: creation, lookup, mutation,
// expiry, and an in-process cache layered over the durable repository.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/billyagent/dialogue-service/internal/core/cache"
	"github.com/billyagent/dialogue-service/internal/core/docdb"
	domainerrors "github.com/billyagent/dialogue-service/internal/domain/errors"
	"github.com/billyagent/dialogue-service/internal/domain/models"
)

const (
	// DefaultIdleTimeout is the default session idle window (30 minutes).
	DefaultIdleTimeout = 30 * time.Minute

	// DefaultHistoryCap is the default conversation history bound.
	DefaultHistoryCap = 50

	// DefaultRepoTimeout bounds every durable repository call.
	DefaultRepoTimeout = 10 * time.Second

	// DefaultRetentionWindow is how long terminal sessions are retained.
	DefaultRetentionWindow = 30 * 24 * time.Hour
)

// Config holds the configuration for the session store.
type Config struct {
	Sessions        docdb.SessionsCollection
	Cache           cache.Cache
	IdleTimeout     time.Duration
	HistoryCap      int
	RepoTimeout     time.Duration
	RetentionWindow time.Duration
	Logger          zerolog.Logger
}

// Store manages session records. Every mutation reaches the durable
// repository synchronously before the call returns; the cache update
// that follows is best-effort. Concurrent turns for the same user must
// be serialized through LockUser.
type Store struct {
	sessions        docdb.SessionsCollection
	cache           cache.Cache
	idleTimeout     time.Duration
	historyCap      int
	repoTimeout     time.Duration
	retentionWindow time.Duration
	logger          zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a new session store.
func NewStore(cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("sessions collection is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}

	idleTimeout := cfg.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = DefaultIdleTimeout
	}
	historyCap := cfg.HistoryCap
	if historyCap == 0 {
		historyCap = DefaultHistoryCap
	}
	repoTimeout := cfg.RepoTimeout
	if repoTimeout == 0 {
		repoTimeout = DefaultRepoTimeout
	}
	retentionWindow := cfg.RetentionWindow
	if retentionWindow == 0 {
		retentionWindow = DefaultRetentionWindow
	}

	return &Store{
		sessions:        cfg.Sessions,
		cache:           cfg.Cache,
		idleTimeout:     idleTimeout,
		historyCap:      historyCap,
		repoTimeout:     repoTimeout,
		retentionWindow: retentionWindow,
		logger:          cfg.Logger.With().Str("component", "session-store").Logger(),
		locks:           make(map[string]*sync.Mutex),
	}, nil
}

// LockUser serializes turns for one user. It returns the release
// function; turns for different users proceed independently.
func (s *Store) LockUser(userID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// GetOrCreate returns the user's live session: the cached one if still
// within the idle window, else the repository's active session, else a
// brand-new session in the greeting stage.
func (s *Store) GetOrCreate(ctx context.Context, userID, userPhone, userName string) (*models.Session, error) {
	if cached := s.getCached(ctx, userID); cached != nil {
		return cached, nil
	}

	repoCtx, cancel := context.WithTimeout(ctx, s.repoTimeout)
	defer cancel()

	session, err := s.sessions.FindActive(repoCtx, userID)
	if err != nil {
		return nil, domainerrors.NewRepositoryUnavailableError("find active session", err)
	}

	if session == nil {
		session = models.NewSession(userID, userPhone, userName, s.idleTimeout)
		if err := s.sessions.Insert(repoCtx, session); err != nil {
			return nil, domainerrors.NewRepositoryUnavailableError("insert session", err)
		}
		s.logger.Info().
			Str("session_id", session.SessionID).
			Str("user_id", userID).
			Msg("new session created")
	}

	s.setCached(ctx, session)
	return session, nil
}

// Get retrieves a session by id. Unknown ids are a NotFound error.
func (s *Store) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	repoCtx, cancel := context.WithTimeout(ctx, s.repoTimeout)
	defer cancel()

	session, err := s.sessions.Get(repoCtx, sessionID)
	if err != nil {
		return nil, domainerrors.NewRepositoryUnavailableError("get session", err)
	}
	if session == nil {
		return nil, domainerrors.NewNotFoundError("session", sessionID)
	}
	return session, nil
}

// AppendMessage appends a message record to the session history,
// enforcing the cap, and extends the idle window.
func (s *Store) AppendMessage(ctx context.Context, sessionID string, origin models.MessageOrigin, text, msgType string, metadata map[string]interface{}) (*models.Session, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.AppendEntry(models.ConversationEntry{
		Origin:   origin,
		Text:     text,
		Type:     msgType,
		Metadata: metadata,
	}, s.historyCap)

	if !session.IsTerminal() {
		session.ExpiresAt = time.Now().UTC().Add(s.idleTimeout)
	}

	if err := s.persist(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// AdvanceFlow sets the session's current stage. Unrecognized stage
// names are an InvalidState error; terminal sessions keep their stage.
func (s *Store) AdvanceFlow(ctx context.Context, sessionID string, newFlow models.FlowState) (*models.Session, error) {
	if !newFlow.Valid() {
		return nil, domainerrors.NewInvalidStateError(string(newFlow))
	}

	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.IsTerminal() {
		s.logger.Debug().
			Str("session_id", sessionID).
			Str("status", string(session.Status)).
			Msg("flow advance skipped for terminal session")
		return session, nil
	}

	session.CurrentFlow = newFlow
	if err := s.persist(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("session_id", sessionID).
		Str("flow", string(newFlow)).
		Msg("flow updated")
	return session, nil
}

// MergeCustomerData shallow-merges fields into the session's customer
// record.
func (s *Store) MergeCustomerData(ctx context.Context, sessionID string, data models.CustomerData) (*models.Session, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.MergeCustomerData(data)
	if err := s.persist(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Complete marks the session completed, stamps the end time and evicts
// it from the cache.
func (s *Store) Complete(ctx context.Context, sessionID, reason string) (*models.Session, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session.Status = models.StatusCompleted
	session.Analytics.EndTime = &now
	session.Analytics.CompletionReason = reason

	repoCtx, cancel := context.WithTimeout(ctx, s.repoTimeout)
	defer cancel()
	if err := s.sessions.Replace(repoCtx, session); err != nil {
		return nil, domainerrors.NewRepositoryUnavailableError("replace session", err)
	}

	if _, err := s.cache.Delete(ctx, s.cacheKey(session.UserID)); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("cache evict failed")
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("reason", reason).
		Msg("session completed")
	return session, nil
}

// Escalate marks the session escalated and records the reason. The
// session stays cached: an escalated conversation may still receive
// messages while waiting for the human handoff.
func (s *Store) Escalate(ctx context.Context, sessionID, reason string) (*models.Session, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.Status = models.StatusEscalated
	session.Context.EscalationReason = reason
	session.Analytics.EscalationAttempts++

	if err := s.persist(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("reason", reason).
		Msg("session escalated")
	return session, nil
}

// ExpireIdleCacheEntries evicts cache entries whose TTL has passed.
// Purely a memory-hygiene pass; the repository is the source of truth.
func (s *Store) ExpireIdleCacheEntries(ctx context.Context) (int, error) {
	evicted, err := s.cache.Sweep(ctx)
	if err != nil {
		return 0, fmt.Errorf("cache sweep failed: %w", err)
	}
	if evicted > 0 {
		s.logger.Debug().Int("evicted", evicted).Msg("idle cache entries expired")
	}
	return evicted, nil
}

// PurgeExpired deletes terminal sessions older than the retention
// window from the durable repository.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	repoCtx, cancel := context.WithTimeout(ctx, s.repoTimeout)
	defer cancel()

	cutoff := time.Now().UTC().Add(-s.retentionWindow)
	deleted, err := s.sessions.DeleteTerminalBefore(repoCtx, cutoff)
	if err != nil {
		return 0, domainerrors.NewRepositoryUnavailableError("retention sweep", err)
	}
	if deleted > 0 {
		s.logger.Info().Int64("deleted", deleted).Msg("retention sweep removed sessions")
	}
	return deleted, nil
}

// AnalyticsSnapshot is the per-session analytics view used by the
// /status command and the handoff summary.
type AnalyticsSnapshot struct {
	SessionID          string               `json:"sessionId"`
	UserID             string               `json:"userId"`
	Status             models.SessionStatus `json:"status"`
	CurrentFlow        models.FlowState     `json:"currentFlow"`
	Duration           time.Duration        `json:"duration"`
	TotalMessages      int                  `json:"totalMessages"`
	SystemResponses    int                  `json:"systemResponses"`
	EscalationAttempts int                  `json:"escalationAttempts"`
	CompletionReason   string               `json:"completionReason,omitempty"`
}

// Analytics returns the analytics snapshot for a session.
func (s *Store) Analytics(ctx context.Context, sessionID string) (*AnalyticsSnapshot, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &AnalyticsSnapshot{
		SessionID:          session.SessionID,
		UserID:             session.UserID,
		Status:             session.Status,
		CurrentFlow:        session.CurrentFlow,
		Duration:           session.Duration(),
		TotalMessages:      session.Analytics.TotalMessages,
		SystemResponses:    session.Analytics.SystemResponses,
		EscalationAttempts: session.Analytics.EscalationAttempts,
		CompletionReason:   session.Analytics.CompletionReason,
	}, nil
}

// HistoryWindow returns the last limit entries of the session history.
func (s *Store) HistoryWindow(ctx context.Context, sessionID string, limit int) ([]models.ConversationEntry, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.RecentHistory(limit), nil
}

// persist writes the session to the repository, then refreshes the
// cache. The repository write is the authoritative serialization point.
func (s *Store) persist(ctx context.Context, session *models.Session) error {
	repoCtx, cancel := context.WithTimeout(ctx, s.repoTimeout)
	defer cancel()

	if err := s.sessions.Replace(repoCtx, session); err != nil {
		return domainerrors.NewRepositoryUnavailableError("replace session", err)
	}

	s.setCached(ctx, session)
	return nil
}

// getCached loads the user's session from the cache. Corrupted,
// expired or completed entries are dropped and treated as absent;
// escalated sessions stay readable so follow-up messages keep landing
// on them while the human handoff is pending.
func (s *Store) getCached(ctx context.Context, userID string) *models.Session {
	data, err := s.cache.Get(ctx, s.cacheKey(userID))
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("cache read failed")
		return nil
	}
	if data == nil {
		return nil
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		_, _ = s.cache.Delete(ctx, s.cacheKey(userID))
		return nil
	}
	if session.IsExpired() || session.Status == models.StatusCompleted {
		_, _ = s.cache.Delete(ctx, s.cacheKey(userID))
		return nil
	}
	return &session
}

// setCached stores the session in the cache, best-effort.
func (s *Store) setCached(ctx context.Context, session *models.Session) {
	data, err := json.Marshal(session)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", session.SessionID).Msg("session marshal failed")
		return
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(session.UserID), data, ttl); err != nil {
		s.logger.Warn().Err(err).Str("session_id", session.SessionID).Msg("cache write failed")
	}
}

func (s *Store) cacheKey(userID string) string {
	return "session:user:" + userID
}
