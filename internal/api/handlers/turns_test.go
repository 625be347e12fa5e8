package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billyagent/dialogue-service/internal/api/handlers"
	"github.com/billyagent/dialogue-service/internal/api/middleware"
	"github.com/billyagent/dialogue-service/internal/api/routes"
	"github.com/billyagent/dialogue-service/internal/config"
	"github.com/billyagent/dialogue-service/internal/core/docdb"
	"github.com/billyagent/dialogue-service/internal/domain/models"
	memorycache "github.com/billyagent/dialogue-service/internal/infrastructure/cache/memory"
	"github.com/billyagent/dialogue-service/internal/services/business"
	"github.com/billyagent/dialogue-service/internal/services/dialogue"
	"github.com/billyagent/dialogue-service/internal/services/flow"
	"github.com/billyagent/dialogue-service/internal/services/persona"
	"github.com/billyagent/dialogue-service/internal/services/session"
)

// fakeSessions is an in-memory docdb.SessionsCollection.
type fakeSessions struct {
	mu   sync.Mutex
	docs map[string]*models.Session
}

func (f *fakeSessions) Insert(ctx context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *s
	f.docs[s.SessionID] = &clone
	return nil
}

func (f *fakeSessions) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.docs[sessionID]
	if !ok {
		return nil, nil
	}
	clone := *s
	return &clone, nil
}

func (f *fakeSessions) FindActive(ctx context.Context, userID string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for _, s := range f.docs {
		if s.UserID == userID && s.Status == models.StatusActive && s.ExpiresAt.After(now) {
			clone := *s
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeSessions) Replace(ctx context.Context, s *models.Session) error {
	return f.Insert(ctx, s)
}

func (f *fakeSessions) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// fakeDocDB satisfies docdb.Client for the health handler.
type fakeDocDB struct {
	sessions docdb.SessionsCollection
	pingErr  error
}

func (f *fakeDocDB) Sessions() docdb.SessionsCollection   { return f.sessions }
func (f *fakeDocDB) Customers() docdb.CustomersCollection { return nil }
func (f *fakeDocDB) EnsureIndexes(ctx context.Context) error {
	return nil
}
func (f *fakeDocDB) Ping(ctx context.Context) error  { return f.pingErr }
func (f *fakeDocDB) Close(ctx context.Context) error { return nil }

func newTestRouter(t *testing.T, serviceKey string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &fakeSessions{docs: make(map[string]*models.Session)}
	cacheClient := memorycache.NewCache()

	store, err := session.NewStore(&session.Config{
		Sessions: repo,
		Cache:    cacheClient,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)

	agentPersona := persona.New(config.PersonaConfig{
		AgentName: "Billy, Agente X",
		Company:   "Seguradora X",
		Tone:      "profissional",
		Greeting:  "Olá, sou Billy.",
		Farewell:  "Até logo!",
	})

	orchestrator, err := dialogue.NewOrchestrator(&dialogue.Config{
		Store:   store,
		Flow:    flow.NewController(agentPersona, business.NewFixture(), zerolog.Nop()),
		Persona: agentPersona,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	routes.Setup(router, &routes.Config{
		HealthHandler:   handlers.NewHealthHandler(cacheClient, &fakeDocDB{sessions: repo}),
		TurnsHandler:    handlers.NewTurnsHandler(orchestrator),
		SessionsHandler: handlers.NewSessionsHandler(orchestrator),
		AuthMiddleware:  middleware.NewAuthMiddleware(serviceKey),
	})
	return router
}

func postTurn(t *testing.T, router *gin.Engine, body map[string]interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dialogue-service/turns", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestProcessTurn_Success(t *testing.T) {
	router := newTestRouter(t, "")

	w := postTurn(t, router, map[string]interface{}{
		"userId": "user-1",
		"text":   "oi",
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["sessionId"])
	assert.Equal(t, "identification", resp["currentFlow"])
	assert.Contains(t, resp["response"], "Olá, sou Billy")
}

func TestProcessTurn_MissingText(t *testing.T) {
	router := newTestRouter(t, "")

	w := postTurn(t, router, map[string]interface{}{"userId": "user-1"}, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp["code"])
}

func TestProcessTurn_RequiresServiceKey(t *testing.T) {
	router := newTestRouter(t, "secret-key")

	unauthorized := postTurn(t, router, map[string]interface{}{
		"userId": "user-1",
		"text":   "oi",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, unauthorized.Code)

	wrongKey := postTurn(t, router, map[string]interface{}{
		"userId": "user-1",
		"text":   "oi",
	}, map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, wrongKey.Code)

	authorized := postTurn(t, router, map[string]interface{}{
		"userId": "user-1",
		"text":   "oi",
	}, map[string]string{"Authorization": "Bearer secret-key"})
	assert.Equal(t, http.StatusOK, authorized.Code)
}

func TestGetSummary_NotFound(t *testing.T) {
	router := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dialogue-service/sessions/missing/summary", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp["code"])
}

func TestGetHistory_ReturnsWindow(t *testing.T) {
	router := newTestRouter(t, "")

	turn := postTurn(t, router, map[string]interface{}{
		"userId": "user-1",
		"text":   "oi",
	}, nil)
	require.Equal(t, http.StatusOK, turn.Code)

	var turnResp map[string]interface{}
	require.NoError(t, json.Unmarshal(turn.Body.Bytes(), &turnResp))
	sessionID := turnResp["sessionId"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dialogue-service/sessions/"+sessionID+"/history?limit=1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["count"])
}

func TestGetHistory_InvalidLimit(t *testing.T) {
	router := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dialogue-service/sessions/s1/history?limit=zero", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth_Healthy(t *testing.T) {
	router := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dialogue-service/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}
