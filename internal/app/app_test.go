package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-optimizer/internal/auth"
	"resume-optimizer/internal/config"
	"resume-optimizer/internal/database"
	"resume-optimizer/internal/handlers"
	"resume-optimizer/internal/ratelimit"
)

func testConfig() *config.Config {
	return &config.Config{
		RateLimitEnabled:       true,
		RateLimitBackend:       "memory",
		RateLimitDefault:       "100",
		RateLimitWindow:        "60s",
		RateLimitFailurePolicy: "closed",
		RateLimitStoreTimeout:  "2s",
		RateLimitRetention:     "24h",
	}
}

func TestNewRateLimitStore(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		app := &App{Config: testConfig()}
		store, err := app.newRateLimitStore()
		require.NoError(t, err)
		assert.IsType(t, &ratelimit.MemoryStore{}, store)
	})

	t.Run("redis backend without redis fails", func(t *testing.T) {
		cfg := testConfig()
		cfg.RateLimitBackend = "redis"
		app := &App{Config: cfg}
		_, err := app.newRateLimitStore()
		assert.Error(t, err)
	})

	t.Run("database backend", func(t *testing.T) {
		db, err := database.Init("sqlite", filepath.Join(t.TempDir(), "test.db"))
		require.NoError(t, err)
		defer db.Close()

		cfg := testConfig()
		cfg.RateLimitBackend = "database"
		app := &App{Config: cfg, DB: db}
		store, err := app.newRateLimitStore()
		require.NoError(t, err)
		assert.IsType(t, &ratelimit.DatabaseStore{}, store)
	})

	t.Run("unknown backend fails", func(t *testing.T) {
		cfg := testConfig()
		cfg.RateLimitBackend = "etcd"
		app := &App{Config: cfg}
		_, err := app.newRateLimitStore()
		assert.Error(t, err)
	})
}

func TestPolicies(t *testing.T) {
	app := &App{Config: testConfig()}

	t.Run("default policy follows configuration", func(t *testing.T) {
		policy := app.defaultPolicy()
		assert.Equal(t, 100, policy.Limit)
		assert.Equal(t, time.Minute, policy.Window)
		assert.Equal(t, ratelimit.FailClosed, policy.FailurePolicy)
	})

	t.Run("auth policy is stricter and per endpoint", func(t *testing.T) {
		policy := app.authPolicy()
		assert.Equal(t, 5, policy.Limit)
		assert.Equal(t, 15*time.Minute, policy.Window)
		assert.Equal(t, ratelimit.ScopePerEndpoint, policy.Scope)
		assert.Equal(t, ratelimit.FailClosed, policy.FailurePolicy)
	})

	t.Run("optimize policy caps ai usage", func(t *testing.T) {
		policy := app.optimizePolicy()
		assert.Equal(t, 10, policy.Limit)
		assert.Equal(t, time.Hour, policy.Window)
	})
}

func TestSetupRoutes_AuthRateLimit(t *testing.T) {
	db, err := database.Init("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	authService := auth.New(db, "0123456789abcdef0123456789abcdef")
	app := &App{
		Config:         testConfig(),
		DB:             db,
		Auth:           authService,
		Handlers:       handlers.New(db, authService, nil, nil),
		RateLimitStore: ratelimit.NewMemoryStore(),
	}

	handler, err := app.SetupRoutes(mux.NewRouter())
	require.NoError(t, err)

	login := func() *httptest.ResponseRecorder {
		body := bytes.NewReader([]byte(`{"email":"alice@example.com","password":"wrong-password"}`))
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
		req.RemoteAddr = "203.0.113.9:4242"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		return recorder
	}

	// The first five attempts reach the handler, the sixth hits the budget
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusUnauthorized, login().Code, "attempt %d", i+1)
	}

	blocked := login()
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))

	// The signup budget is independent of the login budget
	signupBody := bytes.NewReader([]byte(`{"email":"bob@example.com","password":"swordfish9"}`))
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", signupBody)
	req.RemoteAddr = "203.0.113.9:4242"
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusCreated, recorder.Code)
}

func TestSetupRoutes_Security(t *testing.T) {
	db, err := database.Init("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	authService := auth.New(db, "0123456789abcdef0123456789abcdef")
	cfg := testConfig()
	cfg.CORSAllowedOrigin = "https://resume.example.com"
	app := &App{
		Config:         cfg,
		DB:             db,
		Auth:           authService,
		Handlers:       handlers.New(db, authService, nil, nil),
		RateLimitStore: ratelimit.NewMemoryStore(),
	}

	handler, err := app.SetupRoutes(mux.NewRouter())
	require.NoError(t, err)

	t.Run("responses carry cors and security headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		assert.Equal(t, "https://resume.example.com", recorder.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "nosniff", recorder.Header().Get("X-Content-Type-Options"))
	})

	t.Run("preflight is answered for method-restricted routes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
		req.Header.Set("Origin", "https://resume.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
		assert.Contains(t, recorder.Header().Get("Access-Control-Allow-Methods"), "POST")
	})
}
