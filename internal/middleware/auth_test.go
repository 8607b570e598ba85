package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datahub-labs/auth-service/internal/config"
	"github.com/datahub-labs/auth-service/internal/store"
	"github.com/datahub-labs/auth-service/internal/utils"
)

func gateConfig() config.Config {
	return config.Config{
		JWTSecret:         "gate-test-secret",
		SessionTTLHours:   24,
		SessionCookieName: "session_token",
	}
}

// newGateApp builds an Echo app with the gate applied globally and a
// protected probe route that echoes the bound identity.
func newGateApp(cfg config.Config, tokens store.TokenStore) *echo.Echo {
	e := echo.New()
	e.Use(AuthGate(cfg, tokens))
	e.GET("/api/probe", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"user_id":  c.Get(ContextUserID),
			"username": c.Get(ContextUsername),
		})
	})
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.POST("/auth/login", func(c echo.Context) error { return c.String(http.StatusOK, "login") })
	return e
}

// issueAndStore mints a session token and records it in the store the
// way a login would.
func issueAndStore(t *testing.T, cfg config.Config, tokens store.TokenStore, userID, username string, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.NewSessionToken(cfg.JWTSecret, userID, username, ttl)
	require.NoError(t, err)
	require.NoError(t, tokens.UpsertToken(context.Background(), userID, tok.Token, tok.Exp))
	return tok.Token
}

func TestAuthGatePublicPathsBypass(t *testing.T) {
	cfg := gateConfig()
	e := newGateApp(cfg, store.NewMemory())

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/healthz"},
		{http.MethodPost, "/auth/login"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "%s %s must bypass the gate", tc.method, tc.path)
	}
}

func TestAuthGateMissingCredential(t *testing.T) {
	e := newGateApp(gateConfig(), store.NewMemory())

	req := httptest.NewRequest(http.MethodGet, "/api/probe", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing credentials")
}

func TestAuthGateMalformedHeader(t *testing.T) {
	e := newGateApp(gateConfig(), store.NewMemory())

	for _, header := range []string{
		"Bearer",                // one part
		"Bearer one two",        // three parts
		"Basic dXNlcjpwYXNz",    // wrong scheme
		"BearerNoSpace abc def", // wrong scheme, three parts
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/probe", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		assert.Contains(t, rec.Body.String(), "authorization header format", "header %q", header)
	}
}

func TestAuthGateBearerSchemeCaseInsensitive(t *testing.T) {
	cfg := gateConfig()
	tokens := store.NewMemory()
	raw := issueAndStore(t, cfg, tokens, "user-1", "alice", time.Hour)
	e := newGateApp(cfg, tokens)

	req := httptest.NewRequest(http.MethodGet, "/api/probe", nil)
	req.Header.Set("Authorization", "bearer "+raw)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthGateExpiredToken(t *testing.T) {
	cfg := gateConfig()
	tokens := store.NewMemory()
	raw := issueAndStore(t, cfg, tokens, "user-1", "alice", -time.Minute)
	e := newGateApp(cfg, tokens)

	req := httptest.NewRequest(http.MethodGet, "/api/probe", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")
}

func TestAuthGateInvalidSignature(t *testing.T) {
	cfg := gateConfig()
	tokens := store.NewMemory()
	e := newGateApp(cfg, tokens)

	other, err := utils.NewSessionToken("some-other-secret", "user-1", "alice", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/probe", nil)
	req.Header.Set("Authorization", "Bearer "+other.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")
}

func TestAuthGateRevokedToken(t *testing.T) {
	cfg := gateConfig()
	tokens := store.NewMemory()
	e := newGateApp(cfg, tokens)

	// Cryptographically valid but never stored: revoked or unknown.
	tok, err := utils.NewSessionToken(cfg.JWTSecret, "user-1", "alice", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/probe", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "not recognized")
}

func TestAuthGateCookiePreferred(t *testing.T) {
	cfg := gateConfig()
	tokens := store.NewMemory()
	raw := issueAndStore(t, cfg, tokens, "user-1", "alice", time.Hour)
	e := newGateApp(cfg, tokens)

	req := httptest.NewRequest(http.MethodGet, "/api/probe", nil)
	req.AddCookie(&http.Cookie{Name: cfg.SessionCookieName, Value: raw})
	// A garbage header must not matter when the cookie is present.
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user-1")
	assert.Contains(t, rec.Body.String(), "alice")
}
