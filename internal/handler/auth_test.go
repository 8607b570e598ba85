package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/datahub-labs/auth-service/internal/config"
	"github.com/datahub-labs/auth-service/internal/handler"
	"github.com/datahub-labs/auth-service/internal/router"
	"github.com/datahub-labs/auth-service/internal/store"
)

func testConfig() config.Config {
	return config.Config{
		Env:               "test",
		JWTSecret:         "handler-test-secret",
		SessionTTLHours:   24,
		AuthCodeTTLMin:    10,
		BcryptCost:        bcrypt.MinCost,
		IssuerURL:         "https://auth.test",
		SessionCookieName: "session_token",
	}
}

// newTestApp wires the full route table against the in-memory store,
// with redis absent so rate limiting and caching are pass-throughs.
func newTestApp() (*echo.Echo, *store.Memory, config.Config) {
	cfg := testConfig()
	m := store.NewMemory()
	a := handler.NewAuthHandler(cfg, m, m)
	o := handler.NewOAuthHandler(cfg, m, m, m)
	e := echo.New()
	router.Register(e, cfg, a, o, nil)
	return e, m, cfg
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// registerAndLogin creates a user and logs in, returning the session
// token and the user id.
func registerAndLogin(t *testing.T, e *echo.Echo, username, password string) (token, userID string) {
	t.Helper()
	rec := postJSON(e, "/auth/register", `{"username":"`+username+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	userID = decodeBody(t, rec)["id"].(string)

	rec = postJSON(e, "/auth/login", `{"username":"`+username+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	token = decodeBody(t, rec)["access_token"].(string)
	require.NotEmpty(t, token)
	return token, userID
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	t.Fatalf("no %q cookie in response", name)
	return nil
}

func TestRegisterLoginMeFlow(t *testing.T) {
	e, _, cfg := newTestApp()

	// Register alice.
	rec := postJSON(e, "/auth/register", `{"username":"alice","password":"p@ss1234"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "registered", body["status"])
	aliceID := body["id"].(string)
	require.NotEmpty(t, aliceID)

	// Wrong password.
	rec = postJSON(e, "/auth/login", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct password sets the session cookie.
	rec = postJSON(e, "/auth/login", `{"username":"alice","password":"p@ss1234"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	ck := sessionCookie(t, rec, cfg.SessionCookieName)
	require.NotEmpty(t, ck.Value)

	// /auth/me with the cookie resolves alice.
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	mrec := httptest.NewRecorder()
	e.ServeHTTP(mrec, req)
	require.Equal(t, http.StatusOK, mrec.Code)
	assert.Equal(t, aliceID, decodeBody(t, mrec)["user_id"])

	// /auth/me without a credential is rejected.
	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	mrec = httptest.NewRecorder()
	e.ServeHTTP(mrec, req)
	assert.Equal(t, http.StatusUnauthorized, mrec.Code)
}

func TestRegisterValidation(t *testing.T) {
	e, _, _ := newTestApp()

	for _, body := range []string{
		`{}`,
		`{"username":"alice"}`,
		`{"password":"p@ss1234"}`,
		`{"username":"  ","password":"p@ss1234"}`,
	} {
		rec := postJSON(e, "/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	e, _, _ := newTestApp()

	rec := postJSON(e, "/auth/register", `{"username":"alice","password":"p@ss1234"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(e, "/auth/register", `{"username":"alice","password":"another"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already taken")
}

func TestLoginUnknownUser(t *testing.T) {
	e, _, _ := newTestApp()

	rec := postJSON(e, "/auth/login", `{"username":"ghost","password":"p@ss1234"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
}

func TestLoginCookieAttributes(t *testing.T) {
	e, _, cfg := newTestApp()
	registerAndLogin(t, e, "alice", "p@ss1234")

	rec := postJSON(e, "/auth/login", `{"username":"alice","password":"p@ss1234"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	ck := sessionCookie(t, rec, cfg.SessionCookieName)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, cfg.SessionTTLHours*3600, ck.MaxAge)
}

func TestMeWithBearerHeader(t *testing.T) {
	e, _, _ := newTestApp()
	token, userID := registerAndLogin(t, e, "alice", "p@ss1234")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, decodeBody(t, rec)["user_id"])
}

func TestLoginReplacesPreviousToken(t *testing.T) {
	e, _, _ := newTestApp()
	first, _ := registerAndLogin(t, e, "alice", "p@ss1234")

	rec := postJSON(e, "/auth/login", `{"username":"alice","password":"p@ss1234"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// The store keeps one token per user, so the first one no longer
	// authenticates.
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+first)
	mrec := httptest.NewRecorder()
	e.ServeHTTP(mrec, req)
	assert.Equal(t, http.StatusUnauthorized, mrec.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	e, _, cfg := newTestApp()
	token, _ := registerAndLogin(t, e, "alice", "p@ss1234")

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: cfg.SessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// The response clears the cookie.
	ck := sessionCookie(t, rec, cfg.SessionCookieName)
	assert.Empty(t, ck.Value)
	assert.Negative(t, ck.MaxAge)

	// The store record is gone too: the captured token no longer works.
	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	mrec := httptest.NewRecorder()
	e.ServeHTTP(mrec, req)
	assert.Equal(t, http.StatusUnauthorized, mrec.Code)
}

func TestLogoutWithoutCredential(t *testing.T) {
	e, _, _ := newTestApp()

	rec := postJSON(e, "/auth/logout", ``)
	assert.Equal(t, http.StatusOK, rec.Code, "logout is idempotent for ended sessions")
}
