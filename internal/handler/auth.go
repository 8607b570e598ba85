package handler

import (
	"context"  // provides context with cancellation for DB calls
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"     // timeouts for DB calls and cookie lifetimes

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/datahub-labs/auth-service/internal/config" // app configuration
	"github.com/datahub-labs/auth-service/internal/queue"  // audit event payloads
	"github.com/datahub-labs/auth-service/internal/service"
	"github.com/datahub-labs/auth-service/internal/store" // persistence interfaces
	"github.com/datahub-labs/auth-service/internal/utils" // hashing and token issuing
)

// AuthHandler bundles dependencies for the credential endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  store.UserStore
	Tokens store.TokenStore
}

func NewAuthHandler(cfg config.Config, users store.UserStore, tokens store.TokenStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens}
}

// ----- DTOs -----

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) sessionTTL() time.Duration {
	return time.Duration(h.Cfg.SessionTTLHours) * time.Hour
}

// sessionCookie builds the session cookie with the attributes every
// response that sets or clears it must carry: HTTP-only, secure,
// SameSite=Lax, path /.
func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.Cfg.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Register creates a user from a unique username and a password.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.CreateUser(ctx, req.Username, hash)
	if err != nil {
		if err == store.ErrUsernameExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already taken"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	service.PublishAuthEvent(queue.AuthEvent{
		Type:     queue.EventUserRegistered,
		UserID:   u.ID,
		Username: u.Username,
	})

	return c.JSON(http.StatusCreated, echo.Map{"status": "registered", "id": u.ID})
}

// Login verifies credentials, mints a session token, persists it
// (replacing any previous token for the user) and sets the session
// cookie. The token is also returned in the body for API clients that
// prefer the bearer header.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if err == store.ErrNotFound {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	ok, err := utils.VerifyPassword(u.PasswordHash, req.Password)
	if err != nil {
		// Malformed stored digest: an internal fault, never "no match".
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verify password failed"})
	}
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, u.ID, u.Username, h.sessionTTL())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	if err := h.Tokens.UpsertToken(ctx, u.ID, tok.Token, tok.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save token failed"})
	}

	c.SetCookie(h.sessionCookie(tok.Token, int(h.sessionTTL()/time.Second)))

	service.PublishAuthEvent(queue.AuthEvent{
		Type:     queue.EventUserLoggedIn,
		UserID:   u.ID,
		Username: u.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{"access_token": tok.Token})
}

// Logout clears the session cookie and deletes the store's token
// record, so a captured bearer token stops authenticating immediately
// rather than living until its cryptographic expiry. The route is
// public (the gate skips it); the handler inspects the credential
// itself and treats an absent or invalid one as an already-ended
// session.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw := ""
	if ck, err := c.Cookie(h.Cfg.SessionCookieName); err == nil && ck.Value != "" {
		raw = ck.Value
	} else if header := c.Request().Header.Get("Authorization"); header != "" {
		parts := strings.Fields(header)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			raw = parts[1]
		}
	}

	if raw != "" {
		if claims, err := utils.ParseSessionToken(h.Cfg.JWTSecret, raw); err == nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			if err := h.Tokens.DeleteTokenByUser(ctx, claims.UserID); err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
			}
			service.PublishAuthEvent(queue.AuthEvent{
				Type:     queue.EventUserLoggedOut,
				UserID:   claims.UserID,
				Username: claims.Username,
			})
		}
	}

	c.SetCookie(h.sessionCookie("", -1))
	return c.JSON(http.StatusOK, echo.Map{"status": "logged_out"})
}

// Me returns the identity the gate resolved for this request.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"user_id": c.Get("user_id")})
}
