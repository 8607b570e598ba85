package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/datahub-labs/auth-service/internal/config"
	"github.com/datahub-labs/auth-service/internal/store"
	"github.com/datahub-labs/auth-service/internal/utils"
)

// Context keys under which the gate stores the resolved identity.
// Handlers read these via c.Get(); they are the only channel by which
// downstream code learns who is calling.
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
)

// publicPaths are endpoints inside the authenticated namespaces that
// bypass the gate: credential endpoints (which mint or clear the very
// credential the gate would check), the back-channel token exchange,
// and the relay/streaming endpoints that carry their own upstream auth.
var publicPaths = map[string]bool{
	"/auth/register": true,
	"/auth/login":    true,
	"/auth/logout":   true,
	"/oauth/token":   true,
	"/api/chat":      true,
	"/api/mcp":       true,
}

// isPublic classifies a request path. Anything outside the /auth,
// /oauth and /api namespaces (health checks, well-known documents,
// static assets) proceeds unauthenticated.
func isPublic(path string) bool {
	if publicPaths[path] {
		return true
	}
	if strings.HasPrefix(path, "/.well-known/") {
		return true
	}
	return !strings.HasPrefix(path, "/auth/") &&
		!strings.HasPrefix(path, "/oauth/") &&
		!strings.HasPrefix(path, "/api/")
}

// AuthGate returns middleware that authenticates every request to a
// protected path before any handler runs. The credential is taken from
// the session cookie when present, otherwise from an
// `Authorization: Bearer <token>` header. Validation is two-step:
// signature and expiry are checked cryptographically, then the token
// must still exist verbatim in the store, which is how out-of-band
// revocation works. Each rejection carries a distinct cause so clients
// can tell "log in again" apart from "fix your request". The gate
// performs exactly one store lookup per request and its only side
// effect is binding the resolved identity to the request context.
func AuthGate(cfg config.Config, tokens store.TokenStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isPublic(c.Request().URL.Path) {
				return next(c)
			}

			raw, errMsg := extractCredential(c, cfg.SessionCookieName)
			if errMsg != "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": errMsg})
			}

			claims, err := utils.ParseSessionToken(cfg.JWTSecret, raw)
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired, please log in again"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			if _, err := tokens.FindToken(ctx, raw); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token is not recognized (possibly revoked)"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token lookup failed"})
			}

			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextUsername, claims.Username)
			return next(c)
		}
	}
}

// extractCredential pulls the raw token from the session cookie or, if
// absent, from the Authorization header. The header must consist of
// exactly two whitespace-separated parts with a case-insensitive
// "bearer" scheme; any other shape is rejected rather than guessed at.
// The second return value is a non-empty rejection message on failure.
func extractCredential(c echo.Context, cookieName string) (string, string) {
	if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
		return ck.Value, ""
	}
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return "", "missing credentials"
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", "invalid authorization header format, use 'Bearer <token>'"
	}
	return parts[1], ""
}
