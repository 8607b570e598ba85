package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/datahub-labs/auth-service/internal/config"
	"github.com/datahub-labs/auth-service/internal/handler"
	"github.com/datahub-labs/auth-service/internal/middleware"
)

// Register wires every route of the service onto the provided Echo
// instance. The auth gate runs globally and decides per path whether a
// request must carry a credential; the rate limiter guards only the
// credential endpoints and the response cache memoizes the metadata
// document. rdb may be nil, in which case rate limiting and caching
// degrade to pass-throughs.
func Register(e *echo.Echo, cfg config.Config, a *handler.AuthHandler, o *handler.OAuthHandler, rdb *redis.Client) {
	e.Use(middleware.AuthGate(cfg, a.Tokens))

	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	// Credential lifecycle. Register, login and logout are public by
	// gate classification; /auth/me requires a session.
	auth := e.Group("/auth")
	auth.POST("/register", a.Register, rl)
	auth.POST("/login", a.Login, rl)
	auth.POST("/logout", a.Logout)
	auth.GET("/me", a.Me)

	// Authorization Code + PKCE flow. The authorize step rides on an
	// existing session (gate-protected); the token step is the public
	// back channel.
	oauth := e.Group("/oauth")
	oauth.GET("/authorize", o.Authorize)
	oauth.POST("/token", o.Token)

	// RFC 8414 discovery document, memoized in redis.
	e.GET("/.well-known/oauth-authorization-server", o.Metadata, cache)
}
