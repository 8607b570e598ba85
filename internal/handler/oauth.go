package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/datahub-labs/auth-service/internal/config"
	"github.com/datahub-labs/auth-service/internal/model"
	"github.com/datahub-labs/auth-service/internal/queue"
	"github.com/datahub-labs/auth-service/internal/service"
	"github.com/datahub-labs/auth-service/internal/store"
	"github.com/datahub-labs/auth-service/internal/utils"
)

// OAuthHandler implements the Authorization Code + PKCE flow: code
// issuance on the front channel, code redemption on the back channel,
// and the RFC 8414 metadata document.
type OAuthHandler struct {
	Cfg    config.Config
	Users  store.UserStore
	Tokens store.TokenStore
	Codes  store.AuthCodeStore
}

func NewOAuthHandler(cfg config.Config, users store.UserStore, tokens store.TokenStore, codes store.AuthCodeStore) *OAuthHandler {
	return &OAuthHandler{Cfg: cfg, Users: users, Tokens: tokens, Codes: codes}
}

func (h *OAuthHandler) codeTTL() time.Duration {
	return time.Duration(h.Cfg.AuthCodeTTLMin) * time.Minute
}

// oauthError writes the standard OAuth error body used by the token
// endpoint.
func oauthError(c echo.Context, code, description string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"error":             code,
		"error_description": description,
	})
}

// redirectError sends the error back to the client via the redirect
// target, per the front-channel convention: error, error_description
// and the untouched state value as query parameters.
func redirectError(c echo.Context, redirect *url.URL, state, code, description string) error {
	q := redirect.Query()
	q.Set("error", code)
	q.Set("error_description", description)
	if state != "" {
		q.Set("state", state)
	}
	redirect.RawQuery = q.Encode()
	return c.Redirect(http.StatusFound, redirect.String())
}

// Authorize handles GET /oauth/authorize. The caller must already hold
// a session (the gate enforces this); the handler validates the request
// parameters, mints a single-use code bound to the user, client,
// redirect target and PKCE challenge, and returns it via redirect.
// Errors are redirect-based once the redirect_uri itself is present and
// well-formed — before that there is no verified target to trust, so
// the error is returned directly.
func (h *OAuthHandler) Authorize(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated, log in before starting the oauth flow"})
	}

	responseType := c.QueryParam("response_type")
	clientID := c.QueryParam("client_id")
	redirectURI := c.QueryParam("redirect_uri")
	codeChallenge := c.QueryParam("code_challenge")
	codeChallengeMethod := c.QueryParam("code_challenge_method")
	state := c.QueryParam("state")
	scope := c.QueryParam("scope")

	if codeChallengeMethod == "" {
		codeChallengeMethod = "S256"
	}

	if redirectURI == "" {
		return oauthError(c, "invalid_request", "redirect_uri is required")
	}
	redirect, err := url.Parse(redirectURI)
	if err != nil {
		return oauthError(c, "invalid_request", "redirect_uri is not a valid URI")
	}

	if responseType != "code" {
		return redirectError(c, redirect, state, "unsupported_response_type", "only 'code' is supported")
	}
	if clientID == "" || codeChallenge == "" {
		return redirectError(c, redirect, state, "invalid_request", "client_id and code_challenge are required")
	}
	if codeChallengeMethod != "S256" {
		return redirectError(c, redirect, state, "invalid_request", "only S256 PKCE is supported")
	}

	code, err := utils.NewAuthCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate code failed"})
	}

	now := time.Now().UTC()
	rec := model.AuthCode{
		Code:                code,
		UserID:              userID,
		ClientID:            clientID,
		RedirectURI:         redirectURI,
		CodeChallenge:       codeChallenge,
		CodeChallengeMethod: codeChallengeMethod,
		Scope:               scope,
		CreatedAt:           now,
		ExpiresAt:           now.Add(h.codeTTL()),
		Used:                false,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Codes.CreateAuthCode(ctx, rec); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save code failed"})
	}

	service.PublishAuthEvent(queue.AuthEvent{
		Type:     queue.EventCodeIssued,
		UserID:   userID,
		ClientID: clientID,
	})

	q := redirect.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	redirect.RawQuery = q.Encode()
	return c.Redirect(http.StatusFound, redirect.String())
}

// Token handles POST /oauth/token, the back-channel redemption of an
// authorization code for an access token. Every check below returns a
// distinct OAuth error code; the order matters and must not be
// relaxed — any shortcut past the used/expiry/binding/PKCE checks is an
// authentication bypass.
func (h *OAuthHandler) Token(c echo.Context) error {
	grantType := c.FormValue("grant_type")
	code := c.FormValue("code")
	redirectURI := c.FormValue("redirect_uri")
	clientID := c.FormValue("client_id")
	codeVerifier := c.FormValue("code_verifier")

	if grantType != "authorization_code" {
		return oauthError(c, "unsupported_grant_type", "grant_type must be authorization_code")
	}
	if code == "" || redirectURI == "" || clientID == "" || codeVerifier == "" {
		return oauthError(c, "invalid_request", "missing required parameters")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Codes.GetAuthCode(ctx, code)
	if err != nil {
		if err == store.ErrNotFound {
			return oauthError(c, "invalid_grant", "authorization code not found")
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if rec.Used {
		return oauthError(c, "invalid_grant", "authorization code already used")
	}
	if rec.ExpiresAt.Before(time.Now().UTC()) {
		return oauthError(c, "invalid_grant", "authorization code expired")
	}
	if rec.ClientID != clientID {
		return oauthError(c, "invalid_request", "client_id does not match this code")
	}
	if rec.RedirectURI != redirectURI {
		return oauthError(c, "invalid_request", "redirect_uri does not match this code")
	}
	if !utils.ValidatePKCE(codeVerifier, rec.CodeChallenge, rec.CodeChallengeMethod) {
		return oauthError(c, "invalid_grant", "PKCE validation failed")
	}

	// Conditional flip of the used flag: of two concurrent redemptions
	// only one observes won=true, the other is turned away here.
	won, err := h.Codes.MarkAuthCodeUsed(ctx, code)
	if err != nil {
		if err == store.ErrNotFound {
			return oauthError(c, "invalid_grant", "authorization code not found")
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update code failed"})
	}
	if !won {
		return oauthError(c, "invalid_grant", "authorization code already used")
	}

	u, err := h.Users.GetUserByID(ctx, rec.UserID)
	if err != nil {
		if err == store.ErrNotFound {
			return oauthError(c, "invalid_grant", "user not found")
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	ttl := time.Duration(h.Cfg.SessionTTLHours) * time.Hour
	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, u.ID, u.Username, ttl)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	if err := h.Tokens.UpsertToken(ctx, u.ID, tok.Token, tok.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save token failed"})
	}

	service.PublishAuthEvent(queue.AuthEvent{
		Type:     queue.EventTokenExchanged,
		UserID:   u.ID,
		Username: u.Username,
		ClientID: clientID,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"token_type":   "Bearer",
		"expires_in":   int(ttl / time.Second),
	})
}

// metadataResp is the RFC 8414 authorization server metadata document.
type metadataResp struct {
	Issuer                        string   `json:"issuer"`
	AuthorizationEndpoint         string   `json:"authorization_endpoint"`
	TokenEndpoint                 string   `json:"token_endpoint"`
	ResponseTypesSupported        []string `json:"response_types_supported"`
	GrantTypesSupported           []string `json:"grant_types_supported"`
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported"`
}

// Metadata serves GET /.well-known/oauth-authorization-server. Only
// S256 is advertised: plain challenges are never issued.
func (h *OAuthHandler) Metadata(c echo.Context) error {
	issuer := strings.TrimRight(h.Cfg.IssuerURL, "/")
	return c.JSON(http.StatusOK, metadataResp{
		Issuer:                        issuer,
		AuthorizationEndpoint:         issuer + "/oauth/authorize",
		TokenEndpoint:                 issuer + "/oauth/token",
		ResponseTypesSupported:        []string{"code"},
		GrantTypesSupported:           []string{"authorization_code"},
		CodeChallengeMethodsSupported: []string{"S256"},
	})
}
