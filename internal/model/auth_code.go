package model

import "time"

// AuthCode models a row in the `auth_codes` table. A code is a
// single-use credential minted by the authorize endpoint and redeemed
// once at the token endpoint. The Used flag transitions false → true
// exactly once; used and expired rows are left in place rather than
// deleted.
//
// Fields:
//  Code                – the random code string (primary key).
//  UserID              – user who approved the authorization.
//  ClientID            – client the code was issued to.
//  RedirectURI         – redirect target supplied at issuance.
//  CodeChallenge       – PKCE challenge bound to the code.
//  CodeChallengeMethod – "S256" (the only method issued) or "plain".
//  Scope               – requested scope, stored opaquely.
//  CreatedAt           – issuance timestamp.
//  ExpiresAt           – CreatedAt plus the configured code TTL.
//  Used                – whether the code has been redeemed.
type AuthCode struct {
	Code                string    // auth_codes.code
	UserID              string    // auth_codes.user_id
	ClientID            string    // auth_codes.client_id
	RedirectURI         string    // auth_codes.redirect_uri
	CodeChallenge       string    // auth_codes.code_challenge
	CodeChallengeMethod string    // auth_codes.code_challenge_method
	Scope               string    // auth_codes.scope
	CreatedAt           time.Time // auth_codes.created_at
	ExpiresAt           time.Time // auth_codes.expires_at
	Used                bool      // auth_codes.used
}
