package model

import "time"

// SessionToken models a row in the `session_tokens` table. The table is
// keyed by user id, so each user holds at most one live session record:
// a new login replaces the previous token. The store row is the source
// of truth for revocation — a signed JWT that is no longer present here
// does not authenticate.
//
// Fields:
//  UserID    – owner of the token (primary key).
//  Token     – the serialized signed JWT, stored verbatim.
//  ExpiresAt – expiration timestamp mirroring the JWT exp claim.
type SessionToken struct {
	UserID    string    // session_tokens.user_id
	Token     string    // session_tokens.token
	ExpiresAt time.Time // session_tokens.expires_at
}
