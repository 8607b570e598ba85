// Package queue defines message payloads exchanged over the message
// broker and the background consumer that drains them.
package queue

// Event types published on the auth.events queue.
const (
	EventUserRegistered = "user.registered"
	EventUserLoggedIn   = "user.logged_in"
	EventUserLoggedOut  = "user.logged_out"
	EventCodeIssued     = "oauth.code_issued"
	EventTokenExchanged = "oauth.token_exchanged"
)

// AuthEvent is published whenever a credential-changing operation
// succeeds. It carries enough information for downstream consumers to
// build an audit trail or trigger alerting without querying the primary
// database. Secrets (passwords, tokens, codes) are never included.
type AuthEvent struct {
	Type     string `json:"type"`
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	At       string `json:"at"`
}
