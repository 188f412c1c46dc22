package models

import "time"

// TokenKind discriminates the two credential variants stored in the
// user_tokens table.
type TokenKind string

const (
	// KindAccess is the short-lived credential presented on ordinary requests.
	KindAccess TokenKind = "access"
	// KindRefresh is the longer-lived credential used only to obtain a new pair.
	KindRefresh TokenKind = "refresh"
)

// Token is an opaque session credential. Value is unique across all tokens
// regardless of kind. A token is valid iff Expires is strictly after now;
// revocation rewrites Expires to one second in the past and never deletes
// the row.
type Token struct {
	ID        string
	UserID    string
	Kind      TokenKind
	Value     string
	Expires   time.Time
	CreatedAt time.Time
}

// Valid reports whether the token is usable at instant now.
// The comparison is strict: a token expiring exactly at now is invalid.
func (t *Token) Valid(now time.Time) bool {
	return t.Expires.After(now)
}
