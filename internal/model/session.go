package model

import "time"

// Session is the server-side record behind a session token.
//
// The token itself is a signed JWT carrying the session ID. Keeping a row per
// session is what makes logout real: deleting the row revokes the token even
// though its signature and expiry are still valid.
type Session struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Remember  bool      `db:"remember"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Expired reports whether the session is no longer valid at time now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
