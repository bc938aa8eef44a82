// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Email is the login key and is UNIQUE in the users table. It is compared
// exactly as stored: "A@x.com" and "a@x.com" are two different accounts.
//
// WHY PasswordHash HAS json:"-"?
// The hash is never useful to a client and should never leave the server.
// The "-" tag makes encoding/json skip the field entirely, so even an
// accidental writeJSON(w, 200, user) cannot leak it.
//
// Name is the display name. Articles copy it into their CreatorName when the
// user creates them, so it doubles as the ownership key (see Article).
type User struct {
	ID           string    `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	Name         string    `json:"name"      db:"name"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
