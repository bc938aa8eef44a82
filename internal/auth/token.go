// Package auth provides password hashing, session token signing and the
// identity middleware for the blog.
//
// SESSION FLOW OVERVIEW:
//  1. POST /login verifies the email and password (service.AuthService)
//  2. service.SessionService stores a session row and asks TokenService to
//     sign a JWT naming that row (jti) and the user (sub)
//  3. The JWT goes into the HttpOnly "session" cookie
//  4. On every request, LoadIdentity reads the cookie and resolves it back to
//     a model.Identity (or Anonymous) stored in the request context
//  5. POST /logout deletes the session row, which revokes the token even
//     though its signature is still valid
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"<user id>","jti":"<session id>","iss":"blog","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
//
// Nobody can forge or alter a token without the secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "blog"

// MinSecretLength is the shortest signing secret TokenService accepts.
const MinSecretLength = 16

// TokenService signs and verifies session tokens.
//
// The secret is process-wide configuration. It must be the same across
// restarts for existing cookies to keep working; changing it logs everybody
// out, which is also how to revoke every session at once.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// Generate one with: openssl rand -hex 32
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: session secret must be at least %d characters", MinSecretLength)
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// SessionClaims is what a valid token says about its bearer.
type SessionClaims struct {
	UserID    string
	SessionID string
	ExpiresAt time.Time
}

// Generate signs a token for the given user and session, valid until expiresAt.
func (s *TokenService) Generate(userID, sessionID string, expiresAt time.Time) (string, error) {
	if userID == "" || sessionID == "" {
		return "", errors.New("auth: token needs a user ID and a session ID")
	}

	c := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		Issuer:    issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired, and has an expiry at all
//   - Issuer is "blog"
//   - Algorithm is HS256 (WithValidMethods blocks the "alg: none" trick)
//
// On top of that, both sub and jti must be present.
func (s *TokenService) Validate(tokenStr string) (*SessionClaims, error) {
	c := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(
		tokenStr,
		c,
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("auth: invalid token")
	}

	if c.Subject == "" || c.ID == "" {
		return nil, fmt.Errorf("auth: token is missing subject or session id")
	}

	return &SessionClaims{
		UserID:    c.Subject,
		SessionID: c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
