// WHY BCRYPT?
// bcrypt is a password hashing function specifically designed to be slow.
// That slowness is a security feature: it makes brute-force attacks expensive.
//
// bcrypt automatically:
//   - Generates a random salt (so two users with the same password get different hashes)
//   - Embeds the salt in the output hash (no separate salt column needed)
//   - Controls the work factor via "cost" (higher = slower = harder to crack)
//
// Hash format (the full output of bcrypt.GenerateFromPassword):
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (12 rounds → 2^12 = 4096 iterations)
//	 version
package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used in production.
// Roughly 250ms per hash on a modern server: negligible for a login,
// brutal for someone trying a billion guesses.
const DefaultCost = 12

// MaxPasswordBytes is bcrypt's input limit. Longer inputs would be silently
// truncated, so we reject them instead.
const MaxPasswordBytes = 72

// ErrPasswordMismatch is returned by Verify when the password is wrong.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so the cost can be injected: tests use
// bcrypt.MinCost (4) and run hundreds of times faster.
type PasswordService struct {
	cost int

	dummyOnce sync.Once
	dummyHash string
}

// NewPasswordService creates a PasswordService with the given bcrypt cost.
// A cost of 0 selects DefaultCost.
func NewPasswordService(cost int) (*PasswordService, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	return &PasswordService{cost: cost}, nil
}

// NewPasswordServiceForTest creates a PasswordService with the minimum bcrypt
// cost. Use this in tests in other packages. Do NOT use in production.
func NewPasswordServiceForTest() *PasswordService {
	return &PasswordService{cost: bcrypt.MinCost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// Store the result directly in the database. It includes the salt and
// cost, and bcrypt.CompareHashAndPassword knows how to decode it.
//
// Returns an error if the plaintext is longer than MaxPasswordBytes.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
//
// Returns nil if they match, ErrPasswordMismatch if they don't, and another
// error if the stored hash is malformed.
//
// bcrypt.CompareHashAndPassword compares in constant time, so response time
// doesn't leak how much of the password was right.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// DummyHash returns a valid bcrypt hash of a password nobody knows, at this
// service's cost. It is computed once and reused.
//
// Login with an unknown email verifies against it, so that request takes
// as long as a login with a wrong password. Without it, an attacker could
// time the two cases apart and learn which emails are registered.
func (p *PasswordService) DummyHash() string {
	p.dummyOnce.Do(func() {
		hashed, err := bcrypt.GenerateFromPassword([]byte("dummy password for timing equalization"), p.cost)
		if err == nil {
			p.dummyHash = string(hashed)
		}
	})
	return p.dummyHash
}
