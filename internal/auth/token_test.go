package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-16-chars!!"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService_SecretLength(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Error("NewTokenService() should reject secrets shorter than 16 chars")
	}
	if _, err := NewTokenService("this-is-16-chars"); err != nil {
		t.Errorf("NewTokenService() unexpected error for a 16-char secret: %v", err)
	}
}

func TestGenerateValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)
	expires := time.Now().Add(time.Hour).Truncate(time.Second)

	token, err := ts.Generate("user-1", "session-1", expires)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("Generate() token doesn't look like a JWT: %q", token)
	}

	claims, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.UserID != "user-1" || claims.SessionID != "session-1" {
		t.Errorf("Validate() = %+v, want user-1/session-1", claims)
	}
	if !claims.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt, expires)
	}
}

func TestGenerate_RequiresIDs(t *testing.T) {
	ts := newTestTokenService(t)
	if _, err := ts.Generate("", "s", time.Now().Add(time.Hour)); err == nil {
		t.Error("Generate() accepted an empty user ID")
	}
	if _, err := ts.Generate("u", "", time.Now().Add(time.Hour)); err == nil {
		t.Error("Generate() accepted an empty session ID")
	}
}

func TestValidate_Rejects(t *testing.T) {
	ts := newTestTokenService(t)
	good, _ := ts.Generate("user-1", "session-1", time.Now().Add(time.Hour))
	expired, _ := ts.Generate("user-1", "session-1", time.Now().Add(-time.Second))

	other, _ := NewTokenService("a-completely-different-secret!!")
	foreign, _ := other.Generate("user-1", "session-1", time.Now().Add(time.Hour))

	// Correctly signed, but with the "none" algorithm.
	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: "user-1", ID: "session-1", Issuer: issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	// Right secret, but no session id.
	noJTI, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user-1", Issuer: issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))

	// Right secret, but no expiry.
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user-1", ID: "session-1", Issuer: issuer,
	}).SignedString([]byte(testSecret))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"tampered signature", good[:len(good)-3] + "xxx"},
		{"expired", expired},
		{"signed with another secret", foreign},
		{"alg none", unsigned},
		{"missing session id", noJTI},
		{"missing expiry", noExp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ts.Validate(tt.token); err == nil {
				t.Errorf("Validate() accepted a %s token", tt.name)
			}
		})
	}
}
