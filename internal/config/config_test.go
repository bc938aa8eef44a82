package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123"

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{"SESSION_SECRET": secret}))
	require.NoError(t, err)

	want := &Config{
		Port:            8080,
		DBPath:          "data/blog.db",
		SessionSecret:   secret,
		SessionTTL:      24 * time.Hour,
		RememberTTL:     365 * 24 * time.Hour,
		CookieSecure:    false,
		LogLevel:        "info",
		LogFormat:       "text",
		ShutdownTimeout: 30 * time.Second,
		BcryptCost:      12,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"SESSION_SECRET":   secret,
		"PORT":             "9090",
		"DB_PATH":          ":memory:",
		"SESSION_TTL":      "2h",
		"REMEMBER_TTL":     "720h",
		"COOKIE_SECURE":    "true",
		"LOG_LEVEL":        "DEBUG",
		"LOG_FORMAT":       "json",
		"SHUTDOWN_TIMEOUT": "5s",
		"BCRYPT_COST":      "10",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 720*time.Hour, cfg.RememberTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 10, cfg.BcryptCost)
}

func TestFromLookup_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantMsg string
	}{
		{"missing secret", map[string]string{}, "SESSION_SECRET is required"},
		{"short secret", map[string]string{"SESSION_SECRET": "short"}, "at least 16"},
		{"bad port", map[string]string{"SESSION_SECRET": secret, "PORT": "http"}, "PORT"},
		{"port out of range", map[string]string{"SESSION_SECRET": secret, "PORT": "70000"}, "PORT must be"},
		{"bad duration", map[string]string{"SESSION_SECRET": secret, "SESSION_TTL": "1 day"}, "SESSION_TTL"},
		{"negative duration", map[string]string{"SESSION_SECRET": secret, "REMEMBER_TTL": "-1h"}, "positive"},
		{"bad bool", map[string]string{"SESSION_SECRET": secret, "COOKIE_SECURE": "yes please"}, "COOKIE_SECURE"},
		{"bad level", map[string]string{"SESSION_SECRET": secret, "LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"bad format", map[string]string{"SESSION_SECRET": secret, "LOG_FORMAT": "xml"}, "LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromLookup(lookupFrom(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestFromLookup_ReportsEveryProblem(t *testing.T) {
	_, err := FromLookup(lookupFrom(map[string]string{
		"PORT":       "abc",
		"LOG_FORMAT": "xml",
	}))
	require.Error(t, err)
	for _, want := range []string{"SESSION_SECRET", "PORT", "LOG_FORMAT"} {
		assert.True(t, strings.Contains(err.Error(), want), "error should mention %s: %v", want, err)
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("SESSION_SECRET="+secret+"\nPORT=7070\n"), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// Variables already in the environment win over the file.
	t.Setenv("PORT", "6060")
	// godotenv sets what it loads into the real environment; register the
	// secret with t.Setenv first so it is restored after the test.
	t.Setenv("SESSION_SECRET", "")
	os.Unsetenv("SESSION_SECRET")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, secret, cfg.SessionSecret)
	assert.Equal(t, 6060, cfg.Port)
}
