// Package config loads the server configuration from the environment.
//
// Values come from environment variables. A .env file in the working
// directory, if present, is loaded first; variables already set in the real
// environment win over the file.
//
//	PORT=8080
//	DB_PATH=data/blog.db
//	SESSION_SECRET=$(openssl rand -hex 32)   # required
//	SESSION_TTL=24h
//	REMEMBER_TTL=8760h
//	COOKIE_SECURE=false
//	LOG_LEVEL=info                           # debug | info | warn | error
//	LOG_FORMAT=text                          # text | json
//	SHUTDOWN_TIMEOUT=30s
//	BCRYPT_COST=12
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the complete server configuration.
type Config struct {
	Port            int
	DBPath          string
	SessionSecret   string
	SessionTTL      time.Duration
	RememberTTL     time.Duration
	CookieSecure    bool
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	BcryptCost      int
}

// minSecretLength mirrors auth.MinSecretLength; checked here so a bad secret
// fails at startup with a config error rather than deep in server wiring.
const minSecretLength = 16

// Load reads .env (if present) and the environment into a Config.
// Every problem is reported at once, joined into a single error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, which has the signature of
// os.LookupEnv. Tests pass a map-backed function.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	p := parser{lookup: lookup}

	cfg := &Config{
		Port:            p.int("PORT", 8080),
		DBPath:          p.string("DB_PATH", "data/blog.db"),
		SessionSecret:   p.string("SESSION_SECRET", ""),
		SessionTTL:      p.duration("SESSION_TTL", 24*time.Hour),
		RememberTTL:     p.duration("REMEMBER_TTL", 365*24*time.Hour),
		CookieSecure:    p.bool("COOKIE_SECURE", false),
		LogLevel:        strings.ToLower(p.string("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(p.string("LOG_FORMAT", "text")),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 30*time.Second),
		BcryptCost:      p.int("BCRYPT_COST", 12),
	}

	if cfg.SessionSecret == "" {
		p.fail("SESSION_SECRET is required (generate one with: openssl rand -hex 32)")
	} else if len(cfg.SessionSecret) < minSecretLength {
		p.fail(fmt.Sprintf("SESSION_SECRET must be at least %d characters", minSecretLength))
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		p.fail(fmt.Sprintf("PORT must be between 1 and 65535, got %d", cfg.Port))
	}
	if cfg.SessionTTL <= 0 || cfg.RememberTTL <= 0 || cfg.ShutdownTimeout <= 0 {
		p.fail("SESSION_TTL, REMEMBER_TTL and SHUTDOWN_TIMEOUT must be positive")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		p.fail(fmt.Sprintf("LOG_LEVEL must be debug, info, warn or error, got %q", cfg.LogLevel))
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		p.fail(fmt.Sprintf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat))
	}

	if len(p.errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(p.errs...))
	}
	return cfg, nil
}

// parser reads typed values and collects every parse error instead of
// stopping at the first, so one startup attempt shows them all.
type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) fail(msg string) {
	p.errs = append(p.errs, errors.New(msg))
}

func (p *parser) raw(key string) (string, bool) {
	v, ok := p.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (p *parser) string(key, def string) string {
	if v, ok := p.raw(key); ok {
		return v
	}
	return def
}

func (p *parser) int(key string, def int) int {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(fmt.Sprintf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (p *parser) bool(key string, def bool) bool {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(fmt.Sprintf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(fmt.Sprintf("%s: %q is not a duration (try 30s, 24h)", key, v))
		return def
	}
	return d
}
