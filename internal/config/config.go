// Package config loads application configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/kavehm/watchlog/internal/logger"
)

// Config holds all runtime configuration. Every field maps to one
// environment variable; required values fail fast at startup through
// must()/mustInt(). Token settings (secret, issuer, audience, TTL) are
// carried here and handed to services at construction time; nothing reads
// them ambiently mid-request.
type Config struct {
	Env            string // application environment (dev/test/prod)
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host
	DBPort         string // database port
	DBName         string // database name
	JWTSecret      string // symmetric key for signing access tokens
	JWTIssuer      string // `iss` claim written and enforced on verify
	JWTAudience    string // `aud` claim written and enforced on verify
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	RateLimitPerMin int           // auth requests allowed per client per minute (0 disables)
	CacheTTL        time.Duration // TTL for cached public catalog responses (0 disables)
}

// Load reads configuration from the environment. Missing required
// variables abort the process.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		JWTIssuer:      getEnv("JWT_ISSUER", "watchlog"),
		JWTAudience:    getEnv("JWT_AUDIENCE", "watchlog-api"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 60),
		CacheTTL:        time.Duration(intEnv("CACHE_TTL_SEC", 30)) * time.Second,
	}
}

// must retrieves a required environment variable or aborts.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Get().Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is must() plus integer conversion.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		logger.Get().Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// getEnv returns the variable's value or a default when unset.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// intEnv returns the variable parsed as int or a default when unset/invalid.
func intEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
