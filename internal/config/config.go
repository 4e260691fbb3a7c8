// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration. Each field corresponds to an
// environment variable; required variables are enforced by must() and
// missing values abort startup.
type Config struct {
	Env            string        // application environment (dev/test/prod)
	Port           string        // HTTP port to listen on
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host
	DBPort         string        // database port
	DBName         string        // database name
	SessionTTL     time.Duration // server-side session lifetime (fixed, no sliding expiry)
	ResetSecret    string        // secret used to sign password reset tokens
	ResetTokenTTL  time.Duration // password reset token lifetime
	AdminSeedUser  string        // optional bootstrap admin username
	AdminSeedPass  string        // optional bootstrap admin password
}

// Load reads configuration from the environment. The session TTL defaults
// to 24 hours and the reset token TTL to 30 minutes.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		SessionTTL:    time.Duration(intOr("SESSION_TTL_HOURS", 24)) * time.Hour,
		ResetSecret:   must("RESET_TOKEN_SECRET"),
		ResetTokenTTL: time.Duration(intOr("RESET_TOKEN_TTL_MIN", 30)) * time.Minute,
		AdminSeedUser: os.Getenv("ADMIN_SEED_USER"),
		AdminSeedPass: os.Getenv("ADMIN_SEED_PASS"),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// intOr retrieves an optional integer environment variable with a default.
func intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
