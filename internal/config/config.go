// Package config loads application configuration from environment
// variables.  An optional .env file is read first by LoadDotEnv.
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

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env             string        // APP_ENV, e.g. "dev" or "prod"
	Port            string        // APP_PORT
	DBUser          string        // DB_USER
	DBPass          string        // DB_PASS, may be empty
	DBHost          string        // DB_HOST
	DBPort          string        // DB_PORT
	DBName          string        // DB_NAME
	DBTxTimeout     time.Duration // DB_TX_TIMEOUT, per-transaction statement budget
	JWTSecret       string        // JWT_SECRET
	ShowtimeMinLead time.Duration // SHOWTIME_MIN_LEAD, how far ahead a showtime must start
	RabbitMQURL     string        // RABBITMQ_URL, empty disables booking events
	TicketAuditLog  string        // TICKET_AUDIT_LOG, file the event consumer appends to
	LogLevel        string        // LOG_LEVEL
	LogFile         string        // LOG_FILE, empty disables the JSON file sink
	MigrateOnStart  bool          // MIGRATE_ON_START
}

// LoadDotEnv loads variables from path when the file exists.  Variables
// already present in the environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// Load reads configuration values from environment variables.  Every
// missing required variable is reported in the returned error.
func Load() (Config, error) {
	var l loader
	cfg := Config{
		Env:             l.must("APP_ENV"),
		Port:            l.must("APP_PORT"),
		DBUser:          l.must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"),
		DBHost:          l.must("DB_HOST"),
		DBPort:          l.must("DB_PORT"),
		DBName:          l.must("DB_NAME"),
		DBTxTimeout:     l.dur("DB_TX_TIMEOUT", 5*time.Second),
		JWTSecret:       l.must("JWT_SECRET"),
		ShowtimeMinLead: l.dur("SHOWTIME_MIN_LEAD", time.Hour),
		RabbitMQURL:     os.Getenv("RABBITMQ_URL"),
		TicketAuditLog:  envStr("TICKET_AUDIT_LOG", "logs/tickets.log"),
		LogLevel:        envStr("LOG_LEVEL", "INFO"),
		LogFile:         os.Getenv("LOG_FILE"),
		MigrateOnStart:  envBool("MIGRATE_ON_START", false),
	}
	if len(l.errs) > 0 {
		return Config{}, errors.Join(l.errs...)
	}
	return cfg, nil
}

type loader struct {
	errs []error
}

// must retrieves the value of a required environment variable.
func (l *loader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		l.errs = append(l.errs, fmt.Errorf("missing required env var: %s", key))
	}
	return v
}

// dur parses an optional duration, reporting malformed values rather
// than silently falling back.
func (l *loader) dur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		l.errs = append(l.errs, fmt.Errorf("invalid duration for %s: %q", key, v))
		return def
	}
	return d
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}
