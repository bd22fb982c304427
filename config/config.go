// Package config loads and validates the service configuration from the environment.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Environment names accepted in ENV.
const (
	EnvDevelopment = "dev"
	EnvStaging     = "staging"
	EnvProduction  = "prod"
	EnvTest        = "test"
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               string
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes

	RecordsSource string   // Path or http(s) URL of the prescriptions TSV export
	RefreshTimes  []string // HH:MM times of the daily refreshes
	ConfirmPhrase string
	RequireTyping bool
	SessionMaxAge time.Duration
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              envOr("PORT", "8000", parseString),
		Address:           envOr("ADDRESS", "127.0.0.1", parseString),
		Env:               strings.ToLower(envOr("ENV", EnvDevelopment, parseString)),
		LogLevel:          strings.ToLower(envOr("LOG_LEVEL", "info", parseString)),
		LogDir:            envOr("LOG_DIR", "logs", parseString),
		LogRetentionWeeks: envOr("LOG_RETENTION_WEEKS", 4, strconv.Atoi),
		MaxLogFileSize:    envOr("MAX_LOG_FILE_SIZE", 100*mb, parseInt64),
		MaxRequestBody:    envOr("MAX_REQUEST_BODY", mb, parseInt64),
		MaxHeaderSize:     envOr("MAX_HEADER_SIZE", mb, parseInt64),
		RecordsSource:     os.Getenv("RECORDS_SOURCE"),
		RefreshTimes:      splitTimes(envOr("REFRESH_TIMES", "06:00;18:00", parseString)),
		ConfirmPhrase:     envOr("CONFIRM_PHRASE", "CONFIRM", parseString),
		RequireTyping:     envOr("REQUIRE_TYPING", true, strconv.ParseBool),
		SessionMaxAge:     envOr("SESSION_MAX_AGE", 15*time.Minute, time.ParseDuration),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// RefreshSpec joins RefreshTimes in the form gocron's At expects.
func (c *Config) RefreshSpec() string {
	return strings.Join(c.RefreshTimes, ";")
}

const mb = 1024 * 1024

// check validates one variable. Checks run in order and the first failure wins.
type check struct {
	name string
	fn   func(*Config) error
}

var checks = []check{
	{"PORT", func(c *Config) error { return validatePort(c.Port) }},
	{"ADDRESS", func(c *Config) error { return validateAddress(c.Address) }},
	{"ENV", func(c *Config) error {
		return oneOf("ENV", c.Env, EnvDevelopment, EnvStaging, EnvProduction, EnvTest)
	}},
	{"LOG_LEVEL", func(c *Config) error { return oneOf("LOG_LEVEL", c.LogLevel, "debug", "info", "warn", "error") }},
	{"MAX_REQUEST_BODY", func(c *Config) error { return inRange("MAX_REQUEST_BODY", c.MaxRequestBody, 1, 100*mb) }},
	{"MAX_HEADER_SIZE", func(c *Config) error { return inRange("MAX_HEADER_SIZE", c.MaxHeaderSize, 1, 100*mb) }},
	{"LOG_RETENTION_WEEKS", func(c *Config) error { return inRange("LOG_RETENTION_WEEKS", c.LogRetentionWeeks, 1, 52) }},
	{"MAX_LOG_FILE_SIZE", func(c *Config) error { return inRange("MAX_LOG_FILE_SIZE", c.MaxLogFileSize, mb, 1024*mb) }},
	{"RECORDS_SOURCE", func(c *Config) error { return validateRecordsSource(c.RecordsSource, c.Env) }},
	{"REFRESH_TIMES", func(c *Config) error { return validateRefreshTimes(c.RefreshTimes) }},
	{"CONFIRM_PHRASE", func(c *Config) error { return validateConfirmPhrase(c.ConfirmPhrase) }},
	{"SESSION_MAX_AGE", func(c *Config) error {
		return inRange("SESSION_MAX_AGE", c.SessionMaxAge, time.Minute, 24*time.Hour)
	}},
}

func validateConfig(cfg *Config) error {
	for _, c := range checks {
		if err := c.fn(cfg); err != nil {
			return fmt.Errorf("invalid %s: %w", c.name, err)
		}
	}
	return nil
}

func validatePort(port string) error {
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress only accepts addresses reachable through the reverse proxy.
func validateAddress(address string) error {
	if address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %q", address)
	}

	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, bind to a private or loopback address behind the proxy", address)
	}

	return nil
}

func oneOf(name, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("%s must be one of: %v, got: %q", name, allowed, value)
}

func inRange[T int | int64 | time.Duration](name string, value, lo, hi T) error {
	if value < lo {
		return fmt.Errorf("%s is too small (min %v), got: %v", name, lo, value)
	}
	if value > hi {
		return fmt.Errorf("%s is too large (max %v), got: %v", name, hi, value)
	}
	return nil
}

// validateRecordsSource accepts an http(s) URL or a file path. Only prod requires it.
func validateRecordsSource(source, env string) error {
	if source == "" {
		if env == EnvProduction {
			return fmt.Errorf("RECORDS_SOURCE is required in prod")
		}
		return nil
	}

	if !strings.Contains(source, "://") {
		return nil
	}

	u, err := url.Parse(source)
	switch {
	case err != nil:
		return fmt.Errorf("RECORDS_SOURCE is not a valid URL: %w", err)
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("RECORDS_SOURCE scheme must be http or https, got: %s", u.Scheme)
	case u.Host == "":
		return fmt.Errorf("RECORDS_SOURCE URL has no host")
	}
	return nil
}

func validateRefreshTimes(times []string) error {
	if len(times) == 0 {
		return fmt.Errorf("at least one refresh time is required")
	}
	for _, t := range times {
		if _, err := time.Parse("15:04", t); err != nil {
			return fmt.Errorf("refresh time %q must be HH:MM", t)
		}
	}
	return nil
}

func validateConfirmPhrase(phrase string) error {
	if strings.TrimSpace(phrase) != phrase || phrase == "" {
		return fmt.Errorf("CONFIRM_PHRASE must be non-empty without surrounding spaces")
	}
	if len(phrase) > 32 {
		return fmt.Errorf("CONFIRM_PHRASE is too long (max 32 characters)")
	}
	return nil
}

func splitTimes(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envOr parses key with parse, falling back to def when unset or unparsable.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func parseString(s string) (string, error) { return s, nil }

func parseInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"RECORDS_SOURCE",
		"REFRESH_TIMES",
		"CONFIRM_PHRASE",
		"REQUIRE_TYPING",
		"SESSION_MAX_AGE",
	}
}
