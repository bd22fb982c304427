package config

import (
	"strings"
	"testing"
	"time"
)

func setValidEnv(t *testing.T) {
	t.Setenv("PORT", "8002")
	t.Setenv("ADDRESS", "127.0.0.1")
	t.Setenv("ENV", "dev")
	t.Setenv("LOG_LEVEL", "info")
}

func TestLoadValidConfig(t *testing.T) {
	setValidEnv(t)
	t.Setenv("RECORDS_SOURCE", "https://records.internal/prescriptions.tsv")
	t.Setenv("REFRESH_TIMES", "05:30; 17:30")
	t.Setenv("CONFIRM_PHRASE", "DELETE")
	t.Setenv("REQUIRE_TYPING", "false")
	t.Setenv("SESSION_MAX_AGE", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8002" {
		t.Errorf("Expected port 8002, got %s", cfg.Port)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Expected env dev, got %s", cfg.Env)
	}
	if cfg.RefreshSpec() != "05:30;17:30" {
		t.Errorf("Expected refresh spec 05:30;17:30, got %s", cfg.RefreshSpec())
	}
	if cfg.ConfirmPhrase != "DELETE" {
		t.Errorf("Expected phrase DELETE, got %s", cfg.ConfirmPhrase)
	}
	if cfg.RequireTyping {
		t.Error("Expected typing requirement to be disabled")
	}
	if cfg.SessionMaxAge != 5*time.Minute {
		t.Errorf("Expected 5m session max age, got %s", cfg.SessionMaxAge)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	for _, key := range GetEnvVars() {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Address != "127.0.0.1" {
		t.Errorf("Expected default address 127.0.0.1, got %s", cfg.Address)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.ConfirmPhrase != "CONFIRM" {
		t.Errorf("Expected default phrase CONFIRM, got %s", cfg.ConfirmPhrase)
	}
	if !cfg.RequireTyping {
		t.Error("Expected typing to be required by default")
	}
	if cfg.RefreshSpec() != "06:00;18:00" {
		t.Errorf("Expected default refresh spec, got %s", cfg.RefreshSpec())
	}
	if cfg.SessionMaxAge != 15*time.Minute {
		t.Errorf("Expected 15m default, got %s", cfg.SessionMaxAge)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{"non numeric port", "PORT", "abc", "PORT must be a valid number"},
		{"port out of range", "PORT", "65536", "PORT must be between 1 and 65535"},
		{"privileged port", "PORT", "80", "PORT 80 is privileged"},
		{"bad address", "ADDRESS", "invalid", "ADDRESS must be a valid IP address"},
		{"public address", "ADDRESS", "8.8.8.8", "is a public IP"},
		{"bad env", "ENV", "qa", "ENV must be one of"},
		{"bad log level", "LOG_LEVEL", "trace", "LOG_LEVEL must be one of"},
		{"body too large", "MAX_REQUEST_BODY", "209715200", "MAX_REQUEST_BODY is too large"},
		{"retention too long", "LOG_RETENTION_WEEKS", "60", "LOG_RETENTION_WEEKS is too large"},
		{"log file too small", "MAX_LOG_FILE_SIZE", "1000", "MAX_LOG_FILE_SIZE is too small"},
		{"ftp source", "RECORDS_SOURCE", "ftp://records/p.tsv", "scheme must be http or https"},
		{"bad refresh time", "REFRESH_TIMES", "6am", "must be HH:MM"},
		{"padded phrase", "CONFIRM_PHRASE", " DELETE", "CONFIRM_PHRASE must be non-empty"},
		{"session age too short", "SESSION_MAX_AGE", "10s", "SESSION_MAX_AGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setValidEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Expected error for %s=%s, got nil", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.expected) {
				t.Errorf("Expected error containing %q, got %v", tt.expected, err)
			}
		})
	}
}

func TestProdRequiresRecordsSource(t *testing.T) {
	setValidEnv(t)
	t.Setenv("ENV", "prod")
	t.Setenv("RECORDS_SOURCE", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "required in prod") {
		t.Errorf("Expected missing source error in prod, got %v", err)
	}

	t.Setenv("RECORDS_SOURCE", "/var/lib/portal/prescriptions.tsv")
	if _, err := Load(); err != nil {
		t.Errorf("Expected file path source to be accepted, got %v", err)
	}
}

func TestEnvIsCaseInsensitive(t *testing.T) {
	setValidEnv(t)
	t.Setenv("ENV", "STAGING")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Env != EnvStaging || cfg.LogLevel != "debug" {
		t.Errorf("Expected staging/debug, got %s/%s", cfg.Env, cfg.LogLevel)
	}
}
