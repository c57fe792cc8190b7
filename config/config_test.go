package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:  "single service - http",
			input: "http",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP: true,
			},
		},
		{
			name:  "single service - reaper",
			input: "reaper",
			expected: map[ServiceMode]bool{
				ServiceModeReaper: true,
			},
		},
		{
			name:  "both services",
			input: "http,reaper",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:   true,
				ServiceModeReaper: true,
			},
		},
		{
			name:  "services with spaces",
			input: " http , reaper ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:   true,
				ServiceModeReaper: true,
			},
		},
		{
			name:  "duplicate services",
			input: "http,http,reaper",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:   true,
				ServiceModeReaper: true,
			},
		},
		{
			name:        "empty string",
			input:       "",
			expectError: true,
		},
		{
			name:        "invalid service",
			input:       "http,scheduler",
			expectError: true,
		},
		{
			name:        "only separators",
			input:       ", ,",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServices(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("ParseServices(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseServices(%q) unexpected error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseServices(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAuthConfigSanitize(t *testing.T) {
	tests := []struct {
		name     string
		in       AuthConfig
		wantCost int
		wantTTL  time.Duration
	}{
		{
			name:     "defaults preserved",
			in:       AuthConfig{TokenTTL: 24 * time.Hour, BcryptCost: 10},
			wantCost: 10,
			wantTTL:  24 * time.Hour,
		},
		{
			name:     "cost clamped up",
			in:       AuthConfig{TokenTTL: time.Hour, BcryptCost: 4},
			wantCost: 10,
			wantTTL:  time.Hour,
		},
		{
			name:     "cost clamped down",
			in:       AuthConfig{TokenTTL: time.Hour, BcryptCost: 31},
			wantCost: 12,
			wantTTL:  time.Hour,
		},
		{
			name:     "non-positive ttl replaced",
			in:       AuthConfig{TokenTTL: 0, BcryptCost: 11},
			wantCost: 11,
			wantTTL:  24 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.in
			cfg.Sanitize()
			if cfg.BcryptCost != tt.wantCost {
				t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, tt.wantCost)
			}
			if cfg.TokenTTL != tt.wantTTL {
				t.Errorf("TokenTTL = %v, want %v", cfg.TokenTTL, tt.wantTTL)
			}
			if cfg.SessionBackend != SessionBackendPostgres {
				t.Errorf("SessionBackend = %q, want postgres default", cfg.SessionBackend)
			}
		})
	}
}

func TestSessionBackendUnmarshalText(t *testing.T) {
	var b SessionBackend
	if err := b.UnmarshalText([]byte("Redis")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != SessionBackendRedis {
		t.Errorf("got %q, want redis", b)
	}

	if err := b.UnmarshalText([]byte("memcached")); err == nil {
		t.Error("expected error for invalid backend")
	}
}

func TestReaperConfigSanitize(t *testing.T) {
	cfg := ReaperConfig{Interval: time.Second, BatchSize: 0}
	cfg.Sanitize()
	if cfg.Interval != time.Minute {
		t.Errorf("Interval = %v, want 1m floor", cfg.Interval)
	}
	if cfg.BatchSize != 1 {
		t.Errorf("BatchSize = %d, want 1 floor", cfg.BatchSize)
	}

	cfg = ReaperConfig{Interval: time.Hour, BatchSize: 50000}
	cfg.Sanitize()
	if cfg.BatchSize != 10000 {
		t.Errorf("BatchSize = %d, want 10000 ceiling", cfg.BatchSize)
	}
}

func TestAppConfigParsesFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SERVICES", "http")
	t.Setenv("AUTH_TOKEN_TTL", "1h")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("DB_HOST", "db.internal")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("env.Parse: %v", err)
	}
	cfg.Sanitize()

	if cfg.Auth.JWTSecret != "test-secret" {
		t.Errorf("JWTSecret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("TokenTTL = %v, want 1h", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.SessionBackend != SessionBackendRedis {
		t.Errorf("SessionBackend = %q, want redis", cfg.Auth.SessionBackend)
	}
	if cfg.Postgres.Host != "db.internal" {
		t.Errorf("Postgres.Host = %q", cfg.Postgres.Host)
	}
	if !cfg.IsHTTPServerEnabled() {
		t.Error("http service should be enabled")
	}
	if cfg.IsReaperEnabled() {
		t.Error("reaper service should be disabled")
	}
}
