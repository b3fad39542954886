package internal

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BaseURL != "https://api.robinhood.com" {
		t.Errorf("Unexpected default base URL: %s", config.BaseURL)
	}
	if config.ClientID != DefaultClientID {
		t.Error("Expected the fixed OAuth client identity")
	}
	if config.PersistPassword {
		t.Error("Expected password persistence to default off")
	}
	if config.MaxThrottleAttempts != 0 {
		t.Errorf("Expected unbounded throttle retries by default, got %d", config.MaxThrottleAttempts)
	}
	if !strings.HasSuffix(config.SessionFile, "session.json") {
		t.Errorf("Unexpected default session file: %s", config.SessionFile)
	}
	if err := config.ValidateConfig(); err != nil {
		t.Errorf("Expected the default config to validate: %v", err)
	}
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("RHFETCH_BASE_URL", "https://sandbox.example.com")
	t.Setenv("RHFETCH_TIMEOUT", "60")
	t.Setenv("RHFETCH_SESSION_FILE", "/tmp/rh-session.json")
	t.Setenv("RHFETCH_PERSIST_PASSWORD", "true")
	t.Setenv("RHFETCH_MAX_ATTEMPTS", "5")
	t.Setenv("RHFETCH_QUIET", "1")

	config := DefaultConfig()
	config.LoadFromEnv()

	if config.BaseURL != "https://sandbox.example.com" {
		t.Errorf("Expected base URL from env, got %s", config.BaseURL)
	}
	if config.TimeoutSeconds != 60 {
		t.Errorf("Expected timeout 60, got %d", config.TimeoutSeconds)
	}
	if config.SessionFile != "/tmp/rh-session.json" {
		t.Errorf("Expected session file from env, got %s", config.SessionFile)
	}
	if !config.PersistPassword {
		t.Error("Expected PersistPassword from env")
	}
	if config.MaxThrottleAttempts != 5 {
		t.Errorf("Expected max attempts 5, got %d", config.MaxThrottleAttempts)
	}
	if !config.QuietMode {
		t.Error("Expected quiet mode from env")
	}
}

func TestConfig_LoadFromEnv_IgnoresInvalid(t *testing.T) {
	t.Setenv("RHFETCH_TIMEOUT", "not-a-number")
	t.Setenv("RHFETCH_MAX_ATTEMPTS", "-2")

	config := DefaultConfig()
	config.LoadFromEnv()

	if config.TimeoutSeconds != 30 {
		t.Errorf("Expected the default timeout to survive garbage env, got %d", config.TimeoutSeconds)
	}
	if config.MaxThrottleAttempts != 0 {
		t.Errorf("Expected the default attempts to survive negative env, got %d", config.MaxThrottleAttempts)
	}
}

func TestConfig_ValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty base URL", mutate: func(c *Config) { c.BaseURL = "" }},
		{name: "empty client ID", mutate: func(c *Config) { c.ClientID = "" }},
		{name: "zero timeout", mutate: func(c *Config) { c.TimeoutSeconds = 0 }},
		{name: "empty session file", mutate: func(c *Config) { c.SessionFile = "" }},
		{name: "negative attempts", mutate: func(c *Config) { c.MaxThrottleAttempts = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			if err := config.ValidateConfig(); err == nil {
				t.Error("Expected validation to fail")
			}
		})
	}
}
