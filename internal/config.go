package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// DefaultClientID is the fixed OAuth client identity the brokerage issues
// to its first-party applications; the token endpoint rejects exchanges
// without it.
const DefaultClientID = "c82SH0WZOsabOXGP2sxqcj34FxkvfnWRZBKlBjFS"

// Config holds application configuration
type Config struct {
	BaseURL             string
	ClientID            string
	TimeoutSeconds      int
	SessionFile         string
	PersistPassword     bool
	MaxThrottleAttempts int // 0 means retry until the server stops throttling
	ProxyURL            string

	// Logging configuration
	LogLevel    string
	EnableDebug bool
	QuietMode   bool
	LogFile     string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:             "https://api.robinhood.com",
		ClientID:            DefaultClientID,
		TimeoutSeconds:      30,
		SessionFile:         defaultSessionFile(),
		PersistPassword:     false,
		MaxThrottleAttempts: 0,

		LogLevel:    "info",
		EnableDebug: false,
		QuietMode:   false,
		LogFile:     "", // Empty means stderr
	}
}

// defaultSessionFile places the session record under the user's home
// directory, falling back to the working directory when home is unknown
func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rhfetch/session.json"
	}
	return filepath.Join(home, ".rhfetch", "session.json")
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() {
	if baseURL := os.Getenv("RHFETCH_BASE_URL"); baseURL != "" {
		c.BaseURL = baseURL
	}

	if timeout := os.Getenv("RHFETCH_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil && t > 0 {
			c.TimeoutSeconds = t
		}
	}

	if sessionFile := os.Getenv("RHFETCH_SESSION_FILE"); sessionFile != "" {
		c.SessionFile = sessionFile
	}

	if persist := os.Getenv("RHFETCH_PERSIST_PASSWORD"); persist != "" {
		c.PersistPassword = persist == "true" || persist == "1"
	}

	if attempts := os.Getenv("RHFETCH_MAX_ATTEMPTS"); attempts != "" {
		if a, err := strconv.Atoi(attempts); err == nil && a >= 0 {
			c.MaxThrottleAttempts = a
		}
	}

	if proxyURL := os.Getenv("RHFETCH_PROXY"); proxyURL != "" {
		c.ProxyURL = proxyURL
	}

	// Load logging configuration from environment
	if logLevel := os.Getenv("RHFETCH_LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}

	if debug := os.Getenv("RHFETCH_DEBUG"); debug != "" {
		c.EnableDebug = debug == "true" || debug == "1"
	}

	if quiet := os.Getenv("RHFETCH_QUIET"); quiet != "" {
		c.QuietMode = quiet == "true" || quiet == "1"
	}

	if logFile := os.Getenv("RHFETCH_LOG_FILE"); logFile != "" {
		c.LogFile = logFile
	}
}

// ValidateConfig validates the configuration values
func (c *Config) ValidateConfig() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	if c.ClientID == "" {
		return fmt.Errorf("client ID cannot be empty")
	}

	if c.TimeoutSeconds < 1 {
		return fmt.Errorf("invalid timeout: %d (must be > 0)", c.TimeoutSeconds)
	}

	if c.SessionFile == "" {
		return fmt.Errorf("session file path cannot be empty")
	}

	if c.MaxThrottleAttempts < 0 {
		return fmt.Errorf("invalid max throttle attempts: %d (must be >= 0)", c.MaxThrottleAttempts)
	}

	return nil
}
