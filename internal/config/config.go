package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Keychain coordinates for the completion API key.
const (
	keychainService = "tutor"
	keychainAccount = "completion_api_key"
)

type Config struct {
	Server     ServerConfig
	Completion CompletionConfig
	Session    SessionConfig
	Storage    StorageConfig
	Log        LogConfig
	MCP        MCPConfig
}

type ServerConfig struct {
	Port int
}

type CompletionConfig struct {
	BaseURL          string
	Model            string
	APIKey           string
	Temperature      float64
	MaxTokens        int
	Timeout          string
	RateLimitRetries int
}

type SessionConfig struct {
	TTL              string
	MaxContextTokens int
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type MCPConfig struct {
	Enabled bool
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4100,
		},
		Completion: CompletionConfig{
			BaseURL:     "https://api.mistral.ai/v1",
			Model:       "mistral-large-latest",
			Temperature: 0.7,
			MaxTokens:   800,
			Timeout:     "60s",
		},
		Session: SessionConfig{
			TTL:              "30m",
			MaxContextTokens: 4000,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// TimeoutDuration parses Completion.Timeout. Load has already validated it.
func (c CompletionConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// TTLDuration parses Session.TTL. Load has already validated it.
func (c SessionConfig) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.tutor.app) and secrets
// fall back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/tutor/config.json
// and secrets come from environment variables or the secrets file written by
// SetAPIKey.
//
// Environment variables (TUTOR_*) override backend values on all platforms.
// A missing API key is not an error; callers fall back to offline replies.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts Keychain access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try platform keychain for API key if still empty.
	if cfg.Completion.APIKey == "" {
		if key, err := kc.Get(keychainService, keychainAccount); err == nil && key != "" {
			cfg.Completion.APIKey = key
		} else if err != nil {
			slog.Debug("no API key in keychain", "error", err)
		}
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port %d out of range", cfg.Server.Port)
	}
	if d, err := time.ParseDuration(cfg.Completion.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid config: completion.timeout %q is not a positive duration", cfg.Completion.Timeout)
	}
	if d, err := time.ParseDuration(cfg.Session.TTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid config: session.ttl %q is not a positive duration", cfg.Session.TTL)
	}
	if cfg.Completion.Temperature < 0 || cfg.Completion.Temperature > 2 {
		return fmt.Errorf("invalid config: completion.temperature %v outside [0,2]", cfg.Completion.Temperature)
	}
	if cfg.Completion.MaxTokens <= 0 {
		return fmt.Errorf("invalid config: completion.max_tokens must be positive")
	}
	if cfg.Completion.RateLimitRetries < 0 {
		return fmt.Errorf("invalid config: completion.rate_limit_retries must not be negative")
	}
	if cfg.Session.MaxContextTokens <= 0 {
		return fmt.Errorf("invalid config: session.max_context_tokens must be positive")
	}
	return nil
}

// APIKeyHint tells the user where an API key can be provided.
func APIKeyHint() string {
	return "set TUTOR_COMPLETION_API_KEY" + apiKeyHint() + ", or run `tutor config set-key`"
}

// keychainReader reads from macOS Keychain via the security CLI, or from
// the secrets file on other platforms.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainExec(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
