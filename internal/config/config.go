// Package config resolves runtime settings from defaults, the YAML config
// file, .env files and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/LuisArmando-TestCoder/dreamcmd/internal/executor"
	"github.com/LuisArmando-TestCoder/dreamcmd/internal/llm"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultMaxAttempts bounds the repair loop unless overridden.
const DefaultMaxAttempts = 10

// Config holds all runtime settings.
type Config struct {
	Provider       string        `yaml:"provider"`
	Model          string        `yaml:"model"`
	BaseURL        string        `yaml:"baseURL"`
	MaxAttempts    int           `yaml:"maxAttempts"`
	ExecMode       string        `yaml:"execMode"`
	CommandTimeout time.Duration `yaml:"commandTimeout"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	LogLevel       string        `yaml:"logLevel"`
	History        bool          `yaml:"history"`
	Copy           bool          `yaml:"copy"`

	// APIKey never comes from the config file.
	APIKey string `yaml:"-"`
}

// ConfigurationError reports a setting that prevents the program from starting.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	return Config{
		Provider:       llm.ProviderOpenAI,
		MaxAttempts:    DefaultMaxAttempts,
		ExecMode:       string(executor.ModeShell),
		RequestTimeout: 2 * time.Minute,
		LogLevel:       "info",
		History:        true,
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if it
// exists), then the environment read through getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		cfg, err = mergeFile(cfg, path)
		if err != nil {
			return cfg, err
		}
	}
	return ApplyEnv(cfg, getenv), nil
}

func mergeFile(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigurationError{Field: path, Message: err.Error()}
	}
	return cfg, nil
}

// ApplyEnv overlays DREAMCMD_* variables and resolves the API key.
func ApplyEnv(cfg Config, getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	lookup := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}

	if v := lookup("DREAMCMD_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := lookup("DREAMCMD_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := lookup("DREAMCMD_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := lookup("DREAMCMD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	cfg.APIKey = ResolveAPIKey(cfg.Provider, getenv)
	return cfg
}

// ResolveAPIKey returns API_KEY, falling back to the provider-specific
// variable.
func ResolveAPIKey(provider string, getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	if key := strings.TrimSpace(getenv("API_KEY")); key != "" {
		return key
	}
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case llm.ProviderGemini:
		return strings.TrimSpace(getenv("GEMINI_API_KEY"))
	default:
		return strings.TrimSpace(getenv("OPENAI_API_KEY"))
	}
}

// LoadDotEnv loads .env files into the process environment. Existing
// variables win; missing files are ignored.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		err := godotenv.Load(name)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// Validate normalizes enum values and checks that the program can start.
func (c *Config) Validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	switch c.Provider {
	case "":
		c.Provider = llm.ProviderOpenAI
	case llm.ProviderOpenAI, llm.ProviderGemini:
	default:
		return &ConfigurationError{Field: "provider", Message: fmt.Sprintf("unknown provider %q (want openai or gemini)", c.Provider)}
	}

	mode, err := executor.ParseMode(c.ExecMode)
	if err != nil {
		return &ConfigurationError{Field: "execMode", Message: err.Error()}
	}
	c.ExecMode = string(mode)

	if c.MaxAttempts < 0 {
		return &ConfigurationError{Field: "maxAttempts", Message: "must be zero (unbounded) or positive"}
	}
	if c.CommandTimeout < 0 || c.RequestTimeout < 0 {
		return &ConfigurationError{Field: "timeout", Message: "must not be negative"}
	}
	if _, err := c.Level(); err != nil {
		return &ConfigurationError{Field: "logLevel", Message: err.Error()}
	}

	if c.APIKey == "" {
		return &ConfigurationError{Field: "API_KEY", Message: "no API key found; set API_KEY in .env or the environment"}
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (zapcore.Level, error) {
	if strings.TrimSpace(c.LogLevel) == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(c.LogLevel)
}
