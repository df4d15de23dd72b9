// Package config handles loading and persisting user configuration for
// chatbot-llm. Values come from, in increasing precedence: built-in
// defaults, ~/.chatbot-llm/config.yaml, a .env file in the working
// directory, and process environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	dirName  = ".chatbot-llm"
	fileName = "config.yaml"
	dotEnv   = ".env"

	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-3.5-turbo"
	DefaultTimeout     = 120
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7

	EnvAPIKey      = "OPENAI_API_KEY"
	EnvBaseURL     = "OPENAI_BASE_URL"
	EnvModel       = "OPENAI_MODEL"
	EnvTimeout     = "OPENAI_TIMEOUT_SECONDS"
	EnvAgentsFile  = "CHATBOT_AGENTS_FILE"
	EnvMaxTokens   = "CHATBOT_MAX_TOKENS"
	EnvTemperature = "CHATBOT_TEMPERATURE"
	EnvStream      = "CHATBOT_STREAM"
)

// ErrMissingAPIKey is returned when no credential is configured.
var ErrMissingAPIKey = errors.New("missing API key: set " + EnvAPIKey + " or run 'chatbot-llm config set-key'")

// Config holds the user's configuration.
type Config struct {
	APIKey      string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Model       string  `mapstructure:"model" yaml:"model,omitempty"`
	Timeout     int     `mapstructure:"timeout" yaml:"timeout,omitempty"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens,omitempty"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature,omitempty"`
	Stream      bool    `mapstructure:"stream" yaml:"stream"`
	AgentsFile  string  `mapstructure:"agents_file" yaml:"agents_file,omitempty"`
}

// RequestTimeout returns the configured timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// Validate checks the values needed to talk to the endpoint.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %d: must be positive", c.Timeout)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("invalid temperature %g: must be between 0 and 2", c.Temperature)
	}
	return nil
}

// Dir returns the configuration directory path.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, dirName)
}

// Path returns the configuration file path.
func Path() string {
	return filepath.Join(Dir(), fileName)
}

// Load reads the configuration from disk and environment variables. A
// missing config file is fine; a malformed one is an error.
func Load() (*Config, error) {
	if err := loadDotEnv(dotEnv); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(Path())
	v.SetConfigType("yaml")

	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("model", DefaultModel)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("max_tokens", DefaultMaxTokens)
	v.SetDefault("temperature", DefaultTemperature)
	v.SetDefault("stream", true)

	bindings := map[string]string{
		"api_key":     EnvAPIKey,
		"base_url":    EnvBaseURL,
		"model":       EnvModel,
		"timeout":     EnvTimeout,
		"agents_file": EnvAgentsFile,
		"max_tokens":  EnvMaxTokens,
		"temperature": EnvTemperature,
		"stream":      EnvStream,
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config %s: %w", Path(), err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	return &cfg, nil
}

// loadDotEnv copies variables from a .env file into the process
// environment. Variables already set in the environment win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if _, ok := os.LookupEnv(name); ok {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return err
		}
	}
	return nil
}

// readFile returns the stored config file contents, without defaults or
// environment overrides applied.
func readFile() (*Config, error) {
	cfg := &Config{Stream: true}
	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", Path(), err)
	}
	return cfg, nil
}

// save persists the config to disk.
func save(cfg *Config) error {
	if err := os.MkdirAll(Dir(), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(Path(), data, 0o600)
}

// SetAPIKey saves the API key to the config file.
func SetAPIKey(key string) error {
	cfg, err := readFile()
	if err != nil {
		return err
	}
	cfg.APIKey = strings.TrimSpace(key)
	return save(cfg)
}

// SetModel saves the model preference to the config file.
func SetModel(model string) error {
	cfg, err := readFile()
	if err != nil {
		return err
	}
	cfg.Model = strings.TrimSpace(model)
	return save(cfg)
}

// SetAgentsFile saves the persona source path to the config file.
func SetAgentsFile(path string) error {
	cfg, err := readFile()
	if err != nil {
		return err
	}
	cfg.AgentsFile = path
	return save(cfg)
}

// MaskedKey returns the API key with everything but its ends hidden.
func (c *Config) MaskedKey() string {
	k := c.APIKey
	switch {
	case k == "":
		return "(not set)"
	case len(k) <= 8:
		return strings.Repeat("*", len(k))
	default:
		return k[:4] + "..." + k[len(k)-4:]
	}
}
