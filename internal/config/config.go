// Package config loads client settings from a YAML file, the environment
// and command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. CHAT_SESSION_API_ENDPOINT
const EnvPrefix = "CHAT_SESSION"

// Provider names
const (
	ProviderHTTP   = "http"
	ProviderOpenAI = "openai"
)

// Request modes of the HTTP provider
const (
	ModeQuery = "query"
	ModeChat  = "chat"
)

// Config holds every client setting
type Config struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	OpenAI  OpenAIConfig  `mapstructure:"openai" yaml:"openai"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// APIConfig describes the backend
type APIConfig struct {
	Provider   string        `mapstructure:"provider" yaml:"provider"`
	Endpoint   string        `mapstructure:"endpoint" yaml:"endpoint"`
	Mode       string        `mapstructure:"mode" yaml:"mode"`
	Method     string        `mapstructure:"method" yaml:"method"`
	MaxTokens  int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Key        string        `mapstructure:"key" yaml:"key"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	UploadPath string        `mapstructure:"upload_path" yaml:"upload_path"`
	HealthPath string        `mapstructure:"health_path" yaml:"health_path"`
}

// OpenAIConfig configures the OpenAI-compatible provider
type OpenAIConfig struct {
	Model        string `mapstructure:"model" yaml:"model"`
	BaseURL      string `mapstructure:"base_url" yaml:"base_url"`
	SystemPrompt string `mapstructure:"system_prompt" yaml:"system_prompt"`
}

// StorageConfig selects the durable substrate
type StorageConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// HistoryConfig controls history retention
type HistoryConfig struct {
	AutoSave    bool `mapstructure:"autosave" yaml:"autosave"`
	MaxSessions int  `mapstructure:"max_sessions" yaml:"max_sessions"`
}

// LogConfig controls logging
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.provider", ProviderHTTP)
	v.SetDefault("api.endpoint", "http://localhost:8000/api/query")
	v.SetDefault("api.mode", ModeQuery)
	v.SetDefault("api.method", "POST")
	v.SetDefault("api.max_tokens", 500)
	v.SetDefault("api.key", "")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("api.upload_path", "/upload")
	v.SetDefault("api.health_path", "/api/health")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.system_prompt", "")
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.path", "")
	v.SetDefault("history.autosave", true)
	v.SetDefault("history.max_sessions", 50)
	v.SetDefault("log.level", "info")
}

// New returns a viper instance with defaults and environment binding
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file (a missing file is not an error) and decodes it
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}
	return Decode(v)
}

// Decode unmarshals the current viper state and validates it
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.API.Provider = strings.ToLower(strings.TrimSpace(c.API.Provider))
	c.API.Mode = strings.ToLower(strings.TrimSpace(c.API.Mode))
	c.API.Method = strings.ToUpper(strings.TrimSpace(c.API.Method))
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.API.Endpoint = strings.TrimSpace(c.API.Endpoint)
}

// Validate checks that settings are usable
func (c *Config) Validate() error {
	switch c.API.Provider {
	case ProviderHTTP, ProviderOpenAI:
	default:
		return fmt.Errorf("invalid api.provider %q (supported: http, openai)", c.API.Provider)
	}

	if c.API.Provider == ProviderHTTP {
		u, err := url.Parse(c.API.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid api.endpoint %q: must be an http(s) URL", c.API.Endpoint)
		}
	}

	switch c.API.Mode {
	case ModeQuery, ModeChat:
	default:
		return fmt.Errorf("invalid api.mode %q (supported: query, chat)", c.API.Mode)
	}

	switch c.API.Method {
	case "POST", "GET":
	default:
		return fmt.Errorf("invalid api.method %q (supported: POST, GET)", c.API.Method)
	}

	if c.API.MaxTokens <= 0 {
		return fmt.Errorf("invalid api.max_tokens %d: must be positive", c.API.MaxTokens)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("invalid api.timeout %s: must be positive", c.API.Timeout)
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("invalid api.max_retries %d: must not be negative", c.API.MaxRetries)
	}

	switch c.Storage.Backend {
	case "sqlite", "file", "memory":
	default:
		return fmt.Errorf("invalid storage.backend %q (supported: sqlite, file, memory)", c.Storage.Backend)
	}

	if c.History.MaxSessions < 0 {
		return fmt.Errorf("invalid history.max_sessions %d: must not be negative", c.History.MaxSessions)
	}
	return nil
}

// EffectiveBackend returns the storage backend, honouring history.autosave
func (c *Config) EffectiveBackend() string {
	if !c.History.AutoSave {
		return "memory"
	}
	return c.Storage.Backend
}

// BaseURL returns the scheme and host of the endpoint, used for upload and health paths
func (c *Config) BaseURL() string {
	u, err := url.Parse(c.API.Endpoint)
	if err != nil {
		return c.API.Endpoint
	}
	return u.Scheme + "://" + u.Host
}

// Set updates a single key after validating the resulting config
func Set(v *viper.Viper, key, value string) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	previous := v.Get(key)
	v.Set(key, value)
	if _, err := Decode(v); err != nil {
		v.Set(key, previous)
		return err
	}
	return nil
}

// Save writes the current settings to path, creating its directory
func Save(v *viper.Viper, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// Watch calls fn with the reloaded config whenever the config file changes.
// Invalid edits are reported through onError and otherwise ignored.
func Watch(v *viper.Viper, fn func(*Config), onError func(error)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Decode(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		fn(cfg)
	})
	v.WatchConfig()
}

// Keys lists every supported config key
func Keys() []string {
	return []string{
		"api.provider", "api.endpoint", "api.mode", "api.method", "api.max_tokens",
		"api.key", "api.timeout", "api.max_retries", "api.upload_path", "api.health_path",
		"openai.model", "openai.base_url", "openai.system_prompt",
		"storage.backend", "storage.path",
		"history.autosave", "history.max_sessions",
		"log.level",
	}
}

// IsKnownKey reports whether key is a supported config key
func IsKnownKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}
