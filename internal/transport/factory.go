package transport

import (
	"context"

	"github.com/iksnae/chat-session/internal"
	"github.com/iksnae/chat-session/internal/config"
)

// Backend is a transport that can also report its health
type Backend interface {
	internal.Transport
	Health(ctx context.Context) error
	Endpoint() string
}

// FromConfig builds the backend and uploader selected by cfg.
// The uploader is nil for providers without file uploads.
func FromConfig(cfg *config.Config) (Backend, internal.Uploader) {
	if cfg.API.Provider == config.ProviderOpenAI {
		return NewOpenAITransport(OpenAIConfig{
			APIKey:       cfg.API.Key,
			BaseURL:      cfg.OpenAI.BaseURL,
			Model:        cfg.OpenAI.Model,
			SystemPrompt: cfg.OpenAI.SystemPrompt,
			MaxTokens:    cfg.API.MaxTokens,
			Timeout:      cfg.API.Timeout,
		}), nil
	}

	backend := NewHTTPTransport(Config{
		Endpoint:   cfg.API.Endpoint,
		Mode:       cfg.API.Mode,
		Method:     cfg.API.Method,
		MaxTokens:  cfg.API.MaxTokens,
		APIKey:     cfg.API.Key,
		Timeout:    cfg.API.Timeout,
		MaxRetries: cfg.API.MaxRetries,
		HealthPath: cfg.API.HealthPath,
	})
	uploader := NewHTTPUploader(UploadURL(cfg.API.Endpoint, cfg.API.Mode, cfg.API.UploadPath), cfg.API.Key, cfg.API.Timeout)
	return backend, uploader
}

// UploadURL resolves the upload endpoint. Chat-mode backends take paths
// relative to the configured endpoint, query-mode ones relative to its host.
func UploadURL(endpoint, mode, path string) string {
	if mode == ModeChat {
		return joinURL(endpoint, path)
	}
	return joinURL(baseURL(endpoint), path)
}
