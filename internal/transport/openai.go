package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iksnae/chat-session/internal"
	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures an OpenAITransport
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	MaxTokens    int
	Timeout      time.Duration
}

// OpenAITransport sends the conversation to an OpenAI-compatible chat completion API
type OpenAITransport struct {
	client  *openai.Client
	cfg     OpenAIConfig
	baseURL string
}

// NewOpenAITransport creates a transport from cfg
func NewOpenAITransport(cfg OpenAIConfig) *OpenAITransport {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" && cfg.BaseURL != "https://api.openai.com/v1" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OpenAITransport{
		client:  openai.NewClientWithConfig(clientConfig),
		cfg:     cfg,
		baseURL: clientConfig.BaseURL,
	}
}

// Endpoint returns the API base URL
func (t *OpenAITransport) Endpoint() string {
	return t.baseURL
}

// Send implements internal.Transport, replaying the session history as context
func (t *OpenAITransport) Send(ctx context.Context, req *internal.TransportRequest) (*internal.TransportResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     t.cfg.Model,
		Messages:  t.buildMessages(req),
		MaxTokens: t.cfg.MaxTokens,
	})
	if err != nil {
		return nil, t.wrap(err)
	}
	if len(resp.Choices) == 0 {
		return &internal.TransportResponse{Text: EmptyReply}, nil
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		text = EmptyReply
	}
	internal.LogDebug("Completion from %s: %d prompt / %d completion tokens",
		t.cfg.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	return &internal.TransportResponse{Text: text}, nil
}

func (t *OpenAITransport) buildMessages(req *internal.TransportRequest) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if t.cfg.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: t.cfg.SystemPrompt,
		})
	}

	for _, msg := range req.History {
		// failed exchanges are not part of the conversation
		if msg.IsError {
			continue
		}
		role := openai.ChatMessageRoleUser
		if msg.Role == internal.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: withAttachments(msg.Content, msg.Attachments),
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: withAttachments(req.Message, req.Attachments),
	})
	return messages
}

// withAttachments mentions attached files by name, since the completion API has no file references
func withAttachments(content string, refs []internal.FileRef) string {
	if len(refs) == 0 {
		return content
	}
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	note := fmt.Sprintf("[Attached files: %s]", strings.Join(names, ", "))
	if content == "" {
		return note
	}
	return content + "\n\n" + note
}

func (t *OpenAITransport) wrap(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.Is(err, context.Canceled):
	case errors.Is(err, context.DeadlineExceeded):
		err = fmt.Errorf("Request timed out after %s", t.cfg.Timeout)
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		err = errors.New(apiErr.Message)
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	return &internal.TransportError{Op: "send", Endpoint: t.baseURL, StatusCode: status, Err: err}
}

// Health lists models as a cheap authenticated probe
func (t *OpenAITransport) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()
	if _, err := t.client.ListModels(ctx); err != nil {
		wrapped := t.wrap(err).(*internal.TransportError)
		wrapped.Op = "health"
		return wrapped
	}
	return nil
}
