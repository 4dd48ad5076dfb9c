package transport

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/iksnae/chat-session/internal"
	"github.com/labstack/echo/v4"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAITransport_Send(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := newFakeBackend(t, func(e *echo.Echo) {
		e.POST("/v1/chat/completions", func(c echo.Context) error {
			if err := c.Bind(&got); err != nil {
				return err
			}
			return c.JSON(http.StatusOK, map[string]any{
				"id":     "cmpl-1",
				"object": "chat.completion",
				"model":  got.Model,
				"choices": []map[string]any{{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": " sure thing "},
					"finish_reason": "stop",
				}},
				"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12},
			})
		})
	})

	tr := NewOpenAITransport(OpenAIConfig{
		APIKey:       "k",
		BaseURL:      srv.URL + "/v1",
		Model:        "test-model",
		SystemPrompt: "be brief",
		MaxTokens:    64,
	})
	resp, err := tr.Send(context.Background(), &internal.TransportRequest{
		Message:     "and now?",
		Attachments: []internal.FileRef{{ID: "1", Name: "notes.txt"}},
		History: []internal.Message{
			{Role: internal.RoleUser, Content: "first"},
			{Role: internal.RoleAssistant, Content: "oops", IsError: true},
			{Role: internal.RoleAssistant, Content: "answer"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "sure thing", resp.Text)

	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 64, got.MaxTokens)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "first", got.Messages[1].Content)
	assert.Equal(t, openai.ChatMessageRoleAssistant, got.Messages[2].Role)
	assert.Equal(t, "and now?\n\n[Attached files: notes.txt]", got.Messages[3].Content)
}

func TestOpenAITransport_APIError(t *testing.T) {
	srv := newFakeBackend(t, func(e *echo.Echo) {
		e.POST("/v1/chat/completions", func(c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, map[string]any{
				"error": map[string]any{"message": "invalid api key", "type": "invalid_request_error"},
			})
		})
	})

	tr := NewOpenAITransport(OpenAIConfig{APIKey: "bad", BaseURL: srv.URL + "/v1"})
	_, err := tr.Send(context.Background(), &internal.TransportRequest{Message: "hi"})
	require.Error(t, err)

	var te *internal.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
	assert.Equal(t, "invalid api key", internal.ErrorReplyText(err))
}

func TestOpenAITransport_Health(t *testing.T) {
	srv := newFakeBackend(t, func(e *echo.Echo) {
		e.GET("/v1/models", func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]any{"object": "list", "data": []any{}})
		})
	})

	tr := NewOpenAITransport(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})
	assert.NoError(t, tr.Health(context.Background()))
	assert.Equal(t, srv.URL+"/v1", tr.Endpoint())
}

func TestWithAttachments(t *testing.T) {
	refs := []internal.FileRef{{Name: "a.pdf"}, {Name: "b.txt"}}
	if got := withAttachments("", refs); got != "[Attached files: a.pdf, b.txt]" {
		t.Errorf("withAttachments() = %q", got)
	}
	if got := withAttachments("hi", nil); got != "hi" {
		t.Errorf("withAttachments() = %q, want %q", got, "hi")
	}
}
