package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iksnae/chat-session/internal"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeBackend(t *testing.T, register func(e *echo.Echo)) *httptest.Server {
	t.Helper()
	e := echo.New()
	e.HideBanner = true
	register(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func newTestTransport(cfg Config) *HTTPTransport {
	tr := NewHTTPTransport(cfg)
	tr.backoff = func(int) time.Duration { return 0 }
	tr.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return tr
}

func TestHTTPTransport_QueryPost(t *testing.T) {
	var got queryRequest
	srv := newFakeBackend(t, func(e *echo.Echo) {
		e.POST("/api/query", func(c echo.Context) error {
			if err := c.Bind(&got); err != nil {
				return err
			}
			return c.JSON(http.StatusOK, map[string]any{"response": "hello back"})
		})
	})

	tr := newTestTransport(Config{Endpoint: srv.URL + "/api/query", MaxTokens: 500})
	resp, err := tr.Send(context.Background(), &internal.TransportRequest{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello back", resp.Text)
	assert.Equal(t, "hello", got.Query)
	assert.Equal(t, 500, got.MaxTokens)
	assert.Equal(t, int64(1700000000000), got.Timestamp)
}

func TestHTTPTransport_QueryGet(t *testing.T) {
	srv := newFakeBackend(t, func(e *echo.Echo) {
		e.GET("/posts", func(c echo.Context) error {
			assert.Equal(t, "what", c.QueryParam("query"))
			assert.Equal(t, "what", c.QueryParam("q"))
			return c.JSON(http.StatusOK, []map[string]any{{"title": "first"}, {"title": "second"}})
		})
	})

	tr := newTestTransport(Config{Endpoint: srv.URL + "/posts", Method: "get"})
	resp, err := tr.Send(context.Background(), &internal.TransportRequest{Message: "what"})
	require.NoError(t, err)
	assert.Equal(t, "Found 2 items:\n\n1. first\n2. second", resp.Text)
}

func TestHTTPTransport_ChatMode(t *testing.T) {
	var got chatRequest
	var auth string
	srv := newFakeBackend(t, func(e *echo.Echo) {
		e.POST("/api/chat", func(c echo.Context) error {
			auth = c.Request().Header.Get("Authorization")
			if err := c.Bind(&got); err != nil {
				return err
			}
			return c.JSON(http.StatusOK, map[string]any{"text": "chat reply"})
		})
	})

	tr := newTestTransport(Config{Endpoint: srv.URL + "/api", Mode: ModeChat, APIKey: "secret"})
	resp, err := tr.Send(context.Background(), &internal.TransportRequest{
		Message:     "hi",
		SessionID:   "session_1",
		Attachments: []internal.FileRef{{ID: "f1", Name: "a.pdf"}, {Name: "b.txt"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "chat reply", resp.Text)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "hi", got.Message)
	assert.Equal(t, "session_1", got.ChatID)
	assert.Equal(t, []string{"f1", "b.txt"}, got.Files)
	assert.NotEmpty(t, got.Timestamp)
}

func TestHTTPTransport_ErrorStatus(t *testing.T) {
	var calls atomic.Int32
	srv := newFakeBackend(t, func(e *echo.Echo) {
		e.POST("/api/query", func(c echo.Context) error {
			calls.Add(1)
			return c.JSON(http.StatusBadRequest, map[string]any{"detail": "query too long"})
		})
	})

	tr := newTestTransport(Config{Endpoint: srv.URL + "/api/query", MaxRetries: 3})
	_, err := tr.Send(context.Background(), &internal.TransportRequest{Message: "x"})
	require.Error(t, err)

	var te *internal.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusBadRequest, te.StatusCode)
	assert.Equal(t, "query too long", te.Err.Error())
	assert.Equal(t, int32(1), calls.Load(), "client errors are not retried")
	assert.Equal(t, "query too long", internal.ErrorReplyText(err))
}

func TestHTTPTransport_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := newFakeBackend(t, func(e *echo.Echo) {
		e.POST("/api/query", func(c echo.Context) error {
			if calls.Add(1) < 3 {
				return c.String(http.StatusServiceUnavailable, "busy")
			}
			return c.JSON(http.StatusOK, map[string]any{"answer": "finally"})
		})
	})

	tr := newTestTransport(Config{Endpoint: srv.URL + "/api/query", MaxRetries: 3})
	resp, err := tr.Send(context.Background(), &internal.TransportRequest{Message: "x"})
	require.NoError(t, err)
	assert.Equal(t, "finally", resp.Text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPTransport_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := newFakeBackend(t, func(e *echo.Echo) {
		e.POST("/api/query", func(c echo.Context) error {
			calls.Add(1)
			return c.NoContent(http.StatusInternalServerError)
		})
	})

	tr := newTestTransport(Config{Endpoint: srv.URL + "/api/query", MaxRetries: 2})
	_, err := tr.Send(context.Background(), &internal.TransportRequest{Message: "x"})
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "Server error: 500", internal.ErrorReplyText(err))
}

func TestHTTPTransport_HTMLResponse(t *testing.T) {
	srv := newFakeBackend(t, func(e *echo.Echo) {
		e.POST("/api/query", func(c echo.Context) error {
			return c.HTML(http.StatusOK, "<!DOCTYPE html><html><body>app</body></html>")
		})
	})

	tr := newTestTransport(Config{Endpoint: srv.URL + "/api/query", MaxRetries: 3})
	_, err := tr.Send(context.Background(), &internal.TransportRequest{Message: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHTMLResponse)
}

func TestHTTPTransport_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL + "/api/query"
	srv.Close()

	tr := newTestTransport(Config{Endpoint: endpoint, MaxRetries: 1})
	_, err := tr.Send(context.Background(), &internal.TransportRequest{Message: "x"})
	require.Error(t, err)
	assert.Contains(t, internal.ErrorReplyText(err), "Cannot connect to API at "+endpoint)
}

func TestHTTPTransport_Cancelled(t *testing.T) {
	release := make(chan struct{})
	srv := newFakeBackend(t, func(e *echo.Echo) {
		e.POST("/api/query", func(c echo.Context) error {
			select {
			case <-release:
			case <-c.Request().Context().Done():
			}
			return c.JSON(http.StatusOK, map[string]any{"response": "late"})
		})
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	tr := newTestTransport(Config{Endpoint: srv.URL + "/api/query", MaxRetries: 3})
	_, err := tr.Send(ctx, &internal.TransportRequest{Message: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, internal.CancelledReply, internal.ErrorReplyText(err))
}

func TestHTTPTransport_Health(t *testing.T) {
	srv := newFakeBackend(t, func(e *echo.Echo) {
		e.GET("/api/health", func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	tr := newTestTransport(Config{Endpoint: srv.URL + "/api/query", HealthPath: "/api/health"})
	assert.NoError(t, tr.Health(context.Background()))

	broken := newTestTransport(Config{Endpoint: srv.URL + "/api/query", HealthPath: "/missing"})
	err := broken.Health(context.Background())
	var te *internal.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "health", te.Op)
	assert.Equal(t, http.StatusNotFound, te.StatusCode)
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"http://h/api", "/chat", "http://h/api/chat"},
		{"http://h/api/", "chat", "http://h/api/chat"},
		{"http://h", "", "http://h"},
		{"http://h", "https://other/upload", "https://other/upload"},
	}
	for _, tt := range tests {
		if got := joinURL(tt.base, tt.path); got != tt.want {
			t.Errorf("joinURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestUploadURL(t *testing.T) {
	if got := UploadURL("http://h:8000/api/query", ModeQuery, "/upload"); got != "http://h:8000/upload" {
		t.Errorf("UploadURL(query) = %q", got)
	}
	if got := UploadURL("http://h:8000/api", ModeChat, "/upload"); got != "http://h:8000/api/upload" {
		t.Errorf("UploadURL(chat) = %q", got)
	}
}
