// Package transport talks to the chat backend over HTTP.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iksnae/chat-session/internal"
)

// Request modes
const (
	ModeQuery = "query" // {query, max_tokens, timestamp} against the configured endpoint
	ModeChat  = "chat"  // {message, chatId, files, timestamp} against <endpoint>/chat
)

// maxBodySize bounds how much of a response body is read
const maxBodySize = 4 << 20

// Config configures an HTTPTransport
type Config struct {
	Endpoint   string
	Mode       string
	Method     string
	MaxTokens  int
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	HealthPath string
}

// HTTPTransport sends messages to a JSON-over-HTTP backend
type HTTPTransport struct {
	cfg        Config
	httpClient *http.Client
	backoff    func(attempt int) time.Duration
	now        func() time.Time
}

type queryRequest struct {
	Query     string `json:"query"`
	MaxTokens int    `json:"max_tokens"`
	Timestamp int64  `json:"timestamp"`
}

type chatRequest struct {
	Message   string   `json:"message"`
	ChatID    string   `json:"chatId"`
	Files     []string `json:"files"`
	Timestamp string   `json:"timestamp"`
}

// NewHTTPTransport creates a transport from cfg, filling in defaults
func NewHTTPTransport(cfg Config) *HTTPTransport {
	if cfg.Mode == "" {
		cfg.Mode = ModeQuery
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodPost
	}
	cfg.Method = strings.ToUpper(cfg.Method)
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &HTTPTransport{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		backoff:    defaultBackoff,
		now:        time.Now,
	}
}

func defaultBackoff(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * 500 * time.Millisecond
}

// Endpoint returns the URL messages are sent to
func (t *HTTPTransport) Endpoint() string {
	if t.cfg.Mode == ModeChat {
		return joinURL(t.cfg.Endpoint, "/chat")
	}
	return t.cfg.Endpoint
}

// Send implements internal.Transport. Failures are *internal.TransportError
// whose wrapped error carries the text to show the user.
func (t *HTTPTransport) Send(ctx context.Context, req *internal.TransportRequest) (*internal.TransportResponse, error) {
	endpoint := t.Endpoint()

	var lastErr error
	for attempt := 0; attempt <= t.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			internal.LogDebug("Retrying %s (attempt %d/%d)", endpoint, attempt+1, t.cfg.MaxRetries+1)
			select {
			case <-ctx.Done():
				return nil, t.wrap(endpoint, 0, ctx.Err())
			case <-time.After(t.backoff(attempt)):
			}
		}

		text, status, err := t.sendOnce(ctx, req)
		if err == nil {
			return &internal.TransportResponse{Text: text}, nil
		}
		lastErr = t.wrap(endpoint, status, err)
		if !retryable(ctx, status, err) {
			break
		}
	}
	return nil, lastErr
}

func (t *HTTPTransport) sendOnce(ctx context.Context, req *internal.TransportRequest) (string, int, error) {
	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return "", 0, err
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resp.StatusCode, errors.New(ErrorMessage(resp.StatusCode, body))
	}

	var text string
	if t.cfg.Mode == ModeChat {
		text, err = ExtractChatReply(body)
	} else {
		text, err = ExtractReply(body)
	}
	return text, resp.StatusCode, err
}

func (t *HTTPTransport) buildRequest(ctx context.Context, req *internal.TransportRequest) (*http.Request, error) {
	if t.cfg.Mode == ModeChat {
		files := make([]string, 0, len(req.Attachments))
		for _, ref := range req.Attachments {
			if ref.ID != "" {
				files = append(files, ref.ID)
			} else {
				files = append(files, ref.Name)
			}
		}
		body, err := json.Marshal(chatRequest{
			Message:   req.Message,
			ChatID:    req.SessionID,
			Files:     files,
			Timestamp: t.now().UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		return t.newJSONRequest(ctx, http.MethodPost, t.Endpoint(), body)
	}

	if t.cfg.Method == http.MethodGet {
		u, err := url.Parse(t.cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint: %w", err)
		}
		q := u.Query()
		q.Set("query", req.Message)
		q.Set("q", req.Message)
		u.RawQuery = q.Encode()
		return t.newJSONRequest(ctx, http.MethodGet, u.String(), nil)
	}

	body, err := json.Marshal(queryRequest{
		Query:     req.Message,
		MaxTokens: t.cfg.MaxTokens,
		Timestamp: t.now().UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return t.newJSONRequest(ctx, http.MethodPost, t.cfg.Endpoint, body)
}

func (t *HTTPTransport) newJSONRequest(ctx context.Context, method, endpoint string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if t.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)
	}
	return httpReq, nil
}

// wrap converts a failure into a TransportError with a user-facing message
func (t *HTTPTransport) wrap(endpoint string, status int, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		// keep context.Canceled reachable for the client
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		err = fmt.Errorf("Request timed out after %s", t.cfg.Timeout)
	case status == 0 && isConnectionError(err):
		err = fmt.Errorf("Cannot connect to API at %s. Make sure the server is running and the endpoint is correct.", endpoint)
	}
	return &internal.TransportError{Op: "send", Endpoint: endpoint, StatusCode: status, Err: err}
}

func retryable(ctx context.Context, status int, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrHTMLResponse) {
		return false
	}
	if status == 0 {
		return true
	}
	return status == http.StatusTooManyRequests || status >= 500
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	var urlErr *url.Error
	return errors.As(err, &opErr) || errors.As(err, &dnsErr) || errors.As(err, &urlErr)
}

// Health probes the backend's health endpoint
func (t *HTTPTransport) Health(ctx context.Context) error {
	endpoint := joinURL(baseURL(t.cfg.Endpoint), t.cfg.HealthPath)
	httpReq, err := t.newJSONRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &internal.TransportError{Op: "health", Endpoint: endpoint, Err: err}
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return &internal.TransportError{Op: "health", Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		return &internal.TransportError{
			Op:         "health",
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        errors.New(ErrorMessage(resp.StatusCode, body)),
		}
	}
	return nil
}

// baseURL returns scheme://host of endpoint
func baseURL(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(endpoint, "/")
	}
	return u.Scheme + "://" + u.Host
}

func joinURL(base, path string) string {
	if path == "" {
		return base
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
