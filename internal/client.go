package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultErrorReply is shown when a failed exchange carries no usable message
const DefaultErrorReply = "Sorry, I encountered an error. Please try again."

// CancelledReply is recorded when the user cancels a pending reply
const CancelledReply = "Request was cancelled"

// ErrStaleSession is returned when a reply arrives after the user switched sessions
var ErrStaleSession = errors.New("reply discarded: session is no longer current")

// AllowedUploadExtensions lists the file types accepted by the upload step
var AllowedUploadExtensions = []string{".pdf", ".doc", ".docx", ".txt"}

// TransportRequest is one user turn sent to the backend
type TransportRequest struct {
	Message     string
	Attachments []FileRef
	SessionID   string
	History     []Message // prior messages of the session, oldest first
}

// TransportResponse is the backend's reply
type TransportResponse struct {
	Text string
}

// Transport exchanges a user message for a backend reply
type Transport interface {
	Send(ctx context.Context, req *TransportRequest) (*TransportResponse, error)
}

// Uploader uploads local files and returns references usable on send
type Uploader interface {
	Upload(ctx context.Context, files []LocalFile) ([]FileRef, error)
}

// Client drives the send cycle on top of a Store: it validates input,
// tracks the single in-flight request and converts transport failures into
// error-flagged assistant messages.
type Client struct {
	store     *Store
	transport Transport
	uploader  Uploader

	mu      sync.Mutex
	typing  bool
	cancel  context.CancelFunc
	pending []FileRef
}

// NewClient creates a client. uploader may be nil when uploads are not supported.
func NewClient(store *Store, transport Transport, uploader Uploader) *Client {
	return &Client{
		store:     store,
		transport: transport,
		uploader:  uploader,
	}
}

// Store returns the underlying store
func (c *Client) Store() *Store {
	return c.store
}

// SetTransport replaces the backend used by later sends. uploader may be nil.
func (c *Client) SetTransport(transport Transport, uploader Uploader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transport = transport
	c.uploader = uploader
}

// IsTyping reports whether a reply is pending
func (c *Client) IsTyping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typing
}

// Send appends the user message, waits for the backend and appends the
// reply. Transport failures are recorded as an error-flagged assistant
// message and are not returned. Returned errors are *ValidationError,
// ErrSendInProgress or ErrStaleSession.
func (c *Client) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if c.typing {
		c.mu.Unlock()
		return Message{}, ErrSendInProgress
	}
	if text == "" && len(c.pending) == 0 {
		c.mu.Unlock()
		return Message{}, &ValidationError{Field: "message", Reason: "message is empty and no files are attached"}
	}
	attachments := c.pending
	c.pending = nil
	transport := c.transport
	reqCtx, cancel := context.WithCancel(ctx)
	c.typing = true
	c.cancel = cancel
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.typing = false
		c.cancel = nil
		c.mu.Unlock()
		cancel()
	}()

	history := c.store.Messages()
	sessionID := c.store.CurrentSessionID()
	if _, err := c.store.AppendMessage(RoleUser, text, attachments); err != nil {
		LogDebug("User message not persisted: %v", err)
	}

	resp, err := transport.Send(reqCtx, &TransportRequest{
		Message:     text,
		Attachments: attachments,
		SessionID:   sessionID,
		History:     history,
	})

	if c.store.CurrentSessionID() != sessionID {
		LogDebug("Dropping reply for session %s", sessionID)
		return Message{}, ErrStaleSession
	}

	var reply Message
	var appendErr error
	if err != nil {
		LogDebug("Send failed: %v", err)
		reply, appendErr = c.store.AppendError(ErrorReplyText(err))
	} else {
		reply, appendErr = c.store.AppendMessage(RoleAssistant, resp.Text, nil)
	}
	if appendErr != nil {
		LogDebug("Reply not persisted: %v", appendErr)
	}
	return reply, nil
}

// Cancel aborts the in-flight request, reporting whether there was one
func (c *Client) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return false
	}
	c.cancel()
	return true
}

// Upload validates and uploads files, staging the references for the next send
func (c *Client) Upload(ctx context.Context, paths []string) ([]FileRef, error) {
	c.mu.Lock()
	uploader := c.uploader
	c.mu.Unlock()
	if uploader == nil {
		return nil, &ValidationError{Field: "files", Reason: "uploads are not supported by the configured backend"}
	}
	if len(paths) == 0 {
		return nil, &ValidationError{Field: "files", Reason: "no files selected"}
	}

	files := make([]LocalFile, 0, len(paths))
	for _, path := range paths {
		file, err := StatUploadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	refs, err := uploader.Upload(ctx, files)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.pending = append(c.pending, refs...)
	c.mu.Unlock()
	return refs, nil
}

// AttachFiles stages already uploaded references for the next send
func (c *Client) AttachFiles(refs ...FileRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, refs...)
}

// PendingAttachments returns the references staged for the next send
func (c *Client) PendingAttachments() []FileRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]FileRef(nil), c.pending...)
}

// RemovePending drops the staged reference at index i
func (c *Client) RemovePending(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.pending) {
		return &ValidationError{Field: "index", Reason: fmt.Sprintf("no attachment at position %d", i+1)}
	}
	c.pending = append(c.pending[:i], c.pending[i+1:]...)
	return nil
}

// NewSession drops staged files, starts a new session and cancels any
// pending reply. The switch happens first so the reply is discarded as stale.
func (c *Client) NewSession() error {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
	err := c.store.StartNewSession()
	c.Cancel()
	return err
}

// LoadSession switches sessions and cancels any pending reply
func (c *Client) LoadSession(id string) error {
	switching := id != c.store.CurrentSessionID()
	err := c.store.LoadSession(id)
	if switching && !IsNotFound(err) {
		c.Cancel()
	}
	return err
}

// DeleteSession deletes a session, cancelling the pending reply if it belongs to it
func (c *Client) DeleteSession(id string) error {
	wasCurrent := id == c.store.CurrentSessionID()
	err := c.store.DeleteSession(id)
	if wasCurrent {
		c.Cancel()
	}
	return err
}

// ErrorReplyText turns a send failure into the text shown in the conversation
func ErrorReplyText(err error) string {
	if errors.Is(err, context.Canceled) {
		return CancelledReply
	}
	var te *TransportError
	if errors.As(err, &te) && te.Err != nil {
		if msg := te.Err.Error(); msg != "" {
			return msg
		}
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return DefaultErrorReply
}

// StatUploadFile checks that path is an uploadable regular file
func StatUploadFile(path string) (LocalFile, error) {
	ext := strings.ToLower(filepath.Ext(path))
	allowed := false
	for _, a := range AllowedUploadExtensions {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return LocalFile{}, &ValidationError{
			Field:  "files",
			Reason: fmt.Sprintf("file type %s is not supported (supported: %s)", ext, strings.Join(AllowedUploadExtensions, ", ")),
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return LocalFile{}, &ValidationError{Field: "files", Reason: err.Error()}
	}
	if info.IsDir() {
		return LocalFile{}, &ValidationError{Field: "files", Reason: fmt.Sprintf("%s is a directory", path)}
	}
	return LocalFile{Path: path, Name: info.Name(), Size: info.Size()}, nil
}
