package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable marks a durable read or write that failed
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrSendInProgress is returned when a send is attempted while a reply is pending
	ErrSendInProgress = errors.New("a reply is still pending")
)

// StorageError represents errors accessing the durable substrate
type StorageError struct {
	Backend string // "sqlite", "file", "memory"
	Op      string // "open", "load", "save"
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [%s] %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match every StorageError against ErrStorageUnavailable
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// ParseError represents durable data that could not be decoded
type ParseError struct {
	Source string // "sqlite", "file"
	Key    string // storage key or file path
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned when an operation names an unknown session
type NotFoundError struct {
	SessionID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.SessionID)
}

// TransportError represents a failed exchange with the backend
type TransportError struct {
	Op         string // "send", "upload", "health"
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error [%s] %s (status %d): %v", e.Op, e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport error [%s] %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError rejects input before any state is changed
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
