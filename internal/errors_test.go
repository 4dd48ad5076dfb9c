package internal

import (
	"errors"
	"strings"
	"testing"
)

func TestStorageError(t *testing.T) {
	originalErr := errors.New("permission denied")
	err := &StorageError{
		Backend: "sqlite",
		Op:      "open",
		Err:     originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "storage error") {
		t.Errorf("StorageError.Error() should contain 'storage error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "sqlite") {
		t.Errorf("StorageError.Error() should contain backend, got: %q", errorMsg)
	}

	if !errors.Is(err, originalErr) {
		t.Error("StorageError.Unwrap() should return original error")
	}
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Error("StorageError should match ErrStorageUnavailable")
	}
}

func TestParseError(t *testing.T) {
	originalErr := errors.New("invalid JSON")
	err := &ParseError{
		Source: "file",
		Key:    "sessions.json",
		Err:    originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "parse error") {
		t.Errorf("ParseError.Error() should contain 'parse error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "sessions.json") {
		t.Errorf("ParseError.Error() should contain key, got: %q", errorMsg)
	}

	if !errors.Is(err, originalErr) {
		t.Error("ParseError.Unwrap() should return original error")
	}
	if errors.Is(err, ErrStorageUnavailable) {
		t.Error("ParseError should not match ErrStorageUnavailable")
	}
}

func TestNotFoundError(t *testing.T) {
	err := error(&NotFoundError{SessionID: "session_1_abc"})
	if !strings.Contains(err.Error(), "session_1_abc") {
		t.Errorf("NotFoundError.Error() should contain session id, got: %q", err.Error())
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound() should match NotFoundError")
	}
	if !IsNotFound(&StorageError{Err: err}) {
		t.Error("IsNotFound() should match a wrapped NotFoundError")
	}
	if IsNotFound(errors.New("other")) {
		t.Error("IsNotFound() should not match other errors")
	}
}

func TestTransportError(t *testing.T) {
	originalErr := errors.New("Server error: 502")
	err := &TransportError{
		Op:         "send",
		Endpoint:   "http://localhost:8000/api/query",
		StatusCode: 502,
		Err:        originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "status 502") {
		t.Errorf("TransportError.Error() should contain status, got: %q", errorMsg)
	}
	if !errors.Is(err, originalErr) {
		t.Error("TransportError.Unwrap() should return original error")
	}

	noStatus := &TransportError{Op: "upload", Endpoint: "http://x/upload", Err: originalErr}
	if strings.Contains(noStatus.Error(), "status") {
		t.Errorf("TransportError.Error() without status should not mention it, got: %q", noStatus.Error())
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "role", Reason: "must be user or assistant"}
	if err.Error() != "invalid role: must be user or assistant" {
		t.Errorf("ValidationError.Error() = %q", err.Error())
	}
}

func TestExportError(t *testing.T) {
	originalErr := errors.New("write failed")
	err := &ExportError{
		Format: "jsonl",
		Path:   "/output/file.jsonl",
		Err:    originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "export error") {
		t.Errorf("ExportError.Error() should contain 'export error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "jsonl") {
		t.Errorf("ExportError.Error() should contain format, got: %q", errorMsg)
	}

	if !errors.Is(err, originalErr) {
		t.Error("ExportError.Unwrap() should return original error")
	}
}
