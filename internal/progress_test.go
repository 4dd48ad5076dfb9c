package internal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// lockedBuffer is a bytes.Buffer safe for the spinner goroutine
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestShowProgress(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		message string
		fn      func() error
		wantErr bool
	}{
		{
			name:    "successful function",
			message: "Testing",
			fn: func() error {
				return nil
			},
			wantErr: false,
		},
		{
			name:    "function with error",
			message: "Testing error",
			fn: func() error {
				return errors.New("test error")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ShowProgress(ctx, tt.message, tt.fn)
			if (err != nil) != tt.wantErr {
				t.Errorf("ShowProgress() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShowProgressSimple_ShowsSpinner(t *testing.T) {
	var buf lockedBuffer
	err := showProgressSimple(context.Background(), &buf, "Working", 0, func() error {
		time.Sleep(150 * time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("showProgressSimple() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Working") {
		t.Errorf("spinner message not written, got %q", out)
	}
	if !strings.HasSuffix(out, "\r\033[K") {
		t.Errorf("spinner line not cleared, got %q", out)
	}
}

func TestShowProgressSimple_DelayHidesFastWork(t *testing.T) {
	var buf lockedBuffer
	err := showProgressSimple(context.Background(), &buf, "Assistant is typing...", time.Second, func() error {
		return nil
	})
	if err != nil {
		t.Fatalf("showProgressSimple() error = %v", err)
	}
	if out := buf.String(); out != "" {
		t.Errorf("fast work should not show the indicator, got %q", out)
	}
}

func TestShowProgressSimple_WaitsForFnAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf lockedBuffer
	finished := false

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := showProgressSimple(ctx, &buf, "Working", 0, func() error {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		finished = true
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("showProgressSimple() error = %v, want context.Canceled", err)
	}
	if !finished {
		t.Error("showProgressSimple() returned before fn finished")
	}
}

func TestShowTyping_NotTerminal(t *testing.T) {
	called := false
	err := ShowTyping(context.Background(), func() error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("ShowTyping() err = %v, called = %v", err, called)
	}
}

func TestIsTerminal_Buffer(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}
}

func TestShowProgress_LogsMessageVerbatim(t *testing.T) {
	if isTerminal(os.Stderr) {
		t.Skip("stderr is a terminal; the spinner is shown instead of a log line")
	}
	var buf lockedBuffer
	SetLogOutput(&buf)
	SetLogLevel(LogLevelDebug)
	defer func() {
		SetLogOutput(nil)
		SetLogLevel(LogLevelInfo)
	}()

	if err := ShowProgress(context.Background(), "Uploading 100%done", func() error { return nil }); err != nil {
		t.Fatalf("ShowProgress() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Uploading 100%done") || strings.Contains(out, "MISSING") {
		t.Errorf("log output = %q, want the message unchanged", out)
	}
}
