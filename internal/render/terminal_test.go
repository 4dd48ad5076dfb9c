package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/chat-session/internal"
)

func TestFormatHistoryDate(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"same day", now.Add(-2 * time.Hour), "Today"},
		{"yesterday", time.Date(2024, 3, 9, 23, 59, 0, 0, time.Local), "Yesterday"},
		{"older", time.Date(2024, 1, 5, 8, 0, 0, 0, time.Local), "Jan 5, 2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatHistoryDate(tt.t, now); got != tt.want {
				t.Errorf("FormatHistoryDate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 3, 10, 9, 5, 0, 0, time.Local)
	if got := FormatTime(ts); got != "09:05" {
		t.Errorf("FormatTime() = %q, want %q", got, "09:05")
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1500, "1.5 kB"},
		{2 * 1000 * 1000, "2.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatFileSize(tt.size); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

func TestFormatMessageCount(t *testing.T) {
	if got := FormatMessageCount(1); got != "1 message" {
		t.Errorf("FormatMessageCount(1) = %q", got)
	}
	if got := FormatMessageCount(3); got != "3 messages" {
		t.Errorf("FormatMessageCount(3) = %q", got)
	}
}

func TestTerminalRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerminalRenderer(&buf)

	r.OnMessageAppended(internal.Message{
		Role:        internal.RoleUser,
		Content:     "hello",
		Timestamp:   time.Now(),
		Attachments: []internal.FileRef{{ID: "1", Name: "doc.pdf", Size: 2048}},
	})
	r.OnMessageAppended(internal.Message{Role: internal.RoleAssistant, Content: "boom", IsError: true, Timestamp: time.Now()})

	out := buf.String()
	for _, want := range []string{"You", "hello", "doc.pdf", "2.0 kB", "❌", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderer output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	r.OnSessionCleared()
	if !strings.Contains(buf.String(), WelcomeText) {
		t.Errorf("OnSessionCleared() output = %q, want welcome text", buf.String())
	}
}

func TestTerminalRenderer_SessionList(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerminalRenderer(&buf)

	r.WriteSessionList()
	if !strings.Contains(buf.String(), "No chat history yet") {
		t.Errorf("empty list output = %q", buf.String())
	}

	buf.Reset()
	r.OnSessionListChanged([]internal.SessionSummary{
		{ID: "session_2", Preview: "second", MessageCount: 2, LastUpdatedAt: time.Now(), IsCurrent: true},
		{ID: "session_1", Preview: "first", MessageCount: 1, LastUpdatedAt: time.Now().AddDate(0, 0, -3)},
	})
	if buf.Len() != 0 {
		t.Errorf("OnSessionListChanged() wrote output: %q", buf.String())
	}

	r.WriteSessionList()
	out := buf.String()
	for _, want := range []string{"Found 2 chat(s)", "session_2", "second", "Current Chat", "session_1"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "session_2") > strings.Index(out, "session_1") {
		t.Errorf("list output not in given order:\n%s", out)
	}
}
