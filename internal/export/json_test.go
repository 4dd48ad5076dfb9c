package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/chat-session/internal"
)

func TestJSONExporter_Export(t *testing.T) {
	tests := []struct {
		name    string
		session *internal.Session
		wantErr bool
	}{
		{
			name:    "basic session",
			session: internal.CreateTestSession("test1"),
			wantErr: false,
		},
		{
			name:    "empty session",
			session: internal.CreateTestSessionWithMessages("test2", []internal.Message{}),
			wantErr: false,
		},
		{
			name: "session with attachments and errors",
			session: internal.CreateTestSessionWithMessages("test3", []internal.Message{
				{
					Role:        internal.RoleUser,
					Content:     "Summarize this",
					Timestamp:   internal.TestTime,
					Attachments: []internal.FileRef{{ID: "f1", Name: "report.pdf", Size: 1024}},
				},
				{
					Role:      internal.RoleAssistant,
					Content:   "Server error: 500",
					Timestamp: internal.TestTime,
					IsError:   true,
				},
			}),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONExporter{}

			err := exporter.Export(tt.session, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("JSONExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				return
			}

			var doc struct {
				Version string           `json:"version"`
				Session internal.Session `json:"session"`
			}
			if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
				t.Fatalf("JSONExporter.Export() produced invalid JSON: %v", err)
			}
			if doc.Version != ExportVersion {
				t.Errorf("version = %q, want %q", doc.Version, ExportVersion)
			}
			if doc.Session.ID != tt.session.ID {
				t.Errorf("session id = %q, want %q", doc.Session.ID, tt.session.ID)
			}
			if len(doc.Session.Messages) != len(tt.session.Messages) {
				t.Errorf("messages = %d, want %d", len(doc.Session.Messages), len(tt.session.Messages))
			}
			if !strings.Contains(buf.String(), "\n  ") {
				t.Error("JSONExporter.Export() output is not indented")
			}
		})
	}
}

func TestJSONExporter_Fields(t *testing.T) {
	session := internal.CreateTestSessionWithMessages("s1", []internal.Message{
		{Role: internal.RoleUser, Content: "hi", Timestamp: internal.TestTime},
		{Role: internal.RoleAssistant, Content: "oops", Timestamp: internal.TestTime, IsError: true},
	})

	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(session, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"lastUpdatedAt"`, `"preview": "hi"`, `"messageCount": 2`, `"isError": true`, `"role": "assistant"`} {
		if !strings.Contains(out, want) {
			t.Errorf("JSON export missing %s:\n%s", want, out)
		}
	}
}

func TestJSONExporter_Extension(t *testing.T) {
	exporter := &JSONExporter{}
	if got := exporter.Extension(); got != "json" {
		t.Errorf("JSONExporter.Extension() = %v, want json", got)
	}
}
