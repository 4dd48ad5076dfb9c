package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/iksnae/chat-session/internal"
)

func TestJSONLExporter_Export(t *testing.T) {
	tests := []struct {
		name      string
		session   *internal.Session
		wantLines int
	}{
		{
			name:      "basic session",
			session:   internal.CreateTestSession("test1"),
			wantLines: 2,
		},
		{
			name:      "empty session",
			session:   internal.CreateTestSessionWithMessages("test2", nil),
			wantLines: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&JSONLExporter{}).Export(tt.session, &buf); err != nil {
				t.Fatalf("JSONLExporter.Export() error = %v", err)
			}

			lines := 0
			scanner := bufio.NewScanner(&buf)
			for scanner.Scan() {
				var line jsonlLine
				if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
					t.Fatalf("line %d is not valid JSON: %v", lines+1, err)
				}
				if line.SessionID != tt.session.ID {
					t.Errorf("line %d sessionId = %q, want %q", lines+1, line.SessionID, tt.session.ID)
				}
				if line.Role != tt.session.Messages[lines].Role {
					t.Errorf("line %d role = %q, want %q", lines+1, line.Role, tt.session.Messages[lines].Role)
				}
				if line.Timestamp == "" {
					t.Errorf("line %d has no timestamp", lines+1)
				}
				lines++
			}
			if lines != tt.wantLines {
				t.Errorf("JSONLExporter.Export() wrote %d lines, want %d", lines, tt.wantLines)
			}
		})
	}
}

func TestJSONLExporter_Extension(t *testing.T) {
	if got := (&JSONLExporter{}).Extension(); got != "jsonl" {
		t.Errorf("JSONLExporter.Extension() = %v, want jsonl", got)
	}
}
