package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iksnae/chat-session/internal"
)

// JSONLExporter exports sessions in JSONL format (one message per line)
type JSONLExporter struct{}

type jsonlLine struct {
	SessionID   string             `json:"sessionId"`
	ID          string             `json:"id,omitempty"`
	Role        internal.Role      `json:"role"`
	Content     string             `json:"content"`
	Timestamp   string             `json:"timestamp,omitempty"`
	Attachments []internal.FileRef `json:"attachments,omitempty"`
	IsError     bool               `json:"isError,omitempty"`
}

// Export writes one JSON object per message
func (e *JSONLExporter) Export(session *internal.Session, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range session.Messages {
		line := jsonlLine{
			SessionID:   session.ID,
			ID:          msg.ID,
			Role:        msg.Role,
			Content:     msg.Content,
			Attachments: msg.Attachments,
			IsError:     msg.IsError,
		}
		if !msg.Timestamp.IsZero() {
			line.Timestamp = msg.Timestamp.UTC().Format(time.RFC3339Nano)
		}

		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
