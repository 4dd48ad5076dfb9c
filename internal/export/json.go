package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/chat-session/internal"
)

// ExportVersion identifies the layout of json exports
const ExportVersion = "1.0"

// JSONExporter exports sessions in JSON format (pretty-printed)
type JSONExporter struct{}

type jsonDocument struct {
	Version string            `json:"version"`
	Session *internal.Session `json:"session"`
}

// Export writes the session, with the same field names as the durable store,
// inside a versioned envelope
func (e *JSONExporter) Export(session *internal.Session, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(jsonDocument{Version: ExportVersion, Session: session})
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
