package export

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/iksnae/chat-session/internal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// HTMLExporter renders the markdown export as a standalone HTML page.
// Raw HTML in messages is not passed through.
type HTMLExporter struct {
	md goldmark.Markdown
}

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
pre { background: #f4f4f4; padding: 0.75rem; overflow-x: auto; }
code { background: #f4f4f4; padding: 0 0.2rem; }
</style>
</head>
<body>
`

const htmlFoot = `</body>
</html>
`

// NewHTMLExporter creates an HTML exporter
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{
		md: goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough)),
	}
}

// Export exports a session to HTML
func (e *HTMLExporter) Export(session *internal.Session, w io.Writer) error {
	var source bytes.Buffer
	if err := (&MarkdownExporter{}).Export(session, &source); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, htmlHead, html.EscapeString(session.Preview)); err != nil {
		return err
	}
	if err := e.md.Convert(source.Bytes(), w); err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err := io.WriteString(w, htmlFoot)
	return err
}

// Extension returns the file extension for this format
func (e *HTMLExporter) Extension() string {
	return "html"
}
