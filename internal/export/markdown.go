package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/iksnae/chat-session/internal"
)

// MarkdownExporter exports sessions in Markdown format
type MarkdownExporter struct{}

// Export exports a session to Markdown format
func (e *MarkdownExporter) Export(session *internal.Session, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# %s\n\n", headingText(session.Preview))
	_, _ = fmt.Fprintf(w, "**Session:** %s  \n", session.ID)
	if !session.CreatedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Started:** %s  \n", session.CreatedAt.Local().Format("Jan 2, 2006 15:04"))
	}
	if !session.LastUpdatedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Updated:** %s  \n", session.LastUpdatedAt.Local().Format("Jan 2, 2006 15:04"))
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(session.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, msg := range session.Messages {
		label := "You"
		if msg.Role == internal.RoleAssistant {
			label = "Assistant"
		}
		if msg.IsError {
			label += " (error)"
		}

		timestamp := ""
		if !msg.Timestamp.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp.Local().Format("15:04"))
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n", label, timestamp)
		if msg.Content != "" {
			_, _ = fmt.Fprintf(w, "%s\n\n", msg.Content)
		}
		for _, ref := range msg.Attachments {
			size := ""
			if ref.Size > 0 {
				size = " (" + humanize.Bytes(uint64(ref.Size)) + ")"
			}
			_, _ = fmt.Fprintf(w, "- 📎 %s%s\n", escapeMarkdown(ref.Name), size)
		}
		if len(msg.Attachments) > 0 {
			_, _ = fmt.Fprintln(w)
		}

		if i < len(session.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// headingText keeps a preview on a single heading line
func headingText(preview string) string {
	preview = strings.Join(strings.Fields(preview), " ")
	if preview == "" {
		return internal.PreviewPlaceholder
	}
	return escapeMarkdown(preview)
}

// escapeMarkdown escapes characters that would change the meaning of plain text
func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		"*", `\*`,
		"_", `\_`,
		"`", "\\`",
		"[", `\[`,
		"]", `\]`,
		"#", `\#`,
	)
	return replacer.Replace(text)
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
