package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/chat-session/internal"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	currentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Italic(true)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true)

	errorLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	contentStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	attachmentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			PaddingLeft(2)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// WelcomeText is shown when a session has no messages
const WelcomeText = "Start a conversation: type a message and press Enter. /help lists commands."

// TerminalRenderer writes conversation updates to a terminal. It
// implements internal.Renderer.
type TerminalRenderer struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time

	sessions []internal.SessionSummary
}

// NewTerminalRenderer creates a renderer writing to w
func NewTerminalRenderer(w io.Writer) *TerminalRenderer {
	return &TerminalRenderer{w: w, now: time.Now}
}

// OnSessionCleared shows the empty-session welcome
func (r *TerminalRenderer) OnSessionCleared() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, dividerStyle.Render(strings.Repeat("─", 40)))
	fmt.Fprintln(r.w, timestampStyle.Render(WelcomeText))
	fmt.Fprintln(r.w)
}

// OnMessageAppended prints a single message
func (r *TerminalRenderer) OnMessageAppended(msg internal.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	WriteMessage(r.w, msg)
}

// OnHistoryReplaced reprints the whole conversation
func (r *TerminalRenderer) OnHistoryReplaced(messages []internal.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, dividerStyle.Render(strings.Repeat("─", 40)))
	if len(messages) == 0 {
		fmt.Fprintln(r.w, timestampStyle.Render(WelcomeText))
		fmt.Fprintln(r.w)
		return
	}
	for _, msg := range messages {
		WriteMessage(r.w, msg)
	}
}

// OnSessionListChanged records the latest list; it is printed on demand
func (r *TerminalRenderer) OnSessionListChanged(sessions []internal.SessionSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = sessions
}

// WriteSessionList prints the most recently received session list
func (r *TerminalRenderer) WriteSessionList() {
	r.mu.Lock()
	defer r.mu.Unlock()
	WriteSessionTable(r.w, r.sessions, r.now())
}

// WriteMessage prints one message with its role, time and attachments
func WriteMessage(w io.Writer, msg internal.Message) {
	var label string
	switch {
	case msg.IsError:
		label = errorLabelStyle.Render("❌ Assistant")
	case msg.Role == internal.RoleUser:
		label = userLabelStyle.Render("👤 You")
	default:
		label = assistantLabelStyle.Render("🤖 Assistant")
	}
	fmt.Fprintf(w, "%s %s\n", label, timestampStyle.Render(FormatTime(msg.Timestamp)))

	if msg.Content != "" {
		fmt.Fprintln(w, contentStyle.Render(FormatTerminal(msg.Content)))
	}
	for _, ref := range msg.Attachments {
		line := "📎 " + StripControl(ref.Name)
		if ref.Size > 0 {
			line += " (" + FormatFileSize(ref.Size) + ")"
		}
		fmt.Fprintln(w, attachmentStyle.Render(line))
	}
	fmt.Fprintln(w)
}

// WriteSessionTable prints session summaries as an aligned table
func WriteSessionTable(w io.Writer, sessions []internal.SessionSummary, now time.Time) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, headerStyle.Render("📋 No chat history yet"))
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("📋 Found %d chat(s)", len(sessions))))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, titleStyle.Render("ID")+"\t"+titleStyle.Render("Preview")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Updated")+"\t")
	_, _ = fmt.Fprintln(tw, strings.Repeat("─", 100))

	for _, s := range sessions {
		preview := StripControl(strings.ReplaceAll(s.Preview, "\n", " "))
		if s.IsCurrent {
			preview += " " + currentStyle.Render("(Current Chat)")
		}
		updated := FormatHistoryDate(s.LastUpdatedAt, now)
		if updated == "Today" {
			updated += " " + FormatTime(s.LastUpdatedAt)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			idStyle.Render(s.ID),
			preview,
			countStyle.Render(strconv.Itoa(s.MessageCount)),
			dateStyle.Render(updated),
		)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)
	fmt.Fprintln(w, idStyle.Render("💡 Tip: load a chat with `chat-session load "+sessions[0].ID+"`"))
}
