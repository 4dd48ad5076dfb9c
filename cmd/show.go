package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/chat-session/internal"
	"github.com/iksnae/chat-session/internal/render"
	"github.com/spf13/cobra"
)

var (
	limit int
	since string
)

var (
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show the messages of a chat",
	Long:  `Display the messages of a chat from history, or of the current chat when no id is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		id := a.store.CurrentSessionID()
		if len(args) == 1 {
			id = args[0]
		}
		session, err := a.store.Session(id)
		if err != nil {
			return fmt.Errorf("chat session not found: %s", id)
		}

		messages, err := filterMessages(session.Messages, since, limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sessionHeaderStyle.Render("💬 "+session.Preview))
		meta := fmt.Sprintf("ID: %s | %s", session.ID, render.FormatMessageCount(session.MessageCount))
		if !session.LastUpdatedAt.IsZero() {
			meta += " | Updated: " + render.FormatHistoryDate(session.LastUpdatedAt, time.Now()) +
				" " + render.FormatTime(session.LastUpdatedAt)
		}
		if session.ID == a.store.CurrentSessionID() {
			meta += " | Current Chat"
		}
		fmt.Fprintln(out, sessionMetaStyle.Render(meta))

		if len(messages) == 0 {
			fmt.Fprintln(out, render.WelcomeText)
			return nil
		}
		for _, msg := range messages {
			render.WriteMessage(out, msg)
		}
		return nil
	},
}

// filterMessages keeps messages after since (RFC3339 or a duration such as 2h)
// and then the last limit of them
func filterMessages(messages []internal.Message, since string, limit int) ([]internal.Message, error) {
	if since != "" {
		cutoff, err := parseSince(since, time.Now())
		if err != nil {
			return nil, err
		}
		filtered := make([]internal.Message, 0, len(messages))
		for _, msg := range messages {
			if !msg.Timestamp.Before(cutoff) {
				filtered = append(filtered, msg)
			}
		}
		messages = filtered
	}
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

func parseSince(since string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, since); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(since); err == nil {
		return now.Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("invalid --since %q: use RFC3339 or a duration like 2h", since)
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the last n messages")
	showCmd.Flags().StringVar(&since, "since", "", "Show messages since a time (RFC3339) or duration (e.g. 2h)")
}
