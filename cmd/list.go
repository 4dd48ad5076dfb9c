package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/iksnae/chat-session/internal"
	"github.com/iksnae/chat-session/internal/render"
	"github.com/spf13/cobra"
)

var (
	listJSON  bool
	listLimit int
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List chat history",
	Long:  `List saved chats, most recently updated first. The current chat is marked.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		var summaries []internal.SessionSummary
		for summary := range a.store.ListSessions() {
			if listLimit > 0 && len(summaries) == listLimit {
				break
			}
			summaries = append(summaries, summary)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if summaries == nil {
				summaries = []internal.SessionSummary{}
			}
			if err := enc.Encode(summaries); err != nil {
				return fmt.Errorf("failed to encode sessions: %w", err)
			}
			return nil
		}

		render.WriteSessionTable(out, summaries, time.Now())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print sessions as JSON")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Show at most n sessions (0 = all)")
}
