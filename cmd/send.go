package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/iksnae/chat-session/internal"
	"github.com/iksnae/chat-session/internal/render"
	"github.com/spf13/cobra"
)

var (
	sendNew    bool
	sendFiles  []string
	sendPrompt string
)

// suggestionPrompts are the canned openers offered to new users
var suggestionPrompts = map[string]string{
	"analyze":   "I would like to analyze a legal document. Please help me understand the key points.",
	"search":    "I need to search for relevant case precedents.",
	"summarize": "Can you help me summarize a case file?",
	"compare":   "I want to compare multiple legal documents.",
}

func suggestionNames() []string {
	names := make([]string, 0, len(suggestionPrompts))
	for name := range suggestionPrompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sendCmd sends one message into the current chat
var sendCmd = &cobra.Command{
	Use:   "send [message...]",
	Short: "Send one message and print the reply",
	Long: `Send a single message into the current chat and print the reply.

Files given with --file are uploaded first and attached to the message.
--prompt sends one of the suggested openers (analyze, search, summarize,
compare) in a new chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if sendPrompt != "" {
			prompt, ok := suggestionPrompts[sendPrompt]
			if !ok {
				return fmt.Errorf("unknown prompt %q (available: %s)", sendPrompt, strings.Join(suggestionNames(), ", "))
			}
			text = prompt
		}

		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if sendNew || sendPrompt != "" {
			reportStorage(a.client.NewSession())
		}

		if len(sendFiles) > 0 {
			err := internal.ShowProgress(ctx, "Uploading files...", func() error {
				_, err := a.client.Upload(ctx, sendFiles)
				return err
			})
			if err != nil {
				return fmt.Errorf("upload failed: %s", internal.ErrorReplyText(err))
			}
		}

		var reply internal.Message
		err = internal.ShowTyping(ctx, func() error {
			var err error
			reply, err = a.client.Send(ctx, text)
			return err
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return errors.New(internal.CancelledReply)
			}
			return err
		}

		render.WriteMessage(cmd.OutOrStdout(), reply)
		if reply.IsError {
			return fmt.Errorf("the backend did not answer: %s", reply.Content)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().BoolVar(&sendNew, "new", false, "Start a new chat before sending")
	sendCmd.Flags().StringSliceVarP(&sendFiles, "file", "f", nil, "Upload and attach a file (repeatable)")
	sendCmd.Flags().StringVar(&sendPrompt, "prompt", "", "Send a suggested prompt: analyze, search, summarize or compare")
}
