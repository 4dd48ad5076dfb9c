package cmd

import (
	"fmt"

	"github.com/iksnae/chat-session/internal"
	"github.com/iksnae/chat-session/internal/render"
	"github.com/spf13/cobra"
)

// newCmd starts a new chat
var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new chat",
	Long:  `Save the current chat to history (if it has messages) and start a new one.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		reportStorage(a.client.NewSession())
		internal.PrintSuccess("Started new chat")
		return nil
	},
}

// clearCmd starts over unless the current chat is already empty
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the current chat",
	Long:  `Start over with an empty chat. The previous chat stays in history.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(a.store.Messages()) == 0 {
			internal.PrintInfo("Chat is already empty")
			return nil
		}
		reportStorage(a.client.NewSession())
		internal.PrintSuccess("Started new chat")
		return nil
	},
}

// loadCmd makes a chat from history current
var loadCmd = &cobra.Command{
	Use:   "load <session-id>",
	Short: "Switch to a chat from history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.client.LoadSession(args[0]); err != nil {
			if internal.IsNotFound(err) {
				return fmt.Errorf("chat session not found: %s", args[0])
			}
			reportStorage(err)
		}
		internal.PrintSuccess("Chat loaded successfully")

		out := cmd.OutOrStdout()
		for _, msg := range a.store.Messages() {
			render.WriteMessage(out, msg)
		}
		return nil
	},
}

// deleteCmd removes a chat from history
var deleteCmd = &cobra.Command{
	Use:     "delete <session-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a chat from history",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.store.HasSession(args[0]) {
			return fmt.Errorf("chat session not found: %s", args[0])
		}
		reportStorage(a.client.DeleteSession(args[0]))
		internal.PrintSuccess("Chat deleted")
		return nil
	},
}

// uploadCmd uploads files and prints their references
var uploadCmd = &cobra.Command{
	Use:   "upload <files...>",
	Short: "Upload files to the backend",
	Long: fmt.Sprintf(`Upload files to the backend and print the references it returns.

Supported file types: %v. To attach files to a message use
"chat-session send --file <path> <message>" or /upload in chat.`, internal.AllowedUploadExtensions),
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		var refs []internal.FileRef
		err = internal.ShowProgress(cmd.Context(), "Uploading files...", func() error {
			var err error
			refs, err = a.client.Upload(cmd.Context(), args)
			return err
		})
		if err != nil {
			return fmt.Errorf("upload failed: %s", internal.ErrorReplyText(err))
		}

		out := cmd.OutOrStdout()
		for _, ref := range refs {
			fmt.Fprintf(out, "%s\t%s\t%s\n", ref.ID, ref.Name, render.FormatFileSize(ref.Size))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(uploadCmd)
}
