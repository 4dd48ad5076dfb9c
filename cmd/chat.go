package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/chat-session/internal"
	"github.com/iksnae/chat-session/internal/config"
	"github.com/iksnae/chat-session/internal/render"
	"github.com/iksnae/chat-session/internal/transport"
	"github.com/spf13/cobra"
)

var chatWatchConfig bool

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212"))
)

var errChatNotFound = errors.New("Chat session not found")

const chatHelp = `Commands:
  /new                 start a new chat
  /clear               start over (same as /new when the chat has messages)
  /list                show chat history
  /load <id>           switch to a chat from history
  /delete <id>         delete a chat from history
  /upload <files...>   upload files and attach them to your next message
  /files               show files attached to your next message
  /remove <n>          remove attached file number n
  /prompt <name>       send a suggested prompt (analyze, search, summarize, compare)
  /cancel              cancel the pending reply (Ctrl-C also works)
  /help                show this help
  /quit                exit`

// chatCmd represents the interactive chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long: `Start an interactive chat with the configured backend.

Type a message and press Enter to send it. Lines starting with / are
commands; /help lists them. Ctrl-C cancels a pending reply, Ctrl-D exits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		renderer := render.NewTerminalRenderer(out)

		a, err := openApp(renderer)
		if err != nil {
			return err
		}
		defer a.Close()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt)
		defer signal.Stop(sigCh)
		go func() {
			for range sigCh {
				if a.client.Cancel() {
					continue
				}
				fmt.Fprintln(out, "\nType /quit or press Ctrl-D to exit.")
			}
		}()

		if chatWatchConfig {
			config.Watch(v, func(c *config.Config) {
				cfg = c
				internal.SetLogLevelString(c.Log.Level)
				remote, uploader := transport.FromConfig(c)
				a.client.SetTransport(remote, uploader)
				internal.PrintInfo("Settings reloaded, using " + remote.Endpoint())
			}, func(err error) {
				internal.PrintWarning("Ignoring invalid settings: " + err.Error())
			})
		}

		s := &chatSession{app: a, renderer: renderer, out: out}
		return s.run(cmd.Context(), cmd.InOrStdin())
	},
}

// chatSession runs the read-eval loop
type chatSession struct {
	app      *app
	renderer *render.TerminalRenderer
	out      io.Writer
}

func (s *chatSession) run(ctx context.Context, in io.Reader) error {
	if ctx == nil {
		ctx = context.Background()
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(s.out, promptStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			quit, err := s.command(ctx, line)
			if err != nil {
				internal.PrintError(err.Error())
			}
			if quit {
				return nil
			}
			continue
		}
		s.send(ctx, line)
	}
}

func (s *chatSession) send(ctx context.Context, text string) {
	err := internal.ShowTyping(ctx, func() error {
		_, err := s.app.client.Send(ctx, text)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, internal.ErrStaleSession):
		internal.LogDebug("Reply arrived after switching chats")
	default:
		internal.PrintError(err.Error())
	}
	reportStorage(s.app.store.LastStorageError())
}

// command handles a slash command, reporting whether the loop should end
func (s *chatSession) command(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]
	client := s.app.client
	store := s.app.store

	switch name {
	case "/quit", "/exit":
		return true, nil

	case "/help":
		fmt.Fprintln(s.out, helpKeyStyle.Render(chatHelp))

	case "/new":
		reportStorage(client.NewSession())
		internal.PrintSuccess("Started new chat")

	case "/clear":
		if len(store.Messages()) == 0 {
			internal.PrintInfo("Chat is already empty")
			return false, nil
		}
		reportStorage(client.NewSession())
		internal.PrintSuccess("Started new chat")

	case "/list":
		s.renderer.WriteSessionList()

	case "/load":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /load <id>")
		}
		if err := client.LoadSession(args[0]); err != nil {
			if internal.IsNotFound(err) {
				return false, errChatNotFound
			}
			reportStorage(err)
			return false, nil
		}
		internal.PrintSuccess("Chat loaded successfully")

	case "/delete":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /delete <id>")
		}
		if !store.HasSession(args[0]) {
			return false, errChatNotFound
		}
		reportStorage(client.DeleteSession(args[0]))
		internal.PrintSuccess("Chat deleted")

	case "/upload":
		if len(args) == 0 {
			return false, fmt.Errorf("usage: /upload <files...>")
		}
		var refs []internal.FileRef
		err := internal.ShowProgress(ctx, "Uploading files...", func() error {
			var err error
			refs, err = client.Upload(ctx, args)
			return err
		})
		if err != nil {
			return false, fmt.Errorf("upload failed: %s", internal.ErrorReplyText(err))
		}
		for _, ref := range refs {
			internal.PrintSuccess(fmt.Sprintf("Attached %s (%s)", ref.Name, render.FormatFileSize(ref.Size)))
		}

	case "/files":
		pending := client.PendingAttachments()
		if len(pending) == 0 {
			internal.PrintInfo("No files attached")
			return false, nil
		}
		for i, ref := range pending {
			fmt.Fprintf(s.out, "  %d. 📎 %s (%s)\n", i+1, ref.Name, render.FormatFileSize(ref.Size))
		}

	case "/remove":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /remove <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("usage: /remove <n>")
		}
		if err := client.RemovePending(n - 1); err != nil {
			return false, err
		}
		internal.PrintSuccess("Attachment removed")

	case "/prompt":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /prompt <%s>", strings.Join(suggestionNames(), "|"))
		}
		text, ok := suggestionPrompts[args[0]]
		if !ok {
			return false, fmt.Errorf("unknown prompt %q (available: %s)", args[0], strings.Join(suggestionNames(), ", "))
		}
		reportStorage(client.NewSession())
		s.send(ctx, text)

	case "/cancel":
		if !client.Cancel() {
			internal.PrintInfo("No reply is pending")
		}

	default:
		return false, fmt.Errorf("unknown command %s (type /help for a list)", name)
	}
	return false, nil
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVar(&chatWatchConfig, "watch-config", true, "Reload settings when the config file changes")
}
