package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iksnae/chat-session/internal"
	"github.com/spf13/cobra"
)

var (
	inspectFormat   string
	inspectMaxWidth int
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect [database-path]",
	Short: "Dump the raw keys of the history storage",
	Long: `Dump the raw durable keys of the history storage.

For the sqlite backend every row of the kv table is printed ("sessions"
holds the JSON mapping of saved chats, "currentSessionId" the current one).
For the file backend the contents of sessions.json and state.yaml are printed.

Examples:
  chat-session inspect                              # Inspect the configured storage
  chat-session inspect /path/to/sessions.db          # Inspect a specific database
  chat-session inspect --format json                # Pretty-print JSON values`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 1 {
			return inspectDatabase(out, args[0])
		}

		paths, err := internal.GetStoragePaths(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to get storage paths: %w", err)
		}

		switch backend := cfg.EffectiveBackend(); backend {
		case internal.BackendSQLite:
			if !paths.DatabaseExists() {
				return fmt.Errorf("no history database at %s", paths.DatabasePath())
			}
			return inspectDatabase(out, paths.DatabasePath())
		case internal.BackendFile:
			return inspectFileStore(out, internal.NewFilePersister(paths.FileStoreDir()))
		default:
			return fmt.Errorf("the %s backend keeps nothing on disk", backend)
		}
	},
}

func inspectDatabase(out io.Writer, dbPath string) error {
	db, err := internal.OpenReadOnlyDatabase(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	pairs, err := internal.NewSQLitePersister(db).RawPairs()
	if err != nil {
		return fmt.Errorf("failed to read kv table: %w", err)
	}

	fmt.Fprintf(out, "📋 Database: %s\n", dbPath)
	fmt.Fprintf(out, "📊 Found %d key(s)\n\n", len(pairs))
	for _, pair := range pairs {
		printRaw(out, pair.Key, pair.Value)
	}
	return nil
}

func inspectFileStore(out io.Writer, fp *internal.FilePersister) error {
	fmt.Fprintf(out, "📋 Directory: %s\n\n", fp.Dir())
	for _, path := range []string{fp.SessionsPath(), fp.StatePath()} {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			fmt.Fprintf(out, "⚠️  %s does not exist\n\n", path)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		printRaw(out, path, string(data))
	}
	return nil
}

func printRaw(out io.Writer, key, value string) {
	fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(out, "📦 %s (%d bytes)\n", key, len(value))
	fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")

	if inspectFormat == "json" {
		var buf bytes.Buffer
		if json.Indent(&buf, []byte(value), "", "  ") == nil {
			value = buf.String()
		}
	}
	if inspectMaxWidth > 0 && len(value) > inspectMaxWidth {
		value = value[:inspectMaxWidth] + "..."
	}
	fmt.Fprintln(out, strings.TrimRight(value, "\n"))
	fmt.Fprintln(out)
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format (text, json)")
	inspectCmd.Flags().IntVar(&inspectMaxWidth, "max", 0, "Truncate values longer than this many bytes (0 = no limit)")
}
