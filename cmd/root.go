package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/chat-session/internal"
	"github.com/iksnae/chat-session/internal/config"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	cfgFile     string
	storagePath string
	backendName string
	endpoint    string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"

	// v holds flags, environment and file settings; cfg is decoded from it
	v   = config.New()
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chat-session",
	Short: "Chat with an HTTP backend and keep your conversation history",
	Long: `A terminal chat client that forwards your messages to a backend over HTTP
and keeps every conversation in local history.

Features:
  • Interactive chat with a typing indicator and Ctrl-C cancellation
  • Multiple conversations: start, load, delete and list past chats
  • File uploads attached to your next message
  • History stored in SQLite, plain files or memory only
  • Export in multiple formats (JSONL, Markdown, YAML, JSON, HTML)

Quick Start:
  chat-session chat                       # Start chatting
  chat-session send "What is a tort?"      # One-shot message
  chat-session list                       # List past chats
  chat-session export --format md         # Export the current chat

Settings are read from config.yaml in the config directory (see
"chat-session config path") and CHAT_SESSION_* environment variables.`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	internal.SetVerbose(verbose)

	path, err := configPath()
	if err != nil {
		return err
	}
	loaded, err := config.Load(v, path)
	if err != nil {
		return err
	}
	cfg = loaded

	if verbose {
		internal.SetLogLevel(internal.LogLevelDebug)
	} else {
		internal.SetLogLevelString(cfg.Log.Level)
	}
	internal.LogDebug("Config loaded from %s (provider %s, backend %s)", path, cfg.API.Provider, cfg.EffectiveBackend())
	return nil
}

// configPath returns --config or the default location
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	paths, err := internal.DetectStoragePaths()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return paths.ConfigFile(), nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&cfgFile, "config", "", "Config file (default is config.yaml in the config directory)")
	flags.StringVar(&storagePath, "storage", "", "Custom data directory for chat history")
	flags.StringVar(&backendName, "backend", "", "History backend: sqlite, file or memory")
	flags.StringVar(&endpoint, "endpoint", "", "Backend API endpoint")

	_ = v.BindPFlag("storage.path", flags.Lookup("storage"))
	_ = v.BindPFlag("storage.backend", flags.Lookup("backend"))
	_ = v.BindPFlag("api.endpoint", flags.Lookup("endpoint"))

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
