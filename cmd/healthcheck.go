package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/chat-session/internal"
	"github.com/iksnae/chat-session/internal/transport"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
	skipRemote         bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check settings, history storage and backend reachability",
	Long: `Check the health of chat-session by verifying:
  • Settings are valid
  • History storage can be opened and read
  • The backend answers its health endpoint

This command is useful for debugging connection problems.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 Chat Session Health Check"))
		fmt.Fprintln(out)

		// Step 1: settings were validated by loadConfig
		fmt.Fprintln(out, infoStyle.Render("Step 1: Checking settings..."))
		path, _ := configPath()
		fmt.Fprintln(out, successStyle.Render("✅ Settings are valid"))
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Config file: %s\n", path)
			fmt.Fprintf(out, "   Provider: %s\n", cfg.API.Provider)
			fmt.Fprintf(out, "   History backend: %s\n", cfg.EffectiveBackend())
		}
		fmt.Fprintln(out)

		// Step 2: history storage
		fmt.Fprintln(out, infoStyle.Render("Step 2: Opening history storage..."))
		storageOK, sessionCount := checkStorage(out)
		fmt.Fprintln(out)

		// Step 3: backend
		fmt.Fprintln(out, infoStyle.Render("Step 3: Contacting backend..."))
		remote, _ := transport.FromConfig(cfg)
		remoteOK := true
		if skipRemote {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Skipped"))
		} else {
			remoteOK = checkRemote(cmd.Context(), out, remote)
		}
		fmt.Fprintln(out)

		// Summary
		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		switch {
		case storageOK && remoteOK:
			fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("   • History: %d chat(s) saved", sessionCount)))
			fmt.Fprintln(out, successStyle.Render("   • Backend: "+remote.Endpoint()))
			return nil
		case remoteOK:
			fmt.Fprintln(out, warningStyle.Render("⚠️  Backend reachable but history will not be saved"))
			return nil
		default:
			fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
			fmt.Fprintln(out, "   • Cannot reach the backend at "+remote.Endpoint())
			fmt.Fprintln(out, "   • Check api.endpoint with 'chat-session config show'")
			return fmt.Errorf("health check failed: backend unreachable")
		}
	},
}

func checkStorage(out io.Writer) (bool, int) {
	paths, err := internal.GetStoragePaths(cfg.Storage.Path)
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render("❌ Failed to resolve storage paths:"), err)
		return false, 0
	}
	backend := cfg.EffectiveBackend()
	persister, closeFn, err := internal.OpenPersister(backend, paths)
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render("❌ Failed to open history storage:"), err)
		return false, 0
	}
	defer func() { _ = closeFn() }()

	snapshot, err := persister.Load()
	if err != nil {
		fmt.Fprintln(out, warningStyle.Render("⚠️  Stored history could not be read:"), err)
		return false, 0
	}
	count := 0
	if snapshot != nil {
		count = len(snapshot.Sessions)
	}
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ History storage ready (%s)", backend)))
	if healthcheckVerbose {
		switch backend {
		case internal.BackendSQLite:
			fmt.Fprintf(out, "   Database: %s\n", paths.DatabasePath())
		case internal.BackendFile:
			fmt.Fprintf(out, "   Directory: %s\n", paths.FileStoreDir())
		default:
			fmt.Fprintln(out, "   History is kept in memory only")
		}
		fmt.Fprintf(out, "   Saved chats: %d\n", count)
	}
	return true, count
}

func checkRemote(ctx context.Context, out io.Writer, remote transport.Backend) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	if err := remote.Health(ctx); err != nil {
		fmt.Fprintln(out, errorStyle.Render("❌ Backend not reachable:"), internal.ErrorReplyText(err))
		return false
	}
	fmt.Fprintln(out, successStyle.Render("✅ Backend reachable"))
	if healthcheckVerbose {
		fmt.Fprintf(out, "   Endpoint: %s\n", remote.Endpoint())
		fmt.Fprintf(out, "   Latency: %s\n", time.Since(start).Round(time.Millisecond))
	}
	return true
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "details", "d", false, "Show detailed diagnostic information")
	healthcheckCmd.Flags().BoolVar(&skipRemote, "offline", false, "Skip contacting the backend")
}
