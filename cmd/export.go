package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iksnae/chat-session/internal"
	"github.com/iksnae/chat-session/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
	sessionID string
	exportAll bool
	toStdout  bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export chats to file",
	Long: `Export chats to various formats (jsonl, md, yaml, json, html).

By default the current chat is exported. Use --session to export a chat
from history or --all to export every saved chat.
Use 'chat-session list' to see available session IDs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}
		if exportAll && sessionID != "" {
			return fmt.Errorf("--all and --session cannot be used together")
		}

		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		sessions, err := sessionsToExport(a.store)
		if err != nil {
			return err
		}

		if toStdout {
			if len(sessions) != 1 {
				return fmt.Errorf("--stdout exports a single chat; drop --all")
			}
			return exportSession(exporter, format, sessions[0], cmd.OutOrStdout(), "-")
		}

		if len(sessions) == 0 {
			internal.PrintInfo("No chats to export")
			return nil
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		exported := 0
		err = internal.ShowProgress(cmd.Context(), fmt.Sprintf("Exporting %d chat(s) to %s", len(sessions), outputDir), func() error {
			for _, session := range sessions {
				path := filepath.Join(outputDir, fmt.Sprintf("session_%s.%s", session.ID, exporter.Extension()))
				if err := exportFile(exporter, format, session, path); err != nil {
					internal.LogError("%v", err)
					continue
				}
				exported++
			}
			return nil
		})
		if err != nil {
			return err
		}
		if exported == 0 {
			return fmt.Errorf("export failed for all %d chat(s)", len(sessions))
		}

		internal.PrintSuccess(fmt.Sprintf("Export complete: %d chat(s) exported to %s", exported, outputDir))
		return nil
	},
}

// sessionsToExport resolves the export flags against the store
func sessionsToExport(store *internal.Store) ([]*internal.Session, error) {
	switch {
	case exportAll:
		return store.Sessions(), nil
	case sessionID != "":
		session, err := store.Session(sessionID)
		if err != nil {
			return nil, fmt.Errorf("session not found: %s (use 'chat-session list' to see available sessions)", sessionID)
		}
		return []*internal.Session{session}, nil
	default:
		return []*internal.Session{store.Current()}, nil
	}
}

func exportFile(exporter export.Exporter, format string, session *internal.Session, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := exportSession(exporter, format, session, file, path); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	return nil
}

func exportSession(exporter export.Exporter, format string, session *internal.Session, w io.Writer, path string) error {
	if err := exporter.Export(session, w); err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json, html)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().StringVar(&sessionID, "session", "", "Export a specific chat by ID")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every saved chat")
	exportCmd.Flags().BoolVar(&toStdout, "stdout", false, "Write the export to standard output")
}
