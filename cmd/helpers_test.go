package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// testEnv points the CLI at a throwaway config file and data directory
type testEnv struct {
	dir     string
	config  string
	storage string
	backend string
	api     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		dir:     dir,
		config:  filepath.Join(dir, "config.yaml"),
		storage: filepath.Join(dir, "data"),
		backend: "sqlite",
		api:     "http://127.0.0.1:1/api/query",
	}
}

// withBackend starts a fake query-mode backend answering every message with reply
func (e *testEnv) withBackend(t *testing.T, reply string) *testEnv {
	t.Helper()
	srv := echo.New()
	srv.HideBanner = true
	srv.POST("/api/query", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"response": reply})
	})
	srv.GET("/api/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"status": "ok"})
	})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	e.api = ts.URL + "/api/query"
	return e
}

// run executes the root command and returns what it wrote to its output
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return e.runWithInput(t, "", args...)
}

func (e *testEnv) runWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	full := append([]string{
		"--config", e.config,
		"--storage", e.storage,
		"--backend", e.backend,
		"--endpoint", e.api,
	}, args...)

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(full)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(input))
	err := rootCmd.Execute()
	return stdout.String(), err
}

// resetFlags restores every flag to its default so runs do not leak into each other
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func mustRun(t *testing.T, e *testEnv, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "chat-session %s", strings.Join(args, " "))
	return out
}
