package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{
			name:    "export with invalid format",
			args:    []string{"export", "--format", "invalid"},
			wantErr: true,
		},
		{
			name:    "export unknown session",
			args:    []string{"export", "--session", "session_missing"},
			wantErr: true,
		},
		{
			name:    "all and session together",
			args:    []string{"export", "--all", "--session", "x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, err := env.run(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Errorf("exportCmd.Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExportCommand_WritesFiles(t *testing.T) {
	env := newTestEnv(t).withBackend(t, "answer")
	mustRun(t, env, "send", "first chat")
	mustRun(t, env, "new")
	mustRun(t, env, "send", "second chat")

	outDir := filepath.Join(env.dir, "exports")
	for _, format := range []string{"jsonl", "md", "yaml", "json", "html"} {
		t.Run(format, func(t *testing.T) {
			mustRun(t, env, "export", "--all", "--format", format, "--out", outDir)
		})
	}

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 10)
}

func TestExportCommand_Stdout(t *testing.T) {
	env := newTestEnv(t).withBackend(t, "answer")
	mustRun(t, env, "send", "to stdout")

	out := mustRun(t, env, "export", "--format", "json", "--stdout")
	var doc struct {
		Version string `json:"version"`
		Session struct {
			Preview  string            `json:"preview"`
			Messages []json.RawMessage `json:"messages"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "1.0", doc.Version)
	assert.Equal(t, "to stdout", doc.Session.Preview)
	assert.Len(t, doc.Session.Messages, 2)
}
