package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect_SQLite(t *testing.T) {
	env := newTestEnv(t).withBackend(t, "ok")
	mustRun(t, env, "send", "inspect me")

	out := mustRun(t, env, "inspect", "--format", "json")
	assert.Contains(t, out, "Found 2 key(s)")
	assert.Contains(t, out, "📦 sessions")
	assert.Contains(t, out, "📦 currentSessionId")
	assert.Contains(t, out, "inspect me")
}

func TestInspect_ExplicitPath(t *testing.T) {
	env := newTestEnv(t).withBackend(t, "ok")
	mustRun(t, env, "send", "by path")

	out := mustRun(t, env, "inspect", filepath.Join(env.storage, "sessions.db"))
	assert.Contains(t, out, "by path")
}

func TestInspect_FileStore(t *testing.T) {
	env := newTestEnv(t).withBackend(t, "ok")
	env.backend = "file"
	mustRun(t, env, "send", "in a file")

	out := mustRun(t, env, "inspect")
	assert.Contains(t, out, "sessions.json")
	assert.Contains(t, out, "state.yaml")
	assert.Contains(t, out, "in a file")
}

func TestInspect_MemoryBackend(t *testing.T) {
	env := newTestEnv(t)
	env.backend = "memory"

	_, err := env.run(t, "inspect")
	require.Error(t, err)
}

func TestInspect_MissingDatabase(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "inspect")
	require.Error(t, err)
}
