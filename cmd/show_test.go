package cmd

import (
	"testing"
	"time"

	"github.com/iksnae/chat-session/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{
			name:    "show current empty chat",
			args:    []string{"show"},
			wantErr: false,
		},
		{
			name:    "show unknown session",
			args:    []string{"show", "session_missing"},
			wantErr: true,
		},
		{
			name:    "show with bad since",
			args:    []string{"show", "--since", "yesterday-ish"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, err := env.run(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Errorf("showCmd.Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShowCommand_Messages(t *testing.T) {
	env := newTestEnv(t).withBackend(t, "the reply")
	mustRun(t, env, "send", "the question")

	out := mustRun(t, env, "show")
	assert.Contains(t, out, "👤 You")
	assert.Contains(t, out, "the question")
	assert.Contains(t, out, "🤖 Assistant")
	assert.Contains(t, out, "the reply")
	assert.Contains(t, out, "2 messages")

	out = mustRun(t, env, "show", "--limit", "1")
	assert.NotContains(t, out, "👤 You", "the header still shows the preview, but the user message is cut")
	assert.Contains(t, out, "🤖 Assistant")
	assert.Contains(t, out, "the reply")
}

func TestFilterMessages(t *testing.T) {
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	messages := []internal.Message{
		{Role: internal.RoleUser, Content: "one", Timestamp: base},
		{Role: internal.RoleAssistant, Content: "two", Timestamp: base.Add(time.Hour)},
		{Role: internal.RoleUser, Content: "three", Timestamp: base.Add(2 * time.Hour)},
	}

	got, err := filterMessages(messages, "", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Content)

	got, err = filterMessages(messages, base.Add(90*time.Minute).Format(time.RFC3339), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "three", got[0].Content)

	_, err = filterMessages(messages, "not a time", 0)
	assert.Error(t, err)
}

func TestParseSince(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	got, err := parseSince("2h", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-2*time.Hour), got)

	got, err = parseSince("2024-03-09T08:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC), got)
}
