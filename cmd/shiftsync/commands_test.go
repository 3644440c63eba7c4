package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/shift-sync/internal/calendar"
	"github.com/joseph-ayodele/shift-sync/internal/common"
	"github.com/joseph-ayodele/shift-sync/internal/entity"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel(" WARN "))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("chatty"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(common.LogConfig{Level: "info", Format: "json"}, &buf)
	l.Debug("hidden")
	l.Info("sync.done", "attempted", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "sync.done", entry["msg"])
	assert.Equal(t, float64(3), entry["attempted"])
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	newLogger(common.LogConfig{Level: "debug", Format: "text"}, &buf).Debug("traversal.row.ok", "row", 4)
	assert.Contains(t, buf.String(), "msg=traversal.row.ok")
	assert.Contains(t, buf.String(), "row=4")
}

func TestApplyRootFlagsOverridesEnv(t *testing.T) {
	t.Setenv("DB_URL", "file:env.db")
	t.Setenv("LOG_FORMAT", "text")
	c := common.LoadConfig()

	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().AddFlagSet(rootCmd.PersistentFlags())
	require.NoError(t, cmd.Flags().Parse([]string{"--db", "postgres://localhost/shifts", "--log-format", "json"}))

	applyRootFlags(cmd, c)
	assert.Equal(t, "postgres://localhost/shifts", c.Database.DSN)
	assert.Equal(t, "json", c.Log.Format)
}

func TestEventWindow(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	from, to := eventWindow(now, 7)
	assert.Equal(t, time.Date(2024, 5, 16, 12, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 6, 22, 12, 0, 0, 0, time.UTC), to)
}

func TestWriteEventsSortsByStart(t *testing.T) {
	late := calendar.Event{ID: "b", Summary: "THD",
		Start: time.Date(2024, 6, 4, 9, 0, 0, 0, time.UTC), End: time.Date(2024, 6, 4, 17, 0, 0, 0, time.UTC)}
	early := calendar.Event{ID: "a", Summary: "THD",
		Start: time.Date(2024, 6, 3, 22, 0, 0, 0, time.UTC), End: time.Date(2024, 6, 4, 6, 0, 0, 0, time.UTC)}

	var buf bytes.Buffer
	writeEvents(&buf, []calendar.Event{late, early})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "START"))
	assert.Contains(t, lines[1], "Mon Jun 3 2024 10:00 PM")
	assert.Contains(t, lines[2], "Tue Jun 4 2024 9:00 AM")
}

func TestWriteRuns(t *testing.T) {
	started := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	finished := started.Add(95 * time.Second)
	msg := "traversal aborted"
	runs := []*entity.Run{
		{ID: uuid.New(), StartedAt: started, FinishedAt: &finished, Status: "FAILED", RowsCompleted: 9, ErrorMessage: &msg},
		{ID: uuid.New(), StartedAt: started, Status: "RUNNING"},
	}

	var buf bytes.Buffer
	writeRuns(&buf, runs)
	out := buf.String()
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "1m35s")
	assert.Contains(t, out, "traversal aborted")
	assert.Contains(t, out, "RUNNING")
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"extract"}, {"ocr"}, {"parse"}, {"sync"}, {"events", "list"}, {"events", "delete"}, {"watch"}, {"runs"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
	del, _, err := rootCmd.Find([]string{"events", "delete"})
	require.NoError(t, err)
	assert.NotNil(t, del.Flags().Lookup("yes"))
	assert.NotNil(t, del.Flags().Lookup("days"))
}
