package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogWritesJSONLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	require.NoError(t, err)

	l := &Logger{logFile: f}
	l.Info("TEST", "hello world")
	l.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry LogEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "TEST", entry.Category)
	assert.Equal(t, "hello world", entry.Message)
	assert.NotEmpty(t, entry.File)
}

// The zero value logs to the terminal only; services under test rely
// on this being safe.
func TestZeroValueLoggerDoesNotPanic(t *testing.T) {
	l := &Logger{}
	l.Debug("TEST", "debug")
	l.Warn("TEST", "warn")
	l.Error("TEST", "error")
	l.LogTeam("JOIN", "team-1", "joined")
	l.Close()
}
