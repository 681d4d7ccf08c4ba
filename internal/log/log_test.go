package log

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"trace":   LevelTrace,
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewLoggerFansOut(t *testing.T) {
	var console, file bytes.Buffer
	logger := NewLogger(slog.LevelInfo, &console, &file)

	logger.Debug("hidden")
	logger.Info("scanned", "structs", 2)

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "msg=scanned structs=2")
	assert.Contains(t, file.String(), "msg=scanned structs=2")
}

func TestSetupLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynbind.log")
	logger, closers, err := SetupLogger("debug", path)
	require.NoError(t, err)
	require.Len(t, closers, 1)

	logger.Debug("written to file")
	require.NoError(t, closers[0].Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	r.Printf("Analyzing dir: %s", "src")
	r.Printf("done\n")
	assert.Equal(t, "Analyzing dir: src\ndone\n", buf.String())

	NewReporter(nil).Printf("dropped")
}
