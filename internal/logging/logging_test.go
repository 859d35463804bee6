package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFilePath(t *testing.T) {
	sessionStart := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name    string
		logsDir string
		app     string
		want    string
	}{
		{
			name:    "basic path",
			logsDir: "atlaslogs",
			app:     "atlas_server",
			want:    filepath.Join("atlaslogs", "atlas_server.20260212_213836.log"),
		},
		{
			name:    "relative path with dot",
			logsDir: "./atlaslogs",
			app:     "atlas_server",
			want:    filepath.Join(".", "atlaslogs", "atlas_server.20260212_213836.log"),
		},
		{
			name:    "absolute path",
			logsDir: filepath.Join("/var", "log", "atlas"),
			app:     "atlas_server",
			want:    filepath.Join("/var", "log", "atlas", "atlas_server.20260212_213836.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LogFilePath(tt.logsDir, tt.app, sessionStart)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenSessionLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	start := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	file, path, err := OpenSessionLog(dir, "atlas_server", start)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, LogFilePath(dir, "atlas_server", start), path)

	_, err = file.WriteString("session line\n")
	require.NoError(t, err)
}

func TestOpenSessionLog_RotatesLeftover(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)
	path := LogFilePath(dir, "atlas_server", start)
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	file, _, err := OpenSessionLog(dir, "atlas_server", start)
	require.NoError(t, err)
	file.Close()

	rotated, err := os.ReadFile(path + ".old")
	require.NoError(t, err)
	assert.Equal(t, "stale", string(rotated))
}
