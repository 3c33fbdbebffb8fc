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
		name        string
		logsDir     string
		serviceName string
		want        string
	}{
		{
			name:        "basic path",
			logsDir:     "logs",
			serviceName: "serena",
			want:        filepath.Join("logs", "serena.20260212_213836.log"),
		},
		{
			name:        "relative path with dot",
			logsDir:     "./logs",
			serviceName: "serena",
			want:        filepath.Join(".", "logs", "serena.20260212_213836.log"),
		},
		{
			name:        "absolute path",
			logsDir:     filepath.Join("/var", "log", "serena"),
			serviceName: "serena",
			want:        filepath.Join("/var", "log", "serena", "serena.20260212_213836.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LogFilePath(tt.logsDir, tt.serviceName, sessionStart)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "serena.log")

	w, err := NewFileWriter(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	_, err = w.Write([]byte("engine started\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "engine started\n", string(data))
	assert.Equal(t, 50, w.MaxSize)
}

func TestNewGraylogWriter_BadAddress(t *testing.T) {
	_, err := NewGraylogWriter("not-a-host-port", "serena")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to graylog")
}

func TestNewGraylogWriter(t *testing.T) {
	// UDP dial needs no listener.
	w, err := NewGraylogWriter("127.0.0.1:12201", "serena")
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, "serena", w.Facility)
}
