package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		t.Run(format, func(t *testing.T) {
			log, err := New(Config{Level: "info", Format: format})
			require.NoError(t, err)
			assert.NotNil(t, log.Logger)
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "verbose", Format: "json"})
	assert.Error(t, err)
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "auditor.log")

	log, err := New(Config{
		Level:  "debug",
		Format: "json",
		File:   &FileConfig{Enabled: true, Path: path},
	})
	require.NoError(t, err)

	log.WithComponent("test").WithRequestID("req-1").Info("scan finished")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), `"request_id":"req-1"`)
	assert.Contains(t, string(data), "scan finished")
}
