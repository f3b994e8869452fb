package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "execmon.log")

	logger, err := New("info", "json", path)
	require.NoError(t, err)

	logger.Info("status refreshed", Field("live", 2))
	logger.Debug("hidden at info level")
	logger.Component("poller").Warn("refresh failed", ErrorField(errors.New("boom")))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"msg":"status refreshed"`)
	assert.Contains(t, out, `"live":2`)
	assert.Contains(t, out, `"logger":"execmon.poller"`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.NotContains(t, out, "hidden at info level")
}

func TestNewRejectsBadSettings(t *testing.T) {
	_, err := New("loud", "console", "")
	assert.Error(t, err)

	_, err = New("info", "xml", "")
	assert.Error(t, err)
}

func TestNormalizeLevel(t *testing.T) {
	assert.Equal(t, "warn", normalizeLevel(""))
	assert.Equal(t, "warn", normalizeLevel("Warning"))
	assert.Equal(t, "debug", normalizeLevel(" DEBUG "))
}

func TestDefaultLogFile(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/state")
	assert.Equal(t, filepath.Join("/state", "execmon", "execmon.log"), DefaultLogFile())

	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", "/home/test")
	assert.Equal(t, filepath.Join("/home/test", ".local", "state", "execmon", "execmon.log"), DefaultLogFile())
}

func TestNilComponent(t *testing.T) {
	var logger *Logger
	assert.NotNil(t, logger.Component("x"))
}
