package logger

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewMultiLogger_RequiresDir(t *testing.T) {
	_, err := NewMultiLogger(MultiLoggerConfig{Level: "info"})
	assert.Error(t, err)
}

func TestMultiLogger_WritesCategories(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)

	ml.LogDownloadEvent("download_started", zap.String("url", "https://youtu.be/abc"))
	ml.LogAppError("Failed to record download history", zap.String("id", "s1"))
	require.NoError(t, ml.Close())

	download, err := os.ReadFile(CategoryLogPath(dir, CategoryDownload, time.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(download), `"message":"download_started"`)
	assert.Contains(t, string(download), `"category":"download"`)
	assert.Contains(t, string(download), `"url":"https://youtu.be/abc"`)

	errs, err := os.ReadFile(CategoryLogPath(dir, CategoryError, time.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(errs), "Failed to record download history")
	assert.Equal(t, 1, strings.Count(string(errs), "\n"))
}

func TestMultiLogger_ErrorLoggerIgnoresInfo(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "debug", LogsDir: dir})
	require.NoError(t, err)

	ml.Error().Info("not an error")
	require.NoError(t, ml.Close())

	data, err := os.ReadFile(CategoryLogPath(dir, CategoryError, time.Now()))
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestParseCategory(t *testing.T) {
	category, ok := ParseCategory("download")
	assert.True(t, ok)
	assert.Equal(t, CategoryDownload, category)

	_, ok = ParseCategory("queue")
	assert.False(t, ok)
}

func TestNew_FileOutput(t *testing.T) {
	path := t.TempDir() + "/app.log"
	log, err := New(Config{Level: "debug", Format: "json", OutputPath: path})
	require.NoError(t, err)

	log.Debug("hello", zap.Int("n", 1))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
