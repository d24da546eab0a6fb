package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 30*time.Second, config.PreprocessTimeout())
	assert.Equal(t, 10*time.Second, config.GraceWindow())
	assert.Equal(t, 30*time.Second, config.TranslatorTimeout())
	assert.True(t, config.Worker.Enabled)
	require.NoError(t, config.Validate())
}

func TestLoadFromFiles_Overlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transfero.toml")
	content := `
[server]
port = 9999

[bridge]
preprocess_timeout = "5s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, 5*time.Second, config.PreprocessTimeout())
	// Untouched sections keep their defaults
	assert.Equal(t, "10s", config.Bridge.GraceWindow)
	assert.Equal(t, "@every 30s", config.Monitor.ScanSchedule)
}

func TestLoadFromFiles_EnvOverride(t *testing.T) {
	t.Setenv("TRANSFERO_SERVER_PORT", "7001")
	t.Setenv("TRANSFERO_TRANSLATOR_URL", "http://translator:9000")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 7001, config.Server.Port)
	assert.Equal(t, "http://translator:9000", config.Translator.URL)
}

func TestValidate_BadDuration(t *testing.T) {
	config := NewDefaultConfig()
	config.Bridge.PreprocessTimeout = "not-a-duration"

	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "preprocess_timeout")
}

func TestValidate_BadConcurrency(t *testing.T) {
	config := NewDefaultConfig()
	config.Worker.Concurrency = 0

	assert.Error(t, config.Validate())
}
