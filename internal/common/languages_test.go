package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLanguageRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "languages.yaml")
	require.NoError(t, os.WriteFile(path, []byte("en: English\nKO: Korean\n"), 0644))

	registry, err := LoadLanguageRegistry(path)
	require.NoError(t, err)
	require.NotNil(t, registry)

	assert.Equal(t, 2, registry.Count())
	assert.True(t, registry.Supports("en"))
	assert.True(t, registry.Supports("ko"), "codes are case-normalized")
	assert.True(t, registry.Supports(" KO "))
	assert.False(t, registry.Supports("xx"))
	assert.Equal(t, "Korean", registry.Name("ko"))
	assert.Equal(t, "xx", registry.Name("xx"))
}

func TestLoadLanguageRegistry_EmptyPath(t *testing.T) {
	registry, err := LoadLanguageRegistry("")
	require.NoError(t, err)
	assert.Nil(t, registry)

	// Nil registry accepts any non-empty code
	assert.True(t, registry.Supports("anything"))
	assert.False(t, registry.Supports(""))
	assert.Equal(t, "ko", registry.Name("ko"))
	assert.Zero(t, registry.Count())
}

func TestLoadLanguageRegistry_MissingFile(t *testing.T) {
	_, err := LoadLanguageRegistry("/nonexistent/languages.yaml")
	assert.Error(t, err)
}
