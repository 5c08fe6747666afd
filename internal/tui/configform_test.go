package tui

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/agentwiki/internal/config"
)

func TestConfigFormCreation(t *testing.T) {
	cfg := config.DefaultConfig()
	form := NewConfigForm(cfg, filepath.Join(t.TempDir(), "config.toml"))
	assert.NotNil(t, form)
	assert.NotNil(t, form.Form())
	assert.False(t, form.IsCompleted())
	assert.False(t, form.IsAborted())
}

func TestConfigFormGroupCount(t *testing.T) {
	cfg := config.DefaultConfig()
	form := NewConfigForm(cfg, filepath.Join(t.TempDir(), "config.toml"))
	assert.Equal(t, 3, form.GroupCount())
}

func TestConfigFormSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.DefaultConfig()
	cfg.Provider.Default = "ollama"
	cfg.Wiki.Language = "german"

	form := NewConfigForm(cfg, path)
	form.maxAbstractionsStr = " 7 "
	form.maxFileSizeStr = "250"
	require.NoError(t, form.Save())

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", loaded.Provider.Default)
	assert.Equal(t, "german", loaded.Wiki.Language)
	assert.Equal(t, 7, loaded.Wiki.MaxAbstractions)
	assert.Equal(t, 250, loaded.Crawl.MaxFileSizeKB)
}

func TestConfigFormSaveRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.DefaultConfig()
	cfg.Wiki.Format = "pdf"

	err := NewConfigForm(cfg, path).Save()
	require.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestConfigFormValidators(t *testing.T) {
	assert.NoError(t, positiveInt("3"))
	assert.Error(t, positiveInt("0"))
	assert.Error(t, positiveInt("x"))
	assert.NoError(t, nonNegativeInt("0"))
	assert.Error(t, nonNegativeInt("-1"))
}
