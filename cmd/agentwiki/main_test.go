package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// resetFlags restores the persistent flag globals after a test.
func resetFlags(t *testing.T) {
	t.Helper()
	saved := []string{configPath, modelFlag, providerFlag}
	savedVerbose := verboseFlag
	t.Cleanup(func() {
		configPath, modelFlag, providerFlag = saved[0], saved[1], saved[2]
		verboseFlag = savedVerbose
	})
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "agentwiki dev (commit: none, built: unknown)", versionString())
}

func TestRootCmdSubcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"version", "generate", "models", "auth", "config", "open", "ollama"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("provider"))
}

func TestLoadConfigAppliesOverrides(t *testing.T) {
	resetFlags(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[wiki]\nlanguage = \"spanish\"\n\n[provider]\nmodel = \"from-file\"\n"), 0o600))

	configPath = path
	modelFlag = "from-flag"
	providerFlag = "ollama"

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "spanish", cfg.Wiki.Language)
	assert.Equal(t, "from-flag", cfg.Provider.Model)
	assert.Equal(t, "ollama", cfg.Provider.Default)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	resetFlags(t)
	configPath = filepath.Join(t.TempDir(), "absent.toml")
	modelFlag, providerFlag = "", ""

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "openrouter", cfg.Provider.Default)
	assert.Equal(t, "english", cfg.Wiki.Language)
}

func TestLoadConfigInvalidFile(t *testing.T) {
	resetFlags(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o600))
	configPath = path

	_, err := loadConfig()
	assert.ErrorContains(t, err, "loading config")
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel), "debug is off without --verbose")

	logger, err = newLogger(true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}
