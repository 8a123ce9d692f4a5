package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	for _, envVar := range providerKeyVars {
		t.Setenv(envVar, "")
	}
	t.Setenv("MODAL_API_SECRET", "")
	t.Setenv("DEFAULT_AI_PROVIDER", "")
	t.Setenv("DEFAULT_AI_MODEL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PLUGIN_DIR", "")
}

func TestLoadDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "groq", cfg.DefaultProvider)
	assert.Equal(t, "llama3-8b-8192", cfg.DefaultModel)
	assert.Equal(t, "./plugins_available", cfg.PluginDir)
	assert.Contains(t, cfg.DatabaseURL, "chat_history.db")
}

func TestValidateFailsWithoutDefaultProviderKey(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")
}

func TestValidatePassesWithKey(t *testing.T) {
	isolateEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestValidateUnknownProvider(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DEFAULT_AI_PROVIDER", "nonsense")

	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonsense")
}

func TestValidateModalRequiresSecret(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DEFAULT_AI_PROVIDER", "modal")
	t.Setenv("MODAL_API_KEY", "ak-test")

	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MODAL_API_SECRET")

	t.Setenv("MODAL_API_SECRET", "as-test")
	cfg, err = Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestProviderAPIKeyPrefsOverride(t *testing.T) {
	isolateEnv(t)
	t.Setenv("GROQ_API_KEY", "from-env")

	prefsDir := filepath.Join(os.Getenv("HOME"), ".personachat")
	require.NoError(t, os.MkdirAll(prefsDir, 0755))
	prefsFile := filepath.Join(prefsDir, "prefs.yaml")
	require.NoError(t, os.WriteFile(prefsFile, []byte("api_keys:\n  groq: from-prefs\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-prefs", cfg.ProviderAPIKey("groq"))
	assert.Empty(t, cfg.ProviderAPIKey("together"))
}

func TestSettingPrecedence(t *testing.T) {
	isolateEnv(t)
	t.Setenv("HISTORY_RETENTION_DAYS", "14")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "14", cfg.Setting("HISTORY_RETENTION_DAYS", "0"))
	assert.Equal(t, "0", cfg.Setting("UNSET_SETTING", "0"))

	cfg.Prefs().Settings = map[string]string{"HISTORY_RETENTION_DAYS": "7"}
	assert.Equal(t, "7", cfg.Setting("HISTORY_RETENTION_DAYS", "0"))
}

func TestPluginStatePersistence(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	prefs := cfg.Prefs()
	prefs.Plugins.States = map[string]bool{"web_search": false}
	require.NoError(t, cfg.SavePrefs())

	reloaded, err := LoadPrefs(PrefsPath())
	require.NoError(t, err)
	assert.Equal(t, false, reloaded.Plugins.States["web_search"])
}

func TestKnownProvider(t *testing.T) {
	assert.True(t, KnownProvider("groq"))
	assert.True(t, KnownProvider("openrouter"))
	assert.False(t, KnownProvider("perplexity"))
	assert.Len(t, Providers(), 11)
}
