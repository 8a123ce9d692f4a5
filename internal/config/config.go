package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables carrying per-provider completion credentials.
// Modal additionally requires MODAL_API_SECRET.
var providerKeyVars = map[string]string{
	"openrouter": "OPENROUTER_API_KEY",
	"google":     "GOOGLE_API_KEY",
	"groq":       "GROQ_API_KEY",
	"together":   "TOGETHER_API_KEY",
	"fireworks":  "FIREWORKS_API_KEY",
	"baseten":    "BASETEN_API_KEY",
	"nebius":     "NEBIUS_API_KEY",
	"novita":     "NOVITA_API_KEY",
	"ai21":       "AI21_API_KEY",
	"upstage":    "UPSTAGE_API_KEY",
	"modal":      "MODAL_API_KEY",
}

// Config represents the application configuration, resolved from the process
// environment with user preferences layered on top.
type Config struct {
	LogLevel  string
	SentryDSN string

	DatabaseURL string
	PluginDir   string

	DefaultProvider string
	DefaultModel    string

	QdrantURL    string
	QdrantAPIKey string

	TavilyAPIKey string
	E2BAPIKey    string
	GitHubPAT    string

	AstraDBToken  string
	AstraDBID     string
	AstraDBSecret string
	AstraKeyspace string

	ClearMLAccessKey string
	ClearMLSecretKey string
	ClearMLHost      string

	HuggingFaceToken string

	prefs *Prefs
}

// Prefs holds user preferences persisted under the home directory.
// Values here take precedence over environment variables.
type Prefs struct {
	APIKeys  map[string]string `yaml:"api_keys,omitempty"`
	Settings map[string]string `yaml:"settings,omitempty"`
	Plugins  PluginPrefs       `yaml:"plugins,omitempty"`
}

// PluginPrefs records per-plugin enabled state across restarts.
type PluginPrefs struct {
	States map[string]bool `yaml:"states,omitempty"`
}

// Load resolves the configuration. A .env file in the working directory is
// honored when present; real environment variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	prefs, err := LoadPrefs(PrefsPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	cfg := &Config{
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		DatabaseURL:      getEnv("DATABASE_URL", DefaultDatabaseURL()),
		PluginDir:        getEnv("PLUGIN_DIR", "./plugins_available"),
		DefaultProvider:  getEnv("DEFAULT_AI_PROVIDER", "groq"),
		DefaultModel:     getEnv("DEFAULT_AI_MODEL", "llama3-8b-8192"),
		QdrantURL:        os.Getenv("QDRANT_URL"),
		QdrantAPIKey:     os.Getenv("QDRANT_API_KEY"),
		TavilyAPIKey:     os.Getenv("TAVILY_API_KEY"),
		E2BAPIKey:        os.Getenv("E2B_API_KEY"),
		GitHubPAT:        os.Getenv("GITHUB_PAT"),
		AstraDBToken:     os.Getenv("ASTRA_DB_TOKEN"),
		AstraDBID:        os.Getenv("ASTRA_DB_ID"),
		AstraDBSecret:    os.Getenv("ASTRA_DB_SECRET"),
		AstraKeyspace:    os.Getenv("ASTRA_KEYSPACE"),
		ClearMLAccessKey: os.Getenv("CLEARML_API_ACCESS_KEY"),
		ClearMLSecretKey: os.Getenv("CLEARML_API_SECRET_KEY"),
		ClearMLHost:      os.Getenv("CLEARML_API_HOST"),
		HuggingFaceToken: os.Getenv("HUGGINGFACE_HUB_TOKEN"),
		prefs:            prefs,
	}

	return cfg, nil
}

// Validate checks that the credential required by the default provider is
// present. The application refuses to start without it.
func (c *Config) Validate() error {
	envVar, ok := providerKeyVars[c.DefaultProvider]
	if !ok {
		return fmt.Errorf("unknown default provider %q (set DEFAULT_AI_PROVIDER to one of the supported providers)", c.DefaultProvider)
	}

	if c.ProviderAPIKey(c.DefaultProvider) == "" {
		return fmt.Errorf("default provider %q selected but %s is not set", c.DefaultProvider, envVar)
	}

	if c.DefaultProvider == "modal" && c.ModalAPISecret() == "" {
		return fmt.Errorf("default provider \"modal\" selected but MODAL_API_SECRET is not set")
	}

	return nil
}

// ProviderAPIKey returns the completion credential for a provider, checking
// user preferences first and falling back to the environment.
func (c *Config) ProviderAPIKey(provider string) string {
	if c.prefs != nil {
		if key, ok := c.prefs.APIKeys[provider]; ok && key != "" {
			return key
		}
	}

	envVar, ok := providerKeyVars[provider]
	if !ok {
		return ""
	}
	return os.Getenv(envVar)
}

// ModalAPISecret returns the Modal workspace secret.
func (c *Config) ModalAPISecret() string {
	if c.prefs != nil {
		if key, ok := c.prefs.APIKeys["modal_secret"]; ok && key != "" {
			return key
		}
	}
	return os.Getenv("MODAL_API_SECRET")
}

// Providers returns the names of all known completion providers.
func Providers() []string {
	names := make([]string, 0, len(providerKeyVars))
	for name := range providerKeyVars {
		names = append(names, name)
	}
	return names
}

// KnownProvider reports whether name is a supported completion provider.
func KnownProvider(name string) bool {
	_, ok := providerKeyVars[name]
	return ok
}

// Setting returns a user setting, checking preferences first and falling back
// to the environment, then to def.
func (c *Config) Setting(key, def string) string {
	if c.prefs != nil {
		if v, ok := c.prefs.Settings[key]; ok && v != "" {
			return v
		}
	}
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Prefs returns the mutable user preferences.
func (c *Config) Prefs() *Prefs {
	if c.prefs == nil {
		c.prefs = &Prefs{}
	}
	return c.prefs
}

// SavePrefs persists the current preferences to disk.
func (c *Config) SavePrefs() error {
	return c.Prefs().Save(PrefsPath())
}

// LoadPrefs loads preferences from path. A missing file yields empty prefs.
func LoadPrefs(path string) (*Prefs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Prefs{}, nil
		}
		return nil, fmt.Errorf("failed to read preferences file: %w", err)
	}

	var prefs Prefs
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("failed to parse preferences file: %w", err)
	}

	return &prefs, nil
}

// Save saves preferences to path, creating the directory if needed.
func (p *Prefs) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preferences file: %w", err)
	}

	return nil
}

// PrefsPath returns the default preferences file path.
func PrefsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".personachat/prefs.yaml"
	}
	return filepath.Join(home, ".personachat", "prefs.yaml")
}

// DefaultDatabaseURL returns the file-based SQLite store used when
// DATABASE_URL is not configured.
func DefaultDatabaseURL() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "chat_history.db"
	}
	return filepath.Join(home, ".personachat", "chat_history.db")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
