package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Edit formats understood by aider.
const (
	EditFormatNormal = "normal"
	EditFormatUdiff  = "udiff"
)

// DefaultModel is the model used when none is configured. It is served
// through the PearAI relay and therefore requires an access token.
const DefaultModel = "pearai_model"

// Config represents the complete aiderctl configuration
type Config struct {
	Aider       AiderConfig       `mapstructure:"aider"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// AiderConfig controls how the aider subprocess is resolved, launched and read
type AiderConfig struct {
	// Model is the model identifier passed to aider (default: "pearai_model").
	// Names containing "claude" or "gpt" use APIKey directly; anything else goes through the relay.
	Model string `mapstructure:"model"`
	// APIKey is the Anthropic or OpenAI key used for claude/gpt models
	APIKey string `mapstructure:"api_key"`
	// EditFormat selects aider's edit output: "normal" or "udiff"
	EditFormat string `mapstructure:"edit_format"`
	// MapTokens caps aider's repository map token budget (default: 2048)
	MapTokens int `mapstructure:"map_tokens"`
	// StartTimeoutSeconds bounds how long to wait for aider's first prompt (default: 30)
	StartTimeoutSeconds int `mapstructure:"start_timeout_seconds"`
	// PollIntervalMs is how often an idle turn re-checks the output buffer (default: 100)
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
	// Shell overrides the login shell used on POSIX systems (default: $SHELL, then /bin/sh)
	Shell string `mapstructure:"shell"`
	// RelayBaseURL is the server that proxies relay models; "/integrations/aider" is appended
	RelayBaseURL string `mapstructure:"relay_base_url"`
	// Candidates lists the invocations probed with --version, in priority order.
	// Empty means the built-in list.
	Candidates []string `mapstructure:"candidates"`
}

// CredentialsConfig controls where relay access tokens come from
type CredentialsConfig struct {
	// File is a YAML file holding access_token and refresh_token.
	// Empty means the default location under the config directory.
	File string `mapstructure:"file"`
	// Watch reloads the credentials file when it changes on disk
	Watch bool `mapstructure:"watch"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled turns on the debug log (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is where debug.log is written. Empty means the default state directory.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the size at which the log is rotated (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated files (default: false)
	Compress bool `mapstructure:"compress"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Aider: AiderConfig{
			Model:               DefaultModel,
			EditFormat:          EditFormatNormal,
			MapTokens:           2048,
			StartTimeoutSeconds: 30,
			PollIntervalMs:      100,
			RelayBaseURL:        "https://server.trypear.ai/pearai-server-api2",
			Candidates:          []string{},
		},
		Credentials: CredentialsConfig{
			Watch: true,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// StartTimeout returns the startup bound as a time.Duration
func (c *AiderConfig) StartTimeout() time.Duration {
	return time.Duration(c.StartTimeoutSeconds) * time.Second
}

// PollInterval returns the turn polling interval as a time.Duration
func (c *AiderConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// UsesUdiff reports whether aider is run with the unified diff edit format
func (c *AiderConfig) UsesUdiff() bool {
	return c.EditFormat == EditFormatUdiff
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Aider defaults
	viper.SetDefault("aider.model", defaults.Aider.Model)
	viper.SetDefault("aider.api_key", defaults.Aider.APIKey)
	viper.SetDefault("aider.edit_format", defaults.Aider.EditFormat)
	viper.SetDefault("aider.map_tokens", defaults.Aider.MapTokens)
	viper.SetDefault("aider.start_timeout_seconds", defaults.Aider.StartTimeoutSeconds)
	viper.SetDefault("aider.poll_interval_ms", defaults.Aider.PollIntervalMs)
	viper.SetDefault("aider.shell", defaults.Aider.Shell)
	viper.SetDefault("aider.relay_base_url", defaults.Aider.RelayBaseURL)
	viper.SetDefault("aider.candidates", defaults.Aider.Candidates)

	// Credentials defaults
	viper.SetDefault("credentials.file", defaults.Credentials.File)
	viper.SetDefault("credentials.watch", defaults.Credentials.Watch)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "aiderctl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aiderctl"
	}
	return filepath.Join(home, ".config", "aiderctl")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// StateDir returns the directory for logs and other runtime state
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "aiderctl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aiderctl"
	}
	return filepath.Join(home, ".local", "state", "aiderctl")
}

// LogDir returns the configured log directory, or the default under StateDir
func (c *LoggingConfig) LogDir() string {
	if c.Dir != "" {
		return c.Dir
	}
	return StateDir()
}

// CredentialsFile returns the configured credentials file, or the default
// under ConfigDir
func (c *CredentialsConfig) CredentialsFile() string {
	if c.File != "" {
		return c.File
	}
	return filepath.Join(ConfigDir(), "credentials.yaml")
}
