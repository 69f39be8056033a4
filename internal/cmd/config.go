package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/aiderctl/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify aiderctl configuration",
	Long: `View or modify aiderctl configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  aiderctl config set aider.model gpt-4o
  aiderctl config set aider.edit_format udiff
  aiderctl config set logging.level debug

Valid keys:
  aider.model                  - Model passed to aider
  aider.edit_format            - Edit output format (normal, udiff)
  aider.map_tokens             - Repository map token budget
  aider.start_timeout_seconds  - Seconds to wait for aider's first prompt
  aider.poll_interval_ms       - Output polling interval while a reply streams
  aider.shell                  - Login shell used to resolve PATH (POSIX)
  aider.relay_base_url         - Relay server for non-claude/gpt models
  credentials.file             - YAML file with access_token/refresh_token
  credentials.watch            - Reload the credentials file on change (true/false)
  logging.enabled              - Write the debug log (true/false)
  logging.level                - Minimum log level (debug, info, warn, error)
  logging.dir                  - Debug log directory
  logging.max_size_mb          - Rotate the debug log at this size
  logging.max_backups          - Rotated log files to keep
  logging.compress             - Gzip rotated log files (true/false)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/aiderctl/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

// configKeys maps each settable key to its value type
var configKeys = map[string]string{
	"aider.model":                 "string",
	"aider.edit_format":           "string",
	"aider.map_tokens":            "int",
	"aider.start_timeout_seconds": "int",
	"aider.poll_interval_ms":      "int",
	"aider.shell":                 "string",
	"aider.relay_base_url":        "string",
	"credentials.file":            "string",
	"credentials.watch":           "bool",
	"logging.enabled":             "bool",
	"logging.level":               "string",
	"logging.dir":                 "string",
	"logging.max_size_mb":         "int",
	"logging.max_backups":         "int",
	"logging.compress":            "bool",
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(out)

	a := cfg.Aider
	fmt.Fprintln(out, "aider:")
	fmt.Fprintf(out, "  model: %s\n", a.Model)
	fmt.Fprintf(out, "  api_key: %s\n", redact(a.APIKey))
	fmt.Fprintf(out, "  edit_format: %s\n", a.EditFormat)
	fmt.Fprintf(out, "  map_tokens: %d\n", a.MapTokens)
	fmt.Fprintf(out, "  start_timeout_seconds: %d\n", a.StartTimeoutSeconds)
	fmt.Fprintf(out, "  poll_interval_ms: %d\n", a.PollIntervalMs)
	fmt.Fprintf(out, "  shell: %s\n", a.Shell)
	fmt.Fprintf(out, "  relay_base_url: %s\n", a.RelayBaseURL)
	fmt.Fprintf(out, "  candidates: %s\n", strings.Join(a.Candidates, ", "))

	fmt.Fprintln(out, "credentials:")
	fmt.Fprintf(out, "  file: %s\n", cfg.Credentials.CredentialsFile())
	fmt.Fprintf(out, "  watch: %v\n", cfg.Credentials.Watch)

	l := cfg.Logging
	fmt.Fprintln(out, "logging:")
	fmt.Fprintf(out, "  enabled: %v\n", l.Enabled)
	fmt.Fprintf(out, "  level: %s\n", l.Level)
	fmt.Fprintf(out, "  dir: %s\n", l.LogDir())
	fmt.Fprintf(out, "  max_size_mb: %d\n", l.MaxSizeMB)
	fmt.Fprintf(out, "  max_backups: %d\n", l.MaxBackups)
	fmt.Fprintf(out, "  compress: %v\n", l.Compress)

	return nil
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "[set]"
}

// parseConfigValue converts value to the type of key and checks it
// against the allowed values where there is a fixed set.
func parseConfigValue(key, value string) (any, error) {
	keyType, ok := configKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'aiderctl config set --help' to see valid keys", key)
	}

	switch keyType {
	case "bool":
		if value != "true" && value != "false" {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return value == "true", nil
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if n < 0 {
			return nil, fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		return n, nil
	}

	var allowed []string
	switch key {
	case "aider.edit_format":
		allowed = config.ValidEditFormats()
	case "logging.level":
		allowed = config.ValidLogLevels()
	}
	if allowed != nil && !slices.Contains(allowed, value) {
		return nil, fmt.Errorf("invalid value for %s: %s\nValid options: %s", key, value, strings.Join(allowed, ", "))
	}
	return value, nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	typedValue, err := parseConfigValue(key, value)
	if err != nil {
		return err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(config.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.Set(key, typedValue)
	if _, err := config.Load(); err != nil {
		return fmt.Errorf("configuration would be invalid: %w", err)
	}

	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)
	return nil
}

const defaultConfigContent = `# aiderctl configuration

aider:
  # Model passed to aider. Names containing "claude" use an Anthropic key,
  # names containing "gpt" an OpenAI key; anything else goes through the relay.
  model: pearai_model
  # API key for claude/gpt models (or set AIDERCTL_AIDER_API_KEY)
  api_key: ""
  # Edit output format: normal or udiff
  edit_format: normal
  # Repository map token budget
  map_tokens: 2048
  # Seconds to wait for aider's first prompt
  start_timeout_seconds: 30
  # How often a streaming reply re-checks aider's output, in milliseconds
  poll_interval_ms: 100
  # Login shell used to resolve PATH (default: $SHELL, then /bin/sh)
  shell: ""
  # Relay server for models other than claude/gpt
  relay_base_url: https://server.trypear.ai/pearai-server-api2
  # Invocations tried with --version, in order (empty: built-in list)
  candidates: []

credentials:
  # YAML file holding access_token and refresh_token
  # (default: credentials.yaml next to this file)
  file: ""
  # Reload the credentials file when it changes
  watch: true

logging:
  enabled: true
  # debug, info, warn or error
  level: info
  # Log directory (default: ~/.local/state/aiderctl)
  dir: ""
  max_size_mb: 10
  max_backups: 3
  compress: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'aiderctl config set' to modify values", configFile)
	}

	if err := os.MkdirAll(config.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize aiderctl's behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. $HOME/.config/aiderctl/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: AIDERCTL_* (e.g., AIDERCTL_AIDER_MODEL)")
	return nil
}
