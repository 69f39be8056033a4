package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Aider.Model != DefaultModel {
		t.Errorf("Aider.Model = %q, want %q", cfg.Aider.Model, DefaultModel)
	}
	if cfg.Aider.EditFormat != EditFormatNormal {
		t.Errorf("Aider.EditFormat = %q, want %q", cfg.Aider.EditFormat, EditFormatNormal)
	}
	if cfg.Aider.MapTokens != 2048 {
		t.Errorf("Aider.MapTokens = %d, want 2048", cfg.Aider.MapTokens)
	}
	if cfg.Aider.StartTimeout() != 30*time.Second {
		t.Errorf("Aider.StartTimeout() = %v, want 30s", cfg.Aider.StartTimeout())
	}
	if cfg.Aider.PollInterval() != 100*time.Millisecond {
		t.Errorf("Aider.PollInterval() = %v, want 100ms", cfg.Aider.PollInterval())
	}
	if cfg.Aider.UsesUdiff() {
		t.Error("Aider.UsesUdiff() should be false by default")
	}
	if !cfg.Credentials.Watch {
		t.Error("Credentials.Watch should be true by default")
	}
	if !cfg.Logging.Enabled {
		t.Error("Logging.Enabled should be true by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")

		if got, want := ConfigDir(), filepath.Join("/custom/config", "aiderctl"); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
		if got, want := ConfigFile(), filepath.Join("/custom/config", "aiderctl", "config.yaml"); got != want {
			t.Errorf("ConfigFile() = %q, want %q", got, want)
		}
	})

	t.Run("falls back to home directory", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory")
		}

		if got, want := ConfigDir(), filepath.Join(home, ".config", "aiderctl"); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})
}

func TestLogDirAndCredentialsFile(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/state")
	t.Setenv("XDG_CONFIG_HOME", "/cfg")

	cfg := Default()
	if got, want := cfg.Logging.LogDir(), filepath.Join("/state", "aiderctl"); got != want {
		t.Errorf("LogDir() = %q, want %q", got, want)
	}
	if got, want := cfg.Credentials.CredentialsFile(), filepath.Join("/cfg", "aiderctl", "credentials.yaml"); got != want {
		t.Errorf("CredentialsFile() = %q, want %q", got, want)
	}

	cfg.Logging.Dir = "/tmp/logs"
	cfg.Credentials.File = "/tmp/creds.yaml"
	if got := cfg.Logging.LogDir(); got != "/tmp/logs" {
		t.Errorf("LogDir() = %q, want /tmp/logs", got)
	}
	if got := cfg.Credentials.CredentialsFile(); got != "/tmp/creds.yaml" {
		t.Errorf("CredentialsFile() = %q, want /tmp/creds.yaml", got)
	}
}

func TestLoad(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `aider:
  model: gpt-4o
  edit_format: udiff
  candidates:
    - aider
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	SetDefaults()
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig failed: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Aider.Model != "gpt-4o" {
		t.Errorf("Aider.Model = %q, want gpt-4o", cfg.Aider.Model)
	}
	if !cfg.Aider.UsesUdiff() {
		t.Error("Aider.UsesUdiff() = false, want true")
	}
	if len(cfg.Aider.Candidates) != 1 || cfg.Aider.Candidates[0] != "aider" {
		t.Errorf("Aider.Candidates = %v, want [aider]", cfg.Aider.Candidates)
	}
	if cfg.Aider.MapTokens != 2048 {
		t.Errorf("Aider.MapTokens = %d, want default 2048", cfg.Aider.MapTokens)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestGetFallsBackToDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	SetDefaults()
	viper.Set("aider.edit_format", "whole")

	cfg := Get()
	if cfg.Aider.EditFormat != EditFormatNormal {
		t.Errorf("Get() with invalid config: EditFormat = %q, want default %q", cfg.Aider.EditFormat, EditFormatNormal)
	}
}
