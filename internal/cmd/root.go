// Package cmd implements the aiderctl command line interface.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/aiderctl/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "aiderctl",
	Short: "Drive an aider coding session from the terminal",
	Long: `aiderctl resolves, launches and supervises an aider subprocess for a
git repository, then streams its replies turn by turn.

It finds a working aider installation on the login-shell PATH, builds the
command line for the selected model, waits for aider's prompt and keeps
track of the process state (starting, ready, crashed, signed out, ...).`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/aiderctl/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/aiderctl")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("AIDERCTL")
	// Replace dots with underscores for nested keys in env vars
	// e.g., AIDERCTL_AIDER_MODEL for aider.model
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
