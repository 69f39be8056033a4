package cmd

import (
	"fmt"
	"os"

	"github.com/Iron-Ham/aiderctl/internal/config"
	"github.com/Iron-Ham/aiderctl/internal/logging"
)

// newLogger opens the debug log described by cfg. Logging that cannot be
// set up is reported on stderr and replaced by a no-op logger so the
// command still runs.
func newLogger(cfg config.LoggingConfig) *logging.Logger {
	if !cfg.Enabled {
		return logging.NopLogger()
	}

	logger, err := logging.NewLoggerWithRotation(cfg.LogDir(), cfg.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: debug logging disabled: %v\n", err)
		return logging.NopLogger()
	}
	return logger
}
