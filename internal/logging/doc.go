// Package logging provides structured logging for aiderctl.
//
// This package wraps Go's log/slog to produce JSON-formatted log lines that
// can be filtered after the fact with the `aiderctl logs` command. A session
// logs its lifecycle (preflight, spawn, readiness, state transitions), the
// redacted command line it launched, and every stderr line aider prints.
//
// # Main Types
//
//   - [Logger]: JSON logger with persistent context attributes
//   - [RotatingWriter]: size-based rotating file writer with optional gzip
//   - [Entry] and [Filter]: parsed log lines for post-hoc inspection
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers
// created via With* methods share the underlying writer, and closing any
// logger in a tree closes the shared file once.
//
// # Basic Usage
//
//	logger, err := logging.NewLoggerWithRotation(dir, "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	log := logger.WithSession(id).WithComponent("session")
//	log.Info("state changed", "from", "starting", "to", "ready")
//
// # Configuration
//
//	logging:
//	  enabled: true
//	  level: info
//	  max_size_mb: 10
//	  max_backups: 3
//	  compress: false
package logging
