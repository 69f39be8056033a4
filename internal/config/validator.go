package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "aider.map_tokens")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidEditFormats returns the list of valid aider edit formats
func ValidEditFormats() []string {
	return []string{EditFormatNormal, EditFormatUdiff}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.validateAider()...)
	errors = append(errors, c.validateLogging()...)
	return errors
}

func (c *Config) validateAider() []ValidationError {
	var errors []ValidationError
	a := c.Aider

	if strings.TrimSpace(a.Model) == "" {
		errors = append(errors, ValidationError{
			Field:   "aider.model",
			Value:   a.Model,
			Message: "must not be empty",
		})
	}

	if a.EditFormat != "" && !slices.Contains(ValidEditFormats(), a.EditFormat) {
		errors = append(errors, ValidationError{
			Field:   "aider.edit_format",
			Value:   a.EditFormat,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidEditFormats(), ", ")),
		})
	}

	if a.MapTokens <= 0 {
		errors = append(errors, ValidationError{
			Field:   "aider.map_tokens",
			Value:   a.MapTokens,
			Message: "must be positive",
		})
	}

	// Aider can take a while to scan a large repository on first start.
	const maxStartTimeout = 600
	if a.StartTimeoutSeconds <= 0 || a.StartTimeoutSeconds > maxStartTimeout {
		errors = append(errors, ValidationError{
			Field:   "aider.start_timeout_seconds",
			Value:   a.StartTimeoutSeconds,
			Message: fmt.Sprintf("must be between 1 and %d", maxStartTimeout),
		})
	}

	if a.PollIntervalMs < 10 || a.PollIntervalMs > 5000 {
		errors = append(errors, ValidationError{
			Field:   "aider.poll_interval_ms",
			Value:   a.PollIntervalMs,
			Message: "must be between 10 and 5000",
		})
	}

	if a.RelayBaseURL != "" {
		u, err := url.Parse(a.RelayBaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, ValidationError{
				Field:   "aider.relay_base_url",
				Value:   a.RelayBaseURL,
				Message: "must be an absolute http(s) URL",
			})
		}
	}

	for i, cand := range a.Candidates {
		if strings.TrimSpace(cand) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("aider.candidates[%d]", i),
				Value:   cand,
				Message: "must not be empty",
			})
		}
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	const maxLogSizeMB = 1000
	if c.Logging.MaxSizeMB <= 0 || c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("must be between 1 and %d", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
