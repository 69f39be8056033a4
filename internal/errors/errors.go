// Package errors provides centralized error definitions and error handling utilities
// for aiderctl. It defines the sentinel errors shared across packages, the typed
// errors that make up the session error taxonomy, and classification helpers.
//
// # Error Types
//
// Session taxonomy errors describe where in a session's life a failure happened:
//   - PreflightError: detected before anything is spawned (not a repository, not logged in)
//   - LaunchError: the launcher could not produce a live process
//   - StartupTimeoutError: the process never printed its prompt within the bound
//   - RuntimeProcessError: an OS-level error reported after a successful spawn
//   - ExitError: the process exited on its own
//   - PipeWriteError: writing to the process input pipe failed
//
// Semantic errors represent common error conditions:
//   - ValidationError: invalid input or configuration
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewPreflightError(errors.StageCredentials, errors.ErrNotLoggedIn)
//	err := errors.NewLaunchError("posix", cause).WithCommand("aider --no-pretty ...")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrNotLoggedIn) { ... }
//
//	var launchErr *errors.LaunchError
//	if errors.As(err, &launchErr) { ... }
//
//	if errors.IsUserFacing(err) {
//	    fmt.Println(errors.Hint(err))
//	}
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Retryable: transient errors that may succeed on retry (startup timeouts)
//   - UserFacing: errors that warrant an interactive prompt rather than a passive state change
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Preflight sentinel errors
var (
	// ErrNotGitRepository indicates that the working directory is not inside a git repository.
	ErrNotGitRepository = New("not a git repository")
	// ErrNotLoggedIn indicates that no access token is available for the relay model.
	ErrNotLoggedIn = New("user not logged in")
	// ErrExecutableNotFound indicates that no aider invocation answered the version probe.
	ErrExecutableNotFound = New("aider command not found")
)

// Process sentinel errors
var (
	// ErrAlreadyRunning indicates that a session already owns a live process.
	ErrAlreadyRunning = New("aider process already running")
	// ErrNotRunning indicates that an operation needs a live process but none exists.
	ErrNotRunning = New("aider process not running")
	// ErrStartupTimeout indicates that the process never reported readiness.
	ErrStartupTimeout = New("aider startup timed out")
	// ErrTurnInProgress indicates that a turn is already being streamed.
	ErrTurnInProgress = New("a chat turn is already in progress")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// AiderError is the base interface for all aiderctl errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type AiderError interface {
	error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error should be surfaced to the
	// user as an interactive prompt.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error warrants an interactive prompt.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// format renders "prefix [k=v, ...]: message: cause".
func (e *baseError) format(prefix string, parts []string) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if e.message != "" {
		prefix = prefix + ": " + e.message
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.cause)
	}
	return prefix
}

// -----------------------------------------------------------------------------
// Session Taxonomy Errors
// -----------------------------------------------------------------------------

// Stage names the preflight check that failed.
type Stage string

const (
	// StageGit is the working-directory repository check.
	StageGit Stage = "git"
	// StageCredentials is the access token check for relay models.
	StageCredentials Stage = "credentials"
	// StageProbe is the executable version probe.
	StageProbe Stage = "probe"
)

// PreflightError is returned from a start attempt that failed before any
// process was spawned.
//
// Example:
//
//	err := errors.NewPreflightError(errors.StageGit, errors.ErrNotGitRepository).WithDir("/tmp/x")
//	fmt.Println(err) // "preflight error [stage=git, dir=/tmp/x]: not a git repository"
type PreflightError struct {
	baseError
	Stage Stage
	Dir   string
}

// NewPreflightError creates a new PreflightError.
func NewPreflightError(stage Stage, cause error) *PreflightError {
	return &PreflightError{
		baseError: baseError{
			cause:      cause,
			severity:   SeverityError,
			userFacing: stage == StageCredentials,
		},
		Stage: stage,
	}
}

// WithDir adds the working directory to the error context.
func (e *PreflightError) WithDir(dir string) *PreflightError {
	e.Dir = dir
	return e
}

// Error returns the formatted error message.
func (e *PreflightError) Error() string {
	parts := []string{fmt.Sprintf("stage=%s", e.Stage)}
	if e.Dir != "" {
		parts = append(parts, fmt.Sprintf("dir=%s", e.Dir))
	}
	return e.format("preflight error", parts)
}

// LaunchError is returned when the platform launcher could not produce a
// live process.
type LaunchError struct {
	baseError
	Strategy string
	Command  string
}

// NewLaunchError creates a new LaunchError.
func NewLaunchError(strategy string, cause error) *LaunchError {
	return &LaunchError{
		baseError: baseError{
			message:  "failed to start aider",
			cause:    cause,
			severity: SeverityError,
		},
		Strategy: strategy,
	}
}

// WithCommand records the redacted command line that was being launched.
func (e *LaunchError) WithCommand(cmd string) *LaunchError {
	e.Command = cmd
	return e
}

// Error returns the formatted error message.
func (e *LaunchError) Error() string {
	var parts []string
	if e.Strategy != "" {
		parts = append(parts, fmt.Sprintf("strategy=%s", e.Strategy))
	}
	return e.format("launch error", parts)
}

// StartupTimeoutError is returned when readiness was not observed in time.
// It matches both ErrStartupTimeout and ErrTimeout.
//
// Example:
//
//	err := errors.NewStartupTimeoutError(30*time.Second)
//	fmt.Println(err) // "timeout error: waiting for aider prompt (timeout: 30s): aider startup timed out"
type StartupTimeoutError struct {
	baseError
	Duration time.Duration
}

// NewStartupTimeoutError creates a new StartupTimeoutError.
func NewStartupTimeoutError(d time.Duration) *StartupTimeoutError {
	return &StartupTimeoutError{
		baseError: baseError{
			message:   "waiting for aider prompt",
			cause:     ErrStartupTimeout,
			severity:  SeverityWarning,
			retryable: true,
		},
		Duration: d,
	}
}

// Error returns the formatted error message.
func (e *StartupTimeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s (timeout: %s): %v", e.message, e.Duration, e.cause)
}

// Is checks if this error matches the target.
func (e *StartupTimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// RuntimeProcessError is an OS-level error observed after a successful
// spawn. Classification holds the state name the error maps to.
type RuntimeProcessError struct {
	baseError
	Classification string
}

// NewRuntimeProcessError creates a new RuntimeProcessError.
func NewRuntimeProcessError(classification string, cause error) *RuntimeProcessError {
	return &RuntimeProcessError{
		baseError: baseError{
			message:    "aider process error",
			cause:      cause,
			severity:   SeverityError,
			userFacing: classification == "signedOut",
		},
		Classification: classification,
	}
}

// Error returns the formatted error message.
func (e *RuntimeProcessError) Error() string {
	return e.format("runtime error", []string{fmt.Sprintf("class=%s", e.Classification)})
}

// ExitError records the exit code of a process that ended on its own.
type ExitError struct {
	baseError
	Code int
}

// NewExitError creates a new ExitError.
func NewExitError(code int) *ExitError {
	sev := SeverityInfo
	if code != 0 {
		sev = SeverityError
	}
	return &ExitError{
		baseError: baseError{
			message:  "aider exited",
			severity: sev,
		},
		Code: code,
	}
}

// Error returns the formatted error message.
func (e *ExitError) Error() string {
	return e.format("exit error", []string{fmt.Sprintf("code=%d", e.Code)})
}

// PipeWriteError is returned when a message could not be written to the
// process input pipe. It unwraps to ErrNotRunning so callers can treat it
// like any other "process not running" condition.
type PipeWriteError struct {
	baseError
	writeErr error
}

// NewPipeWriteError creates a new PipeWriteError.
func NewPipeWriteError(cause error) *PipeWriteError {
	return &PipeWriteError{
		baseError: baseError{
			message:    "failed to write to aider",
			cause:      ErrNotRunning,
			severity:   SeverityError,
			userFacing: true,
		},
		writeErr: cause,
	}
}

// Error returns the formatted error message.
func (e *PipeWriteError) Error() string {
	if e.writeErr != nil {
		return fmt.Sprintf("pipe error: %s: %v", e.message, e.writeErr)
	}
	return "pipe error: " + e.message
}

// Unwrap returns both the not-running sentinel and the underlying write error.
func (e *PipeWriteError) Unwrap() []error {
	if e.writeErr == nil {
		return []error{e.cause}
	}
	return []error{e.cause, e.writeErr}
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("unknown edit format").WithField("aider.edit_format").WithValue("whole")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			cause:      ErrInvalidInput,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation error")
	if e.Field != "" {
		fmt.Fprintf(&b, " [field=%s]", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.message)
	if e.Value != nil {
		fmt.Fprintf(&b, " (got: %v)", e.Value)
	}
	return b.String()
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var aiderErr AiderError
	if As(err, &aiderErr) {
		return aiderErr.IsRetryable()
	}

	return Is(err, ErrTimeout)
}

// IsUserFacing returns true if the error should produce an interactive
// prompt. Only two conditions qualify: authentication is required, or the
// process is unexpectedly absent.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var aiderErr AiderError
	if As(err, &aiderErr) && aiderErr.IsUserFacing() {
		return true
	}

	return Is(err, ErrNotLoggedIn) || Is(err, ErrNotRunning)
}

// GetSeverity returns the severity level of the error.
// Errors outside the taxonomy default to SeverityError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var aiderErr AiderError
	if As(err, &aiderErr) {
		return aiderErr.Severity()
	}

	return SeverityError
}

// Remediation messages shown for user-facing errors.
const (
	HintNotLoggedIn = "You are not logged in. Sign in and try again."
	HintNotRunning  = "Aider is not running. Please ensure aider is installed and on your PATH, then restart the session."
)

// Hint returns the remediation message for a user-facing error, or an empty
// string when the error does not warrant one.
func Hint(err error) string {
	if !IsUserFacing(err) {
		return ""
	}
	var runtimeErr *RuntimeProcessError
	switch {
	case Is(err, ErrNotLoggedIn), As(err, &runtimeErr) && runtimeErr.Classification == "signedOut":
		return HintNotLoggedIn
	case Is(err, ErrNotRunning):
		return HintNotRunning
	default:
		return ""
	}
}

// Wrap wraps an error with additional context.
// Returns nil if err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
