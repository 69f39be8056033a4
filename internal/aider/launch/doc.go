// Package launch spawns the aider subprocess.
//
// Two strategies exist. On POSIX systems aider runs under the user's shell
// with the provider key exported in the same command line, in its own
// process group so Kill reaches every descendant. On Windows the
// environment is first persisted with setx and the console switched to
// UTF-8, then aider runs under cmd.exe with a hidden window.
//
// Both strategies use three separate pipes. stdout and stderr are read by
// dedicated goroutines and delivered through Callbacks in arrival order;
// the exit code is delivered once both readers have drained.
package launch
