// Package command builds the aider command line for a session.
//
// Resolve turns a model choice into argument tokens plus the one secret
// environment variable aider reads its key from. Relay models need an
// access token from a credentials.Provider; without one Resolve fails
// before anything is spawned.
//
// Probe finds which aider invocation is installed by running each
// candidate with --version. Both use the Runner interface so tests never
// execute real binaries.
package command
