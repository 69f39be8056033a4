package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Iron-Ham/aiderctl/internal/aider/credentials"
	"github.com/Iron-Ham/aiderctl/internal/errors"
)

// Environment variables aider reads provider keys from.
const (
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvOpenAIKey    = "OPENAI_API_KEY"
)

// DefaultMapTokens is aider's repository map budget when none is configured.
const DefaultMapTokens = 2048

// RelayPath is appended to the relay base URL to form aider's OpenAI base.
const RelayPath = "/integrations/aider"

// Flags that take a secret value and are redacted by Command.String.
var secretFlags = map[string]bool{
	"--openai-api-key":    true,
	"--anthropic-api-key": true,
}

// BaseFlags returns the fixed flags every session runs aider with.
func BaseFlags(mapTokens int) []string {
	if mapTokens <= 0 {
		mapTokens = DefaultMapTokens
	}
	return []string{
		"--no-pretty",
		"--yes-always",
		"--no-auto-commits",
		"--no-suggest-shell-commands",
		"--no-check-update",
		"--no-auto-lint",
		"--map-tokens", strconv.Itoa(mapTokens),
		"--subtree-only",
	}
}

// Request describes the session a command is resolved for.
type Request struct {
	Model        string
	APIKey       string
	Udiff        bool
	RelayBaseURL string
	MapTokens    int
	// Executable is the probed aider invocation, e.g. ["python3", "-m", "aider"].
	// Empty means plain "aider".
	Executable []string
}

// Command is a resolved aider invocation. It is not modified after Resolve.
type Command struct {
	// Tokens is the full argument vector, executable first.
	Tokens []string
	// EnvKey and EnvValue are the secret environment assignment. Both are
	// empty when the model needs no key.
	EnvKey   string
	EnvValue string
	// Udiff reports whether aider runs with the unified diff edit format.
	Udiff bool
}

// Env returns the secret as a KEY=value entry, or nil.
func (c *Command) Env() []string {
	if c.EnvKey == "" {
		return nil
	}
	return []string{c.EnvKey + "=" + c.EnvValue}
}

// String renders the tokens for logging with secret flag values masked.
func (c *Command) String() string {
	out := make([]string, len(c.Tokens))
	for i, tok := range c.Tokens {
		if i > 0 && secretFlags[c.Tokens[i-1]] {
			out[i] = "***"
			continue
		}
		out[i] = tok
	}
	return strings.Join(out, " ")
}

// Authentication kinds returned by AuthKind
const (
	AuthAnthropic = "anthropic"
	AuthOpenAI    = "openai"
	AuthRelay     = "relay"
)

// AuthKind reports which credential model is launched with.
func AuthKind(model string) string {
	switch {
	case strings.Contains(model, "claude"):
		return AuthAnthropic
	case strings.Contains(model, "gpt"):
		return AuthOpenAI
	default:
		return AuthRelay
	}
}

// Resolve builds the command for req.
//
// Models whose name contains "claude" or "gpt" use req.APIKey directly.
// Every other model, including the default relay model, goes through the
// relay with the provider's access token; an empty token fails with
// errors.ErrNotLoggedIn and nothing should be spawned.
func Resolve(ctx context.Context, req Request, provider credentials.Provider) (*Command, error) {
	exe := req.Executable
	if len(exe) == 0 {
		exe = []string{"aider"}
	}

	tokens := append([]string(nil), exe...)
	tokens = append(tokens, BaseFlags(req.MapTokens)...)

	cmd := &Command{Udiff: req.Udiff}
	switch AuthKind(req.Model) {
	case AuthAnthropic:
		tokens = append(tokens, "--model", req.Model)
		cmd.EnvKey, cmd.EnvValue = EnvAnthropicKey, req.APIKey

	case AuthOpenAI:
		tokens = append(tokens, "--model", req.Model)
		cmd.EnvKey, cmd.EnvValue = EnvOpenAIKey, req.APIKey

	default:
		token, err := relayToken(ctx, provider)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens,
			"--openai-api-key", token,
			"--openai-api-base", strings.TrimRight(req.RelayBaseURL, "/")+RelayPath,
		)
		cmd.EnvKey, cmd.EnvValue = EnvOpenAIKey, token
	}

	if req.Udiff {
		tokens = append(tokens, "--edit-format", "udiff")
	}
	cmd.Tokens = tokens
	return cmd, nil
}

func relayToken(ctx context.Context, provider credentials.Provider) (string, error) {
	if provider == nil {
		return "", errors.NewPreflightError(errors.StageCredentials, errors.ErrNotLoggedIn)
	}
	if err := provider.CheckAndUpdate(ctx); err != nil {
		return "", errors.NewPreflightError(errors.StageCredentials,
			errors.Join(errors.ErrNotLoggedIn, fmt.Errorf("refresh credentials: %w", err)))
	}
	token := provider.AccessToken()
	if token == "" {
		return "", errors.NewPreflightError(errors.StageCredentials, errors.ErrNotLoggedIn)
	}
	return token, nil
}

// ListModels returns the models offered to users.
func ListModels() []string {
	return []string{
		"aider",
		"pearai_model",
		"claude-3-5-sonnet-20240620",
		"gpt-4o",
	}
}
