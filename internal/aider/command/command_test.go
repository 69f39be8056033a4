package command

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/Iron-Ham/aiderctl/internal/aider/credentials"
	"github.com/Iron-Ham/aiderctl/internal/errors"
)

const relay = "https://relay.example.com/api"

func TestResolve(t *testing.T) {
	base := []string{"aider", "--no-pretty", "--yes-always", "--no-auto-commits",
		"--no-suggest-shell-commands", "--no-check-update", "--no-auto-lint",
		"--map-tokens", "2048", "--subtree-only"}

	tests := []struct {
		name      string
		req       Request
		token     string
		wantTail  []string
		wantKey   string
		wantValue string
	}{
		{
			name:      "claude uses anthropic key",
			req:       Request{Model: "claude-3-5-sonnet-20240620", APIKey: "sk-ant"},
			wantTail:  []string{"--model", "claude-3-5-sonnet-20240620"},
			wantKey:   EnvAnthropicKey,
			wantValue: "sk-ant",
		},
		{
			name:      "gpt uses openai key",
			req:       Request{Model: "gpt-4o", APIKey: "sk-oai"},
			wantTail:  []string{"--model", "gpt-4o"},
			wantKey:   EnvOpenAIKey,
			wantValue: "sk-oai",
		},
		{
			name:      "claude wins over gpt",
			req:       Request{Model: "claude-gpt-hybrid", APIKey: "k"},
			wantTail:  []string{"--model", "claude-gpt-hybrid"},
			wantKey:   EnvAnthropicKey,
			wantValue: "k",
		},
		{
			name:      "relay model uses access token",
			req:       Request{Model: "pearai_model", RelayBaseURL: relay},
			token:     "tok",
			wantTail:  []string{"--openai-api-key", "tok", "--openai-api-base", relay + RelayPath},
			wantKey:   EnvOpenAIKey,
			wantValue: "tok",
		},
		{
			name:      "udiff appends edit format",
			req:       Request{Model: "gpt-4o", APIKey: "k", Udiff: true},
			wantTail:  []string{"--model", "gpt-4o", "--edit-format", "udiff"},
			wantKey:   EnvOpenAIKey,
			wantValue: "k",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := credentials.NewStaticProvider(tt.token, "")
			cmd, err := Resolve(context.Background(), tt.req, provider)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}

			want := append(slices.Clone(base), tt.wantTail...)
			if !slices.Equal(cmd.Tokens, want) {
				t.Errorf("Tokens = %q, want %q", cmd.Tokens, want)
			}
			if cmd.EnvKey != tt.wantKey || cmd.EnvValue != tt.wantValue {
				t.Errorf("env = %s=%s, want %s=%s", cmd.EnvKey, cmd.EnvValue, tt.wantKey, tt.wantValue)
			}
			if cmd.Udiff != tt.req.Udiff {
				t.Errorf("Udiff = %v, want %v", cmd.Udiff, tt.req.Udiff)
			}
		})
	}
}

func TestResolve_ExecutableAndMapTokens(t *testing.T) {
	cmd, err := Resolve(context.Background(), Request{
		Model:      "gpt-4o",
		MapTokens:  1024,
		Executable: []string{"python3", "-m", "aider"},
	}, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := strings.Join(cmd.Tokens[:3], " "); got != "python3 -m aider" {
		t.Errorf("executable = %q, want %q", got, "python3 -m aider")
	}
	if i := slices.Index(cmd.Tokens, "--map-tokens"); i < 0 || cmd.Tokens[i+1] != "1024" {
		t.Errorf("Tokens = %q, want --map-tokens 1024", cmd.Tokens)
	}
}

func TestResolve_NotLoggedIn(t *testing.T) {
	tests := []struct {
		name     string
		provider credentials.Provider
	}{
		{"empty token", credentials.NewStaticProvider("", "")},
		{"nil provider", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Resolve(context.Background(), Request{Model: "pearai_model"}, tt.provider)
			if cmd != nil {
				t.Errorf("Resolve() command = %v, want nil", cmd)
			}
			if !errors.Is(err, errors.ErrNotLoggedIn) {
				t.Fatalf("Resolve() error = %v, want ErrNotLoggedIn", err)
			}
			var pre *errors.PreflightError
			if !errors.As(err, &pre) || pre.Stage != errors.StageCredentials {
				t.Errorf("Resolve() error = %v, want credentials PreflightError", err)
			}
		})
	}
}

func TestResolve_RefreshFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Resolve(ctx, Request{Model: "aider"}, credentials.NewStaticProvider("tok", ""))
	if !errors.Is(err, errors.ErrNotLoggedIn) {
		t.Errorf("Resolve() error = %v, want ErrNotLoggedIn", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Resolve() error = %v, want it to wrap context.Canceled", err)
	}
}

func TestCommand_StringRedactsSecrets(t *testing.T) {
	cmd, err := Resolve(context.Background(), Request{Model: "pearai_model", RelayBaseURL: relay},
		credentials.NewStaticProvider("super-secret", ""))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	s := cmd.String()
	if strings.Contains(s, "super-secret") {
		t.Errorf("String() leaks the token: %q", s)
	}
	if !strings.Contains(s, "--openai-api-key *** --openai-api-base") {
		t.Errorf("String() = %q, want masked api key", s)
	}
	if got := cmd.Env(); len(got) != 1 || got[0] != "OPENAI_API_KEY=super-secret" {
		t.Errorf("Env() = %q", got)
	}
}

func TestCommand_EnvEmpty(t *testing.T) {
	if env := (&Command{}).Env(); env != nil {
		t.Errorf("Env() = %q, want nil", env)
	}
}

func TestListModels(t *testing.T) {
	models := ListModels()
	for _, want := range []string{"pearai_model", "gpt-4o", "claude-3-5-sonnet-20240620", "aider"} {
		if !slices.Contains(models, want) {
			t.Errorf("ListModels() missing %q", want)
		}
	}
}

func TestAuthKind(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"claude-3-5-sonnet-20240620", AuthAnthropic},
		{"gpt-4o", AuthOpenAI},
		{"pearai_model", AuthRelay},
		{"aider", AuthRelay},
		{"", AuthRelay},
	}
	for _, tt := range tests {
		if got := AuthKind(tt.model); got != tt.want {
			t.Errorf("AuthKind(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}
