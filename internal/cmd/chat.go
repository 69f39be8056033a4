package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/Iron-Ham/aiderctl/internal/aider/credentials"
	"github.com/Iron-Ham/aiderctl/internal/aider/session"
	"github.com/Iron-Ham/aiderctl/internal/aider/state"
	"github.com/Iron-Ham/aiderctl/internal/config"
	"github.com/Iron-Ham/aiderctl/internal/errors"
	"github.com/Iron-Ham/aiderctl/internal/event"
	"github.com/Iron-Ham/aiderctl/internal/logging"
	"github.com/Iron-Ham/aiderctl/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat [dir]",
	Short: "Start aider and chat with it",
	Long: `Start aider in a git repository and chat with it.

On a terminal this opens the interactive chat screen. When stdin or stdout
is not a terminal (or --plain is given) messages are read line by line from
stdin and replies are written to stdout.

Commands typed instead of a message:
  /reset      restart aider with the same model
  /interrupt  cancel the reply in progress
  /quit       stop aider and exit

Examples:
  # Chat in the current repository with the configured model
  aiderctl chat

  # Use an OpenAI model and unified diff output
  aiderctl chat ~/src/project --model gpt-4o --udiff

  # Scripted use
  echo "add a README" | aiderctl chat --plain`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

var (
	chatPlain bool
)

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("model", "m", "", "model passed to aider (default from aider.model)")
	chatCmd.Flags().String("api-key", "", "Anthropic or OpenAI API key for claude/gpt models")
	chatCmd.Flags().Bool("udiff", false, "ask aider for unified diff edits")
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "line mode even on a terminal")

	_ = viper.BindPFlag("aider.model", chatCmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("aider.api_key", chatCmd.Flags().Lookup("api-key"))
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if udiff, _ := cmd.Flags().GetBool("udiff"); udiff {
		cfg.Aider.EditFormat = config.EditFormatUdiff
	}

	dir, err := chatDir(args)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging)
	defer func() { _ = logger.Close() }()

	provider, err := credentials.NewFileProvider(cfg.Credentials.CredentialsFile(), logger.WithComponent("credentials"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	var watchers sync.WaitGroup
	defer watchers.Wait()
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if cfg.Credentials.Watch {
		watchers.Add(1)
		go func() {
			defer watchers.Done()
			if err := provider.Watch(watchCtx); err != nil {
				logger.Warn("credentials watch stopped", "error", err.Error())
			}
		}()
	}

	bus := event.NewBus()
	bus.SetLogger(logger)
	logEvents(bus, logger)

	s := session.New(
		session.WithConfig(cfg.Aider),
		session.WithDir(dir),
		session.WithLogger(logger),
		session.WithEventBus(bus),
		session.WithProvider(provider),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Starting aider (%s) in %s...\n", cfg.Aider.Model, dir)
	if err := s.Start(ctx, cfg.Aider.Model, cfg.Aider.APIKey); err != nil {
		return describeStartError(s.State(), err)
	}
	defer s.Kill()

	conv := tui.NewSessionConversation(s, cfg.Aider.APIKey)

	if !chatPlain && isTerminal(os.Stdin) && isTerminal(os.Stdout) {
		app := tui.New(ctx, conv, cfg.Aider.UsesUdiff())
		s.OnStateChange(app.NotifyState)
		return app.Run()
	}

	reportStates(bus, cmd.ErrOrStderr())

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	return runREPL(ctx, conv, cfg.Aider.UsesUdiff(), cmd.InOrStdin(), out, interrupts)
}

func chatDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to open directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// describeStartError adds the user-facing hint for the state a failed
// start left the session in.
func describeStartError(st state.State, err error) error {
	if hint := errors.Hint(err); hint != "" {
		return fmt.Errorf("%s (state: %s): %w", hint, st, err)
	}
	if errors.IsRetryable(err) {
		return fmt.Errorf("aider did not show its prompt in time; try again or raise aider.start_timeout_seconds: %w", err)
	}
	switch st {
	case state.NotGitRepo:
		return fmt.Errorf("aider needs a git repository; run 'git init' first: %w", err)
	case state.Uninstalled:
		return fmt.Errorf("aider is not installed; try 'python -m pip install aider-chat': %w", err)
	}
	return fmt.Errorf("aider failed to start (state: %s): %w", st, err)
}

// logEvents records turn outcomes in the debug log.
func logEvents(bus *event.Bus, logger *logging.Logger) {
	bus.Subscribe(event.TypeTurnCompleted, func(e event.Event) {
		if ev, ok := e.(event.TurnCompletedEvent); ok {
			logger.Debug("turn completed", "session_id", ev.SessionID, "deltas", ev.Deltas, "prompt_seen", ev.Boundary)
		}
	})
}

// reportStates prints session state changes to w in line mode, where there
// is no status bar.
func reportStates(bus *event.Bus, w io.Writer) {
	bus.Subscribe(event.TypeSessionStateChanged, func(e event.Event) {
		if ev, ok := e.(event.SessionStateChangedEvent); ok {
			fmt.Fprintf(w, "[aider %s]\n", ev.State)
		}
	})
}
