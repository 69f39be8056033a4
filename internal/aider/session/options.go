package session

import (
	"context"
	"runtime"
	"time"

	"github.com/Iron-Ham/aiderctl/internal/aider/command"
	"github.com/Iron-Ham/aiderctl/internal/aider/credentials"
	"github.com/Iron-Ham/aiderctl/internal/aider/launch"
	"github.com/Iron-Ham/aiderctl/internal/config"
	"github.com/Iron-Ham/aiderctl/internal/event"
	"github.com/Iron-Ham/aiderctl/internal/logging"
)

// GitChecker returns an error when dir is not inside a git work tree.
type GitChecker func(ctx context.Context, dir string) error

// Prober finds the aider invocation to run under the given PATH.
type Prober func(ctx context.Context, path string) ([]string, error)

// Option configures a Session.
type Option func(*Session)

// WithConfig sets the aider settings. The default is config.Default().Aider.
func WithConfig(cfg config.AiderConfig) Option {
	return func(s *Session) { s.cfg = cfg }
}

// WithDir sets the working directory aider runs in.
func WithDir(dir string) Option {
	return func(s *Session) { s.dir = dir }
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithEventBus publishes session events on bus.
func WithEventBus(bus *event.Bus) Option {
	return func(s *Session) { s.bus = bus }
}

// WithLauncher replaces the process launcher.
func WithLauncher(l launch.Launcher) Option {
	return func(s *Session) { s.launcher = l }
}

// WithProvider sets the credentials provider for relay models.
func WithProvider(p credentials.Provider) Option {
	return func(s *Session) { s.provider = p }
}

// WithPathResolver replaces PATH discovery.
func WithPathResolver(r launch.PathResolver) Option {
	return func(s *Session) { s.paths = r }
}

// WithRunner replaces the runner used by the default git check, probe and
// PATH resolver.
func WithRunner(r command.Runner) Option {
	return func(s *Session) { s.runner = r }
}

// WithGitChecker replaces the git repository preflight.
func WithGitChecker(fn GitChecker) Option {
	return func(s *Session) { s.gitCheck = fn }
}

// WithProber replaces executable probing.
func WithProber(fn Prober) Option {
	return func(s *Session) { s.probe = fn }
}

// WithStartTimeout overrides the configured startup bound.
func WithStartTimeout(d time.Duration) Option {
	return func(s *Session) { s.startTimeout = d }
}

// WithPollInterval overrides the configured turn polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(s *Session) { s.pollInterval = d }
}

// WithGOOS sets the platform used for end-marker line endings.
func WithGOOS(goos string) Option {
	return func(s *Session) { s.goos = goos }
}

func (s *Session) applyDefaults() {
	if s.runner == nil {
		s.runner = command.NewExecRunner()
	}
	if s.launcher == nil {
		s.launcher = launch.NewLauncher(s.componentLogger("launch"))
	}
	if s.provider == nil {
		s.provider = credentials.NewStaticProvider("", "")
	}
	if s.paths == nil {
		s.paths = launch.NewLoginPathResolver(s.cfg.Shell, s.runner, s.componentLogger("path"))
	}
	if s.gitCheck == nil {
		s.gitCheck = s.defaultGitCheck
	}
	if s.probe == nil {
		candidates := s.cfg.Candidates
		s.probe = func(ctx context.Context, path string) ([]string, error) {
			return command.Probe(ctx, s.runner, path, candidates)
		}
	}
	if s.startTimeout <= 0 {
		s.startTimeout = s.cfg.StartTimeout()
	}
	if s.startTimeout <= 0 {
		s.startTimeout = DefaultStartTimeout
	}
	if s.pollInterval <= 0 {
		s.pollInterval = s.cfg.PollInterval()
	}
	if s.pollInterval <= 0 {
		s.pollInterval = DefaultPollInterval
	}
	if s.goos == "" {
		s.goos = runtime.GOOS
	}
}

func (s *Session) componentLogger(component string) *logging.Logger {
	if s.logger == nil {
		return nil
	}
	return s.logger.WithComponent(component)
}
