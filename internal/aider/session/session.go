package session

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"

	"github.com/Iron-Ham/aiderctl/internal/aider/capture"
	"github.com/Iron-Ham/aiderctl/internal/aider/command"
	"github.com/Iron-Ham/aiderctl/internal/aider/credentials"
	"github.com/Iron-Ham/aiderctl/internal/aider/detect"
	"github.com/Iron-Ham/aiderctl/internal/aider/launch"
	"github.com/Iron-Ham/aiderctl/internal/aider/state"
	"github.com/Iron-Ham/aiderctl/internal/config"
	"github.com/Iron-Ham/aiderctl/internal/errors"
	"github.com/Iron-Ham/aiderctl/internal/event"
	"github.com/Iron-Ham/aiderctl/internal/logging"
)

// Defaults used when neither an option nor the config sets a value.
const (
	DefaultStartTimeout = 30 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
)

// Interrupt is the byte written by SendInterrupt (Ctrl+C).
const Interrupt = "\x03"

var newlines = regexp.MustCompile(`\n+`)

// Session manages one aider process and the chat turns exchanged with it.
// It is safe for concurrent use, but only one Turn may be in flight.
type Session struct {
	id     string
	cfg    config.AiderConfig
	dir    string
	goos   string
	logger *logging.Logger
	bus    *event.Bus

	launcher launch.Launcher
	provider credentials.Provider
	paths    launch.PathResolver
	runner   command.Runner
	gitCheck GitChecker
	probe    Prober

	startTimeout time.Duration
	pollInterval time.Duration

	machine *state.Machine
	acc     *capture.Accumulator

	mu     sync.Mutex
	handle launch.Handle
	udiff  bool
	model  string
	// gen identifies the current process. Callbacks carry the generation
	// they were created for and are ignored once it changes.
	gen     uint64
	exited  uint64
	waiter  chan error
	waitGen uint64
	turn    bool
	// resetting is set while ResetSession moves to restarting and kills
	// the old process. A Kill in that window leaves the state to the reset.
	resetting bool
}

// New creates a Session. No process is started until Start.
func New(opts ...Option) *Session {
	s := &Session{
		id:      uuid.NewString(),
		cfg:     config.Default().Aider,
		machine: state.NewMachine(),
		acc:     capture.NewAccumulator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger != nil {
		s.logger = s.logger.WithSession(s.id).WithComponent("session")
	}
	s.applyDefaults()

	s.machine.SetEventBus(s.bus, s.id)
	s.machine.OnChange(func(c state.Change) {
		if s.logger != nil {
			s.logger.Info("state changed", "from", c.From.String(), "to", c.To.String())
		}
	})
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Dir returns the working directory.
func (s *Session) Dir() string { return s.dir }

// State returns the current state.
func (s *Session) State() state.State { return s.machine.Current() }

// OnStateChange registers fn to be called after every state transition.
func (s *Session) OnStateChange(fn state.ChangeFunc) { s.machine.OnChange(fn) }

// Model returns the model of the most recent start.
func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// IsRunning reports whether a live, not killed process exists.
func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil && !s.handle.Killed()
}

// SetAccessToken forwards a relay access token to the provider.
func (s *Session) SetAccessToken(token string) { s.provider.SetAccessToken(token) }

// SetRefreshToken forwards a relay refresh token to the provider.
func (s *Session) SetRefreshToken(token string) { s.provider.SetRefreshToken(token) }

// Start launches aider for model and waits for its first prompt. Empty
// model and apiKey fall back to the configured values.
//
// If a process is already ready, Start only re-announces the ready state
// to observers.
// When the startup bound expires the process is left running and a
// StartupTimeoutError is returned; the caller decides whether to Kill it.
func (s *Session) Start(ctx context.Context, model, apiKey string) error {
	s.mu.Lock()
	live := s.handle != nil && !s.handle.Killed()
	s.mu.Unlock()

	if live {
		if s.machine.Current() == state.Starting {
			return errors.ErrAlreadyRunning
		}
		s.info("aider process already running")
		s.machine.Announce()
		return nil
	}
	return s.start(ctx, model, apiKey, false)
}

// ResetSession kills the current process, if any, and starts a new one.
// Observers see restarting followed by ready; the old process's exit is
// never reported as a crash.
func (s *Session) ResetSession(ctx context.Context, model, apiKey string) error {
	s.info("resetting aider process")
	s.setResetting(true)
	s.machine.Transition(state.Restarting)
	s.killHandle()
	s.setResetting(false)
	s.acc.Reset()
	return s.start(ctx, model, apiKey, true)
}

// Kill terminates the process and the state becomes stopped, including
// when it kills the replacement process of a reset. Kill without a process
// is a no-op.
func (s *Session) Kill() {
	if !s.killHandle() {
		return
	}
	s.mu.Lock()
	resetting := s.resetting
	s.mu.Unlock()
	if !resetting {
		s.machine.Force(state.Stopped)
	}
}

func (s *Session) setResetting(v bool) {
	s.mu.Lock()
	s.resetting = v
	s.mu.Unlock()
}

// killHandle drops and kills the current process and invalidates its
// generation. It reports whether there was a live process.
func (s *Session) killHandle() bool {
	s.mu.Lock()
	h := s.handle
	s.handle = nil
	s.gen++
	s.cancelWaiterLocked(errors.ErrNotRunning)
	s.mu.Unlock()

	if h == nil || h.Killed() {
		return false
	}
	s.info("killing aider process", "pid", h.Pid())
	if err := h.Kill(); err != nil {
		s.warn("failed to kill aider process", "pid", h.Pid(), "error", err.Error())
	}
	return true
}

func (s *Session) start(ctx context.Context, model, apiKey string, restart bool) error {
	if model == "" {
		model = s.cfg.Model
	}
	if apiKey == "" {
		apiKey = s.cfg.APIKey
	}

	s.mu.Lock()
	s.model = model
	s.udiff = s.cfg.UsesUdiff()
	s.mu.Unlock()

	if err := s.gitCheck(ctx, s.dir); err != nil {
		s.machine.Force(state.NotGitRepo)
		s.warn("not a git repository", "dir", s.dir, "error", err.Error())
		return errors.NewPreflightError(errors.StageGit, err).WithDir(s.dir)
	}

	path := s.paths.ResolvePath(ctx)
	exe, err := s.probe(ctx, path)
	if err != nil {
		if errors.Is(err, errors.ErrExecutableNotFound) {
			s.machine.Force(state.Uninstalled)
		}
		s.warn("aider executable probe failed", "error", err.Error())
		return err
	}

	cmd, err := command.Resolve(ctx, command.Request{
		Model:        model,
		APIKey:       apiKey,
		Udiff:        s.cfg.UsesUdiff(),
		RelayBaseURL: s.cfg.RelayBaseURL,
		MapTokens:    s.cfg.MapTokens,
		Executable:   exe,
	}, s.provider)
	if err != nil {
		if errors.Is(err, errors.ErrNotLoggedIn) {
			s.machine.Force(state.SignedOut)
		}
		s.warn("failed to resolve aider command", "model", model, "error", err.Error())
		return err
	}

	s.machine.Transition(state.Starting)
	s.acc.Reset()

	s.mu.Lock()
	s.gen++
	gen := s.gen
	waiter := make(chan error, 1)
	s.waiter, s.waitGen = waiter, gen
	s.mu.Unlock()

	h, err := s.launcher.Launch(ctx, launch.Spec{
		Dir:     s.dir,
		Command: cmd,
		Path:    path,
		Shell:   s.cfg.Shell,
	}, s.callbacks(gen))
	if err != nil {
		s.mu.Lock()
		s.cancelWaiterLocked(err)
		s.mu.Unlock()
		s.machine.Force(state.Crashed)
		return err
	}

	s.mu.Lock()
	superseded := s.gen != gen
	if !superseded && s.exited != gen {
		s.handle = h
	}
	s.mu.Unlock()
	if superseded {
		// Killed while Launch was still returning.
		_ = h.Kill()
	}

	s.publish(event.NewProcessSpawnedEvent(s.id, h.Pid(), cmd.String(), restart))
	s.info("aider process spawned", "pid", h.Pid(), "model", model, "restart", restart)

	return s.awaitReady(ctx, waiter, h)
}

// awaitReady blocks until the first prompt, a startup failure, the timeout
// or ctx cancellation. The timer is released on every path.
func (s *Session) awaitReady(ctx context.Context, waiter <-chan error, h launch.Handle) error {
	timer := time.NewTimer(s.startTimeout)
	defer timer.Stop()

	select {
	case err := <-waiter:
		return err
	case <-timer.C:
		s.mu.Lock()
		s.cancelWaiterLocked(nil)
		s.mu.Unlock()
		s.warn("aider did not become ready in time", "timeout", s.startTimeout.String(), "pid", h.Pid())
		return errors.NewStartupTimeoutError(s.startTimeout)
	case <-ctx.Done():
		s.Kill()
		return ctx.Err()
	}
}

// cancelWaiterLocked resolves a pending Start with err. s.mu must be held.
func (s *Session) cancelWaiterLocked(err error) {
	if s.waiter == nil {
		return
	}
	select {
	case s.waiter <- err:
	default:
	}
	s.waiter = nil
}

func (s *Session) signalStart(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.waiter != nil && s.waitGen == gen {
		s.cancelWaiterLocked(err)
	}
}

func (s *Session) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

func (s *Session) callbacks(gen uint64) launch.Callbacks {
	return launch.Callbacks{
		OnStdout: func(chunk []byte) { s.onStdout(gen, chunk) },
		OnStderr: func(chunk []byte) { s.onStderr(gen, chunk) },
		OnExit:   func(code int) { s.onExit(gen, code) },
		OnError:  func(err error) { s.onError(gen, err) },
	}
}

func (s *Session) onStdout(gen uint64, chunk []byte) {
	if !s.isCurrent(gen) {
		return
	}
	s.acc.Append(capture.Normalize(chunk))

	if st := s.machine.Current(); st != state.Starting && st != state.Restarting {
		return
	}
	if detect.IsBoundary(s.acc.String()) {
		s.info("aider is ready")
		s.machine.Transition(state.Ready)
		s.signalStart(gen, nil)
	}
}

// onStderr only logs: aider reports repository scanning progress there.
func (s *Session) onStderr(gen uint64, chunk []byte) {
	if s.logger == nil || !s.isCurrent(gen) {
		return
	}
	if text := strings.TrimSpace(ansi.Strip(string(chunk))); text != "" {
		s.logger.Debug("aider stderr", "text", text)
	}
}

// exitCurrent clears the handle if gen is still current and reports
// whether the event belongs to the current process.
func (s *Session) exitCurrent(gen uint64) (launch.Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return nil, false
	}
	h := s.handle
	s.handle = nil
	s.exited = gen
	return h, true
}

func (s *Session) onExit(gen uint64, code int) {
	h, ok := s.exitCurrent(gen)
	if !ok {
		s.debug("ignoring exit of replaced aider process", "code", code)
		return
	}

	pid := 0
	if h != nil {
		pid = h.Pid()
	}
	s.publish(event.NewProcessExitedEvent(s.id, pid, code))
	s.info("aider process exited", "pid", pid, "code", code)

	if code == 0 {
		s.machine.Force(state.Stopped)
		s.signalStart(gen, errors.ErrNotRunning)
		return
	}
	s.machine.Force(state.Crashed)
	s.signalStart(gen, errors.NewExitError(code))
}

func (s *Session) onError(gen uint64, err error) {
	if _, ok := s.exitCurrent(gen); !ok {
		s.debug("ignoring error from replaced aider process", "error", err.Error())
		return
	}

	class := state.Classify(err.Error())
	s.machine.Force(class)
	if s.logger != nil {
		s.logger.Error("aider process error", "class", class.String(), "error", err.Error())
	}
	s.signalStart(gen, errors.NewRuntimeProcessError(class.String(), err))
}

// SendMessage writes one user message. Newlines are collapsed to single
// spaces because aider submits on every line break. The output buffer is
// cleared so the next Turn only sees the reply. It fails with
// errors.ErrTurnInProgress while a Turn is open.
func (s *Session) SendMessage(text string) error {
	if !s.claimTurn() {
		return errors.ErrTurnInProgress
	}
	defer s.releaseTurn()
	return s.write(text)
}

// claimTurn takes the turn slot if it is free.
func (s *Session) claimTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.turn {
		return false
	}
	s.turn = true
	return true
}

func (s *Session) releaseTurn() {
	s.mu.Lock()
	s.turn = false
	s.mu.Unlock()
}

// write sends text to the current process. The caller holds the turn slot.
func (s *Session) write(text string) error {
	s.mu.Lock()
	h, gen := s.handle, s.gen
	s.mu.Unlock()

	if h == nil || h.Killed() {
		s.machine.Transition(state.Stopped)
		if s.logger != nil {
			s.logger.Error("aider process is not running")
		}
		return errors.Wrap(errors.ErrNotRunning, "send message")
	}

	msg := newlines.ReplaceAllString(text, " ")
	s.acc.Reset()
	if _, err := h.Write([]byte(msg + "\n")); err != nil {
		s.dropHandle(gen)
		s.machine.Transition(state.Stopped)
		if s.logger != nil {
			s.logger.Error("failed to write to aider", "error", err.Error())
		}
		return errors.NewPipeWriteError(err)
	}

	s.publish(event.NewTurnStartedEvent(s.id, msg))
	s.debug("message sent", "length", len(msg))
	return nil
}

// SendInterrupt writes Ctrl+C to aider, which cancels the current reply.
func (s *Session) SendInterrupt() error {
	s.mu.Lock()
	h := s.handle
	s.mu.Unlock()

	if h == nil || h.Killed() {
		s.info("no active aider process to interrupt")
		return errors.Wrap(errors.ErrNotRunning, "send interrupt")
	}
	s.info("sending interrupt to aider")
	if _, err := h.Write([]byte(Interrupt)); err != nil {
		return errors.NewPipeWriteError(err)
	}
	return nil
}

func (s *Session) dropHandle(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.handle = nil
		s.gen++
	}
}

// Chat sends text and returns the Turn streaming the reply. The turn slot
// is held from before the write, so concurrent Chat calls never interleave
// their messages.
func (s *Session) Chat(ctx context.Context, text string) (*Turn, error) {
	if !s.claimTurn() {
		return nil, errors.ErrTurnInProgress
	}
	if err := s.write(text); err != nil {
		s.releaseTurn()
		return nil, err
	}
	return s.newTurn(ctx), nil
}

func (s *Session) defaultGitCheck(ctx context.Context, dir string) error {
	out, err := s.runner.Run(ctx, dir, nil, "git", "rev-parse", "--is-inside-work-tree")
	if err != nil || strings.TrimSpace(string(out)) != "true" {
		return errors.ErrNotGitRepository
	}
	return nil
}

func (s *Session) publish(e event.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

func (s *Session) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Session) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Session) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
