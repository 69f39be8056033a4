package launch

import (
	"context"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/Iron-Ham/aiderctl/internal/aider/command"
	"github.com/Iron-Ham/aiderctl/internal/errors"
	"github.com/Iron-Ham/aiderctl/internal/logging"
)

// Strategy names, also used in LaunchError.
const (
	StrategyPOSIX   = "posix"
	StrategyWindows = "windows"
)

// DefaultKillGrace is how long Kill waits after the polite signal before
// force-killing the process tree.
const DefaultKillGrace = 2 * time.Second

// Spec describes one process to spawn.
type Spec struct {
	// Dir is the working directory, normally the repository root.
	Dir string
	// Command is the resolved aider invocation.
	Command *command.Command
	// Path is the PATH the process sees. Empty keeps the inherited PATH.
	Path string
	// Shell is the POSIX shell; empty means $SHELL, then /bin/sh.
	Shell string
}

// Callbacks receive process output and termination. Any of them may be nil.
// They are called from reader goroutines and must not block for long.
type Callbacks struct {
	OnStdout func([]byte)
	OnStderr func([]byte)
	// OnExit is called once with the exit code; -1 means killed by a signal.
	OnExit func(code int)
	// OnError is called instead of OnExit when waiting on the process fails.
	OnError func(err error)
}

// Handle is a live process.
type Handle interface {
	// Write sends p to the process's stdin.
	Write(p []byte) (int, error)
	// Kill terminates the process tree. It is safe to call more than once.
	Kill() error
	// Killed reports whether Kill was called.
	Killed() bool
	// Pid returns the operating system process id.
	Pid() int
	// Done is closed after the exit callback has run.
	Done() <-chan struct{}
}

// Launcher spawns processes.
type Launcher interface {
	Launch(ctx context.Context, spec Spec, cb Callbacks) (Handle, error)
}

// ProcessLauncher is the os/exec backed Launcher.
type ProcessLauncher struct {
	goos      string
	runner    command.Runner
	logger    *logging.Logger
	killGrace time.Duration
}

// NewLauncher creates a ProcessLauncher for the current platform.
func NewLauncher(logger *logging.Logger) *ProcessLauncher {
	return &ProcessLauncher{
		goos:      runtime.GOOS,
		runner:    command.NewExecRunner(),
		logger:    logger,
		killGrace: DefaultKillGrace,
	}
}

// SetGOOS overrides the strategy selection.
func (l *ProcessLauncher) SetGOOS(goos string) {
	l.goos = goos
}

// SetRunner replaces the runner used for the Windows setup commands.
func (l *ProcessLauncher) SetRunner(r command.Runner) {
	l.runner = r
}

// SetKillGrace sets how long Kill waits before force-killing.
func (l *ProcessLauncher) SetKillGrace(d time.Duration) {
	l.killGrace = d
}

// Strategy returns the name of the strategy Launch will use.
func (l *ProcessLauncher) Strategy() string {
	if l.goos == "windows" {
		return StrategyWindows
	}
	return StrategyPOSIX
}

// Launch spawns spec.Command and starts the reader goroutines. Any failure
// is returned as a *errors.LaunchError and no callbacks are invoked.
func (l *ProcessLauncher) Launch(ctx context.Context, spec Spec, cb Callbacks) (Handle, error) {
	strategy := l.Strategy()
	fail := func(err error) (Handle, error) {
		if l.logger != nil {
			l.logger.Error("failed to spawn aider", "strategy", strategy, "error", err.Error())
		}
		lerr := errors.NewLaunchError(strategy, err)
		if spec.Command != nil {
			lerr = lerr.WithCommand(spec.Command.String())
		}
		return nil, lerr
	}

	if spec.Command == nil || len(spec.Command.Tokens) == 0 {
		return fail(errors.New("empty command"))
	}

	var cmd *exec.Cmd
	if strategy == StrategyWindows {
		if err := l.prepareWindows(ctx, spec); err != nil {
			return fail(err)
		}
		cmd = windowsCommand(spec)
	} else {
		cmd = posixCommand(spec)
	}
	cmd.Dir = spec.Dir
	cmd.Env = processEnv(spec.Path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fail(err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fail(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fail(err)
	}

	if err := cmd.Start(); err != nil {
		return fail(err)
	}

	if l.logger != nil {
		l.logger.Info("spawned aider",
			"strategy", strategy,
			"pid", cmd.Process.Pid,
			"command", spec.Command.String())
	}

	p := newProcess(cmd, stdin, l.killGrace)
	p.start([]io.Reader{stdout, stderr}, cb)
	return p, nil
}

// windowsSetup lists the commands run before spawning on Windows.
func windowsSetup(c *command.Command) [][]string {
	cmds := [][]string{
		{"setx", "PYTHONIOENCODING", "utf-8"},
		{"setx", "AIDER_SIMPLE_OUTPUT", "1"},
		{"chcp", "65001"},
	}
	if c.EnvKey != "" {
		cmds = append(cmds, []string{"setx", c.EnvKey, c.EnvValue})
	}
	return cmds
}

func (l *ProcessLauncher) prepareWindows(ctx context.Context, spec Spec) error {
	for _, args := range windowsSetup(spec.Command) {
		// chcp is a cmd.exe builtin.
		name, rest := args[0], args[1:]
		if name == "chcp" {
			name, rest = "cmd.exe", append([]string{"/c"}, args...)
		}
		if _, err := l.runner.Run(ctx, spec.Dir, nil, name, rest...); err != nil {
			return errors.Wrapf(err, "%s %s", args[0], args[1])
		}
		if l.logger != nil {
			l.logger.Debug("ran windows setup", "command", args[0]+" "+args[1])
		}
	}
	return nil
}

func windowsCommand(spec Spec) *exec.Cmd {
	args := append([]string{"/c"}, spec.Command.Tokens...)
	cmd := exec.Command("cmd.exe", args...)
	setProcAttr(cmd)
	return cmd
}

// posixScript renders the shell command line: the secret export followed
// by the quoted tokens.
func posixScript(c *command.Command) string {
	script := shellquote.Join(c.Tokens...)
	if c.EnvKey != "" {
		script = "export " + c.EnvKey + "=" + shellquote.Join(c.EnvValue) + "; " + script
	}
	return script
}

func posixCommand(spec Spec) *exec.Cmd {
	cmd := exec.Command(userShell(spec.Shell), "-c", posixScript(spec.Command))
	setProcAttr(cmd)
	return cmd
}

func userShell(configured string) string {
	if configured != "" {
		return configured
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// processEnv is the inherited environment plus the variables aider needs
// for plain UTF-8 output. Later entries win in os/exec.
func processEnv(path string) []string {
	env := os.Environ()
	if path != "" {
		env = append(env, "PATH="+path)
	}
	return append(env, "PYTHONIOENCODING=utf-8", "AIDER_SIMPLE_OUTPUT=1")
}
