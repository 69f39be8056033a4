package launch

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/Iron-Ham/aiderctl/internal/aider/command"
	"github.com/Iron-Ham/aiderctl/internal/logging"
	"github.com/Iron-Ham/aiderctl/internal/util"
)

// PathResolver returns the PATH aider should be started with. GUI hosts
// often inherit a minimal PATH, so the user's login environment is asked
// instead.
type PathResolver interface {
	ResolvePath(ctx context.Context) string
}

// PathResolverFunc adapts a function to PathResolver.
type PathResolverFunc func(ctx context.Context) string

// ResolvePath implements PathResolver.
func (f PathResolverFunc) ResolvePath(ctx context.Context) string { return f(ctx) }

// pathTimeout bounds the login shell, which may run slow profile scripts.
const pathTimeout = 10 * time.Second

// LoginPathResolver reads PATH from a login shell on POSIX and from the
// registry on Windows, falling back to the current process's PATH.
type LoginPathResolver struct {
	goos   string
	shell  string
	runner command.Runner
	logger *logging.Logger

	registry func() (string, error)
}

// NewLoginPathResolver creates a resolver for the current platform. shell
// may be empty to use $SHELL.
func NewLoginPathResolver(shell string, runner command.Runner, logger *logging.Logger) *LoginPathResolver {
	if runner == nil {
		runner = command.NewExecRunner()
	}
	return &LoginPathResolver{
		goos:     runtime.GOOS,
		shell:    shell,
		runner:   runner,
		logger:   logger,
		registry: registryPath,
	}
}

// ResolvePath implements PathResolver.
func (r *LoginPathResolver) ResolvePath(ctx context.Context) string {
	var (
		path string
		err  error
	)
	if r.goos == "windows" {
		path, err = r.registry()
	} else {
		path, err = r.shellPath(ctx)
	}
	if err == nil && path != "" {
		return path
	}

	if r.logger != nil {
		attrs := []any{"goos", r.goos}
		if err != nil {
			attrs = append(attrs, "error", err.Error())
		}
		r.logger.Warn("falling back to inherited PATH", attrs...)
	}
	return os.Getenv("PATH")
}

// shellPath runs `<shell> -ilc 'echo $PATH'`. Profile scripts may print
// banners first, so the last non-empty line is taken.
func (r *LoginPathResolver) shellPath(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pathTimeout)
	defer cancel()

	out, err := r.runner.Run(ctx, "", nil, userShell(r.shell), "-ilc", "echo $PATH")
	if err != nil {
		return "", err
	}
	return util.LastLine(string(out)), nil
}
