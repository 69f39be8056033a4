package launch

import (
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/aiderctl/internal/errors"
)

const readBufferSize = 4096

// process is the Handle for an os/exec child.
type process struct {
	cmd       *exec.Cmd
	killGrace time.Duration

	writeMu sync.Mutex
	stdin   io.WriteCloser

	killed atomic.Bool
	done   chan struct{}
}

func newProcess(cmd *exec.Cmd, stdin io.WriteCloser, killGrace time.Duration) *process {
	return &process{
		cmd:       cmd,
		stdin:     stdin,
		killGrace: killGrace,
		done:      make(chan struct{}),
	}
}

// start runs one reader per pipe and a waiter that reports termination
// after both readers have hit EOF, as os/exec requires.
func (p *process) start(pipes []io.Reader, cb Callbacks) {
	sinks := []func([]byte){cb.OnStdout, cb.OnStderr}

	var readers conc.WaitGroup
	for i, r := range pipes {
		sink := sinks[i]
		readers.Go(func() { pump(r, sink) })
	}

	go func() {
		defer close(p.done)
		readers.Wait()

		err := p.cmd.Wait()
		var exitErr *exec.ExitError
		switch {
		case err == nil:
			if cb.OnExit != nil {
				cb.OnExit(0)
			}
		case errors.As(err, &exitErr):
			if cb.OnExit != nil {
				cb.OnExit(exitErr.ExitCode())
			}
		default:
			if cb.OnError != nil {
				cb.OnError(err)
			}
		}
	}()
}

// pump copies chunks from r to sink until EOF. Each chunk is a fresh slice.
func pump(r io.Reader, sink func([]byte)) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 && sink != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			sink(chunk)
		}
		if err != nil {
			return
		}
	}
}

func (p *process) Write(b []byte) (int, error) {
	if p.killed.Load() {
		return 0, errors.ErrNotRunning
	}
	select {
	case <-p.done:
		return 0, errors.ErrNotRunning
	default:
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.stdin.Write(b)
}

func (p *process) Kill() error {
	if p.killed.Swap(true) {
		return nil
	}

	p.writeMu.Lock()
	_ = p.stdin.Close()
	p.writeMu.Unlock()

	pid := p.Pid()
	if err := terminateTree(pid); err != nil {
		forceKillTree(pid)
		return nil
	}

	go func() {
		timer := time.NewTimer(p.killGrace)
		defer timer.Stop()
		select {
		case <-p.done:
		case <-timer.C:
			forceKillTree(pid)
		}
	}()
	return nil
}

func (p *process) Killed() bool {
	return p.killed.Load()
}

func (p *process) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *process) Done() <-chan struct{} {
	return p.done
}
