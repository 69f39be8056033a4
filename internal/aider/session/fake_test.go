package session

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"

	"github.com/Iron-Ham/aiderctl/internal/aider/launch"
	"github.com/Iron-Ham/aiderctl/internal/errors"
)

// fakeHandle is a launch.Handle whose output is driven by the test.
type fakeHandle struct {
	cb  launch.Callbacks
	pid int

	mu       sync.Mutex
	writes   bytes.Buffer
	writeErr error
	onWrite  func(h *fakeHandle, p []byte)

	killed atomic.Bool
	once   sync.Once
	done   chan struct{}
}

func (h *fakeHandle) Write(p []byte) (int, error) {
	h.mu.Lock()
	if h.writeErr != nil {
		err := h.writeErr
		h.mu.Unlock()
		return 0, err
	}
	h.writes.Write(p)
	hook := h.onWrite
	h.mu.Unlock()

	if hook != nil {
		hook(h, p)
	}
	return len(p), nil
}

func (h *fakeHandle) Kill() error {
	h.killed.Store(true)
	return nil
}

func (h *fakeHandle) Killed() bool          { return h.killed.Load() }
func (h *fakeHandle) Pid() int              { return h.pid }
func (h *fakeHandle) Done() <-chan struct{} { return h.done }

func (h *fakeHandle) written() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.writes.String()
}

func (h *fakeHandle) stdout(s string) {
	if h.cb.OnStdout != nil {
		h.cb.OnStdout([]byte(s))
	}
}

func (h *fakeHandle) stderr(s string) {
	if h.cb.OnStderr != nil {
		h.cb.OnStderr([]byte(s))
	}
}

// exit reports termination the way the real launcher does: callback first,
// then Done is closed.
func (h *fakeHandle) exit(code int) {
	h.once.Do(func() {
		if h.cb.OnExit != nil {
			h.cb.OnExit(code)
		}
		close(h.done)
	})
}

func (h *fakeHandle) fail(err error) {
	h.once.Do(func() {
		if h.cb.OnError != nil {
			h.cb.OnError(err)
		}
		close(h.done)
	})
}

// fakeLauncher records launches and hands each new handle to onLaunch
// before returning it.
type fakeLauncher struct {
	mu       sync.Mutex
	specs    []launch.Spec
	handles  []*fakeHandle
	err      error
	onLaunch func(h *fakeHandle)
}

func (l *fakeLauncher) Launch(_ context.Context, spec launch.Spec, cb launch.Callbacks) (launch.Handle, error) {
	l.mu.Lock()
	l.specs = append(l.specs, spec)
	if l.err != nil {
		err := l.err
		l.mu.Unlock()
		return nil, errors.NewLaunchError(launch.StrategyPOSIX, err)
	}
	h := &fakeHandle{cb: cb, pid: 1000 + len(l.handles), done: make(chan struct{})}
	l.handles = append(l.handles, h)
	hook := l.onLaunch
	l.mu.Unlock()

	if hook != nil {
		hook(h)
	}
	return h, nil
}

func (l *fakeLauncher) launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.specs)
}

func (l *fakeLauncher) handle(i int) *fakeHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handles[i]
}

func (l *fakeLauncher) spec(i int) launch.Spec {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.specs[i]
}

// spyProvider counts credential refreshes.
type spyProvider struct {
	token   atomic.Value
	checks  atomic.Int32
	refresh atomic.Value
}

func newSpyProvider(token string) *spyProvider {
	p := &spyProvider{}
	p.token.Store(token)
	p.refresh.Store("")
	return p
}

func (p *spyProvider) AccessToken() string { return p.token.Load().(string) }

func (p *spyProvider) CheckAndUpdate(context.Context) error {
	p.checks.Add(1)
	return nil
}

func (p *spyProvider) SetAccessToken(t string)  { p.token.Store(t) }
func (p *spyProvider) SetRefreshToken(t string) { p.refresh.Store(t) }

// readyOnLaunch makes every launched process print its banner and prompt.
func readyOnLaunch(h *fakeHandle) {
	h.stdout("Aider v1.0\n> ")
}
