// Package tui implements the interactive chat screen for an aider session.
package tui

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/aiderctl/internal/aider/state"
)

// App wraps the Bubbletea program
type App struct {
	mu      sync.Mutex
	program *tea.Program
	model   Model
}

// New creates a new TUI application
func New(ctx context.Context, conv Conversation, udiff bool) *App {
	return &App{model: NewModel(ctx, conv, udiff)}
}

// NotifyState forwards a session state change to the running program. It
// is meant to be registered with session.OnStateChange and is a no-op
// before Run or after it returns.
func (a *App) NotifyState(c state.Change) {
	a.mu.Lock()
	p := a.program
	a.mu.Unlock()
	if p != nil {
		p.Send(stateMsg{change: c})
	}
}

// Run starts the TUI application and blocks until the user quits
func (a *App) Run() error {
	p := tea.NewProgram(a.model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	a.mu.Lock()
	a.program = p
	a.mu.Unlock()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		if _, ok := <-sigChan; ok {
			p.Send(tea.Quit())
		}
	}()

	_, err := p.Run()

	signal.Stop(sigChan)
	close(sigChan)

	a.mu.Lock()
	a.program = nil
	a.mu.Unlock()
	return err
}
