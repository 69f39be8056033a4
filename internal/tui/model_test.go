package tui

import (
	"context"
	"iter"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/Iron-Ham/aiderctl/internal/aider/detect"
	"github.com/Iron-Ham/aiderctl/internal/aider/state"
	"github.com/Iron-Ham/aiderctl/internal/errors"
)

type fakeConversation struct {
	mu         sync.Mutex
	sent       []string
	reply      []string
	sendErr    error
	resetErr   error
	resets     int
	interrupts int
	state      state.State
}

func (c *fakeConversation) Send(_ context.Context, text string) (iter.Seq[string], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return nil, c.sendErr
	}
	c.sent = append(c.sent, text)
	return slices.Values(c.reply), nil
}

func (c *fakeConversation) Interrupt() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interrupts++
	return nil
}

func (c *fakeConversation) Reset(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets++
	return c.resetErr
}

func (c *fakeConversation) State() state.State { return c.state }
func (c *fakeConversation) Model() string      { return "gpt-4o" }

func newTestModel(conv *fakeConversation, udiff bool) Model {
	m := NewModel(context.Background(), conv, udiff)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

// drive feeds msg to m and keeps executing the returned commands until the
// model settles.
func drive(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	pending := []tea.Msg{msg}
	for steps := 0; len(pending) > 0; steps++ {
		if steps > 100 {
			t.Fatal("model did not settle")
		}
		next, cmd := m.Update(pending[0])
		m = next.(Model)
		pending = append(pending[1:], execCmd(cmd)...)
	}
	return m
}

func execCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, execCmd(c)...)
		}
		return out
	case tea.QuitMsg:
		return nil
	default:
		return []tea.Msg{msg}
	}
}

func typeAndSubmit(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.input.SetValue(text)
	return drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestModel_SendStreamsReply(t *testing.T) {
	conv := &fakeConversation{
		state: state.Ready,
		reply: []string{"It costs \\$5", "\n> "},
	}
	m := newTestModel(conv, false)

	m = typeAndSubmit(t, m, "how much?")

	if !slices.Equal(conv.sent, []string{"how much?"}) {
		t.Errorf("sent = %q, want one message", conv.sent)
	}
	if m.busy {
		t.Error("busy = true after reply finished")
	}
	if m.input.Value() != "" {
		t.Errorf("input = %q, want cleared", m.input.Value())
	}
	want := []entry{
		{role: roleUser, text: "how much?"},
		{role: roleAider, text: "It costs $5"},
	}
	if !slices.Equal(m.entries, want) {
		t.Errorf("entries = %+v, want %+v", m.entries, want)
	}
}

func TestModel_UdiffReplyIsTrimmed(t *testing.T) {
	conv := &fakeConversation{
		state: state.Ready,
		reply: []string{"--- a/x\n+++ b/x\n@@ -1 +1 @@\n-a\n+b", detect.ResponseOver},
	}
	m := newTestModel(conv, true)

	m = typeAndSubmit(t, m, "edit")

	last := m.entries[len(m.entries)-1]
	if last.text != "--- a/x\n+++ b/x\n@@ -1 +1 @@\n-a\n+b" {
		t.Errorf("reply = %q", last.text)
	}
	if view := ansi.Strip(m.renderTranscript()); !strings.Contains(view, "+b") {
		t.Errorf("transcript = %q, want diff lines", view)
	}
}

func TestModel_EmptyInputIgnored(t *testing.T) {
	conv := &fakeConversation{state: state.Ready}
	m := newTestModel(conv, false)

	m = typeAndSubmit(t, m, "   ")

	if len(conv.sent) != 0 {
		t.Errorf("sent = %q, want nothing", conv.sent)
	}
	if m.busy {
		t.Error("busy = true, want false")
	}
}

func TestModel_SendErrorShowsHint(t *testing.T) {
	conv := &fakeConversation{
		state:   state.Stopped,
		sendErr: errors.Wrap(errors.ErrNotRunning, "send message"),
	}
	m := newTestModel(conv, false)

	m = typeAndSubmit(t, m, "hello")

	if m.errMsg != errors.HintNotRunning {
		t.Errorf("errMsg = %q, want %q", m.errMsg, errors.HintNotRunning)
	}
	if m.busy {
		t.Error("busy = true after failed send")
	}
}

func TestModel_Commands(t *testing.T) {
	t.Run("reset", func(t *testing.T) {
		conv := &fakeConversation{state: state.Ready}
		m := newTestModel(conv, false)

		m = typeAndSubmit(t, m, CommandReset)

		if conv.resets != 1 {
			t.Errorf("resets = %d, want 1", conv.resets)
		}
		if m.busy {
			t.Error("busy = true after reset finished")
		}
		if last := m.entries[len(m.entries)-1]; last.text != "session restarted" {
			t.Errorf("last entry = %+v", last)
		}
	})

	t.Run("reset failure", func(t *testing.T) {
		conv := &fakeConversation{state: state.Ready, resetErr: errors.ErrNotLoggedIn}
		m := newTestModel(conv, false)

		m = typeAndSubmit(t, m, CommandReset)

		if m.errMsg != errors.HintNotLoggedIn {
			t.Errorf("errMsg = %q, want %q", m.errMsg, errors.HintNotLoggedIn)
		}
	})

	t.Run("reset while busy", func(t *testing.T) {
		conv := &fakeConversation{state: state.Ready}
		m := newTestModel(conv, false)
		m.busy = true

		m = typeAndSubmit(t, m, CommandReset)

		if conv.resets != 0 {
			t.Errorf("resets = %d, want 0", conv.resets)
		}
		if m.errMsg == "" {
			t.Error("errMsg empty, want explanation")
		}
	})

	t.Run("interrupt", func(t *testing.T) {
		conv := &fakeConversation{state: state.Ready}
		m := newTestModel(conv, false)

		m = typeAndSubmit(t, m, CommandInterrupt)

		if conv.interrupts != 1 {
			t.Errorf("interrupts = %d, want 1", conv.interrupts)
		}
	})

	t.Run("quit", func(t *testing.T) {
		conv := &fakeConversation{state: state.Ready}
		m := newTestModel(conv, false)
		m.input.SetValue(CommandQuit)

		next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

		if !next.(Model).quitting {
			t.Error("quitting = false, want true")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("command did not quit")
		}
	})
}

func TestModel_EscapeInterruptsStreamingReply(t *testing.T) {
	conv := &fakeConversation{state: state.Ready}
	m := newTestModel(conv, false)
	m.busy = true
	m.deltas = make(chan string)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)

	if conv.interrupts != 1 {
		t.Errorf("interrupts = %d, want 1", conv.interrupts)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if next.(Model).quitting {
		t.Error("ctrl+c quit during a reply, want interrupt")
	}
	if conv.interrupts != 2 {
		t.Errorf("interrupts = %d, want 2", conv.interrupts)
	}
}

func TestModel_StateChange(t *testing.T) {
	conv := &fakeConversation{state: state.Starting}
	m := newTestModel(conv, false)

	next, _ := m.Update(stateMsg{change: state.Change{From: state.Starting, To: state.Crashed, Timestamp: time.Now()}})
	m = next.(Model)

	if m.state != state.Crashed {
		t.Errorf("state = %v, want %v", m.state, state.Crashed)
	}
	if view := ansi.Strip(m.View()); !strings.Contains(view, "crashed") || !strings.Contains(view, "gpt-4o") {
		t.Errorf("View() missing state badge or model:\n%s", view)
	}
}

func TestModel_ViewBeforeResize(t *testing.T) {
	m := NewModel(context.Background(), &fakeConversation{}, false)
	if got := m.View(); got != "Loading..." {
		t.Errorf("View() = %q, want loading placeholder", got)
	}
}
