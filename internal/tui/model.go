package tui

import (
	"context"
	"iter"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/aiderctl/internal/aider/detect"
	"github.com/Iron-Ham/aiderctl/internal/aider/state"
	"github.com/Iron-Ham/aiderctl/internal/errors"
	"github.com/Iron-Ham/aiderctl/internal/tui/styles"
	"github.com/Iron-Ham/aiderctl/internal/util"
)

// Slash commands understood by the input line
const (
	CommandReset     = "/reset"
	CommandInterrupt = "/interrupt"
	CommandQuit      = "/quit"
)

// Layout offsets: header (2) + output border (2) + input (1) + status (1) + help (1)
const chromeHeight = 7

type role int

const (
	roleUser role = iota
	roleAider
	roleNotice
)

type entry struct {
	role role
	text string
}

// Model is the Bubbletea model of the chat screen
type Model struct {
	ctx   context.Context
	conv  Conversation
	udiff bool
	goos  string

	input  textinput.Model
	output viewport.Model
	spin   spinner.Model

	state   state.State
	entries []entry
	reply   string
	deltas  <-chan string
	busy    bool

	width    int
	height   int
	ready    bool
	errMsg   string
	quitting bool
}

// NewModel creates a chat model for conv. udiff selects diff highlighting
// and diff-mode prompt trimming.
func NewModel(ctx context.Context, conv Conversation, udiff bool) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask aider to change something"
	ti.Prompt = "> "
	ti.CharLimit = 4000
	ti.Focus()

	return Model{
		ctx:    ctx,
		conv:   conv,
		udiff:  udiff,
		goos:   runtime.GOOS,
		input:  ti,
		output: viewport.New(80, 20),
		spin:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Primary)),
		state:  conv.State(),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.output.Width = max(msg.Width-2, 10)
		m.output.Height = max(msg.Height-chromeHeight, 3)
		m.input.Width = max(msg.Width-4, 10)
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case stateMsg:
		m.state = msg.change.To
		return m, nil

	case streamStartedMsg:
		m.deltas = msg.deltas
		return m, waitForDelta(m.deltas)

	case deltaMsg:
		m.reply += detect.UnescapeDelta(msg.text)
		m.refresh()
		return m, waitForDelta(m.deltas)

	case turnDoneMsg:
		m.finishReply()
		return m, nil

	case errMsg:
		m.finishReply()
		m.setError(msg.err)
		return m, nil

	case resetDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.notice("session restarted")
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.output, cmd = m.output.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.busy && m.deltas != nil {
			m.interrupt()
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case "esc":
		if m.busy && m.deltas != nil {
			m.interrupt()
		}
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd

	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		return m.submit(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	m.errMsg = ""

	switch text {
	case CommandQuit:
		m.quitting = true
		return m, tea.Quit
	case CommandInterrupt:
		m.input.Reset()
		m.interrupt()
		return m, nil
	case CommandReset:
		if m.busy {
			m.errMsg = "wait for the reply to finish or press esc"
			return m, nil
		}
		m.input.Reset()
		m.busy = true
		m.notice("restarting aider...")
		return m, resetSession(m.ctx, m.conv)
	}

	if m.busy {
		m.errMsg = "aider is still replying"
		return m, nil
	}

	m.input.Reset()
	m.busy = true
	m.reply = ""
	m.entries = append(m.entries, entry{role: roleUser, text: text})
	m.refresh()
	return m, sendMessage(m.ctx, m.conv, text)
}

func (m *Model) interrupt() {
	if err := m.conv.Interrupt(); err != nil {
		m.setError(err)
		return
	}
	m.notice("interrupt sent")
}

// finishReply moves the streamed reply into the transcript without the
// trailing prompt.
func (m *Model) finishReply() {
	if reply := detect.TrimBoundary(m.reply, m.udiff, m.goos); strings.TrimSpace(reply) != "" {
		m.entries = append(m.entries, entry{role: roleAider, text: reply})
	}
	m.reply = ""
	m.deltas = nil
	m.busy = false
	m.refresh()
}

func (m *Model) notice(text string) {
	m.entries = append(m.entries, entry{role: roleNotice, text: text})
	m.refresh()
}

func (m *Model) setError(err error) {
	if hint := errors.Hint(err); hint != "" {
		m.errMsg = hint
		return
	}
	m.errMsg = err.Error()
}

// refresh re-renders the transcript into the viewport and keeps it
// scrolled to the newest output.
func (m *Model) refresh() {
	m.output.SetContent(m.renderTranscript())
	m.output.GotoBottom()
}

func (m Model) renderTranscript() string {
	wrap := lipgloss.NewStyle().Width(max(m.output.Width-1, 10))

	var b strings.Builder
	for _, e := range m.entries {
		b.WriteString(m.renderEntry(wrap, e))
		b.WriteString("\n\n")
	}
	if m.reply != "" {
		b.WriteString(m.renderEntry(wrap, entry{role: roleAider, text: m.reply}))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderEntry(wrap lipgloss.Style, e entry) string {
	switch e.role {
	case roleUser:
		return styles.UserPrompt.Render("you: ") + wrap.Render(e.text)
	case roleNotice:
		return styles.Muted.Render("· " + e.text)
	}
	if !m.udiff {
		return wrap.Render(e.text)
	}
	lines := strings.Split(e.text, "\n")
	for i, line := range lines {
		lines[i] = styles.HighlightDiffLine(line)
	}
	return strings.Join(lines, "\n")
}

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder

	title := styles.Header.Width(max(m.width, 10)).Render(
		"aiderctl " + styles.Muted.Render(util.TruncateString(m.conv.Model(), 40)) + "  " + styles.StateBadge(m.state))
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(styles.OutputArea.Render(m.output.View()))
	b.WriteString("\n")

	if m.busy {
		b.WriteString(m.spin.View() + " ")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")

	status := ""
	if m.errMsg != "" {
		status = styles.ErrorMsg.Render(m.errMsg)
	}
	b.WriteString(styles.StatusBar.Render(util.TruncateANSI(status, max(m.width-2, 10))))
	b.WriteString("\n")
	b.WriteString(m.helpLine())
	return b.String()
}

func (m Model) helpLine() string {
	keys := []struct{ key, desc string }{
		{"enter", "send"},
		{"esc", "interrupt"},
		{CommandReset, "restart"},
		{"ctrl+c", "quit"},
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = styles.HelpKey.Render(k.key) + " " + k.desc
	}
	return styles.HelpBar.Render(util.TruncateANSI(strings.Join(parts, "  "), max(m.width, 10)))
}

// sendMessage writes text to aider and pumps the reply deltas into a
// channel read by waitForDelta.
func sendMessage(ctx context.Context, conv Conversation, text string) tea.Cmd {
	return func() tea.Msg {
		seq, err := conv.Send(ctx, text)
		if err != nil {
			return errMsg{err: err}
		}
		return streamStartedMsg{deltas: StreamDeltas(ctx, seq)}
	}
}

// StreamDeltas ranges over seq in a goroutine and forwards each delta on
// the returned channel, which is closed when seq ends or ctx is done.
func StreamDeltas(ctx context.Context, seq iter.Seq[string]) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		for d := range seq {
			select {
			case ch <- d:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func waitForDelta(deltas <-chan string) tea.Cmd {
	return func() tea.Msg {
		d, ok := <-deltas
		if !ok {
			return turnDoneMsg{}
		}
		return deltaMsg{text: d}
	}
}

func resetSession(ctx context.Context, conv Conversation) tea.Cmd {
	return func() tea.Msg {
		return resetDoneMsg{err: conv.Reset(ctx)}
	}
}
