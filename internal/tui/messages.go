package tui

import "github.com/Iron-Ham/aiderctl/internal/aider/state"

// stateMsg carries a session state change into the program.
type stateMsg struct {
	change state.Change
}

// streamStartedMsg is sent once a message was written and the reply can
// be read from deltas.
type streamStartedMsg struct {
	deltas <-chan string
}

type deltaMsg struct {
	text string
}

type turnDoneMsg struct{}

type errMsg struct {
	err error
}

type resetDoneMsg struct {
	err error
}
