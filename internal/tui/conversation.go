package tui

import (
	"context"
	"iter"

	"github.com/Iron-Ham/aiderctl/internal/aider/session"
	"github.com/Iron-Ham/aiderctl/internal/aider/state"
)

// Conversation is the part of an aider session the chat UI drives.
type Conversation interface {
	// Send writes a message and returns the reply as escaped deltas.
	Send(ctx context.Context, text string) (iter.Seq[string], error)
	Interrupt() error
	Reset(ctx context.Context) error
	State() state.State
	Model() string
}

// SessionConversation adapts a session.Session to Conversation.
type SessionConversation struct {
	session *session.Session
	apiKey  string
}

// NewSessionConversation wraps s. apiKey is reused when the session is reset.
func NewSessionConversation(s *session.Session, apiKey string) *SessionConversation {
	return &SessionConversation{session: s, apiKey: apiKey}
}

func (c *SessionConversation) Send(ctx context.Context, text string) (iter.Seq[string], error) {
	turn, err := c.session.Chat(ctx, text)
	if err != nil {
		return nil, err
	}
	return turn.Deltas(), nil
}

func (c *SessionConversation) Interrupt() error { return c.session.SendInterrupt() }

func (c *SessionConversation) Reset(ctx context.Context) error {
	return c.session.ResetSession(ctx, c.session.Model(), c.apiKey)
}

func (c *SessionConversation) State() state.State { return c.session.State() }

func (c *SessionConversation) Model() string { return c.session.Model() }
