package domain

import (
	"errors"
	"fmt"
)

// DefaultMaxRounds bounds the number of tool-execution phases in one run.
const DefaultMaxRounds = 8

var (
	// ErrEmptyHistory is returned when a state is seeded without a user message.
	ErrEmptyHistory = errors.New("conversation must start with a user message")

	// ErrUnansweredCalls is returned when a message is appended while tool
	// calls of the previous assistant message are still unanswered.
	ErrUnansweredCalls = errors.New("previous tool calls have not been answered")
)

// ConversationState is the record threaded through one agent run.
//
// Messages only ever grow. DocumentText and UserID are fixed when the state is
// created and cannot be changed afterwards.
type ConversationState struct {
	messages     []Message
	documentText string
	userID       string

	// Round counts completed tool-execution phases.
	Round int
	// MaxRounds caps Round; zero means DefaultMaxRounds.
	MaxRounds int
}

// NewConversationState seeds a run with one user message.
func NewConversationState(userInput, documentText, userID string) *ConversationState {
	return &ConversationState{
		messages:     []Message{Human(userInput)},
		documentText: documentText,
		userID:       userID,
		MaxRounds:    DefaultMaxRounds,
	}
}

// DocumentText returns the document snapshot of this run.
func (s *ConversationState) DocumentText() string { return s.documentText }

// UserID returns the user identifier of this run.
func (s *ConversationState) UserID() string { return s.userID }

// Len returns the number of messages in the history.
func (s *ConversationState) Len() int { return len(s.messages) }

// History returns a copy of the message history.
func (s *ConversationState) History() []Message {
	out := make([]Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.Clone()
	}
	return out
}

// Last returns the most recent message, or false if the history is empty.
func (s *ConversationState) Last() (Message, bool) {
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1].Clone(), true
}

// Pending returns the tool calls of the latest assistant message that have
// no ToolResult yet.
func (s *ConversationState) Pending() []ToolCall {
	idx := s.lastAssistant()
	if idx < 0 {
		return nil
	}
	answered := make(map[string]bool)
	for _, m := range s.messages[idx+1:] {
		if m.Role == RoleTool {
			answered[m.ToolCallID] = true
		}
	}
	var pending []ToolCall
	for _, c := range s.messages[idx].ToolCalls {
		if !answered[c.ID] {
			pending = append(pending, c.Clone())
		}
	}
	return pending
}

// Done reports whether the latest message is an assistant message without
// tool calls.
func (s *ConversationState) Done() bool {
	last, ok := s.Last()
	return ok && last.Role == RoleAssistant && !last.HasToolCalls()
}

// RoundsExhausted reports whether no further tool rounds are allowed.
func (s *ConversationState) RoundsExhausted() bool {
	limit := s.MaxRounds
	if limit <= 0 {
		limit = DefaultMaxRounds
	}
	return s.Round >= limit
}

// Append adds messages to the history.
//
// An assistant message cannot be appended while calls from the previous
// assistant message are unanswered, and a tool result must answer one of the
// pending calls.
func (s *ConversationState) Append(msgs ...Message) error {
	for _, m := range msgs {
		if err := s.appendOne(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *ConversationState) appendOne(m Message) error {
	if len(s.messages) == 0 && m.Role != RoleUser {
		return ErrEmptyHistory
	}
	pending := s.Pending()
	switch m.Role {
	case RoleTool:
		for _, c := range pending {
			if c.ID == m.ToolCallID {
				s.messages = append(s.messages, m.Clone())
				return nil
			}
		}
		return fmt.Errorf("tool result %q does not answer a pending call", m.ToolCallID)
	case RoleSystem:
		return errors.New("system messages are not part of the history")
	default:
		if len(pending) > 0 {
			return ErrUnansweredCalls
		}
		s.messages = append(s.messages, m.Clone())
		return nil
	}
}

func (s *ConversationState) lastAssistant() int {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == RoleAssistant {
			return i
		}
	}
	return -1
}
