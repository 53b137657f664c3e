// Package chat contains the match chat domain model.
// This is core business logic - no external dependencies here.
package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// MessageType distinguishes user messages from system notices.
type MessageType string

const (
	// TypeText - a regular message typed by a runner.
	TypeText MessageType = "text"
	// TypeSystem - a notice generated by the platform, e.g. "You matched!".
	TypeSystem MessageType = "system"
)

// IsValid checks that the message type is one of the known values.
func (t MessageType) IsValid() bool {
	switch t {
	case TypeText, TypeSystem:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: MESSAGE
// ══════════════════════════════════════════════════════════════════════════════

// Message represents one chat message inside a match.
type Message struct {
	// ID - unique identifier (UUID).
	ID string

	// MatchID - the match this message belongs to.
	MatchID string

	// SenderID - the runner who sent the message. Empty for system notices.
	SenderID string

	// Content - message text.
	Content string

	// MessageType - text or system.
	MessageType MessageType

	// IsRead - whether the recipient has seen the message.
	IsRead bool

	// CreatedAt - when the message was sent.
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrMissingID - message id is required.
	ErrMissingID = errors.New("message id is required")

	// ErrMissingMatch - match id is required.
	ErrMissingMatch = errors.New("match id is required")

	// ErrMissingSender - sender id is required for text messages.
	ErrMissingSender = errors.New("sender id is required")

	// ErrEmptyContent - message content cannot be empty.
	ErrEmptyContent = errors.New("message content cannot be empty")

	// ErrContentTooLong - message content exceeds the limit.
	ErrContentTooLong = errors.New("message content exceeds 2000 chars")
)

// MaxContentLength caps message size to keep chat payloads small.
const MaxContentLength = 2000

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewMessage creates a new text message with validation.
func NewMessage(id, matchID, senderID, content string) (*Message, error) {
	if id == "" {
		return nil, ErrMissingID
	}

	if matchID == "" {
		return nil, ErrMissingMatch
	}

	if senderID == "" {
		return nil, ErrMissingSender
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if len(content) > MaxContentLength {
		return nil, ErrContentTooLong
	}

	return &Message{
		ID:          id,
		MatchID:     matchID,
		SenderID:    senderID,
		Content:     content,
		MessageType: TypeText,
		IsRead:      false,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// NewSystemMessage creates a platform-generated notice inside a match chat.
func NewSystemMessage(id, matchID, content string) (*Message, error) {
	if id == "" {
		return nil, ErrMissingID
	}

	if matchID == "" {
		return nil, ErrMissingMatch
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	return &Message{
		ID:          id,
		MatchID:     matchID,
		Content:     content,
		MessageType: TypeSystem,
		IsRead:      false,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// MarkRead flags the message as seen.
func (m *Message) MarkRead() {
	m.IsRead = true
}

// IsSystem reports whether this is a platform-generated notice.
func (m *Message) IsSystem() bool {
	return m.MessageType == TypeSystem
}

// String returns a string representation of the message for logging.
func (m *Message) String() string {
	return fmt.Sprintf(
		"Message{ID: %s, Match: %s, Sender: %s, Type: %s}",
		m.ID, m.MatchID, m.SenderID, m.MessageType,
	)
}
