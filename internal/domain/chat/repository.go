package chat

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Storage contract for chat messages. Implementations live in
// infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines persistence operations for chat messages.
type Repository interface {
	// Insert persists a new message.
	Insert(ctx context.Context, m *Message) error

	// ListByMatch returns the messages of a match in chronological order.
	ListByMatch(ctx context.Context, matchID string, limit int) ([]*Message, error)

	// MarkRead flags every message in a match as read for the given reader,
	// i.e. messages the reader did not send. Returns the number of updated
	// rows.
	MarkRead(ctx context.Context, matchID, readerID string) (int, error)

	// CountUnread returns the number of unread messages addressed to the
	// reader in a match.
	CountUnread(ctx context.Context, matchID, readerID string) (int, error)
}
