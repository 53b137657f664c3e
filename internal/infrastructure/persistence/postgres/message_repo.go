package postgres

import (
	"context"
	"fmt"

	"github.com/stridemate/stridemate-hub/internal/domain/chat"
	"github.com/stridemate/stridemate-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MessageRepository implements chat.Repository for PostgreSQL.
type MessageRepository struct {
	conn *Connection
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(conn *Connection) *MessageRepository {
	return &MessageRepository{conn: conn}
}

// Insert stores a new message.
func (r *MessageRepository) Insert(ctx context.Context, m *chat.Message) error {
	query := `
		INSERT INTO messages (id, match_id, sender_id, content, message_type, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	// System messages carry no sender; NULL keeps the FK honest.
	var sender *string
	if m.SenderID != "" {
		s := m.SenderID
		sender = &s
	}

	_, err := r.conn.Exec(ctx, query,
		m.ID,
		m.MatchID,
		sender,
		m.Content,
		string(m.MessageType),
		m.IsRead,
		m.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrMatchNotFound
		}
		return fmt.Errorf("failed to insert message: %w", err)
	}

	return nil
}

// ListByMatch returns a conversation's messages in chronological order.
func (r *MessageRepository) ListByMatch(ctx context.Context, matchID string, limit int) ([]*chat.Message, error) {
	query := `
		SELECT id, match_id, sender_id, content, message_type, is_read, created_at
		FROM messages
		WHERE match_id = $1
		ORDER BY created_at
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, matchID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*chat.Message
	for rows.Next() {
		m, err := r.scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// MarkRead marks every message in the match not sent by the reader as
// read, returning how many rows changed.
func (r *MessageRepository) MarkRead(ctx context.Context, matchID, readerID string) (int, error) {
	query := `
		UPDATE messages
		SET is_read = TRUE
		WHERE match_id = $1
		  AND is_read = FALSE
		  AND (sender_id IS NULL OR sender_id != $2)
	`

	tag, err := r.conn.Exec(ctx, query, matchID, readerID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// CountUnread returns the reader's unread count for a conversation.
func (r *MessageRepository) CountUnread(ctx context.Context, matchID, readerID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages
		WHERE match_id = $1
		  AND is_read = FALSE
		  AND (sender_id IS NULL OR sender_id != $2)
	`

	var count int
	if err := r.conn.QueryRow(ctx, query, matchID, readerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

func (r *MessageRepository) scanMessage(row pgx.Row) (*chat.Message, error) {
	var (
		m       chat.Message
		sender  *string
		msgType string
	)

	err := row.Scan(
		&m.ID,
		&m.MatchID,
		&sender,
		&m.Content,
		&msgType,
		&m.IsRead,
		&m.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}

	if sender != nil {
		m.SenderID = *sender
	}
	m.MessageType = chat.MessageType(msgType)
	return &m, nil
}
