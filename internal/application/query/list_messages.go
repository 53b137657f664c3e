package query

import (
	"context"
	"errors"
	"time"

	"github.com/stridemate/stridemate-hub/internal/domain/chat"
	"github.com/stridemate/stridemate-hub/internal/domain/match"
	"github.com/stridemate/stridemate-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST MESSAGES QUERY
// Returns a match's chat history in chronological order. When a reader is
// given, their incoming messages are flagged read as a side effect, the
// same way opening a chat marks it read in the client.
// ══════════════════════════════════════════════════════════════════════════════

// ListMessagesQuery contains the parameters for a chat history request.
type ListMessagesQuery struct {
	// MatchID - the match whose messages to list.
	MatchID string

	// ReaderID - optional; when set, the reader's incoming messages are
	// marked read. Must be a participant of the match.
	ReaderID string

	// Limit - maximum number of messages to return (default 100).
	Limit int
}

// Validate checks the parameters and applies defaults.
func (q *ListMessagesQuery) Validate() error {
	if q.MatchID == "" {
		return errors.New("match_id is required")
	}
	if q.Limit <= 0 {
		q.Limit = 100
	}
	if q.Limit > 500 {
		q.Limit = 500
	}
	return nil
}

// MessageDTO is one chat message shaped for the API.
type MessageDTO struct {
	ID          string    `json:"id"`
	MatchID     string    `json:"matchId"`
	SenderID    string    `json:"senderId,omitempty"`
	Content     string    `json:"content"`
	MessageType string    `json:"messageType"`
	IsRead      bool      `json:"isRead"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ListMessagesResult contains a match's chat history.
type ListMessagesResult struct {
	// Messages - chronological chat history.
	Messages []MessageDTO `json:"messages"`

	// Total - number of messages returned.
	Total int `json:"total"`
}

// ListMessagesHandler handles chat history requests.
type ListMessagesHandler struct {
	chatRepo  chat.Repository
	matchRepo match.Repository
}

// NewListMessagesHandler creates a new handler.
func NewListMessagesHandler(chatRepo chat.Repository, matchRepo match.Repository) *ListMessagesHandler {
	return &ListMessagesHandler{
		chatRepo:  chatRepo,
		matchRepo: matchRepo,
	}
}

// Handle returns the chat history of a match.
func (h *ListMessagesHandler) Handle(ctx context.Context, query ListMessagesQuery) (*ListMessagesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "ListMessages", shared.ErrValidation, err.Error(), err)
	}

	m, err := h.matchRepo.GetByID(ctx, query.MatchID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, err
		}
		return nil, shared.WrapError("query", "ListMessages", shared.ErrServiceUnavailable, "failed to load match", err)
	}

	if query.ReaderID != "" {
		if !m.Involves(query.ReaderID) {
			return nil, shared.ErrNotParticipant
		}
		// Best effort: a failed read-marker must not break loading the chat.
		_, _ = h.chatRepo.MarkRead(ctx, query.MatchID, query.ReaderID)
	}

	messages, err := h.chatRepo.ListByMatch(ctx, query.MatchID, query.Limit)
	if err != nil {
		return nil, shared.WrapError("query", "ListMessages", shared.ErrServiceUnavailable, "failed to load messages", err)
	}

	dtos := make([]MessageDTO, 0, len(messages))
	for _, msg := range messages {
		dtos = append(dtos, MessageDTO{
			ID:          msg.ID,
			MatchID:     msg.MatchID,
			SenderID:    msg.SenderID,
			Content:     msg.Content,
			MessageType: string(msg.MessageType),
			IsRead:      msg.IsRead,
			CreatedAt:   msg.CreatedAt,
		})
	}

	return &ListMessagesResult{
		Messages: dtos,
		Total:    len(dtos),
	}, nil
}
