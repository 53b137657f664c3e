package command

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/stridemate/stridemate-hub/internal/domain/chat"
	"github.com/stridemate/stridemate-hub/internal/domain/match"
	"github.com/stridemate/stridemate-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEND MESSAGE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// SendMessageCommand contains the parameters for sending a chat message.
type SendMessageCommand struct {
	// MatchID - the conversation the message belongs to.
	MatchID string

	// SenderID - the runner sending the message. Must be a participant.
	SenderID string

	// Content - the message text. Trimmed and length-checked by the
	// chat entity.
	Content string
}

// Validate checks the parameters.
func (c *SendMessageCommand) Validate() error {
	if c.MatchID == "" {
		return errors.New("match_id is required")
	}
	if c.SenderID == "" {
		return errors.New("sender_id is required")
	}
	return nil
}

// SendMessageResult contains the stored message.
type SendMessageResult struct {
	// Message - the persisted message, with server-assigned id and time.
	Message *chat.Message `json:"message"`
}

// SendMessageHandler handles sending chat messages.
type SendMessageHandler struct {
	chatRepo  chat.Repository
	matchRepo match.Repository
	publisher shared.EventPublisher
}

// NewSendMessageHandler creates a new handler.
func NewSendMessageHandler(
	chatRepo chat.Repository,
	matchRepo match.Repository,
	publisher shared.EventPublisher,
) *SendMessageHandler {
	return &SendMessageHandler{
		chatRepo:  chatRepo,
		matchRepo: matchRepo,
		publisher: publisher,
	}
}

// Handle stores a message in an active match's conversation.
//
// Messages to unmatched or blocked matches are rejected with
// shared.ErrMatchNotActive; the rows stay readable for history but the
// conversation is closed for writing.
func (h *SendMessageHandler) Handle(ctx context.Context, cmd SendMessageCommand) (*SendMessageResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "SendMessage", shared.ErrValidation, err.Error(), err)
	}

	m, err := h.matchRepo.GetByID(ctx, cmd.MatchID)
	if err != nil {
		return nil, err
	}

	if !m.Involves(cmd.SenderID) {
		return nil, shared.ErrNotParticipant
	}
	if !m.Status.IsActive() {
		return nil, shared.ErrMatchNotActive
	}

	msg, err := chat.NewMessage(uuid.NewString(), cmd.MatchID, cmd.SenderID, cmd.Content)
	if err != nil {
		return nil, shared.WrapError("command", "SendMessage", shared.ErrValidation, err.Error(), err)
	}

	if err := h.chatRepo.Insert(ctx, msg); err != nil {
		return nil, shared.WrapError("command", "SendMessage", shared.ErrServiceUnavailable, "failed to insert message", err)
	}

	if h.publisher != nil {
		event := shared.NewMessageSentEvent(msg.ID, msg.MatchID, msg.SenderID, msg.Content, string(msg.MessageType))
		_ = h.publisher.Publish(event)
	}

	return &SendMessageResult{Message: msg}, nil
}
