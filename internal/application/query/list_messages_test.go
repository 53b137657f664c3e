package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stridemate/stridemate-hub/internal/domain/chat"
	"github.com/stridemate/stridemate-hub/internal/domain/match"
	"github.com/stridemate/stridemate-hub/internal/domain/shared"
)

func TestListMessagesHandler_ReturnsConversation(t *testing.T) {
	m, _ := match.NewMatch("m1", "aaa", "bbb")
	chats := &fakeChatRepo{}
	first, _ := chat.NewMessage("msg1", "m1", "aaa", "Morning run?")
	second, _ := chat.NewMessage("msg2", "m1", "bbb", "Sure, 7am at the park")
	assert.NoError(t, chats.Insert(context.Background(), first))
	assert.NoError(t, chats.Insert(context.Background(), second))

	h := NewListMessagesHandler(chats, newFakeMatchRepo(m))

	result, err := h.Handle(context.Background(), ListMessagesQuery{MatchID: "m1"})
	assert.NoError(t, err)
	assert.Len(t, result.Messages, 2)
	assert.Equal(t, "msg1", result.Messages[0].ID)
	assert.Equal(t, "Morning run?", result.Messages[0].Content)
}

func TestListMessagesHandler_ReaderMarksRead(t *testing.T) {
	m, _ := match.NewMatch("m1", "aaa", "bbb")
	chats := &fakeChatRepo{}
	msg, _ := chat.NewMessage("msg1", "m1", "aaa", "hello")
	assert.NoError(t, chats.Insert(context.Background(), msg))

	h := NewListMessagesHandler(chats, newFakeMatchRepo(m))

	// bbb reading the conversation marks aaa's message read.
	result, err := h.Handle(context.Background(), ListMessagesQuery{MatchID: "m1", ReaderID: "bbb"})
	assert.NoError(t, err)
	assert.Len(t, result.Messages, 1)
	assert.True(t, result.Messages[0].IsRead)

	unread, _ := chats.CountUnread(context.Background(), "m1", "bbb")
	assert.Zero(t, unread)
}

func TestListMessagesHandler_OutsiderForbidden(t *testing.T) {
	m, _ := match.NewMatch("m1", "aaa", "bbb")
	h := NewListMessagesHandler(&fakeChatRepo{}, newFakeMatchRepo(m))

	_, err := h.Handle(context.Background(), ListMessagesQuery{MatchID: "m1", ReaderID: "ccc"})
	assert.True(t, errors.Is(err, shared.ErrNotParticipant))
}

func TestListMessagesHandler_UnknownMatch(t *testing.T) {
	h := NewListMessagesHandler(&fakeChatRepo{}, newFakeMatchRepo())

	_, err := h.Handle(context.Background(), ListMessagesQuery{MatchID: "nope"})
	assert.True(t, shared.IsNotFound(err))
}

func TestListMessagesQuery_Defaults(t *testing.T) {
	q := ListMessagesQuery{MatchID: "m1"}
	assert.NoError(t, q.Validate())
	assert.Equal(t, 100, q.Limit)

	q = ListMessagesQuery{MatchID: "m1", Limit: 9999}
	assert.NoError(t, q.Validate())
	assert.Equal(t, 500, q.Limit)
}
