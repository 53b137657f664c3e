package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stridemate/stridemate-hub/internal/domain/match"
	"github.com/stridemate/stridemate-hub/internal/domain/shared"
)

func TestCreateMatchHandler_CreatesMatch(t *testing.T) {
	profiles := newFakeProfileRepo(onlineRunner("aaa", "Alice"), onlineRunner("bbb", "Bob"))
	matches := newFakeMatchRepo()
	chats := &fakeChatRepo{}
	pub := &fakePublisher{}
	h := NewCreateMatchHandler(matches, profiles, chats, pub)

	result, err := h.Handle(context.Background(), CreateMatchCommand{User1ID: "bbb", User2ID: "aaa"})

	assert.NoError(t, err)
	assert.NotEmpty(t, result.Match.ID)
	assert.Equal(t, "aaa", result.Match.UserLow)
	assert.Equal(t, "bbb", result.Match.UserHigh)
	assert.Equal(t, match.StatusActive, result.Match.Status)

	// A welcome message seeds the conversation.
	msgs, _ := chats.ListByMatch(context.Background(), result.Match.ID, 0)
	assert.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsSystem())

	// Both sides get notified through one event.
	assert.Len(t, pub.events, 1)
	assert.Equal(t, shared.EventMatchCreated, pub.events[0].EventType())
}

func TestCreateMatchHandler_DuplicateReturnsExisting(t *testing.T) {
	profiles := newFakeProfileRepo(onlineRunner("aaa", "Alice"), onlineRunner("bbb", "Bob"))
	matches := newFakeMatchRepo()
	h := NewCreateMatchHandler(matches, profiles, &fakeChatRepo{}, &fakePublisher{})

	first, err := h.Handle(context.Background(), CreateMatchCommand{User1ID: "aaa", User2ID: "bbb"})
	assert.NoError(t, err)

	// Same pair in either order hits the guard.
	_, err = h.Handle(context.Background(), CreateMatchCommand{User1ID: "bbb", User2ID: "aaa"})
	var dup *match.DuplicateError
	assert.ErrorAs(t, err, &dup)
	assert.Equal(t, first.Match.ID, dup.Existing.ID)
}

func TestCreateMatchHandler_UnmatchedPairCanRematch(t *testing.T) {
	profiles := newFakeProfileRepo(onlineRunner("aaa", "Alice"), onlineRunner("bbb", "Bob"))
	matches := newFakeMatchRepo()
	h := NewCreateMatchHandler(matches, profiles, &fakeChatRepo{}, &fakePublisher{})

	first, err := h.Handle(context.Background(), CreateMatchCommand{User1ID: "aaa", User2ID: "bbb"})
	assert.NoError(t, err)
	assert.NoError(t, first.Match.Unmatch())

	// Only active matches block re-creation.
	second, err := h.Handle(context.Background(), CreateMatchCommand{User1ID: "aaa", User2ID: "bbb"})
	assert.NoError(t, err)
	assert.NotEqual(t, first.Match.ID, second.Match.ID)
}

func TestCreateMatchHandler_Validation(t *testing.T) {
	h := NewCreateMatchHandler(newFakeMatchRepo(), newFakeProfileRepo(), &fakeChatRepo{}, &fakePublisher{})

	_, err := h.Handle(context.Background(), CreateMatchCommand{User1ID: "", User2ID: "bbb"})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(context.Background(), CreateMatchCommand{User1ID: "aaa", User2ID: "aaa"})
	assert.True(t, shared.IsValidation(err))
}

func TestCreateMatchHandler_UnknownRunner(t *testing.T) {
	profiles := newFakeProfileRepo(onlineRunner("aaa", "Alice"))
	h := NewCreateMatchHandler(newFakeMatchRepo(), profiles, &fakeChatRepo{}, &fakePublisher{})

	_, err := h.Handle(context.Background(), CreateMatchCommand{User1ID: "aaa", User2ID: "ghost"})
	assert.True(t, shared.IsNotFound(err))
}

func TestUnmatchHandler(t *testing.T) {
	m, _ := match.NewMatch("m1", "aaa", "bbb")
	matches := newFakeMatchRepo(m)
	h := NewUnmatchHandler(matches)

	err := h.Handle(context.Background(), UnmatchCommand{MatchID: "m1", RequesterID: "aaa"})
	assert.NoError(t, err)

	stored, _ := matches.GetByID(context.Background(), "m1")
	assert.Equal(t, match.StatusUnmatched, stored.Status)
}

func TestUnmatchHandler_Block(t *testing.T) {
	m, _ := match.NewMatch("m1", "aaa", "bbb")
	matches := newFakeMatchRepo(m)
	h := NewUnmatchHandler(matches)

	err := h.Handle(context.Background(), UnmatchCommand{MatchID: "m1", RequesterID: "bbb", Block: true})
	assert.NoError(t, err)

	stored, _ := matches.GetByID(context.Background(), "m1")
	assert.Equal(t, match.StatusBlocked, stored.Status)
}

func TestUnmatchHandler_OutsiderForbidden(t *testing.T) {
	m, _ := match.NewMatch("m1", "aaa", "bbb")
	h := NewUnmatchHandler(newFakeMatchRepo(m))

	err := h.Handle(context.Background(), UnmatchCommand{MatchID: "m1", RequesterID: "ccc"})
	assert.True(t, errors.Is(err, shared.ErrNotParticipant))
}
