package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stridemate/stridemate-hub/internal/domain/match"
)

func TestRecentMatchesHandler_ReturnsPartners(t *testing.T) {
	self := runner("aaa")
	partner := runner("bbb")
	partner.FirstName = "Bob"
	partner.LastName = "Lee"

	m, _ := match.NewMatch("m1", "aaa", "bbb")
	h := NewRecentMatchesHandler(newFakeMatchRepo(m), newFakeProfileRepo(self, partner))

	result, err := h.Handle(context.Background(), RecentMatchesQuery{UserID: "aaa"})
	assert.NoError(t, err)
	assert.Len(t, result.Matches, 1)
	assert.Equal(t, "m1", result.Matches[0].MatchID)
	assert.Equal(t, "bbb", result.Matches[0].PartnerID)
	assert.Equal(t, "Bob Lee", result.Matches[0].PartnerName)
	assert.True(t, result.Matches[0].PartnerOnline)
	assert.NotEmpty(t, result.Matches[0].MatchedAgo)
}

func TestRecentMatchesHandler_WindowExcludesOldMatches(t *testing.T) {
	self := runner("aaa")
	partner := runner("bbb")

	old, _ := match.NewMatch("m1", "aaa", "bbb")
	old.MatchedAt = time.Now().UTC().Add(-48 * time.Hour)

	h := NewRecentMatchesHandler(newFakeMatchRepo(old), newFakeProfileRepo(self, partner))

	result, err := h.Handle(context.Background(), RecentMatchesQuery{UserID: "aaa"})
	assert.NoError(t, err)
	assert.Empty(t, result.Matches)

	// A wider window brings it back.
	result, err = h.Handle(context.Background(), RecentMatchesQuery{UserID: "aaa", Window: 72 * time.Hour})
	assert.NoError(t, err)
	assert.Len(t, result.Matches, 1)
}

func TestRecentMatchesHandler_NewestFirst(t *testing.T) {
	self := runner("aaa")
	p1 := runner("bbb")
	p2 := runner("ccc")

	older, _ := match.NewMatch("m1", "aaa", "bbb")
	older.MatchedAt = time.Now().UTC().Add(-2 * time.Hour)
	newer, _ := match.NewMatch("m2", "aaa", "ccc")

	h := NewRecentMatchesHandler(newFakeMatchRepo(older, newer), newFakeProfileRepo(self, p1, p2))

	result, err := h.Handle(context.Background(), RecentMatchesQuery{UserID: "aaa"})
	assert.NoError(t, err)
	assert.Len(t, result.Matches, 2)
	assert.Equal(t, "m2", result.Matches[0].MatchID)
	assert.Equal(t, "m1", result.Matches[1].MatchID)
}

func TestRecentMatchesQuery_Defaults(t *testing.T) {
	q := RecentMatchesQuery{UserID: "aaa"}
	assert.NoError(t, q.Validate())
	assert.Equal(t, 24*time.Hour, q.Window)
	assert.Equal(t, 20, q.Limit)
}
