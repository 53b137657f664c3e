package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stridemate/stridemate-hub/internal/domain/match"
	"github.com/stridemate/stridemate-hub/internal/domain/profile"
	"github.com/stridemate/stridemate-hub/internal/domain/shared"
)

func TestPotentialMatchesHandler_RanksByScore(t *testing.T) {
	self := runner("aaa",
		withPace(330),
		withDistance(profile.Distance10K),
		withLocation("Mission District, San Francisco"),
		withTimes(profile.TimeMorning),
	)
	twin := runner("bbb",
		withPace(335),
		withDistance(profile.Distance10K),
		withLocation("Mission District, San Francisco"),
		withTimes(profile.TimeMorning),
	)
	stranger := runner("ccc",
		withPace(600),
		withDistance(profile.DistanceMarathon),
		withLocation("Portland"),
		withTimes(profile.TimeEvening),
	)

	profiles := newFakeProfileRepo(self, twin, stranger)
	h := NewPotentialMatchesHandler(profiles, newFakeMatchRepo(), match.NewScorer("San Francisco"))

	result, err := h.Handle(context.Background(), PotentialMatchesQuery{UserID: "aaa"})
	assert.NoError(t, err)
	assert.Equal(t, 2, result.TotalCandidates)
	assert.Len(t, result.Matches, 2)
	assert.Equal(t, "bbb", result.Matches[0].CandidateID)
	assert.Equal(t, 100, result.Matches[0].TotalScore)
	assert.Greater(t, result.Matches[0].TotalScore, result.Matches[1].TotalScore)
}

func TestPotentialMatchesHandler_ExcludesOfflineRunners(t *testing.T) {
	self := runner("aaa")
	offline := runner("bbb")
	offline.MarkOffline()
	online := runner("ccc")

	profiles := newFakeProfileRepo(self, offline, online)
	h := NewPotentialMatchesHandler(profiles, newFakeMatchRepo(), match.NewScorer("San Francisco"))

	result, err := h.Handle(context.Background(), PotentialMatchesQuery{UserID: "aaa"})
	assert.NoError(t, err)
	assert.Len(t, result.Matches, 1)
	assert.Equal(t, "ccc", result.Matches[0].CandidateID)
}

func TestPotentialMatchesHandler_ExcludesExistingMatches(t *testing.T) {
	self := runner("aaa")
	matched := runner("bbb")
	unmatchedPartner := runner("ccc")
	fresh := runner("ddd")

	active, _ := match.NewMatch("m1", "aaa", "bbb")
	ended, _ := match.NewMatch("m2", "aaa", "ccc")
	assert.NoError(t, ended.Unmatch())

	profiles := newFakeProfileRepo(self, matched, unmatchedPartner, fresh)
	h := NewPotentialMatchesHandler(profiles, newFakeMatchRepo(active, ended), match.NewScorer("San Francisco"))

	// Matches of any status keep the pair out of the feed.
	result, err := h.Handle(context.Background(), PotentialMatchesQuery{UserID: "aaa"})
	assert.NoError(t, err)
	assert.Len(t, result.Matches, 1)
	assert.Equal(t, "ddd", result.Matches[0].CandidateID)
}

func TestPotentialMatchesHandler_LimitApplied(t *testing.T) {
	self := runner("self")
	repo := newFakeProfileRepo(self)
	for _, id := range []string{"b1", "b2", "b3", "b4", "b5"} {
		_, err := repo.Upsert(context.Background(), runner(id))
		assert.NoError(t, err)
	}
	h := NewPotentialMatchesHandler(repo, newFakeMatchRepo(), match.NewScorer("San Francisco"))

	result, err := h.Handle(context.Background(), PotentialMatchesQuery{UserID: "self", Limit: 3})
	assert.NoError(t, err)
	assert.Len(t, result.Matches, 3)
	assert.Equal(t, 5, result.TotalCandidates)
}

func TestPotentialMatchesHandler_DefaultLimit(t *testing.T) {
	q := PotentialMatchesQuery{UserID: "aaa"}
	assert.NoError(t, q.Validate())
	assert.Equal(t, 10, q.Limit)

	q = PotentialMatchesQuery{UserID: "aaa", Limit: 500}
	assert.NoError(t, q.Validate())
	assert.Equal(t, 50, q.Limit)
}

func TestPotentialMatchesHandler_UnknownUser(t *testing.T) {
	h := NewPotentialMatchesHandler(newFakeProfileRepo(), newFakeMatchRepo(), match.NewScorer("San Francisco"))

	_, err := h.Handle(context.Background(), PotentialMatchesQuery{UserID: "ghost"})
	assert.True(t, shared.IsNotFound(err))
}

func TestPotentialMatchesHandler_MissingUserID(t *testing.T) {
	h := NewPotentialMatchesHandler(newFakeProfileRepo(), newFakeMatchRepo(), match.NewScorer("San Francisco"))

	_, err := h.Handle(context.Background(), PotentialMatchesQuery{})
	assert.True(t, shared.IsValidation(err))
}
