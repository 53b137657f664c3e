package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePair(t *testing.T) {
	low, high := NormalizePair("bbb", "aaa")
	assert.Equal(t, "aaa", low)
	assert.Equal(t, "bbb", high)

	low, high = NormalizePair("aaa", "bbb")
	assert.Equal(t, "aaa", low)
	assert.Equal(t, "bbb", high)
}

func TestNewMatch_NormalizesPair(t *testing.T) {
	m1, err := NewMatch("id-1", "runner-b", "runner-a")
	assert.NoError(t, err)

	m2, err := NewMatch("id-2", "runner-a", "runner-b")
	assert.NoError(t, err)

	assert.Equal(t, m1.UserLow, m2.UserLow)
	assert.Equal(t, m1.UserHigh, m2.UserHigh)
	assert.Equal(t, StatusActive, m1.Status)
}

func TestNewMatch_Validation(t *testing.T) {
	_, err := NewMatch("", "a", "b")
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = NewMatch("id", "", "b")
	assert.ErrorIs(t, err, ErrMissingUser)

	_, err = NewMatch("id", "a", "a")
	assert.ErrorIs(t, err, ErrSamePair)
}

func TestMatch_InvolvesAndOtherUser(t *testing.T) {
	m, err := NewMatch("id", "runner-a", "runner-b")
	assert.NoError(t, err)

	assert.True(t, m.Involves("runner-a"))
	assert.True(t, m.Involves("runner-b"))
	assert.False(t, m.Involves("runner-c"))

	assert.Equal(t, "runner-b", m.OtherUser("runner-a"))
	assert.Equal(t, "runner-a", m.OtherUser("runner-b"))
}

func TestMatch_StatusTransitions(t *testing.T) {
	m, err := NewMatch("id", "runner-a", "runner-b")
	assert.NoError(t, err)

	assert.NoError(t, m.Unmatch())
	assert.Equal(t, StatusUnmatched, m.Status)

	// Terminal states reject further transitions.
	assert.ErrorIs(t, m.Block(), ErrAlreadyFinal)
	assert.ErrorIs(t, m.Unmatch(), ErrAlreadyFinal)
}

func TestMatch_Block(t *testing.T) {
	m, err := NewMatch("id", "runner-a", "runner-b")
	assert.NoError(t, err)

	assert.NoError(t, m.Block())
	assert.Equal(t, StatusBlocked, m.Status)
}

func TestDuplicateError_CarriesExisting(t *testing.T) {
	m, err := NewMatch("existing-id", "runner-a", "runner-b")
	assert.NoError(t, err)

	dup := &DuplicateError{Existing: m}
	assert.Contains(t, dup.Error(), "existing-id")
}
