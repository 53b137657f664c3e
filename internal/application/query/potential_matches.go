// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"time"

	"github.com/stridemate/stridemate-hub/internal/domain/match"
	"github.com/stridemate/stridemate-hub/internal/domain/profile"
	"github.com/stridemate/stridemate-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// POTENTIAL MATCHES QUERY
// Ranks online runners against the requester by compatibility.
// This is the KEY query of the project: the candidate feed the client
// renders as swipeable match cards.
// ══════════════════════════════════════════════════════════════════════════════

// PotentialMatchesQuery contains the parameters for the candidate feed.
type PotentialMatchesQuery struct {
	// UserID - the runner requesting matches.
	UserID string

	// Limit - maximum number of candidates to return (default 10, cap 50).
	Limit int
}

// Validate checks the parameters and applies defaults.
func (q *PotentialMatchesQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user_id is required")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 50 {
		q.Limit = 50
	}
	return nil
}

// PotentialMatchesResult contains the ranked candidate feed.
type PotentialMatchesResult struct {
	// Matches - scored candidates, best first.
	Matches []match.MatchScore `json:"matches"`

	// TotalCandidates - how many online candidates were scored before the
	// limit was applied.
	TotalCandidates int `json:"total_candidates"`

	// GeneratedAt - when the feed was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// PotentialMatchesHandler handles candidate feed requests.
type PotentialMatchesHandler struct {
	profileRepo profile.Repository
	matchRepo   match.Repository
	scorer      *match.Scorer
}

// NewPotentialMatchesHandler creates a new handler.
func NewPotentialMatchesHandler(
	profileRepo profile.Repository,
	matchRepo match.Repository,
	scorer *match.Scorer,
) *PotentialMatchesHandler {
	return &PotentialMatchesHandler{
		profileRepo: profileRepo,
		matchRepo:   matchRepo,
		scorer:      scorer,
	}
}

// Handle computes the candidate feed.
//
// Candidates are online runners the requester has never matched with.
// Matches of any status count as "already matched": an unmatched or blocked
// pair never resurfaces in the feed. Results are sorted by score descending
// with a stable sort, so ties keep the repository's id-ascending order.
func (h *PotentialMatchesHandler) Handle(ctx context.Context, query PotentialMatchesQuery) (*PotentialMatchesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "PotentialMatches", shared.ErrValidation, err.Error(), err)
	}

	self, err := h.profileRepo.GetByID(ctx, query.UserID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, err
		}
		return nil, shared.WrapError("query", "PotentialMatches", shared.ErrServiceUnavailable, "failed to load requester profile", err)
	}

	excluded, err := h.exclusionSet(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	candidates, err := h.profileRepo.ListOnlineExcept(ctx, query.UserID)
	if err != nil {
		return nil, shared.WrapError("query", "PotentialMatches", shared.ErrServiceUnavailable, "failed to load candidates", err)
	}

	scores := make(match.MatchScoreList, 0, len(candidates))
	for _, candidate := range candidates {
		if _, seen := excluded[candidate.ID]; seen {
			continue
		}
		scores = append(scores, h.scorer.Score(self, candidate))
	}

	total := len(scores)
	scores.Sort()
	scores = scores.TopN(query.Limit)

	return &PotentialMatchesResult{
		Matches:         scores,
		TotalCandidates: total,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

// exclusionSet collects every runner the requester already has a match
// with, regardless of status.
func (h *PotentialMatchesHandler) exclusionSet(ctx context.Context, userID string) (map[string]struct{}, error) {
	existing, err := h.matchRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, shared.WrapError("query", "PotentialMatches", shared.ErrServiceUnavailable, "failed to load existing matches", err)
	}

	excluded := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		excluded[m.OtherUser(userID)] = struct{}{}
	}
	return excluded, nil
}
