package query

import (
	"context"
	"errors"
	"time"

	"github.com/stridemate/stridemate-hub/internal/domain/match"
	"github.com/stridemate/stridemate-hub/internal/domain/profile"
	"github.com/stridemate/stridemate-hub/internal/domain/shared"
	"github.com/stridemate/stridemate-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECENT MATCHES QUERY
// Returns the runner's active matches from the trailing window, newest
// first, enriched with partner profiles. Powers the "new matches" strip at
// the top of the chat list.
// ══════════════════════════════════════════════════════════════════════════════

// RecentMatchesQuery contains the parameters for the recent matches feed.
type RecentMatchesQuery struct {
	// UserID - the runner whose matches to list.
	UserID string

	// Window - trailing time window (default 24h).
	Window time.Duration

	// Limit - maximum number of matches to return (default 20).
	Limit int
}

// Validate checks the parameters and applies defaults.
func (q *RecentMatchesQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user_id is required")
	}
	if q.Window <= 0 {
		q.Window = 24 * time.Hour
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// RecentMatchDTO is one recent match with its partner's profile.
type RecentMatchDTO struct {
	// MatchID - the match identifier.
	MatchID string `json:"matchId"`

	// PartnerID - the other runner.
	PartnerID string `json:"partnerId"`

	// PartnerName - the other runner's display name.
	PartnerName string `json:"partnerName"`

	// PartnerOnline - whether the partner is currently online.
	PartnerOnline bool `json:"partnerOnline"`

	// MatchedAt - when the match was created.
	MatchedAt time.Time `json:"matchedAt"`

	// MatchedAgo - relative time, e.g. "5 min ago".
	MatchedAgo string `json:"matchedAgo"`
}

// RecentMatchesResult contains the recent matches feed.
type RecentMatchesResult struct {
	// Matches - recent matches, newest first.
	Matches []RecentMatchDTO `json:"matches"`

	// GeneratedAt - when the feed was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// RecentMatchesHandler handles recent matches requests.
type RecentMatchesHandler struct {
	matchRepo   match.Repository
	profileRepo profile.Repository
}

// NewRecentMatchesHandler creates a new handler.
func NewRecentMatchesHandler(matchRepo match.Repository, profileRepo profile.Repository) *RecentMatchesHandler {
	return &RecentMatchesHandler{
		matchRepo:   matchRepo,
		profileRepo: profileRepo,
	}
}

// Handle returns the runner's matches from the trailing window.
func (h *RecentMatchesHandler) Handle(ctx context.Context, query RecentMatchesQuery) (*RecentMatchesResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "RecentMatches", shared.ErrValidation, err.Error(), err)
	}

	since := time.Now().UTC().Add(-query.Window)
	matches, err := h.matchRepo.ListRecentForUser(ctx, query.UserID, since, query.Limit)
	if err != nil {
		return nil, shared.WrapError("query", "RecentMatches", shared.ErrServiceUnavailable, "failed to load recent matches", err)
	}

	partnerIDs := make([]string, 0, len(matches))
	for _, m := range matches {
		partnerIDs = append(partnerIDs, m.OtherUser(query.UserID))
	}

	partners, err := h.profileRepo.GetByIDs(ctx, partnerIDs)
	if err != nil {
		return nil, shared.WrapError("query", "RecentMatches", shared.ErrServiceUnavailable, "failed to load partner profiles", err)
	}

	byID := make(map[string]*profile.Profile, len(partners))
	for _, p := range partners {
		byID[p.ID] = p
	}

	dtos := make([]RecentMatchDTO, 0, len(matches))
	for _, m := range matches {
		partnerID := m.OtherUser(query.UserID)
		dto := RecentMatchDTO{
			MatchID:    m.ID,
			PartnerID:  partnerID,
			MatchedAt:  m.MatchedAt,
			MatchedAgo: timeutil.FormatRelative(m.MatchedAt),
		}
		if p, ok := byID[partnerID]; ok {
			dto.PartnerName = p.FullName()
			dto.PartnerOnline = p.IsOnline
		}
		dtos = append(dtos, dto)
	}

	return &RecentMatchesResult{
		Matches:     dtos,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
