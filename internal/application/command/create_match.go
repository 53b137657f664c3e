// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/stridemate/stridemate-hub/internal/domain/chat"
	"github.com/stridemate/stridemate-hub/internal/domain/match"
	"github.com/stridemate/stridemate-hub/internal/domain/profile"
	"github.com/stridemate/stridemate-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE MATCH COMMAND
// Creates a match between two runners. The guard against duplicates is
// enforced in two layers: a pre-check against the active pair, and the
// partial unique index in Postgres that decides insert races. Whichever
// request loses the race gets the winner's row back in the duplicate
// error, so both clients end up seeing the same match.
// ══════════════════════════════════════════════════════════════════════════════

// CreateMatchCommand contains the parameters for creating a match.
type CreateMatchCommand struct {
	// User1ID - the runner initiating the match.
	User1ID string

	// User2ID - the runner being matched with.
	User2ID string
}

// Validate checks the parameters.
func (c *CreateMatchCommand) Validate() error {
	if c.User1ID == "" || c.User2ID == "" {
		return errors.New("both user ids are required")
	}
	if c.User1ID == c.User2ID {
		return match.ErrSamePair
	}
	return nil
}

// CreateMatchResult contains the outcome of a match creation.
type CreateMatchResult struct {
	// Match - the created match.
	Match *match.Match `json:"match"`
}

// CreateMatchHandler handles match creation.
type CreateMatchHandler struct {
	matchRepo   match.Repository
	profileRepo profile.Repository
	chatRepo    chat.Repository
	publisher   shared.EventPublisher
}

// NewCreateMatchHandler creates a new handler.
func NewCreateMatchHandler(
	matchRepo match.Repository,
	profileRepo profile.Repository,
	chatRepo chat.Repository,
	publisher shared.EventPublisher,
) *CreateMatchHandler {
	return &CreateMatchHandler{
		matchRepo:   matchRepo,
		profileRepo: profileRepo,
		chatRepo:    chatRepo,
		publisher:   publisher,
	}
}

// Handle creates a match between two runners.
//
// Returns *match.DuplicateError when an active match for the pair already
// exists, carrying the existing match for the API's conflict response.
func (h *CreateMatchHandler) Handle(ctx context.Context, cmd CreateMatchCommand) (*CreateMatchResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "CreateMatch", shared.ErrValidation, err.Error(), err)
	}

	// Both runners must exist.
	if _, err := h.profileRepo.GetByID(ctx, cmd.User1ID); err != nil {
		return nil, err
	}
	if _, err := h.profileRepo.GetByID(ctx, cmd.User2ID); err != nil {
		return nil, err
	}

	// Fast path: the pair may already have an active match.
	low, high := match.NormalizePair(cmd.User1ID, cmd.User2ID)
	if existing, err := h.matchRepo.FindActiveByPair(ctx, low, high); err == nil {
		return nil, &match.DuplicateError{Existing: existing}
	} else if !shared.IsNotFound(err) {
		return nil, shared.WrapError("command", "CreateMatch", shared.ErrServiceUnavailable, "failed to check existing match", err)
	}

	m, err := match.NewMatch(uuid.NewString(), cmd.User1ID, cmd.User2ID)
	if err != nil {
		return nil, shared.WrapError("command", "CreateMatch", shared.ErrValidation, err.Error(), err)
	}

	// The insert is the real guard. Two concurrent requests can both pass
	// the pre-check; the index lets exactly one row in and the repository
	// converts the violation into a DuplicateError with the winner's row.
	if err := h.matchRepo.Insert(ctx, m); err != nil {
		var dup *match.DuplicateError
		if errors.As(err, &dup) {
			return nil, dup
		}
		return nil, shared.WrapError("command", "CreateMatch", shared.ErrServiceUnavailable, "failed to insert match", err)
	}

	// Seed the chat so neither runner opens an empty screen.
	if sys, sysErr := chat.NewSystemMessage(uuid.NewString(), m.ID, "You matched! Say hi and plan your first run."); sysErr == nil {
		_ = h.chatRepo.Insert(ctx, sys)
	}

	if h.publisher != nil {
		event := shared.NewMatchCreatedEvent(m.ID, cmd.User1ID, cmd.User2ID, m.MatchedAt)
		_ = h.publisher.Publish(event)
	}

	return &CreateMatchResult{Match: m}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UNMATCH COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// UnmatchCommand ends an active match.
type UnmatchCommand struct {
	// MatchID - the match to end.
	MatchID string

	// RequesterID - the runner ending the match. Must be a participant.
	RequesterID string

	// Block - when true the match is blocked instead of unmatched.
	Block bool
}

// Validate checks the parameters.
func (c *UnmatchCommand) Validate() error {
	if c.MatchID == "" {
		return errors.New("match_id is required")
	}
	if c.RequesterID == "" {
		return errors.New("requester_id is required")
	}
	return nil
}

// UnmatchHandler handles ending matches.
type UnmatchHandler struct {
	matchRepo match.Repository
}

// NewUnmatchHandler creates a new handler.
func NewUnmatchHandler(matchRepo match.Repository) *UnmatchHandler {
	return &UnmatchHandler{matchRepo: matchRepo}
}

// Handle ends a match. The pair stays excluded from future candidate
// feeds: only active matches block re-creation, but any match row keeps
// the pair out of the ranker.
func (h *UnmatchHandler) Handle(ctx context.Context, cmd UnmatchCommand) error {
	if err := cmd.Validate(); err != nil {
		return shared.WrapError("command", "Unmatch", shared.ErrValidation, err.Error(), err)
	}

	m, err := h.matchRepo.GetByID(ctx, cmd.MatchID)
	if err != nil {
		return err
	}

	if !m.Involves(cmd.RequesterID) {
		return shared.ErrNotParticipant
	}

	if cmd.Block {
		err = m.Block()
	} else {
		err = m.Unmatch()
	}
	if err != nil {
		return shared.WrapError("command", "Unmatch", shared.ErrStateTransition, err.Error(), err)
	}

	if err := h.matchRepo.UpdateStatus(ctx, m.ID, m.Status); err != nil {
		return shared.WrapError("command", "Unmatch", shared.ErrServiceUnavailable, "failed to update match status", err)
	}

	return nil
}
