package command

import (
	"context"
	"errors"

	"github.com/stridemate/stridemate-hub/internal/domain/profile"
	"github.com/stridemate/stridemate-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SYNC PROFILE COMMAND
// Upserts a runner profile from the auth provider's webhook. The webhook
// is the source of truth for profile data; this handler just validates,
// persists, and drops the stale cache entry.
// ══════════════════════════════════════════════════════════════════════════════

// SyncProfileCommand contains the profile fields to sync.
type SyncProfileCommand struct {
	// RunnerID - the runner's id (mirrors the auth user id).
	RunnerID string

	// FirstName - runner's first name. Required.
	FirstName string

	// LastName - runner's last name.
	LastName string

	// Bio - free-form self description.
	Bio string

	// PreferredPaceSeconds - pace in seconds per kilometer, nil when unset.
	PreferredPaceSeconds *int

	// PreferredDistance - target race distance, empty when unset.
	PreferredDistance string

	// Location - free-form location string.
	Location string

	// PreferredRunningTimes - when the runner likes to train.
	PreferredRunningTimes []string
}

// Validate checks the parameters.
func (c *SyncProfileCommand) Validate() error {
	if c.RunnerID == "" {
		return errors.New("runner_id is required")
	}
	if c.FirstName == "" {
		return errors.New("first_name is required")
	}
	return nil
}

// SyncProfileResult reports whether the sync created or updated the profile.
type SyncProfileResult struct {
	// Profile - the stored profile.
	Profile *profile.Profile `json:"profile"`

	// Created - true when the profile did not exist before.
	Created bool `json:"created"`
}

// SyncProfileHandler handles profile synchronization.
type SyncProfileHandler struct {
	profileRepo profile.Repository
	cache       profile.Cache
	publisher   shared.EventPublisher
}

// NewSyncProfileHandler creates a new handler. Cache may be nil.
func NewSyncProfileHandler(
	profileRepo profile.Repository,
	cache profile.Cache,
	publisher shared.EventPublisher,
) *SyncProfileHandler {
	return &SyncProfileHandler{
		profileRepo: profileRepo,
		cache:       cache,
		publisher:   publisher,
	}
}

// Handle validates and upserts a runner profile.
func (h *SyncProfileHandler) Handle(ctx context.Context, cmd SyncProfileCommand) (*SyncProfileResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "SyncProfile", shared.ErrValidation, err.Error(), err)
	}

	times := make([]profile.RunningTime, 0, len(cmd.PreferredRunningTimes))
	for _, t := range cmd.PreferredRunningTimes {
		times = append(times, profile.RunningTime(t))
	}

	p, err := profile.NewProfile(profile.NewProfileParams{
		ID:                    cmd.RunnerID,
		FirstName:             cmd.FirstName,
		LastName:              cmd.LastName,
		Bio:                   cmd.Bio,
		PreferredPaceSeconds:  cmd.PreferredPaceSeconds,
		PreferredDistance:     profile.Distance(cmd.PreferredDistance),
		Location:              cmd.Location,
		PreferredRunningTimes: times,
	})
	if err != nil {
		return nil, shared.WrapError("command", "SyncProfile", shared.ErrValidation, err.Error(), err)
	}

	created, err := h.profileRepo.Upsert(ctx, p)
	if err != nil {
		return nil, shared.WrapError("command", "SyncProfile", shared.ErrServiceUnavailable, "failed to upsert profile", err)
	}

	// Drop the cached copy so the next read sees the synced fields.
	if h.cache != nil {
		_ = h.cache.Invalidate(ctx, p.ID)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewProfileSyncedEvent(p.ID, created))
	}

	return &SyncProfileResult{Profile: p, Created: created}, nil
}
