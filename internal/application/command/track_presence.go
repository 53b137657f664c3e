package command

import (
	"context"
	"errors"
	"time"

	"github.com/stridemate/stridemate-hub/internal/domain/profile"
	"github.com/stridemate/stridemate-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRACK PRESENCE COMMAND
// Presence lives in two places: the Redis TTL tracker answers "who is
// online right now" for the candidate feed, and the is_online column in
// Postgres keeps the flag queryable alongside profile data. Heartbeats
// write both; the sweep job reconciles runners whose TTL lapsed without
// an explicit goodbye.
// ══════════════════════════════════════════════════════════════════════════════

// TrackPresenceCommand records a runner's presence change.
type TrackPresenceCommand struct {
	// RunnerID - the runner whose presence changed.
	RunnerID string

	// Online - true for a heartbeat, false for an explicit sign-off.
	Online bool
}

// Validate checks the parameters.
func (c *TrackPresenceCommand) Validate() error {
	if c.RunnerID == "" {
		return errors.New("runner_id is required")
	}
	return nil
}

// TrackPresenceHandler handles presence heartbeats and sign-offs.
type TrackPresenceHandler struct {
	tracker     profile.PresenceTracker
	profileRepo profile.Repository
	publisher   shared.EventPublisher
}

// NewTrackPresenceHandler creates a new handler.
func NewTrackPresenceHandler(
	tracker profile.PresenceTracker,
	profileRepo profile.Repository,
	publisher shared.EventPublisher,
) *TrackPresenceHandler {
	return &TrackPresenceHandler{
		tracker:     tracker,
		profileRepo: profileRepo,
		publisher:   publisher,
	}
}

// Handle applies a presence change.
//
// An online->online heartbeat only refreshes the TTL; events fire just
// on actual transitions so subscribers don't drown in refreshes.
func (h *TrackPresenceHandler) Handle(ctx context.Context, cmd TrackPresenceCommand) error {
	if err := cmd.Validate(); err != nil {
		return shared.WrapError("command", "TrackPresence", shared.ErrValidation, err.Error(), err)
	}

	wasOnline, err := h.tracker.IsOnline(ctx, cmd.RunnerID)
	if err != nil {
		// A tracker hiccup should not drop the heartbeat; treat the
		// previous state as unknown and fire the event.
		wasOnline = !cmd.Online
	}

	now := time.Now().UTC()

	if cmd.Online {
		if err := h.tracker.Heartbeat(ctx, cmd.RunnerID); err != nil {
			return shared.WrapError("command", "TrackPresence", shared.ErrServiceUnavailable, "failed to record heartbeat", err)
		}
	} else {
		if err := h.tracker.MarkOffline(ctx, cmd.RunnerID); err != nil {
			return shared.WrapError("command", "TrackPresence", shared.ErrServiceUnavailable, "failed to mark offline", err)
		}
	}

	if err := h.profileRepo.SetOnline(ctx, cmd.RunnerID, cmd.Online, now); err != nil {
		return shared.WrapError("command", "TrackPresence", shared.ErrServiceUnavailable, "failed to update online flag", err)
	}

	if h.publisher != nil && wasOnline != cmd.Online {
		if cmd.Online {
			_ = h.publisher.Publish(shared.NewRunnerWentOnlineEvent(cmd.RunnerID))
		} else {
			_ = h.publisher.Publish(shared.NewRunnerWentOfflineEvent(cmd.RunnerID, now))
		}
	}

	return nil
}
