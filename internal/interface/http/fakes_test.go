package http

import (
	"context"
	"sort"
	"time"

	"github.com/stridemate/stridemate-hub/internal/domain/chat"
	"github.com/stridemate/stridemate-hub/internal/domain/match"
	"github.com/stridemate/stridemate-hub/internal/domain/profile"
	"github.com/stridemate/stridemate-hub/internal/domain/shared"
)

// In-memory repositories for handler tests.

type fakeProfileRepo struct {
	profiles map[string]*profile.Profile
}

func newFakeProfileRepo(profiles ...*profile.Profile) *fakeProfileRepo {
	r := &fakeProfileRepo{profiles: make(map[string]*profile.Profile)}
	for _, p := range profiles {
		r.profiles[p.ID] = p
	}
	return r
}

func (r *fakeProfileRepo) GetByID(_ context.Context, id string) (*profile.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return p, nil
}

func (r *fakeProfileRepo) GetByIDs(_ context.Context, ids []string) ([]*profile.Profile, error) {
	out := make([]*profile.Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProfileRepo) Upsert(_ context.Context, p *profile.Profile) (bool, error) {
	_, existed := r.profiles[p.ID]
	r.profiles[p.ID] = p
	return !existed, nil
}

func (r *fakeProfileRepo) Delete(_ context.Context, id string) error {
	delete(r.profiles, id)
	return nil
}

func (r *fakeProfileRepo) ListOnlineExcept(_ context.Context, excludeID string) ([]*profile.Profile, error) {
	out := make([]*profile.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		if p.ID != excludeID && p.IsOnline {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeProfileRepo) Count(_ context.Context) (int, error) {
	return len(r.profiles), nil
}

func (r *fakeProfileRepo) SetOnline(_ context.Context, id string, online bool, at time.Time) error {
	if p, ok := r.profiles[id]; ok {
		p.IsOnline = online
		p.LastSeenAt = at
	}
	return nil
}

func (r *fakeProfileRepo) SetOfflineBefore(_ context.Context, cutoff time.Time) ([]string, error) {
	var swept []string
	for _, p := range r.profiles {
		if p.IsOnline && p.LastSeenAt.Before(cutoff) {
			p.IsOnline = false
			swept = append(swept, p.ID)
		}
	}
	return swept, nil
}

type fakeMatchRepo struct {
	matches map[string]*match.Match
}

func newFakeMatchRepo(matches ...*match.Match) *fakeMatchRepo {
	r := &fakeMatchRepo{matches: make(map[string]*match.Match)}
	for _, m := range matches {
		r.matches[m.ID] = m
	}
	return r
}

func (r *fakeMatchRepo) Insert(_ context.Context, m *match.Match) error {
	for _, existing := range r.matches {
		if existing.UserLow == m.UserLow && existing.UserHigh == m.UserHigh && existing.Status.IsActive() {
			return &match.DuplicateError{Existing: existing}
		}
	}
	r.matches[m.ID] = m
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id string) (*match.Match, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, shared.ErrMatchNotFound
	}
	return m, nil
}

func (r *fakeMatchRepo) FindActiveByPair(_ context.Context, userLow, userHigh string) (*match.Match, error) {
	for _, m := range r.matches {
		if m.UserLow == userLow && m.UserHigh == userHigh && m.Status.IsActive() {
			return m, nil
		}
	}
	return nil, shared.ErrMatchNotFound
}

func (r *fakeMatchRepo) ListForUser(_ context.Context, runnerID string) ([]*match.Match, error) {
	var out []*match.Match
	for _, m := range r.matches {
		if m.Involves(runnerID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) ListRecentForUser(_ context.Context, runnerID string, since time.Time, limit int) ([]*match.Match, error) {
	var out []*match.Match
	for _, m := range r.matches {
		if m.Involves(runnerID) && m.Status.IsActive() && m.MatchedAt.After(since) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchedAt.After(out[j].MatchedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeMatchRepo) UpdateStatus(_ context.Context, id string, status match.Status) error {
	m, ok := r.matches[id]
	if !ok {
		return shared.ErrMatchNotFound
	}
	m.Status = status
	return nil
}

type fakeChatRepo struct {
	messages []*chat.Message
}

func (r *fakeChatRepo) Insert(_ context.Context, m *chat.Message) error {
	r.messages = append(r.messages, m)
	return nil
}

func (r *fakeChatRepo) ListByMatch(_ context.Context, matchID string, limit int) ([]*chat.Message, error) {
	var out []*chat.Message
	for _, m := range r.messages {
		if m.MatchID == matchID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeChatRepo) MarkRead(_ context.Context, matchID, readerID string) (int, error) {
	count := 0
	for _, m := range r.messages {
		if m.MatchID == matchID && m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			count++
		}
	}
	return count, nil
}

func (r *fakeChatRepo) CountUnread(_ context.Context, matchID, readerID string) (int, error) {
	count := 0
	for _, m := range r.messages {
		if m.MatchID == matchID && m.SenderID != readerID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

type fakePublisher struct {
	events []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

type fakePresenceTracker struct {
	online map[string]time.Time
}

func newFakePresenceTracker() *fakePresenceTracker {
	return &fakePresenceTracker{online: make(map[string]time.Time)}
}

func (t *fakePresenceTracker) Heartbeat(_ context.Context, runnerID string) error {
	t.online[runnerID] = time.Now().UTC()
	return nil
}

func (t *fakePresenceTracker) MarkOffline(_ context.Context, runnerID string) error {
	delete(t.online, runnerID)
	return nil
}

func (t *fakePresenceTracker) IsOnline(_ context.Context, runnerID string) (bool, error) {
	_, ok := t.online[runnerID]
	return ok, nil
}

func (t *fakePresenceTracker) GetOnlineRunners(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(t.online))
	for id := range t.online {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (t *fakePresenceTracker) GetOnlineCount(_ context.Context) (int, error) {
	return len(t.online), nil
}

func (t *fakePresenceTracker) GetLastSeen(_ context.Context, runnerID string) (time.Time, error) {
	at, ok := t.online[runnerID]
	if !ok {
		return time.Time{}, shared.ErrNotFound
	}
	return at, nil
}

func (t *fakePresenceTracker) GetOnlineStates(_ context.Context, runnerIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(runnerIDs))
	for _, id := range runnerIDs {
		_, ok := t.online[id]
		out[id] = ok
	}
	return out, nil
}

func onlineRunner(id, firstName string) *profile.Profile {
	p, err := profile.NewProfile(profile.NewProfileParams{ID: id, FirstName: firstName})
	if err != nil {
		panic(err)
	}
	p.MarkOnline()
	return p
}
