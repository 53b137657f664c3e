// Package postgres implements the PostgreSQL persistence layer for Stridemate.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/stridemate/stridemate-hub/internal/domain/profile"
	"github.com/stridemate/stridemate-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements profile.Repository for PostgreSQL.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

const profileColumns = `id, first_name, last_name, bio, preferred_pace_seconds,
	   preferred_distance, location, preferred_running_times,
	   is_online, last_seen_at, created_at, updated_at`

// GetByID returns a runner profile by id.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM runners
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanProfile(row)
}

// GetByIDs returns the profiles for the given ids. Unknown ids are skipped.
func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []string) ([]*profile.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + profileColumns + `
		FROM runners
		WHERE id = ANY($1)
		ORDER BY id
	`

	rows, err := r.conn.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	return r.scanProfiles(rows)
}

// Upsert inserts or updates a profile, keyed by id. Presence fields are
// left alone on update: the sync webhook knows nothing about sessions.
func (r *ProfileRepository) Upsert(ctx context.Context, p *profile.Profile) (bool, error) {
	query := `
		INSERT INTO runners (
			id, first_name, last_name, bio, preferred_pace_seconds,
			preferred_distance, location, preferred_running_times,
			is_online, last_seen_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			bio = EXCLUDED.bio,
			preferred_pace_seconds = EXCLUDED.preferred_pace_seconds,
			preferred_distance = EXCLUDED.preferred_distance,
			location = EXCLUDED.location,
			preferred_running_times = EXCLUDED.preferred_running_times,
			updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0) AS inserted
	`

	var distance *string
	if p.PreferredDistance != "" {
		d := string(p.PreferredDistance)
		distance = &d
	}

	times := make([]string, 0, len(p.PreferredRunningTimes))
	for _, t := range p.PreferredRunningTimes {
		times = append(times, string(t))
	}

	var inserted bool
	err := r.conn.QueryRow(ctx, query,
		p.ID,
		p.FirstName,
		p.LastName,
		p.Bio,
		p.PreferredPaceSeconds,
		distance,
		p.Location,
		times,
		p.IsOnline,
		p.LastSeenAt,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert profile: %w", err)
	}

	return inserted, nil
}

// Delete removes a runner and, via cascades, their matches and messages.
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM runners WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrProfileNotFound
	}
	return nil
}

// ListOnlineExcept returns every online runner except the given one, in
// id order. This is the candidate pool for the matching feed.
func (r *ProfileRepository) ListOnlineExcept(ctx context.Context, excludeID string) ([]*profile.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM runners
		WHERE is_online = TRUE AND id != $1
		ORDER BY id
	`

	rows, err := r.conn.Query(ctx, query, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query online runners: %w", err)
	}
	defer rows.Close()

	return r.scanProfiles(rows)
}

// Count returns the total number of runners.
func (r *ProfileRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM runners`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count runners: %w", err)
	}
	return count, nil
}

// SetOnline updates a runner's online flag and last-seen timestamp.
func (r *ProfileRepository) SetOnline(ctx context.Context, id string, online bool, at time.Time) error {
	query := `
		UPDATE runners
		SET is_online = $2, last_seen_at = $3, updated_at = $3
		WHERE id = $1
	`

	tag, err := r.conn.Exec(ctx, query, id, online, at)
	if err != nil {
		return fmt.Errorf("failed to set online flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrProfileNotFound
	}
	return nil
}

// SetOfflineBefore marks every runner offline whose last activity is
// before the cutoff, returning the affected ids. Used by the presence
// sweep to catch runners whose session died without a goodbye.
func (r *ProfileRepository) SetOfflineBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	query := `
		UPDATE runners
		SET is_online = FALSE, updated_at = NOW()
		WHERE is_online = TRUE AND last_seen_at < $1
		RETURNING id
	`

	rows, err := r.conn.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep stale presence: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan swept id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *ProfileRepository) scanProfile(row pgx.Row) (*profile.Profile, error) {
	var (
		p        profile.Profile
		distance *string
		times    []string
	)

	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Bio,
		&p.PreferredPaceSeconds,
		&distance,
		&p.Location,
		&times,
		&p.IsOnline,
		&p.LastSeenAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	if distance != nil {
		p.PreferredDistance = profile.Distance(*distance)
	}
	p.PreferredRunningTimes = make([]profile.RunningTime, 0, len(times))
	for _, t := range times {
		p.PreferredRunningTimes = append(p.PreferredRunningTimes, profile.RunningTime(t))
	}

	return &p, nil
}

func (r *ProfileRepository) scanProfiles(rows pgx.Rows) ([]*profile.Profile, error) {
	var profiles []*profile.Profile
	for rows.Next() {
		p, err := r.scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
