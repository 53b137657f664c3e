package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/stridemate/stridemate-hub/internal/domain/match"
	"github.com/stridemate/stridemate-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MATCH REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MatchRepository implements match.Repository for PostgreSQL.
type MatchRepository struct {
	conn *Connection
}

// NewMatchRepository creates a new MatchRepository.
func NewMatchRepository(conn *Connection) *MatchRepository {
	return &MatchRepository{conn: conn}
}

const matchColumns = `id, user_low, user_high, status, matched_at, updated_at`

// Insert stores a new match.
//
// Uniqueness of the active pair is enforced by a partial unique index on
// (user_low, user_high) WHERE status = 'active'. When two requests race,
// the database picks the winner; the loser's violation is turned into a
// *match.DuplicateError carrying the winner's row, read back here so the
// caller never sees a bare constraint error.
func (r *MatchRepository) Insert(ctx context.Context, m *match.Match) error {
	query := `
		INSERT INTO matches (id, user_low, user_high, status, matched_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn.Exec(ctx, query,
		m.ID,
		m.UserLow,
		m.UserHigh,
		string(m.Status),
		m.MatchedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			existing, findErr := r.FindActiveByPair(ctx, m.UserLow, m.UserHigh)
			if findErr != nil {
				// The winner's row vanished between the violation and
				// the read (unmatched in the same instant). Surface the
				// conflict without it.
				return &match.DuplicateError{}
			}
			return &match.DuplicateError{Existing: existing}
		}
		return fmt.Errorf("failed to insert match: %w", err)
	}

	return nil
}

// GetByID returns a match by id.
func (r *MatchRepository) GetByID(ctx context.Context, id string) (*match.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanMatch(row)
}

// FindActiveByPair returns the active match for a normalized pair.
func (r *MatchRepository) FindActiveByPair(ctx context.Context, userLow, userHigh string) (*match.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE user_low = $1 AND user_high = $2 AND status = 'active'
	`

	row := r.conn.QueryRow(ctx, query, userLow, userHigh)
	return r.scanMatch(row)
}

// ListForUser returns every match involving the runner, any status.
// Feeds the exclusion set of the candidate ranker.
func (r *MatchRepository) ListForUser(ctx context.Context, runnerID string) ([]*match.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE user_low = $1 OR user_high = $1
		ORDER BY matched_at DESC
	`

	rows, err := r.conn.Query(ctx, query, runnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	return r.scanMatches(rows)
}

// ListRecentForUser returns the runner's active matches created after
// the cutoff, newest first.
func (r *MatchRepository) ListRecentForUser(ctx context.Context, runnerID string, since time.Time, limit int) ([]*match.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE (user_low = $1 OR user_high = $1)
		  AND status = 'active'
		  AND matched_at > $2
		ORDER BY matched_at DESC
		LIMIT $3
	`

	rows, err := r.conn.Query(ctx, query, runnerID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent matches: %w", err)
	}
	defer rows.Close()

	return r.scanMatches(rows)
}

// UpdateStatus moves a match to the given status.
func (r *MatchRepository) UpdateStatus(ctx context.Context, id string, status match.Status) error {
	query := `
		UPDATE matches
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.conn.Exec(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update match status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrMatchNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *MatchRepository) scanMatch(row pgx.Row) (*match.Match, error) {
	var (
		m      match.Match
		status string
	)

	err := row.Scan(
		&m.ID,
		&m.UserLow,
		&m.UserHigh,
		&status,
		&m.MatchedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}

	m.Status = match.Status(status)
	return &m, nil
}

func (r *MatchRepository) scanMatches(rows pgx.Rows) ([]*match.Match, error) {
	var matches []*match.Match
	for rows.Next() {
		m, err := r.scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
