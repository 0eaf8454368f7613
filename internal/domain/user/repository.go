package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines user data access interface
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	CountResumeScans(ctx context.Context, id uuid.UUID) (int, error)

	// Tx variants run inside a transaction owned by the caller and never commit.
	LockTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*User, error)
	AddXPTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount int) error
	AddStreakFreezesTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount int) error
	GrantBadgesTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, badgeIDs []string, xp, freezes int) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new user repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// GetByID returns user by ID, or nil when it does not exist
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, tenant_id, email, name, xp_points, daily_streak, streak_freezes, earned_badges,
		       created_at, updated_at
		FROM users WHERE id = $1
	`
	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get user: %v", ErrInternal, err)
	}

	return &user, nil
}

// LockTx reads the user FOR UPDATE, or returns nil when it does not exist
func (r *repository) LockTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, tenant_id, email, name, xp_points, daily_streak, streak_freezes, earned_badges,
		       created_at, updated_at
		FROM users WHERE id = $1
		FOR UPDATE
	`
	var user User
	err := tx.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: lock user: %v", ErrInternal, err)
	}

	return &user, nil
}

func (r *repository) CountResumeScans(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM resume_scans WHERE user_id = $1`, id); err != nil {
		return 0, fmt.Errorf("%w: count resume scans: %v", ErrInternal, err)
	}
	return count, nil
}

func (r *repository) AddXPTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount int) error {
	return r.incrementTx(ctx, tx, `UPDATE users SET xp_points = xp_points + $2, updated_at = NOW() WHERE id = $1`, id, amount)
}

func (r *repository) AddStreakFreezesTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount int) error {
	return r.incrementTx(ctx, tx, `UPDATE users SET streak_freezes = streak_freezes + $2, updated_at = NOW() WHERE id = $1`, id, amount)
}

// GrantBadgesTx appends badge ids to the earned set and adds the rewards in a single update.
// Ids already present are skipped so the set never holds duplicates.
func (r *repository) GrantBadgesTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, badgeIDs []string, xp, freezes int) error {
	query := `
		UPDATE users
		SET earned_badges = earned_badges || ARRAY(
		        SELECT b FROM unnest($2::text[]) AS b WHERE NOT (b = ANY(earned_badges))
		    ),
		    xp_points = xp_points + $3,
		    streak_freezes = streak_freezes + $4,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := tx.ExecContext(ctx, query, id, pq.Array(badgeIDs), xp, freezes)
	if err != nil {
		return fmt.Errorf("%w: grant badges: %v", ErrInternal, err)
	}
	return requireRow(result)
}

func (r *repository) incrementTx(ctx context.Context, tx *sqlx.Tx, query string, id uuid.UUID, amount int) error {
	result, err := tx.ExecContext(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("%w: update user: %v", ErrInternal, err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", ErrInternal, err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}
