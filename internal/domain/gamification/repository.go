package gamification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/brainqy/alumni-api/internal/domain/activity"
	"github.com/brainqy/alumni-api/internal/domain/user"
)

type Repository interface {
	// ListBadges returns the catalog ordered by name with conditions parsed.
	ListBadges(ctx context.Context) ([]Badge, error)
	GetBadge(ctx context.Context, id uuid.UUID) (*Badge, error)
	CreateBadge(ctx context.Context, b *Badge) error
	UpdateBadge(ctx context.Context, b *Badge) error
	DeleteBadge(ctx context.Context, id uuid.UUID) (bool, error)

	ListRules(ctx context.Context) ([]Rule, error)
	GetRule(ctx context.Context, actionID string) (*Rule, error)
	CreateRule(ctx context.Context, r *Rule) error
	UpdateRule(ctx context.Context, r *Rule) error
	DeleteRule(ctx context.Context, actionID string) (bool, error)

	// GetUserStats returns nil when the user does not exist.
	GetUserStats(ctx context.Context, userID uuid.UUID) (*UserStats, error)
	// GrantBadges locks the user, drops candidates already earned, then persists the
	// earned set, reward increments and one activity per badge atomically.
	GrantBadges(ctx context.Context, userID uuid.UUID, candidates []Badge) (*Grant, error)
}

const badgeColumns = `id, name, description, icon, xp_reward, streak_freeze_reward, trigger_condition, created_at, updated_at`

type sqlRepository struct {
	db         *sqlx.DB
	users      user.Repository
	activities activity.Repository
}

func NewRepository(db *sqlx.DB, users user.Repository, activities activity.Repository) Repository {
	return &sqlRepository{db: db, users: users, activities: activities}
}

func (r *sqlRepository) ListBadges(ctx context.Context) ([]Badge, error) {
	badges := []Badge{}
	if err := r.db.SelectContext(ctx, &badges, `SELECT `+badgeColumns+` FROM badges ORDER BY name ASC, id ASC`); err != nil {
		return nil, fmt.Errorf("%w: list badges: %v", ErrInternal, err)
	}
	for i := range badges {
		badges[i].Condition = ParseCondition(badges[i].TriggerCondition)
	}
	return badges, nil
}

func (r *sqlRepository) GetBadge(ctx context.Context, id uuid.UUID) (*Badge, error) {
	var b Badge
	err := r.db.GetContext(ctx, &b, `SELECT `+badgeColumns+` FROM badges WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get badge: %v", ErrInternal, err)
	}
	b.Condition = ParseCondition(b.TriggerCondition)
	return &b, nil
}

func (r *sqlRepository) CreateBadge(ctx context.Context, b *Badge) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO badges (name, description, icon, xp_reward, streak_freeze_reward, trigger_condition)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, b.Name, b.Description, b.Icon, b.XPReward, b.StreakFreezeReward, b.TriggerCondition).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: create badge: %v", ErrInternal, err)
	}
	return nil
}

func (r *sqlRepository) UpdateBadge(ctx context.Context, b *Badge) error {
	err := r.db.QueryRowxContext(ctx, `
		UPDATE badges
		SET name = $2, description = $3, icon = $4, xp_reward = $5, streak_freeze_reward = $6,
		    trigger_condition = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, b.ID, b.Name, b.Description, b.Icon, b.XPReward, b.StreakFreezeReward, b.TriggerCondition).
		Scan(&b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBadgeNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: update badge: %v", ErrInternal, err)
	}
	return nil
}

func (r *sqlRepository) DeleteBadge(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.deleteOne(ctx, `DELETE FROM badges WHERE id = $1`, id)
}

func (r *sqlRepository) ListRules(ctx context.Context) ([]Rule, error) {
	rules := []Rule{}
	if err := r.db.SelectContext(ctx, &rules, `SELECT action_id, description, xp_points FROM gamification_rules ORDER BY action_id`); err != nil {
		return nil, fmt.Errorf("%w: list rules: %v", ErrInternal, err)
	}
	return rules, nil
}

func (r *sqlRepository) GetRule(ctx context.Context, actionID string) (*Rule, error) {
	var rule Rule
	err := r.db.GetContext(ctx, &rule, `SELECT action_id, description, xp_points FROM gamification_rules WHERE action_id = $1`, actionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get rule: %v", ErrInternal, err)
	}
	return &rule, nil
}

func (r *sqlRepository) CreateRule(ctx context.Context, rule *Rule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO gamification_rules (action_id, description, xp_points) VALUES ($1, $2, $3)
	`, rule.ActionID, rule.Description, rule.XPPoints)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrRuleExists
		}
		return fmt.Errorf("%w: create rule: %v", ErrInternal, err)
	}
	return nil
}

func (r *sqlRepository) UpdateRule(ctx context.Context, rule *Rule) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE gamification_rules SET description = $2, xp_points = $3 WHERE action_id = $1
	`, rule.ActionID, rule.Description, rule.XPPoints)
	if err != nil {
		return fmt.Errorf("%w: update rule: %v", ErrInternal, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", ErrInternal, err)
	}
	if rows == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func (r *sqlRepository) DeleteRule(ctx context.Context, actionID string) (bool, error) {
	return r.deleteOne(ctx, `DELETE FROM gamification_rules WHERE action_id = $1`, actionID)
}

func (r *sqlRepository) deleteOne(ctx context.Context, query string, arg interface{}) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, arg)
	if err != nil {
		return false, fmt.Errorf("%w: delete: %v", ErrInternal, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %v", ErrInternal, err)
	}
	return rows > 0, nil
}

func (r *sqlRepository) GetUserStats(ctx context.Context, userID uuid.UUID) (*UserStats, error) {
	u, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	scans, err := r.users.CountResumeScans(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserStats{User: u, ResumeScans: scans}, nil
}

func (r *sqlRepository) GrantBadges(ctx context.Context, userID uuid.UUID, candidates []Badge) (*Grant, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", ErrInternal, err)
	}
	defer tx.Rollback()

	u, err := r.users.LockTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, user.ErrUserNotFound
	}

	grant := &Grant{Badges: []Badge{}, Activities: []activity.Activity{}}
	ids := []string{}
	for _, b := range candidates {
		if u.HasBadge(b.ID.String()) {
			continue
		}
		grant.Badges = append(grant.Badges, b)
		ids = append(ids, b.ID.String())
	}
	if len(grant.Badges) == 0 {
		return grant, nil
	}

	xp, freezes := Totals(grant.Badges)
	if err := r.users.GrantBadgesTx(ctx, tx, userID, ids, xp, freezes); err != nil {
		return nil, err
	}

	for _, b := range grant.Badges {
		a := activity.Activity{UserID: userID, TenantID: u.TenantID, Description: badgeActivityDescription(b)}
		if err := r.activities.CreateTx(ctx, tx, &a); err != nil {
			return nil, err
		}
		grant.Activities = append(grant.Activities, a)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx: %v", ErrInternal, err)
	}
	return grant, nil
}
