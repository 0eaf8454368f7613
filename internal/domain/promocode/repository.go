package promocode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/brainqy/alumni-api/internal/domain/activity"
	"github.com/brainqy/alumni-api/internal/domain/user"
	"github.com/brainqy/alumni-api/internal/domain/wallet"
)

type Repository interface {
	// List returns every code when tenantID is nil, otherwise the tenant's codes plus platform-wide ones.
	List(ctx context.Context, tenantID *string) ([]PromoCode, error)
	GetByID(ctx context.Context, id uuid.UUID) (*PromoCode, error)
	GetByCode(ctx context.Context, code string) (*PromoCode, error)
	Create(ctx context.Context, p *PromoCode) error
	Update(ctx context.Context, p *PromoCode) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	// WithinRedemption runs fn in one transaction; any error rolls everything back.
	WithinRedemption(ctx context.Context, fn func(tx RedemptionTx) error) error
}

// RedemptionTx groups the writes of a redemption under one transaction.
type RedemptionTx interface {
	// IncrementUsage consumes one use. It reports false when the code is gone, inactive,
	// expired at now, or already at its limit.
	IncrementUsage(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	Wallet() wallet.Tx
	AddXP(ctx context.Context, userID uuid.UUID, amount int) error
	AddStreakFreezes(ctx context.Context, userID uuid.UUID, amount int) error
	RecordActivity(ctx context.Context, a *activity.Activity) error
}

const promoColumns = `id, code, tenant_id, is_active, expires_at, usage_limit, times_used,
	reward_type, reward_value, description, created_at, updated_at`

type sqlRepository struct {
	db         *sqlx.DB
	users      user.Repository
	activities activity.Repository
}

func NewRepository(db *sqlx.DB, users user.Repository, activities activity.Repository) Repository {
	return &sqlRepository{db: db, users: users, activities: activities}
}

func (r *sqlRepository) List(ctx context.Context, tenantID *string) ([]PromoCode, error) {
	items := []PromoCode{}
	var err error
	if tenantID == nil {
		err = r.db.SelectContext(ctx, &items, `SELECT `+promoColumns+` FROM promo_codes ORDER BY created_at DESC`)
	} else {
		err = r.db.SelectContext(ctx, &items, `
			SELECT `+promoColumns+` FROM promo_codes
			WHERE tenant_id = $1 OR tenant_id = $2
			ORDER BY created_at DESC
		`, *tenantID, user.PlatformTenant)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list promo codes: %v", ErrInternal, err)
	}
	return items, nil
}

func (r *sqlRepository) GetByID(ctx context.Context, id uuid.UUID) (*PromoCode, error) {
	return r.getOne(ctx, `SELECT `+promoColumns+` FROM promo_codes WHERE id = $1`, id)
}

func (r *sqlRepository) GetByCode(ctx context.Context, code string) (*PromoCode, error) {
	return r.getOne(ctx, `SELECT `+promoColumns+` FROM promo_codes WHERE code = $1`, NormalizeCode(code))
}

func (r *sqlRepository) getOne(ctx context.Context, query string, arg interface{}) (*PromoCode, error) {
	var p PromoCode
	err := r.db.GetContext(ctx, &p, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get promo code: %v", ErrInternal, err)
	}
	return &p, nil
}

func (r *sqlRepository) Create(ctx context.Context, p *PromoCode) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO promo_codes (code, tenant_id, is_active, expires_at, usage_limit, reward_type, reward_value, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, times_used, created_at, updated_at
	`, p.Code, p.TenantID, p.IsActive, p.ExpiresAt, p.UsageLimit, p.RewardType, p.RewardValue, p.Description).
		Scan(&p.ID, &p.TimesUsed, &p.CreatedAt, &p.UpdatedAt)
	return mapWriteError(err, "create promo code")
}

func (r *sqlRepository) Update(ctx context.Context, p *PromoCode) error {
	err := r.db.QueryRowxContext(ctx, `
		UPDATE promo_codes
		SET code = $2, tenant_id = $3, is_active = $4, expires_at = $5, usage_limit = $6,
		    reward_type = $7, reward_value = $8, description = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING times_used, updated_at
	`, p.ID, p.Code, p.TenantID, p.IsActive, p.ExpiresAt, p.UsageLimit, p.RewardType, p.RewardValue, p.Description).
		Scan(&p.TimesUsed, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPromoCodeNotFound
	}
	return mapWriteError(err, "update promo code")
}

func (r *sqlRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM promo_codes WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("%w: delete promo code: %v", ErrInternal, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %v", ErrInternal, err)
	}
	return rows > 0, nil
}

func mapWriteError(err error, op string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrCodeExists
	}
	return fmt.Errorf("%w: %s: %v", ErrInternal, op, err)
}

func (r *sqlRepository) WithinRedemption(ctx context.Context, fn func(tx RedemptionTx) error) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", ErrInternal, err)
	}
	defer tx.Rollback()

	if err := fn(&sqlRedemptionTx{repo: r, tx: tx, wallet: wallet.NewTx(tx)}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx: %v", ErrInternal, err)
	}
	return nil
}

type sqlRedemptionTx struct {
	repo   *sqlRepository
	tx     *sqlx.Tx
	wallet wallet.Tx
}

func (t *sqlRedemptionTx) IncrementUsage(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE promo_codes
		SET times_used = times_used + 1, updated_at = NOW()
		WHERE id = $1
			AND is_active
			AND (expires_at IS NULL OR expires_at >= $2)
			AND (usage_limit = 0 OR times_used < usage_limit)
	`, id, now)
	if err != nil {
		return false, fmt.Errorf("%w: increment usage: %v", ErrInternal, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %v", ErrInternal, err)
	}
	return rows == 1, nil
}

func (t *sqlRedemptionTx) Wallet() wallet.Tx {
	return t.wallet
}

func (t *sqlRedemptionTx) AddXP(ctx context.Context, userID uuid.UUID, amount int) error {
	return t.repo.users.AddXPTx(ctx, t.tx, userID, amount)
}

func (t *sqlRedemptionTx) AddStreakFreezes(ctx context.Context, userID uuid.UUID, amount int) error {
	return t.repo.users.AddStreakFreezesTx(ctx, t.tx, userID, amount)
}

func (t *sqlRedemptionTx) RecordActivity(ctx context.Context, a *activity.Activity) error {
	return t.repo.activities.CreateTx(ctx, t.tx, a)
}
