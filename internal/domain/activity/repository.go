package activity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type Repository interface {
	Create(ctx context.Context, a *Activity) error
	// CreateTx appends within a caller-owned transaction.
	CreateTx(ctx context.Context, tx *sqlx.Tx, a *Activity) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Activity, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const insertQuery = `
	INSERT INTO activities (user_id, tenant_id, description)
	VALUES ($1, $2, $3)
	RETURNING id, created_at
`

func (r *repository) Create(ctx context.Context, a *Activity) error {
	if err := r.db.QueryRowxContext(ctx, insertQuery, a.UserID, a.TenantID, a.Description).Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("%w: insert activity: %v", ErrInternal, err)
	}
	return nil
}

func (r *repository) CreateTx(ctx context.Context, tx *sqlx.Tx, a *Activity) error {
	if err := tx.QueryRowxContext(ctx, insertQuery, a.UserID, a.TenantID, a.Description).Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("%w: insert activity: %v", ErrInternal, err)
	}
	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Activity, error) {
	items := []Activity{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, user_id, tenant_id, description, created_at
		FROM activities
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list activities: %v", ErrInternal, err)
	}
	return items, nil
}
