package activity

import (
	"time"

	"github.com/google/uuid"
)

// Activity is an append-only entry of a user's history feed.
type Activity struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	TenantID    string    `db:"tenant_id" json:"tenant_id"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
