package user

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PlatformTenant marks records that apply to every tenant.
const PlatformTenant = "platform"

// User is the gamification-relevant subset of an alumni profile.
type User struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	TenantID      string         `db:"tenant_id" json:"tenant_id"`
	Email         string         `db:"email" json:"email"`
	Name          string         `db:"name" json:"name"`
	XPPoints      int            `db:"xp_points" json:"xp_points"`
	DailyStreak   int            `db:"daily_streak" json:"daily_streak"`
	StreakFreezes int            `db:"streak_freezes" json:"streak_freezes"`
	EarnedBadges  pq.StringArray `db:"earned_badges" json:"earned_badges"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// HasBadge reports whether the badge id is already in the earned set.
func (u *User) HasBadge(badgeID string) bool {
	for _, id := range u.EarnedBadges {
		if id == badgeID {
			return true
		}
	}
	return false
}

// InTenant reports whether a record scoped to tenantID applies to this user.
func (u *User) InTenant(tenantID string) bool {
	return tenantID == PlatformTenant || tenantID == u.TenantID
}
