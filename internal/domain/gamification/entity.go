package gamification

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brainqy/alumni-api/internal/domain/activity"
	"github.com/brainqy/alumni-api/internal/domain/user"
)

type Badge struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	Description        string    `db:"description" json:"description"`
	Icon               string    `db:"icon" json:"icon"`
	XPReward           int       `db:"xp_reward" json:"xp_reward"`
	StreakFreezeReward int       `db:"streak_freeze_reward" json:"streak_freeze_reward"`
	TriggerCondition   string    `db:"trigger_condition" json:"trigger_condition"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`

	// Condition is parsed from TriggerCondition when the catalog is loaded.
	Condition Condition `db:"-" json:"-"`
}

// Rule maps a platform action to the XP it awards.
type Rule struct {
	ActionID    string `db:"action_id" json:"action_id"`
	Description string `db:"description" json:"description"`
	XPPoints    int    `db:"xp_points" json:"xp_points"`
}

// UserStats is what badge conditions are evaluated against.
type UserStats struct {
	User        *user.User
	ResumeScans int
}

// Grant is the outcome of one evaluation: badges actually granted and their activities.
type Grant struct {
	Badges     []Badge
	Activities []activity.Activity
}

// Totals sums the rewards of badges.
func Totals(badges []Badge) (xp, freezes int) {
	for _, b := range badges {
		xp += b.XPReward
		freezes += b.StreakFreezeReward
	}
	return xp, freezes
}

func badgeActivityDescription(b Badge) string {
	return fmt.Sprintf("Earned a new badge: %s.", b.Name)
}
