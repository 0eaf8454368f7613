package promocode

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type RewardType string

const (
	RewardCoins        RewardType = "coins"
	RewardFlashCoins   RewardType = "flash_coins"
	RewardXP           RewardType = "xp"
	RewardStreakFreeze RewardType = "streak_freeze"
	RewardPremiumDays  RewardType = "premium_days"
)

// Label is the human-readable unit used in messages and activities.
func (t RewardType) Label() string {
	switch t {
	case RewardCoins:
		return "coins"
	case RewardFlashCoins:
		return "flash coins"
	case RewardXP:
		return "XP"
	case RewardStreakFreeze:
		return "streak freezes"
	case RewardPremiumDays:
		return "premium days"
	}
	return string(t)
}

type PromoCode struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Code        string     `db:"code" json:"code"`
	TenantID    string     `db:"tenant_id" json:"tenant_id"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	ExpiresAt   *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	UsageLimit  int        `db:"usage_limit" json:"usage_limit"`
	TimesUsed   int        `db:"times_used" json:"times_used"`
	RewardType  RewardType `db:"reward_type" json:"reward_type"`
	RewardValue int        `db:"reward_value" json:"reward_value"`
	Description string     `db:"description" json:"description"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// IsExpired reports whether the code has an expiry in the past.
func (p *PromoCode) IsExpired(now time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(now)
}

// IsExhausted reports whether a limited code has no redemptions left. A zero limit means unlimited.
func (p *PromoCode) IsExhausted() bool {
	return p.UsageLimit > 0 && p.TimesUsed >= p.UsageLimit
}

// NormalizeCode is the canonical stored form: trimmed and upper-cased.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Redemption messages, in the order the checks run.
const (
	MsgInvalidCode    = "Invalid promo code."
	MsgInactive       = "This promo code is no longer active."
	MsgExpired        = "This promo code has expired."
	MsgUsageLimit     = "This promo code has reached its usage limit."
	MsgUserNotFound   = "User not found."
	MsgWrongTenant    = "This promo code is not valid for your account."
	MsgUnexpectedFail = "An unexpected error occurred while redeeming the promo code."
)

// RedeemResult is the outcome of a redemption. Rejections are results, not errors.
type RedeemResult struct {
	Success     bool       `json:"success"`
	Message     string     `json:"message"`
	RewardType  RewardType `json:"reward_type,omitempty"`
	RewardValue int        `json:"reward_value,omitempty"`
}

func rejected(message string) RedeemResult {
	return RedeemResult{Message: message}
}

// Unexpected reports whether the redemption failed for an infrastructure reason.
func (r RedeemResult) Unexpected() bool {
	return !r.Success && r.Message == MsgUnexpectedFail
}
