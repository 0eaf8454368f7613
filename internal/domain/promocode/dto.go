package promocode

import "time"

type CreateRequest struct {
	Code        string     `json:"code" validate:"required,min=3,max=64"`
	TenantID    string     `json:"tenant_id" validate:"omitempty,tenant"`
	IsActive    *bool      `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at"`
	UsageLimit  int        `json:"usage_limit" validate:"gte=0"`
	RewardType  string     `json:"reward_type" validate:"required,reward_type"`
	RewardValue int        `json:"reward_value" validate:"required,gt=0"`
	Description string     `json:"description" validate:"max=500"`
}

// UpdateRequest is a partial update; ClearExpiry removes an existing expiry.
type UpdateRequest struct {
	Code        *string    `json:"code" validate:"omitempty,min=3,max=64"`
	TenantID    *string    `json:"tenant_id" validate:"omitempty,tenant"`
	IsActive    *bool      `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at"`
	ClearExpiry bool       `json:"clear_expiry"`
	UsageLimit  *int       `json:"usage_limit" validate:"omitempty,gte=0"`
	RewardType  *string    `json:"reward_type" validate:"omitempty,reward_type"`
	RewardValue *int       `json:"reward_value" validate:"omitempty,gt=0"`
	Description *string    `json:"description" validate:"omitempty,max=500"`
}

type RedeemRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}
