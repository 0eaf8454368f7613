package gamification

type CreateBadgeRequest struct {
	Name               string `json:"name" validate:"required,max=100"`
	Description        string `json:"description" validate:"max=500"`
	Icon               string `json:"icon" validate:"max=500"`
	XPReward           int    `json:"xp_reward" validate:"gte=0"`
	StreakFreezeReward int    `json:"streak_freeze_reward" validate:"gte=0"`
	TriggerCondition   string `json:"trigger_condition" validate:"required,trigger_condition"`
}

type UpdateBadgeRequest struct {
	Name               *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description        *string `json:"description" validate:"omitempty,max=500"`
	Icon               *string `json:"icon" validate:"omitempty,max=500"`
	XPReward           *int    `json:"xp_reward" validate:"omitempty,gte=0"`
	StreakFreezeReward *int    `json:"streak_freeze_reward" validate:"omitempty,gte=0"`
	TriggerCondition   *string `json:"trigger_condition" validate:"omitempty,trigger_condition"`
}

type CreateRuleRequest struct {
	ActionID    string `json:"action_id" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	XPPoints    int    `json:"xp_points" validate:"gte=0"`
}

type UpdateRuleRequest struct {
	Description *string `json:"description" validate:"omitempty,max=500"`
	XPPoints    *int    `json:"xp_points" validate:"omitempty,gte=0"`
}
