package validator

import "testing"

type badgeInput struct {
	Name      string `json:"name" validate:"required,max=100"`
	Condition string `json:"trigger_condition" validate:"required,trigger_condition"`
}

type codeInput struct {
	RewardType string `json:"reward_type" validate:"required,reward_type"`
	Tenant     string `json:"tenant_id" validate:"omitempty,tenant"`
}

func TestTriggerConditionTag(t *testing.T) {
	cases := map[string]bool{
		"daily_streak_3":         true,
		"resume_scans_5":         true,
		"profile_completion_100": true,
		"daily_streak":           false,
		"Daily_Streak_3":         false,
		"_3":                     false,
	}
	for condition, ok := range cases {
		errs := Validate(&badgeInput{Name: "b", Condition: condition})
		if (errs == nil) != ok {
			t.Errorf("condition %q: expected valid=%v, got errors %v", condition, ok, errs)
		}
	}
}

func TestRewardTypeAndTenantTags(t *testing.T) {
	if errs := Validate(&codeInput{RewardType: "coins", Tenant: "brainqy"}); errs != nil {
		t.Fatalf("expected valid input, got %v", errs)
	}

	errs := Validate(&codeInput{RewardType: "gems", Tenant: "Bad Tenant"})
	if errs["reward_type"] == "" || errs["tenant_id"] == "" {
		t.Fatalf("expected reward_type and tenant_id errors, got %v", errs)
	}
}
