package gamification

import (
	"testing"

	"github.com/brainqy/alumni-api/internal/domain/user"
)

func TestParseCondition(t *testing.T) {
	cases := []struct {
		raw       string
		kind      ConditionKind
		threshold int
	}{
		{"daily_streak_3", ConditionStreakAtLeast, 3},
		{"resume_scans_5", ConditionResumeScansAtLeast, 5},
		{"profile_completion_100", ConditionProfileComplete, 100},
		{"connections_made_10", ConditionUnsupported, 10},
		{"daily_streak", ConditionInvalid, 0},
		{"streak", ConditionInvalid, 0},
		{"", ConditionInvalid, 0},
		{"_5", ConditionInvalid, 0},
	}

	for _, tc := range cases {
		c := ParseCondition(tc.raw)
		if c.Kind != tc.kind {
			t.Errorf("%q: expected kind %d, got %d", tc.raw, tc.kind, c.Kind)
		}
		if tc.kind != ConditionInvalid && c.Threshold != tc.threshold {
			t.Errorf("%q: expected threshold %d, got %d", tc.raw, tc.threshold, c.Threshold)
		}
	}
}

func TestConditionMet(t *testing.T) {
	stats := UserStats{User: &user.User{DailyStreak: 3}, ResumeScans: 4}

	if !ParseCondition("daily_streak_3").Met(stats) {
		t.Error("streak of 3 should meet daily_streak_3")
	}
	if ParseCondition("daily_streak_4").Met(stats) {
		t.Error("streak of 3 should not meet daily_streak_4")
	}
	if ParseCondition("resume_scans_5").Met(stats) {
		t.Error("4 scans should not meet resume_scans_5")
	}
	if ParseCondition("profile_completion_100").Met(stats) {
		t.Error("profile completion is never evaluated")
	}
	if ParseCondition("posts_created_0").Met(stats) {
		t.Error("unsupported families never match")
	}
}
