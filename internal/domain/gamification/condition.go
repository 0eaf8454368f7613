package gamification

import (
	"strconv"
	"strings"
)

type ConditionKind int

const (
	ConditionInvalid ConditionKind = iota
	ConditionStreakAtLeast
	ConditionResumeScansAtLeast
	// ConditionProfileComplete is recognized but not evaluated: profile completion is not computed here.
	ConditionProfileComplete
	// ConditionUnsupported is a well-formed family with no evaluator yet.
	ConditionUnsupported
)

const profileCompletionCondition = "profile_completion_100"

// Condition is a parsed trigger condition such as daily_streak_3.
type Condition struct {
	Kind      ConditionKind
	Family    string
	Threshold int
}

// ParseCondition splits raw on '_' into a family token and a trailing numeric threshold.
func ParseCondition(raw string) Condition {
	if raw == profileCompletionCondition {
		return Condition{Kind: ConditionProfileComplete, Family: "profile", Threshold: 100}
	}

	parts := strings.Split(raw, "_")
	if len(parts) < 2 || parts[0] == "" {
		return Condition{Kind: ConditionInvalid}
	}
	threshold, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || threshold < 0 {
		return Condition{Kind: ConditionInvalid}
	}

	c := Condition{Family: parts[0], Threshold: threshold}
	switch c.Family {
	case "daily":
		c.Kind = ConditionStreakAtLeast
	case "resume":
		c.Kind = ConditionResumeScansAtLeast
	default:
		c.Kind = ConditionUnsupported
	}
	return c
}

// Met reports whether stats satisfy the condition. Only streak and resume-scan
// thresholds can be met.
func (c Condition) Met(stats UserStats) bool {
	switch c.Kind {
	case ConditionStreakAtLeast:
		return stats.User.DailyStreak >= c.Threshold
	case ConditionResumeScansAtLeast:
		return stats.ResumeScans >= c.Threshold
	}
	return false
}
