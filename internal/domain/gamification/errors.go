package gamification

import "errors"

var (
	ErrBadgeNotFound = errors.New("badge not found")
	ErrRuleNotFound  = errors.New("gamification rule not found")
	ErrRuleExists    = errors.New("gamification rule already exists")
	ErrInvalidImage  = errors.New("invalid image")
	ErrInternal      = errors.New("internal error")
)
