package gamification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/brainqy/alumni-api/internal/domain/activity"
	"github.com/brainqy/alumni-api/internal/domain/realtime"
	"github.com/brainqy/alumni-api/internal/pkg/storage"
)

type ActivityPublisher interface {
	Publish(ctx context.Context, a *activity.Activity)
}

type Notifier interface {
	SendToUserJSON(userID uuid.UUID, payload interface{}) error
}

// IconProcessor normalizes uploaded badge icons.
type IconProcessor interface {
	Process(r io.Reader) ([]byte, error)
	ContentType() string
}

type Service struct {
	repo       Repository
	activities ActivityPublisher
	notifier   Notifier
	storage    storage.Storage
	icons      IconProcessor
}

// NewService wires the evaluator. activities, notifier, store and icons may be nil.
func NewService(repo Repository, activities ActivityPublisher, notifier Notifier, store storage.Storage, icons IconProcessor) *Service {
	return &Service{
		repo:       repo,
		activities: activities,
		notifier:   notifier,
		storage:    store,
		icons:      icons,
	}
}

// CheckAndAwardBadges grants every unearned badge whose condition the user now meets.
// It never fails: errors are logged and yield an empty list.
func (s *Service) CheckAndAwardBadges(ctx context.Context, userID uuid.UUID) []Badge {
	none := []Badge{}

	stats, err := s.repo.GetUserStats(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("badge check: failed to load user stats")
		return none
	}
	if stats == nil {
		log.Warn().Str("user_id", userID.String()).Msg("badge check: user not found")
		return none
	}

	catalog, err := s.repo.ListBadges(ctx)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("badge check: failed to load badge catalog")
		return none
	}

	candidates := []Badge{}
	for _, b := range catalog {
		if stats.User.HasBadge(b.ID.String()) {
			continue
		}
		if b.Condition.Met(*stats) {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) == 0 {
		return none
	}

	grant, err := s.repo.GrantBadges(ctx, userID, candidates)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Int("badges", len(candidates)).Msg("badge check: failed to grant badges")
		return none
	}

	for i := range grant.Activities {
		if s.activities != nil {
			s.activities.Publish(ctx, &grant.Activities[i])
		}
	}
	for _, b := range grant.Badges {
		log.Info().Str("user_id", userID.String()).Str("badge_id", b.ID.String()).Str("badge", b.Name).Msg("badge earned")
		if s.notifier != nil {
			if err := s.notifier.SendToUserJSON(userID, realtime.Event{Type: realtime.EventBadgeEarned, Data: b}); err != nil {
				log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to publish badge")
			}
		}
	}

	return grant.Badges
}

func (s *Service) ListBadges(ctx context.Context) ([]Badge, error) {
	return s.repo.ListBadges(ctx)
}

func (s *Service) CreateBadge(ctx context.Context, req *CreateBadgeRequest) (*Badge, error) {
	b := &Badge{
		Name:               req.Name,
		Description:        req.Description,
		Icon:               req.Icon,
		XPReward:           req.XPReward,
		StreakFreezeReward: req.StreakFreezeReward,
		TriggerCondition:   req.TriggerCondition,
	}
	if err := s.repo.CreateBadge(ctx, b); err != nil {
		log.Error().Err(err).Str("badge", b.Name).Msg("failed to create badge")
		return nil, err
	}
	b.Condition = ParseCondition(b.TriggerCondition)
	return b, nil
}

func (s *Service) UpdateBadge(ctx context.Context, id uuid.UUID, req *UpdateBadgeRequest) (*Badge, error) {
	b, err := s.getBadge(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		b.Name = *req.Name
	}
	if req.Description != nil {
		b.Description = *req.Description
	}
	if req.Icon != nil {
		b.Icon = *req.Icon
	}
	if req.XPReward != nil {
		b.XPReward = *req.XPReward
	}
	if req.StreakFreezeReward != nil {
		b.StreakFreezeReward = *req.StreakFreezeReward
	}
	if req.TriggerCondition != nil {
		b.TriggerCondition = *req.TriggerCondition
		b.Condition = ParseCondition(b.TriggerCondition)
	}

	if err := s.repo.UpdateBadge(ctx, b); err != nil {
		if !errors.Is(err, ErrBadgeNotFound) {
			log.Error().Err(err).Str("badge_id", id.String()).Msg("failed to update badge")
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) DeleteBadge(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted, err := s.repo.DeleteBadge(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("badge_id", id.String()).Msg("failed to delete badge")
	}
	return deleted, err
}

// UploadIcon normalizes an image and makes its public URL the badge icon.
func (s *Service) UploadIcon(ctx context.Context, id uuid.UUID, data []byte) (*Badge, error) {
	if s.storage == nil || s.icons == nil {
		return nil, fmt.Errorf("%w: icon storage not configured", ErrInternal)
	}

	b, err := s.getBadge(ctx, id)
	if err != nil {
		return nil, err
	}

	icon, err := s.icons.Process(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	key := fmt.Sprintf("badges/%s/%s.png", id, uuid.NewString())
	if err := s.storage.Put(ctx, key, bytes.NewReader(icon), s.icons.ContentType()); err != nil {
		log.Error().Err(err).Str("badge_id", id.String()).Msg("failed to store badge icon")
		return nil, fmt.Errorf("%w: store icon: %v", ErrInternal, err)
	}

	b.Icon = s.storage.GetURL(key)
	if err := s.repo.UpdateBadge(ctx, b); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			log.Warn().Err(delErr).Str("key", key).Msg("failed to remove orphaned badge icon")
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) getBadge(ctx context.Context, id uuid.UUID) (*Badge, error) {
	b, err := s.repo.GetBadge(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBadgeNotFound
	}
	return b, nil
}

func (s *Service) ListRules(ctx context.Context) ([]Rule, error) {
	return s.repo.ListRules(ctx)
}

func (s *Service) CreateRule(ctx context.Context, req *CreateRuleRequest) (*Rule, error) {
	rule := &Rule{ActionID: req.ActionID, Description: req.Description, XPPoints: req.XPPoints}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		if !errors.Is(err, ErrRuleExists) {
			log.Error().Err(err).Str("action_id", rule.ActionID).Msg("failed to create rule")
		}
		return nil, err
	}
	return rule, nil
}

func (s *Service) UpdateRule(ctx context.Context, actionID string, req *UpdateRuleRequest) (*Rule, error) {
	rule, err := s.repo.GetRule(ctx, actionID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrRuleNotFound
	}

	if req.Description != nil {
		rule.Description = *req.Description
	}
	if req.XPPoints != nil {
		rule.XPPoints = *req.XPPoints
	}

	if err := s.repo.UpdateRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *Service) DeleteRule(ctx context.Context, actionID string) (bool, error) {
	return s.repo.DeleteRule(ctx, actionID)
}
