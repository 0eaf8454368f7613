package promocode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/brainqy/alumni-api/internal/domain/activity"
	"github.com/brainqy/alumni-api/internal/domain/gamification"
	"github.com/brainqy/alumni-api/internal/domain/user"
	"github.com/brainqy/alumni-api/internal/domain/wallet"
)

type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type BadgeChecker interface {
	CheckAndAwardBadges(ctx context.Context, userID uuid.UUID) []gamification.Badge
}

type ActivityPublisher interface {
	Publish(ctx context.Context, a *activity.Activity)
}

type Service struct {
	repo         Repository
	users        UserReader
	badges       BadgeChecker
	activities   ActivityPublisher
	flashCoinTTL time.Duration
	now          func() time.Time
}

func NewService(repo Repository, users UserReader, badges BadgeChecker, activities ActivityPublisher, flashCoinTTL time.Duration) *Service {
	return &Service{
		repo:         repo,
		users:        users,
		badges:       badges,
		activities:   activities,
		flashCoinTTL: flashCoinTTL,
		now:          time.Now,
	}
}

func (s *Service) List(ctx context.Context, tenantID *string) ([]PromoCode, error) {
	items, err := s.repo.List(ctx, tenantID)
	if err != nil {
		log.Error().Err(err).Msg("failed to list promo codes")
		return nil, err
	}
	return items, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*PromoCode, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPromoCodeNotFound
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, req *CreateRequest) (*PromoCode, error) {
	p := &PromoCode{
		Code:        NormalizeCode(req.Code),
		TenantID:    req.TenantID,
		IsActive:    true,
		ExpiresAt:   req.ExpiresAt,
		UsageLimit:  req.UsageLimit,
		RewardType:  RewardType(req.RewardType),
		RewardValue: req.RewardValue,
		Description: req.Description,
	}
	if p.TenantID == "" {
		p.TenantID = user.PlatformTenant
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if !errors.Is(err, ErrCodeExists) {
			log.Error().Err(err).Str("promo_code", p.Code).Msg("failed to create promo code")
		}
		return nil, err
	}

	log.Info().Str("promo_code", p.Code).Str("tenant_id", p.TenantID).Msg("promo code created")
	return p, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateRequest) (*PromoCode, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		p.Code = NormalizeCode(*req.Code)
	}
	if req.TenantID != nil {
		p.TenantID = *req.TenantID
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.ClearExpiry {
		p.ExpiresAt = nil
	} else if req.ExpiresAt != nil {
		p.ExpiresAt = req.ExpiresAt
	}
	if req.UsageLimit != nil {
		p.UsageLimit = *req.UsageLimit
	}
	if req.RewardType != nil {
		p.RewardType = RewardType(*req.RewardType)
	}
	if req.RewardValue != nil {
		p.RewardValue = *req.RewardValue
	}
	if req.Description != nil {
		p.Description = *req.Description
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if !errors.Is(err, ErrCodeExists) && !errors.Is(err, ErrPromoCodeNotFound) {
			log.Error().Err(err).Str("promo_code_id", id.String()).Msg("failed to update promo code")
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("promo_code_id", id.String()).Msg("failed to delete promo code")
		return false, err
	}
	return deleted, nil
}

// Redeem validates code for the user and applies its reward atomically.
// Checks run in a fixed order and the first failing one decides the message.
func (s *Service) Redeem(ctx context.Context, code string, userID uuid.UUID) RedeemResult {
	promo, err := s.repo.GetByCode(ctx, NormalizeCode(code))
	if err != nil {
		return s.unexpected(err, code, userID)
	}
	if msg := codeRejection(promo, s.now()); msg != "" {
		return rejected(msg)
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return s.unexpected(err, promo.Code, userID)
	}
	if u == nil {
		return rejected(MsgUserNotFound)
	}
	if !u.InTenant(promo.TenantID) {
		return rejected(MsgWrongTenant)
	}

	var recorded *activity.Activity
	err = s.repo.WithinRedemption(ctx, func(tx RedemptionTx) error {
		ok, err := tx.IncrementUsage(ctx, promo.ID, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return errCodeUnavailable
		}

		if err := s.applyReward(ctx, tx, promo, u); err != nil {
			return err
		}

		recorded = &activity.Activity{
			UserID:      u.ID,
			TenantID:    u.TenantID,
			Description: fmt.Sprintf("Redeemed promo code %s for %d %s.", promo.Code, promo.RewardValue, promo.RewardType.Label()),
		}
		return tx.RecordActivity(ctx, recorded)
	})
	if errors.Is(err, errCodeUnavailable) {
		return s.recheck(ctx, promo, userID)
	}
	if err != nil {
		return s.unexpected(err, promo.Code, userID)
	}

	log.Info().
		Str("promo_code", promo.Code).
		Str("user_id", userID.String()).
		Str("reward_type", string(promo.RewardType)).
		Int("reward_value", promo.RewardValue).
		Msg("promo code redeemed")

	if s.activities != nil {
		s.activities.Publish(ctx, recorded)
	}
	if s.badges != nil {
		s.badges.CheckAndAwardBadges(ctx, userID)
	}

	return RedeemResult{
		Success:     true,
		Message:     fmt.Sprintf("Success! You received %d %s.", promo.RewardValue, promo.RewardType.Label()),
		RewardType:  promo.RewardType,
		RewardValue: promo.RewardValue,
	}
}

// codeRejection returns the message for the first code-level check that fails, or "".
func codeRejection(promo *PromoCode, now time.Time) string {
	switch {
	case promo == nil:
		return MsgInvalidCode
	case !promo.IsActive:
		return MsgInactive
	case promo.IsExpired(now):
		return MsgExpired
	case promo.IsExhausted():
		return MsgUsageLimit
	}
	return ""
}

// recheck explains a redemption whose code was deleted, deactivated, expired or used up
// between the checks and the transaction.
func (s *Service) recheck(ctx context.Context, promo *PromoCode, userID uuid.UUID) RedeemResult {
	current, err := s.repo.GetByID(ctx, promo.ID)
	if err != nil {
		return s.unexpected(err, promo.Code, userID)
	}
	if msg := codeRejection(current, s.now()); msg != "" {
		return rejected(msg)
	}
	return rejected(MsgUsageLimit)
}

func (s *Service) applyReward(ctx context.Context, tx RedemptionTx, promo *PromoCode, u *user.User) error {
	switch promo.RewardType {
	case RewardCoins, RewardFlashCoins:
		w, err := tx.Wallet().LockByUserID(ctx, u.ID)
		if err != nil {
			return err
		}
		if w == nil {
			return errWalletMissing
		}

		description := fmt.Sprintf("Redeemed promo code %s", promo.Code)
		if promo.RewardType == RewardCoins {
			coins := w.Coins + int64(promo.RewardValue)
			return wallet.ApplyToLocked(ctx, tx.Wallet(), w, wallet.Update{Coins: &coins}, description)
		}

		grants := make(wallet.FlashCoins, 0, len(w.FlashCoins)+1)
		grants = append(grants, w.FlashCoins...)
		grants = append(grants, wallet.FlashCoin{
			ID:        uuid.NewString(),
			Amount:    int64(promo.RewardValue),
			ExpiresAt: s.now().Add(s.flashCoinTTL).UTC(),
			Source:    promo.Code,
		})
		return wallet.ApplyToLocked(ctx, tx.Wallet(), w, wallet.Update{FlashCoins: &grants}, description)

	case RewardXP:
		return tx.AddXP(ctx, u.ID, promo.RewardValue)

	case RewardStreakFreeze:
		return tx.AddStreakFreezes(ctx, u.ID, promo.RewardValue)

	case RewardPremiumDays:
		// TODO: extend the subscription once premium expiry is stored on the profile.
		log.Info().Str("user_id", u.ID.String()).Int("days", promo.RewardValue).Msg("premium days reward is not applied yet")
		return nil
	}
	return fmt.Errorf("%w: unknown reward type %q", ErrInternal, promo.RewardType)
}

func (s *Service) unexpected(err error, code string, userID uuid.UUID) RedeemResult {
	log.Error().Err(err).Str("promo_code", code).Str("user_id", userID.String()).Msg("promo code redemption failed")
	return rejected(MsgUnexpectedFail)
}
