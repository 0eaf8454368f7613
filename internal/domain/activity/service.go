package activity

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/brainqy/alumni-api/internal/domain/realtime"
)

// Notifier pushes JSON payloads to a user's live connections.
type Notifier interface {
	SendToUserJSON(userID uuid.UUID, payload interface{}) error
}

type Service struct {
	repo     Repository
	notifier Notifier
}

// NewService creates the activity service; notifier may be nil.
func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

// Publish notifies the owner of a committed activity. Delivery is best effort.
func (s *Service) Publish(_ context.Context, a *Activity) {
	if s.notifier == nil || a == nil {
		return
	}
	if err := s.notifier.SendToUserJSON(a.UserID, realtime.Event{Type: realtime.EventActivityNew, Data: a}); err != nil {
		log.Warn().Err(err).Str("user_id", a.UserID.String()).Msg("failed to publish activity")
	}
}
