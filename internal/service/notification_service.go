package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/eventverse/chat-api/internal/models"
	"github.com/eventverse/chat-api/internal/realtime"
	"github.com/eventverse/chat-api/internal/repository"
)

// Notifier delivers out-of-band notifications, for example group invites.
type Notifier interface {
	Notify(ctx context.Context, recipientID, senderID int64, kind, message string) error
}

type notificationService struct {
	repo   repository.NotificationRepository
	hub    *realtime.Hub
	logger zerolog.Logger
}

// NewNotificationService persists notification rows and pushes them to the
// recipient's inbox room when the recipient is connected.
func NewNotificationService(repo repository.NotificationRepository, hub *realtime.Hub, logger zerolog.Logger) Notifier {
	return &notificationService{
		repo:   repo,
		hub:    hub,
		logger: logger.With().Str("component", "notification_service").Logger(),
	}
}

func (s *notificationService) Notify(ctx context.Context, recipientID, senderID int64, kind, message string) error {
	notification := models.Notification{
		UserID:   recipientID,
		SenderID: senderID,
		Type:     kind,
		Message:  message,
	}
	if err := s.repo.Create(ctx, &notification); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.BroadcastToUser(recipientID, realtime.Event{
			Name:    "notification",
			Payload: notification,
		})
	}

	s.logger.Debug().
		Int64("recipient_id", recipientID).
		Str("type", kind).
		Msg("notification delivered")
	return nil
}
