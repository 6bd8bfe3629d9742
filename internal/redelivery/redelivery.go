package redelivery

import (
	"context"

	"github.com/rentables/lease-notification-service/internal/dispatch"
	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/shared/errors"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
)

// LogSource provides channel log reads for redelivery.
type LogSource interface {
	FindByID(ctx context.Context, id string) (*domain.ChannelLog, error)
	FindFailed(ctx context.Context, companyID string, page, pageSize int) ([]*domain.ChannelLog, int64, error)
}

// NotificationSource loads the notification a failed delivery belongs to.
type NotificationSource interface {
	FindByID(ctx context.Context, id, companyID string) (*domain.Notification, error)
}

// Sender re-attempts the channel send. Satisfied by the dispatcher.
type Sender interface {
	Dispatch(ctx context.Context, n *domain.Notification, channel domain.Channel, recipient string, msg dispatch.Message) (*dispatch.Outcome, error)
}

// Service lists failed channel deliveries and re-dispatches them on
// demand. There is no automatic retry; a failed send stays failed until an
// operator redelivers it.
type Service struct {
	logs          LogSource
	notifications NotificationSource
	dispatcher    Sender
	logger        *logger.Logger
}

// NewService creates a redelivery service.
func NewService(
	logs LogSource,
	notifications NotificationSource,
	dispatcher Sender,
	log *logger.Logger,
) *Service {
	return &Service{
		logs:          logs,
		notifications: notifications,
		dispatcher:    dispatcher,
		logger:        log,
	}
}

// ListFailed returns a company's failed deliveries, newest first.
func (s *Service) ListFailed(ctx context.Context, companyID string, page, pageSize int) ([]*domain.ChannelLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.logs.FindFailed(ctx, companyID, page, pageSize)
}

// Redeliver re-attempts one failed delivery. The attempt produces a fresh
// channel log; the original failed row is kept as history.
func (s *Service) Redeliver(ctx context.Context, companyID, logID string) (*dispatch.Outcome, error) {
	log, err := s.logs.FindByID(ctx, logID)
	if err != nil {
		return nil, errors.NewNotFoundError("channel log not found", err)
	}
	if log.CompanyID != companyID {
		return nil, errors.NewNotFoundError("channel log not found", nil)
	}
	if log.Status != domain.DeliveryStatusFailed {
		return nil, errors.NewValidationError("only failed deliveries can be redelivered", nil)
	}

	notification, err := s.notifications.FindByID(ctx, log.NotificationID.Hex(), companyID)
	if err != nil {
		return nil, errors.NewNotFoundError("notification not found", err)
	}

	s.logger.Info("redelivering failed notification",
		"channel_log_id", log.ID.Hex(),
		"notification_id", notification.ID.Hex(),
		"channel", log.Channel)

	msg := dispatch.Message{Subject: log.Subject, Body: log.Message}
	return s.dispatcher.Dispatch(ctx, notification, log.Channel, log.Recipient, msg)
}
