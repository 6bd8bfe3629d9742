package webhook

import (
	"context"
	"time"

	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/shared/errors"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
)

// StatusStore applies a provider-reported status change to the channel
// log carrying that provider message ID. A read status only matches
// WhatsApp logs; for any other channel the store reports no match.
type StatusStore interface {
	UpdateDeliveryStatus(ctx context.Context, providerID string, status domain.DeliveryStatus, at time.Time) error
}

// StatusProcessor applies provider delivery-status callbacks to channel
// logs. SMS and WhatsApp providers report asynchronous delivery progress
// keyed by the provider message ID.
type StatusProcessor struct {
	logs   StatusStore
	logger *logger.Logger
}

// NewStatusProcessor creates a status processor.
func NewStatusProcessor(logs StatusStore, log *logger.Logger) *StatusProcessor {
	return &StatusProcessor{logs: logs, logger: log}
}

// Process validates and applies one callback event.
func (p *StatusProcessor) Process(ctx context.Context, event *domain.DeliveryStatusEvent) error {
	switch event.Status {
	case domain.DeliveryStatusDelivered, domain.DeliveryStatusRead, domain.DeliveryStatusFailed:
	default:
		return errors.NewValidationError("unsupported delivery status "+string(event.Status), nil)
	}

	at := event.Timestamp
	if at.IsZero() {
		at = time.Now().UTC()
	}

	if err := p.logs.UpdateDeliveryStatus(ctx, event.ProviderID, event.Status, at); err != nil {
		return errors.NewNotFoundError("no delivery found for provider id", err)
	}

	p.logger.Debug("delivery status updated",
		"provider_id", event.ProviderID,
		"status", event.Status)
	return nil
}
