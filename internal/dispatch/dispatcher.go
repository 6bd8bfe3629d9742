package dispatch

import (
	"context"
	"time"

	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/metrics"
	"github.com/rentables/lease-notification-service/internal/shared/errors"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LogStore persists channel logs and their delivery-state transitions.
type LogStore interface {
	Create(ctx context.Context, log *domain.ChannelLog) error
	MarkSent(ctx context.Context, id primitive.ObjectID, providerID string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id primitive.ObjectID, errorMessage string) error
}

// SentMarker flips a notification's per-channel sent flag.
type SentMarker interface {
	MarkChannelSent(ctx context.Context, id primitive.ObjectID, channel domain.Channel) error
}

// Outcome reports one delivery attempt.
type Outcome struct {
	LogID   primitive.ObjectID
	Channel domain.Channel
	Status  domain.DeliveryStatus
	Error   string
}

// Dispatcher performs channel sends and durably records their outcomes.
// Each channel attempt is independent: one channel failing never prevents
// log creation or sends on the others, and a send failure is recorded on
// the log row rather than returned as an error.
type Dispatcher struct {
	gateways Registry
	logs     LogStore
	marker   SentMarker
	timeout  time.Duration
	logger   *logger.Logger
}

// NewDispatcher creates a dispatcher. Every gateway call is bounded by
// timeout so a hanging provider cannot stall a scheduler tick.
func NewDispatcher(gateways Registry, logs LogStore, marker SentMarker, timeout time.Duration, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		gateways: gateways,
		logs:     logs,
		marker:   marker,
		timeout:  timeout,
		logger:   log,
	}
}

// Dispatch attempts one send on one channel and records the outcome on a
// new channel log. An error return means the message could not be
// constructed and no log row exists; a failed gateway call returns a
// failed Outcome and a nil error.
func (d *Dispatcher) Dispatch(ctx context.Context, n *domain.Notification, channel domain.Channel, recipient string, msg Message) (*Outcome, error) {
	if recipient == "" {
		return nil, errors.NewValidationError("recipient address is empty", nil)
	}
	if msg.Body == "" {
		return nil, errors.NewValidationError("message body is empty", nil)
	}
	gateway, ok := d.gateways[channel]
	if !ok {
		return nil, errors.NewConfigurationError("no gateway configured for channel "+string(channel), nil)
	}

	log := &domain.ChannelLog{
		CompanyID:      n.CompanyID,
		NotificationID: n.ID,
		Channel:        channel,
		Recipient:      recipient,
		Subject:        msg.Subject,
		Message:        msg.Body,
	}
	if err := d.logs.Create(ctx, log); err != nil {
		return nil, errors.NewInternalError("failed to create channel log", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	providerID, err := gateway.Send(sendCtx, recipient, msg)
	metrics.DeliveryDuration.WithLabelValues(string(channel)).Observe(time.Since(start).Seconds())

	if err != nil {
		if markErr := d.logs.MarkFailed(ctx, log.ID, err.Error()); markErr != nil {
			d.logger.Error("failed to record delivery failure",
				"channel_log_id", log.ID.Hex(),
				"error", markErr)
		}
		d.logger.Warn("channel delivery failed",
			"notification_id", n.ID.Hex(),
			"channel", channel,
			"recipient", recipient,
			"error", err)
		metrics.Deliveries.WithLabelValues(string(channel), n.CompanyID, "failed").Inc()
		return &Outcome{LogID: log.ID, Channel: channel, Status: domain.DeliveryStatusFailed, Error: err.Error()}, nil
	}

	log.ProviderID = providerID
	sentAt := time.Now()
	if err := d.logs.MarkSent(ctx, log.ID, providerID, sentAt); err != nil {
		d.logger.Error("failed to record delivery success",
			"channel_log_id", log.ID.Hex(),
			"error", err)
	}
	if err := d.marker.MarkChannelSent(ctx, n.ID, channel); err != nil {
		d.logger.Error("failed to flag notification channel as sent",
			"notification_id", n.ID.Hex(),
			"channel", channel,
			"error", err)
	}
	metrics.Deliveries.WithLabelValues(string(channel), n.CompanyID, "sent").Inc()
	return &Outcome{LogID: log.ID, Channel: channel, Status: domain.DeliveryStatusSent}, nil
}

// Timeout returns the per-send gateway timeout.
func (d *Dispatcher) Timeout() time.Duration {
	return d.timeout
}
