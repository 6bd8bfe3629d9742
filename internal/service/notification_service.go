package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentables/lease-notification-service/internal/dispatch"
	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/metrics"
	"github.com/rentables/lease-notification-service/internal/queue"
	"github.com/rentables/lease-notification-service/internal/shared/errors"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ad-hoc sends up to this many deliveries run synchronously so the caller
// gets log IDs back. Larger batches go through the delivery queue.
const syncDeliveryLimit = 10

// NotificationStore is the notification persistence the service needs.
type NotificationStore interface {
	Create(ctx context.Context, notification *domain.Notification) error
	FindByID(ctx context.Context, id string, companyID string) (*domain.Notification, error)
	FindByCompany(ctx context.Context, companyID string, status domain.NotificationStatus, priority domain.NotificationPriority, page, pageSize int) ([]*domain.Notification, int64, error)
	MarkRead(ctx context.Context, id string, companyID string) error
	MarkAllRead(ctx context.Context, companyID string) (int64, error)
	Stats(ctx context.Context, companyID string) (*domain.NotificationStats, error)
}

// LogReader loads the channel logs attached to a notification.
type LogReader interface {
	FindByNotification(ctx context.Context, notificationID primitive.ObjectID) ([]*domain.ChannelLog, error)
}

// Sender performs one synchronous channel delivery.
type Sender interface {
	Dispatch(ctx context.Context, n *domain.Notification, channel domain.Channel, recipient string, msg dispatch.Message) (*dispatch.Outcome, error)
}

// EvaluationRunner executes one rule evaluation pass.
type EvaluationRunner interface {
	Run(ctx context.Context, now time.Time) (*domain.EvaluationReport, error)
}

// NotificationService exposes notification operations: ad-hoc sends, read
// state, stats and manual rule evaluation.
type NotificationService struct {
	notifications NotificationStore
	logs          LogReader
	dispatcher    Sender
	queue         *queue.PriorityQueue
	evaluator     EvaluationRunner
	logger        *logger.Logger
}

// NewNotificationService creates a notification service.
func NewNotificationService(
	notifications NotificationStore,
	logs LogReader,
	dispatcher Sender,
	deliveryQueue *queue.PriorityQueue,
	evaluator EvaluationRunner,
	log *logger.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		logs:          logs,
		dispatcher:    dispatcher,
		queue:         deliveryQueue,
		evaluator:     evaluator,
		logger:        log,
	}
}

// Send performs an ad-hoc notification send. Small batches are delivered
// synchronously and return their channel log IDs; larger batches are
// queued for the delivery workers.
func (s *NotificationService) Send(ctx context.Context, companyID string, req *domain.SendNotificationRequest) (*domain.SendNotificationResult, error) {
	if req.Title == "" || req.Message == "" {
		return nil, errors.NewValidationError("title and message are required", nil)
	}
	if !req.Channels.Any() {
		return nil, errors.NewValidationError("at least one channel must be enabled", nil)
	}
	if len(req.Recipients) == 0 {
		return nil, errors.NewValidationError("at least one recipient is required", nil)
	}

	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}
	typeID := req.TypeID
	if typeID == "" {
		typeID = "adhoc"
	}

	notification := &domain.Notification{
		CompanyID: companyID,
		TypeID:    typeID,
		Title:     req.Title,
		Message:   req.Message,
		Priority:  priority,
		Requested: req.Channels,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, errors.NewInternalError("failed to create notification", err)
	}
	metrics.NotificationsCreated.WithLabelValues(typeID, companyID, "adhoc").Inc()

	type target struct {
		channel domain.Channel
		address string
	}
	var targets []target
	for _, recipient := range req.Recipients {
		for _, ch := range domain.AllChannels {
			if !req.Channels.Enabled(ch) {
				continue
			}
			address := recipient.Phone
			if ch == domain.ChannelEmail {
				address = recipient.Email
			}
			if address == "" {
				continue
			}
			targets = append(targets, target{channel: ch, address: address})
		}
	}

	result := &domain.SendNotificationResult{NotificationID: notification.ID.Hex()}
	msg := dispatch.Message{Subject: req.Title, Body: req.Message}

	if len(targets) <= syncDeliveryLimit {
		for _, t := range targets {
			outcome, err := s.dispatcher.Dispatch(ctx, notification, t.channel, t.address, msg)
			if err != nil {
				s.logger.Warn("ad-hoc dispatch rejected",
					"notification_id", notification.ID.Hex(),
					"channel", t.channel,
					"error", err)
				continue
			}
			result.ChannelLogIDs = append(result.ChannelLogIDs, outcome.LogID.Hex())
		}
		return result, nil
	}

	jobPriority := queue.FromNotificationPriority(priority)
	for _, t := range targets {
		s.queue.Push(&queue.DeliveryJob{
			ID:           uuid.New().String(),
			Priority:     jobPriority,
			Notification: notification,
			Channel:      t.channel,
			Recipient:    t.address,
			Message:      msg,
		})
	}
	metrics.DeliveryQueueSize.Set(float64(s.queue.Len()))
	result.Queued = len(targets)
	s.logger.Info("ad-hoc deliveries queued",
		"notification_id", notification.ID.Hex(),
		"queued", len(targets))
	return result, nil
}

// RunEvaluation triggers one rule evaluation pass as of now.
func (s *NotificationService) RunEvaluation(ctx context.Context, now time.Time) (*domain.EvaluationReport, error) {
	return s.evaluator.Run(ctx, now)
}

// GetNotifications lists a company's notifications with optional filters.
func (s *NotificationService) GetNotifications(ctx context.Context, companyID string, req *domain.GetNotificationsRequest) ([]*domain.Notification, int64, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.notifications.FindByCompany(ctx, companyID, req.Status, req.Priority, page, pageSize)
}

// GetNotification returns one notification with its channel logs.
func (s *NotificationService) GetNotification(ctx context.Context, companyID, id string) (*domain.Notification, []*domain.ChannelLog, error) {
	notification, err := s.notifications.FindByID(ctx, id, companyID)
	if err != nil {
		return nil, nil, err
	}
	logs, err := s.logs.FindByNotification(ctx, notification.ID)
	if err != nil {
		return nil, nil, err
	}
	return notification, logs, nil
}

// MarkRead marks one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, companyID, id string) error {
	return s.notifications.MarkRead(ctx, id, companyID)
}

// MarkAllRead marks every unread notification as read and returns the
// count.
func (s *NotificationService) MarkAllRead(ctx context.Context, companyID string) (int64, error) {
	return s.notifications.MarkAllRead(ctx, companyID)
}

// GetStats returns notification counters for a company.
func (s *NotificationService) GetStats(ctx context.Context, companyID string) (*domain.NotificationStats, error) {
	return s.notifications.Stats(ctx, companyID)
}
