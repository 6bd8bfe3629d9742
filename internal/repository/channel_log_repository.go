package repository

import (
	"context"
	"time"

	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/shared/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const channelLogsCollection = "channel_logs"

// ChannelLogRepository handles delivery-attempt records across all channels.
type ChannelLogRepository struct {
	client *mongodb.MongoClient
}

// NewChannelLogRepository creates a new channel log repository.
func NewChannelLogRepository(client *mongodb.MongoClient) *ChannelLogRepository {
	return &ChannelLogRepository{client: client}
}

// EnsureIndexes creates the channel log indexes.
func (r *ChannelLogRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "notification_id", Value: 1},
				{Key: "channel", Value: 1},
			},
			Options: options.Index().SetName("notification_channel_idx"),
		},
		{
			Keys: bson.D{
				{Key: "company_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("company_status_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "provider_id", Value: 1}},
			Options: options.Index().SetName("provider_idx").SetSparse(true),
		},
	}

	return r.client.CreateIndexes(ctx, channelLogsCollection, indexes)
}

// Create inserts a new channel log row, normally in status pending.
func (r *ChannelLogRepository) Create(ctx context.Context, log *domain.ChannelLog) error {
	log.ID = primitive.NewObjectID()
	log.CreatedAt = time.Now().UTC()
	if log.Status == "" {
		log.Status = domain.DeliveryStatusPending
	}

	_, err := r.client.Collection(channelLogsCollection).InsertOne(ctx, log)
	return err
}

// MarkSent records a successful send with its timestamp and the provider's
// message ID, which delivery-status callbacks use to find the row.
func (r *ChannelLogRepository) MarkSent(ctx context.Context, id primitive.ObjectID, providerID string, sentAt time.Time) error {
	filter := bson.M{"_id": id}
	set := bson.M{
		"status":  domain.DeliveryStatusSent,
		"sent_at": sentAt,
	}
	if providerID != "" {
		set["provider_id"] = providerID
	}
	update := bson.M{"$set": set}

	_, err := r.client.Collection(channelLogsCollection).UpdateOne(ctx, filter, update)
	return err
}

// MarkFailed records a failed send. The sent timestamp stays unset.
func (r *ChannelLogRepository) MarkFailed(ctx context.Context, id primitive.ObjectID, errorMessage string) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"status":        domain.DeliveryStatusFailed,
			"error_message": errorMessage,
		},
	}

	_, err := r.client.Collection(channelLogsCollection).UpdateOne(ctx, filter, update)
	return err
}

// FindByID finds a channel log by ID.
func (r *ChannelLogRepository) FindByID(ctx context.Context, id string) (*domain.ChannelLog, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var log domain.ChannelLog
	err = r.client.Collection(channelLogsCollection).FindOne(ctx, bson.M{"_id": objectID}).Decode(&log)
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// FindByNotification lists the delivery attempts of one notification.
func (r *ChannelLogRepository) FindByNotification(ctx context.Context, notificationID primitive.ObjectID) ([]*domain.ChannelLog, error) {
	cursor, err := r.client.Collection(channelLogsCollection).Find(ctx, bson.M{"notification_id": notificationID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []*domain.ChannelLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// FindFailed lists failed delivery attempts for a company, newest first.
func (r *ChannelLogRepository) FindFailed(ctx context.Context, companyID string, page, pageSize int) ([]*domain.ChannelLog, int64, error) {
	filter := bson.M{"company_id": companyID, "status": domain.DeliveryStatusFailed}

	total, err := r.client.Collection(channelLogsCollection).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	skip := (page - 1) * pageSize
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(pageSize)).
		SetSort(bson.M{"created_at": -1})

	cursor, err := r.client.Collection(channelLogsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var logs []*domain.ChannelLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// deliveryStatusFilter matches the log row carrying the provider message
// id. Read receipts only exist on WhatsApp, so a read status additionally
// requires the whatsapp channel and leaves other channels untouched.
func deliveryStatusFilter(providerID string, status domain.DeliveryStatus) bson.M {
	filter := bson.M{"provider_id": providerID}
	if status == domain.DeliveryStatusRead {
		filter["channel"] = domain.ChannelWhatsApp
	}
	return filter
}

// UpdateDeliveryStatus applies a provider callback (delivered or read) to
// the log row matching the provider message id.
func (r *ChannelLogRepository) UpdateDeliveryStatus(ctx context.Context, providerID string, status domain.DeliveryStatus, at time.Time) error {
	set := bson.M{"status": status}
	switch status {
	case domain.DeliveryStatusDelivered:
		set["delivered_at"] = at
	case domain.DeliveryStatusRead:
		set["read_at"] = at
	}

	result, err := r.client.Collection(channelLogsCollection).UpdateOne(ctx, deliveryStatusFilter(providerID, status), bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
