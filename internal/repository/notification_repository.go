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

const notificationsCollection = "notifications"

// NotificationRepository handles notification data operations.
type NotificationRepository struct {
	client *mongodb.MongoClient
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(client *mongodb.MongoClient) *NotificationRepository {
	return &NotificationRepository{client: client}
}

// EnsureIndexes creates the notification indexes. The unique sparse index on
// dedup_key is what makes the check-then-create sequence safe against
// concurrent evaluator and ad-hoc writers.
func (r *NotificationRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "dedup_key", Value: 1}},
			Options: options.Index().SetName("dedup_key_idx").SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{
				{Key: "company_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("company_created_idx"),
		},
		{
			Keys: bson.D{
				{Key: "company_id", Value: 1},
				{Key: "entity.kind", Value: 1},
				{Key: "entity.id", Value: 1},
				{Key: "type_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("entity_type_created_idx"),
		},
	}

	return r.client.CreateIndexes(ctx, notificationsCollection, indexes)
}

// Create inserts a new notification. A duplicate dedup_key surfaces as a
// mongo duplicate-key write error; callers treat that as "already notified".
func (r *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = time.Now().UTC()
	notification.UpdatedAt = notification.CreatedAt
	if notification.Status == "" {
		notification.Status = domain.NotificationStatusUnread
	}
	if notification.Priority == "" {
		notification.Priority = domain.PriorityNormal
	}

	_, err := r.client.Collection(notificationsCollection).InsertOne(ctx, notification)
	return err
}

// IsDuplicate reports whether err is a duplicate-key violation on insert.
func IsDuplicate(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// ExistsForEntitySince reports whether a notification for the same entity
// and notification type was created at or after windowStart.
func (r *NotificationRepository) ExistsForEntitySince(ctx context.Context, companyID string, entity domain.EntityRef, typeID string, windowStart time.Time) (bool, error) {
	filter := bson.M{
		"company_id":  companyID,
		"entity.kind": entity.Kind,
		"entity.id":   entity.ID,
		"type_id":     typeID,
		"created_at":  bson.M{"$gte": windowStart},
	}

	count, err := r.client.Collection(notificationsCollection).CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByID finds a notification by ID scoped to a company.
func (r *NotificationRepository) FindByID(ctx context.Context, id string, companyID string) (*domain.Notification, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var notification domain.Notification
	err = r.client.Collection(notificationsCollection).
		FindOne(ctx, bson.M{"_id": objectID, "company_id": companyID}).
		Decode(&notification)
	if err != nil {
		return nil, err
	}

	return &notification, nil
}

// FindByCompany lists notifications with optional status/priority filters
// and pagination, newest first.
func (r *NotificationRepository) FindByCompany(ctx context.Context, companyID string, status domain.NotificationStatus, priority domain.NotificationPriority, page, pageSize int) ([]*domain.Notification, int64, error) {
	filter := bson.M{"company_id": companyID}
	if status != "" {
		filter["status"] = status
	}
	if priority != "" {
		filter["priority"] = priority
	}

	total, err := r.client.Collection(notificationsCollection).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	skip := (page - 1) * pageSize
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(pageSize)).
		SetSort(bson.M{"created_at": -1})

	cursor, err := r.client.Collection(notificationsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var notifications []*domain.Notification
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// MarkRead transitions a notification to read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string, companyID string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	filter := bson.M{"_id": objectID, "company_id": companyID}
	update := bson.M{
		"$set": bson.M{
			"status":     domain.NotificationStatusRead,
			"read_at":    now,
			"updated_at": now,
		},
	}

	result, err := r.client.Collection(notificationsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MarkAllRead transitions every unread notification of a company to read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, companyID string) (int64, error) {
	now := time.Now().UTC()
	filter := bson.M{"company_id": companyID, "status": domain.NotificationStatusUnread}
	update := bson.M{
		"$set": bson.M{
			"status":     domain.NotificationStatusRead,
			"read_at":    now,
			"updated_at": now,
		},
	}

	result, err := r.client.Collection(notificationsCollection).UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// MarkChannelSent flips the per-channel sent flag after a successful
// delivery.
func (r *NotificationRepository) MarkChannelSent(ctx context.Context, id primitive.ObjectID, channel domain.Channel) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"sent." + string(channel): true,
			"updated_at":              time.Now().UTC(),
		},
	}

	_, err := r.client.Collection(notificationsCollection).UpdateOne(ctx, filter, update)
	return err
}

// Stats summarizes notification load for a company.
func (r *NotificationRepository) Stats(ctx context.Context, companyID string) (*domain.NotificationStats, error) {
	coll := r.client.Collection(notificationsCollection)

	total, err := coll.CountDocuments(ctx, bson.M{"company_id": companyID})
	if err != nil {
		return nil, err
	}
	unread, err := coll.CountDocuments(ctx, bson.M{"company_id": companyID, "status": domain.NotificationStatusUnread})
	if err != nil {
		return nil, err
	}
	high, err := coll.CountDocuments(ctx, bson.M{"company_id": companyID, "status": domain.NotificationStatusUnread, "priority": domain.PriorityHigh})
	if err != nil {
		return nil, err
	}
	urgent, err := coll.CountDocuments(ctx, bson.M{"company_id": companyID, "status": domain.NotificationStatusUnread, "priority": domain.PriorityUrgent})
	if err != nil {
		return nil, err
	}

	return &domain.NotificationStats{
		Total:        total,
		Unread:       unread,
		HighPriority: high,
		Urgent:       urgent,
	}, nil
}
