package repository

import (
	"context"
	"time"

	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/shared/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const maintenanceCollection = "maintenance_requests"

// MaintenanceRepository handles maintenance request data.
type MaintenanceRepository struct {
	client *mongodb.MongoClient
}

// NewMaintenanceRepository creates a new maintenance repository.
func NewMaintenanceRepository(client *mongodb.MongoClient) *MaintenanceRepository {
	return &MaintenanceRepository{client: client}
}

// EnsureIndexes creates the maintenance request indexes.
func (r *MaintenanceRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "company_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "reported_date", Value: 1},
			},
			Options: options.Index().SetName("company_status_reported_idx"),
		},
	}
	return r.client.CreateIndexes(ctx, maintenanceCollection, indexes)
}

// FindOverdue returns still-open requests reported on or before the
// threshold day.
func (r *MaintenanceRepository) FindOverdue(ctx context.Context, companyID string, threshold time.Time) ([]*domain.MaintenanceRequest, error) {
	filter := bson.M{
		"company_id":    companyID,
		"status":        bson.M{"$in": domain.OpenMaintenanceStatuses},
		"reported_date": bson.M{"$lt": domain.Day(threshold).AddDate(0, 0, 1)},
	}

	cursor, err := r.client.Collection(maintenanceCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []*domain.MaintenanceRequest
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}
