package repository

import (
	"context"

	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/shared/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const peopleCollection = "people"

// PersonRepository handles tenant, owner and manager contact data.
type PersonRepository struct {
	client *mongodb.MongoClient
}

// NewPersonRepository creates a new person repository.
func NewPersonRepository(client *mongodb.MongoClient) *PersonRepository {
	return &PersonRepository{client: client}
}

// EnsureIndexes creates the people indexes.
func (r *PersonRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "company_id", Value: 1},
				{Key: "role", Value: 1},
			},
			Options: options.Index().SetName("company_role_idx"),
		},
	}
	return r.client.CreateIndexes(ctx, peopleCollection, indexes)
}

// FindByObjectID loads a person by ID.
func (r *PersonRepository) FindByObjectID(ctx context.Context, id primitive.ObjectID) (*domain.Person, error) {
	var person domain.Person
	err := r.client.Collection(peopleCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&person)
	if err != nil {
		return nil, err
	}
	return &person, nil
}

// FindManagers returns a company's managers.
func (r *PersonRepository) FindManagers(ctx context.Context, companyID string) ([]*domain.Person, error) {
	filter := bson.M{
		"company_id": companyID,
		"role":       domain.RoleManager,
	}

	cursor, err := r.client.Collection(peopleCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var people []*domain.Person
	if err = cursor.All(ctx, &people); err != nil {
		return nil, err
	}
	return people, nil
}
