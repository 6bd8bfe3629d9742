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

const (
	contractsCollection   = "contracts"
	obligationsCollection = "payment_obligations"
)

// ContractRepository handles contract and payment obligation data.
type ContractRepository struct {
	client *mongodb.MongoClient
}

// NewContractRepository creates a new contract repository.
func NewContractRepository(client *mongodb.MongoClient) *ContractRepository {
	return &ContractRepository{client: client}
}

// EnsureIndexes creates the contract and obligation indexes.
func (r *ContractRepository) EnsureIndexes(ctx context.Context) error {
	contractIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "company_id", Value: 1},
				{Key: "contract_number", Value: 1},
			},
			Options: options.Index().SetName("company_number_idx").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "company_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "end_date", Value: 1},
			},
			Options: options.Index().SetName("company_status_end_idx"),
		},
	}
	if err := r.client.CreateIndexes(ctx, contractsCollection, contractIndexes); err != nil {
		return err
	}

	obligationIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "contract_id", Value: 1},
				{Key: "sequence", Value: 1},
			},
			Options: options.Index().SetName("contract_sequence_idx").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "company_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "due_date", Value: 1},
			},
			Options: options.Index().SetName("company_status_due_idx"),
		},
	}
	return r.client.CreateIndexes(ctx, obligationsCollection, obligationIndexes)
}

// Create inserts a contract together with its payment obligations.
func (r *ContractRepository) Create(ctx context.Context, contract *domain.Contract, obligations []domain.PaymentObligation) error {
	now := time.Now().UTC()
	contract.ID = primitive.NewObjectID()
	contract.CreatedAt = now
	contract.UpdatedAt = now
	if contract.Status == "" {
		contract.Status = domain.ContractStatusActive
	}

	if _, err := r.client.Collection(contractsCollection).InsertOne(ctx, contract); err != nil {
		return err
	}

	if len(obligations) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(obligations))
	for i := range obligations {
		obligations[i].ID = primitive.NewObjectID()
		obligations[i].ContractID = contract.ID
		obligations[i].CompanyID = contract.CompanyID
		obligations[i].CreatedAt = now
		obligations[i].UpdatedAt = now
		docs = append(docs, obligations[i])
	}

	_, err := r.client.Collection(obligationsCollection).InsertMany(ctx, docs)
	return err
}

// FindByID finds a contract by ID scoped to a company.
func (r *ContractRepository) FindByID(ctx context.Context, id string, companyID string) (*domain.Contract, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var contract domain.Contract
	err = r.client.Collection(contractsCollection).
		FindOne(ctx, bson.M{"_id": objectID, "company_id": companyID}).
		Decode(&contract)
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// FindByObjectID finds a contract by object ID regardless of company. Used
// internally for recipient resolution of payment notifications.
func (r *ContractRepository) FindByObjectID(ctx context.Context, id primitive.ObjectID) (*domain.Contract, error) {
	var contract domain.Contract
	err := r.client.Collection(contractsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&contract)
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// FindActiveEndingOn returns active contracts whose end date falls exactly
// on the given day.
func (r *ContractRepository) FindActiveEndingOn(ctx context.Context, companyID string, day time.Time) ([]*domain.Contract, error) {
	day = domain.Day(day)
	filter := bson.M{
		"company_id": companyID,
		"status":     domain.ContractStatusActive,
		"end_date": bson.M{
			"$gte": day,
			"$lt":  day.AddDate(0, 0, 1),
		},
	}

	cursor, err := r.client.Collection(contractsCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var contracts []*domain.Contract
	if err = cursor.All(ctx, &contracts); err != nil {
		return nil, err
	}
	return contracts, nil
}

// FindObligations lists a contract's obligations in sequence order.
func (r *ContractRepository) FindObligations(ctx context.Context, contractID primitive.ObjectID) ([]*domain.PaymentObligation, error) {
	opts := options.Find().SetSort(bson.M{"sequence": 1})
	cursor, err := r.client.Collection(obligationsCollection).Find(ctx, bson.M{"contract_id": contractID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var obligations []*domain.PaymentObligation
	if err = cursor.All(ctx, &obligations); err != nil {
		return nil, err
	}
	return obligations, nil
}

// FindPendingDueOn returns pending obligations whose due date falls exactly
// on the given day.
func (r *ContractRepository) FindPendingDueOn(ctx context.Context, companyID string, day time.Time) ([]*domain.PaymentObligation, error) {
	day = domain.Day(day)
	filter := bson.M{
		"company_id": companyID,
		"status":     domain.ObligationStatusPending,
		"due_date": bson.M{
			"$gte": day,
			"$lt":  day.AddDate(0, 0, 1),
		},
	}

	cursor, err := r.client.Collection(obligationsCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var obligations []*domain.PaymentObligation
	if err = cursor.All(ctx, &obligations); err != nil {
		return nil, err
	}
	return obligations, nil
}
