package service

import (
	"context"
	"time"

	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/metrics"
	"github.com/rentables/lease-notification-service/internal/schedule"
	"github.com/rentables/lease-notification-service/internal/shared/errors"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const contractDateLayout = "2006-01-02"

// ContractStore persists contracts together with their payment schedules.
type ContractStore interface {
	Create(ctx context.Context, contract *domain.Contract, obligations []domain.PaymentObligation) error
	FindByID(ctx context.Context, id string, companyID string) (*domain.Contract, error)
	FindObligations(ctx context.Context, contractID primitive.ObjectID) ([]*domain.PaymentObligation, error)
}

// ContractService handles contract intake. Each new contract gets its
// payment schedule generated and persisted in the same call.
type ContractService struct {
	contracts ContractStore
	generator *schedule.Generator
	logger    *logger.Logger
}

// NewContractService creates a contract service.
func NewContractService(contracts ContractStore, generator *schedule.Generator, log *logger.Logger) *ContractService {
	return &ContractService{
		contracts: contracts,
		generator: generator,
		logger:    log,
	}
}

// CreateContract validates the request, generates the payment schedule and
// persists both.
func (s *ContractService) CreateContract(ctx context.Context, companyID string, req *domain.CreateContractRequest) (*domain.Contract, []domain.PaymentObligation, error) {
	startDate, err := time.ParseInLocation(contractDateLayout, req.StartDate, time.UTC)
	if err != nil {
		return nil, nil, errors.NewValidationError("invalid start_date, expected YYYY-MM-DD", err)
	}
	endDate, err := time.ParseInLocation(contractDateLayout, req.EndDate, time.UTC)
	if err != nil {
		return nil, nil, errors.NewValidationError("invalid end_date, expected YYYY-MM-DD", err)
	}

	contract := domain.Contract{
		CompanyID:      companyID,
		ContractNumber: req.ContractNumber,
		StartDate:      startDate,
		EndDate:        endDate,
		RentAmount:     req.RentAmount,
		Frequency:      req.Frequency.Normalize(),
		Status:         domain.ContractStatusActive,
	}
	if contract.UnitID, err = parseOptionalID(req.UnitID, "unit_id"); err != nil {
		return nil, nil, err
	}
	if contract.TenantID, err = parseOptionalID(req.TenantID, "tenant_id"); err != nil {
		return nil, nil, err
	}
	if contract.OwnerID, err = parseOptionalID(req.OwnerID, "owner_id"); err != nil {
		return nil, nil, err
	}

	obligations, err := s.generator.Generate(contract)
	if err != nil {
		return nil, nil, err
	}

	if err := s.contracts.Create(ctx, &contract, obligations); err != nil {
		return nil, nil, errors.NewInternalError("failed to persist contract", err)
	}

	metrics.SchedulesGenerated.WithLabelValues(companyID, string(contract.Frequency)).Inc()
	s.logger.Info("contract created",
		"company_id", companyID,
		"contract_id", contract.ID.Hex(),
		"contract_number", contract.ContractNumber,
		"obligations", len(obligations))
	return &contract, obligations, nil
}

// IngestContract persists an externally created contract together with its
// generated schedule. Used by the contract event consumer.
func (s *ContractService) IngestContract(ctx context.Context, contract domain.Contract) error {
	if contract.CompanyID == "" {
		return errors.NewValidationError("contract is missing company_id", nil)
	}
	if contract.Status == "" {
		contract.Status = domain.ContractStatusActive
	}
	contract.Frequency = contract.Frequency.Normalize()

	obligations, err := s.generator.Generate(contract)
	if err != nil {
		return err
	}
	if err := s.contracts.Create(ctx, &contract, obligations); err != nil {
		return errors.NewInternalError("failed to persist contract", err)
	}

	metrics.SchedulesGenerated.WithLabelValues(contract.CompanyID, string(contract.Frequency)).Inc()
	s.logger.Info("contract ingested",
		"company_id", contract.CompanyID,
		"contract_number", contract.ContractNumber,
		"obligations", len(obligations))
	return nil
}

// GetContract returns one contract with its obligations.
func (s *ContractService) GetContract(ctx context.Context, companyID, id string) (*domain.Contract, []*domain.PaymentObligation, error) {
	contract, err := s.contracts.FindByID(ctx, id, companyID)
	if err != nil {
		return nil, nil, err
	}
	obligations, err := s.contracts.FindObligations(ctx, contract.ID)
	if err != nil {
		return nil, nil, err
	}
	return contract, obligations, nil
}

func parseOptionalID(raw, field string) (*primitive.ObjectID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, errors.NewValidationError("invalid "+field, err)
	}
	return &id, nil
}
