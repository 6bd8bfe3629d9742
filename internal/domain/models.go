package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentFrequency represents how often rent is collected under a lease.
type PaymentFrequency string

const (
	FrequencyMonthly    PaymentFrequency = "monthly"
	FrequencyQuarterly  PaymentFrequency = "quarterly"
	FrequencySemiAnnual PaymentFrequency = "semi_annual"
	FrequencyAnnual     PaymentFrequency = "annual"
)

// Normalize maps an unrecognized frequency to monthly.
func (f PaymentFrequency) Normalize() PaymentFrequency {
	switch PaymentFrequency(strings.ToLower(string(f))) {
	case FrequencyQuarterly:
		return FrequencyQuarterly
	case FrequencySemiAnnual:
		return FrequencySemiAnnual
	case FrequencyAnnual:
		return FrequencyAnnual
	default:
		return FrequencyMonthly
	}
}

// Months returns the period length of one payment interval.
func (f PaymentFrequency) Months() int {
	switch f.Normalize() {
	case FrequencyQuarterly:
		return 3
	case FrequencySemiAnnual:
		return 6
	case FrequencyAnnual:
		return 12
	default:
		return 1
	}
}

// ContractStatus represents the lifecycle state of a lease contract.
type ContractStatus string

const (
	ContractStatusActive     ContractStatus = "active"
	ContractStatusExpired    ContractStatus = "expired"
	ContractStatusTerminated ContractStatus = "terminated"
	ContractStatusRenewed    ContractStatus = "renewed"
)

// Contract represents a lease contract between a tenant and an owner.
type Contract struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	CompanyID      string              `json:"company_id" bson:"company_id"`
	ContractNumber string              `json:"contract_number" bson:"contract_number"`
	UnitID         *primitive.ObjectID `json:"unit_id,omitempty" bson:"unit_id,omitempty"`
	TenantID       *primitive.ObjectID `json:"tenant_id,omitempty" bson:"tenant_id,omitempty"`
	OwnerID        *primitive.ObjectID `json:"owner_id,omitempty" bson:"owner_id,omitempty"`
	StartDate      time.Time           `json:"start_date" bson:"start_date"`
	EndDate        time.Time           `json:"end_date" bson:"end_date"`
	RentAmount     float64             `json:"rent_amount" bson:"rent_amount"`
	Frequency      PaymentFrequency    `json:"payment_frequency" bson:"payment_frequency"`
	Status         ContractStatus      `json:"status" bson:"status"`
	CreatedAt      time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at" bson:"updated_at"`
}

// ObligationStatus represents the payment state of a single obligation.
type ObligationStatus string

const (
	ObligationStatusPending   ObligationStatus = "pending"
	ObligationStatusPaid      ObligationStatus = "paid"
	ObligationStatusOverdue   ObligationStatus = "overdue"
	ObligationStatusCancelled ObligationStatus = "cancelled"
)

// PaymentObligation is one scheduled payment derived from a contract's terms.
// Sequence numbers are 1-based and contiguous; due dates are strictly
// increasing and the obligation set covers [start_date, end_date].
type PaymentObligation struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ContractID primitive.ObjectID `json:"contract_id" bson:"contract_id"`
	CompanyID  string             `json:"company_id" bson:"company_id"`
	Sequence   int                `json:"sequence" bson:"sequence"`
	DueDate    time.Time          `json:"due_date" bson:"due_date"`
	Amount     float64            `json:"amount" bson:"amount"`
	PaidAmount float64            `json:"paid_amount" bson:"paid_amount"`
	PaidAt     *time.Time         `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
	Status     ObligationStatus   `json:"status" bson:"status"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// MaintenanceStatus represents the workflow state of a maintenance request.
type MaintenanceStatus string

const (
	MaintenanceStatusOpen       MaintenanceStatus = "open"
	MaintenanceStatusAssigned   MaintenanceStatus = "assigned"
	MaintenanceStatusInProgress MaintenanceStatus = "in_progress"
	MaintenanceStatusCompleted  MaintenanceStatus = "completed"
	MaintenanceStatusCancelled  MaintenanceStatus = "cancelled"
)

// OpenMaintenanceStatuses are the states in which a request still counts as
// unresolved for overdue evaluation.
var OpenMaintenanceStatuses = []MaintenanceStatus{
	MaintenanceStatusOpen,
	MaintenanceStatusAssigned,
	MaintenanceStatusInProgress,
}

// MaintenanceRequest represents a reported maintenance issue on a unit.
type MaintenanceRequest struct {
	ID            primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	CompanyID     string              `json:"company_id" bson:"company_id"`
	RequestNumber string              `json:"request_number" bson:"request_number"`
	UnitID        *primitive.ObjectID `json:"unit_id,omitempty" bson:"unit_id,omitempty"`
	TenantID      *primitive.ObjectID `json:"tenant_id,omitempty" bson:"tenant_id,omitempty"`
	Description   string              `json:"description" bson:"description"`
	Priority      string              `json:"priority" bson:"priority"`
	Status        MaintenanceStatus   `json:"status" bson:"status"`
	ReportedDate  time.Time           `json:"reported_date" bson:"reported_date"`
	CreatedAt     time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at" bson:"updated_at"`
}

// PersonRole classifies a contact directory entry.
type PersonRole string

const (
	RoleTenant  PersonRole = "tenant"
	RoleOwner   PersonRole = "owner"
	RoleManager PersonRole = "manager"
)

// Person is a contact directory entry used for recipient resolution.
type Person struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CompanyID string             `json:"company_id" bson:"company_id"`
	Role      PersonRole         `json:"role" bson:"role"`
	FirstName string             `json:"first_name" bson:"first_name"`
	LastName  string             `json:"last_name" bson:"last_name"`
	Email     string             `json:"email,omitempty" bson:"email,omitempty"`
	Phone     string             `json:"phone,omitempty" bson:"phone,omitempty"`
	IsActive  bool               `json:"is_active" bson:"is_active"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Day truncates t to the start of its calendar day in UTC. All schedule and
// dedup arithmetic works on these day-granular values.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
