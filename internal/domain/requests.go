package domain

import "time"

// SendNotificationRequest is an ad-hoc notification send triggered over HTTP.
type SendNotificationRequest struct {
	TypeID     string               `json:"type_id"`
	Title      string               `json:"title" binding:"required"`
	Message    string               `json:"message" binding:"required"`
	Priority   NotificationPriority `json:"priority"`
	Channels   ChannelToggles       `json:"channels"`
	Recipients []Recipient          `json:"recipients"`
}

// Recipient is one concrete delivery target of an ad-hoc send.
type Recipient struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// SendNotificationResult reports what an ad-hoc send produced.
type SendNotificationResult struct {
	NotificationID string   `json:"notification_id"`
	ChannelLogIDs  []string `json:"channel_log_ids"`
	Queued         int      `json:"queued,omitempty"`
}

// CreateContractRequest is the contract intake payload. The payment schedule
// is generated and persisted together with the contract.
type CreateContractRequest struct {
	ContractNumber string           `json:"contract_number" binding:"required"`
	UnitID         string           `json:"unit_id,omitempty"`
	TenantID       string           `json:"tenant_id,omitempty"`
	OwnerID        string           `json:"owner_id,omitempty"`
	StartDate      string           `json:"start_date" binding:"required"`
	EndDate        string           `json:"end_date" binding:"required"`
	RentAmount     float64          `json:"rent_amount" binding:"required"`
	Frequency      PaymentFrequency `json:"payment_frequency"`
}

// GetNotificationsRequest filters the notification listing.
type GetNotificationsRequest struct {
	Status   NotificationStatus   `form:"status"`
	Priority NotificationPriority `form:"priority"`
	Page     int                  `form:"page"`
	PageSize int                  `form:"page_size"`
}

// NotificationStats summarizes unread load for a company.
type NotificationStats struct {
	Total        int64 `json:"total"`
	Unread       int64 `json:"unread"`
	HighPriority int64 `json:"high_priority"`
	Urgent       int64 `json:"urgent"`
}

// SkippedRule records a rule the evaluator could not apply.
type SkippedRule struct {
	RuleID string `json:"rule_id"`
	Reason string `json:"reason"`
}

// EvaluationReport summarizes one rule evaluation pass.
type EvaluationReport struct {
	RanAt                time.Time       `json:"ran_at"`
	RulesConsidered      int             `json:"rules_considered"`
	EntitiesMatched      int             `json:"entities_matched"`
	NotificationsCreated int             `json:"notifications_created"`
	DuplicatesSuppressed int             `json:"duplicates_suppressed"`
	DeliveriesAttempted  int             `json:"deliveries_attempted"`
	DeliveriesFailed     int             `json:"deliveries_failed"`
	SkippedRules         []SkippedRule   `json:"skipped_rules,omitempty"`
}

// ContractEvent is a message from the contract-intake exchange. A
// contract.created event carries the full contract so the payment schedule
// can be generated without a read back to the source system.
type ContractEvent struct {
	Type      string    `json:"type"`
	CompanyID string    `json:"company_id"`
	Contract  Contract  `json:"contract"`
	Timestamp time.Time `json:"timestamp"`
}

// DeliveryStatusEvent is a provider callback reporting downstream delivery
// progress for an SMS or WhatsApp message.
type DeliveryStatusEvent struct {
	ProviderID string         `json:"provider_id" binding:"required"`
	Status     DeliveryStatus `json:"status" binding:"required"`
	Timestamp  time.Time      `json:"timestamp"`
}
