package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Channel identifies one delivery channel. The dispatcher is written once
// against this tagged type instead of per-channel code paths.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// AllChannels lists every delivery channel in dispatch order.
var AllChannels = []Channel{ChannelEmail, ChannelSMS, ChannelWhatsApp}

// TriggerEvent is the category of condition a notification rule reacts to.
type TriggerEvent string

const (
	TriggerContractExpiring   TriggerEvent = "contract_expiring"
	TriggerPaymentDue         TriggerEvent = "payment_due"
	TriggerMaintenanceOverdue TriggerEvent = "maintenance_overdue"
)

// AllTriggerEvents lists the trigger events in evaluation order.
var AllTriggerEvents = []TriggerEvent{
	TriggerContractExpiring,
	TriggerPaymentDue,
	TriggerMaintenanceOverdue,
}

// NotificationPriority represents notification urgency.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// NotificationStatus represents the read state of an in-system notification.
type NotificationStatus string

const (
	NotificationStatusUnread   NotificationStatus = "unread"
	NotificationStatusRead     NotificationStatus = "read"
	NotificationStatusArchived NotificationStatus = "archived"
)

// EntityKind classifies the entity a notification is tied to.
type EntityKind string

const (
	EntityContract    EntityKind = "contract"
	EntityPayment     EntityKind = "payment"
	EntityMaintenance EntityKind = "maintenance"
)

// EntityRef points at the single entity that triggered a notification.
type EntityRef struct {
	Kind EntityKind         `json:"kind" bson:"kind"`
	ID   primitive.ObjectID `json:"id" bson:"id"`
}

// ChannelToggles carries one boolean per delivery channel.
type ChannelToggles struct {
	Email    bool `json:"email" bson:"email"`
	SMS      bool `json:"sms" bson:"sms"`
	WhatsApp bool `json:"whatsapp" bson:"whatsapp"`
}

// Enabled reports whether the toggle for ch is set.
func (t ChannelToggles) Enabled(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return t.Email
	case ChannelSMS:
		return t.SMS
	case ChannelWhatsApp:
		return t.WhatsApp
	}
	return false
}

// Set flips the toggle for ch.
func (t *ChannelToggles) Set(ch Channel, v bool) {
	switch ch {
	case ChannelEmail:
		t.Email = v
	case ChannelSMS:
		t.SMS = v
	case ChannelWhatsApp:
		t.WhatsApp = v
	}
}

// Any reports whether at least one toggle is set.
func (t ChannelToggles) Any() bool {
	return t.Email || t.SMS || t.WhatsApp
}

// NotificationRule describes when the rule engine should raise a
// notification. RepeatInterval and MaxRepeats are stored for rule
// configuration but deliveries are capped at one per entity per day by the
// dedup guard regardless of their values.
type NotificationRule struct {
	ID             primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	CompanyID      string               `json:"company_id" bson:"company_id"`
	TemplateID     primitive.ObjectID   `json:"template_id" bson:"template_id"`
	Name           string               `json:"name" bson:"name"`
	Description    string               `json:"description,omitempty" bson:"description,omitempty"`
	TriggerEvent   TriggerEvent         `json:"trigger_event" bson:"trigger_event"`
	DaysBefore     int                  `json:"days_before" bson:"days_before"`
	RepeatInterval int                  `json:"repeat_interval,omitempty" bson:"repeat_interval,omitempty"`
	MaxRepeats     int                  `json:"max_repeats,omitempty" bson:"max_repeats,omitempty"`
	SendToTenant   bool                 `json:"send_to_tenant" bson:"send_to_tenant"`
	SendToOwner    bool                 `json:"send_to_owner" bson:"send_to_owner"`
	SendToManager  bool                 `json:"send_to_manager" bson:"send_to_manager"`
	SendToUsers    []primitive.ObjectID `json:"send_to_users,omitempty" bson:"send_to_users,omitempty"`
	IsActive       bool                 `json:"is_active" bson:"is_active"`
	CreatedAt      time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at" bson:"updated_at"`
}

// NotificationTemplate holds per-channel message bodies and auto-send flags.
type NotificationTemplate struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CompanyID       string             `json:"company_id" bson:"company_id"`
	TypeID          string             `json:"type_id" bson:"type_id"`
	Name            string             `json:"name" bson:"name"`
	EmailSubject    string             `json:"email_subject,omitempty" bson:"email_subject,omitempty"`
	EmailBody       string             `json:"email_body,omitempty" bson:"email_body,omitempty"`
	SMSMessage      string             `json:"sms_message,omitempty" bson:"sms_message,omitempty"`
	WhatsAppMessage string             `json:"whatsapp_message,omitempty" bson:"whatsapp_message,omitempty"`
	SystemMessage   string             `json:"system_message,omitempty" bson:"system_message,omitempty"`
	AutoSend        ChannelToggles     `json:"auto_send" bson:"auto_send"`
	IsActive        bool               `json:"is_active" bson:"is_active"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// Body returns the template text for one channel.
func (t *NotificationTemplate) Body(ch Channel) string {
	switch ch {
	case ChannelEmail:
		return t.EmailBody
	case ChannelSMS:
		return t.SMSMessage
	case ChannelWhatsApp:
		return t.WhatsAppMessage
	}
	return ""
}

// Notification is an in-system alert tied to exactly one triggering entity.
// Rows are created by the rule engine or an explicit ad-hoc send and are
// immutable afterwards except for read-state and delivery-state transitions.
type Notification struct {
	ID        primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	CompanyID string               `json:"company_id" bson:"company_id"`
	TypeID    string               `json:"type_id" bson:"type_id"`
	Title     string               `json:"title" bson:"title"`
	Message   string               `json:"message" bson:"message"`
	Priority  NotificationPriority `json:"priority" bson:"priority"`
	Status    NotificationStatus   `json:"status" bson:"status"`
	Entity    EntityRef            `json:"entity" bson:"entity"`
	// ContractID carries the lease context for payment- and
	// maintenance-triggered notifications when known.
	ContractID *primitive.ObjectID `json:"contract_id,omitempty" bson:"contract_id,omitempty"`
	Requested  ChannelToggles      `json:"requested" bson:"requested"`
	Sent       ChannelToggles      `json:"sent" bson:"sent"`
	DedupKey   string              `json:"-" bson:"dedup_key,omitempty"`
	CreatedAt  time.Time           `json:"created_at" bson:"created_at"`
	ReadAt     *time.Time          `json:"read_at,omitempty" bson:"read_at,omitempty"`
	UpdatedAt  time.Time           `json:"updated_at" bson:"updated_at"`
}

// DedupKey builds the uniqueness key that caps notifications at one per
// (entity, notification type) per calendar day.
func DedupKey(companyID string, entity EntityRef, typeID string, day time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s", companyID, entity.Kind, entity.ID.Hex(), typeID, Day(day).Format("2006-01-02"))
}

// DeliveryStatus represents the state of one delivery attempt on one channel.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusSent      DeliveryStatus = "sent"
	DeliveryStatusFailed    DeliveryStatus = "failed"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	// DeliveryStatusRead is reported by the WhatsApp provider only.
	DeliveryStatusRead DeliveryStatus = "read"
)

// ChannelLog is the durable record of one delivery attempt on one channel.
type ChannelLog struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CompanyID      string             `json:"company_id" bson:"company_id"`
	NotificationID primitive.ObjectID `json:"notification_id" bson:"notification_id"`
	Channel        Channel            `json:"channel" bson:"channel"`
	Recipient      string             `json:"recipient" bson:"recipient"`
	Subject        string             `json:"subject,omitempty" bson:"subject,omitempty"`
	Message        string             `json:"message" bson:"message"`
	Status         DeliveryStatus     `json:"status" bson:"status"`
	ErrorMessage   string             `json:"error_message,omitempty" bson:"error_message,omitempty"`
	ProviderID     string             `json:"provider_id,omitempty" bson:"provider_id,omitempty"`
	SentAt         *time.Time         `json:"sent_at,omitempty" bson:"sent_at,omitempty"`
	DeliveredAt    *time.Time         `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
	ReadAt         *time.Time         `json:"read_at,omitempty" bson:"read_at,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}
