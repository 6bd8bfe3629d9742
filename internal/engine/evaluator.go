package engine

import (
	"context"
	"time"

	"github.com/rentables/lease-notification-service/internal/dispatch"
	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/metrics"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RuleSource provides active rules and their templates.
type RuleSource interface {
	FindActiveByEvent(ctx context.Context, event domain.TriggerEvent) ([]*domain.NotificationRule, error)
	FindTemplateByID(ctx context.Context, id primitive.ObjectID) (*domain.NotificationTemplate, error)
}

// ContractSource provides contract reads for trigger matching and lease
// context lookups.
type ContractSource interface {
	FindActiveEndingOn(ctx context.Context, companyID string, day time.Time) ([]*domain.Contract, error)
	FindByObjectID(ctx context.Context, id primitive.ObjectID) (*domain.Contract, error)
}

// PaymentSource provides pending obligation reads.
type PaymentSource interface {
	FindPendingDueOn(ctx context.Context, companyID string, day time.Time) ([]*domain.PaymentObligation, error)
}

// MaintenanceSource provides open maintenance request reads.
type MaintenanceSource interface {
	FindOverdue(ctx context.Context, companyID string, threshold time.Time) ([]*domain.MaintenanceRequest, error)
}

// NotificationStore persists notifications and answers dedup queries.
type NotificationStore interface {
	NotificationChecker
	Create(ctx context.Context, n *domain.Notification) error
}

// Sender hands a notification to the delivery dispatcher for one channel.
type Sender interface {
	Dispatch(ctx context.Context, n *domain.Notification, channel domain.Channel, recipient string, msg dispatch.Message) (*dispatch.Outcome, error)
}

// Evaluator runs notification rules against the current data set. One Run
// call is one full evaluation pass across all trigger events.
type Evaluator struct {
	rules         RuleSource
	contracts     ContractSource
	payments      PaymentSource
	maintenance   MaintenanceSource
	notifications NotificationStore
	guard         *DedupGuard
	resolver      *Resolver
	sender        Sender
	logger        *logger.Logger
}

// NewEvaluator wires an evaluator from its collaborators.
func NewEvaluator(
	rules RuleSource,
	contracts ContractSource,
	payments PaymentSource,
	maintenance MaintenanceSource,
	notifications NotificationStore,
	resolver *Resolver,
	sender Sender,
	log *logger.Logger,
) *Evaluator {
	return &Evaluator{
		rules:         rules,
		contracts:     contracts,
		payments:      payments,
		maintenance:   maintenance,
		notifications: notifications,
		guard:         NewDedupGuard(notifications),
		resolver:      resolver,
		sender:        sender,
		logger:        log,
	}
}

// match is one entity a rule fired on, with enough context to render the
// message and resolve recipients.
type match struct {
	entity   domain.EntityRef
	vars     map[string]string
	tenantID *primitive.ObjectID
	ownerID  *primitive.ObjectID
	// contractID carries the lease reference for payment matches.
	contractID *primitive.ObjectID
	priority   domain.NotificationPriority
}

// Run executes one evaluation pass as of now. Running twice within the
// same calendar day creates no additional notifications for unchanged
// data. Rule-level problems are reported, never fatal to the pass.
func (e *Evaluator) Run(ctx context.Context, now time.Time) (*domain.EvaluationReport, error) {
	start := time.Now()
	report := &domain.EvaluationReport{RanAt: now}
	today := domain.Day(now)

	for _, event := range domain.AllTriggerEvents {
		rules, err := e.rules.FindActiveByEvent(ctx, event)
		if err != nil {
			metrics.EvaluationRuns.WithLabelValues("error").Inc()
			return nil, err
		}

		for _, rule := range rules {
			report.RulesConsidered++
			e.evaluateRule(ctx, rule, today, report)
		}
	}

	metrics.EvaluationRuns.WithLabelValues("ok").Inc()
	metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	e.logger.Info("rule evaluation pass finished",
		"rules_considered", report.RulesConsidered,
		"entities_matched", report.EntitiesMatched,
		"notifications_created", report.NotificationsCreated,
		"duplicates_suppressed", report.DuplicatesSuppressed,
		"deliveries_attempted", report.DeliveriesAttempted,
		"deliveries_failed", report.DeliveriesFailed,
		"rules_skipped", len(report.SkippedRules))
	return report, nil
}

func (e *Evaluator) evaluateRule(ctx context.Context, rule *domain.NotificationRule, today time.Time, report *domain.EvaluationReport) {
	template, err := e.rules.FindTemplateByID(ctx, rule.TemplateID)
	if err != nil {
		reason := "template lookup failed: " + err.Error()
		if err == mongo.ErrNoDocuments {
			reason = "template not found"
		}
		e.skipRule(rule, reason, report)
		return
	}
	if !template.IsActive {
		e.skipRule(rule, "template is inactive", report)
		return
	}

	matches, err := e.findMatches(ctx, rule, today)
	if err != nil {
		e.skipRule(rule, "entity query failed: "+err.Error(), report)
		return
	}
	report.EntitiesMatched += len(matches)

	for _, m := range matches {
		e.fire(ctx, rule, template, m, today, report)
	}
}

func (e *Evaluator) skipRule(rule *domain.NotificationRule, reason string, report *domain.EvaluationReport) {
	report.SkippedRules = append(report.SkippedRules, domain.SkippedRule{
		RuleID: rule.ID.Hex(),
		Reason: reason,
	})
	e.logger.Warn("notification rule skipped",
		"rule_id", rule.ID.Hex(),
		"company_id", rule.CompanyID,
		"reason", reason)
}

// findMatches selects the entities whose relevant date aligns with the
// rule's day offset. Expiry and due matching is exact-day, not a range.
func (e *Evaluator) findMatches(ctx context.Context, rule *domain.NotificationRule, today time.Time) ([]match, error) {
	switch rule.TriggerEvent {
	case domain.TriggerContractExpiring:
		target := today.AddDate(0, 0, rule.DaysBefore)
		contracts, err := e.contracts.FindActiveEndingOn(ctx, rule.CompanyID, target)
		if err != nil {
			return nil, err
		}
		matches := make([]match, 0, len(contracts))
		for _, c := range contracts {
			matches = append(matches, match{
				entity:   domain.EntityRef{Kind: domain.EntityContract, ID: c.ID},
				vars:     contractVars(c, rule.DaysBefore),
				tenantID: c.TenantID,
				ownerID:  c.OwnerID,
				priority: domain.PriorityNormal,
			})
		}
		return matches, nil

	case domain.TriggerPaymentDue:
		target := today.AddDate(0, 0, rule.DaysBefore)
		payments, err := e.payments.FindPendingDueOn(ctx, rule.CompanyID, target)
		if err != nil {
			return nil, err
		}
		matches := make([]match, 0, len(payments))
		for _, p := range payments {
			m := match{
				entity:   domain.EntityRef{Kind: domain.EntityPayment, ID: p.ID},
				priority: domain.PriorityNormal,
			}
			contract, err := e.contracts.FindByObjectID(ctx, p.ContractID)
			if err != nil {
				e.logger.Warn("lease lookup failed for pending payment",
					"payment_id", p.ID.Hex(),
					"contract_id", p.ContractID.Hex(),
					"error", err)
			} else {
				m.tenantID = contract.TenantID
				m.ownerID = contract.OwnerID
			}
			contractID := p.ContractID
			m.contractID = &contractID
			m.vars = paymentVars(p, contract, rule.DaysBefore)
			matches = append(matches, m)
		}
		return matches, nil

	case domain.TriggerMaintenanceOverdue:
		threshold := today.AddDate(0, 0, -rule.DaysBefore)
		requests, err := e.maintenance.FindOverdue(ctx, rule.CompanyID, threshold)
		if err != nil {
			return nil, err
		}
		matches := make([]match, 0, len(requests))
		for _, req := range requests {
			matches = append(matches, match{
				entity:   domain.EntityRef{Kind: domain.EntityMaintenance, ID: req.ID},
				vars:     maintenanceVars(req, rule.DaysBefore),
				tenantID: req.TenantID,
				priority: domain.PriorityHigh,
			})
		}
		return matches, nil
	}
	return nil, nil
}

// fire creates the notification for one matched entity, guarded against
// same-day duplicates, and dispatches it on every auto-send channel.
func (e *Evaluator) fire(ctx context.Context, rule *domain.NotificationRule, template *domain.NotificationTemplate, m match, today time.Time, report *domain.EvaluationReport) {
	typeID := template.TypeID
	if typeID == "" {
		typeID = string(rule.TriggerEvent)
	}

	already, err := e.guard.AlreadyNotified(ctx, rule.CompanyID, m.entity, typeID, today)
	if err != nil {
		e.logger.Error("dedup check failed",
			"rule_id", rule.ID.Hex(),
			"entity_id", m.entity.ID.Hex(),
			"error", err)
		return
	}
	if already {
		report.DuplicatesSuppressed++
		metrics.DuplicatesSuppressed.WithLabelValues(typeID, rule.CompanyID).Inc()
		return
	}

	title, message := fallbackContent(rule.TriggerEvent, m.vars)
	if template.Name != "" {
		title = Render(template.Name, m.vars)
	}
	if template.SystemMessage != "" {
		message = Render(template.SystemMessage, m.vars)
	}

	notification := &domain.Notification{
		CompanyID:  rule.CompanyID,
		TypeID:     typeID,
		Title:      title,
		Message:    message,
		Priority:   m.priority,
		Entity:     m.entity,
		ContractID: m.contractID,
		Requested:  template.AutoSend,
		DedupKey:   domain.DedupKey(rule.CompanyID, m.entity, typeID, today),
	}
	if err := e.notifications.Create(ctx, notification); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			report.DuplicatesSuppressed++
			metrics.DuplicatesSuppressed.WithLabelValues(typeID, rule.CompanyID).Inc()
			return
		}
		e.logger.Error("notification create failed",
			"rule_id", rule.ID.Hex(),
			"entity_id", m.entity.ID.Hex(),
			"error", err)
		return
	}
	report.NotificationsCreated++
	metrics.NotificationsCreated.WithLabelValues(typeID, rule.CompanyID, "rule").Inc()

	e.deliver(ctx, rule, template, notification, m, report)
}

func (e *Evaluator) deliver(ctx context.Context, rule *domain.NotificationRule, template *domain.NotificationTemplate, n *domain.Notification, m match, report *domain.EvaluationReport) {
	if !template.AutoSend.Any() {
		return
	}
	people := e.resolver.Resolve(ctx, rule, rule.CompanyID, m.tenantID, m.ownerID)

	for _, person := range people {
		for _, ch := range domain.AllChannels {
			if !template.AutoSend.Enabled(ch) {
				continue
			}
			address := Address(person, ch)
			if address == "" {
				continue
			}

			body := Render(template.Body(ch), m.vars)
			if body == "" {
				body = n.Message
			}
			msg := dispatch.Message{Body: body}
			if ch == domain.ChannelEmail {
				msg.Subject = Render(template.EmailSubject, m.vars)
				if msg.Subject == "" {
					msg.Subject = n.Title
				}
			}

			outcome, err := e.sender.Dispatch(ctx, n, ch, address, msg)
			if err != nil {
				e.logger.Warn("dispatch rejected",
					"notification_id", n.ID.Hex(),
					"channel", ch,
					"error", err)
				continue
			}
			report.DeliveriesAttempted++
			if outcome.Status == domain.DeliveryStatusFailed {
				report.DeliveriesFailed++
			}
		}
	}
}
