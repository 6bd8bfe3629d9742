package engine

import (
	"context"

	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PersonSource looks up contact directory entries.
type PersonSource interface {
	FindByObjectID(ctx context.Context, id primitive.ObjectID) (*domain.Person, error)
	FindManagers(ctx context.Context, companyID string) ([]*domain.Person, error)
}

// Resolver turns a rule's recipient flags into concrete contacts. A person
// that cannot be found is skipped, never fatal for the rule.
type Resolver struct {
	people PersonSource
	logger *logger.Logger
}

// NewResolver creates a recipient resolver.
func NewResolver(people PersonSource, log *logger.Logger) *Resolver {
	return &Resolver{people: people, logger: log}
}

// Resolve returns the active contacts designated by the rule. tenantID and
// ownerID come from the matched entity's lease context and may be nil.
func (r *Resolver) Resolve(ctx context.Context, rule *domain.NotificationRule, companyID string, tenantID, ownerID *primitive.ObjectID) []*domain.Person {
	var people []*domain.Person
	seen := make(map[primitive.ObjectID]bool)

	add := func(p *domain.Person) {
		if p == nil || !p.IsActive || seen[p.ID] {
			return
		}
		seen[p.ID] = true
		people = append(people, p)
	}
	lookup := func(id primitive.ObjectID) {
		person, err := r.people.FindByObjectID(ctx, id)
		if err != nil {
			r.logger.Warn("recipient lookup failed",
				"rule_id", rule.ID.Hex(),
				"person_id", id.Hex(),
				"error", err)
			return
		}
		add(person)
	}

	if rule.SendToTenant && tenantID != nil {
		lookup(*tenantID)
	}
	if rule.SendToOwner && ownerID != nil {
		lookup(*ownerID)
	}
	if rule.SendToManager {
		managers, err := r.people.FindManagers(ctx, companyID)
		if err != nil {
			r.logger.Warn("manager lookup failed",
				"rule_id", rule.ID.Hex(),
				"company_id", companyID,
				"error", err)
		}
		for _, m := range managers {
			add(m)
		}
	}
	for _, id := range rule.SendToUsers {
		lookup(id)
	}
	return people
}

// Address returns a person's address for one channel, or empty when the
// person is not contactable there.
func Address(p *domain.Person, ch domain.Channel) string {
	switch ch {
	case domain.ChannelEmail:
		return p.Email
	case domain.ChannelSMS, domain.ChannelWhatsApp:
		return p.Phone
	}
	return ""
}
