package engine

import (
	"context"
	"time"

	"github.com/rentables/lease-notification-service/internal/domain"
)

// NotificationChecker answers whether a notification for an entity already
// exists in a time window.
type NotificationChecker interface {
	ExistsForEntitySince(ctx context.Context, companyID string, entity domain.EntityRef, typeID string, windowStart time.Time) (bool, error)
}

// DedupGuard caps notifications at one per (entity, notification type) per
// calendar day. The pre-check here is advisory; the unique index on the
// notification's dedup key closes the check-then-create race.
type DedupGuard struct {
	store NotificationChecker
}

// NewDedupGuard creates a dedup guard backed by the notification store.
func NewDedupGuard(store NotificationChecker) *DedupGuard {
	return &DedupGuard{store: store}
}

// AlreadyNotified reports whether a notification for this entity and type
// was created since the start of now's calendar day.
func (g *DedupGuard) AlreadyNotified(ctx context.Context, companyID string, entity domain.EntityRef, typeID string, now time.Time) (bool, error) {
	return g.store.ExistsForEntitySince(ctx, companyID, entity, typeID, domain.Day(now))
}
