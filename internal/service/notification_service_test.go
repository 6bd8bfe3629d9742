package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rentables/lease-notification-service/internal/dispatch"
	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/queue"
	"github.com/rentables/lease-notification-service/internal/shared/errors"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeNotificationStore struct {
	created []*domain.Notification
}

func (f *fakeNotificationStore) Create(_ context.Context, n *domain.Notification) error {
	n.ID = primitive.NewObjectID()
	n.Status = domain.NotificationStatusUnread
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationStore) FindByID(_ context.Context, id string, companyID string) (*domain.Notification, error) {
	for _, n := range f.created {
		if n.ID.Hex() == id && n.CompanyID == companyID {
			return n, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeNotificationStore) FindByCompany(_ context.Context, companyID string, _ domain.NotificationStatus, _ domain.NotificationPriority, _, _ int) ([]*domain.Notification, int64, error) {
	var out []*domain.Notification
	for _, n := range f.created {
		if n.CompanyID == companyID {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeNotificationStore) MarkRead(_ context.Context, id string, companyID string) error {
	n, err := f.FindByID(context.Background(), id, companyID)
	if err != nil {
		return err
	}
	n.Status = domain.NotificationStatusRead
	return nil
}

func (f *fakeNotificationStore) MarkAllRead(_ context.Context, companyID string) (int64, error) {
	var count int64
	for _, n := range f.created {
		if n.CompanyID == companyID && n.Status == domain.NotificationStatusUnread {
			n.Status = domain.NotificationStatusRead
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationStore) Stats(_ context.Context, companyID string) (*domain.NotificationStats, error) {
	stats := &domain.NotificationStats{}
	for _, n := range f.created {
		if n.CompanyID != companyID {
			continue
		}
		stats.Total++
		if n.Status == domain.NotificationStatusUnread {
			stats.Unread++
		}
	}
	return stats, nil
}

type fakeLogReader struct{}

func (fakeLogReader) FindByNotification(context.Context, primitive.ObjectID) ([]*domain.ChannelLog, error) {
	return nil, nil
}

type fakeDispatcher struct {
	calls int
}

func (f *fakeDispatcher) Dispatch(_ context.Context, _ *domain.Notification, channel domain.Channel, _ string, _ dispatch.Message) (*dispatch.Outcome, error) {
	f.calls++
	return &dispatch.Outcome{LogID: primitive.NewObjectID(), Channel: channel, Status: domain.DeliveryStatusSent}, nil
}

type noopEvaluator struct{}

func (noopEvaluator) Run(_ context.Context, now time.Time) (*domain.EvaluationReport, error) {
	return &domain.EvaluationReport{RanAt: now}, nil
}

func newTestService() (*NotificationService, *fakeNotificationStore, *fakeDispatcher, *queue.PriorityQueue) {
	store := &fakeNotificationStore{}
	dispatcher := &fakeDispatcher{}
	q := queue.NewPriorityQueue()
	svc := NewNotificationService(store, fakeLogReader{}, dispatcher, q, noopEvaluator{}, logger.NewNop())
	return svc, store, dispatcher, q
}

func TestSendSmallBatchIsSynchronous(t *testing.T) {
	svc, store, dispatcher, q := newTestService()

	result, err := svc.Send(context.Background(), "acme", &domain.SendNotificationRequest{
		Title:    "Maintenance window",
		Message:  "The portal is down tonight.",
		Channels: domain.ChannelToggles{Email: true, SMS: true},
		Recipients: []domain.Recipient{
			{Email: "a@example.com", Phone: "+15550000001"},
			{Email: "b@example.com"},
		},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("created %d notifications, want 1", len(store.created))
	}
	if store.created[0].TypeID != "adhoc" {
		t.Errorf("type id = %q, want adhoc default", store.created[0].TypeID)
	}
	if store.created[0].Priority != domain.PriorityNormal {
		t.Errorf("priority = %q, want normal default", store.created[0].Priority)
	}

	// Two recipients, one with both channels and one email-only.
	if dispatcher.calls != 3 {
		t.Errorf("dispatched %d times, want 3", dispatcher.calls)
	}
	if len(result.ChannelLogIDs) != 3 {
		t.Errorf("returned %d log ids, want 3", len(result.ChannelLogIDs))
	}
	if result.Queued != 0 {
		t.Errorf("queued = %d, want 0", result.Queued)
	}
	if q.Len() != 0 {
		t.Errorf("queue length = %d, want 0", q.Len())
	}
}

func TestSendLargeBatchIsQueued(t *testing.T) {
	svc, _, dispatcher, q := newTestService()

	recipients := make([]domain.Recipient, 12)
	for i := range recipients {
		recipients[i] = domain.Recipient{Email: fmt.Sprintf("user%d@example.com", i)}
	}

	result, err := svc.Send(context.Background(), "acme", &domain.SendNotificationRequest{
		Title:      "Quarterly statement",
		Message:    "Your statement is ready.",
		Priority:   domain.PriorityLow,
		Channels:   domain.ChannelToggles{Email: true},
		Recipients: recipients,
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if dispatcher.calls != 0 {
		t.Errorf("dispatched %d times synchronously, want 0", dispatcher.calls)
	}
	if result.Queued != 12 {
		t.Errorf("queued = %d, want 12", result.Queued)
	}
	if len(result.ChannelLogIDs) != 0 {
		t.Errorf("returned %d log ids for a queued batch, want 0", len(result.ChannelLogIDs))
	}
	if q.Len() != 12 {
		t.Errorf("queue length = %d, want 12", q.Len())
	}

	job := q.TryPop()
	if job == nil {
		t.Fatal("queue empty after queued send")
	}
	if job.Priority != queue.PriorityLow {
		t.Errorf("job priority = %d, want low", job.Priority)
	}
	if job.Message.Subject != "Quarterly statement" {
		t.Errorf("job subject = %q", job.Message.Subject)
	}
}

func TestSendValidation(t *testing.T) {
	svc, store, _, _ := newTestService()

	tests := []struct {
		name string
		req  *domain.SendNotificationRequest
	}{
		{"missing title", &domain.SendNotificationRequest{
			Message:    "m",
			Channels:   domain.ChannelToggles{Email: true},
			Recipients: []domain.Recipient{{Email: "a@example.com"}},
		}},
		{"missing message", &domain.SendNotificationRequest{
			Title:      "t",
			Channels:   domain.ChannelToggles{Email: true},
			Recipients: []domain.Recipient{{Email: "a@example.com"}},
		}},
		{"no channels", &domain.SendNotificationRequest{
			Title:      "t",
			Message:    "m",
			Recipients: []domain.Recipient{{Email: "a@example.com"}},
		}},
		{"no recipients", &domain.SendNotificationRequest{
			Title:    "t",
			Message:  "m",
			Channels: domain.ChannelToggles{Email: true},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Send(context.Background(), "acme", tt.req)
			if !errors.HasCode(err, errors.CodeValidation) {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}
	if len(store.created) != 0 {
		t.Errorf("created %d notifications on invalid requests, want 0", len(store.created))
	}
}

func TestMarkAllRead(t *testing.T) {
	svc, store, _, _ := newTestService()
	for i := 0; i < 3; i++ {
		store.Create(context.Background(), &domain.Notification{CompanyID: "acme"})
	}
	store.Create(context.Background(), &domain.Notification{CompanyID: "other"})

	count, err := svc.MarkAllRead(context.Background(), "acme")
	if err != nil {
		t.Fatalf("MarkAllRead() error = %v", err)
	}
	if count != 3 {
		t.Errorf("marked %d read, want 3", count)
	}

	stats, err := svc.GetStats(context.Background(), "acme")
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.Unread != 0 {
		t.Errorf("unread after MarkAllRead = %d, want 0", stats.Unread)
	}
}
