package dispatch

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/shared/errors"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeLogStore struct {
	logs []*domain.ChannelLog
}

func (f *fakeLogStore) Create(_ context.Context, log *domain.ChannelLog) error {
	log.ID = primitive.NewObjectID()
	log.Status = domain.DeliveryStatusPending
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeLogStore) MarkSent(_ context.Context, id primitive.ObjectID, providerID string, sentAt time.Time) error {
	for _, l := range f.logs {
		if l.ID == id {
			l.Status = domain.DeliveryStatusSent
			l.ProviderID = providerID
			l.SentAt = &sentAt
			return nil
		}
	}
	return stderrors.New("log not found")
}

func (f *fakeLogStore) MarkFailed(_ context.Context, id primitive.ObjectID, errorMessage string) error {
	for _, l := range f.logs {
		if l.ID == id {
			l.Status = domain.DeliveryStatusFailed
			l.ErrorMessage = errorMessage
			return nil
		}
	}
	return stderrors.New("log not found")
}

func (f *fakeLogStore) byChannel(ch domain.Channel) *domain.ChannelLog {
	for _, l := range f.logs {
		if l.Channel == ch {
			return l
		}
	}
	return nil
}

type fakeMarker struct {
	sent []domain.Channel
}

func (f *fakeMarker) MarkChannelSent(_ context.Context, _ primitive.ObjectID, channel domain.Channel) error {
	f.sent = append(f.sent, channel)
	return nil
}

type fakeGateway struct {
	providerID string
	err        error
	calls      int
	lastCtx    context.Context
}

func (f *fakeGateway) Send(ctx context.Context, _ string, _ Message) (string, error) {
	f.calls++
	f.lastCtx = ctx
	return f.providerID, f.err
}

func newTestDispatcher(registry Registry, logs *fakeLogStore, marker *fakeMarker) *Dispatcher {
	return NewDispatcher(registry, logs, marker, 5*time.Second, logger.NewNop())
}

func testNotification() *domain.Notification {
	return &domain.Notification{
		ID:        primitive.NewObjectID(),
		CompanyID: "acme",
		Title:     "Payment Due",
		Message:   "Payment is due tomorrow.",
	}
}

func TestDispatchSuccessRecordsSentLog(t *testing.T) {
	logs := &fakeLogStore{}
	marker := &fakeMarker{}
	gw := &fakeGateway{providerID: "prov-123"}
	d := newTestDispatcher(Registry{domain.ChannelSMS: gw}, logs, marker)

	outcome, err := d.Dispatch(context.Background(), testNotification(), domain.ChannelSMS, "+15550000001", Message{Body: "hello"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if outcome.Status != domain.DeliveryStatusSent {
		t.Errorf("outcome status = %q, want sent", outcome.Status)
	}

	log := logs.byChannel(domain.ChannelSMS)
	if log == nil {
		t.Fatal("no channel log created")
	}
	if log.Status != domain.DeliveryStatusSent {
		t.Errorf("log status = %q, want sent", log.Status)
	}
	if log.ProviderID != "prov-123" {
		t.Errorf("provider id = %q, want prov-123", log.ProviderID)
	}
	if log.SentAt == nil {
		t.Error("sent_at not recorded")
	}
	if len(marker.sent) != 1 || marker.sent[0] != domain.ChannelSMS {
		t.Errorf("notification channel flags = %v, want [sms]", marker.sent)
	}
}

func TestDispatchGatewayFailureIsRecordedNotReturned(t *testing.T) {
	logs := &fakeLogStore{}
	marker := &fakeMarker{}
	gw := &fakeGateway{err: stderrors.New("connection refused")}
	d := newTestDispatcher(Registry{domain.ChannelEmail: gw}, logs, marker)

	outcome, err := d.Dispatch(context.Background(), testNotification(), domain.ChannelEmail, "a@example.com", Message{Subject: "s", Body: "b"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v, want nil for a gateway failure", err)
	}
	if outcome.Status != domain.DeliveryStatusFailed {
		t.Errorf("outcome status = %q, want failed", outcome.Status)
	}
	if outcome.Error != "connection refused" {
		t.Errorf("outcome error = %q", outcome.Error)
	}

	log := logs.byChannel(domain.ChannelEmail)
	if log == nil {
		t.Fatal("no channel log created")
	}
	if log.Status != domain.DeliveryStatusFailed {
		t.Errorf("log status = %q, want failed", log.Status)
	}
	if log.ErrorMessage != "connection refused" {
		t.Errorf("log error message = %q", log.ErrorMessage)
	}
	if log.SentAt != nil {
		t.Error("sent_at set on a failed delivery")
	}
	if len(marker.sent) != 0 {
		t.Errorf("notification flagged sent on failure: %v", marker.sent)
	}
}

func TestDispatchChannelFailuresAreIndependent(t *testing.T) {
	logs := &fakeLogStore{}
	marker := &fakeMarker{}
	d := newTestDispatcher(Registry{
		domain.ChannelEmail: &fakeGateway{err: stderrors.New("smtp down")},
		domain.ChannelSMS:   &fakeGateway{providerID: "prov-9"},
	}, logs, marker)

	n := testNotification()
	if _, err := d.Dispatch(context.Background(), n, domain.ChannelEmail, "a@example.com", Message{Body: "b"}); err != nil {
		t.Fatalf("email Dispatch() error = %v", err)
	}
	if _, err := d.Dispatch(context.Background(), n, domain.ChannelSMS, "+15550000001", Message{Body: "b"}); err != nil {
		t.Fatalf("sms Dispatch() error = %v", err)
	}

	if got := logs.byChannel(domain.ChannelEmail).Status; got != domain.DeliveryStatusFailed {
		t.Errorf("email log status = %q, want failed", got)
	}
	if got := logs.byChannel(domain.ChannelSMS).Status; got != domain.DeliveryStatusSent {
		t.Errorf("sms log status = %q, want sent", got)
	}
}

func TestDispatchValidation(t *testing.T) {
	tests := []struct {
		name      string
		channel   domain.Channel
		recipient string
		msg       Message
		wantCode  string
	}{
		{"empty recipient", domain.ChannelSMS, "", Message{Body: "b"}, errors.CodeValidation},
		{"empty body", domain.ChannelSMS, "+15550000001", Message{}, errors.CodeValidation},
		{"unconfigured channel", domain.ChannelWhatsApp, "+15550000001", Message{Body: "b"}, errors.CodeConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := &fakeLogStore{}
			d := newTestDispatcher(Registry{domain.ChannelSMS: &fakeGateway{}}, logs, &fakeMarker{})

			_, err := d.Dispatch(context.Background(), testNotification(), tt.channel, tt.recipient, tt.msg)
			if err == nil {
				t.Fatal("Dispatch() error = nil, want error")
			}
			if !errors.HasCode(err, tt.wantCode) {
				t.Errorf("error code = %v, want %s", err, tt.wantCode)
			}
			if len(logs.logs) != 0 {
				t.Errorf("created %d logs before validation failed, want 0", len(logs.logs))
			}
		})
	}
}

func TestDispatchBoundsGatewayCall(t *testing.T) {
	logs := &fakeLogStore{}
	gw := &fakeGateway{providerID: "prov-1"}
	d := NewDispatcher(Registry{domain.ChannelSMS: gw}, logs, &fakeMarker{}, 100*time.Millisecond, logger.NewNop())

	if _, err := d.Dispatch(context.Background(), testNotification(), domain.ChannelSMS, "+15550000001", Message{Body: "b"}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	deadline, ok := gw.lastCtx.Deadline()
	if !ok {
		t.Fatal("gateway context carries no deadline")
	}
	if time.Until(deadline) > 100*time.Millisecond {
		t.Errorf("gateway deadline %v further out than the configured timeout", time.Until(deadline))
	}
}

// stallingGateway holds the send until its context expires, the way a
// deadline-honoring gateway behaves against an unresponsive provider.
type stallingGateway struct{}

func (stallingGateway) Send(ctx context.Context, _ string, _ Message) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestDispatchStalledGatewayFailsWithinTimeout(t *testing.T) {
	logs := &fakeLogStore{}
	d := NewDispatcher(Registry{domain.ChannelEmail: stallingGateway{}}, logs, &fakeMarker{}, 100*time.Millisecond, logger.NewNop())

	start := time.Now()
	outcome, err := d.Dispatch(context.Background(), testNotification(), domain.ChannelEmail, "a@example.com", Message{Subject: "s", Body: "b"})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Dispatch() error = %v, want nil for a gateway failure", err)
	}
	if outcome.Status != domain.DeliveryStatusFailed {
		t.Errorf("outcome status = %q, want failed", outcome.Status)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Dispatch returned after %v, want shortly after the 100ms timeout", elapsed)
	}
	if log := logs.byChannel(domain.ChannelEmail); log == nil || log.Status != domain.DeliveryStatusFailed {
		t.Error("stalled delivery not recorded as failed")
	}
}
