package queue

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/rentables/lease-notification-service/internal/dispatch"
	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func job(id string, p Priority) *DeliveryJob {
	return &DeliveryJob{
		ID:       id,
		Priority: p,
		Notification: &domain.Notification{
			ID:        primitive.NewObjectID(),
			CompanyID: "acme",
		},
		Channel:   domain.ChannelSMS,
		Recipient: "+15550000001",
		Message:   dispatch.Message{Body: "hello"},
	}
}

func TestPriorityQueueOrdering(t *testing.T) {
	pq := NewPriorityQueue()
	pq.Push(job("low", PriorityLow))
	pq.Push(job("normal", PriorityNormal))
	pq.Push(job("urgent", PriorityUrgent))
	pq.Push(job("high", PriorityHigh))

	want := []string{"urgent", "high", "normal", "low"}
	for _, id := range want {
		j := pq.TryPop()
		if j == nil {
			t.Fatalf("TryPop() = nil, want job %q", id)
		}
		if j.ID != id {
			t.Errorf("TryPop() = %q, want %q", j.ID, id)
		}
	}
	if j := pq.TryPop(); j != nil {
		t.Errorf("TryPop() on empty queue = %v, want nil", j)
	}
}

func TestPriorityQueuePopBlocksUntilPush(t *testing.T) {
	pq := NewPriorityQueue()
	got := make(chan *DeliveryJob, 1)
	go func() {
		got <- pq.Pop()
	}()

	select {
	case j := <-got:
		t.Fatalf("Pop() returned %v before any push", j)
	case <-time.After(20 * time.Millisecond):
	}

	pq.Push(job("j1", PriorityNormal))
	select {
	case j := <-got:
		if j == nil || j.ID != "j1" {
			t.Errorf("Pop() = %v, want j1", j)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() did not return after push")
	}
}

func TestPriorityQueueCloseReleasesBlockedPop(t *testing.T) {
	pq := NewPriorityQueue()
	got := make(chan *DeliveryJob, 1)
	go func() {
		got <- pq.Pop()
	}()

	pq.Close()
	select {
	case j := <-got:
		if j != nil {
			t.Errorf("Pop() after close = %v, want nil", j)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() still blocked after Close()")
	}
}

func TestPriorityQueueDrainsAfterClose(t *testing.T) {
	pq := NewPriorityQueue()
	pq.Push(job("j1", PriorityNormal))
	pq.Push(job("j2", PriorityHigh))
	pq.Close()

	if j := pq.Pop(); j == nil || j.ID != "j2" {
		t.Errorf("first Pop() after close = %v, want j2", j)
	}
	if j := pq.Pop(); j == nil || j.ID != "j1" {
		t.Errorf("second Pop() after close = %v, want j1", j)
	}
	if j := pq.Pop(); j != nil {
		t.Errorf("Pop() on drained closed queue = %v, want nil", j)
	}
}

func TestFromNotificationPriority(t *testing.T) {
	tests := []struct {
		in   domain.NotificationPriority
		want Priority
	}{
		{domain.PriorityUrgent, PriorityUrgent},
		{domain.PriorityHigh, PriorityHigh},
		{domain.PriorityNormal, PriorityNormal},
		{domain.PriorityLow, PriorityLow},
		{domain.NotificationPriority("unknown"), PriorityNormal},
	}
	for _, tt := range tests {
		if got := FromNotificationPriority(tt.in); got != tt.want {
			t.Errorf("FromNotificationPriority(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

type countingSender struct {
	mu       sync.Mutex
	handled  []string
	rejectID string
}

func (s *countingSender) Dispatch(_ context.Context, n *domain.Notification, channel domain.Channel, _ string, _ dispatch.Message) (*dispatch.Outcome, error) {
	s.mu.Lock()
	s.handled = append(s.handled, n.ID.Hex())
	s.mu.Unlock()
	if n.ID.Hex() == s.rejectID {
		return nil, stderrors.New("bad message")
	}
	return &dispatch.Outcome{Channel: channel, Status: domain.DeliveryStatusSent}, nil
}

func (s *countingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handled)
}

func TestWorkerPoolDrainsQueueOnStop(t *testing.T) {
	pq := NewPriorityQueue()
	sender := &countingSender{}
	pool := NewWorkerPool(pq, sender, 3, logger.NewNop())
	pool.Start()

	for i := 0; i < 20; i++ {
		pq.Push(job("j", PriorityNormal))
	}
	pool.Stop()

	if got := sender.count(); got != 20 {
		t.Errorf("dispatched %d jobs, want 20", got)
	}
	if pq.Len() != 0 {
		t.Errorf("queue length after Stop() = %d, want 0", pq.Len())
	}
}

func TestWorkerPoolContinuesAfterRejectedJob(t *testing.T) {
	pq := NewPriorityQueue()
	rejected := job("bad", PriorityNormal)
	sender := &countingSender{rejectID: rejected.Notification.ID.Hex()}
	pool := NewWorkerPool(pq, sender, 1, logger.NewNop())
	pool.Start()

	pq.Push(rejected)
	pq.Push(job("ok", PriorityNormal))
	pool.Stop()

	if got := sender.count(); got != 2 {
		t.Errorf("dispatched %d jobs, want 2", got)
	}
}
