package queue

import (
	"container/heap"
	"sync"

	"github.com/rentables/lease-notification-service/internal/dispatch"
	"github.com/rentables/lease-notification-service/internal/domain"
)

// Priority orders delivery jobs. Lower values are processed first.
type Priority int

const (
	PriorityUrgent Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
)

// FromNotificationPriority maps a notification's priority onto the queue
// ordering.
func FromNotificationPriority(p domain.NotificationPriority) Priority {
	switch p {
	case domain.PriorityUrgent:
		return PriorityUrgent
	case domain.PriorityHigh:
		return PriorityHigh
	case domain.PriorityLow:
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// DeliveryJob is one queued channel send for one recipient.
type DeliveryJob struct {
	ID           string
	Priority     Priority
	Notification *domain.Notification
	Channel      domain.Channel
	Recipient    string
	Message      dispatch.Message
	Index        int
}

type deliveryJobHeap []*DeliveryJob

func (h deliveryJobHeap) Len() int { return len(h) }

func (h deliveryJobHeap) Less(i, j int) bool {
	return h[i].Priority < h[j].Priority
}

func (h deliveryJobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].Index = i
	h[j].Index = j
}

func (h *deliveryJobHeap) Push(x interface{}) {
	n := len(*h)
	job := x.(*DeliveryJob)
	job.Index = n
	*h = append(*h, job)
}

func (h *deliveryJobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	job := old[n-1]
	old[n-1] = nil
	job.Index = -1
	*h = old[0 : n-1]
	return job
}

// PriorityQueue is a thread-safe priority queue of delivery jobs.
type PriorityQueue struct {
	jobs   deliveryJobHeap
	mu     sync.Mutex
	cond   *sync.Cond
	closed bool
}

// NewPriorityQueue creates an empty queue.
func NewPriorityQueue() *PriorityQueue {
	pq := &PriorityQueue{
		jobs: make(deliveryJobHeap, 0),
	}
	pq.cond = sync.NewCond(&pq.mu)
	heap.Init(&pq.jobs)
	return pq
}

// Push adds a job and wakes one waiting worker.
func (pq *PriorityQueue) Push(job *DeliveryJob) {
	pq.mu.Lock()
	defer pq.mu.Unlock()

	heap.Push(&pq.jobs, job)
	pq.cond.Signal()
}

// Pop removes and returns the highest priority job, blocking while the
// queue is empty. Returns nil once the queue is closed and drained.
func (pq *PriorityQueue) Pop() *DeliveryJob {
	pq.mu.Lock()
	defer pq.mu.Unlock()

	for pq.jobs.Len() == 0 && !pq.closed {
		pq.cond.Wait()
	}
	if pq.jobs.Len() == 0 {
		return nil
	}
	return heap.Pop(&pq.jobs).(*DeliveryJob)
}

// TryPop pops without blocking, returning nil when the queue is empty.
func (pq *PriorityQueue) TryPop() *DeliveryJob {
	pq.mu.Lock()
	defer pq.mu.Unlock()

	if pq.jobs.Len() == 0 {
		return nil
	}
	return heap.Pop(&pq.jobs).(*DeliveryJob)
}

// Close wakes all blocked workers. Queued jobs can still be drained.
func (pq *PriorityQueue) Close() {
	pq.mu.Lock()
	defer pq.mu.Unlock()
	pq.closed = true
	pq.cond.Broadcast()
}

// Len returns the number of queued jobs.
func (pq *PriorityQueue) Len() int {
	pq.mu.Lock()
	defer pq.mu.Unlock()
	return pq.jobs.Len()
}
