package queue

import (
	"context"
	"sync"

	"github.com/rentables/lease-notification-service/internal/dispatch"
	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/metrics"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
)

const defaultWorkers = 5

// Sender performs one channel delivery. Satisfied by the dispatcher.
type Sender interface {
	Dispatch(ctx context.Context, n *domain.Notification, channel domain.Channel, recipient string, msg dispatch.Message) (*dispatch.Outcome, error)
}

// WorkerPool drains the delivery queue with a fixed set of workers. It
// serves ad-hoc sends with many recipients so the HTTP handler can return
// before every gateway call completes.
type WorkerPool struct {
	queue   *PriorityQueue
	sender  Sender
	workers int
	logger  *logger.Logger
	wg      sync.WaitGroup
}

// NewWorkerPool creates a pool. workers <= 0 selects the default size.
func NewWorkerPool(q *PriorityQueue, sender Sender, workers int, log *logger.Logger) *WorkerPool {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &WorkerPool{
		queue:   q,
		sender:  sender,
		workers: workers,
		logger:  log,
	}
}

// Start launches the workers.
func (p *WorkerPool) Start() {
	p.logger.Info("starting delivery workers", "workers", p.workers)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the queue and waits for the workers to drain it.
func (p *WorkerPool) Stop() {
	p.queue.Close()
	p.wg.Wait()
	p.logger.Info("delivery workers stopped")
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		job := p.queue.Pop()
		if job == nil {
			return
		}
		metrics.DeliveryQueueSize.Set(float64(p.queue.Len()))

		outcome, err := p.sender.Dispatch(context.Background(), job.Notification, job.Channel, job.Recipient, job.Message)
		if err != nil {
			p.logger.Error("queued delivery rejected",
				"job_id", job.ID,
				"worker_id", id,
				"channel", job.Channel,
				"error", err)
			continue
		}
		if outcome.Status == domain.DeliveryStatusFailed {
			p.logger.Warn("queued delivery failed",
				"job_id", job.ID,
				"worker_id", id,
				"channel", job.Channel,
				"error", outcome.Error)
		}
	}
}
