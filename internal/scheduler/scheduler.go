package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/shared/errors"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
	"github.com/robfig/cron/v3"
)

// Evaluator runs one rule evaluation pass.
type Evaluator interface {
	Run(ctx context.Context, now time.Time) (*domain.EvaluationReport, error)
}

// Clock supplies the current time. Injectable for deterministic tests.
type Clock func() time.Time

// Scheduler drives rule evaluation on configured cron cadences. It polls
// the cadences at a fixed interval and executes due ticks synchronously on
// its own goroutine, so ticks never interleave. A tick that panics or
// errors is logged and the loop continues.
type Scheduler struct {
	evaluator    Evaluator
	cadences     []cron.Schedule
	pollInterval time.Duration
	clock        Clock
	logger       *logger.Logger

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New creates a scheduler from cron cadence specs such as "@hourly" or
// "0 9 * * *". A nil clock means time.Now.
func New(evaluator Evaluator, cadenceSpecs []string, pollInterval time.Duration, clock Clock, log *logger.Logger) (*Scheduler, error) {
	if len(cadenceSpecs) == 0 {
		return nil, errors.NewConfigurationError("at least one scheduler cadence is required", nil)
	}
	if clock == nil {
		clock = time.Now
	}

	cadences := make([]cron.Schedule, 0, len(cadenceSpecs))
	for _, spec := range cadenceSpecs {
		schedule, err := cronParser.Parse(spec)
		if err != nil {
			return nil, errors.NewConfigurationError("invalid scheduler cadence "+spec, err)
		}
		cadences = append(cadences, schedule)
	}

	return &Scheduler{
		evaluator:    evaluator,
		cadences:     cadences,
		pollInterval: pollInterval,
		clock:        clock,
		logger:       log,
	}, nil
}

// Start launches the poll loop. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	next := s.nextDue(s.clock())
	s.logger.Info("scheduler started",
		"cadences", len(s.cadences),
		"poll_interval", s.pollInterval.String(),
		"next_tick", next.Format(time.RFC3339))

	go s.loop(next)
}

// Stop signals the loop to exit and waits for it. An in-flight tick runs
// to completion; pending ticks are abandoned.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(next time.Time) {
	defer close(s.done)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := s.clock()
			if now.Before(next) {
				continue
			}
			s.runTick(now)
			next = s.nextDue(now)
		}
	}
}

// nextDue returns the earliest activation across all cadences after now.
func (s *Scheduler) nextDue(now time.Time) time.Time {
	var next time.Time
	for _, cadence := range s.cadences {
		candidate := cadence.Next(now)
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}
	return next
}

// runTick executes one evaluation pass, containing panics and errors at
// the tick boundary.
func (s *Scheduler) runTick(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("evaluation tick panicked", "panic", r)
		}
	}()

	report, err := s.evaluator.Run(context.Background(), now)
	if err != nil {
		s.logger.Error("evaluation tick failed", "error", err)
		return
	}
	s.logger.Debug("evaluation tick finished",
		"notifications_created", report.NotificationsCreated,
		"duplicates_suppressed", report.DuplicatesSuppressed)
}
