package scheduler

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/shared/errors"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type tickEvaluator struct {
	runs chan time.Time

	mu        sync.Mutex
	calls     int
	panicOnce bool
	errOnce   bool
}

func (e *tickEvaluator) Run(_ context.Context, now time.Time) (*domain.EvaluationReport, error) {
	e.mu.Lock()
	e.calls++
	call := e.calls
	e.mu.Unlock()

	e.runs <- now
	if call == 1 && e.panicOnce {
		panic("boom")
	}
	if call == 1 && e.errOnce {
		return nil, stderrors.New("evaluation failed")
	}
	return &domain.EvaluationReport{RanAt: now}, nil
}

func waitRun(t *testing.T, runs <-chan time.Time) time.Time {
	t.Helper()
	select {
	case ranAt := <-runs:
		return ranAt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an evaluation tick")
		return time.Time{}
	}
}

func assertNoRun(t *testing.T, runs <-chan time.Time) {
	t.Helper()
	select {
	case ranAt := <-runs:
		t.Fatalf("unexpected evaluation tick at %v", ranAt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewValidatesCadences(t *testing.T) {
	tests := []struct {
		name  string
		specs []string
	}{
		{"no cadences", nil},
		{"invalid spec", []string{"sometimes"}},
		{"one invalid among valid", []string{"@hourly", "61 * * * *"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&tickEvaluator{}, tt.specs, time.Second, nil, logger.NewNop())
			if err == nil {
				t.Fatal("New() error = nil, want configuration error")
			}
			if !errors.HasCode(err, errors.CodeConfiguration) {
				t.Errorf("error code = %v, want %s", err, errors.CodeConfiguration)
			}
		})
	}
}

func TestNewAcceptsCronAndDescriptorSpecs(t *testing.T) {
	for _, spec := range []string{"@hourly", "@daily", "0 9 * * *", "*/15 * * * *"} {
		if _, err := New(&tickEvaluator{}, []string{spec}, time.Second, nil, logger.NewNop()); err != nil {
			t.Errorf("New(%q) error = %v", spec, err)
		}
	}
}

func TestSchedulerFiresWhenCadenceIsDue(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 6, 1, 9, 0, 30, 0, time.UTC))
	evaluator := &tickEvaluator{runs: make(chan time.Time, 4)}
	s, err := New(evaluator, []string{"@hourly"}, time.Millisecond, clock.Now, logger.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.Start()
	defer s.Stop()

	assertNoRun(t, evaluator.runs)

	due := time.Date(2024, 6, 1, 10, 0, 1, 0, time.UTC)
	clock.Set(due)
	if ranAt := waitRun(t, evaluator.runs); !ranAt.Equal(due) {
		t.Errorf("tick ran with now = %v, want %v", ranAt, due)
	}

	// The tick already fired for this hour; holding the clock still must
	// not fire it again.
	assertNoRun(t, evaluator.runs)
}

func TestSchedulerSurvivesPanickingTick(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 6, 1, 10, 0, 30, 0, time.UTC))
	evaluator := &tickEvaluator{runs: make(chan time.Time, 4), panicOnce: true}
	s, err := New(evaluator, []string{"@hourly"}, time.Millisecond, clock.Now, logger.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.Start()
	defer s.Stop()

	clock.Set(time.Date(2024, 6, 1, 11, 0, 1, 0, time.UTC))
	waitRun(t, evaluator.runs)

	clock.Set(time.Date(2024, 6, 1, 12, 0, 1, 0, time.UTC))
	waitRun(t, evaluator.runs)
}

func TestSchedulerContinuesAfterEvaluationError(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 6, 1, 10, 0, 30, 0, time.UTC))
	evaluator := &tickEvaluator{runs: make(chan time.Time, 4), errOnce: true}
	s, err := New(evaluator, []string{"@hourly"}, time.Millisecond, clock.Now, logger.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.Start()
	defer s.Stop()

	clock.Set(time.Date(2024, 6, 1, 11, 0, 1, 0, time.UTC))
	waitRun(t, evaluator.runs)

	clock.Set(time.Date(2024, 6, 1, 12, 0, 1, 0, time.UTC))
	waitRun(t, evaluator.runs)
}

func TestSchedulerStartStopAreIdempotent(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	evaluator := &tickEvaluator{runs: make(chan time.Time, 4)}
	s, err := New(evaluator, []string{"@hourly"}, time.Millisecond, clock.Now, logger.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.Start()
	s.Start()
	s.Stop()
	s.Stop()

	// A stopped scheduler can be started again.
	s.Start()
	s.Stop()
}

func TestNextDuePicksEarliestCadence(t *testing.T) {
	s, err := New(&tickEvaluator{}, []string{"0 9 * * *", "*/15 * * * *"}, time.Second, nil, logger.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	now := time.Date(2024, 6, 1, 8, 50, 0, 0, time.UTC)
	next := s.nextDue(now)
	want := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("nextDue = %v, want %v", next, want)
	}
}
