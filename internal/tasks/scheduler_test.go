package tasks

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kelarin/rosync/internal/shared"
)

// blockingEngine parks in Run until released.
type blockingEngine struct {
	started chan struct{}
	release chan struct{}
	runs    atomic.Int32
	err     error
}

func (e *blockingEngine) Run(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error) {
	e.runs.Add(1)
	if e.started != nil {
		close(e.started)
		e.started = nil
	}
	if e.release != nil {
		<-e.release
	}
	return &SyncResult{RunID: "run-1"}, e.err
}

func TestSchedulerSkipsOverlappingRun(t *testing.T) {
	engine := &blockingEngine{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	sched := NewScheduler(engine, time.Hour, shared.NewLogger(io.Discard), nil)

	go sched.runOnce(context.Background())
	<-engine.started

	// First run still parked; a second tick must skip, not queue.
	sched.runOnce(context.Background())
	if got := engine.runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1 while first run in flight", got)
	}

	close(engine.release)
}

func TestSchedulerSwallowsRunErrors(t *testing.T) {
	engine := &blockingEngine{err: errors.New("boom")}

	var mu sync.Mutex
	var results []*SyncResult
	sched := NewScheduler(engine, time.Hour, shared.NewLogger(io.Discard), func(res *SyncResult, runErr error) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, res)
	})

	sched.runOnce(context.Background())
	sched.runOnce(context.Background())

	if got := engine.runs.Load(); got != 2 {
		t.Errorf("runs = %d, want 2 (errors must not stop later runs)", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 2 {
		t.Errorf("onResult calls = %d, want 2", len(results))
	}
}

func TestSchedulerStartStopsOnCancel(t *testing.T) {
	engine := &blockingEngine{}
	sched := NewScheduler(engine, time.Hour, shared.NewLogger(io.Discard), nil)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Start() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}
