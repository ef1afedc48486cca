package fraktor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// DispatchTask is one drive-cycle invocation submitted to an Executor.
type DispatchTask func()

// DispatchError is returned when an Executor cannot accept a task.
type DispatchError struct {
	Reason string
}

func (e *DispatchError) Error() string { return e.Reason }

// Executor is the strategy for where dispatcher work runs.
type Executor interface {
	Execute(task DispatchTask) error
	// SupportsBlocking reports whether submitting work to this executor can
	// safely coexist with a Block-overflow mailbox without risking
	// deadlock. ActorSystemState.SpawnChild rejects a bounded Block-overflow
	// mailbox whose executor returns false here.
	SupportsBlocking() bool
}

// InlineExecutor runs the task synchronously on the calling goroutine. Used
// for tests and embedding without a worker pool — inline means inline, no
// extra goroutine per dispatch.
type InlineExecutor struct{}

// NewInlineExecutor builds an InlineExecutor.
func NewInlineExecutor() *InlineExecutor { return &InlineExecutor{} }

func (*InlineExecutor) Execute(task DispatchTask) error {
	task()
	return nil
}

// SupportsBlocking is false: running a Block-policy producer's wait on the
// same goroutine that would otherwise drain the mailbox deadlocks.
func (*InlineExecutor) SupportsBlocking() bool { return false }

// PooledExecutor spawns each drive cycle on a bounded worker pool, guarded
// by a circuit breaker so a saturated pool fails fast instead of the
// dispatcher blocking indefinitely.
type PooledExecutor struct {
	jobs    chan DispatchTask
	breaker *gobreaker.CircuitBreaker
	wg      sync.WaitGroup
	closed  chan struct{}
	once    sync.Once
}

// NewPooledExecutor starts workers goroutines draining a queue of depth
// queueDepth. A breaker trips after 5 consecutive submission failures
// (queue full) and resets after 5 seconds.
func NewPooledExecutor(workers, queueDepth int) *PooledExecutor {
	if workers <= 0 {
		workers = 1
	}
	if queueDepth <= 0 {
		queueDepth = 1
	}
	e := &PooledExecutor{
		jobs:   make(chan DispatchTask, queueDepth),
		closed: make(chan struct{}),
	}
	e.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "fraktor-dispatcher-pool",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	return e
}

func (e *PooledExecutor) worker() {
	defer e.wg.Done()
	for {
		select {
		case task, ok := <-e.jobs:
			if !ok {
				return
			}
			task()
		case <-e.closed:
			return
		}
	}
}

// Execute submits task to the pool. Submission itself is non-blocking: if
// the queue is full the attempt counts as a circuit-breaker failure.
func (e *PooledExecutor) Execute(task DispatchTask) error {
	_, err := e.breaker.Execute(func() (interface{}, error) {
		select {
		case e.jobs <- task:
			return nil, nil
		default:
			return nil, errors.New("dispatcher pool queue full")
		}
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &DispatchError{Reason: fmt.Sprintf("dispatcher pool unavailable: %v", err)}
		}
		return &DispatchError{Reason: err.Error()}
	}
	return nil
}

// SupportsBlocking is true: a worker blocked awaiting mailbox capacity does
// not starve other cells, since each cell's drive cycle runs on its own
// pooled goroutine slot independent of the caller.
func (e *PooledExecutor) SupportsBlocking() bool { return true }

// Shutdown stops the workers and waits for each to finish the task it is
// running. Tasks still queued are not run, and Execute does not reject
// tasks submitted afterwards.
func (e *PooledExecutor) Shutdown() {
	e.once.Do(func() { close(e.closed) })
	e.wg.Wait()
}
