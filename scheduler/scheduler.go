package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// Config configures a Scheduler's wheel size, tick resolution, driver and
// batching limits.
type Config struct {
	Resolution        time.Duration
	WheelSize         uint64
	Driver            TickDriverKind
	TickBufferQuota   int
	FeedCapacity      int
	DiagnosticsBuffer int
}

// DefaultConfig returns a 10ms-resolution, 512-bucket auto-driven scheduler
// configuration.
func DefaultConfig() Config {
	return Config{
		Resolution:        10 * time.Millisecond,
		WheelSize:         512,
		Driver:            DriverAuto,
		TickBufferQuota:   64,
		FeedCapacity:      256,
		DiagnosticsBuffer: 16,
	}
}

// Scheduler drives a hashed timing wheel: a pluggable pulse source feeds
// ticks through a bounded TickFeed, and each batch of pulses advances the
// current tick, firing due entries via TryBeginExecute and rescheduling
// periodic ones.
type Scheduler struct {
	cfg Config

	mu          sync.Mutex
	wheel       *timingWheel
	currentTick uint64
	handleSeq   uint64
	index       map[TimerHandle]*TimerEntry

	feed        *TickFeed
	diagnostics *DiagnosticsHub

	taskSeq  uint64
	tasks    taskRunQueue

	runWG        sync.WaitGroup
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// New builds a Scheduler from cfg. Call Start to begin driving ticks
// (DriverManualTest configurations do not need Start; call Advance
// directly).
func New(cfg Config) *Scheduler {
	if cfg.WheelSize == 0 {
		cfg.WheelSize = 512
	}
	if cfg.Resolution <= 0 {
		cfg.Resolution = 10 * time.Millisecond
	}
	return &Scheduler{
		cfg:         cfg,
		wheel:       newTimingWheel(cfg.WheelSize),
		index:       make(map[TimerHandle]*TimerEntry),
		feed:        NewTickFeed(cfg.FeedCapacity),
		diagnostics: NewDiagnosticsHub(cfg.DiagnosticsBuffer),
		shutdownCh:  make(chan struct{}),
	}
}

// Diagnostics returns the metrics pub/sub hub.
func (s *Scheduler) Diagnostics() *DiagnosticsHub { return s.diagnostics }

// Start begins the background pulse/drive loop for Auto and Hardware
// drivers. ManualTest drivers are advanced explicitly via Advance and
// ignore Start.
func (s *Scheduler) Start(ctx context.Context) {
	if s.cfg.Driver == DriverManualTest {
		return
	}
	s.runWG.Add(1)
	go func() {
		defer s.runWG.Done()
		ticker := time.NewTicker(s.cfg.Resolution)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if s.cfg.Driver == DriverAuto {
					s.feed.Pulse()
				}
				s.processPending()
			case <-ctx.Done():
				return
			case <-s.shutdownCh:
				return
			}
		}
	}()
}

// EnqueueFromISR records one pulse for a Hardware-driven scheduler from
// external interrupt-equivalent code.
func (s *Scheduler) EnqueueFromISR() {
	s.feed.Pulse()
}

// Advance pulses the feed n times and synchronously drains/drives,
// intended for DriverManualTest configurations in deterministic tests.
func (s *Scheduler) Advance(n int) {
	for i := 0; i < n; i++ {
		s.feed.Pulse()
	}
	s.processPending()
}

func (s *Scheduler) processPending() {
	pulses := s.feed.Drain(s.cfg.TickBufferQuota)
	if pulses == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := uint64(0); i < pulses; i++ {
		s.currentTick++
		tick := s.currentTick
		drops := s.fireDueLocked(tick)
		s.diagnostics.Publish(SchedulerTickMetrics{
			CurrentTick:  tick,
			ActiveTimers: len(s.index),
			Drops:        drops,
		})
	}
}

func (s *Scheduler) fireDueLocked(tick uint64) int {
	due := s.wheel.due(tick)
	drops := 0
	for _, entry := range due {
		if !entry.cancellable.TryBeginExecute() {
			delete(s.index, entry.handle)
			drops++
			continue
		}
		entry.command.Execute()
		if entry.mode == Periodic {
			entry.deadlineTick = tick + entry.intervalTicks
			entry.cancellable.ResetToScheduled()
			s.wheel.insert(entry)
		} else {
			entry.cancellable.MarkCompleted()
			delete(s.index, entry.handle)
		}
	}
	return drops
}

// ScheduleOnce arms cmd to fire delayTicks ticks from now.
func (s *Scheduler) ScheduleOnce(delayTicks uint64, cmd Command) (TimerHandle, *CancellableEntry) {
	return s.schedule(delayTicks, 0, Once, cmd)
}

// SchedulePeriodic arms cmd to first fire firstDelayTicks ticks from now,
// then every intervalTicks thereafter (fixed-rate: the next deadline is
// computed from the tick it actually fired on).
func (s *Scheduler) SchedulePeriodic(firstDelayTicks, intervalTicks uint64, cmd Command) (TimerHandle, *CancellableEntry) {
	return s.schedule(firstDelayTicks, intervalTicks, Periodic, cmd)
}

func (s *Scheduler) schedule(delayTicks, intervalTicks uint64, mode TimerMode, cmd Command) (TimerHandle, *CancellableEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handleSeq++
	handle := TimerHandle(s.handleSeq)
	cancellable := NewCancellableEntry()
	cancellable.MarkScheduled()

	entry := &TimerEntry{
		handle:        handle,
		deadlineTick:  s.currentTick + delayTicks,
		mode:          mode,
		intervalTicks: intervalTicks,
		command:       cmd,
		cancellable:   cancellable,
	}
	s.wheel.insert(entry)
	s.index[handle] = entry
	return handle, cancellable
}

// Cancel CAS-cancels handle while it is still Scheduled. Returns false if
// the entry is already executing, completed, or unknown.
func (s *Scheduler) Cancel(handle TimerHandle) bool {
	s.mu.Lock()
	entry, ok := s.index[handle]
	s.mu.Unlock()
	if !ok {
		return false
	}
	cancelled := entry.cancellable.TryCancel()
	if cancelled {
		s.mu.Lock()
		delete(s.index, handle)
		s.mu.Unlock()
	}
	return cancelled
}

// ForceCancel unconditionally marks handle cancelled, even mid-execution;
// the observable transition still only becomes visible after any in-flight
// run completes (ForceCancel does not preempt a running Command).
func (s *Scheduler) ForceCancel(handle TimerHandle) {
	s.mu.Lock()
	entry, ok := s.index[handle]
	if ok {
		delete(s.index, handle)
	}
	s.mu.Unlock()
	if ok {
		entry.cancellable.ForceCancel()
	}
}

// RegisterShutdownTask files a TaskRunOnClose to run during Shutdown,
// ordered by priority then registration order.
func (s *Scheduler) RegisterShutdownTask(priority TaskRunPriority, task TaskRunOnClose) TaskRunHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskSeq++
	entry := &taskRunEntry{priority: priority, sequence: s.taskSeq, handle: TaskRunHandle(s.taskSeq), task: task}
	heap.Push(&s.tasks, entry)
	return entry.handle
}

// Shutdown stops the background pulse loop and runs every registered
// shutdown task in priority order, summarizing the outcome.
func (s *Scheduler) Shutdown() TaskRunSummary {
	s.shutdownOnce.Do(func() { close(s.shutdownCh) })
	s.runWG.Wait()

	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	summary := TaskRunSummary{}
	for tasks.Len() > 0 {
		entry := heap.Pop(&tasks).(*taskRunEntry)
		if entry.task == nil {
			continue
		}
		if err := entry.task.Run(); err != nil {
			summary.FailedTasks++
		} else {
			summary.ExecutedTasks++
		}
	}
	return summary
}

// CurrentTick returns the scheduler's current tick counter.
func (s *Scheduler) CurrentTick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTick
}
