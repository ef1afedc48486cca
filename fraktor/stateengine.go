package fraktor

import "sync/atomic"

const (
	flagScheduled uint32 = 1 << 0
	flagRunning   uint32 = 1 << 1
	flagClosed    uint32 = 1 << 2
	suspendShift  uint32 = 3
	suspendMask   uint32 = ^uint32(0) << suspendShift
)

// scheduleHints describes why the caller believes the mailbox might have
// effective work, so request_schedule can decide whether scheduling is
// worthwhile without inspecting the queues itself.
type scheduleHints struct {
	hasSystem   bool
	hasUser     bool
	backpressure bool
}

// mailboxStateEngine is the 32-bit state machine coordinating
// enqueue -> schedule -> run -> idle transitions under concurrent producers.
type mailboxStateEngine struct {
	state           atomic.Uint32
	needReschedule  atomic.Bool
}

// requestSchedule attempts to transition the mailbox into the scheduled
// state. Returns true only when the caller must submit a new dispatch
// cycle to the executor.
func (e *mailboxStateEngine) requestSchedule(hints scheduleHints) bool {
	if !e.hasEffectiveWork(hints) {
		return false
	}

	for {
		state := e.state.Load()
		if state&flagClosed != 0 {
			return false
		}
		if state&(flagScheduled|flagRunning) != 0 {
			e.needReschedule.Store(true)
			return false
		}
		desired := state | flagScheduled
		if e.state.CompareAndSwap(state, desired) {
			return true
		}
	}
}

// setRunning marks the mailbox running, clearing the scheduled flag.
func (e *mailboxStateEngine) setRunning() {
	for {
		state := e.state.Load()
		desired := (state &^ flagScheduled) | flagRunning
		if e.state.CompareAndSwap(state, desired) {
			return
		}
	}
}

// setIdle clears the running flag. Returns true if the mailbox should
// re-enter the drive loop immediately because work arrived mid-run.
func (e *mailboxStateEngine) setIdle() bool {
	for {
		state := e.state.Load()
		desired := state &^ flagRunning
		if e.state.CompareAndSwap(state, desired) {
			break
		}
	}
	return e.needReschedule.Swap(false)
}

// close marks the mailbox permanently closed.
func (e *mailboxStateEngine) close() {
	for {
		state := e.state.Load()
		desired := state | flagClosed
		if e.state.CompareAndSwap(state, desired) {
			return
		}
	}
}

// isClosed reports whether the mailbox has been permanently closed.
func (e *mailboxStateEngine) isClosed() bool {
	return e.state.Load()&flagClosed != 0
}

// suspend increments the suspension counter.
func (e *mailboxStateEngine) suspend() {
	e.updateSuspendCount(func(count uint32) uint32 { return count + 1 })
}

// resume decrements the suspension counter, floored at zero.
func (e *mailboxStateEngine) resume() {
	e.updateSuspendCount(func(count uint32) uint32 {
		if count == 0 {
			return 0
		}
		return count - 1
	})
}

// isSuspended reports whether user-message processing must remain suspended.
func (e *mailboxStateEngine) isSuspended() bool {
	return e.currentSuspendCount() > 0
}

func (e *mailboxStateEngine) hasEffectiveWork(hints scheduleHints) bool {
	return hints.hasSystem || ((hints.hasUser || hints.backpressure) && !e.isSuspended())
}

func (e *mailboxStateEngine) currentSuspendCount() uint32 {
	return (e.state.Load() & suspendMask) >> suspendShift
}

func (e *mailboxStateEngine) updateSuspendCount(f func(uint32) uint32) {
	for {
		state := e.state.Load()
		count := (state & suspendMask) >> suspendShift
		newCount := f(count)
		desired := (state &^ suspendMask) | (newCount << suspendShift)
		if e.state.CompareAndSwap(state, desired) {
			return
		}
	}
}
