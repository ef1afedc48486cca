// Package scheduler implements a hashed timing-wheel scheduler driving
// delayed and periodic commands at tick boundaries, independent of the
// fraktor actor runtime's own package so it can be reused or tested in
// isolation.
package scheduler

import "sync/atomic"

// CancellableState enumerates a scheduled job's lifecycle.
type CancellableState uint32

const (
	Pending CancellableState = iota
	Scheduled
	Executing
	Completed
	Cancelled
)

func (s CancellableState) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Scheduled:
		return "Scheduled"
	case Executing:
		return "Executing"
	case Completed:
		return "Completed"
	default:
		return "Cancelled"
	}
}

// CancellableEntry is the lock-free state machine backing one scheduled
// job: Pending -> Scheduled -> Executing -> (Completed | Cancelled).
type CancellableEntry struct {
	state atomic.Uint32
}

// NewCancellableEntry returns an entry in the Pending state.
func NewCancellableEntry() *CancellableEntry {
	return &CancellableEntry{}
}

// MarkScheduled transitions the entry to Scheduled.
func (e *CancellableEntry) MarkScheduled() {
	e.state.Store(uint32(Scheduled))
}

// TryBeginExecute CAS-transitions Scheduled -> Executing.
func (e *CancellableEntry) TryBeginExecute() bool {
	return e.state.CompareAndSwap(uint32(Scheduled), uint32(Executing))
}

// ResetToScheduled transitions back to Scheduled (periodic re-arm).
func (e *CancellableEntry) ResetToScheduled() {
	e.state.Store(uint32(Scheduled))
}

// TryCancel CAS-transitions Scheduled -> Cancelled.
func (e *CancellableEntry) TryCancel() bool {
	return e.state.CompareAndSwap(uint32(Scheduled), uint32(Cancelled))
}

// ForceCancel stores Cancelled unconditionally.
func (e *CancellableEntry) ForceCancel() {
	e.state.Store(uint32(Cancelled))
}

// MarkCompleted transitions the entry to Completed.
func (e *CancellableEntry) MarkCompleted() {
	e.state.Store(uint32(Completed))
}

// State returns the current state.
func (e *CancellableEntry) State() CancellableState {
	return CancellableState(e.state.Load())
}

// IsCancelled reports whether the entry has been cancelled.
func (e *CancellableEntry) IsCancelled() bool { return e.State() == Cancelled }

// IsCompleted reports whether the entry completed execution.
func (e *CancellableEntry) IsCompleted() bool { return e.State() == Completed }
