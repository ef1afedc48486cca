package fraktor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const defaultDeadLetterCapacity = 256

// DeadLetterEntry records one message that could not be delivered.
type DeadLetterEntry struct {
	Recipient Pid
	Message   AnyMessage
	Reason    DeadLetterReason
	Timestamp time.Time
}

// DeadLetterRepository is a bounded FIFO of recent undeliverable messages;
// every recorded entry also publishes a DeadLetter and a Log{Warn} event to
// the event stream.
type DeadLetterRepository struct {
	mu       sync.Mutex
	capacity int
	entries  []DeadLetterEntry
	events   *EventStream
}

// NewDeadLetterRepository builds a repository bounded at capacity entries
// (0 uses the default of 256), publishing onto events.
func NewDeadLetterRepository(capacity int, events *EventStream) *DeadLetterRepository {
	if capacity <= 0 {
		capacity = defaultDeadLetterCapacity
	}
	return &DeadLetterRepository{capacity: capacity, events: events}
}

// RecordSendError files a failed Tell/EnqueueUser attempt, deriving the
// dead-letter reason from the SendError's kind.
func (d *DeadLetterRepository) RecordSendError(recipient Pid, err *SendError, now time.Time) {
	d.recordEntry(DeadLetterEntry{
		Recipient: recipient,
		Message:   err.Message,
		Reason:    reasonForSendError(err.Kind),
		Timestamp: now,
	})
}

// RecordEntry files a drop that did not originate from a SendError (e.g. an
// overflow-policy drop reported via the mailbox's dropListener).
func (d *DeadLetterRepository) RecordEntry(recipient Pid, msg AnyMessage, reason DeadLetterReason, now time.Time) {
	d.recordEntry(DeadLetterEntry{Recipient: recipient, Message: msg, Reason: reason, Timestamp: now})
}

func (d *DeadLetterRepository) recordEntry(entry DeadLetterEntry) {
	d.mu.Lock()
	d.entries = append(d.entries, entry)
	if len(d.entries) > d.capacity {
		d.entries = d.entries[len(d.entries)-d.capacity:]
	}
	d.mu.Unlock()

	d.publish(entry)
}

func (d *DeadLetterRepository) publish(entry DeadLetterEntry) {
	if d.events == nil {
		return
	}
	e := entry
	d.events.Publish(EventStreamEvent{Kind: EventDeadLetter, DeadLetter: &e})
	d.events.Publish(EventStreamEvent{
		Kind:       EventLog,
		LogLevel:   slog.LevelWarn,
		LogMessage: fmt.Sprintf("dead letter: recipient=%s reason=%s", entry.Recipient, entry.Reason),
	})
}

// Snapshot returns a copy of the currently retained entries, oldest first.
func (d *DeadLetterRepository) Snapshot() []DeadLetterEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]DeadLetterEntry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Len reports how many entries are currently retained.
func (d *DeadLetterRepository) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}
