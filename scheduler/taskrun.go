package scheduler

import "container/heap"

// TaskRunPriority orders shutdown tasks: SystemCritical first, User last.
type TaskRunPriority int

const (
	TaskRunUser TaskRunPriority = iota
	TaskRunRuntime
	TaskRunSystemCritical
)

func (p TaskRunPriority) rank() int { return int(p) }

// TaskRunOnClose is a task executed by Scheduler.Shutdown after the
// background pulse loop has stopped.
type TaskRunOnClose interface {
	Run() error
}

// TaskRunHandle identifies a registered shutdown task.
type TaskRunHandle uint64

// TaskRunSummary tallies a shutdown pass's outcome.
type TaskRunSummary struct {
	ExecutedTasks int
	FailedTasks   int
}

type taskRunEntry struct {
	priority TaskRunPriority
	sequence uint64
	handle   TaskRunHandle
	task     TaskRunOnClose
}

// taskRunQueue is a container/heap.Interface max-heap on (priority rank,
// then lowest sequence first) so SystemCritical tasks drain before Runtime
// before User, and ties break in registration order.
type taskRunQueue []*taskRunEntry

func (q taskRunQueue) Len() int { return len(q) }

func (q taskRunQueue) Less(i, j int) bool {
	if q[i].priority.rank() != q[j].priority.rank() {
		return q[i].priority.rank() > q[j].priority.rank()
	}
	return q[i].sequence < q[j].sequence
}

func (q taskRunQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *taskRunQueue) Push(x interface{}) {
	*q = append(*q, x.(*taskRunEntry))
}

func (q *taskRunQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

var _ = heap.Interface(&taskRunQueue{})
