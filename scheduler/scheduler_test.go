package scheduler_test

import (
	"errors"
	"testing"

	"github.com/lguibr/fraktor/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCommand struct {
	runs *int
}

func (c *recordingCommand) Execute() { *c.runs++ }

func manualConfig() scheduler.Config {
	cfg := scheduler.DefaultConfig()
	cfg.Driver = scheduler.DriverManualTest
	cfg.WheelSize = 16
	return cfg
}

func TestScheduler_OnceFiresExactlyAtItsDeadline(t *testing.T) {
	s := scheduler.New(manualConfig())
	runs := 0
	s.ScheduleOnce(3, &recordingCommand{runs: &runs})

	s.Advance(2)
	assert.Equal(t, 0, runs, "must not fire before its deadline tick")

	s.Advance(1)
	assert.Equal(t, 1, runs, "must fire exactly on its deadline tick")

	s.Advance(5)
	assert.Equal(t, 1, runs, "a Once entry must never fire twice")
}

func TestScheduler_PeriodicReArmsAtFixedInterval(t *testing.T) {
	s := scheduler.New(manualConfig())
	runs := 0
	s.SchedulePeriodic(2, 2, &recordingCommand{runs: &runs})

	s.Advance(2)
	assert.Equal(t, 1, runs)
	s.Advance(2)
	assert.Equal(t, 2, runs)
	s.Advance(2)
	assert.Equal(t, 3, runs)
}

func TestScheduler_CancelBeforeDeadlinePreventsExecution(t *testing.T) {
	s := scheduler.New(manualConfig())
	runs := 0
	handle, _ := s.ScheduleOnce(5, &recordingCommand{runs: &runs})

	assert.True(t, s.Cancel(handle))
	s.Advance(10)
	assert.Equal(t, 0, runs)

	assert.False(t, s.Cancel(handle), "cancelling twice must report failure the second time")
}

func TestScheduler_PeriodicCancellationStopsFutureFirings(t *testing.T) {
	s := scheduler.New(manualConfig())
	runs := 0
	handle, _ := s.SchedulePeriodic(1, 1, &recordingCommand{runs: &runs})

	s.Advance(1)
	assert.Equal(t, 1, runs)

	assert.True(t, s.Cancel(handle))
	s.Advance(5)
	assert.Equal(t, 1, runs, "cancelling a periodic entry must stop further re-arms")
}

func TestCancellableEntry_TransitionsMatchLifecycle(t *testing.T) {
	entry := scheduler.NewCancellableEntry()
	assert.Equal(t, scheduler.Pending, entry.State())

	entry.MarkScheduled()
	assert.Equal(t, scheduler.Scheduled, entry.State())

	assert.True(t, entry.TryBeginExecute())
	assert.Equal(t, scheduler.Executing, entry.State())

	entry.MarkCompleted()
	assert.True(t, entry.IsCompleted())
}

func TestCancellableEntry_TryCancelOnlySucceedsWhileScheduled(t *testing.T) {
	entry := scheduler.NewCancellableEntry()
	entry.MarkScheduled()

	assert.True(t, entry.TryBeginExecute())
	assert.False(t, entry.TryCancel(), "cannot cancel an entry already executing")

	other := scheduler.NewCancellableEntry()
	other.MarkScheduled()
	assert.True(t, other.TryCancel())
	assert.True(t, other.IsCancelled())
}

type failingTask struct{}

func (failingTask) Run() error { return errors.New("boom") }

type okTask struct{ ran *[]string; label string }

func (t okTask) Run() error {
	*t.ran = append(*t.ran, t.label)
	return nil
}

func TestScheduler_ShutdownRunsTasksInPriorityThenRegistrationOrder(t *testing.T) {
	s := scheduler.New(manualConfig())
	var ran []string

	s.RegisterShutdownTask(scheduler.TaskRunUser, okTask{ran: &ran, label: "user-1"})
	s.RegisterShutdownTask(scheduler.TaskRunSystemCritical, okTask{ran: &ran, label: "critical-1"})
	s.RegisterShutdownTask(scheduler.TaskRunRuntime, okTask{ran: &ran, label: "runtime-1"})
	s.RegisterShutdownTask(scheduler.TaskRunSystemCritical, okTask{ran: &ran, label: "critical-2"})

	summary := s.Shutdown()
	require.Equal(t, 4, summary.ExecutedTasks)
	assert.Equal(t, []string{"critical-1", "critical-2", "runtime-1", "user-1"}, ran)
}

func TestScheduler_ShutdownTalliesFailedTasks(t *testing.T) {
	s := scheduler.New(manualConfig())
	s.RegisterShutdownTask(scheduler.TaskRunUser, failingTask{})

	summary := s.Shutdown()
	assert.Equal(t, 0, summary.ExecutedTasks)
	assert.Equal(t, 1, summary.FailedTasks)
}

func TestTickFeed_DrainRespectsQuotaAcrossChannelAndBacklog(t *testing.T) {
	feed := scheduler.NewTickFeed(2)
	for i := 0; i < 5; i++ {
		feed.Pulse()
	}
	first := feed.Drain(3)
	assert.Equal(t, uint64(3), first)
	second := feed.Drain(0)
	assert.Equal(t, uint64(2), second)
}
