package fraktor

import "time"

// SupervisorStrategyKind selects how a strategy treats siblings of a failed child.
type SupervisorStrategyKind int

const (
	// OneForOne applies the directive only to the failed child.
	OneForOne SupervisorStrategyKind = iota
	// AllForOne applies the directive to every direct child, failed child last.
	AllForOne
)

// SupervisorDirective is the outcome of evaluating a child's failure.
type SupervisorDirective int

const (
	DirectiveResume SupervisorDirective = iota
	DirectiveRestart
	DirectiveStop
	DirectiveEscalate
)

// Decider maps an ActorError to a directive before restart-budget accounting.
type Decider func(err *ActorError) SupervisorDirective

// DefaultDecider restarts Recoverable errors and stops Fatal ones.
func DefaultDecider(err *ActorError) SupervisorDirective {
	if err.IsFatal() {
		return DirectiveStop
	}
	return DirectiveRestart
}

// SupervisorStrategy is a parent's policy for handling child failures:
// kind + restart budget + decider.
type SupervisorStrategy struct {
	Kind        SupervisorStrategyKind
	MaxRestarts uint32
	Within      time.Duration
	Decide      Decider
}

// DefaultSupervisorStrategy returns OneForOne, 10 restarts per second,
// restart-on-Recoverable / stop-on-Fatal.
func DefaultSupervisorStrategy() SupervisorStrategy {
	return SupervisorStrategy{
		Kind:        OneForOne,
		MaxRestarts: 10,
		Within:      time.Second,
		Decide:      DefaultDecider,
	}
}

// HandleFailure applies restart-budget accounting on top of Decide: a
// Restart decision is promoted to Stop once the rolling failure count
// within Within exceeds MaxRestarts. Stop/Escalate reset the statistics.
func (s SupervisorStrategy) HandleFailure(stats *RestartStatistics, err *ActorError, now time.Time) SupervisorDirective {
	switch s.Decide(err) {
	case DirectiveRestart:
		var limit *uint32
		if s.MaxRestarts > 0 {
			limit = &s.MaxRestarts
		}
		count := stats.RecordFailure(now, s.Within, limit)
		if s.MaxRestarts > 0 && count > s.MaxRestarts {
			stats.Reset()
			return DirectiveStop
		}
		return DirectiveRestart
	case DirectiveStop:
		stats.Reset()
		return DirectiveStop
	case DirectiveEscalate:
		stats.Reset()
		return DirectiveEscalate
	default:
		return DirectiveResume
	}
}
