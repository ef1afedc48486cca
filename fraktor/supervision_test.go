package fraktor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSupervisorStrategy_RestartsRecoverableUnderBudget(t *testing.T) {
	strategy := SupervisorStrategy{
		Kind:        OneForOne,
		MaxRestarts: 3,
		Within:      time.Second,
		Decide:      DefaultDecider,
	}
	var stats RestartStatistics
	now := time.Now()

	for i := 0; i < 3; i++ {
		directive := strategy.HandleFailure(&stats, Recoverable("boom"), now)
		assert.Equal(t, DirectiveRestart, directive)
	}
}

func TestSupervisorStrategy_PromotesToStopPastBudget(t *testing.T) {
	strategy := SupervisorStrategy{
		Kind:        OneForOne,
		MaxRestarts: 2,
		Within:      time.Second,
		Decide:      DefaultDecider,
	}
	var stats RestartStatistics
	now := time.Now()

	directive := strategy.HandleFailure(&stats, Recoverable("boom"), now)
	assert.Equal(t, DirectiveRestart, directive)
	directive = strategy.HandleFailure(&stats, Recoverable("boom"), now)
	assert.Equal(t, DirectiveRestart, directive)
	// Third failure within the window exceeds MaxRestarts.
	directive = strategy.HandleFailure(&stats, Recoverable("boom"), now)
	assert.Equal(t, DirectiveStop, directive)
}

func TestSupervisorStrategy_FatalAlwaysStops(t *testing.T) {
	strategy := DefaultSupervisorStrategy()
	var stats RestartStatistics
	directive := strategy.HandleFailure(&stats, Fatal("unrecoverable"), time.Now())
	assert.Equal(t, DirectiveStop, directive)
}

func TestDefaultDecider(t *testing.T) {
	assert.Equal(t, DirectiveRestart, DefaultDecider(Recoverable("x")))
	assert.Equal(t, DirectiveStop, DefaultDecider(Fatal("x")))
}
