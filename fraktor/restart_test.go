package fraktor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRestartStatistics_PrunesOutsideWindow(t *testing.T) {
	var stats RestartStatistics
	base := time.Now()

	assert.Equal(t, uint32(1), stats.RecordFailure(base, time.Second, nil))
	assert.Equal(t, uint32(2), stats.RecordFailure(base.Add(100*time.Millisecond), time.Second, nil))

	// Well outside the one-second window: the earlier two entries are pruned.
	count := stats.RecordFailure(base.Add(5*time.Second), time.Second, nil)
	assert.Equal(t, uint32(1), count)
}

func TestRestartStatistics_ResetClearsHistory(t *testing.T) {
	var stats RestartStatistics
	stats.RecordFailure(time.Now(), time.Second, nil)
	stats.Reset()
	assert.Equal(t, 0, stats.Count())
}
