package scheduler

import "time"

// TickDriverGuideEntry documents one supported driver profile.
type TickDriverGuideEntry struct {
	Kind               TickDriverKind
	Label              string
	Description        string
	DefaultResolution  time.Duration
	TestOnly           bool
}

// TickDriverMatrix is the quickstart guidance table surfaced to callers
// deciding which driver to configure.
var TickDriverMatrix = []TickDriverGuideEntry{
	{
		Kind:              DriverAuto,
		Label:             "auto-std",
		Description:       "time.Ticker-backed pulse loop for normal process use",
		DefaultResolution: 10 * time.Millisecond,
		TestOnly:          false,
	},
	{
		Kind:              DriverHardware,
		Label:             "hardware",
		Description:       "external pulses via Scheduler.EnqueueFromISR",
		DefaultResolution: 1 * time.Millisecond,
		TestOnly:          false,
	},
	{
		Kind:              DriverManualTest,
		Label:             "manual-test",
		Description:       "deterministic Scheduler.Advance(n) for tests",
		DefaultResolution: 10 * time.Millisecond,
		TestOnly:          true,
	},
}
