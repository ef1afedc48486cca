package fraktor

import (
	"fmt"
	"sync/atomic"
)

// Pid identifies one actor cell. Value is a process-wide unique counter;
// Generation increments each time the cell behind the same logical name is
// restarted, so stale references (captured before a restart) can be told
// apart from the live cell.
type Pid struct {
	Value      uint64
	Generation uint32
}

// NullPid is the zero value, used by ActorRef.Null.
var NullPid = Pid{}

// IsNull reports whether the pid is the null pid.
func (p Pid) IsNull() bool {
	return p == NullPid
}

// WithGeneration returns a copy of the pid bumped to the given generation.
func (p Pid) WithGeneration(gen uint32) Pid {
	p.Generation = gen
	return p
}

func (p Pid) String() string {
	return fmt.Sprintf("pid(%d.%d)", p.Value, p.Generation)
}

// pidAllocator hands out monotonically increasing pid values.
type pidAllocator struct {
	counter uint64
}

func (a *pidAllocator) next() Pid {
	v := atomic.AddUint64(&a.counter, 1)
	return Pid{Value: v, Generation: 0}
}
