package fraktor

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ActorSystemState is the nucleus shared by every cell in one actor system:
// the cell registry, name/pid allocation, deathwatch bookkeeping, dead
// letters, event stream and the middleware registry. ActorSystem is the
// public facade wrapping it; ActorContext reaches it through ActorCell.
type ActorSystemState struct {
	name string

	mu        sync.RWMutex
	cells     map[uint64]*ActorCell
	pathIndex map[string]uint64

	pidAlloc pidAllocator

	watchMu  sync.Mutex
	watchers map[uint64]map[uint64]struct{}

	nameMu      sync.Mutex
	names       map[uint64]map[string]bool
	anonCounter atomic.Uint64

	middlewareMu sync.RWMutex
	middleware   map[string]Middleware

	deadLetters *DeadLetterRepository
	events      *EventStream
	provider    *LocalProvider
	log         *slog.Logger

	rootPid           Pid
	systemGuardianPid Pid
	userGuardianPid   Pid

	terminating atomic.Bool
	doneCh      chan struct{}

	hooksMu sync.Mutex
	hooks   []func()
}

func newActorSystemState(name string, log *slog.Logger) *ActorSystemState {
	if log == nil {
		log = slog.Default()
	}
	s := &ActorSystemState{
		name:       name,
		cells:      make(map[uint64]*ActorCell),
		pathIndex:  make(map[string]uint64),
		watchers:   make(map[uint64]map[uint64]struct{}),
		names:      make(map[uint64]map[string]bool),
		middleware: make(map[string]Middleware),
		log:        log,
		doneCh:     make(chan struct{}),
	}
	s.events = NewEventStream(256)
	s.deadLetters = NewDeadLetterRepository(0, s.events)
	s.provider = NewLocalProvider(s, 1024)
	s.middleware["logging"] = LoggingMiddleware()
	return s
}

func (s *ActorSystemState) allocatePid() Pid { return s.pidAlloc.next() }

func (s *ActorSystemState) registerCell(cell *ActorCell) {
	s.mu.Lock()
	s.cells[cell.pid.Value] = cell
	s.pathIndex[cell.path.String()] = cell.pid.Value
	s.mu.Unlock()
}

func (s *ActorSystemState) removeCell(cell *ActorCell) {
	s.mu.Lock()
	delete(s.cells, cell.pid.Value)
	delete(s.pathIndex, cell.path.String())
	s.mu.Unlock()
}

func (s *ActorSystemState) lookupCell(pid Pid) (*ActorCell, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cell, ok := s.cells[pid.Value]
	return cell, ok
}

func (s *ActorSystemState) pidForPath(path string) (Pid, bool) {
	s.mu.RLock()
	value, ok := s.pathIndex[path]
	s.mu.RUnlock()
	if !ok {
		return Pid{}, false
	}
	cell, ok := s.lookupCell(Pid{Value: value})
	if !ok {
		return Pid{}, false
	}
	return cell.currentPid(), true
}

// reserveName claims name under parent, generating an anonymous "$N" name
// when name is empty. Returns false on collision with an explicit name.
func (s *ActorSystemState) reserveName(parent Pid, name string) (string, bool) {
	s.nameMu.Lock()
	defer s.nameMu.Unlock()

	taken := s.names[parent.Value]
	if taken == nil {
		taken = make(map[string]bool)
		s.names[parent.Value] = taken
	}

	if name == "" {
		for {
			candidate := fmt.Sprintf("$%d", s.anonCounter.Add(1))
			if !taken[candidate] {
				taken[candidate] = true
				return candidate, true
			}
		}
	}

	if taken[name] {
		return "", false
	}
	taken[name] = true
	return name, true
}

func (s *ActorSystemState) releaseName(parent Pid, name string) {
	s.nameMu.Lock()
	defer s.nameMu.Unlock()
	if taken := s.names[parent.Value]; taken != nil {
		delete(taken, name)
	}
}

// RegisterMiddleware adds a named middleware Props.WithMiddleware can refer
// to. Intended for bootstrap; not safe to call concurrently with spawns that
// reference the same name for the first time.
func (s *ActorSystemState) RegisterMiddleware(name string, mw Middleware) {
	s.middlewareMu.Lock()
	s.middleware[name] = mw
	s.middlewareMu.Unlock()
}

func (s *ActorSystemState) resolveMiddleware(names ...string) []Middleware {
	s.middlewareMu.RLock()
	defer s.middlewareMu.RUnlock()
	out := make([]Middleware, 0, len(names))
	for _, n := range names {
		if mw, ok := s.middleware[n]; ok {
			out = append(out, mw)
		} else {
			s.log.Warn("unknown middleware name", "name", n)
		}
	}
	return out
}

func (s *ActorSystemState) watch(target, watcher Pid) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	set := s.watchers[target.Value]
	if set == nil {
		set = make(map[uint64]struct{})
		s.watchers[target.Value] = set
	}
	set[watcher.Value] = struct{}{}
}

func (s *ActorSystemState) unwatch(target, watcher Pid) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if set := s.watchers[target.Value]; set != nil {
		delete(set, watcher.Value)
	}
}

// notifyWatchers delivers exactly one Terminated system message to every
// current watcher of target, then publishes a Terminated event for anything
// (e.g. ActorSystem.Terminate) listening on the event stream instead.
func (s *ActorSystemState) notifyWatchers(target Pid) {
	s.watchMu.Lock()
	set := s.watchers[target.Value]
	delete(s.watchers, target.Value)
	watcherValues := make([]uint64, 0, len(set))
	for v := range set {
		watcherValues = append(watcherValues, v)
	}
	s.watchMu.Unlock()

	for _, v := range watcherValues {
		s.tellSystem(Pid{Value: v}, TerminatedMessage(target))
	}
	s.events.Publish(EventStreamEvent{Kind: EventTerminated, Terminated: target})
}

func (s *ActorSystemState) tellSystem(pid Pid, msg SystemMessage) {
	cell, ok := s.lookupCell(pid)
	if !ok {
		return
	}
	cell.deliverSystem(msg)
}

func (s *ActorSystemState) tellUser(pid Pid, msg AnyMessage) *SendError {
	cell, ok := s.lookupCell(pid)
	if !ok {
		err := newSendError(SendNoRecipient, msg)
		s.deadLetters.RecordSendError(pid, err, time.Now())
		return err
	}
	err := cell.deliverUser(msg)
	if err != nil {
		s.deadLetters.RecordSendError(pid, err, time.Now())
	}
	return err
}

// SpawnChild creates a new cell as a child of parent (NullPid spawns a
// root-level cell with no supervisor); a PreStart failure rolls back the
// pid registration and reserved name.
func (s *ActorSystemState) SpawnChild(parent Pid, props *Props) (ActorRef, *SpawnError) {
	if props == nil || props.Factory == nil {
		return ActorRef{}, newSpawnError(SpawnInvalidProps, "props with a non-nil factory are required")
	}
	if props.Mailbox.Overflow == Block && props.Mailbox.Capacity > 0 &&
		props.Dispatcher.Executor != nil && !props.Dispatcher.Executor.SupportsBlocking() {
		return ActorRef{}, newSpawnError(SpawnInvalidProps, "Block overflow requires an executor that supports blocking")
	}

	parentCell, parentOk := s.lookupCell(parent)
	var parentPath ActorPath
	switch {
	case parent.IsNull():
		parentPath = NewLocalPath(s.name).WithGuardian(GuardianRoot).Build()
	case !parentOk:
		return ActorRef{}, newSpawnError(SpawnSystemUnavailable, "parent cell not found")
	default:
		parentPath = parentCell.path
	}

	name, ok := s.reserveName(parent, props.Name)
	if !ok {
		return ActorRef{}, newSpawnError(SpawnNameCollision, fmt.Sprintf("name %q already in use", props.Name))
	}

	pid := s.allocatePid()
	path := parentPath.Child(name)
	cell := newActorCell(s, pid, parent, name, path, props)
	s.registerCell(cell)

	if err := cell.start(); err != nil {
		s.removeCell(cell)
		s.releaseName(parent, name)
		return ActorRef{}, newSpawnError(SpawnPreStartFailed, err.Error())
	}

	if parentOk {
		parentCell.addChild(pid, name)
		s.watch(pid, parent)
	}

	return cell.ActorRef(), nil
}

func (s *ActorSystemState) logger() *slog.Logger                    { return s.log }
func (s *ActorSystemState) deadLetterRepo() *DeadLetterRepository   { return s.deadLetters }
func (s *ActorSystemState) eventStream() *EventStream               { return s.events }
func (s *ActorSystemState) refProvider() *LocalProvider             { return s.provider }
func (s *ActorSystemState) facade() *ActorSystem                    { return &ActorSystem{state: s} }

func (s *ActorSystemState) registerTerminationHook(fn func()) {
	s.hooksMu.Lock()
	s.hooks = append(s.hooks, fn)
	s.hooksMu.Unlock()
}

func (s *ActorSystemState) runTerminationHooksLIFO() {
	s.hooksMu.Lock()
	hooks := s.hooks
	s.hooks = nil
	s.hooksMu.Unlock()
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}
