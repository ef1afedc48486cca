package fraktor

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ActorSystem is the public entry point: bootstrap, top-level Spawn, and
// Terminate. Internally it is a thin facade over ActorSystemState so
// ActorContext/ActorRef can reach the same state without a public
// dependency cycle.
type ActorSystem struct {
	state *ActorSystemState
}

// NewActorSystem bootstraps root -> {system-guardian, user-guardian},
// rolling back already-spawned guardians with golang.org/x/sync/errgroup
// if a later guardian's PreStart fails.
func NewActorSystem(name string, log *slog.Logger) (*ActorSystem, error) {
	state := newActorSystemState(name, log)

	rootRef, err := state.SpawnChild(NullPid, NewProps(func() Actor { return &guardianActor{} }).WithName("root"))
	if err != nil {
		return nil, err
	}
	state.rootPid = rootRef.Pid()

	sysRef, err := state.SpawnChild(state.rootPid, NewProps(func() Actor { return &guardianActor{} }).WithName("system"))
	if err != nil {
		state.unwindGuardians(state.rootPid)
		return nil, err
	}
	state.systemGuardianPid = sysRef.Pid()

	userRef, err := state.SpawnChild(state.rootPid, NewProps(func() Actor { return &guardianActor{} }).WithName("user"))
	if err != nil {
		state.unwindGuardians(state.systemGuardianPid, state.rootPid)
		return nil, err
	}
	state.userGuardianPid = userRef.Pid()

	return state.facade(), nil
}

// unwindGuardians stops already-spawned guardians concurrently when a later
// bootstrap step fails, so a construction failure never leaks half-started
// supervision trees.
func (s *ActorSystemState) unwindGuardians(pids ...Pid) {
	var g errgroup.Group
	for _, pid := range pids {
		pid := pid
		g.Go(func() error {
			s.tellSystem(pid, StopMessage())
			return nil
		})
	}
	_ = g.Wait()
}

// Name returns the actor system's logical name.
func (sys *ActorSystem) Name() string { return sys.state.name }

// Spawn creates a new top-level actor as a child of the user guardian.
func (sys *ActorSystem) Spawn(props *Props) (ActorRef, *SpawnError) {
	return sys.state.SpawnChild(sys.state.userGuardianPid, props)
}

// SpawnChild creates props as a child of an existing actor's pid.
func (sys *ActorSystem) SpawnChild(parent Pid, props *Props) (ActorRef, *SpawnError) {
	return sys.state.SpawnChild(parent, props)
}

// Resolve looks up a live ActorRef by its canonical path.
func (sys *ActorSystem) Resolve(path ActorPath) (ActorRef, bool) {
	return sys.state.refProvider().Resolve(path)
}

// EventStream returns the system-wide pub/sub hub.
func (sys *ActorSystem) EventStream() *EventStream { return sys.state.eventStream() }

// DeadLetters returns the bounded undeliverable-message repository.
func (sys *ActorSystem) DeadLetters() *DeadLetterRepository { return sys.state.deadLetterRepo() }

// RegisterMiddleware makes a named middleware available to Props.WithMiddleware.
func (sys *ActorSystem) RegisterMiddleware(name string, mw Middleware) {
	sys.state.RegisterMiddleware(name, mw)
}

// RegisterTerminationHook appends fn to the set run, last-in-first-out,
// once Terminate's top-down Stop cascade has fully completed.
func (sys *ActorSystem) RegisterTerminationHook(fn func()) {
	sys.state.registerTerminationHook(fn)
}

// Done returns a channel closed once Terminate has finished.
func (sys *ActorSystem) Done() <-chan struct{} { return sys.state.doneCh }

// Terminate sends a single top-down Stop to the root guardian and waits for
// its Terminated event on the event stream; handleStop/handleTerminated
// already drive the wait-for-children cascade down through the system and
// user guardians, so the root Stop alone unwinds the whole tree.
func (sys *ActorSystem) Terminate(ctx context.Context) error {
	s := sys.state
	if !s.terminating.CompareAndSwap(false, true) {
		<-s.doneCh
		return nil
	}

	sub := s.events.Subscribe()
	defer sub.Unsubscribe()

	s.tellSystem(s.rootPid, StopMessage())
	if err := waitForTerminated(ctx, sub, s.rootPid); err != nil {
		return err
	}

	s.runTerminationHooksLIFO()
	close(s.doneCh)
	return nil
}

func waitForTerminated(ctx context.Context, sub *EventSubscription, target Pid) error {
	for {
		select {
		case ev := <-sub.C:
			if ev.Kind == EventTerminated && ev.Terminated == target {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
