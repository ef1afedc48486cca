package fraktor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type cellLifecycle uint32

const (
	cellPreStart cellLifecycle = iota
	cellRunning
	cellStopping
	cellStopped
)

// ActorCell owns one actor instance's mailbox, dispatcher, supervision
// bookkeeping and child registry. It implements MessageInvoker so its
// Dispatcher can hand it messages without depending on the rest of the
// package.
type ActorCell struct {
	pid        Pid
	generation atomic.Uint32
	parent     Pid
	name       string
	path       ActorPath
	system     *ActorSystemState
	props      *Props

	mailbox    *Mailbox
	dispatcher *Dispatcher
	pipe       *pipeline

	actorMu sync.Mutex
	actor   Actor
	stash   []AnyMessage

	childrenMu sync.RWMutex
	children   map[uint64]Pid
	childStats map[uint64]*RestartStatistics

	lifecycle atomic.Uint32

	pendingMu         sync.Mutex
	pendingChildStops int
}

func newActorCell(system *ActorSystemState, pid, parent Pid, name string, path ActorPath, props *Props) *ActorCell {
	cell := &ActorCell{
		pid:    pid,
		parent: parent,
		name:   name,
		path:   path,
		system: system,
		props:  props,
	}
	cell.mailbox = NewMailbox(props.Mailbox, func(msg AnyMessage, reason DeadLetterReason) {
		system.deadLetterRepo().RecordEntry(cell.currentPid(), msg, reason, time.Now())
	})
	cell.dispatcher = NewDispatcher(cell.mailbox, props.Dispatcher.Executor, props.Mailbox.ThroughputLimit)
	cell.dispatcher.RegisterInvoker(cell)
	cell.dispatcher.OnDispatchError(func(err error) {
		system.logger().Error("dispatch error", "pid", cell.currentPid().String(), "error", err)
	})
	cell.generation.Store(pid.Generation)
	return cell
}

// currentPid returns the cell's pid with its live generation, which is
// bumped each time restart() runs a fresh actor instance behind the same
// registry entry.
func (c *ActorCell) currentPid() Pid {
	return c.pid.WithGeneration(c.generation.Load())
}

// start runs PreStart and flips the cell into the running state. Callers
// (ActorSystemState.SpawnChild) roll the cell back on a non-nil return.
func (c *ActorCell) start() *ActorError {
	c.actorMu.Lock()
	c.actor = c.props.Factory()
	mw := append([]Middleware{RecoverMiddleware()}, c.system.resolveMiddleware(c.props.Middleware...)...)
	c.pipe = newPipeline(mw)
	ctx := newActorContext(c, nil)
	err := c.actor.PreStart(ctx)
	c.actorMu.Unlock()
	if err != nil {
		return err
	}
	c.lifecycle.Store(uint32(cellRunning))
	return nil
}

// ActorRef returns a send handle addressing this cell.
func (c *ActorCell) ActorRef() ActorRef {
	return ActorRef{pid: c.currentPid(), path: c.path, system: c.system}
}

func (c *ActorCell) childPids() []Pid {
	c.childrenMu.RLock()
	defer c.childrenMu.RUnlock()
	out := make([]Pid, 0, len(c.children))
	for _, pid := range c.children {
		out = append(out, pid)
	}
	return out
}

// addChild records pid keyed by its Value only, so restart statistics and
// membership survive the child's generation being bumped on restart.
func (c *ActorCell) addChild(pid Pid, name string) {
	c.childrenMu.Lock()
	if c.children == nil {
		c.children = make(map[uint64]Pid)
	}
	c.children[pid.Value] = pid
	c.childrenMu.Unlock()
}

func (c *ActorCell) childStatsFor(pid Pid) *RestartStatistics {
	if c.childStats == nil {
		c.childStats = make(map[uint64]*RestartStatistics)
	}
	stats, ok := c.childStats[pid.Value]
	if !ok {
		stats = &RestartStatistics{}
		c.childStats[pid.Value] = stats
	}
	return stats
}

func (c *ActorCell) unstashAll() {
	msgs := c.stash
	c.stash = nil
	if len(msgs) > 0 {
		c.mailbox.PrependUser(msgs)
	}
}

// deliverUser enqueues msg for processing and schedules a drive cycle.
func (c *ActorCell) deliverUser(msg AnyMessage) *SendError {
	_, err := c.mailbox.EnqueueUser(context.Background(), msg)
	c.dispatcher.Schedule()
	return err
}

// deliverSystem enqueues a system message and schedules a drive cycle.
func (c *ActorCell) deliverSystem(msg SystemMessage) {
	c.mailbox.EnqueueSystem(msg)
	c.dispatcher.Schedule()
}

// InvokeUserMessage implements MessageInvoker.
func (c *ActorCell) InvokeUserMessage(msg AnyMessage) *ActorError {
	ctx := newActorContext(c, msg.Sender)
	c.actorMu.Lock()
	err := c.pipe.invokeUser(c.actor, ctx, msg)
	c.actorMu.Unlock()
	if err != nil {
		c.handleFailure(err, &msg)
	}
	return err
}

// InvokeSystemMessage implements MessageInvoker.
func (c *ActorCell) InvokeSystemMessage(msg SystemMessage) *ActorError {
	switch msg.Kind {
	case SysStop:
		c.handleStop()
	case SysSuspend:
		c.mailbox.Suspend()
	case SysResume:
		c.mailbox.Resume()
	case SysWatch:
		c.system.watch(msg.Target, msg.Watcher)
	case SysUnwatch:
		c.system.unwatch(msg.Target, msg.Watcher)
	case SysTerminated:
		c.handleTerminated(msg.Target)
	case SysRestart:
		c.restart()
	case SysFailure:
		if msg.Failure != nil {
			c.handleChildFailure(*msg.Failure)
		}
	case SysPipeTask:
		// Ignored at the cell level; nothing in this package sends PipeTask.
	}
	return nil
}

func (c *ActorCell) handleFailure(err *ActorError, msg *AnyMessage) {
	if c.parent.IsNull() {
		c.system.logger().Error("unsupervised actor failure", "pid", c.currentPid().String(), "error", err)
		c.handleStop()
		return
	}
	payload := FailurePayload{
		ChildPid:        c.currentPid(),
		Reason:          err,
		Classification:  err.Class,
		MessageSnapshot: msg,
		Timestamp:       time.Now(),
	}
	c.system.tellSystem(c.parent, FailureMessage(payload))
}

func (c *ActorCell) handleChildFailure(payload FailurePayload) {
	c.actorMu.Lock()
	var strategy SupervisorStrategy
	if c.actor != nil {
		strategy = c.actor.SupervisorStrategy()
	} else {
		strategy = DefaultSupervisorStrategy()
	}
	c.actorMu.Unlock()

	c.childrenMu.Lock()
	stats := c.childStatsFor(payload.ChildPid)
	payload.RestartCount = uint32(stats.Count())
	c.childrenMu.Unlock()

	directive := strategy.HandleFailure(stats, asActorError(payload.Reason), payload.Timestamp)

	siblings := []Pid{payload.ChildPid}
	if strategy.Kind == AllForOne {
		siblings = make([]Pid, 0, len(c.childPids()))
		for _, pid := range c.childPids() {
			if pid.Value != payload.ChildPid.Value {
				siblings = append(siblings, pid)
			}
		}
		siblings = append(siblings, payload.ChildPid)
	}

	switch directive {
	case DirectiveResume:
		c.system.tellSystem(payload.ChildPid, ResumeMessage())
	case DirectiveRestart:
		for _, pid := range siblings {
			c.system.tellSystem(pid, RestartMessage())
		}
	case DirectiveStop:
		for _, pid := range siblings {
			c.system.tellSystem(pid, StopMessage())
		}
	case DirectiveEscalate:
		c.handleFailure(asActorError(payload.Reason), payload.MessageSnapshot)
	}
}

func asActorError(err error) *ActorError {
	if ae, ok := err.(*ActorError); ok {
		return ae
	}
	return FatalErr("child failure", err)
}

// restart discards the current actor instance, builds a fresh one via the
// producer, and runs PreStart again, preserving pid, mailbox and children.
// Mailbox contents are kept unless the mailbox policy says otherwise.
func (c *ActorCell) restart() {
	c.actorMu.Lock()
	if c.actor != nil {
		ctx := newActorContext(c, nil)
		c.actor.PostStop(ctx)
	}
	if !c.props.Mailbox.PreserveOnRestart {
		c.drainMailboxToDeadLetters()
	}
	c.actor = c.props.Factory()
	c.generation.Add(1)
	ctx := newActorContext(c, nil)
	err := c.actor.PreStart(ctx)
	c.actorMu.Unlock()
	if err != nil {
		c.handleFailure(err, nil)
	}
}

func (c *ActorCell) drainMailboxToDeadLetters() {
	for {
		msg, ok := c.mailbox.PopUser()
		if !ok {
			return
		}
		c.system.deadLetterRepo().RecordEntry(c.currentPid(), msg, ReasonRecipientUnavailable, time.Now())
	}
}

func (c *ActorCell) handleStop() {
	if !c.lifecycle.CompareAndSwap(uint32(cellRunning), uint32(cellStopping)) &&
		!c.lifecycle.CompareAndSwap(uint32(cellPreStart), uint32(cellStopping)) {
		return
	}
	c.mailbox.Suspend()

	children := c.childPids()
	if len(children) == 0 {
		c.finalizeStop()
		return
	}
	c.pendingMu.Lock()
	c.pendingChildStops = len(children)
	c.pendingMu.Unlock()
	for _, child := range children {
		c.system.tellSystem(child, StopMessage())
	}
}

func (c *ActorCell) handleTerminated(target Pid) {
	c.actorMu.Lock()
	if c.actor != nil {
		ctx := newActorContext(c, nil)
		c.actor.OnTerminated(ctx, target)
	}
	c.actorMu.Unlock()

	c.childrenMu.Lock()
	_, wasChild := c.children[target.Value]
	delete(c.children, target.Value)
	delete(c.childStats, target.Value)
	c.childrenMu.Unlock()

	if wasChild && cellLifecycle(c.lifecycle.Load()) == cellStopping {
		c.pendingMu.Lock()
		c.pendingChildStops--
		done := c.pendingChildStops <= 0
		c.pendingMu.Unlock()
		if done {
			c.finalizeStop()
		}
	}
}

func (c *ActorCell) finalizeStop() {
	c.actorMu.Lock()
	if c.actor != nil {
		ctx := newActorContext(c, nil)
		c.actor.PostStop(ctx)
	}
	c.actorMu.Unlock()

	c.lifecycle.Store(uint32(cellStopped))
	c.mailbox.Close()
	c.system.removeCell(c)
	c.system.notifyWatchers(c.currentPid())
}
