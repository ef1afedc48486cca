package fraktor

import (
	"context"
	"log/slog"
)

// replyFunc lets a context redirect a reply into a function instead of a
// mailbox. Nothing in this package installs one; Ask replies through a
// spawned responder actor's mailbox.
type replyFunc func(AnyMessage) *SendError

// ActorContext is handed to actor lifecycle callbacks, exposing the
// runtime hooks a cell's actor instance may use.
type ActorContext struct {
	cell    *ActorCell
	sender  *ActorRef
	replyFn replyFunc
}

func newActorContext(cell *ActorCell, sender *ActorRef) *ActorContext {
	return &ActorContext{cell: cell, sender: sender}
}

func (c *ActorContext) withReplyFn(fn replyFunc) *ActorContext {
	c.replyFn = fn
	return c
}

// SelfRef returns a send handle pointing at the actor processing the message.
func (c *ActorContext) SelfRef() ActorRef { return c.cell.ActorRef() }

// Sender returns the sender of the current message, if any.
func (c *ActorContext) Sender() *ActorRef { return c.sender }

// Children returns the pids of the cell's direct children.
func (c *ActorContext) Children() []Pid { return c.cell.childPids() }

// SpawnChild spawns props as a child of the current actor.
func (c *ActorContext) SpawnChild(props *Props) (ActorRef, *SpawnError) {
	return c.cell.system.SpawnChild(c.cell.pid, props)
}

// StopSelf requests that the current actor stop.
func (c *ActorContext) StopSelf() {
	c.cell.mailbox.EnqueueSystem(StopMessage())
}

// Reply sends a message back to whoever sent the current message, either
// via an injected reply function (set by withReplyFn) or the captured sender ref.
func (c *ActorContext) Reply(msg interface{}) *SendError {
	envelope := NewAnyMessage(msg, nil)
	if c.replyFn != nil {
		return c.replyFn(envelope)
	}
	if c.sender == nil {
		return newSendError(SendNoRecipient, envelope)
	}
	return c.sender.Tell(msg)
}

// Watch subscribes the current actor to the target's termination.
func (c *ActorContext) Watch(target Pid) {
	c.cell.system.watch(target, c.cell.pid)
}

// Unwatch cancels a prior Watch.
func (c *ActorContext) Unwatch(target Pid) {
	c.cell.system.unwatch(target, c.cell.pid)
}

// Stash buffers the current message for later replay via UnstashAll.
func (c *ActorContext) Stash(msg AnyMessage) {
	c.cell.stash = append(c.cell.stash, msg)
}

// UnstashAll re-enqueues every stashed message, oldest first, preserving
// their relative order ahead of anything already waiting.
func (c *ActorContext) UnstashAll() {
	c.cell.unstashAll()
}

// Log emits a structured log event tagged with the current actor's pid,
// through the actor system's shared slog sink.
func (c *ActorContext) Log(level slog.Level, msg string, args ...any) {
	c.cell.system.logger().Log(context.Background(), level, msg, append(args, "pid", c.cell.pid.String())...)
}

// System returns the owning actor system.
func (c *ActorContext) System() *ActorSystem { return c.cell.system.facade() }
