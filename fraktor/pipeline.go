package fraktor

import (
	"fmt"
	"log/slog"
)

// MessageInvoker is implemented by ActorCell so the dispatcher can hand it
// both system and user messages without depending on the cell's full type.
type MessageInvoker interface {
	InvokeUserMessage(msg AnyMessage) *ActorError
	InvokeSystemMessage(msg SystemMessage) *ActorError
}

// Middleware wraps a user-message Receive call for cross-cutting concerns
// (logging, tracing). The registered chain runs in registration order
// around the actor's own Receive.
type Middleware func(next ReceiveFunc) ReceiveFunc

// ReceiveFunc is the shape middleware wraps: invoke the next stage (or the
// actor itself) with the context and message.
type ReceiveFunc func(ctx *ActorContext, msg AnyMessage) *ActorError

// pipeline chains registered middleware around an actor's Receive method.
type pipeline struct {
	middleware []Middleware
}

func newPipeline(middleware []Middleware) *pipeline {
	return &pipeline{middleware: middleware}
}

// invokeUser runs the middleware chain around actor.Receive.
func (p *pipeline) invokeUser(actor Actor, ctx *ActorContext, msg AnyMessage) *ActorError {
	final := ReceiveFunc(actor.Receive)
	for i := len(p.middleware) - 1; i >= 0; i-- {
		final = p.middleware[i](final)
	}
	return final(ctx, msg)
}

// LoggingMiddleware logs every user message at debug level before handing
// it to the next stage, via ctx.Log (the ambient slog sink).
func LoggingMiddleware() Middleware {
	return func(next ReceiveFunc) ReceiveFunc {
		return func(ctx *ActorContext, msg AnyMessage) *ActorError {
			ctx.Log(slog.LevelDebug, "actor_receive", "message_type", messageTypeName(msg.Payload))
			return next(ctx, msg)
		}
	}
}

// RecoverMiddleware converts a panic raised by the actor's Receive (or any
// inner middleware) into a Fatal ActorError instead of crashing the drive
// goroutine.
func RecoverMiddleware() Middleware {
	return func(next ReceiveFunc) ReceiveFunc {
		return func(ctx *ActorContext, msg AnyMessage) (result *ActorError) {
			defer func() {
				if r := recover(); r != nil {
					result = FatalErr("actor panicked", panicError{r})
				}
			}()
			return next(ctx, msg)
		}
	}
}

type panicError struct{ value interface{} }

func (p panicError) Error() string {
	if err, ok := p.value.(error); ok {
		return err.Error()
	}
	return "panic"
}

func messageTypeName(payload interface{}) string {
	return fmt.Sprintf("%T", payload)
}
