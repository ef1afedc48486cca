package fraktor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingActor struct {
	BaseActor
	receive func(ctx *ActorContext, msg AnyMessage) *ActorError
}

func (a *recordingActor) Receive(ctx *ActorContext, msg AnyMessage) *ActorError {
	return a.receive(ctx, msg)
}

func TestPipeline_MiddlewareRunsInRegistrationOrderAroundReceive(t *testing.T) {
	var order []string
	trace := func(label string) Middleware {
		return func(next ReceiveFunc) ReceiveFunc {
			return func(ctx *ActorContext, msg AnyMessage) *ActorError {
				order = append(order, label+":before")
				err := next(ctx, msg)
				order = append(order, label+":after")
				return err
			}
		}
	}

	actor := &recordingActor{receive: func(ctx *ActorContext, msg AnyMessage) *ActorError {
		order = append(order, "receive")
		return nil
	}}

	p := newPipeline([]Middleware{trace("outer"), trace("inner")})
	err := p.invokeUser(actor, nil, NewAnyMessage("hi", nil))
	require.Nil(t, err)

	assert.Equal(t, []string{
		"outer:before", "inner:before", "receive", "inner:after", "outer:after",
	}, order)
}

func TestRecoverMiddleware_ConvertsPanicToFatalActorError(t *testing.T) {
	actor := &recordingActor{receive: func(ctx *ActorContext, msg AnyMessage) *ActorError {
		panic("boom")
	}}

	p := newPipeline([]Middleware{RecoverMiddleware()})
	err := p.invokeUser(actor, nil, NewAnyMessage("hi", nil))

	require.NotNil(t, err)
	assert.True(t, err.IsFatal())
	assert.Contains(t, err.Error(), "actor panicked")
}

func TestRecoverMiddleware_PassesThroughNormalErrors(t *testing.T) {
	want := Recoverable("transient")
	actor := &recordingActor{receive: func(ctx *ActorContext, msg AnyMessage) *ActorError {
		return want
	}}

	p := newPipeline([]Middleware{RecoverMiddleware()})
	got := p.invokeUser(actor, nil, NewAnyMessage("hi", nil))
	assert.Equal(t, want, got)
}

func TestMessageTypeName(t *testing.T) {
	assert.Equal(t, "string", messageTypeName("x"))
	assert.Equal(t, "int", messageTypeName(1))
}
