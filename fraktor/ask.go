package fraktor

import (
	"context"

	"github.com/google/uuid"
)

// askActor is a throwaway cell used to implement the request-reply Ask
// pattern: it forwards the first message it receives onto a channel, then
// stops itself. Spawned under the system guardian so it never appears in
// the caller's own supervision tree.
type askActor struct {
	BaseActor
	result chan interface{}
}

func (a *askActor) Receive(ctx *ActorContext, msg AnyMessage) *ActorError {
	select {
	case a.result <- msg.Payload:
	default:
	}
	ctx.StopSelf()
	return nil
}

// Ask sends msg to target and blocks until a reply arrives or ctx is done.
// A target with no live cell fails the send at once with SendNoRecipient; a
// target that stops after accepting msg without replying leaves Ask waiting
// until ctx is done. Each call spawns a uniquely-named ephemeral
// responder actor (named with a uuid so concurrent Asks never collide on
// the system guardian's child-name registry).
func Ask(ctx context.Context, sys *ActorSystem, target ActorRef, msg interface{}) (interface{}, error) {
	resultCh := make(chan interface{}, 1)
	props := NewProps(func() Actor { return &askActor{result: resultCh} }).WithName("ask-" + uuid.NewString())

	askRef, spawnErr := sys.state.SpawnChild(sys.state.systemGuardianPid, props)
	if spawnErr != nil {
		return nil, spawnErr
	}
	defer sys.state.tellSystem(askRef.Pid(), StopMessage())

	if sendErr := target.TellFrom(msg, askRef); sendErr != nil {
		return nil, sendErr
	}

	select {
	case res := <-resultCh:
		return res, nil
	case <-ctx.Done():
		return nil, newSendError(SendTimeout, NewAnyMessage(msg, nil))
	}
}
