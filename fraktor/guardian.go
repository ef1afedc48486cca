package fraktor

import "log/slog"

// guardianActor hosts children without handling user messages itself. Root,
// system and user guardians are all instances of this: their only job is to
// anchor a branch of the supervision tree.
type guardianActor struct {
	BaseActor
}

func (*guardianActor) Receive(ctx *ActorContext, msg AnyMessage) *ActorError {
	ctx.Log(slog.LevelWarn, "guardian received unexpected user message", "message_type", messageTypeName(msg.Payload))
	return nil
}
