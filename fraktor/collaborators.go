package fraktor

// Serializer converts a user message payload to and from a wire-portable
// byte form. No implementation ships in this module, since it has no
// remote transport to serialize for; this interface exists so a remote
// ActorRefProvider can be built against a stable contract later.
type Serializer interface {
	Serialize(payload interface{}) ([]byte, error)
	Deserialize(kind string, data []byte) (interface{}, error)
}

// Transport delivers a pre-serialized envelope to a remote ActorPath's
// authority. No implementation ships in this module.
type Transport interface {
	Send(path ActorPath, envelope []byte) error
}
