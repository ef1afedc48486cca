package fraktor

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// ActorRef is a lightweight, copyable send handle: a pid plus the system
// that owns it. The zero value is the null ref (ActorRef.Null()).
type ActorRef struct {
	pid    Pid
	path   ActorPath
	system *ActorSystemState
}

// Null returns a ref that always reports IsNull and fails every send with
// SendNoRecipient.
func (ActorRef) Null() ActorRef { return ActorRef{} }

// Pid returns the addressed pid.
func (r ActorRef) Pid() Pid { return r.pid }

// Path returns the addressed actor's canonical path.
func (r ActorRef) Path() ActorPath { return r.path }

// IsNull reports whether this ref addresses no actor.
func (r ActorRef) IsNull() bool { return r.system == nil || r.pid.IsNull() }

// Tell delivers msg asynchronously with no sender attached.
func (r ActorRef) Tell(msg interface{}) *SendError {
	return r.TellFrom(msg, ActorRef{})
}

// TellFrom delivers msg asynchronously, attaching sender so the recipient's
// ctx.Sender()/ctx.Reply() can address a response back.
func (r ActorRef) TellFrom(msg interface{}, sender ActorRef) *SendError {
	if r.IsNull() {
		return newSendError(SendNoRecipient, NewAnyMessage(msg, nil))
	}
	var senderRef *ActorRef
	if !sender.IsNull() {
		s := sender
		senderRef = &s
	}
	return r.system.tellUser(r.pid, NewAnyMessage(msg, senderRef))
}

// ActorRefProvider resolves an ActorPath to a live ActorRef within one
// actor system, caching lookups so repeated remote-style addressing by
// path string does not walk the registry every time.
type ActorRefProvider interface {
	Resolve(path ActorPath) (ActorRef, bool)
	RefFor(pid Pid) (ActorRef, bool)
}

// NullProvider never resolves anything; used before a system has finished
// bootstrapping.
type NullProvider struct{}

func (NullProvider) Resolve(ActorPath) (ActorRef, bool) { return ActorRef{}, false }
func (NullProvider) RefFor(Pid) (ActorRef, bool)         { return ActorRef{}, false }

// LocalProvider resolves paths against one ActorSystemState's live cell
// registry, caching path->ref resolutions in a bounded LRU.
type LocalProvider struct {
	state *ActorSystemState
	cache *lru.Cache[string, ActorRef]
}

// NewLocalProvider builds a provider caching up to cacheSize resolved refs.
func NewLocalProvider(state *ActorSystemState, cacheSize int) *LocalProvider {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, ActorRef](cacheSize)
	if err != nil {
		panic("fraktor: invalid actor ref cache size")
	}
	return &LocalProvider{state: state, cache: cache}
}

// Resolve looks up path's canonical string in the cache first, falling back
// to a registry walk keyed by pid lookups the system already maintains.
func (p *LocalProvider) Resolve(path ActorPath) (ActorRef, bool) {
	key := path.String()
	if ref, ok := p.cache.Get(key); ok {
		if _, alive := p.state.lookupCell(ref.pid); alive {
			return ref, true
		}
		p.cache.Remove(key)
		return ActorRef{}, false
	}

	pid, ok := p.state.pidForPath(key)
	if !ok {
		return ActorRef{}, false
	}
	ref := ActorRef{pid: pid, path: path, system: p.state}
	p.cache.Add(key, ref)
	return ref, true
}

// RefFor builds a ref for a pid already known to belong to this system,
// without touching the path cache.
func (p *LocalProvider) RefFor(pid Pid) (ActorRef, bool) {
	cell, ok := p.state.lookupCell(pid)
	if !ok {
		return ActorRef{}, false
	}
	return ActorRef{pid: pid, path: cell.path, system: p.state}, true
}
