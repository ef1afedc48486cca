package fraktor

import (
	"fmt"
	"strconv"
	"strings"
)

// ActorPathScheme is the URI-like scheme prefixing a canonical ActorPath.
type ActorPathScheme int

const (
	// SchemeFraktor addresses a local, in-process actor system.
	SchemeFraktor ActorPathScheme = iota
	// SchemeFraktorTCP addresses a remote actor system over TCP.
	SchemeFraktorTCP
)

func (s ActorPathScheme) String() string {
	switch s {
	case SchemeFraktorTCP:
		return "fraktortcp"
	default:
		return "fraktor"
	}
}

// GuardianKind identifies which root-level guardian anchors a path.
type GuardianKind int

const (
	GuardianRoot GuardianKind = iota
	GuardianSystem
	GuardianUser
)

// Segment returns the canonical path segment name for the guardian kind.
func (g GuardianKind) Segment() string {
	switch g {
	case GuardianRoot:
		return "root"
	case GuardianSystem:
		return "system"
	default:
		return "user"
	}
}

// PathAuthority carries the optional host/port of a remote ActorPath.
type PathAuthority struct {
	Host string
	Port *uint16
}

// Endpoint formats the authority as host[:port].
func (a PathAuthority) Endpoint() string {
	if a.Port == nil {
		return a.Host
	}
	return a.Host + ":" + strconv.Itoa(int(*a.Port))
}

// ActorPath is the hierarchical, URI-like name of an actor: scheme + system
// name + optional authority + guardian + ordered child segments.
type ActorPath struct {
	scheme    ActorPathScheme
	system    string
	authority *PathAuthority
	guardian  GuardianKind
	segments  []string
}

// ActorPathBuilder constructs ActorPath values fluently, mirroring the
// original Rust ActorPathParts builder.
type ActorPathBuilder struct {
	path ActorPath
}

// NewLocalPath starts a builder for a local (non-remote) actor system path.
func NewLocalPath(system string) *ActorPathBuilder {
	return &ActorPathBuilder{path: ActorPath{scheme: SchemeFraktor, system: system, guardian: GuardianUser}}
}

// NewRemotePath starts a builder for a TCP-addressed actor system path.
func NewRemotePath(system, host string, port uint16) *ActorPathBuilder {
	p := port
	return &ActorPathBuilder{path: ActorPath{
		scheme:    SchemeFraktorTCP,
		system:    system,
		authority: &PathAuthority{Host: host, Port: &p},
		guardian:  GuardianUser,
	}}
}

// WithScheme overrides the URI scheme.
func (b *ActorPathBuilder) WithScheme(scheme ActorPathScheme) *ActorPathBuilder {
	b.path.scheme = scheme
	return b
}

// WithGuardian overrides the guardian segment anchoring the path.
func (b *ActorPathBuilder) WithGuardian(guardian GuardianKind) *ActorPathBuilder {
	b.path.guardian = guardian
	return b
}

// WithAuthorityHost overrides the authority host, creating the authority if absent.
func (b *ActorPathBuilder) WithAuthorityHost(host string) *ActorPathBuilder {
	if b.path.authority == nil {
		b.path.authority = &PathAuthority{}
	}
	b.path.authority.Host = host
	return b
}

// WithAuthorityPort overrides the authority port, creating the authority if absent.
func (b *ActorPathBuilder) WithAuthorityPort(port uint16) *ActorPathBuilder {
	if b.path.authority == nil {
		b.path.authority = &PathAuthority{}
	}
	b.path.authority.Port = &port
	return b
}

// WithSegments appends child-name segments.
func (b *ActorPathBuilder) WithSegments(segments ...string) *ActorPathBuilder {
	b.path.segments = append(b.path.segments, segments...)
	return b
}

// Build returns the completed ActorPath.
func (b *ActorPathBuilder) Build() ActorPath {
	return b.path
}

// Scheme returns the configured scheme.
func (p ActorPath) Scheme() ActorPathScheme { return p.scheme }

// System returns the logical actor-system name.
func (p ActorPath) System() string { return p.system }

// Guardian returns the guardian kind anchoring the path.
func (p ActorPath) Guardian() GuardianKind { return p.guardian }

// Segments returns the ordered child-name segments under the guardian.
func (p ActorPath) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// Authority returns the host/port pair when the path addresses a remote system.
func (p ActorPath) Authority() (PathAuthority, bool) {
	if p.authority == nil {
		return PathAuthority{}, false
	}
	return *p.authority, true
}

// Child returns a copy of the path with an additional trailing segment.
func (p ActorPath) Child(name string) ActorPath {
	child := p
	child.segments = append(append([]string{}, p.segments...), name)
	return child
}

// String renders the canonical form:
// scheme://system@host:port/guardian/seg1/seg2
func (p ActorPath) String() string {
	var b strings.Builder
	b.WriteString(p.scheme.String())
	b.WriteString("://")
	b.WriteString(p.system)
	if p.authority != nil {
		b.WriteString("@")
		b.WriteString(p.authority.Endpoint())
	}
	b.WriteString("/")
	b.WriteString(p.guardian.Segment())
	for _, seg := range p.segments {
		b.WriteString("/")
		b.WriteString(seg)
	}
	return b.String()
}

// GoString supports %#v formatting during debugging/logging.
func (p ActorPath) GoString() string {
	return fmt.Sprintf("ActorPath(%s)", p.String())
}
