package fraktor

// Actor is the surface external code implements. Only Receive is required;
// the rest default to no-ops / the default supervisor strategy.
type Actor interface {
	// PreStart runs once before the cell accepts its first message.
	PreStart(ctx *ActorContext) *ActorError
	// Receive handles one user message.
	Receive(ctx *ActorContext, msg AnyMessage) *ActorError
	// PostStop runs once after the cell has stopped draining messages.
	PostStop(ctx *ActorContext) *ActorError
	// OnTerminated runs when a watched actor has stopped.
	OnTerminated(ctx *ActorContext, watched Pid) *ActorError
	// SupervisorStrategy returns this actor's policy for its children's failures.
	SupervisorStrategy() SupervisorStrategy
}

// BaseActor supplies default (no-op) implementations of every Actor hook
// except Receive, so embedding types only need to override what they use.
type BaseActor struct{}

func (BaseActor) PreStart(*ActorContext) *ActorError                  { return nil }
func (BaseActor) PostStop(*ActorContext) *ActorError                  { return nil }
func (BaseActor) OnTerminated(*ActorContext, Pid) *ActorError         { return nil }
func (BaseActor) SupervisorStrategy() SupervisorStrategy              { return DefaultSupervisorStrategy() }

// Producer constructs a fresh Actor instance. Called once at spawn and
// again on every restart so that an actor's state starts clean.
type Producer func() Actor

// DispatcherConfig configures where and how a cell's dispatcher runs.
type DispatcherConfig struct {
	Executor           Executor
	ThroughputDeadline  int64 // nanoseconds; not read by Dispatcher, which bounds a pass by MailboxPolicy.ThroughputLimit only
	StarvationDeadline  int64 // nanoseconds; not read by Dispatcher
}

// DefaultDispatcherConfig returns an inline-executor configuration suitable
// for tests and single-threaded embedding.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{Executor: NewInlineExecutor()}
}

// Props bundles the factory and configuration used to create a cell.
type Props struct {
	Factory    Producer
	Name       string
	Mailbox    MailboxPolicy
	Dispatcher DispatcherConfig
	Middleware []string
}

// NewProps builds Props from a producer with default mailbox/dispatcher
// configuration.
func NewProps(factory Producer) *Props {
	if factory == nil {
		panic("fraktor: factory cannot be nil")
	}
	return &Props{
		Factory:    factory,
		Mailbox:    DefaultMailboxPolicy(),
		Dispatcher: DefaultDispatcherConfig(),
	}
}

// WithName sets the registry label.
func (p *Props) WithName(name string) *Props { p.Name = name; return p }

// WithMailbox overrides the mailbox policy.
func (p *Props) WithMailbox(policy MailboxPolicy) *Props { p.Mailbox = policy; return p }

// WithDispatcher overrides the dispatcher configuration.
func (p *Props) WithDispatcher(cfg DispatcherConfig) *Props { p.Dispatcher = cfg; return p }

// WithMiddleware appends named middleware identifiers resolved by the system.
func (p *Props) WithMiddleware(names ...string) *Props {
	p.Middleware = append(p.Middleware, names...)
	return p
}
