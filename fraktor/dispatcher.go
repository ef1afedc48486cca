package fraktor

// Dispatcher drives one cell's mailbox: drain every pending system message,
// then pull up to ThroughputLimit user messages, handing each to the
// registered MessageInvoker. Split from ActorCell so the cell only
// implements MessageInvoker and the drive mechanics stay reusable across
// executors.
type Dispatcher struct {
	mailbox         *Mailbox
	executor        Executor
	invoker         MessageInvoker
	throughputLimit int
	onDispatchError func(error)
}

// NewDispatcher builds a dispatcher over mailbox, running drive cycles on
// executor. RegisterInvoker must be called before the first Schedule.
func NewDispatcher(mailbox *Mailbox, executor Executor, throughputLimit int) *Dispatcher {
	return &Dispatcher{mailbox: mailbox, executor: executor, throughputLimit: throughputLimit}
}

// RegisterInvoker wires the cell that will receive invoked messages.
func (d *Dispatcher) RegisterInvoker(invoker MessageInvoker) {
	d.invoker = invoker
}

// OnDispatchError sets a sink for errors returned by the executor itself
// (e.g. a saturated pool), as opposed to errors raised by invoked messages.
func (d *Dispatcher) OnDispatchError(sink func(error)) {
	d.onDispatchError = sink
}

// Schedule asks the mailbox's state engine whether a new drive cycle is
// needed and, if so, submits one to the executor.
func (d *Dispatcher) Schedule() {
	if !d.mailbox.RequestSchedule() {
		return
	}
	if err := d.executor.Execute(d.drive); err != nil {
		if d.onDispatchError != nil {
			d.onDispatchError(err)
		}
	}
}

func (d *Dispatcher) drive() {
	d.mailbox.SetRunning()
	for {
		for {
			sysMsg, ok := d.mailbox.PopSystem()
			if !ok {
				break
			}
			d.invoker.InvokeSystemMessage(sysMsg)
		}

		for count := 0; d.throughputLimit <= 0 || count < d.throughputLimit; count++ {
			userMsg, ok := d.mailbox.PopUser()
			if !ok {
				break
			}
			d.invoker.InvokeUserMessage(userMsg)
		}

		if !d.mailbox.SetIdle() {
			return
		}
		d.mailbox.SetRunning()
	}
}
