package fraktor

import "time"

// AnyMessage is an erased message envelope: a shared payload of user-defined
// type plus the optional ActorRef of the sender. Cloning an AnyMessage never
// duplicates the payload — only the envelope (payload + sender) is copied.
type AnyMessage struct {
	Payload interface{}
	Sender  *ActorRef
}

// NewAnyMessage wraps a payload with an optional sender.
func NewAnyMessage(payload interface{}, sender *ActorRef) AnyMessage {
	return AnyMessage{Payload: payload, Sender: sender}
}

// SystemMessageKind discriminates the closed set of SystemMessage variants.
type SystemMessageKind int

const (
	SysStop SystemMessageKind = iota
	SysSuspend
	SysResume
	SysWatch
	SysUnwatch
	SysTerminated
	SysRestart
	SysFailure
	SysPipeTask
)

// SystemMessage is one of the closed set of control messages that bypass
// mailbox suspension and overflow policy, delivered strictly before any
// user message in a given drive pass.
type SystemMessage struct {
	Kind    SystemMessageKind
	Target  Pid            // Watch/Unwatch/Terminated target
	Watcher Pid            // Watch/Unwatch watcher
	Failure *FailurePayload // SysFailure
	TaskID  string          // SysPipeTask
}

// StopMessage builds a Stop system message.
func StopMessage() SystemMessage { return SystemMessage{Kind: SysStop} }

// SuspendMessage builds a Suspend system message.
func SuspendMessage() SystemMessage { return SystemMessage{Kind: SysSuspend} }

// ResumeMessage builds a Resume system message.
func ResumeMessage() SystemMessage { return SystemMessage{Kind: SysResume} }

// RestartMessage builds a Restart system message.
func RestartMessage() SystemMessage { return SystemMessage{Kind: SysRestart} }

// WatchMessage builds a Watch system message: watcher wants to observe target.
func WatchMessage(target, watcher Pid) SystemMessage {
	return SystemMessage{Kind: SysWatch, Target: target, Watcher: watcher}
}

// UnwatchMessage builds an Unwatch system message.
func UnwatchMessage(target, watcher Pid) SystemMessage {
	return SystemMessage{Kind: SysUnwatch, Target: target, Watcher: watcher}
}

// TerminatedMessage builds a Terminated notification for the given pid.
func TerminatedMessage(target Pid) SystemMessage {
	return SystemMessage{Kind: SysTerminated, Target: target}
}

// FailureMessage builds a Failure notification carrying the payload.
func FailureMessage(payload FailurePayload) SystemMessage {
	return SystemMessage{Kind: SysFailure, Failure: &payload}
}

// PipeTaskMessage builds a PipeTask notification identifying a completed
// out-of-band task.
func PipeTaskMessage(taskID string) SystemMessage {
	return SystemMessage{Kind: SysPipeTask, TaskID: taskID}
}

// ActorErrorClass classifies an ActorError for supervisor decisions.
type ActorErrorClass int

const (
	ClassRecoverable ActorErrorClass = iota
	ClassFatal
)

// FailurePayload is what a failed cell sends to its parent's system queue.
type FailurePayload struct {
	ChildPid        Pid
	Reason          error
	Classification  ActorErrorClass
	RestartCount    uint32
	MessageSnapshot *AnyMessage
	Timestamp       time.Time
}
