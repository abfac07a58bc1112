package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventMessage delivers a dispatched message to a recipient.
	EventMessage EventKind = iota
	// EventReport returns the per-recipient outcome map to the sender.
	EventReport
	// EventInvited notifies a participant it was invited to a session.
	EventInvited
	// EventMemberJoined notifies channel members about a join.
	EventMemberJoined
	// EventMemberLeft notifies channel members about a leave.
	EventMemberLeft
	// EventSessionClosed notifies members that a session reached its
	// terminal state.
	EventSessionClosed
	// EventError notifies a client about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind        EventKind
	Session     string
	Channel     string
	Participant string
	Message     *Message
	Report      DeliveryReport
	Error       *CoreError
}
