package core

// CommandKind describes what a bus client wants to do.
type CommandKind int

const (
	// CommandSend dispatches a message to its destination.
	CommandSend CommandKind = iota
	// CommandJoinChannel subscribes the client to a channel.
	CommandJoinChannel
	// CommandLeaveChannel unsubscribes the client from a channel.
	CommandLeaveChannel
	// CommandLeaveSession removes the client from a session.
	CommandLeaveSession
)

// Command represents an action requested by a bus client.
type Command struct {
	Kind    CommandKind
	Channel string
	Session string
	Message *Message
}
