package proto

import "encoding/json"

// Inbound is the envelope for frames coming from a bus client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello        = "hello"
	InboundTypeJoin         = "join"
	InboundTypeLeave        = "leave"
	InboundTypeLeaveSession = "leave_session"
	InboundTypeSend         = "send"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// DestinationRef is the wire form of a message destination.
// Kind is one of "session", "participant", "channel".
type DestinationRef struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// HelloData is the first frame a client sends to introduce itself.
type HelloData struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol,omitempty"`
}

// JoinData requests joining or leaving a channel.
type JoinData struct {
	Channel string `json:"channel"`
}

// LeaveSessionData requests leaving a session.
type LeaveSessionData struct {
	Session string `json:"session"`
}

// SendData dispatches a message to a destination. Session optionally names
// the session context of a direct reply.
type SendData struct {
	To      DestinationRef `json:"to"`
	Session string         `json:"session,omitempty"`
	Body    string         `json:"body"`
}

// Outbound is the envelope for frames sent to a bus client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventMessage carries a delivered message.
type EventMessage struct {
	ID      string         `json:"id"`
	From    string         `json:"from"`
	To      DestinationRef `json:"to"`
	Session string         `json:"session,omitempty"`
	Body    string         `json:"body"`
	TS      int64          `json:"ts"`
}

// OutcomeData is one recipient's result inside a report.
type OutcomeData struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// EventReport returns the per-recipient outcome map to the sender.
type EventReport struct {
	MessageID string                 `json:"message_id"`
	Outcomes  map[string]OutcomeData `json:"outcomes"`
}

// EventInvited notifies a participant of a session invite.
type EventInvited struct {
	Session   string `json:"session"`
	Moderator string `json:"moderator"`
}

// EventMember notifies channel members about a join or leave.
type EventMember struct {
	Channel     string `json:"channel"`
	Participant string `json:"participant"`
}

// EventSessionClosed notifies members that a session ended.
type EventSessionClosed struct {
	Session string `json:"session"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
