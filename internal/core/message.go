package core

import (
	"time"

	"github.com/google/uuid"
)

// Message is the normalized shape the core consumes. Envelope decoding from
// the bus is the transport collaborator's job.
type Message struct {
	ID          string
	Sender      string
	Destination Destination
	// Session optionally carries the session context of a direct reply.
	// Only consulted when the resolver runs under the roster policy.
	Session string
	Body    []byte
	SentAt  time.Time
}

// NewMessage builds a message with a fresh id and timestamp.
func NewMessage(sender string, dest Destination, body []byte) *Message {
	return &Message{
		ID:          uuid.NewString(),
		Sender:      sender,
		Destination: dest,
		Body:        body,
		SentAt:      time.Now().UTC(),
	}
}
