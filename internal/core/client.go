package core

import "context"

const clientBuffer = 16

// Client is a bus participant endpoint as seen by the core layer. The
// transport bridge feeds Commands and drains Events; the Events channel
// doubles as the client's delivery handle.
type Client struct {
	// ID identifies the transport connection; Name is the participant
	// identity the registry keys on.
	ID       string
	Name     string
	Commands chan *Command
	Events   chan *Event
}

// NewClient constructs a client with initialized channels.
func NewClient(id, name string) *Client {
	if name == "" {
		name = id
	}
	return &Client{
		ID:       id,
		Name:     name,
		Commands: make(chan *Command, clientBuffer),
		Events:   make(chan *Event, clientBuffer),
	}
}

// Deliver implements Handle. The send is bounded by ctx: a full Events
// channel with a stalled consumer surfaces as a timeout to the dispatcher
// instead of hanging the fan-out.
func (c *Client) Deliver(ctx context.Context, msg *Message) error {
	select {
	case c.Events <- &Event{Kind: EventMessage, Message: msg}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// push offers a non-delivery event without blocking.
// Dropped if the client is a slow consumer.
func (c *Client) push(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}
