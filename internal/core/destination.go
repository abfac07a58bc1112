package core

// DestinationKind names a destination variant on the wire and in metrics.
type DestinationKind string

const (
	KindSession     DestinationKind = "session"
	KindParticipant DestinationKind = "participant"
	KindChannel     DestinationKind = "channel"
)

// Destination is a closed tagged union over the three addressing modes.
// The unexported method seals the set: adding a new destination kind means
// adding a type here and a case to every switch, checked at compile time.
type Destination interface {
	Kind() DestinationKind
	// Name returns the identifier the destination points at.
	Name() string
	isDestination()
}

// SessionDestination addresses all members of a session.
type SessionDestination struct {
	ID string
}

func (d SessionDestination) Kind() DestinationKind { return KindSession }
func (d SessionDestination) Name() string          { return d.ID }
func (SessionDestination) isDestination()          {}

// ParticipantName addresses a single participant directly.
type ParticipantName struct {
	Participant string
}

func (d ParticipantName) Kind() DestinationKind { return KindParticipant }
func (d ParticipantName) Name() string          { return d.Participant }
func (ParticipantName) isDestination()          {}

// ChannelName addresses all members of a named channel.
type ChannelName struct {
	Channel string
}

func (d ChannelName) Kind() DestinationKind { return KindChannel }
func (d ChannelName) Name() string          { return d.Channel }
func (ChannelName) isDestination()          {}
