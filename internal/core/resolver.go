package core

// DirectPolicy selects how ParticipantName destinations resolve when the
// message carries a session context. The singleton policy always resolves
// to the named participant alone; the roster policy expands a reply sent
// inside a session to the full session roster.
type DirectPolicy string

const (
	DirectSingleton DirectPolicy = "singleton"
	DirectRoster    DirectPolicy = "roster"
)

// Resolver maps a message's destination to a concrete recipient set.
// Resolution is a pure membership lookup: the sender is not filtered here,
// that is the dispatcher's job.
type Resolver struct {
	registry *Registry
	sessions *sessionTable
	channels *channelTable
	direct   DirectPolicy
}

func newResolver(registry *Registry, sessions *sessionTable, channels *channelTable, direct DirectPolicy) *Resolver {
	if direct == "" {
		direct = DirectSingleton
	}
	return &Resolver{
		registry: registry,
		sessions: sessions,
		channels: channels,
		direct:   direct,
	}
}

// Resolve computes the delivery set for the message's destination.
// Session destinations fail for missing (ErrUnknownSession) or closed
// (ErrSessionClosed) sessions; direct destinations fail for unregistered
// participants; channel destinations never fail, an unknown or empty
// channel resolves to the empty set.
func (r *Resolver) Resolve(msg *Message) (map[string]struct{}, error) {
	switch dest := msg.Destination.(type) {
	case SessionDestination:
		s, ok := r.sessions.get(dest.ID)
		if !ok {
			return nil, ErrUnknownSession
		}
		set, open := s.memberSet()
		if !open {
			return nil, ErrSessionClosed
		}
		return set, nil

	case ParticipantName:
		if !r.registry.Known(dest.Participant) {
			return nil, ErrUnknownParticipant
		}
		if r.direct == DirectRoster && msg.Session != "" {
			if set, ok := r.rosterFor(msg, dest.Participant); ok {
				return set, nil
			}
		}
		return map[string]struct{}{dest.Participant: {}}, nil

	case ChannelName:
		ch, ok := r.channels.get(dest.Channel)
		if !ok {
			return map[string]struct{}{}, nil
		}
		return ch.memberSet(), nil

	default:
		return nil, coreError(ErrCodeBadRequest, "unsupported destination")
	}
}

// rosterFor expands a direct reply to the roster of its session context.
// The expansion only applies when the session is open and both the sender
// and the named target are members; otherwise the reply stays a singleton
// so a session id in the envelope cannot widen delivery past the invite gate.
func (r *Resolver) rosterFor(msg *Message, target string) (map[string]struct{}, bool) {
	s, ok := r.sessions.get(msg.Session)
	if !ok {
		return nil, false
	}
	set, open := s.memberSet()
	if !open {
		return nil, false
	}
	if _, ok := set[msg.Sender]; !ok {
		return nil, false
	}
	if _, ok := set[target]; !ok {
		return nil, false
	}
	return set, true
}
