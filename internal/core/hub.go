package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/parley-server/internal/observability"
	"github.com/vovakirdan/parley-server/internal/store"
)

// HubConfig tunes the hub. Zero values fall back to defaults; Store and
// Metrics may stay nil.
type HubConfig struct {
	Store               store.Store
	Metrics             *observability.Metrics
	DeliveryTimeout     time.Duration
	DeliveryConcurrency int
	DirectPolicy        DirectPolicy
}

// Hub owns the participant registry, the session and channel tables, and
// the dispatcher. It exposes the synchronous admin API for the enclosing
// process and pumps commands from registered bus clients.
type Hub struct {
	log        *zerolog.Logger
	registry   *Registry
	sessions   *sessionTable
	channels   *channelTable
	dispatcher *Dispatcher
	store      store.Store
	metrics    *observability.Metrics

	register   chan *Client
	unregister chan *Client
}

// NewHub creates a hub. logger may be nil.
func NewHub(logger *zerolog.Logger, cfg HubConfig) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	registry := NewRegistry()
	sessions := newSessionTable()
	channels := newChannelTable()
	resolver := newResolver(registry, sessions, channels, cfg.DirectPolicy)

	return &Hub{
		log:        logger,
		registry:   registry,
		sessions:   sessions,
		channels:   channels,
		dispatcher: newDispatcher(registry, resolver, cfg.DeliveryTimeout, cfg.DeliveryConcurrency),
		store:      cfg.Store,
		metrics:    cfg.Metrics,
		register:   make(chan *Client, clientBuffer),
		unregister: make(chan *Client, clientBuffer),
	}
}

// Registry exposes the participant registry for transport collaborators
// that manage handles directly instead of going through clients.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// ==== bus client lifecycle ====

// RegisterClient makes the client's name routable immediately and schedules
// its command pump.
func (h *Hub) RegisterClient(c *Client) {
	h.registry.Register(c.Name, c)
	h.metrics.ClientConnected()
	h.register <- c
}

// UnregisterClient drops the client's handle and stops its pump. Session
// and channel membership is untouched: liveness and membership are separate.
func (h *Hub) UnregisterClient(c *Client) {
	h.registry.Deregister(c.Name)
	h.metrics.ClientDisconnected()
	h.unregister <- c
}

// Run pumps client registrations until ctx is cancelled. One goroutine per
// client keeps independent bus listeners concurrent while commands from a
// single client stay ordered.
func (h *Hub) Run(ctx context.Context) {
	pumps := make(map[*Client]context.CancelFunc)
	defer func() {
		for _, cancel := range pumps {
			cancel()
		}
	}()

	for {
		select {
		case c := <-h.register:
			cctx, cancel := context.WithCancel(ctx)
			pumps[c] = cancel
			go h.serveClient(cctx, c)
		case c := <-h.unregister:
			if cancel, ok := pumps[c]; ok {
				cancel()
				delete(pumps, c)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) serveClient(ctx context.Context, c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			if cmd != nil {
				h.handleCommand(ctx, c, cmd)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handleCommand(ctx context.Context, c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinChannel:
		if err := h.JoinChannel(ctx, cmd.Channel, c.Name); err != nil {
			c.push(errorEvent(err))
		}
	case CommandLeaveChannel:
		if err := h.LeaveChannel(ctx, cmd.Channel, c.Name); err != nil {
			c.push(errorEvent(err))
		}
	case CommandLeaveSession:
		if err := h.LeaveSession(ctx, cmd.Session, c.Name); err != nil {
			c.push(errorEvent(err))
		}
	case CommandSend:
		if cmd.Message == nil || cmd.Message.Destination == nil {
			c.push(errorEvent(ErrBadRequest))
			return
		}
		msg := cmd.Message
		msg.Sender = c.Name
		report, err := h.Dispatch(ctx, msg)
		if err != nil {
			c.push(errorEvent(err))
			return
		}
		c.push(&Event{Kind: EventReport, Message: msg, Report: report})
	default:
		c.push(errorEvent(ErrBadRequest))
	}
}

func errorEvent(err error) *Event {
	return &Event{Kind: EventError, Error: coreError(ErrorCode(err), err.Error())}
}

// ==== admin API ====

// CreateSession opens a session moderated by the given participant.
func (h *Hub) CreateSession(ctx context.Context, moderator string) (*Session, error) {
	if !h.registry.Known(moderator) {
		return nil, ErrUnknownParticipant
	}

	s := newSession(uuid.NewString(), moderator, h.registry)
	h.sessions.put(s)

	h.persist(func(st store.Store) error {
		if err := st.SaveSession(ctx, store.SessionRecord{
			ID:        s.ID,
			Moderator: moderator,
			State:     store.SessionStateOpen,
			CreatedAt: s.CreatedAt,
		}); err != nil {
			return err
		}
		return st.AddSessionMember(ctx, s.ID, moderator)
	})
	h.metrics.SessionOpened()

	h.log.Info().Str("session", s.ID).Str("moderator", moderator).Msg("session created")
	return s, nil
}

// Invite adds target to the session on the moderator's behalf.
func (h *Hub) Invite(ctx context.Context, sessionID, caller, target string) error {
	s, ok := h.sessions.get(sessionID)
	if !ok {
		return ErrUnknownSession
	}
	if err := s.Invite(caller, target); err != nil {
		return err
	}

	h.persist(func(st store.Store) error {
		return st.AddSessionMember(ctx, sessionID, target)
	})
	h.notify(target, &Event{Kind: EventInvited, Session: sessionID, Participant: caller})

	h.log.Debug().Str("session", sessionID).Str("target", target).Msg("participant invited")
	return nil
}

// LeaveSession removes a participant. A moderator leaving closes the
// session for everyone.
func (h *Hub) LeaveSession(ctx context.Context, sessionID, participant string) error {
	s, ok := h.sessions.get(sessionID)
	if !ok {
		return ErrUnknownSession
	}

	closed, err := s.Leave(participant)
	if err != nil {
		return err
	}

	if closed {
		h.persist(func(st store.Store) error {
			return st.CloseSession(ctx, sessionID)
		})
		h.metrics.SessionClosed()
		h.broadcastSessionClosed(s)
		h.log.Info().Str("session", sessionID).Msg("moderator left, session closed")
		return nil
	}

	h.persist(func(st store.Store) error {
		return st.RemoveSessionMember(ctx, sessionID, participant)
	})
	h.log.Debug().Str("session", sessionID).Str("participant", participant).Msg("participant left session")
	return nil
}

// CloseSession is the explicit moderator-initiated terminal transition.
func (h *Hub) CloseSession(ctx context.Context, sessionID, caller string) error {
	s, ok := h.sessions.get(sessionID)
	if !ok {
		return ErrUnknownSession
	}
	if err := s.Close(caller); err != nil {
		return err
	}

	h.persist(func(st store.Store) error {
		return st.CloseSession(ctx, sessionID)
	})
	h.metrics.SessionClosed()
	h.broadcastSessionClosed(s)

	h.log.Info().Str("session", sessionID).Msg("session closed")
	return nil
}

// Session returns a live session by id.
func (h *Hub) Session(sessionID string) (*Session, bool) {
	return h.sessions.get(sessionID)
}

// JoinChannel subscribes a registered participant to a channel, creating
// the channel on first use. No authority checks: channels are open groups.
func (h *Hub) JoinChannel(ctx context.Context, channel, participant string) error {
	if !h.registry.Known(participant) {
		return ErrUnknownParticipant
	}

	ch := h.channels.getOrCreate(channel)
	if !ch.Join(participant) {
		return nil // already a member
	}

	h.persist(func(st store.Store) error {
		if err := st.EnsureChannel(ctx, channel); err != nil {
			return err
		}
		return st.AddChannelMember(ctx, channel, participant)
	})
	for _, member := range ch.Members() {
		if member != participant {
			h.notify(member, &Event{Kind: EventMemberJoined, Channel: channel, Participant: participant})
		}
	}

	h.log.Debug().Str("channel", channel).Str("participant", participant).Msg("joined channel")
	return nil
}

// LeaveChannel removes a participant from a channel. Idempotent; the
// channel record itself is never deleted.
func (h *Hub) LeaveChannel(ctx context.Context, channel, participant string) error {
	ch, ok := h.channels.get(channel)
	if !ok {
		return nil
	}
	if !ch.Leave(participant) {
		return nil
	}

	h.persist(func(st store.Store) error {
		return st.RemoveChannelMember(ctx, channel, participant)
	})
	for _, member := range ch.Members() {
		h.notify(member, &Event{Kind: EventMemberLeft, Channel: channel, Participant: participant})
	}

	h.log.Debug().Str("channel", channel).Str("participant", participant).Msg("left channel")
	return nil
}

// Channel returns a live channel by name.
func (h *Hub) Channel(name string) (*Channel, bool) {
	return h.channels.get(name)
}

// Dispatch resolves and fans out a message, journals the outcomes, and
// returns the full per-recipient report.
func (h *Hub) Dispatch(ctx context.Context, msg *Message) (DeliveryReport, error) {
	if msg == nil || msg.Destination == nil {
		return nil, ErrBadRequest
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}

	start := time.Now()
	report, err := h.dispatcher.Dispatch(ctx, msg)
	if err != nil {
		return nil, err
	}

	kind := string(msg.Destination.Kind())
	h.metrics.RecordDispatch(kind, time.Since(start))

	recs := make([]store.OutcomeRecord, 0, len(report))
	now := time.Now().UTC()
	for recipient, out := range report {
		h.metrics.RecordOutcome(kind, string(out.Status))
		recs = append(recs, store.OutcomeRecord{
			MessageID:       msg.ID,
			Sender:          msg.Sender,
			DestinationKind: kind,
			DestinationName: msg.Destination.Name(),
			Recipient:       recipient,
			Outcome:         string(out.Status),
			Reason:          out.Reason,
			CreatedAt:       now,
		})
	}
	h.persist(func(st store.Store) error {
		return st.RecordOutcomes(ctx, recs)
	})

	h.log.Debug().
		Str("message", msg.ID).
		Str("sender", msg.Sender).
		Str("destination", kind).
		Int("recipients", len(report)).
		Msg("message dispatched")
	return report, nil
}

// notify pushes a non-delivery event to a participant's client, if that
// participant is connected through one. Best effort.
func (h *Hub) notify(participant string, ev *Event) {
	handle, ok := h.registry.Lookup(participant)
	if !ok {
		return
	}
	if c, ok := handle.(*Client); ok {
		c.push(ev)
	}
}

func (h *Hub) broadcastSessionClosed(s *Session) {
	for _, member := range s.Members() {
		h.notify(member, &Event{Kind: EventSessionClosed, Session: s.ID})
	}
}

// persist applies a store write when a store is configured. Store failures
// are logged and swallowed: the in-memory tables are the routing truth and
// the journal is an audit surface.
func (h *Hub) persist(fn func(store.Store) error) {
	if h.store == nil {
		return
	}
	if err := fn(h.store); err != nil {
		h.log.Warn().Err(err).Msg("store write failed")
	}
}
