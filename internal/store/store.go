package store

import (
	"context"
	"time"
)

// SessionState mirrors the lifecycle of a session record.
type SessionState string

const (
	SessionStateOpen   SessionState = "open"
	SessionStateClosed SessionState = "closed"
)

// SessionRecord is the persisted view of a session.
type SessionRecord struct {
	ID        string
	Moderator string
	State     SessionState
	CreatedAt time.Time
	ClosedAt  *time.Time
}

// ChannelRecord is the persisted view of a broadcast channel.
// Channel records are never deleted once created.
type ChannelRecord struct {
	Name      string
	CreatedAt time.Time
}

// OutcomeRecord is one per-recipient delivery outcome. Message bodies are
// never persisted, only routing metadata and the result.
type OutcomeRecord struct {
	MessageID       string
	Sender          string
	DestinationKind string
	DestinationName string
	Recipient       string
	Outcome         string
	Reason          string
	CreatedAt       time.Time
}

// Store persists session/channel membership and the delivery journal.
// The in-memory core remains the source of truth for routing; the store is
// an audit surface, so write failures must not abort core operations.
type Store interface {
	SaveSession(ctx context.Context, rec SessionRecord) error
	CloseSession(ctx context.Context, sessionID string) error
	GetSession(ctx context.Context, sessionID string) (*SessionRecord, error)
	AddSessionMember(ctx context.Context, sessionID, participant string) error
	RemoveSessionMember(ctx context.Context, sessionID, participant string) error
	SessionMembers(ctx context.Context, sessionID string) ([]string, error)

	EnsureChannel(ctx context.Context, name string) error
	AddChannelMember(ctx context.Context, channel, participant string) error
	RemoveChannelMember(ctx context.Context, channel, participant string) error
	ChannelMembers(ctx context.Context, channel string) ([]string, error)

	RecordOutcomes(ctx context.Context, recs []OutcomeRecord) error
	MessageOutcomes(ctx context.Context, messageID string) ([]OutcomeRecord, error)

	Close() error
}
