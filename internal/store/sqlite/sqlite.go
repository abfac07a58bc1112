package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/parley-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	moderator  TEXT NOT NULL,
	state      TEXT NOT NULL DEFAULT 'open',
	created_at DATETIME NOT NULL,
	closed_at  DATETIME
);

CREATE TABLE IF NOT EXISTS session_members (
	session_id  TEXT NOT NULL,
	participant TEXT NOT NULL,
	joined_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (session_id, participant),
	FOREIGN KEY (session_id) REFERENCES sessions(id)
);

CREATE TABLE IF NOT EXISTS channels (
	name       TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS channel_members (
	channel     TEXT NOT NULL,
	participant TEXT NOT NULL,
	joined_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (channel, participant),
	FOREIGN KEY (channel) REFERENCES channels(name)
);

CREATE TABLE IF NOT EXISTS delivery_journal (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id       TEXT NOT NULL,
	sender           TEXT NOT NULL,
	destination_kind TEXT NOT NULL,
	destination_name TEXT NOT NULL,
	recipient        TEXT NOT NULL,
	outcome          TEXT NOT NULL,
	reason           TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_message ON delivery_journal(message_id);
CREATE INDEX IF NOT EXISTS idx_session_members_participant ON session_members(participant);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens a SQLite store at dbPath and applies the schema.
// Use ":memory:" for tests.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup opens a store and runs a setup function before pinging.
// Useful for tests that need extra schema or seed rows.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	s, err := New(dbPath)
	if err != nil {
		return nil, err
	}
	if setup != nil {
		if err := setup(s.db); err != nil {
			s.db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== Session records ====

// SaveSession inserts a session record.
func (s *SQLiteStore) SaveSession(ctx context.Context, rec store.SessionRecord) error {
	query := `
		INSERT INTO sessions (id, moderator, state, created_at)
		VALUES (?, ?, ?, ?)
	`
	state := rec.State
	if state == "" {
		state = store.SessionStateOpen
	}
	if _, err := s.db.ExecContext(ctx, query, rec.ID, rec.Moderator, string(state), rec.CreatedAt); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// CloseSession marks a session closed and stamps closed_at.
func (s *SQLiteStore) CloseSession(ctx context.Context, sessionID string) error {
	query := `
		UPDATE sessions SET state = 'closed', closed_at = ?
		WHERE id = ? AND state = 'open'
	`
	if _, err := s.db.ExecContext(ctx, query, time.Now().UTC(), sessionID); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

// GetSession loads a session record, or nil if absent.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*store.SessionRecord, error) {
	query := `
		SELECT id, moderator, state, created_at, closed_at
		FROM sessions WHERE id = ?
	`
	var rec store.SessionRecord
	var state string
	var closedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&rec.ID, &rec.Moderator, &state, &rec.CreatedAt, &closedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	rec.State = store.SessionState(state)
	if closedAt.Valid {
		rec.ClosedAt = &closedAt.Time
	}
	return &rec, nil
}

// AddSessionMember upserts a membership row.
func (s *SQLiteStore) AddSessionMember(ctx context.Context, sessionID, participant string) error {
	query := `
		INSERT INTO session_members (session_id, participant)
		VALUES (?, ?)
		ON CONFLICT (session_id, participant) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, sessionID, participant); err != nil {
		return fmt.Errorf("add session member: %w", err)
	}
	return nil
}

// RemoveSessionMember deletes a membership row.
func (s *SQLiteStore) RemoveSessionMember(ctx context.Context, sessionID, participant string) error {
	query := `DELETE FROM session_members WHERE session_id = ? AND participant = ?`
	if _, err := s.db.ExecContext(ctx, query, sessionID, participant); err != nil {
		return fmt.Errorf("remove session member: %w", err)
	}
	return nil
}

// SessionMembers lists members of a session in join order.
func (s *SQLiteStore) SessionMembers(ctx context.Context, sessionID string) ([]string, error) {
	query := `
		SELECT participant FROM session_members
		WHERE session_id = ? ORDER BY joined_at, participant
	`
	return s.queryNames(ctx, query, sessionID)
}

// ==== Channel records ====

// EnsureChannel creates the channel row if it does not exist yet.
func (s *SQLiteStore) EnsureChannel(ctx context.Context, name string) error {
	query := `
		INSERT INTO channels (name) VALUES (?)
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("ensure channel: %w", err)
	}
	return nil
}

// AddChannelMember upserts a channel membership row.
func (s *SQLiteStore) AddChannelMember(ctx context.Context, channel, participant string) error {
	query := `
		INSERT INTO channel_members (channel, participant)
		VALUES (?, ?)
		ON CONFLICT (channel, participant) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, channel, participant); err != nil {
		return fmt.Errorf("add channel member: %w", err)
	}
	return nil
}

// RemoveChannelMember deletes a channel membership row. The channel row stays.
func (s *SQLiteStore) RemoveChannelMember(ctx context.Context, channel, participant string) error {
	query := `DELETE FROM channel_members WHERE channel = ? AND participant = ?`
	if _, err := s.db.ExecContext(ctx, query, channel, participant); err != nil {
		return fmt.Errorf("remove channel member: %w", err)
	}
	return nil
}

// ChannelMembers lists members of a channel in join order.
func (s *SQLiteStore) ChannelMembers(ctx context.Context, channel string) ([]string, error) {
	query := `
		SELECT participant FROM channel_members
		WHERE channel = ? ORDER BY joined_at, participant
	`
	return s.queryNames(ctx, query, channel)
}

// ==== Delivery journal ====

// RecordOutcomes appends per-recipient outcome rows in one transaction.
func (s *SQLiteStore) RecordOutcomes(ctx context.Context, recs []store.OutcomeRecord) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO delivery_journal
			(message_id, sender, destination_kind, destination_name, recipient, outcome, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, rec := range recs {
		createdAt := rec.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := tx.ExecContext(ctx, query,
			rec.MessageID, rec.Sender, rec.DestinationKind, rec.DestinationName,
			rec.Recipient, rec.Outcome, rec.Reason, createdAt,
		); err != nil {
			return fmt.Errorf("record outcome: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal tx: %w", err)
	}
	return nil
}

// MessageOutcomes returns the journal rows for one message id.
func (s *SQLiteStore) MessageOutcomes(ctx context.Context, messageID string) ([]store.OutcomeRecord, error) {
	query := `
		SELECT message_id, sender, destination_kind, destination_name, recipient, outcome, reason, created_at
		FROM delivery_journal
		WHERE message_id = ?
		ORDER BY recipient
	`
	rows, err := s.db.QueryContext(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("message outcomes: %w", err)
	}
	defer rows.Close()

	var recs []store.OutcomeRecord
	for rows.Next() {
		var rec store.OutcomeRecord
		if err := rows.Scan(
			&rec.MessageID, &rec.Sender, &rec.DestinationKind, &rec.DestinationName,
			&rec.Recipient, &rec.Outcome, &rec.Reason, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SQLiteStore) queryNames(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
