package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/vovakirdan/parley-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := store.SessionRecord{
		ID:        "s1",
		Moderator: "mod",
		State:     store.SessionStateOpen,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.SaveSession(ctx, rec); err != nil {
		t.Fatalf("save session: %v", err)
	}

	got, err := s.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got == nil || got.Moderator != "mod" || got.State != store.SessionStateOpen {
		t.Fatalf("unexpected session record: %+v", got)
	}
	if got.ClosedAt != nil {
		t.Fatalf("open session has closed_at: %v", got.ClosedAt)
	}

	if err := s.CloseSession(ctx, "s1"); err != nil {
		t.Fatalf("close session: %v", err)
	}
	got, err = s.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("get closed session: %v", err)
	}
	if got.State != store.SessionStateClosed || got.ClosedAt == nil {
		t.Fatalf("expected closed session with timestamp, got %+v", got)
	}

	// closing again keeps the original closed_at
	stamp := *got.ClosedAt
	if err := s.CloseSession(ctx, "s1"); err != nil {
		t.Fatalf("reclose session: %v", err)
	}
	got, _ = s.GetSession(ctx, "s1")
	if !got.ClosedAt.Equal(stamp) {
		t.Fatalf("closed_at changed on reclose: %v vs %v", got.ClosedAt, stamp)
	}
}

func TestGetSessionMissing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetSession(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing session, got %+v", got)
	}
}

func TestSessionMembers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveSession(ctx, store.SessionRecord{ID: "s1", Moderator: "mod", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("save session: %v", err)
	}

	for _, p := range []string{"mod", "alice", "bob"} {
		if err := s.AddSessionMember(ctx, "s1", p); err != nil {
			t.Fatalf("add member %s: %v", p, err)
		}
	}
	// duplicate add is a no-op
	if err := s.AddSessionMember(ctx, "s1", "alice"); err != nil {
		t.Fatalf("re-add member: %v", err)
	}

	members, err := s.SessionMembers(ctx, "s1")
	if err != nil {
		t.Fatalf("session members: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %v", members)
	}

	if err := s.RemoveSessionMember(ctx, "s1", "bob"); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	members, _ = s.SessionMembers(ctx, "s1")
	if len(members) != 2 {
		t.Fatalf("expected 2 members after remove, got %v", members)
	}
}

func TestChannelMembers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.EnsureChannel(ctx, "general"); err != nil {
		t.Fatalf("ensure channel: %v", err)
	}
	// creating again is a no-op
	if err := s.EnsureChannel(ctx, "general"); err != nil {
		t.Fatalf("re-ensure channel: %v", err)
	}

	if err := s.AddChannelMember(ctx, "general", "alice"); err != nil {
		t.Fatalf("add channel member: %v", err)
	}
	if err := s.AddChannelMember(ctx, "general", "bob"); err != nil {
		t.Fatalf("add channel member: %v", err)
	}

	members, err := s.ChannelMembers(ctx, "general")
	if err != nil {
		t.Fatalf("channel members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %v", members)
	}

	if err := s.RemoveChannelMember(ctx, "general", "bob"); err != nil {
		t.Fatalf("remove channel member: %v", err)
	}
	// removing an absent member is fine
	if err := s.RemoveChannelMember(ctx, "general", "ghost"); err != nil {
		t.Fatalf("remove absent member: %v", err)
	}

	members, _ = s.ChannelMembers(ctx, "general")
	if len(members) != 1 || members[0] != "alice" {
		t.Fatalf("unexpected members after remove: %v", members)
	}
}

func TestDeliveryJournal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	recs := []store.OutcomeRecord{
		{MessageID: "m1", Sender: "alice", DestinationKind: "channel", DestinationName: "general", Recipient: "bob", Outcome: "delivered", CreatedAt: now},
		{MessageID: "m1", Sender: "alice", DestinationKind: "channel", DestinationName: "general", Recipient: "alice", Outcome: "skipped", Reason: "self", CreatedAt: now},
		{MessageID: "m1", Sender: "alice", DestinationKind: "channel", DestinationName: "general", Recipient: "carol", Outcome: "failed", Reason: "unreachable", CreatedAt: now},
		{MessageID: "m2", Sender: "bob", DestinationKind: "participant", DestinationName: "alice", Recipient: "alice", Outcome: "delivered", CreatedAt: now},
	}
	if err := s.RecordOutcomes(ctx, recs); err != nil {
		t.Fatalf("record outcomes: %v", err)
	}

	got, err := s.MessageOutcomes(ctx, "m1")
	if err != nil {
		t.Fatalf("message outcomes: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows for m1, got %d", len(got))
	}
	// rows come back ordered by recipient
	if got[0].Recipient != "alice" || got[1].Recipient != "bob" || got[2].Recipient != "carol" {
		t.Fatalf("unexpected row order: %+v", got)
	}
	if got[0].Outcome != "skipped" || got[0].Reason != "self" {
		t.Fatalf("unexpected alice row: %+v", got[0])
	}

	got, err = s.MessageOutcomes(ctx, "missing")
	if err != nil {
		t.Fatalf("message outcomes for missing id: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rows, got %+v", got)
	}
}

func TestRecordOutcomesEmpty(t *testing.T) {
	s := newTestStore(t)

	if err := s.RecordOutcomes(context.Background(), nil); err != nil {
		t.Fatalf("empty record outcomes: %v", err)
	}
}
