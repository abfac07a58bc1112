package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/parley-server/internal/config"
	"github.com/vovakirdan/parley-server/internal/core"
	"github.com/vovakirdan/parley-server/internal/store/sqlite"
)

// startTestServer spins up a hub backed by an in-memory store and serves it
// over httptest.
func startTestServer(t *testing.T) (*httptest.Server, *core.Hub) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	hub := core.NewHub(nil, core.HubConfig{
		Store:           st,
		DeliveryTimeout: time.Second,
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := NewServer(hub, st, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, nil)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, hub
}

// testHandle is an always-reachable participant handle that records
// deliveries. Used to register admin-side participants without a socket.
type testHandle struct {
	mu   sync.Mutex
	msgs []*core.Message
}

func (h *testHandle) Deliver(_ context.Context, msg *core.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
	return nil
}

func (h *testHandle) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.msgs)
}

func registerParticipant(t *testing.T, hub *core.Hub, name string) *testHandle {
	t.Helper()
	h := &testHandle{}
	hub.Registry().Register(name, h)
	return h
}

func doJSON(t *testing.T, ts *httptest.Server, method, path string, body any) *stdhttp.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req, err := stdhttp.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *stdhttp.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return out
}

// readEvent reads frames until one carries the wanted event name, skipping
// unrelated notifications that may arrive first.
func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			t.Fatalf("read outbound waiting for %q: %v", event, err)
		}
		if outbound.Type == "event" && outbound.Event == event {
			return outbound.Data
		}
	}
}
