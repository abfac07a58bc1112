package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/parley-server/internal/core"
	"github.com/vovakirdan/parley-server/internal/proto"
)

func TestHealthEndpoint(t *testing.T) {
	ts, _ := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketChannelFlow(t *testing.T) {
	ts, _ := startTestServer(t)
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	connA, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial A: %v", err)
	}
	defer connA.Close(websocket.StatusNormalClosure, "done")

	connB, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial B: %v", err)
	}
	defer connB.Close(websocket.StatusNormalClosure, "done")

	sendHello := func(conn *websocket.Conn, name string) {
		payload, _ := json.Marshal(proto.HelloData{Name: name, Protocol: proto.ProtocolVersion})
		_ = wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeHello, Data: payload})
	}
	sendJoin := func(conn *websocket.Conn, channel string) {
		payload, _ := json.Marshal(proto.JoinData{Channel: channel})
		_ = wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoin, Data: payload})
	}

	sendHello(connA, "alice")
	sendHello(connB, "bob")

	sendJoin(connA, "general")

	// a self-addressed probe acts as a barrier: once its report comes back,
	// alice's join has been processed.
	probe, _ := json.Marshal(proto.SendData{
		To:   proto.DestinationRef{Kind: "channel", Name: "general"},
		Body: "probe",
	})
	_ = wsjson.Write(ctx, connA, proto.Inbound{Type: proto.InboundTypeSend, Data: probe})
	readEvent(t, ctx, connA, "report")

	sendJoin(connB, "general")

	// alice sees bob arrive, which doubles as a join barrier.
	var joined proto.EventMember
	if err := json.Unmarshal(readEvent(t, ctx, connA, "member_joined"), &joined); err != nil {
		t.Fatalf("unmarshal member_joined: %v", err)
	}
	if joined.Channel != "general" || joined.Participant != "bob" {
		t.Fatalf("unexpected member_joined payload: %+v", joined)
	}

	payload, _ := json.Marshal(proto.SendData{
		To:   proto.DestinationRef{Kind: "channel", Name: "general"},
		Body: "hi there",
	})
	_ = wsjson.Write(ctx, connB, proto.Inbound{Type: proto.InboundTypeSend, Data: payload})

	var event proto.EventMessage
	if err := json.Unmarshal(readEvent(t, ctx, connA, "message"), &event); err != nil {
		t.Fatalf("unmarshal message event: %v", err)
	}
	if event.From != "bob" || event.Body != "hi there" {
		t.Fatalf("unexpected message payload: %+v", event)
	}
	if event.To.Kind != "channel" || event.To.Name != "general" {
		t.Fatalf("unexpected destination: %+v", event.To)
	}

	// sender gets the full report: alice delivered, bob skipped as self.
	var report proto.EventReport
	if err := json.Unmarshal(readEvent(t, ctx, connB, "report"), &report); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if report.MessageID == "" {
		t.Fatal("report is missing the message id")
	}
	if out := report.Outcomes["alice"]; out.Status != "delivered" {
		t.Fatalf("alice outcome: %+v", out)
	}
	if out := report.Outcomes["bob"]; out.Status != "skipped" || out.Reason != "self" {
		t.Fatalf("bob outcome: %+v", out)
	}
}

func TestWebSocketLeaveChannelStopsDelivery(t *testing.T) {
	ts, _ := startTestServer(t)
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	connA, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial A: %v", err)
	}
	defer connA.Close(websocket.StatusNormalClosure, "done")

	connB, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial B: %v", err)
	}
	defer connB.Close(websocket.StatusNormalClosure, "done")

	hello := func(conn *websocket.Conn, name string) {
		payload, _ := json.Marshal(proto.HelloData{Name: name})
		_ = wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeHello, Data: payload})
	}
	hello(connA, "alice")
	hello(connB, "bob")

	join, _ := json.Marshal(proto.JoinData{Channel: "news"})
	_ = wsjson.Write(ctx, connA, proto.Inbound{Type: proto.InboundTypeJoin, Data: join})

	probe, _ := json.Marshal(proto.SendData{
		To:   proto.DestinationRef{Kind: "channel", Name: "news"},
		Body: "probe",
	})
	_ = wsjson.Write(ctx, connA, proto.Inbound{Type: proto.InboundTypeSend, Data: probe})
	readEvent(t, ctx, connA, "report")

	_ = wsjson.Write(ctx, connB, proto.Inbound{Type: proto.InboundTypeJoin, Data: join})
	readEvent(t, ctx, connA, "member_joined")

	_ = wsjson.Write(ctx, connB, proto.Inbound{Type: proto.InboundTypeLeave, Data: join})
	readEvent(t, ctx, connA, "member_left")

	send, _ := json.Marshal(proto.SendData{
		To:   proto.DestinationRef{Kind: "channel", Name: "news"},
		Body: "after leave",
	})
	_ = wsjson.Write(ctx, connA, proto.Inbound{Type: proto.InboundTypeSend, Data: send})

	var report proto.EventReport
	if err := json.Unmarshal(readEvent(t, ctx, connA, "report"), &report); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if _, ok := report.Outcomes["bob"]; ok {
		t.Fatalf("bob left the channel but still appears in the report: %+v", report.Outcomes)
	}
}

func TestWebSocketRejectsMissingHello(t *testing.T) {
	ts, _ := startTestServer(t)
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// join before hello must close the connection
	payload, _ := json.Marshal(proto.JoinData{Channel: "general"})
	_ = wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoin, Data: payload})

	var outbound proto.Outbound
	readErr := wsjson.Read(ctx, conn, &outbound)
	if readErr == nil {
		t.Fatal("expected the server to close the connection")
	}
	if status := websocket.CloseStatus(readErr); status != websocket.StatusPolicyViolation {
		t.Fatalf("unexpected close status: %v (err: %v)", status, readErr)
	}
}

func TestWSHandlerNilLogger(t *testing.T) {
	hub := core.NewHub(nil, core.HubConfig{DeliveryTimeout: time.Second})
	hctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(hctx)

	ts := httptest.NewServer(NewWSHandler(hub, nil))
	t.Cleanup(ts.Close)
	wsURL := strings.Replace(ts.URL, "http", "ws", 1)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	hello, _ := json.Marshal(proto.HelloData{Name: "alice"})
	_ = wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeHello, Data: hello})

	// An unmapped frame goes through the read loop's logging path.
	_ = wsjson.Write(ctx, conn, proto.Inbound{Type: "bogus"})

	var outbound proto.Outbound
	if err := wsjson.Read(ctx, conn, &outbound); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	if outbound.Type != proto.OutboundTypeError {
		t.Fatalf("expected protocol error, got %+v", outbound)
	}
}

func TestWebSocketBadDestinationKind(t *testing.T) {
	ts, _ := startTestServer(t)
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	hello, _ := json.Marshal(proto.HelloData{Name: "alice"})
	_ = wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeHello, Data: hello})

	send, _ := json.Marshal(proto.SendData{
		To:   proto.DestinationRef{Kind: "broadcast", Name: "everyone"},
		Body: "nope",
	})
	_ = wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeSend, Data: send})

	var outbound proto.Outbound
	if err := wsjson.Read(ctx, conn, &outbound); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	if outbound.Type != proto.OutboundTypeError || outbound.Error == nil {
		t.Fatalf("expected a protocol error, got %+v", outbound)
	}
	if outbound.Error.Code != "bad_request" {
		t.Fatalf("unexpected error code: %s", outbound.Error.Code)
	}
}
