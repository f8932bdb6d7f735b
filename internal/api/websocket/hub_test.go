package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KevinKickass/donp/internal/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, hub *Hub, srv *httptest.Server, want int) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client not registered, count=%d", hub.GetClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

type received struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readMessage(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg received
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestHubBroadcastsTransactions(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, hub, srv, 1)

	hub.OnTransaction(protocol.TransactionResult{
		Device:  "plc",
		Message: "read_holding",
		Outcome: protocol.OutcomeOK,
		TX:      "050342E1",
	})

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeTransaction {
		t.Fatalf("type got=%s", msg.Type)
	}
	var result protocol.TransactionResult
	if err := json.Unmarshal(msg.Data, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Device != "plc" || result.TX != "050342E1" || result.Outcome != protocol.OutcomeOK {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestHubRunEvents(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, hub, srv, 1)

	runID := uuid.New()
	hub.OnRunStarted(runID, 3)
	msg := readMessage(t, conn)
	var started RunStartedData
	if err := json.Unmarshal(msg.Data, &started); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != MessageTypeRunStarted || started.RunID != runID || started.Iterations != 3 {
		t.Fatalf("unexpected run_started: %s %+v", msg.Type, started)
	}

	hub.OnRunCompleted(&protocol.Report{RunID: runID, Attempted: 6, Succeeded: 5, Failed: 1})
	msg = readMessage(t, conn)
	var completed RunCompletedData
	if err := json.Unmarshal(msg.Data, &completed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != MessageTypeRunCompleted || completed.Failed != 1 || completed.Attempted != 6 {
		t.Fatalf("unexpected run_completed: %s %+v", msg.Type, completed)
	}
}

func TestHubDeviceSubscription(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, hub, srv, 1)

	if err := conn.WriteJSON(ClientRequest{Type: "subscribe", Devices: []string{"Meter"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != MessageTypeSubscribed {
		t.Fatalf("expected subscribed ack, got %s", msg.Type)
	}

	hub.OnTransaction(protocol.TransactionResult{Device: "plc", Outcome: protocol.OutcomeOK})
	hub.OnTransaction(protocol.TransactionResult{Device: "meter", Outcome: protocol.OutcomeOK})

	msg := readMessage(t, conn)
	var result protocol.TransactionResult
	if err := json.Unmarshal(msg.Data, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Device != "meter" {
		t.Fatalf("filtered device leaked through: %s", result.Device)
	}
}

func TestHubUnknownRequest(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, hub, srv, 1)

	if err := conn.WriteJSON(ClientRequest{Type: "auth"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != MessageTypeError {
		t.Fatalf("expected error reply, got %s", msg.Type)
	}
}

func TestHubUnregistersClosedClient(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, hub, srv, 1)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client not unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
