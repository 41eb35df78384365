package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"picturebridge/internal/logger"

	"github.com/gorilla/websocket"
)

type received struct {
	clientID string
	command  string
}

func setupHub(t *testing.T) (*HubService, *httptest.Server, chan received) {
	t.Helper()

	log, err := logger.New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(log.Close)

	hub := NewHubService(log)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	commands := make(chan received, 16)
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, func(clientID, command string) {
			commands <- received{clientID, command}
		})
	}))

	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return hub, server, commands
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *HubService, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for hub.GetClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, have %d", n, hub.GetClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	return msg
}

func TestHub_BroadcastReachesEveryClientInOrder(t *testing.T) {
	hub, server, _ := setupHub(t)

	first := dial(t, server)
	second := dial(t, server)
	waitForClients(t, hub, 2)

	lines := []string{"hello", "light", "bye"}
	for _, line := range lines {
		hub.Broadcast("server-msg", line)
	}

	for _, conn := range []*websocket.Conn{first, second} {
		for _, line := range lines {
			msg := readMessage(t, conn)
			if msg.Event != "server-msg" || msg.Data != line {
				t.Errorf("Expected server-msg %q, got %+v", line, msg)
			}
		}
	}
}

func TestHub_CommandsReachHandler(t *testing.T) {
	hub, server, commands := setupHub(t)

	conn := dial(t, server)
	waitForClients(t, hub, 1)

	if err := conn.WriteJSON(Message{Event: "ledON"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte("ledOFF")); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	var got []received
	for i := 0; i < 2; i++ {
		select {
		case r := <-commands:
			got = append(got, r)
		case <-time.After(5 * time.Second):
			t.Fatal("Timed out waiting for command")
		}
	}

	if got[0].command != "ledON" || got[1].command != "ledOFF" {
		t.Errorf("Expected ledON then ledOFF, got %+v", got)
	}
	if got[0].clientID == "" || got[0].clientID != got[1].clientID {
		t.Errorf("Expected one stable client id, got %q and %q", got[0].clientID, got[1].clientID)
	}
}

func TestHub_SendToTargetsOneClient(t *testing.T) {
	hub, server, commands := setupHub(t)

	target := dial(t, server)
	other := dial(t, server)
	waitForClients(t, hub, 2)

	target.WriteMessage(websocket.TextMessage, []byte("takePicture"))
	var id string
	select {
	case r := <-commands:
		id = r.clientID
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for command")
	}

	hub.SendTo(id, "captureFailed", "camera: no device")
	hub.Broadcast("server-msg", "after")

	msg := readMessage(t, target)
	if msg.Event != "captureFailed" || msg.Data != "camera: no device" {
		t.Errorf("Expected captureFailed for target, got %+v", msg)
	}

	msg = readMessage(t, other)
	if msg.Event != "server-msg" {
		t.Errorf("Expected other client to only see the broadcast, got %+v", msg)
	}
}

func TestHub_DisconnectRemovesClient(t *testing.T) {
	hub, server, _ := setupHub(t)

	conn := dial(t, server)
	waitForClients(t, hub, 1)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	waitForClients(t, hub, 0)

	// broadcasting to an empty hub must not block
	done := make(chan struct{})
	go func() {
		hub.Broadcast("server-msg", "nobody")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Broadcast blocked with no clients")
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`{"event":"ledON"}`, "ledON"},
		{`{"event":"takePicture","data":""}`, "takePicture"},
		{"ledOFF", "ledOFF"},
		{"  ledON\n", "ledON"},
		{`{}`, ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ParseCommand([]byte(tt.input)); got != tt.expected {
			t.Errorf("ParseCommand(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestEncode(t *testing.T) {
	data, err := encode("newPicture", "a.jpg,b.jpg")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if msg.Event != "newPicture" || msg.Data != "a.jpg,b.jpg" {
		t.Errorf("Unexpected message %+v", msg)
	}
}

func TestEncode_EmptyPayloadKeepsData(t *testing.T) {
	data, err := encode("server-msg", "")
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if string(data) != `{"event":"server-msg","data":""}` {
		t.Errorf("Expected empty data field to be present, got %s", data)
	}
}
