package websocket

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// CommandHandler receives every command a client sends.
type CommandHandler func(clientID, command string)

// Client is one browser connection.
type Client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (c *Client) enqueue(message []byte) bool {
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// close stops the write pump, which sends a close frame and closes the socket.
func (c *Client) close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		close(c.send)
	})
}

// Serve registers conn with the hub and pumps messages until the client
// goes away. Commands are passed to onCommand in arrival order.
func (h *HubService) Serve(conn *websocket.Conn, onCommand CommandHandler) {
	client := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}
	go client.writePump()

	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Error("Client %s disconnected with error: %v", client.id, err)
			}
			return
		}

		if command := ParseCommand(data); command != "" {
			onCommand(client.id, command)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// ParseCommand accepts either a JSON envelope {"event":"ledON"} or the bare
// event name as text.
func ParseCommand(data []byte) string {
	var msg Message
	if err := json.Unmarshal(data, &msg); err == nil {
		return msg.Event
	}
	return strings.TrimSpace(string(data))
}
