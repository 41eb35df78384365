package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"picturebridge/internal/logger"

	"github.com/gorilla/websocket"
)

// Message is the envelope used in both directions on the socket.
type Message struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

// outbound is a message for one client, or for all when clientID is empty.
type outbound struct {
	clientID string
	payload  []byte
}

// HubService owns the set of connected browsers. All changes to the set
// and all fan-out happen on the Run goroutine, so a client sees messages in
// the order they were sent.
type HubService struct {
	clients    map[string]*Client
	outbound   chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[string]*Client),
		outbound:   make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves registrations and deliveries until ctx is cancelled, then
// closes every remaining connection.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				client.close(websocket.CloseGoingAway, "server shutdown")
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.id] = client
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client %s connected. Total: %d", client.id, count)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.close(websocket.CloseNormalClosure, "")
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client %s disconnected. Total: %d", client.id, count)

		case msg := <-h.outbound:
			h.mutex.Lock()
			for id, client := range h.clients {
				if msg.clientID != "" && msg.clientID != id {
					continue
				}
				if !client.enqueue(msg.payload) {
					h.logger.Warning("Client %s is not keeping up, dropping it", id)
					delete(h.clients, id)
					client.close(websocket.ClosePolicyViolation, "too slow")
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Broadcast delivers event to every connected client. Clients that have
// gone away in the meantime are skipped.
func (h *HubService) Broadcast(event, payload string) {
	message, err := encode(event, payload)
	if err != nil {
		h.logger.Error("Failed to encode %s event: %v", event, err)
		return
	}
	h.send(outbound{payload: message})
}

// SendTo delivers event to one client only.
func (h *HubService) SendTo(clientID, event, payload string) {
	message, err := encode(event, payload)
	if err != nil {
		h.logger.Error("Failed to encode %s event: %v", event, err)
		return
	}
	h.send(outbound{clientID: clientID, payload: message})
}

func (h *HubService) send(msg outbound) {
	select {
	case h.outbound <- msg:
	case <-h.done:
	}
}

// GetClientCount returns the number of connected clients.
func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func encode(event, payload string) ([]byte, error) {
	return json.Marshal(Message{Event: event, Data: payload})
}
