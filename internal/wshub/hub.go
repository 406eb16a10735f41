package wshub

import (
	"context"
	"encoding/json"
	"lunastars/internal/items"
	"lunastars/internal/session"
	"sync"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// Client message types.
const (
	MsgStart   = "start"
	MsgCollect = "collect"
	MsgReset   = "reset"
	MsgResize  = "resize"
)

// Server message types.
const (
	MsgState = "state"
	MsgItems = "items"
	MsgToast = "toast"
	MsgJoin  = "join"
	MsgLeave = "leave"
)

// ClientMessage is the JSON structure received from clients.
type ClientMessage struct {
	Type   string  `json:"t"`
	ItemID int     `json:"id,omitempty"`
	Width  float64 `json:"w,omitempty"`
	Height float64 `json:"h,omitempty"`
}

// ServerMessage is the JSON structure sent to clients.
type ServerMessage struct {
	Type     string            `json:"t"`
	ClientID string            `json:"cid,omitempty"`
	State    *session.Snapshot `json:"s,omitempty"`
	Items    []items.Item      `json:"items,omitempty"`
	Title    string            `json:"title,omitempty"`
	Message  string            `json:"msg,omitempty"`
	Viewers  int               `json:"n,omitempty"`
}

// Client represents a single WebSocket connection in the hub.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub fans messages out to every connection watching one play.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger.Named("wshub"),
	}
}

// Register adds a client and tells the others how many are watching.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	n := len(h.clients)
	h.mu.Unlock()

	h.BroadcastExcept(c.ID, ServerMessage{Type: MsgJoin, ClientID: c.ID, Viewers: n})
}

// Unregister removes a client and closes its Send channel, then broadcasts a leave message.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		close(c.Send)
		delete(h.clients, id)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.Broadcast(ServerMessage{Type: MsgLeave, ClientID: id, Viewers: n})
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to every client.
func (h *Hub) Broadcast(msg ServerMessage) {
	h.BroadcastExcept("", msg)
}

// BroadcastExcept sends a message to all clients except one. Non-blocking: drops if channel full.
func (h *Hub) BroadcastExcept(senderID string, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal error", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, c := range h.clients {
		if id == senderID {
			continue
		}
		select {
		case c.Send <- data:
		default:
			// Drop message if channel full
		}
	}
}

// SendTo sends a message to one client. It reports false if the client is
// gone or its channel is full.
func (h *Hub) SendTo(id string, msg ServerMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal error", zap.Error(err))
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	if !ok {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// Close unregisters every client and closes its connection, so readers
// blocked on the socket return.
func (h *Hub) Close() {
	h.mu.Lock()
	closing := make([]*Client, 0, len(h.clients))
	for id, c := range h.clients {
		close(c.Send)
		delete(h.clients, id)
		closing = append(closing, c)
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range closing {
		if c.Conn == nil {
			continue
		}
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			if err := c.Conn.Close(websocket.StatusGoingAway, "play ended"); err != nil {
				h.logger.Debug("close connection", zap.String("client", c.ID), zap.Error(err))
			}
		}(c)
	}
	wg.Wait()
}
