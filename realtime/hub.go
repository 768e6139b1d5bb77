package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Envelope is the wire format for every server-sent event
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Server-sent event names
const (
	EventNotificationNew = "notification:new"
	EventReportUpdated   = "report:updated"
	EventUserReports     = "user-reports"
)

// Hub tracks the live websocket connections per user. A user may hold several
// connections at once (multiple tabs or devices), each one is a *Client in the
// user's set. The hub is process local and never persisted.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
	}
}

// Register joins the client to the user's room. Registering the same client
// twice is a no-op.
func (h *Hub) Register(userID string, c *Client) {
	if userID == "" || c == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	// a re-register under a new id moves the client out of its old room
	if c.userID != "" && c.userID != userID {
		h.removeLocked(c)
	}
	c.userID = userID

	room, ok := h.rooms[userID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[userID] = room
	}
	room[c] = struct{}{}
	zap.S().Debugw("websocket client registered", "userId", userID, "connections", len(room))
}

// Unregister removes the client from whichever room holds it
func (h *Hub) Unregister(c *Client) {
	if c == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	room, ok := h.rooms[c.userID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.userID)
	}
}

// IsOnline reports whether the user has at least one live connection
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID]) > 0
}

// SendTo delivers an event to every live connection of the user. Offline
// users are a silent no-op. Clients whose send buffer is full are dropped
// rather than blocking the caller.
func (h *Hub) SendTo(userID, event string, data interface{}) {
	message, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		zap.S().Errorw("failed to marshal websocket event", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	var slow []*Client
	for c := range h.rooms[userID] {
		select {
		case c.send <- message:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		zap.S().Warnw("dropping slow websocket client", "userId", userID, "event", event)
		c.Close()
	}
}
