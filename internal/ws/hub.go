package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/Kostikrut/bubbly-back/internal/models"
	logger "github.com/Kostikrut/bubbly-back/middleware/log"
)

// Wire event names, client->server and server->client.
const (
	EventGetOnlineUsers = "getOnlineUsers"
	EventTyping         = "typing"
	EventStopTyping     = "stopTyping"
	EventMarkAsRead     = "markAsRead"
	EventMessagesRead   = "messagesRead"
	EventNewMessage     = "newMessage"
)

// Frame is the JSON envelope for every realtime event.
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// MessageMarker is the slice of the message store the hub needs: the bulk
// read-flag update. Everything else presence does is in-memory.
type MessageMarker interface {
	MarkRead(senderID, receiverID uint) (int64, error)
}

// Hub tracks which authenticated users currently hold an open realtime
// connection and relays ephemeral events between them. Presence is
// best-effort process state: it is rebuilt from zero on restart and the
// only durable side effect is the read-flag update.
//
// Connections come in two flavors: roster connections (conns, keyed by
// user id) are listed in getOnlineUsers and addressable by Relay/send;
// watcher connections (users hiding their online status) receive every
// broadcast but are invisible and unaddressable.
//
// All call sites go through Register/Unregister/Relay/MarkRead/
// PushNewMessage, so a future multi-process deployment can swap the maps
// for a shared store without touching them.
type Hub struct {
	mu       sync.RWMutex
	conns    map[uint]*Client
	watchers map[*Client]struct{}

	messages MessageMarker
	logger   *logger.Logger
}

func NewHub(messages MessageMarker, log *logger.Logger) *Hub {
	return &Hub{
		conns:    make(map[uint]*Client),
		watchers: make(map[*Client]struct{}),
		messages: messages,
		logger:   log,
	}
}

// Register inserts the connection into the presence map and broadcasts the
// updated roster to everyone connected. A previous connection for the same
// user is closed and replaced.
func (h *Hub) Register(userID uint, c *Client) {
	h.mu.Lock()
	if existing, ok := h.conns[userID]; ok && existing != c {
		existing.closeSend()
	}
	h.conns[userID] = c
	h.mu.Unlock()

	h.broadcastRoster()
}

// Unregister removes the connection and rebroadcasts the roster. It is
// unconditional: unregistering a user who was never present is a no-op,
// and a stale connection never evicts its replacement.
func (h *Hub) Unregister(userID uint, c *Client) {
	h.mu.Lock()
	current, ok := h.conns[userID]
	if ok && current == c {
		delete(h.conns, userID)
	}
	h.mu.Unlock()

	if ok && current == c {
		h.broadcastRoster()
	}
}

// RegisterWatcher attaches a connection that stays out of the roster but
// still receives every broadcast frame. A watcher's arrival re-emits the
// roster so the watcher itself learns who is online.
func (h *Hub) RegisterWatcher(c *Client) {
	h.mu.Lock()
	h.watchers[c] = struct{}{}
	h.mu.Unlock()

	h.broadcastRoster()
}

// UnregisterWatcher detaches a watcher connection. The roster itself is
// unchanged, so nothing is rebroadcast.
func (h *Hub) UnregisterWatcher(c *Client) {
	h.mu.Lock()
	delete(h.watchers, c)
	h.mu.Unlock()
}

// OnlineUserIDs returns a snapshot of the currently present user ids.
func (h *Hub) OnlineUserIDs() []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]uint, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	return ids
}

// IsOnline reports whether the user has an active connection.
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.conns[userID]
	return ok
}

// Relay forwards a typing/stopTyping event to the target's connection.
// Fire-and-forget: no queuing, no retry, silent no-op when the target has
// no active connection.
func (h *Hub) Relay(event string, fromUserID, toUserID uint) {
	h.send(toUserID, Frame{
		Event: event,
		Data:  map[string]uint{"from_user_id": fromUserID},
	})
}

// MarkRead flips every unread message from fromUserID to byUserID to read,
// then notifies the original sender if connected. A store failure is
// logged, not retried, and never tears down the connection.
func (h *Hub) MarkRead(fromUserID, byUserID uint) {
	if _, err := h.messages.MarkRead(fromUserID, byUserID); err != nil {
		h.logger.Error("failed to mark messages as read",
			zap.Uint("from_user_id", fromUserID),
			zap.Uint("by_user_id", byUserID),
			zap.Error(err),
		)
		return
	}

	h.send(fromUserID, Frame{
		Event: EventMessagesRead,
		Data:  map[string]uint{"by_user_id": byUserID},
	})
}

// PushNewMessage delivers a freshly persisted message to the receiver's
// connection, if any. Returns whether the receiver was connected; an
// offline receiver simply picks the message up on the next thread fetch.
func (h *Hub) PushNewMessage(msg *models.Message) bool {
	return h.send(msg.ReceiverID, Frame{
		Event: EventNewMessage,
		Data:  msg,
	})
}

// broadcastRoster pushes the current roster to every connection, the
// hidden watchers included. Only roster connections contribute ids.
func (h *Hub) broadcastRoster() {
	h.mu.RLock()
	ids := make([]uint, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	clients := make([]*Client, 0, len(h.conns)+len(h.watchers))
	for _, c := range h.conns {
		clients = append(clients, c)
	}
	for c := range h.watchers {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	payload, err := json.Marshal(Frame{Event: EventGetOnlineUsers, Data: ids})
	if err != nil {
		h.logger.Error("failed to marshal roster", zap.Error(err))
		return
	}

	for _, c := range clients {
		c.enqueue(payload)
	}
}

// send marshals the frame and enqueues it for the target user. Returns
// false when the user has no active connection.
func (h *Hub) send(userID uint, frame Frame) bool {
	h.mu.RLock()
	c, ok := h.conns[userID]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("failed to marshal frame",
			zap.String("event", frame.Event),
			zap.Error(err),
		)
		return false
	}

	c.enqueue(payload)
	return true
}
