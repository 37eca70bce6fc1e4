package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Kostikrut/bubbly-back/internal/models"
	logger "github.com/Kostikrut/bubbly-back/middleware/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// UserLookup is the slice of the account store the socket layer needs at
// handshake time: the online-status visibility flag.
type UserLookup interface {
	GetByID(id uint) (*models.User, error)
}

// Client is one authenticated realtime connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// send carries marshaled frames to writePump. Fire-and-forget: a full
	// buffer drops the frame rather than blocking the hub.
	send chan []byte

	userID  uint
	visible bool // present in the roster (show_online_status was true)

	closeOnce sync.Once
	logger    *logger.Logger
}

// inboundFrame is what clients send: typing/stopTyping carry the target,
// markAsRead carries the original sender.
type inboundFrame struct {
	Event string `json:"event"`
	Data  struct {
		ToUserID   uint `json:"to_user_id"`
		FromUserID uint `json:"from_user_id"`
	} `json:"data"`
}

// enqueue hands a marshaled frame to writePump without ever blocking.
func (c *Client) enqueue(payload []byte) {
	defer func() {
		// send races with closeSend on replace/disconnect; a frame lost to
		// a closing connection is within the fire-and-forget contract
		_ = recover()
	}()

	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// readPump consumes inbound frames and dispatches them to the hub.
func (c *Client) readPump() {
	defer func() {
		if c.visible {
			c.hub.Unregister(c.userID, c)
		} else {
			c.hub.UnregisterWatcher(c)
		}
		c.closeSend()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error",
					zap.Uint("user_id", c.userID),
					zap.Error(err),
				)
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.logger.Warn("malformed realtime frame",
				zap.Uint("user_id", c.userID),
				zap.Error(err),
			)
			continue
		}

		switch frame.Event {
		case EventTyping, EventStopTyping:
			c.hub.Relay(frame.Event, c.userID, frame.Data.ToUserID)
		case EventMarkAsRead:
			c.hub.MarkRead(frame.Data.FromUserID, c.userID)
		default:
			// unknown events are dropped silently
		}
	}
}

// writePump pushes queued frames and heartbeats to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

			// drain whatever else is queued
			n := len(c.send)
			for range n {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades an authenticated request to a realtime connection.
// Users who keep their online status hidden still get a working
// connection: they receive every broadcast (so they see who is online)
// and can type and mark reads, but they never enter the roster and
// cannot be relayed to.
func ServeWs(hub *Hub, users UserLookup, log *logger.Logger, c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	uID := userID.(uint)

	user, err := users.GetByID(uID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("failed to upgrade websocket",
			zap.Uint("user_id", uID),
			zap.Error(err),
		)
		return
	}

	client := &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		userID:  uID,
		visible: user.ShowOnlineStatus,
		logger:  log,
	}

	if client.visible {
		hub.Register(uID, client)
	} else {
		hub.RegisterWatcher(client)
	}

	go client.writePump()
	go client.readPump()
}
