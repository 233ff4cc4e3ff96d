package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"solo-persona/backend/internal/session"
	apperrors "solo-persona/backend/pkg/errors"
	"solo-persona/backend/pkg/logger"
	wsmsg "solo-persona/backend/pkg/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Clients only send small control frames
	maxMessageSize = 4 * 1024
)

// Client is one browser connection watching one session.
type Client struct {
	ID        string
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte
	Hub       *Hub
	log       *logger.Logger

	mu     sync.Mutex
	closed bool
}

// SessionLookup resolves a session id to its controller.
type SessionLookup interface {
	Get(id string) (*session.Controller, error)
}

// Handler upgrades GET /ws?sessionId= requests.
type Handler struct {
	hub      *Hub
	sessions SessionLookup
	upgrader websocket.Upgrader
}

// NewHandler creates a WebSocket handler. allowedOrigins of ["*"] accepts any origin.
func NewHandler(hub *Hub, sessions SessionLookup, allowedOrigins []string) *Handler {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return &Handler{
		hub:      hub,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   1024,
			WriteBufferSize:  4096,
		},
	}
}

// ServeWs attaches a client to the session named by the sessionId query parameter.
func (h *Handler) ServeWs(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		_ = c.Error(apperrors.NewBadRequestError("MISSING_SESSION_ID", "sessionId is required"))
		return
	}
	ctrl, err := h.sessions.Get(sessionID)
	if err != nil {
		_ = c.Error(apperrors.NewNotFoundError("SESSION_NOT_FOUND", "session not found"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.FromContext(c.Request.Context()).Warn("websocket upgrade failed", "error", err.Error())
		return
	}

	client := &Client{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Conn:      conn,
		Send:      make(chan []byte, 64),
		Hub:       h.hub,
		log:       h.hub.log.WithSessionID(sessionID),
	}

	if !h.hub.attach(client) {
		conn.Close()
		return
	}
	// Registered before the current state is read, so no change falls in
	// between. A broadcast may arrive ahead of it; clients order by version.
	client.sendMessage(wsmsg.EventSnapshot, ctrl.Snapshot())

	go client.WritePump()
	go client.ReadPump()
}

// ReadPump answers pings and detects disconnects.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.detach(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read error", "error", err.Error())
			}
			return
		}

		var msg wsmsg.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendMessage(wsmsg.EventError, wsmsg.ErrorContent{Message: "malformed message"})
			continue
		}

		switch msg.Type {
		case wsmsg.EventPing:
			c.sendMessage(wsmsg.EventPong, nil)
		default:
			c.sendMessage(wsmsg.EventError, wsmsg.ErrorContent{Message: "unknown message type: " + msg.Type})
		}
	}
}

func (c *Client) sendMessage(messageType string, content interface{}) {
	data, err := json.Marshal(wsmsg.Message{Type: messageType, Content: content})
	if err != nil {
		c.log.LogError(err, "failed to marshal ws message", "type", messageType)
		return
	}
	if !c.trySend(data) {
		c.log.Warn("ws message dropped", "type", messageType)
	}
}

// trySend queues data without blocking. It reports false once the client is
// closed or its buffer is full.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// WritePump drains Send to the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
