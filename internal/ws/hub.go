// Package ws pushes session snapshots to browsers over WebSocket.
package ws

import (
	"context"
	"encoding/json"

	"solo-persona/backend/internal/session"
	"solo-persona/backend/pkg/logger"
	wsmsg "solo-persona/backend/pkg/ws"
)

type envelope struct {
	sessionID string
	data      []byte
}

// Hub fans snapshots out to every client watching the same session.
type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	log        *logger.Logger
}

// NewHub creates a hub. Call Run to start it.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run dispatches registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for client := range set {
					client.closeSend()
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			return

		case client := <-h.register:
			set, ok := h.clients[client.SessionID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.SessionID] = set
			}
			set[client] = true
			h.log.Debug("ws client registered", "client_id", client.ID, "session_id", client.SessionID)

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			for client := range h.clients[msg.sessionID] {
				if !client.trySend(msg.data) {
					h.log.Warn("ws client removed due to blocked channel", "client_id", client.ID)
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.SessionID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	client.closeSend()
	if len(set) == 0 {
		delete(h.clients, client.SessionID)
	}
	h.log.Debug("ws client unregistered", "client_id", client.ID)
}

func (h *Hub) attach(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues a snapshot for the session's clients. It never blocks; it
// is safe to use as a session.Notifier.
func (h *Hub) Publish(snap session.Snapshot) {
	data, err := json.Marshal(wsmsg.Message{Type: wsmsg.EventSnapshot, Content: snap})
	if err != nil {
		h.log.LogError(err, "failed to marshal snapshot", "session_id", snap.ID)
		return
	}
	select {
	case h.broadcast <- envelope{sessionID: snap.ID, data: data}:
	default:
		h.log.Warn("ws broadcast queue full, snapshot dropped", "session_id", snap.ID, "version", snap.Version)
	}
}
