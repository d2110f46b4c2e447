package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"wgnode/pkg/model"
)

// Event is pushed to /events subscribers on peer lifecycle changes.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"` // peer_created, peer_deleted
	PublicKey  string    `json:"public_key"`
	AllowedIPs []string  `json:"allowed_ips,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// EventHub fans peer lifecycle events out to websocket subscribers. It
// implements service.Notifier; a slow or dead subscriber is dropped rather
// than blocking mutations.
type EventHub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	subs     map[*websocket.Conn]struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs: map[*websocket.Conn]struct{}{},
	}
}

// HandleSubscribe upgrades the connection and registers the subscriber.
func (h *EventHub) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("events upgrade failed: %v", err)
		return
	}
	h.mu.Lock()
	h.subs[c] = struct{}{}
	h.mu.Unlock()
	log.Debugf("events subscriber connected: %s", c.RemoteAddr())
	go h.readLoop(c)
}

func (h *EventHub) readLoop(c *websocket.Conn) {
	defer h.drop(c)
	for {
		if _, _, err := c.NextReader(); err != nil {
			return
		}
	}
}

func (h *EventHub) drop(c *websocket.Conn) {
	_ = c.Close()
	h.mu.Lock()
	delete(h.subs, c)
	h.mu.Unlock()
}

func (h *EventHub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.subs {
		if err := c.WriteJSON(ev); err != nil {
			log.Debugf("events send failed, dropping subscriber: %v", err)
			_ = c.Close()
			delete(h.subs, c)
		}
	}
}

// PeerCreated implements service.Notifier.
func (h *EventHub) PeerCreated(p model.Peer) {
	h.broadcast(Event{
		ID:         uuid.NewString(),
		Type:       "peer_created",
		PublicKey:  p.PublicKey,
		AllowedIPs: p.AllowedIPs,
		Timestamp:  time.Now().UTC(),
	})
}

// PeerDeleted implements service.Notifier.
func (h *EventHub) PeerDeleted(publicKey string) {
	h.broadcast(Event{
		ID:        uuid.NewString(),
		Type:      "peer_deleted",
		PublicKey: publicKey,
		Timestamp: time.Now().UTC(),
	})
}
