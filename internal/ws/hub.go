// Package ws bridges the NATS change feed to browser viewers over
// websockets. Strictly read-only for clients: the hub never accepts writes
// into game state.
package ws

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

type client struct {
	conn *websocket.Conn
	// Empty gameID subscribes to everything (the lobby view).
	gameID string
	send   chan []byte
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}

// Hub fans events out to connected viewers.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}

	sub *nats.Subscription
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// AttachNATS subscribes the hub to every lastclick subject on the broker.
func (h *Hub) AttachNATS(nc *nats.Conn) error {
	sub, err := nc.Subscribe("lastclick.>", func(msg *nats.Msg) {
		gameID := gameIDFromSubject(msg.Subject)
		h.Broadcast(gameID, msg.Data)
	})
	if err != nil {
		return err
	}
	h.sub = sub
	return nil
}

// Broadcast delivers one event to every viewer watching the game (or
// everything). Slow consumers are dropped rather than allowed to stall the
// feed.
func (h *Hub) Broadcast(gameID string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.gameID != "" && c.gameID != gameID {
			continue
		}
		select {
		case c.send <- payload:
		default:
			delete(h.clients, c)
			go c.close()
			log.Warn().Str("game_id", c.gameID).Msg("dropped slow feed consumer")
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// ClientCount is for the health/debug surface.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Close() {
	if h.sub != nil {
		_ = h.sub.Unsubscribe()
	}
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	for _, c := range clients {
		c.close()
	}
}

// gameIDFromSubject extracts the trailing token of lastclick.clicks.<id> /
// lastclick.games.<id>.
func gameIDFromSubject(subject string) string {
	for i := len(subject) - 1; i >= 0; i-- {
		if subject[i] == '.' {
			return subject[i+1:]
		}
	}
	return subject
}
