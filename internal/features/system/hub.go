package system

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

type invalidationEvent struct {
	Event    string `json:"event"`
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id,omitempty"`
}

type subscriber struct {
	conn     *websocket.Conn
	tenantID string
	userID   string
	send     chan invalidationEvent
}

// Hub fans permission-invalidation events out to connected clients. Clients
// drop any cached effective permission set on receipt; the next request
// resolves fresh. Slow consumers lose events rather than block the hub, which
// is safe because the event carries no state, only "re-resolve".
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		logger:      logger,
	}
}

// NotifyTenant tells every connected client in the tenant to drop its cache.
func (h *Hub) NotifyTenant(tenantID string) {
	h.broadcast(invalidationEvent{Event: "permissions.invalidated", TenantID: tenantID})
}

// NotifyUser targets a single user's connections.
func (h *Hub) NotifyUser(tenantID, userID string) {
	h.broadcast(invalidationEvent{Event: "permissions.invalidated", TenantID: tenantID, UserID: userID})
}

func (h *Hub) broadcast(ev invalidationEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		if sub.tenantID != ev.TenantID {
			continue
		}
		if ev.UserID != "" && sub.userID != ev.UserID {
			continue
		}
		select {
		case sub.send <- ev:
		default:
			// drop rather than block
		}
	}
}

func (h *Hub) register(sub *subscriber) {
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub)
	h.mu.Unlock()
	close(sub.send)
}

// Serve pumps invalidation events to one connection until it closes.
func (h *Hub) Serve(c *websocket.Conn, tenantID, userID string) {
	sub := &subscriber{
		conn:     c,
		tenantID: tenantID,
		userID:   userID,
		send:     make(chan invalidationEvent, 8),
	}
	h.register(sub)
	defer h.unregister(sub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain reads to detect disconnects; inbound payloads are ignored.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-sub.send:
			if !ok {
				return
			}
			if err := c.WriteJSON(ev); err != nil {
				h.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-done:
			return
		}
	}
}
