package notifications

import (
	"context"
	"errors"
	"sync"

	"microblog/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per user
	maxConnsPerUser = 8
	// Max total connections
	maxTotalConns = 10000
)

// Hub maps userID -> set of live notification stream clients.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	cancel     context.CancelFunc
}

// NewHub creates a new Hub instance for the notification stream.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[uint]map[*Client]struct{}),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notification hub" }

// Register a connection for a given userID. Returns the Client or an error
// when a connection limit is exceeded.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.NotificationStreamConnections.Inc()

	return client, nil
}

// UnregisterClient removes a client from the hub.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// removeLocked deletes the client from the connection map. Callers must hold
// the write lock.
func (h *Hub) removeLocked(client *Client) {
	if m, ok := h.conns[client.UserID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
			observability.NotificationStreamConnections.Dec()
		}
		if len(m) == 0 {
			delete(h.conns, client.UserID)
		}
	}
}

// Broadcast sends the message to every connection for userID. Slow clients
// whose send buffer is full are dropped rather than blocking the hub.
func (h *Hub) Broadcast(userID uint, message string) {
	h.mu.RLock()
	var stale []*Client
	for client := range h.conns[userID] {
		select {
		case client.Send <- []byte(message):
		default:
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	// Sends happen under the read lock and closes under the write lock, so a
	// close can never race a send; closeSend makes a doubly collected client
	// harmless.
	for _, client := range stale {
		h.mu.Lock()
		h.removeLocked(client)
		client.closeSend()
		h.mu.Unlock()
	}
}

// StartWiring subscribes the hub to the notifier's Redis channels so that
// notifications published on any instance reach clients connected here.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	ctx, h.cancel = context.WithCancel(ctx)
	return n.StartPatternSubscriber(ctx, func(userID uint, payload string) {
		h.Broadcast(userID, payload)
	})
}

// Shutdown stops the Redis subscription and closes every client connection.
func (h *Hub) Shutdown(_ context.Context) error {
	if h.cancel != nil {
		h.cancel()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, m := range h.conns {
		for client := range m {
			client.closeSend()
			_ = client.Conn.Close()
		}
		delete(h.conns, userID)
	}
	h.totalConns = 0
	return nil
}

// ConnectionCount reports live connections for a user. Used in tests.
func (h *Hub) ConnectionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}
