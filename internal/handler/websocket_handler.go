package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Baaaki/apartment-booking/internal/broker"
	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	maxSessionLifetime = 15 * time.Minute
	writeWait          = 10 * time.Second // Time allowed to write a message to the peer
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10 // 54 seconds
	maxMessageSize     = 4 * 1024            // clients only send control frames
)

// WSResponse is the frame pushed to subscribers.
type WSResponse struct {
	Type  string        `json:"type"` // "event", "session_expired"
	Event *broker.Event `json:"event,omitempty"`
	Error string        `json:"error,omitempty"`
}

// WebSocketHandler pushes reservation and payment events to the owning user
// and to every connected admin.
type WebSocketHandler struct {
	clients map[*websocket.Conn]*Client
	mu      sync.RWMutex
}

type Client struct {
	conn        *websocket.Conn
	userID      uint
	role        models.Role
	connectedAt time.Time
	writeMu     sync.Mutex
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced before the upgrade
	},
}

func NewWebSocketHandler() *WebSocketHandler {
	return &WebSocketHandler{
		clients: make(map[*websocket.Conn]*Client),
	}
}

// HandleWebSocket upgrades an authenticated request.
// GET /api/ws/reservations
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	actor := actorFrom(c)
	if actor.UserID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := &Client{
		conn:        conn,
		userID:      actor.UserID,
		role:        actor.Role,
		connectedAt: time.Now(),
	}

	h.mu.Lock()
	h.clients[conn] = client
	total := len(h.clients)
	h.mu.Unlock()

	logger.Log.Info("WebSocket client connected",
		zap.Uint("user_id", client.userID),
		zap.Int("total", total),
	)

	defer h.removeClient(conn)

	h.handleClient(client)
}

// Run forwards events from sub to connected clients until ctx is done.
func (h *WebSocketHandler) Run(ctx context.Context, sub broker.EventSubscriber) error {
	events, err := sub.Subscribe(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			h.closeAll("server shutting down")
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			h.Deliver(event)
		}
	}
}

// Deliver sends event to its owner and to admins. It returns the number of
// clients written to.
func (h *WebSocketHandler) Deliver(event broker.Event) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		if client.userID == event.UserID || client.role == models.RoleAdmin {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	sent := 0
	for _, client := range targets {
		if err := client.writeJSON(WSResponse{Type: "event", Event: &event}); err != nil {
			// handleClient notices the broken connection and cleans up
			logger.Log.Debug("Failed to push event",
				zap.Uint("user_id", client.userID),
				zap.Error(err),
			)
			continue
		}
		sent++
	}
	return sent
}

func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handleClient reads until the peer goes away or the session expires.
func (h *WebSocketHandler) handleClient(client *Client) {
	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)

	go h.pingClient(client, done)

	sessionTimer := time.AfterFunc(maxSessionLifetime, func() {
		logger.Log.Info("WebSocket session expired", zap.Uint("user_id", client.userID))
		h.closeClientGracefully(client, "session expired after 15 minutes")
	})
	defer sessionTimer.Stop()

	for {
		// Incoming payloads are ignored; reading keeps pong handling alive.
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Log.Warn("WebSocket error", zap.Uint("user_id", client.userID), zap.Error(err))
			}
			return
		}
	}
}

func (h *WebSocketHandler) pingClient(client *Client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := client.writeControl(websocket.PingMessage, nil); err != nil {
				logger.Log.Debug("Ping failed", zap.Uint("user_id", client.userID), zap.Error(err))
				return
			}
		case <-done:
			return
		}
	}
}

func (h *WebSocketHandler) closeClientGracefully(client *Client, reason string) {
	if err := client.writeJSON(WSResponse{Type: "session_expired", Error: reason}); err != nil {
		logger.Log.Debug("Failed to send session_expired message", zap.Error(err))
	}
	if err := client.writeControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)); err != nil {
		logger.Log.Debug("Failed to send close frame", zap.Error(err))
	}
}

func (h *WebSocketHandler) closeAll(reason string) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.closeClientGracefully(client, reason)
	}
}

func (h *WebSocketHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, exists := h.clients[conn]
	if exists {
		delete(h.clients, conn)
		conn.Close()

		logger.Log.Info("WebSocket client disconnected",
			zap.Uint("user_id", client.userID),
			zap.Duration("session", time.Since(client.connectedAt).Round(time.Second)),
			zap.Int("remaining", len(h.clients)),
		)
	}
}

// gorilla/websocket allows one concurrent writer per connection.
func (c *Client) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *Client) writeControl(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(messageType, data, time.Now().Add(writeWait))
}
