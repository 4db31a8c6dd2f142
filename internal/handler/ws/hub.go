package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"BarTrader/internal/domain/models"
	domrepo "BarTrader/internal/domain/repository"
	applogger "BarTrader/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const writeTimeout = 5 * time.Second

// wsClient serializes writes to one connection. gorilla/websocket permits
// at most one concurrent writer per connection.
type wsClient struct {
	conn *websocket.Conn

	mu sync.Mutex
}

func (c *wsClient) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// Hub broadcasts finalized candles to connected WebSocket clients.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *applogger.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]*wsClient
}

// NewHub creates a candle broadcast hub.
func NewHub(logger *applogger.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]*wsClient),
	}
}

// RegisterRoutes mounts the hub on the Echo server.
func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/candles", h.Serve)
}

// Serve upgrades the connection and keeps it registered until the client
// disconnects. Inbound frames are discarded.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.clients[conn] = &wsClient{conn: conn}
	n := len(h.clients)
	h.mu.Unlock()
	if h.logger != nil {
		h.logger.Debug("ws client connected", applogger.Int("clients", n))
	}

	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}

type candleUpdate struct {
	Type string         `json:"type"`
	Data *models.Candle `json:"data"`
}

// OnCandleFinalized pushes the candle to every connected client. Clients
// that fail the write are dropped.
func (h *Hub) OnCandleFinalized(_ context.Context, c *models.Candle) {
	msg := candleUpdate{Type: "candle_update", Data: c}

	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.Unlock()

	for _, cl := range clients {
		if err := cl.writeJSON(msg); err != nil {
			h.drop(cl.conn)
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		_ = conn.Close()
	}
	h.mu.Unlock()
}

var _ domrepo.CandleSink = (*Hub)(nil)
