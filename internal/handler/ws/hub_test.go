package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"BarTrader/internal/domain/models"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	h := NewHub(nil)
	e := echo.New()
	h.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	t.Cleanup(h.Close)
	return h, srv
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/candles"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastsCandle(t *testing.T) {
	h, srv := startHub(t)
	conn := dialHub(t, srv)
	waitClients(t, h, 1)

	h.OnCandleFinalized(context.Background(), &models.Candle{Symbol: "btcusdt", Close: 100})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string         `json:"type"`
		Data *models.Candle `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "candle_update" || msg.Data == nil || msg.Data.Symbol != "btcusdt" {
		t.Fatalf("unexpected frame %+v", msg)
	}
}

func TestHubConcurrentBroadcastsAreSerialized(t *testing.T) {
	h, srv := startHub(t)
	conn := dialHub(t, srv)
	waitClients(t, h, 1)

	// Finalize callbacks for different symbols can run concurrently; every
	// frame must still arrive intact on the shared connection.
	const broadcasts = 32
	var wg sync.WaitGroup
	for i := 0; i < broadcasts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnCandleFinalized(context.Background(), &models.Candle{Symbol: "btcusdt", Close: 100})
		}()
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for i := 0; i < broadcasts; i++ {
		var msg struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if msg.Type != "candle_update" {
			t.Fatalf("frame %d corrupted: %+v", i, msg)
		}
	}
	wg.Wait()

	if h.ClientCount() != 1 {
		t.Fatalf("client dropped during concurrent broadcast")
	}
}

func TestHubDropsDisconnectedClient(t *testing.T) {
	h, srv := startHub(t)
	conn := dialHub(t, srv)
	waitClients(t, h, 1)

	_ = conn.Close()
	waitClients(t, h, 0)

	// Broadcasting with no clients is a no-op.
	h.OnCandleFinalized(context.Background(), &models.Candle{Symbol: "btcusdt", Close: 100})
}
