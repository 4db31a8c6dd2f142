package api

import (
	"encoding/json"
	"net/http"
	"time"

	models "BarTrader/internal/domain/models"
	domrepo "BarTrader/internal/domain/repository"
	icache "BarTrader/internal/service/cache"
	"BarTrader/internal/service/ratelimit"
	"BarTrader/internal/usecase"
	pkgcache "BarTrader/pkg/cache"
	xhttp "BarTrader/pkg/http"
	applogger "BarTrader/pkg/logger"

	"github.com/labstack/echo/v4"
)

// TradingHandler exposes the trading state over Echo-based HTTP handlers.
type TradingHandler struct {
	logger     *applogger.Logger
	ticks      domrepo.TickStore
	candles    domrepo.CandleStore
	positions  domrepo.PositionStore
	strategies *usecase.StrategyManager
	orch       *usecase.Orchestrator
	connected  func() bool
	cache      icache.BytesCache
	rl         *ratelimit.Limiter
	startedAt  time.Time
}

func NewTradingHandler(
	logger *applogger.Logger,
	ticks domrepo.TickStore,
	candles domrepo.CandleStore,
	positions domrepo.PositionStore,
	strategies *usecase.StrategyManager,
	orch *usecase.Orchestrator,
) *TradingHandler {
	return &TradingHandler{
		logger:     logger,
		ticks:      ticks,
		candles:    candles,
		positions:  positions,
		strategies: strategies,
		orch:       orch,
		rl:         ratelimit.New(),
		startedAt:  time.Now(),
	}
}

// SetCache injects a response cache for the read-heavy endpoints.
func (h *TradingHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetConnectedProbe injects the stream connectivity probe used by /status.
func (h *TradingHandler) SetConnectedProbe(fn func() bool) { h.connected = fn }

func (h *TradingHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/status", h.Status)
	g.GET("/ticks", h.Ticks)
	g.GET("/candles/:symbol", h.Candles)
	g.GET("/positions", h.Positions)
	g.GET("/trades", h.Trades)
	g.GET("/signals", h.Signals)
	g.GET("/symbols", h.Symbols)
	g.POST("/symbols", h.AddSymbol)
	g.DELETE("/symbols/:symbol", h.RemoveSymbol)
}

func (h *TradingHandler) Status(c echo.Context) error {
	connected := false
	if h.connected != nil {
		connected = h.connected()
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":           "running",
		"uptime_seconds":   int(time.Since(h.startedAt).Seconds()),
		"stream_connected": connected,
		"symbols":          h.orch.ActiveSymbols(),
		"open_positions":   len(h.positions.ActivePositions("")),
	})
}

func (h *TradingHandler) Ticks(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.ticks.All())
}

func (h *TradingHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":candles", 10, 5) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	cacheKey := pkgcache.GenerateKeyWithParams("candles", req.Symbol, req.Limit)
	if b, ok := h.cached(cacheKey); ok {
		return xhttp.SuccessResponse(c, json.RawMessage(b))
	}

	var current *models.Candle
	if wc, ok := h.orch.Aggregator().CurrentCandle(req.Symbol); ok {
		current = wc
	}
	res := map[string]interface{}{
		"symbol":  req.Symbol,
		"candles": h.candles.Candles(req.Symbol, req.Limit),
		"current": current,
	}
	h.store(cacheKey, res, 5*time.Second)
	return xhttp.SuccessResponse(c, res)
}

func (h *TradingHandler) Positions(c echo.Context) error {
	req := &models.PositionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.positions.ActivePositions(req.Variant))
}

func (h *TradingHandler) Trades(c echo.Context) error {
	req := &models.TradesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.positions.TradeLog(req.Limit))
}

func (h *TradingHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":signals", 10, 5) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	cacheKey := pkgcache.GenerateKeyWithParams("signals", req.Variant, req.Limit)
	if b, ok := h.cached(cacheKey); ok {
		return xhttp.SuccessResponse(c, json.RawMessage(b))
	}

	res := h.strategies.RecentSignals(req.Variant, req.Limit)
	h.store(cacheKey, res, 5*time.Second)
	return xhttp.SuccessResponse(c, res)
}

func (h *TradingHandler) Symbols(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.orch.ActiveSymbols())
}

func (h *TradingHandler) AddSymbol(c echo.Context) error {
	req := &models.AddSymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.orch.AddSymbol(req.Symbol) {
		return xhttp.BadRequestResponse(c, "symbol already active")
	}
	if h.logger != nil {
		h.logger.Info("symbol added", applogger.String("symbol", req.Symbol))
	}
	return xhttp.CreatedResponse(c, h.orch.ActiveSymbols())
}

func (h *TradingHandler) RemoveSymbol(c echo.Context) error {
	symbol := c.Param("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, "symbol required")
	}
	if !h.orch.RemoveSymbol(symbol) {
		return xhttp.NotFoundResponse(c, "symbol not active")
	}
	if h.logger != nil {
		h.logger.Info("symbol removed", applogger.String("symbol", symbol))
	}
	return xhttp.SuccessResponse(c, h.orch.ActiveSymbols())
}

func (h *TradingHandler) cached(key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("cache get error", applogger.Error(err))
		}
		return nil, false
	}
	return b, ok
}

func (h *TradingHandler) store(key string, v interface{}, ttl time.Duration) {
	if h.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := h.cache.SetBytes(key, b, ttl); err != nil && h.logger != nil {
		h.logger.Warn("cache set error", applogger.Error(err))
	}
}
