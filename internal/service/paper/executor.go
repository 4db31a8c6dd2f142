package paper

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"BarTrader/internal/domain/models"
	drepo "BarTrader/internal/domain/repository"
	applogger "BarTrader/pkg/logger"
)

// Executor fills every order locally. Used for keyless runs and tests.
type Executor struct {
	logger *applogger.Logger
	seq    atomic.Int64
}

func NewExecutor(logger *applogger.Logger) *Executor {
	return &Executor{logger: logger}
}

// PlaceOrder always fills at the requested quantity. The executed price is
// left zero; callers already carry the signal/trigger price.
func (e *Executor) PlaceOrder(_ context.Context, symbol string, side models.SignalAction, quantity float64) (*models.OrderResult, error) {
	id := e.seq.Add(1)
	if e.logger != nil {
		e.logger.Info("paper order filled",
			applogger.String("symbol", symbol),
			applogger.String("side", string(side)),
			applogger.Float64("quantity", quantity))
	}
	return &models.OrderResult{
		OrderID:     fmt.Sprintf("paper-%d-%d", time.Now().Unix(), id),
		Symbol:      symbol,
		Side:        side,
		ExecutedQty: quantity,
		Status:      "FILLED",
	}, nil
}

var _ drepo.OrderExecutor = (*Executor)(nil)
