package trading

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"ForexTradeBot/internal/metrics"
	"ForexTradeBot/internal/models"
)

// OrderRequest is what callers ask for: a direction plus pip offsets. The
// executor resolves it into absolute prices immediately before each attempt.
type OrderRequest struct {
	Symbol         string
	Direction      models.OrderDirection
	Volume         float64
	StopLossPips   float64
	TakeProfitPips float64
	Deviation      int
	Tag            string
}

// OrderExecutor runs a request through prepare, validate and submit, with
// bounded retries. Prices and stop levels are re-derived from a fresh quote
// on every attempt, so a requote never resubmits stale levels.
type OrderExecutor struct {
	prices models.PriceSource
	orders models.OrderSink
	sizer  *RiskSizer
	log    zerolog.Logger

	maxRetries    int
	retryDelay    time.Duration
	spreadCeiling float64 // points
}

func NewOrderExecutor(prices models.PriceSource, orders models.OrderSink, sizer *RiskSizer,
	maxRetries int, retryDelay time.Duration, spreadCeiling float64, log zerolog.Logger) *OrderExecutor {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &OrderExecutor{
		prices:        prices,
		orders:        orders,
		sizer:         sizer,
		log:           log.With().Str("component", "order_executor").Logger(),
		maxRetries:    maxRetries,
		retryDelay:    retryDelay,
		spreadCeiling: spreadCeiling,
	}
}

// Execute attempts the request up to the configured retry budget. Terminal
// broker rejections stop the chain immediately; transient ones are retried
// after the configured delay.
func (e *OrderExecutor) Execute(ctx context.Context, req OrderRequest) models.OrderOutcome {
	var lastMsg string
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		metrics.OrderAttempts.WithLabelValues(req.Symbol).Inc()

		outcome, terminal := e.attempt(ctx, req, attempt)
		outcome.Attempts = attempt
		if outcome.Success {
			metrics.OrderOutcomes.WithLabelValues(req.Symbol, "success").Inc()
			return outcome
		}
		lastMsg = outcome.Message
		e.log.Warn().
			Str("symbol", req.Symbol).
			Int("attempt", attempt).
			Str("reason", lastMsg).
			Msg("order attempt failed")

		if terminal {
			metrics.OrderOutcomes.WithLabelValues(req.Symbol, "rejected").Inc()
			return outcome
		}
		if attempt < e.maxRetries {
			select {
			case <-ctx.Done():
				metrics.OrderOutcomes.WithLabelValues(req.Symbol, "canceled").Inc()
				return models.OrderOutcome{Message: ctx.Err().Error(), Attempts: attempt}
			case <-time.After(e.retryDelay):
			}
		}
	}
	metrics.OrderOutcomes.WithLabelValues(req.Symbol, "exhausted").Inc()
	return models.OrderOutcome{
		Message:  fmt.Sprintf("all %d attempts failed, last error: %s", e.maxRetries, lastMsg),
		Attempts: e.maxRetries,
	}
}

// attempt runs one prepare/validate/submit pass. The terminal flag reports
// whether retrying could help.
func (e *OrderExecutor) attempt(ctx context.Context, req OrderRequest, attempt int) (models.OrderOutcome, bool) {
	limits, err := e.prices.SymbolLimits(ctx, req.Symbol)
	if err != nil {
		return models.OrderOutcome{Message: fmt.Sprintf("failed to get symbol limits: %v", err)}, false
	}
	if !limits.Tradable {
		return models.OrderOutcome{Message: fmt.Sprintf("trading restricted for %s", req.Symbol)}, true
	}

	quote, err := e.prices.Quote(ctx, req.Symbol)
	if err != nil {
		return models.OrderOutcome{Message: fmt.Sprintf("failed to get quote for %s: %v", req.Symbol, err)}, false
	}

	if limits.Point > 0 {
		spreadPoints := (quote.Ask - quote.Bid) / limits.Point
		if spreadPoints > e.spreadCeiling {
			return models.OrderOutcome{
				Message: fmt.Sprintf("spread %.1f points exceeds ceiling %.1f", spreadPoints, e.spreadCeiling),
			}, false
		}
	}

	price := quote.Ask
	if req.Direction == models.OrderDirectionSell {
		price = quote.Bid
	}

	stopLoss, takeProfit := e.sizer.StopLevels(limits, price, req.Direction, req.StopLossPips, req.TakeProfitPips)
	if stopLoss > 0 && math.Abs(stopLoss-price) < limits.Point {
		return models.OrderOutcome{Message: "stop loss too close to entry price"}, false
	}
	if takeProfit > 0 && math.Abs(takeProfit-price) < limits.Point {
		return models.OrderOutcome{Message: "take profit too close to entry price"}, false
	}

	intent := models.OrderIntent{
		Symbol:     req.Symbol,
		Direction:  req.Direction,
		Volume:     req.Volume,
		Price:      price,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Deviation:  req.Deviation,
		Tag:        req.Tag,
	}

	result, err := e.orders.Submit(ctx, intent)
	if err != nil {
		return models.OrderOutcome{Message: fmt.Sprintf("submission failed: %v", err)}, false
	}
	if result.Code != models.RetDone {
		return models.OrderOutcome{
			Message: fmt.Sprintf("order rejected: %s", result.Code),
		}, !result.Code.Retryable()
	}

	e.log.Info().
		Str("symbol", req.Symbol).
		Str("direction", string(req.Direction)).
		Float64("volume", req.Volume).
		Float64("price", price).
		Float64("stop_loss", stopLoss).
		Float64("take_profit", takeProfit).
		Int("attempt", attempt).
		Int64("ticket", result.Ticket).
		Msg("order filled")

	return models.OrderOutcome{
		Success:    true,
		Message:    fmt.Sprintf("%s %.2f %s at %.5f", req.Direction, req.Volume, req.Symbol, price),
		Ticket:     result.Ticket,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
	}, true
}

// ClosePosition closes an open ticket at market with the same retry budget
// as Execute.
func (e *OrderExecutor) ClosePosition(ctx context.Context, ticket int64) models.OrderOutcome {
	var lastMsg string
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		result, err := e.orders.Close(ctx, ticket)
		if err == nil && result.Code == models.RetDone {
			e.log.Info().Int64("ticket", ticket).Msg("position closed")
			return models.OrderOutcome{Success: true, Message: "position closed", Ticket: ticket}
		}
		if err != nil {
			lastMsg = err.Error()
		} else {
			lastMsg = result.Code.String()
			if !result.Code.Retryable() {
				return models.OrderOutcome{Message: fmt.Sprintf("close rejected: %s", lastMsg), Ticket: ticket}
			}
		}
		if attempt < e.maxRetries {
			select {
			case <-ctx.Done():
				return models.OrderOutcome{Message: ctx.Err().Error(), Ticket: ticket}
			case <-time.After(e.retryDelay):
			}
		}
	}
	return models.OrderOutcome{
		Message: fmt.Sprintf("all %d close attempts failed, last error: %s", e.maxRetries, lastMsg),
		Ticket:  ticket,
	}
}
