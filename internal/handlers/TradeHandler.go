package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ForexTradeBot/internal/metrics"
	"ForexTradeBot/internal/models"
	"ForexTradeBot/internal/repositories"
	"ForexTradeBot/internal/services/indicators"
	"ForexTradeBot/internal/services/strategy"
	"ForexTradeBot/internal/services/trading"
)

// RiskParams are the per-trade risk settings the caller decides on; the
// handler never reads them from ambient config.
type RiskParams struct {
	RiskPercent    float64
	StopLossPips   float64
	TakeProfitPips float64
	Deviation      int
}

// TradeHandler is the facade over evaluation and execution: it composes the
// indicator pipeline, a strategy, the risk sizer and the order executor, and
// records every decision and order through the repositories.
type TradeHandler struct {
	prices     models.PriceSource
	pipeline   *indicators.Pipeline
	sizer      *trading.RiskSizer
	executor   *trading.OrderExecutor
	signalRepo *repositories.SignalRepository
	orderRepo  *repositories.OrderRepository
	log        zerolog.Logger

	barWindow int
}

func NewTradeHandler(
	prices models.PriceSource,
	sizer *trading.RiskSizer,
	executor *trading.OrderExecutor,
	signalRepo *repositories.SignalRepository,
	orderRepo *repositories.OrderRepository,
	barWindow int,
	log zerolog.Logger,
) *TradeHandler {
	if barWindow <= 0 {
		barWindow = 100
	}
	return &TradeHandler{
		prices:     prices,
		pipeline:   indicators.NewPipeline(),
		sizer:      sizer,
		executor:   executor,
		signalRepo: signalRepo,
		orderRepo:  orderRepo,
		log:        log.With().Str("component", "trade_handler").Logger(),
		barWindow:  barWindow,
	}
}

// Evaluate runs one strategy over the symbol's recent bars and returns the
// graded decision. The decision is recorded regardless of direction.
func (h *TradeHandler) Evaluate(ctx context.Context, symbol, timeframe, strategyID string) (strategy.Decision, error) {
	strat, err := strategy.New(strategyID)
	if err != nil {
		return strategy.Decision{}, err
	}

	bars, err := h.prices.Bars(ctx, symbol, timeframe, h.barWindow)
	if err != nil {
		return strategy.Decision{}, fmt.Errorf("failed to fetch bars for %s: %w", symbol, err)
	}

	frame := h.pipeline.Compute(bars)
	frame = strat.CalculateIndicators(frame)
	decision := strat.GenerateSignal(frame)

	metrics.SignalsTotal.WithLabelValues(strategyID, string(decision.Direction)).Inc()
	h.log.Info().
		Str("symbol", symbol).
		Str("strategy", strategyID).
		Str("direction", string(decision.Direction)).
		Float64("strength", decision.Strength).
		Msg("strategy evaluated")

	if h.signalRepo != nil {
		record := &models.SignalRecord{
			Symbol:    symbol,
			TimeFrame: timeframe,
			Strategy:  strategyID,
			Direction: string(decision.Direction),
			Strength:  decision.Strength,
			Factors:   strings.Join(decision.Factors, ","),
		}
		if err := h.signalRepo.Create(record); err != nil {
			h.log.Warn().Err(err).Msg("failed to record signal")
		}
	}

	return decision, nil
}

// ExecuteDecision sizes and submits an order for a non-HOLD decision that
// clears the strategy's confidence threshold. HOLD and weak decisions are
// reported back without touching the broker.
func (h *TradeHandler) ExecuteDecision(ctx context.Context, symbol string, decision strategy.Decision, threshold float64, risk RiskParams) models.OrderOutcome {
	if decision.Direction == strategy.DirectionHold {
		return models.OrderOutcome{Message: "decision is HOLD, nothing to execute"}
	}
	if decision.Strength < threshold {
		return models.OrderOutcome{
			Message: fmt.Sprintf("strength %.0f below threshold %.0f", decision.Strength, threshold),
		}
	}

	limits, err := h.prices.SymbolLimits(ctx, symbol)
	if err != nil {
		return models.OrderOutcome{Message: fmt.Sprintf("failed to get symbol limits: %v", err)}
	}

	volume, err := h.sizer.LotSize(ctx, limits, risk.RiskPercent, risk.StopLossPips)
	if err != nil {
		return models.OrderOutcome{Message: fmt.Sprintf("position sizing failed: %v", err)}
	}

	direction := models.OrderDirectionBuy
	if decision.Direction == strategy.DirectionSell {
		direction = models.OrderDirectionSell
	}

	outcome := h.executor.Execute(ctx, trading.OrderRequest{
		Symbol:         symbol,
		Direction:      direction,
		Volume:         volume,
		StopLossPips:   risk.StopLossPips,
		TakeProfitPips: risk.TakeProfitPips,
		Deviation:      risk.Deviation,
		Tag:            "auto-trader",
	})

	if h.orderRepo != nil {
		record := &models.OrderRecord{
			Symbol:     symbol,
			Direction:  string(direction),
			Volume:     volume,
			StopLoss:   outcome.StopLoss,
			TakeProfit: outcome.TakeProfit,
			Success:    outcome.Success,
			Message:    outcome.Message,
			Ticket:     outcome.Ticket,
			Attempts:   outcome.Attempts,
		}
		if err := h.orderRepo.Create(record); err != nil {
			h.log.Warn().Err(err).Msg("failed to record order")
		}
	}

	return outcome
}

// EvaluateAndExecute is the one-call path used by the polling loop.
func (h *TradeHandler) EvaluateAndExecute(ctx context.Context, symbol, timeframe, strategyID string, risk RiskParams) (strategy.Decision, models.OrderOutcome, error) {
	decision, err := h.Evaluate(ctx, symbol, timeframe, strategyID)
	if err != nil {
		return strategy.Decision{}, models.OrderOutcome{}, err
	}

	strat, _ := strategy.New(strategyID)
	outcome := h.ExecuteDecision(ctx, symbol, decision, strat.Config().ConfidenceThreshold, risk)
	return decision, outcome, nil
}
