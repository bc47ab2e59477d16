package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ForexTradeBot/internal/logger"
	"ForexTradeBot/internal/models"
	"ForexTradeBot/internal/services/strategy"
	"ForexTradeBot/internal/services/trading"
)

type fakeBroker struct {
	bars    []models.Bar
	barsErr error
	limits  models.SymbolLimits
	quote   models.Quote
	balance float64
	submits int
}

func (f *fakeBroker) Bars(ctx context.Context, symbol, timeframe string, count int) ([]models.Bar, error) {
	return f.bars, f.barsErr
}

func (f *fakeBroker) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	return f.quote, nil
}

func (f *fakeBroker) ListSymbols(ctx context.Context) ([]string, error) {
	return []string{"EURUSD"}, nil
}

func (f *fakeBroker) SymbolLimits(ctx context.Context, symbol string) (models.SymbolLimits, error) {
	return f.limits, nil
}

func (f *fakeBroker) Submit(ctx context.Context, intent models.OrderIntent) (models.OrderResult, error) {
	f.submits++
	return models.OrderResult{Code: models.RetDone, Ticket: 7}, nil
}

func (f *fakeBroker) Close(ctx context.Context, ticket int64) (models.OrderResult, error) {
	return models.OrderResult{Code: models.RetDone, Ticket: ticket}, nil
}

func (f *fakeBroker) OpenPositions(ctx context.Context, symbol string) ([]models.PositionInfo, error) {
	return nil, nil
}

func (f *fakeBroker) Balance(ctx context.Context) (float64, error) {
	return f.balance, nil
}

func newFakeBroker(barCount int) *fakeBroker {
	bars := make([]models.Bar, barCount)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		close := 1.0 + 0.001*float64(i%10)
		bars[i] = models.Bar{
			Time:       base.Add(time.Duration(i) * time.Hour),
			Open:       close,
			High:       close + 0.001,
			Low:        close - 0.001,
			Close:      close,
			TickVolume: 100,
		}
	}
	return &fakeBroker{
		bars: bars,
		limits: models.SymbolLimits{
			Symbol:     "EURUSD",
			Point:      0.0001,
			Digits:     5,
			MinVolume:  0.01,
			MaxVolume:  100,
			VolumeStep: 0.01,
			TickValue:  1,
			TickSize:   0.0001,
			Tradable:   true,
		},
		quote:   models.Quote{Bid: 1.1999, Ask: 1.2001},
		balance: 10000,
	}
}

func newTestHandler(broker *fakeBroker) *TradeHandler {
	log := logger.New("disabled")
	sizer := trading.NewRiskSizer(broker, log)
	executor := trading.NewOrderExecutor(broker, broker, sizer, 3, time.Millisecond, 50, log)
	return NewTradeHandler(broker, sizer, executor, nil, nil, 100, log)
}

func TestEvaluateUnknownStrategy(t *testing.T) {
	h := newTestHandler(newFakeBroker(60))
	if _, err := h.Evaluate(context.Background(), "EURUSD", models.TimeFrameH1, "nope"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestEvaluateShortHistoryHolds(t *testing.T) {
	h := newTestHandler(newFakeBroker(10))
	decision, err := h.Evaluate(context.Background(), "EURUSD", models.TimeFrameH1, "simple_ma")
	if err != nil {
		t.Fatal(err)
	}
	if decision.Direction != strategy.DirectionHold {
		t.Fatalf("direction = %s, want HOLD on 10 bars", decision.Direction)
	}
}

func TestEvaluatePropagatesFetchError(t *testing.T) {
	broker := newFakeBroker(60)
	broker.barsErr = errors.New("connection reset")
	h := newTestHandler(broker)
	if _, err := h.Evaluate(context.Background(), "EURUSD", models.TimeFrameH1, "simple_ma"); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}

func TestExecuteDecisionSkipsHold(t *testing.T) {
	broker := newFakeBroker(60)
	h := newTestHandler(broker)

	outcome := h.ExecuteDecision(context.Background(), "EURUSD",
		strategy.Decision{Direction: strategy.DirectionHold}, 65, RiskParams{})
	if outcome.Success {
		t.Fatal("HOLD must not execute")
	}
	if broker.submits != 0 {
		t.Fatalf("submits = %d, want 0", broker.submits)
	}
}

func TestExecuteDecisionSkipsWeakSignal(t *testing.T) {
	broker := newFakeBroker(60)
	h := newTestHandler(broker)

	outcome := h.ExecuteDecision(context.Background(), "EURUSD",
		strategy.Decision{Direction: strategy.DirectionBuy, Strength: 50}, 65, RiskParams{RiskPercent: 1})
	if outcome.Success || broker.submits != 0 {
		t.Fatal("sub-threshold decision must not reach the broker")
	}
	if !strings.Contains(outcome.Message, "below threshold") {
		t.Fatalf("message = %q, want threshold explanation", outcome.Message)
	}
}

func TestExecuteDecisionSubmitsStrongSignal(t *testing.T) {
	broker := newFakeBroker(60)
	h := newTestHandler(broker)

	outcome := h.ExecuteDecision(context.Background(), "EURUSD",
		strategy.Decision{Direction: strategy.DirectionBuy, Strength: 80}, 65,
		RiskParams{RiskPercent: 1, StopLossPips: 50, TakeProfitPips: 100, Deviation: 20})
	if !outcome.Success {
		t.Fatalf("expected execution, got %q", outcome.Message)
	}
	if broker.submits != 1 {
		t.Fatalf("submits = %d, want 1", broker.submits)
	}
	if outcome.Ticket != 7 {
		t.Fatalf("ticket = %d, want broker ticket", outcome.Ticket)
	}
}
