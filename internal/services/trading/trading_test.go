package trading

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"ForexTradeBot/internal/logger"
	"ForexTradeBot/internal/models"
)

type fakeAccount struct {
	balance float64
	err     error
}

func (f *fakeAccount) Balance(ctx context.Context) (float64, error) {
	return f.balance, f.err
}

type fakePrices struct {
	quote      models.Quote
	quoteErr   error
	limits     models.SymbolLimits
	limitsErr  error
	quoteCalls int
}

func (f *fakePrices) Bars(ctx context.Context, symbol, timeframe string, count int) ([]models.Bar, error) {
	return nil, errors.New("not used")
}

func (f *fakePrices) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	f.quoteCalls++
	return f.quote, f.quoteErr
}

func (f *fakePrices) ListSymbols(ctx context.Context) ([]string, error) {
	return nil, errors.New("not used")
}

func (f *fakePrices) SymbolLimits(ctx context.Context, symbol string) (models.SymbolLimits, error) {
	return f.limits, f.limitsErr
}

type fakeSink struct {
	codes   []models.RetCode // consumed per submit; last repeats
	submits []models.OrderIntent
}

func (f *fakeSink) Submit(ctx context.Context, intent models.OrderIntent) (models.OrderResult, error) {
	f.submits = append(f.submits, intent)
	code := f.codes[len(f.codes)-1]
	if n := len(f.submits); n <= len(f.codes) {
		code = f.codes[n-1]
	}
	result := models.OrderResult{Code: code}
	if code == models.RetDone {
		result.Ticket = 42
	}
	return result, nil
}

func (f *fakeSink) Close(ctx context.Context, ticket int64) (models.OrderResult, error) {
	return models.OrderResult{Code: models.RetDone, Ticket: ticket}, nil
}

func (f *fakeSink) OpenPositions(ctx context.Context, symbol string) ([]models.PositionInfo, error) {
	return nil, nil
}

func forexLimits() models.SymbolLimits {
	return models.SymbolLimits{
		Symbol:     "EURUSD",
		Point:      0.0001,
		Digits:     5,
		MinVolume:  0.01,
		MaxVolume:  100,
		VolumeStep: 0.01,
		TickValue:  1,
		TickSize:   0.0001,
		Tradable:   true,
	}
}

func TestLotSizePerPipPath(t *testing.T) {
	sizer := NewRiskSizer(&fakeAccount{balance: 10000}, logger.New("disabled"))
	lot, err := sizer.LotSize(context.Background(), forexLimits(), 1.0, 50)
	if err != nil {
		t.Fatal(err)
	}
	// risk 100, 2 per pip, tick value 1 -> 2 lots
	if lot != 2 {
		t.Fatalf("lot = %v, want 2", lot)
	}
}

func TestLotSizeFallbackWithoutTickValue(t *testing.T) {
	limits := forexLimits()
	limits.TickValue = 0
	sizer := NewRiskSizer(&fakeAccount{balance: 10000}, logger.New("disabled"))
	lot, err := sizer.LotSize(context.Background(), limits, 1.0, 50)
	if err != nil {
		t.Fatal(err)
	}
	// risk 100 / (50 * 10) = 0.2
	if lot != 0.2 {
		t.Fatalf("lot = %v, want 0.2", lot)
	}
}

func TestLotSizeWithoutStopUsesCoarseFraction(t *testing.T) {
	sizer := NewRiskSizer(&fakeAccount{balance: 10000}, logger.New("disabled"))
	lot, err := sizer.LotSize(context.Background(), forexLimits(), 1.0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if lot != 0.1 {
		t.Fatalf("lot = %v, want 0.1", lot)
	}
}

func TestLotSizeClampedToBrokerBounds(t *testing.T) {
	sizer := NewRiskSizer(&fakeAccount{balance: 100}, logger.New("disabled"))

	lot, err := sizer.LotSize(context.Background(), forexLimits(), 0.01, 50)
	if err != nil {
		t.Fatal(err)
	}
	if lot != 0.01 {
		t.Fatalf("lot = %v, want clamp to min 0.01", lot)
	}

	big := NewRiskSizer(&fakeAccount{balance: 100000000}, logger.New("disabled"))
	lot, err = big.LotSize(context.Background(), forexLimits(), 10, 50)
	if err != nil {
		t.Fatal(err)
	}
	if lot != 100 {
		t.Fatalf("lot = %v, want clamp to max 100", lot)
	}
}

func TestLotSizeFailsClosed(t *testing.T) {
	sizer := NewRiskSizer(&fakeAccount{err: errors.New("broker down")}, logger.New("disabled"))
	lot, err := sizer.LotSize(context.Background(), forexLimits(), 1.0, 50)
	if err == nil {
		t.Fatal("expected error when balance is unavailable")
	}
	if lot != 0 {
		t.Fatalf("lot = %v, want 0 on error", lot)
	}

	zero := NewRiskSizer(&fakeAccount{balance: 0}, logger.New("disabled"))
	if _, err := zero.LotSize(context.Background(), forexLimits(), 1.0, 50); err == nil {
		t.Fatal("expected error on non-positive balance")
	}
}

func TestSnapToStepGrid(t *testing.T) {
	cases := []struct {
		lot, step, want float64
	}{
		{0.014, 0.01, 0.01},
		{0.015, 0.01, 0.02},
		{0.999, 0.01, 1.0},
		{1.23, 0, 1.23},
		{0.37, 0.05, 0.35},
	}
	for _, c := range cases {
		if got := snapToStep(c.lot, c.step); got != c.want {
			t.Fatalf("snapToStep(%v, %v) = %v, want %v", c.lot, c.step, got, c.want)
		}
	}
}

func TestStopLevelsNormalDistance(t *testing.T) {
	sizer := NewRiskSizer(&fakeAccount{balance: 10000}, logger.New("disabled"))
	limits := forexLimits()

	sl, tp := sizer.StopLevels(limits, 1.2000, models.OrderDirectionBuy, 50, 100)
	if !almostEqual(sl, 1.1950) {
		t.Fatalf("sl = %v, want 1.1950", sl)
	}
	if !almostEqual(tp, 1.2100) {
		t.Fatalf("tp = %v, want 1.2100", tp)
	}

	sl, tp = sizer.StopLevels(limits, 1.2000, models.OrderDirectionSell, 50, 100)
	if !almostEqual(sl, 1.2050) || !almostEqual(tp, 1.1900) {
		t.Fatalf("sell levels = %v / %v, want 1.2050 / 1.1900", sl, tp)
	}
}

func TestStopLevelsPushedOutToMinimum(t *testing.T) {
	sizer := NewRiskSizer(&fakeAccount{balance: 10000}, logger.New("disabled"))
	limits := forexLimits()

	// 5 pips is inside the 10-point default floor: pushed out to exactly
	// 10 points on both sides.
	sl, tp := sizer.StopLevels(limits, 1.2000, models.OrderDirectionBuy, 5, 5)
	if !almostEqual(sl, 1.1990) {
		t.Fatalf("sl = %v, want pushed to 1.1990", sl)
	}
	if !almostEqual(tp, 1.2010) {
		t.Fatalf("tp = %v, want pushed to 1.2010", tp)
	}

	// A broker-declared wider minimum wins over the default.
	limits.MinStopDistance = 30
	sl, _ = sizer.StopLevels(limits, 1.2000, models.OrderDirectionBuy, 5, 0)
	if !almostEqual(sl, 1.1970) {
		t.Fatalf("sl = %v, want pushed to broker minimum 1.1970", sl)
	}
}

func TestStopLevelsZeroPipsDisable(t *testing.T) {
	sizer := NewRiskSizer(&fakeAccount{balance: 10000}, logger.New("disabled"))
	sl, tp := sizer.StopLevels(forexLimits(), 1.2000, models.OrderDirectionBuy, 0, 0)
	if sl != 0 || tp != 0 {
		t.Fatalf("levels = %v / %v, want disabled", sl, tp)
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func newExecutor(prices *fakePrices, sink *fakeSink, retries int) *OrderExecutor {
	sizer := NewRiskSizer(&fakeAccount{balance: 10000}, logger.New("disabled"))
	return NewOrderExecutor(prices, sink, sizer, retries, time.Millisecond, 50, logger.New("disabled"))
}

func buyRequest() OrderRequest {
	return OrderRequest{
		Symbol:         "EURUSD",
		Direction:      models.OrderDirectionBuy,
		Volume:         0.1,
		StopLossPips:   50,
		TakeProfitPips: 100,
		Deviation:      20,
	}
}

func TestExecutorSuccessCarriesLevels(t *testing.T) {
	prices := &fakePrices{
		quote:  models.Quote{Bid: 1.1999, Ask: 1.2001},
		limits: forexLimits(),
	}
	sink := &fakeSink{codes: []models.RetCode{models.RetDone}}

	outcome := newExecutor(prices, sink, 3).Execute(context.Background(), buyRequest())
	if !outcome.Success {
		t.Fatalf("expected success, got %q", outcome.Message)
	}
	if outcome.Ticket != 42 {
		t.Fatalf("ticket = %d, want 42", outcome.Ticket)
	}
	if len(sink.submits) != 1 {
		t.Fatalf("submits = %d, want 1", len(sink.submits))
	}

	intent := sink.submits[0]
	if intent.Price != 1.2001 {
		t.Fatalf("buy price = %v, want ask", intent.Price)
	}
	if !almostEqual(intent.StopLoss, 1.1951) || !almostEqual(intent.TakeProfit, 1.2101) {
		t.Fatalf("levels = %v / %v, want 1.1951 / 1.2101", intent.StopLoss, intent.TakeProfit)
	}
	if !almostEqual(outcome.StopLoss, intent.StopLoss) || !almostEqual(outcome.TakeProfit, intent.TakeProfit) {
		t.Fatalf("outcome levels = %v / %v, want the submitted levels", outcome.StopLoss, outcome.TakeProfit)
	}
	if outcome.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", outcome.Attempts)
	}
}

func TestExecutorRetriesTransientFailures(t *testing.T) {
	prices := &fakePrices{
		quote:  models.Quote{Bid: 1.1999, Ask: 1.2001},
		limits: forexLimits(),
	}
	sink := &fakeSink{codes: []models.RetCode{models.RetRequote, models.RetRequote, models.RetDone}}

	outcome := newExecutor(prices, sink, 3).Execute(context.Background(), buyRequest())
	if !outcome.Success {
		t.Fatalf("expected success after retries, got %q", outcome.Message)
	}
	if len(sink.submits) != 3 {
		t.Fatalf("submits = %d, want 3", len(sink.submits))
	}
	// Each attempt re-prepares from a fresh quote.
	if prices.quoteCalls != 3 {
		t.Fatalf("quote calls = %d, want one per attempt", prices.quoteCalls)
	}
}

func TestExecutorExhaustsRetryBudget(t *testing.T) {
	prices := &fakePrices{
		quote:  models.Quote{Bid: 1.1999, Ask: 1.2001},
		limits: forexLimits(),
	}
	sink := &fakeSink{codes: []models.RetCode{models.RetRequote}}

	outcome := newExecutor(prices, sink, 3).Execute(context.Background(), buyRequest())
	if outcome.Success {
		t.Fatal("expected failure after exhausting retries")
	}
	if len(sink.submits) != 3 {
		t.Fatalf("submits = %d, want exactly 3", len(sink.submits))
	}
	if !strings.Contains(outcome.Message, "all 3 attempts failed") {
		t.Fatalf("message = %q, want exhaustion report", outcome.Message)
	}
}

func TestExecutorTerminalRejectionStopsEarly(t *testing.T) {
	prices := &fakePrices{
		quote:  models.Quote{Bid: 1.1999, Ask: 1.2001},
		limits: forexLimits(),
	}
	sink := &fakeSink{codes: []models.RetCode{models.RetNoMoney}}

	outcome := newExecutor(prices, sink, 3).Execute(context.Background(), buyRequest())
	if outcome.Success {
		t.Fatal("expected failure")
	}
	if len(sink.submits) != 1 {
		t.Fatalf("submits = %d, terminal rejection must not retry", len(sink.submits))
	}
	if !strings.Contains(outcome.Message, "insufficient funds") {
		t.Fatalf("message = %q, want retcode description", outcome.Message)
	}
}

func TestExecutorRejectsWideSpread(t *testing.T) {
	prices := &fakePrices{
		// 100 points of spread against a 50-point ceiling.
		quote:  models.Quote{Bid: 1.2000, Ask: 1.2100},
		limits: forexLimits(),
	}
	sink := &fakeSink{codes: []models.RetCode{models.RetDone}}

	outcome := newExecutor(prices, sink, 3).Execute(context.Background(), buyRequest())
	if outcome.Success {
		t.Fatal("expected failure on wide spread")
	}
	if len(sink.submits) != 0 {
		t.Fatalf("submits = %d, validation failure must not reach the broker", len(sink.submits))
	}
}

func TestExecutorRefusesUntradableSymbol(t *testing.T) {
	limits := forexLimits()
	limits.Tradable = false
	prices := &fakePrices{
		quote:  models.Quote{Bid: 1.1999, Ask: 1.2001},
		limits: limits,
	}
	sink := &fakeSink{codes: []models.RetCode{models.RetDone}}

	outcome := newExecutor(prices, sink, 3).Execute(context.Background(), buyRequest())
	if outcome.Success || len(sink.submits) != 0 {
		t.Fatal("untradable symbol must fail without submission")
	}
	if !strings.Contains(outcome.Message, "restricted") {
		t.Fatalf("message = %q, want restriction reason", outcome.Message)
	}
}

func TestRetCodeClassification(t *testing.T) {
	retryable := []models.RetCode{
		models.RetTimeout, models.RetRequote, models.RetPriceChanged,
		models.RetPriceOff, models.RetTooManyRequests, models.RetConnection,
	}
	for _, code := range retryable {
		if !code.Retryable() {
			t.Fatalf("%s should be retryable", code)
		}
	}
	terminal := []models.RetCode{
		models.RetNoMoney, models.RetTradeDisabled, models.RetInvalidVolume,
		models.RetInvalidStops, models.RetMarketClosed, models.RetRejected,
	}
	for _, code := range terminal {
		if code.Retryable() {
			t.Fatalf("%s should be terminal", code)
		}
	}
}
