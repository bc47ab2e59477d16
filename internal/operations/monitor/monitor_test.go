package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"ForexTradeBot/internal/logger"
	"ForexTradeBot/internal/models"
)

// fakePrices serves quotes and bars only for the symbols it knows; anything
// else errors, like a broker that does not list the name.
type fakePrices struct {
	known     map[string]float64 // broker symbol -> last close
	lastClose float64
	prevClose float64
}

func newFakePrices(known ...string) *fakePrices {
	f := &fakePrices{known: make(map[string]float64), lastClose: 1.005, prevClose: 1.0}
	for _, s := range known {
		f.known[s] = 1.0
	}
	return f
}

func (f *fakePrices) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	if _, ok := f.known[symbol]; !ok {
		return models.Quote{}, fmt.Errorf("unknown symbol %s", symbol)
	}
	return models.Quote{Bid: f.lastClose - 0.0001, Ask: f.lastClose + 0.0001, Time: time.Now()}, nil
}

func (f *fakePrices) Bars(ctx context.Context, symbol, timeframe string, count int) ([]models.Bar, error) {
	if _, ok := f.known[symbol]; !ok {
		return nil, errors.New("unknown symbol")
	}
	bars := make([]models.Bar, count)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		close := f.prevClose
		if i == count-1 {
			close = f.lastClose
		}
		bars[i] = models.Bar{
			Time:       base.Add(time.Duration(i) * time.Minute),
			Open:       close,
			High:       close + 0.001,
			Low:        close - 0.001,
			Close:      close,
			TickVolume: 100,
		}
	}
	return bars, nil
}

func (f *fakePrices) ListSymbols(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(f.known))
	for s := range f.known {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakePrices) SymbolLimits(ctx context.Context, symbol string) (models.SymbolLimits, error) {
	return models.SymbolLimits{Symbol: symbol}, nil
}

func newTestMonitor(prices models.PriceSource) *RealTimeMonitor {
	return NewRealTimeMonitor(prices, time.Second, 30, logger.New("disabled"))
}

func TestSuffixResolution(t *testing.T) {
	prices := newFakePrices("EURUSDm")
	m := newTestMonitor(prices)

	broker, err := m.brokerSymbol(context.Background(), "EURUSD")
	if err != nil {
		t.Fatal(err)
	}
	if broker != "EURUSDm" {
		t.Fatalf("resolved to %q, want EURUSDm", broker)
	}
}

func TestSubstringResolutionFallback(t *testing.T) {
	prices := newFakePrices("FX_EURUSD_SPOT")
	m := newTestMonitor(prices)

	broker, err := m.brokerSymbol(context.Background(), "eurusd")
	if err != nil {
		t.Fatal(err)
	}
	if broker != "FX_EURUSD_SPOT" {
		t.Fatalf("resolved to %q, want the listed name", broker)
	}
}

func TestResolutionFailsForUnknownSymbol(t *testing.T) {
	m := newTestMonitor(newFakePrices("GBPUSD"))
	if _, err := m.brokerSymbol(context.Background(), "XAUUSD"); err == nil {
		t.Fatal("expected resolution failure")
	}
}

func TestTickSkipsFailingSymbolKeepsOthers(t *testing.T) {
	prices := newFakePrices("EURUSD", "GBPUSD", "USDJPY", "AUDUSD")
	m := newTestMonitor(prices)
	m.AddSymbol("EURUSD")
	m.AddSymbol("GBPUSD")
	m.AddSymbol("USDJPY")
	m.AddSymbol("AUDUSD")
	m.AddSymbol("BROKEN")

	m.tick(context.Background())

	state := m.State()
	if state == nil {
		t.Fatal("expected a published state")
	}
	if len(state.Symbols) != 4 {
		t.Fatalf("snapshots = %d, want 4 surviving symbols", len(state.Symbols))
	}
	if _, ok := state.Symbols["BROKEN"]; ok {
		t.Fatal("failing symbol must be skipped, not reported")
	}
}

func TestTickComputesChangeAndSentiment(t *testing.T) {
	prices := newFakePrices("EURUSD")
	m := newTestMonitor(prices)
	m.AddSymbol("EURUSD")

	m.tick(context.Background())

	state := m.State()
	snap, ok := state.Symbols["EURUSD"]
	if !ok {
		t.Fatal("missing snapshot")
	}
	// last 1.005 vs prev 1.0 -> +0.5%
	if snap.Change < 0.49 || snap.Change > 0.51 {
		t.Fatalf("change = %v, want about 0.5", snap.Change)
	}
	if state.Sentiment != "BULLISH" {
		t.Fatalf("sentiment = %s, want BULLISH above +0.1%% average", state.Sentiment)
	}
}

func TestSidewaysSentimentOnFlatMarket(t *testing.T) {
	prices := newFakePrices("EURUSD")
	prices.lastClose = 1.0
	prices.prevClose = 1.0
	m := newTestMonitor(prices)
	m.AddSymbol("EURUSD")

	m.tick(context.Background())

	if got := m.State().Sentiment; got != "SIDEWAYS" {
		t.Fatalf("sentiment = %s, want SIDEWAYS", got)
	}
}

func TestSubscriberPanicDoesNotStopOthers(t *testing.T) {
	prices := newFakePrices("EURUSD")
	m := newTestMonitor(prices)
	m.AddSymbol("EURUSD")

	m.Subscribe(func(MarketState) { panic("boom") })
	received := false
	m.Subscribe(func(MarketState) { received = true })

	m.tick(context.Background())

	if !received {
		t.Fatal("second subscriber must still be notified")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	prices := newFakePrices("EURUSD")
	m := newTestMonitor(prices)
	m.AddSymbol("EURUSD")

	calls := 0
	id := m.Subscribe(func(MarketState) { calls++ })
	m.tick(context.Background())
	m.Unsubscribe(id)
	m.tick(context.Background())

	if calls != 1 {
		t.Fatalf("calls = %d, want exactly 1 after unsubscribe", calls)
	}
}

func TestSummaryRanksTopMovers(t *testing.T) {
	m := newTestMonitor(newFakePrices())

	symbols := map[string]SymbolSnapshot{}
	changes := []float64{0.05, -0.9, 0.3, 0.25, -0.15, 0.6, -0.4}
	for i, c := range changes {
		name := fmt.Sprintf("SYM%d", i)
		symbols[name] = SymbolSnapshot{Symbol: name, Change: c}
	}
	m.mu.Lock()
	m.lastState = &MarketState{Time: time.Now(), Sentiment: "SIDEWAYS", Symbols: symbols}
	m.mu.Unlock()

	summary := m.Summary()
	if summary == nil {
		t.Fatal("expected a summary")
	}
	if len(summary.TopMovers) != 5 {
		t.Fatalf("top movers = %d, want 5", len(summary.TopMovers))
	}
	if summary.TopMovers[0].Change != -0.9 {
		t.Fatalf("top mover change = %v, want the largest absolute move", summary.TopMovers[0].Change)
	}
	// Above +0.2: 0.3, 0.25, 0.6. Below -0.2: -0.9, -0.4.
	if summary.BullishCount != 3 || summary.BearishCount != 2 {
		t.Fatalf("counts = %d/%d, want 3 bullish, 2 bearish", summary.BullishCount, summary.BearishCount)
	}
}

func TestSummaryNilBeforeFirstTick(t *testing.T) {
	m := newTestMonitor(newFakePrices())
	if m.Summary() != nil || m.State() != nil {
		t.Fatal("no state should exist before the first tick")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	prices := newFakePrices("EURUSD")
	m := NewRealTimeMonitor(prices, 10*time.Millisecond, 30, logger.New("disabled"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Start(ctx, []string{"EURUSD"}); err != nil {
		t.Fatal(err)
	}
	// Starting twice is a no-op.
	if err := m.Start(ctx, nil); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for m.State() == nil {
		select {
		case <-deadline:
			t.Fatal("no tick completed before deadline")
		case <-time.After(5 * time.Millisecond):
		}
	}

	m.Stop()
	m.Stop() // idempotent
}

func TestStartRequiresSymbols(t *testing.T) {
	m := newTestMonitor(newFakePrices())
	err := m.Start(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "no symbols") {
		t.Fatalf("err = %v, want symbol requirement", err)
	}
}
