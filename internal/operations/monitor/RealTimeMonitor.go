package monitor

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ForexTradeBot/internal/metrics"
	"ForexTradeBot/internal/models"
	"ForexTradeBot/internal/services/indicators"
)

// Broker suffixes probed when resolving a base symbol name, in order of
// preference. The empty suffix matches brokers that use plain names.
var symbolSuffixes = []string{"", "rfd", "m", "f", "q", "a", "b", "c", "d", "e"}

// SymbolSnapshot is one symbol's state at a monitor tick.
type SymbolSnapshot struct {
	Symbol       string
	BrokerSymbol string
	Bid          float64
	Ask          float64
	Spread       float64
	Change       float64 // percent vs the previous bar close
	RSI          float64
	SMA20        float64
	ATR          float64
	VolumeRatio  float64
	Time         time.Time
}

// MarketState is the aggregate view published after every tick.
type MarketState struct {
	Time          time.Time
	Sentiment     string // BULLISH, BEARISH or SIDEWAYS
	AverageChange float64
	Symbols       map[string]SymbolSnapshot
}

// MarketSummary condenses the latest state for display.
type MarketSummary struct {
	Time          time.Time
	Sentiment     string
	AverageChange float64
	TopMovers     []SymbolSnapshot
	BullishCount  int
	BearishCount  int
}

// Subscriber receives each published state. Callbacks run synchronously on
// the monitor goroutine; a panic in one subscriber never reaches another.
type Subscriber func(MarketState)

// RealTimeMonitor polls quotes and recent bars for a set of symbols on a
// fixed interval and fans the aggregated state out to subscribers. One
// failing symbol skips that symbol, never the tick.
type RealTimeMonitor struct {
	prices   models.PriceSource
	pipeline *indicators.Pipeline
	log      zerolog.Logger
	interval time.Duration
	window   int

	mu          sync.Mutex
	running     bool
	symbols     []string
	resolved    map[string]string
	subscribers map[int]Subscriber
	nextSubID   int
	lastState   *MarketState
	stop        chan struct{}
	done        chan struct{}
}

func NewRealTimeMonitor(prices models.PriceSource, interval time.Duration, barWindow int, log zerolog.Logger) *RealTimeMonitor {
	if barWindow <= 0 {
		barWindow = 50
	}
	return &RealTimeMonitor{
		prices:      prices,
		pipeline:    indicators.NewPipeline(),
		log:         log.With().Str("component", "monitor").Logger(),
		interval:    interval,
		window:      barWindow,
		resolved:    make(map[string]string),
		subscribers: make(map[int]Subscriber),
	}
}

// Start launches the polling goroutine. Starting a running monitor is a
// no-op.
func (m *RealTimeMonitor) Start(ctx context.Context, symbols []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}
	if len(symbols) == 0 && len(m.symbols) == 0 {
		return fmt.Errorf("no symbols to monitor")
	}
	for _, s := range symbols {
		m.addSymbolLocked(s)
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})

	go m.run(ctx, m.stop, m.done)
	m.log.Info().Strs("symbols", m.symbols).Dur("interval", m.interval).Msg("monitor started")
	return nil
}

// Stop signals the goroutine and waits for it to exit, bounded by twice the
// poll interval.
func (m *RealTimeMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	done := m.done
	m.mu.Unlock()

	select {
	case <-done:
	case <-time.After(2 * m.interval):
		m.log.Warn().Msg("monitor goroutine did not stop in time")
	}
	m.log.Info().Msg("monitor stopped")
}

// AddSymbol registers another base symbol; it is picked up on the next tick.
func (m *RealTimeMonitor) AddSymbol(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addSymbolLocked(symbol)
}

func (m *RealTimeMonitor) addSymbolLocked(symbol string) {
	for _, s := range m.symbols {
		if s == symbol {
			return
		}
	}
	m.symbols = append(m.symbols, symbol)
}

// Subscribe registers a callback and returns an id for Unsubscribe.
func (m *RealTimeMonitor) Subscribe(fn Subscriber) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	return id
}

func (m *RealTimeMonitor) Unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, id)
}

// State returns the most recent published state, or nil before the first
// completed tick.
func (m *RealTimeMonitor) State() *MarketState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastState
}

// Summary condenses the latest state: top five absolute movers and the
// count of symbols moving more than 0.2 percent either way.
func (m *RealTimeMonitor) Summary() *MarketSummary {
	state := m.State()
	if state == nil {
		return nil
	}

	snapshots := make([]SymbolSnapshot, 0, len(state.Symbols))
	for _, snap := range state.Symbols {
		snapshots = append(snapshots, snap)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return math.Abs(snapshots[i].Change) > math.Abs(snapshots[j].Change)
	})

	summary := &MarketSummary{
		Time:          state.Time,
		Sentiment:     state.Sentiment,
		AverageChange: state.AverageChange,
	}
	for i, snap := range snapshots {
		if i >= 5 {
			break
		}
		summary.TopMovers = append(summary.TopMovers, snap)
	}
	for _, snap := range snapshots {
		if snap.Change > 0.2 {
			summary.BullishCount++
		} else if snap.Change < -0.2 {
			summary.BearishCount++
		}
	}
	return summary
}

func (m *RealTimeMonitor) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *RealTimeMonitor) tick(ctx context.Context) {
	m.mu.Lock()
	symbols := append([]string(nil), m.symbols...)
	m.mu.Unlock()

	state := MarketState{
		Time:    time.Now(),
		Symbols: make(map[string]SymbolSnapshot, len(symbols)),
	}

	var sum float64
	for _, symbol := range symbols {
		snap, err := m.observe(ctx, symbol)
		if err != nil {
			metrics.SymbolFetchErrors.WithLabelValues(symbol).Inc()
			m.log.Warn().Str("symbol", symbol).Err(err).Msg("symbol skipped this tick")
			continue
		}
		state.Symbols[symbol] = snap
		sum += snap.Change
	}

	if n := len(state.Symbols); n > 0 {
		state.AverageChange = sum / float64(n)
	}
	switch {
	case state.AverageChange > 0.1:
		state.Sentiment = "BULLISH"
	case state.AverageChange < -0.1:
		state.Sentiment = "BEARISH"
	default:
		state.Sentiment = "SIDEWAYS"
	}

	m.mu.Lock()
	m.lastState = &state
	subs := make([]Subscriber, 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		m.notify(fn, state)
	}
	metrics.MonitorTicks.Inc()
}

func (m *RealTimeMonitor) notify(fn Subscriber, state MarketState) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Interface("panic", r).Msg("subscriber panicked")
		}
	}()
	fn(state)
}

// observe fetches one symbol's quote, bar window and indicator subset. A
// failed quote triggers one re-resolution before giving up on the tick.
func (m *RealTimeMonitor) observe(ctx context.Context, symbol string) (SymbolSnapshot, error) {
	broker, err := m.brokerSymbol(ctx, symbol)
	if err != nil {
		return SymbolSnapshot{}, err
	}

	quote, err := m.prices.Quote(ctx, broker)
	if err != nil {
		m.mu.Lock()
		delete(m.resolved, symbol)
		m.mu.Unlock()
		if broker, err = m.brokerSymbol(ctx, symbol); err != nil {
			return SymbolSnapshot{}, err
		}
		if quote, err = m.prices.Quote(ctx, broker); err != nil {
			return SymbolSnapshot{}, fmt.Errorf("quote failed after re-resolution: %w", err)
		}
	}

	bars, err := m.prices.Bars(ctx, broker, models.TimeFrameM1, m.window)
	if err != nil {
		return SymbolSnapshot{}, fmt.Errorf("failed to fetch bars: %w", err)
	}
	if len(bars) < 2 {
		return SymbolSnapshot{}, fmt.Errorf("not enough bars for %s", symbol)
	}

	frame := m.pipeline.Compute(bars)
	last := bars[len(bars)-1].Close
	prev := bars[len(bars)-2].Close

	change := 0.0
	if prev != 0 {
		change = (last - prev) / prev * 100
	}

	return SymbolSnapshot{
		Symbol:       symbol,
		BrokerSymbol: broker,
		Bid:          quote.Bid,
		Ask:          quote.Ask,
		Spread:       quote.Spread,
		Change:       change,
		RSI:          frame.Latest(indicators.ColRSI),
		SMA20:        frame.Latest(indicators.ColSMA20),
		ATR:          frame.Latest(indicators.ColATR),
		VolumeRatio:  frame.Latest(indicators.ColVolumeRat),
		Time:         quote.Time,
	}, nil
}

// brokerSymbol resolves a base name to the broker's listing, first by
// probing known suffixes, then by substring search over the full listing.
// Resolutions are cached until a quote failure invalidates them.
func (m *RealTimeMonitor) brokerSymbol(ctx context.Context, symbol string) (string, error) {
	m.mu.Lock()
	if broker, ok := m.resolved[symbol]; ok {
		m.mu.Unlock()
		return broker, nil
	}
	m.mu.Unlock()

	for _, suffix := range symbolSuffixes {
		candidate := symbol + suffix
		if _, err := m.prices.Quote(ctx, candidate); err == nil {
			m.cacheResolution(symbol, candidate)
			return candidate, nil
		}
	}

	listed, err := m.prices.ListSymbols(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list symbols: %w", err)
	}
	upper := strings.ToUpper(symbol)
	for _, candidate := range listed {
		if strings.Contains(strings.ToUpper(candidate), upper) {
			m.cacheResolution(symbol, candidate)
			return candidate, nil
		}
	}
	return "", fmt.Errorf("symbol %s not found at broker", symbol)
}

func (m *RealTimeMonitor) cacheResolution(symbol, broker string) {
	m.mu.Lock()
	m.resolved[symbol] = broker
	m.mu.Unlock()
	m.log.Info().Str("symbol", symbol).Str("broker_symbol", broker).Msg("symbol resolved")
}
