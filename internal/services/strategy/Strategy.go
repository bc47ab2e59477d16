package strategy

import (
	"fmt"
	"math"

	"ForexTradeBot/internal/services/indicators"
)

// Strategy turns an indicator frame into a graded decision for the latest
// bar. CalculateIndicators adds variant-specific columns on top of the
// common pipeline output; GenerateSignal reads only the last row plus a
// small lookback for crossover detection.
type Strategy interface {
	Config() Config
	CalculateIndicators(frame *indicators.Frame) *indicators.Frame
	GenerateSignal(frame *indicators.Frame) Decision
}

var registry = map[string]func() Strategy{
	"simple_ma": func() Strategy { return NewMACrossStrategy() },
	"rsi":       func() Strategy { return NewRSIStrategy() },
	"macd":      func() Strategy { return NewMACDStrategy() },
	"bollinger": func() Strategy { return NewBollingerStrategy() },
	"composite": func() Strategy { return NewCompositeStrategy() },
}

// New creates a strategy instance by registry id.
func New(id string) (Strategy, error) {
	factory, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", id)
	}
	return factory(), nil
}

// Available returns id -> display name for every registered strategy.
func Available() map[string]string {
	out := make(map[string]string, len(registry))
	for id, factory := range registry {
		out[id] = factory().Config().Name
	}
	return out
}

// valueOr reads a frame value with a fallback for warm-up NaNs, mirroring
// how optional columns default during evaluation.
func valueOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func isDefined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
