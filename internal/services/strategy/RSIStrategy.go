package strategy

import (
	"fmt"
	"math"
	"strings"

	"ForexTradeBot/internal/models"
	"ForexTradeBot/internal/services/indicators"
)

const (
	colRSIFast = "rsi_7"
	colRSISlow = "rsi_21"
)

// RSIStrategy is a mean-reversion variant: it accumulates oversold and
// overbought evidence independently and fires only when one side both clears
// the floor and dominates the other.
type RSIStrategy struct {
	config Config
	rsi    *indicators.RSIService
}

func NewRSIStrategy() *RSIStrategy {
	return &RSIStrategy{
		config: Config{
			Name:        "RSI Reversal",
			Description: "Oversold/overbought reversal confirmed by stochastic, bands and MACD",
			RiskLevel:   RiskMedium,
			RequiredIndicators: []string{
				indicators.ColRSI, indicators.ColStochK, indicators.ColStochD,
				indicators.ColBBPosition, indicators.ColMACD, indicators.ColVolumeRat,
			},
			Parameters: map[string]float64{
				"rsi_oversold":        30,
				"rsi_overbought":      70,
				"rsi_slow_oversold":   40,
				"rsi_slow_overbought": 60,
				"stoch_oversold":      20,
				"stoch_overbought":    80,
				"bb_low":              0.2,
				"bb_high":             0.8,
				"volume_threshold":    0.8,
				"floor":               60,
				"strength_cap":        90,
				"min_bars":            30,
			},
			ConfidenceThreshold: 60,
			Horizon:             HorizonShort,
		},
		rsi: indicators.NewRSIService(),
	}
}

func (s *RSIStrategy) Config() Config {
	return s.config
}

func (s *RSIStrategy) CalculateIndicators(frame *indicators.Frame) *indicators.Frame {
	closes := models.Closes(frame.Bars)
	frame.Set(colRSIFast, s.rsi.Calculate(closes, 7))
	frame.Set(colRSISlow, s.rsi.Calculate(closes, 21))
	return frame
}

func (s *RSIStrategy) GenerateSignal(frame *indicators.Frame) Decision {
	p := s.config.Parameters
	if frame.Len() < int(p["min_bars"]) {
		return hold("insufficient data")
	}

	rsi := frame.Latest(indicators.ColRSI)
	rsiFast := frame.Latest(colRSIFast)
	rsiSlow := frame.Latest(colRSISlow)
	stochK := frame.Latest(indicators.ColStochK)
	stochD := frame.Latest(indicators.ColStochD)
	bbPos := frame.Latest(indicators.ColBBPosition)
	macdBullish := frame.Latest(indicators.ColMACD) > frame.Latest(indicators.ColMACDSignal)
	volumeOK := valueOr(frame.Latest(indicators.ColVolumeRat), 1) > p["volume_threshold"]

	buy := 0.0
	sell := 0.0
	var buyFactors, sellFactors []string

	if rsi < p["rsi_oversold"] {
		buy += 25
		buyFactors = append(buyFactors, "RSI oversold")
	}
	if stochK < p["stoch_oversold"] && stochD < p["stoch_oversold"] {
		buy += 15
		buyFactors = append(buyFactors, "stochastic oversold")
	}
	if isDefined(bbPos) && bbPos < p["bb_low"] {
		buy += 20
		buyFactors = append(buyFactors, "price at lower band")
	}
	if macdBullish {
		buy += 15
		buyFactors = append(buyFactors, "MACD bullish")
	}
	if isDefined(rsiFast) && isDefined(rsiSlow) &&
		rsiFast < p["rsi_oversold"] && rsiSlow < p["rsi_slow_oversold"] {
		buy += 15
		buyFactors = append(buyFactors, "fast and slow RSI oversold")
	}
	if volumeOK {
		buy += 10
		buyFactors = append(buyFactors, "volume confirms")
	}

	if rsi > p["rsi_overbought"] {
		sell += 25
		sellFactors = append(sellFactors, "RSI overbought")
	}
	if stochK > p["stoch_overbought"] && stochD > p["stoch_overbought"] {
		sell += 15
		sellFactors = append(sellFactors, "stochastic overbought")
	}
	if isDefined(bbPos) && bbPos > p["bb_high"] {
		sell += 20
		sellFactors = append(sellFactors, "price at upper band")
	}
	if !macdBullish {
		sell += 15
		sellFactors = append(sellFactors, "MACD bearish")
	}
	if isDefined(rsiFast) && isDefined(rsiSlow) &&
		rsiFast > p["rsi_overbought"] && rsiSlow > p["rsi_slow_overbought"] {
		sell += 15
		sellFactors = append(sellFactors, "fast and slow RSI overbought")
	}
	if volumeOK {
		sell += 10
		sellFactors = append(sellFactors, "volume confirms")
	}

	switch {
	case buy >= p["floor"] && buy > sell:
		return Decision{
			Direction:   DirectionBuy,
			Strength:    math.Min(buy, p["strength_cap"]),
			Factors:     buyFactors,
			Description: fmt.Sprintf("BUY: %s", strings.Join(buyFactors, ", ")),
		}
	case sell >= p["floor"] && sell > buy:
		return Decision{
			Direction:   DirectionSell,
			Strength:    math.Min(sell, p["strength_cap"]),
			Factors:     sellFactors,
			Description: fmt.Sprintf("SELL: %s", strings.Join(sellFactors, ", ")),
		}
	default:
		return hold("no dominant reversal evidence")
	}
}
