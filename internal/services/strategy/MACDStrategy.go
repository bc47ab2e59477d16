package strategy

import (
	"fmt"
	"math"
	"strings"

	"ForexTradeBot/internal/models"
	"ForexTradeBot/internal/services/indicators"
)

const (
	colMACDTrend    = "macd_trend"
	colMACDMomentum = "macd_momentum"
	colMACDHistSMA  = "macd_histogram_sma"
	colMACDFast     = "macd_6_13"
	colMACDFastSig  = "macd_signal_6_13"
)

// MACDStrategy grades signal-line crossovers, confirmed by histogram slope,
// the zero line, RSI/stochastic ranges, volume, and agreement with a faster
// second MACD.
type MACDStrategy struct {
	config Config
	sma    *indicators.SMAService
	ema    *indicators.EMAService
	macd   *indicators.MACDService
}

func NewMACDStrategy() *MACDStrategy {
	return &MACDStrategy{
		config: Config{
			Name:        "MACD Momentum",
			Description: "MACD crossover with RSI, stochastic and volume confirmation",
			RiskLevel:   RiskMedium,
			RequiredIndicators: []string{
				indicators.ColMACD, indicators.ColMACDSignal, indicators.ColMACDHist,
				indicators.ColRSI, indicators.ColStochK, indicators.ColStochD,
				indicators.ColVolumeRat, indicators.ColATR,
			},
			Parameters: map[string]float64{
				"rsi_low":          40,
				"rsi_high":         70,
				"stoch_low":        20,
				"stoch_high":       80,
				"volume_threshold": 0.9,
				"floor":            60,
				"strength_cap":     95,
				"min_bars":         35,
			},
			ConfidenceThreshold: 65,
			Horizon:             HorizonMedium,
		},
		sma:  indicators.NewSMAService(),
		ema:  indicators.NewEMAService(),
		macd: indicators.NewMACDService(),
	}
}

func (s *MACDStrategy) Config() Config {
	return s.config
}

func (s *MACDStrategy) CalculateIndicators(frame *indicators.Frame) *indicators.Frame {
	n := frame.Len()
	macd := frame.Column(indicators.ColMACD)
	signal := frame.Column(indicators.ColMACDSignal)

	trend := make([]float64, n)
	momentum := make([]float64, n)
	for i := 0; i < n; i++ {
		trend[i] = macd[i] - signal[i]
		if i == 0 {
			momentum[i] = math.NaN()
		} else {
			momentum[i] = trend[i] - trend[i-1]
		}
	}
	frame.Set(colMACDTrend, trend)
	frame.Set(colMACDMomentum, momentum)
	frame.Set(colMACDHistSMA, s.sma.Calculate(frame.Column(indicators.ColMACDHist), 5))

	fast := s.macd.Calculate(models.Closes(frame.Bars), 6, 13, 9)
	frame.Set(colMACDFast, fast.MACD)
	frame.Set(colMACDFastSig, fast.Signal)

	return frame
}

func (s *MACDStrategy) GenerateSignal(frame *indicators.Frame) Decision {
	p := s.config.Parameters
	if frame.Len() < int(p["min_bars"]) {
		return hold("insufficient data")
	}

	macd := frame.Latest(indicators.ColMACD)
	signal := frame.Latest(indicators.ColMACDSignal)
	prevMACD := frame.Prev(indicators.ColMACD)
	prevSignal := frame.Prev(indicators.ColMACDSignal)

	bullishCross := prevMACD <= prevSignal && macd > signal
	bearishCross := prevMACD >= prevSignal && macd < signal
	histogramRising := frame.Latest(indicators.ColMACDHist) > frame.Prev(indicators.ColMACDHist)
	aboveZero := macd > 0

	rsi := frame.Latest(indicators.ColRSI)
	rsiOK := rsi > p["rsi_low"] && rsi < p["rsi_high"]
	stochK := frame.Latest(indicators.ColStochK)
	stochOK := stochK > p["stoch_low"] && stochK < p["stoch_high"]
	volumeOK := valueOr(frame.Latest(indicators.ColVolumeRat), 1) > p["volume_threshold"]

	fastBullish := valueOr(frame.Latest(colMACDFast), 0) > valueOr(frame.Latest(colMACDFastSig), 0)
	aligned := fastBullish == (macd > signal)

	buy := 0.0
	var buyFactors []string
	if bullishCross {
		buy += 30
		buyFactors = append(buyFactors, "bullish MACD crossover")
	}
	if histogramRising {
		buy += 15
		buyFactors = append(buyFactors, "histogram rising")
	}
	if aboveZero {
		buy += 10
		buyFactors = append(buyFactors, "MACD above zero")
	}
	if rsiOK {
		buy += 15
		buyFactors = append(buyFactors, "RSI confirms")
	}
	if stochOK {
		buy += 10
		buyFactors = append(buyFactors, "stochastic in range")
	}
	if volumeOK {
		buy += 10
		buyFactors = append(buyFactors, "volume confirms")
	}
	if aligned {
		buy += 10
		buyFactors = append(buyFactors, "fast MACD agrees")
	}

	sell := 0.0
	var sellFactors []string
	if bearishCross {
		sell += 30
		sellFactors = append(sellFactors, "bearish MACD crossover")
	}
	if !histogramRising {
		sell += 15
		sellFactors = append(sellFactors, "histogram falling")
	}
	if !aboveZero {
		sell += 10
		sellFactors = append(sellFactors, "MACD below zero")
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
		return hold("MACD shows no clear direction")
	}
}
