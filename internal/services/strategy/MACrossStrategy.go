package strategy

import (
	"fmt"
	"math"
	"strings"

	"ForexTradeBot/internal/services/indicators"
)

// Variant-specific columns added by the MA crossover strategy.
const (
	colMADiff        = "ma_diff"
	colMADiffPct     = "ma_diff_pct"
	colMomentum      = "momentum"
	colChannelHigh   = "price_channel_high"
	colChannelLow    = "price_channel_low"
	colChannelMiddle = "price_channel_middle"
)

// MACrossStrategy trades short-MA/long-MA crossovers gated by RSI, MACD,
// volume, and trend-strength confirmation.
type MACrossStrategy struct {
	config Config
	sma    *indicators.SMAService
}

func NewMACrossStrategy() *MACrossStrategy {
	return &MACrossStrategy{
		config: Config{
			Name:        "MA Crossover",
			Description: "Moving average crossover with RSI, MACD and volume filters",
			RiskLevel:   RiskMedium,
			RequiredIndicators: []string{
				indicators.ColSMA20, indicators.ColSMA50, indicators.ColRSI,
				indicators.ColMACD, indicators.ColVolumeRat, indicators.ColATR,
				indicators.ColADX,
			},
			Parameters: map[string]float64{
				"rsi_overbought":   70,
				"rsi_oversold":     30,
				"volume_threshold": 1.0,
				"adx_threshold":    25,
				"atr_ratio_max":    0.02,
				"buy_floor":        60,
				"sell_floor":       50, // asymmetric on purpose, pending calibration review
				"strength_cap":     95,
				"min_bars":         50,
			},
			ConfidenceThreshold: 65,
			Horizon:             HorizonMedium,
		},
		sma: indicators.NewSMAService(),
	}
}

func (s *MACrossStrategy) Config() Config {
	return s.config
}

func (s *MACrossStrategy) CalculateIndicators(frame *indicators.Frame) *indicators.Frame {
	n := frame.Len()
	sma20 := frame.Column(indicators.ColSMA20)
	sma50 := frame.Column(indicators.ColSMA50)

	maDiff := make([]float64, n)
	maDiffPct := make([]float64, n)
	for i := 0; i < n; i++ {
		maDiff[i] = sma20[i] - sma50[i]
		maDiffPct[i] = maDiff[i] / sma50[i] * 100
	}
	frame.Set(colMADiff, maDiff)
	frame.Set(colMADiffPct, maDiffPct)

	momentum := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i := 0; i < n; i++ {
		if i >= 5 {
			momentum[i] = frame.Bars[i].Close - frame.Bars[i-5].Close
		} else {
			momentum[i] = math.NaN()
		}
		highs[i] = frame.Bars[i].High
		lows[i] = frame.Bars[i].Low
	}
	frame.Set(colMomentum, momentum)

	channelHigh := s.sma.RollingMax(highs, 20)
	channelLow := s.sma.RollingMin(lows, 20)
	channelMiddle := make([]float64, n)
	for i := 0; i < n; i++ {
		channelMiddle[i] = (channelHigh[i] + channelLow[i]) / 2
	}
	frame.Set(colChannelHigh, channelHigh)
	frame.Set(colChannelLow, channelLow)
	frame.Set(colChannelMiddle, channelMiddle)

	return frame
}

func (s *MACrossStrategy) GenerateSignal(frame *indicators.Frame) Decision {
	p := s.config.Parameters
	if frame.Len() < int(p["min_bars"]) {
		return hold("insufficient data")
	}

	latestClose := frame.LatestBar().Close

	maBullish := frame.Latest(indicators.ColSMA20) > frame.Latest(indicators.ColSMA50) &&
		frame.Prev(indicators.ColSMA20) <= frame.Prev(indicators.ColSMA50)
	maBearish := frame.Latest(indicators.ColSMA20) < frame.Latest(indicators.ColSMA50) &&
		frame.Prev(indicators.ColSMA20) >= frame.Prev(indicators.ColSMA50)

	rsi := frame.Latest(indicators.ColRSI)
	rsiOK := rsi > p["rsi_oversold"] && rsi < p["rsi_overbought"]
	macdBullish := frame.Latest(indicators.ColMACD) > frame.Latest(indicators.ColMACDSignal)
	volumeOK := valueOr(frame.Latest(indicators.ColVolumeRat), 1) > p["volume_threshold"]
	adxStrong := valueOr(frame.Latest(indicators.ColADX), 0) > p["adx_threshold"]
	atrNormal := valueOr(frame.Latest(indicators.ColATR), 0)/latestClose < p["atr_ratio_max"]

	strength := 0.0
	var factors []string

	if maBullish && rsiOK && macdBullish {
		strength += 40
		factors = append(factors, "bullish MA crossover")
	}
	if volumeOK {
		strength += 20
		factors = append(factors, "high volume")
	}
	if adxStrong {
		strength += 20
		factors = append(factors, "strong trend")
	}
	if atrNormal {
		strength += 10
		factors = append(factors, "normal volatility")
	}
	if latestClose > frame.Latest(colChannelMiddle) {
		strength += 10
		factors = append(factors, "price above channel")
	}

	switch {
	case maBullish && strength >= p["buy_floor"]:
		return Decision{
			Direction:   DirectionBuy,
			Strength:    math.Min(strength, p["strength_cap"]),
			Factors:     factors,
			Description: fmt.Sprintf("BUY: %s", strings.Join(factors, ", ")),
		}
	case maBearish && strength >= p["sell_floor"]:
		return Decision{
			Direction:   DirectionSell,
			Strength:    math.Min(strength, p["strength_cap"]),
			Factors:     []string{"bearish MA crossover"},
			Description: "SELL: bearish MA crossover",
		}
	default:
		return hold("no clear crossover signal")
	}
}
