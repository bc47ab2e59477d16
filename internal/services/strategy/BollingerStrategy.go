package strategy

import (
	"fmt"
	"math"
	"strings"

	"ForexTradeBot/internal/services/indicators"
)

const (
	colPercentB   = "percent_b"
	colBBWidthPct = "bb_width_pct"
	colBBSqueeze  = "bb_squeeze"
)

// BollingerStrategy fades touches of the outer bands, with RSI, MACD,
// volume and band-width expansion as confirmation.
type BollingerStrategy struct {
	config Config
}

func NewBollingerStrategy() *BollingerStrategy {
	return &BollingerStrategy{
		config: Config{
			Name:        "Bollinger Reversal",
			Description: "Band-touch reversal confirmed by RSI, MACD and volume",
			RiskLevel:   RiskHigh,
			RequiredIndicators: []string{
				indicators.ColBBUpper, indicators.ColBBLower, indicators.ColBBMiddle,
				indicators.ColBBWidth, indicators.ColRSI, indicators.ColMACD,
				indicators.ColVolumeRat,
			},
			Parameters: map[string]float64{
				"rsi_oversold":     35,
				"rsi_overbought":   65,
				"percent_b_low":    0.2,
				"percent_b_high":   0.8,
				"squeeze_width":    0.5,
				"expansion_width":  0.8,
				"volume_threshold": 1.0,
				"floor":            60,
				"strength_cap":     90,
				"min_bars":         50,
			},
			ConfidenceThreshold: 60,
			Horizon:             HorizonShort,
		},
	}
}

func (s *BollingerStrategy) Config() Config {
	return s.config
}

func (s *BollingerStrategy) CalculateIndicators(frame *indicators.Frame) *indicators.Frame {
	n := frame.Len()
	upper := frame.Column(indicators.ColBBUpper)
	lower := frame.Column(indicators.ColBBLower)
	middle := frame.Column(indicators.ColBBMiddle)

	percentB := make([]float64, n)
	widthPct := make([]float64, n)
	squeeze := make([]float64, n)
	for i := 0; i < n; i++ {
		percentB[i] = (frame.Bars[i].Close - lower[i]) / (upper[i] - lower[i])
		widthPct[i] = (upper[i] - lower[i]) / middle[i] * 100
		if widthPct[i] < s.config.Parameters["squeeze_width"] {
			squeeze[i] = 1
		}
	}
	frame.Set(colPercentB, percentB)
	frame.Set(colBBWidthPct, widthPct)
	frame.Set(colBBSqueeze, squeeze)

	return frame
}

func (s *BollingerStrategy) GenerateSignal(frame *indicators.Frame) Decision {
	p := s.config.Parameters
	if frame.Len() < int(p["min_bars"]) {
		return hold("insufficient data")
	}

	close := frame.LatestBar().Close
	upper := frame.Latest(indicators.ColBBUpper)
	lower := frame.Latest(indicators.ColBBLower)
	percentB := frame.Latest(colPercentB)

	belowLower := close < lower
	aboveUpper := close > upper
	inMiddle := close > lower && close < upper

	rsi := frame.Latest(indicators.ColRSI)
	macdBullish := frame.Latest(indicators.ColMACD) > frame.Latest(indicators.ColMACDSignal)
	volumeOK := valueOr(frame.Latest(indicators.ColVolumeRat), 1) > p["volume_threshold"]
	squeeze := frame.Latest(colBBSqueeze) > 0
	widthPct := valueOr(frame.Latest(colBBWidthPct), 1)

	buy := 0.0
	var buyFactors []string
	if belowLower || (inMiddle && percentB < p["percent_b_low"]) {
		buy += 30
		buyFactors = append(buyFactors, "at lower band")
	}
	if rsi < p["rsi_oversold"] {
		buy += 20
		buyFactors = append(buyFactors, "RSI oversold")
	}
	if macdBullish {
		buy += 15
		buyFactors = append(buyFactors, "MACD bullish")
	}
	if volumeOK {
		buy += 15
		buyFactors = append(buyFactors, "volume confirms")
	}
	if !squeeze && widthPct > p["expansion_width"] {
		buy += 10
		buyFactors = append(buyFactors, "bands expanding")
	}

	sell := 0.0
	var sellFactors []string
	if aboveUpper || (inMiddle && percentB > p["percent_b_high"]) {
		sell += 30
		sellFactors = append(sellFactors, "at upper band")
	}
	if rsi > p["rsi_overbought"] {
		sell += 20
		sellFactors = append(sellFactors, "RSI overbought")
	}
	if !macdBullish {
		sell += 15
		sellFactors = append(sellFactors, "MACD bearish")
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
		return hold("price inside the bands")
	}
}
