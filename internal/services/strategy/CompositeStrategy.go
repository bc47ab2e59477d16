package strategy

import (
	"fmt"
	"math"
	"strings"

	"ForexTradeBot/internal/services/indicators"
)

const (
	colTrendComposite  = "trend_composite"
	colVolatilityIndex = "volatility_index"
	colMomentumOsc     = "momentum_oscillator"
	colVolumeADI       = "volume_adi"
	colResistance      = "resistance"
	colSupport         = "support"
)

// CompositeStrategy blends seven weighted components, each scored in
// [-1, 1], into a single consensus total. It only fires when the weighted
// total clears the dead zone around zero, so it trades less often than the
// single-indicator variants but with broader agreement behind each call.
type CompositeStrategy struct {
	config Config
	sma    *indicators.SMAService
}

func NewCompositeStrategy() *CompositeStrategy {
	return &CompositeStrategy{
		config: Config{
			Name:        "Composite Consensus",
			Description: "Weighted consensus of trend, momentum, volume and volatility components",
			RiskLevel:   RiskLow,
			RequiredIndicators: []string{
				indicators.ColRSI, indicators.ColMACD, indicators.ColBBUpper,
				indicators.ColBBLower, indicators.ColStochK, indicators.ColStochD,
				indicators.ColATR, indicators.ColADX, indicators.ColCCI,
				indicators.ColWilliamsR, indicators.ColPSAR, indicators.ColVolumeRat,
			},
			Parameters: map[string]float64{
				"weight_rsi":        0.15,
				"weight_macd":       0.20,
				"weight_bb":         0.15,
				"weight_stoch":      0.10,
				"weight_trend":      0.20,
				"weight_volume":     0.10,
				"weight_volatility": 0.10,
				"dead_zone":         0.3,
				"strength_cap":      95,
				"min_bars":          50,
			},
			ConfidenceThreshold: 75,
			Horizon:             HorizonLong,
		},
		sma: indicators.NewSMAService(),
	}
}

func (s *CompositeStrategy) Config() Config {
	return s.config
}

func (s *CompositeStrategy) CalculateIndicators(frame *indicators.Frame) *indicators.Frame {
	n := frame.Len()

	sma20 := frame.Column(indicators.ColSMA20)
	sma50 := frame.Column(indicators.ColSMA50)
	macd := frame.Column(indicators.ColMACD)
	macdSignal := frame.Column(indicators.ColMACDSignal)
	adx := frame.Column(indicators.ColADX)

	trendComposite := make([]float64, n)
	volatility := make([]float64, n)
	momentumOsc := make([]float64, n)
	adi := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)

	cumADI := 0.0
	for i := 0; i < n; i++ {
		bar := frame.Bars[i]

		score := 0.0
		if bar.Close > sma20[i] {
			score++
		}
		if sma20[i] > sma50[i] {
			score++
		}
		if macd[i] > macdSignal[i] {
			score++
		}
		if adx[i] > 25 {
			score++
		}
		trendComposite[i] = score

		volatility[i] = frame.At(indicators.ColATR, i) / bar.Close * 100

		momentumOsc[i] = ((frame.At(indicators.ColRSI, i)-50)/50 +
			(frame.At(indicators.ColStochK, i)-50)/50 +
			frame.At(indicators.ColCCI, i)/100 +
			frame.At(indicators.ColWilliamsR, i)/-100) / 4

		// Accumulation/Distribution: close-location value weighted by volume.
		clv := 0.0
		if span := bar.High - bar.Low; span != 0 {
			clv = ((bar.Close - bar.Low) - (bar.High - bar.Close)) / span
		}
		cumADI += clv * bar.TickVolume
		adi[i] = cumADI

		highs[i] = bar.High
		lows[i] = bar.Low
	}

	frame.Set(colTrendComposite, trendComposite)
	frame.Set(colVolatilityIndex, volatility)
	frame.Set(colMomentumOsc, momentumOsc)
	frame.Set(colVolumeADI, adi)
	frame.Set(colResistance, s.sma.RollingMax(highs, 20))
	frame.Set(colSupport, s.sma.RollingMin(lows, 20))

	return frame
}

func (s *CompositeStrategy) GenerateSignal(frame *indicators.Frame) Decision {
	p := s.config.Parameters
	if frame.Len() < int(p["min_bars"]) {
		return hold("insufficient data")
	}

	close := frame.LatestBar().Close
	components := map[string]float64{
		"rsi":        s.rsiScore(frame),
		"macd":       s.macdScore(frame),
		"bb":         s.bbScore(frame, close),
		"stoch":      s.stochScore(frame),
		"trend":      s.trendScore(frame),
		"volatility": s.volatilityScore(frame),
	}
	components["volume"] = s.volumeScore(frame, components["trend"])

	total := 0.0
	for name, score := range components {
		total += score * p["weight_"+name]
	}

	deadZone := p["dead_zone"]
	var direction Direction
	var strength float64
	var description string
	switch {
	case total > deadZone:
		direction = DirectionBuy
		strength = math.Min(math.Trunc((total-deadZone)/(1-deadZone)*100), p["strength_cap"])
		description = "strong bullish indicator consensus"
	case total < -deadZone:
		direction = DirectionSell
		strength = math.Min(math.Trunc((math.Abs(total)-deadZone)/(1-deadZone)*100), p["strength_cap"])
		description = "strong bearish indicator consensus"
	default:
		return hold("indicators show no clear direction")
	}

	var factors []string
	for _, name := range []string{"rsi", "macd", "bb", "stoch", "trend", "volume", "volatility"} {
		score := components[name]
		if math.Abs(score) > 0.7 {
			side := "bullish"
			if score < 0 {
				side = "bearish"
			}
			factors = append(factors, fmt.Sprintf("%s (%s)", strings.ToUpper(name), side))
		}
	}
	if len(factors) > 0 {
		description += ". Key factors: " + strings.Join(factors, ", ")
	}

	return Decision{
		Direction:   direction,
		Strength:    strength,
		Factors:     factors,
		Description: description,
	}
}

func (s *CompositeStrategy) rsiScore(frame *indicators.Frame) float64 {
	rsi := frame.Latest(indicators.ColRSI)
	switch {
	case rsi < 30:
		return 1.0
	case rsi > 70:
		return -1.0
	case rsi > 40 && rsi < 60:
		if rsi > 50 {
			return 0.5
		}
		return -0.5
	default:
		return 0
	}
}

func (s *CompositeStrategy) macdScore(frame *indicators.Frame) float64 {
	macd := frame.Latest(indicators.ColMACD)
	signal := frame.Latest(indicators.ColMACDSignal)
	prevMACD := frame.Prev(indicators.ColMACD)
	prevSignal := frame.Prev(indicators.ColMACDSignal)

	switch {
	case macd > signal && prevMACD <= prevSignal:
		return 1.0
	case macd < signal && prevMACD >= prevSignal:
		return -1.0
	case macd > signal:
		return 0.5
	default:
		return -0.5
	}
}

func (s *CompositeStrategy) bbScore(frame *indicators.Frame, close float64) float64 {
	switch {
	case close < frame.Latest(indicators.ColBBLower):
		return 1.0
	case close > frame.Latest(indicators.ColBBUpper):
		return -1.0
	case frame.Latest(indicators.ColBBPosition) < 0.3:
		return 0.5
	case frame.Latest(indicators.ColBBPosition) > 0.7:
		return -0.5
	default:
		return 0
	}
}

func (s *CompositeStrategy) stochScore(frame *indicators.Frame) float64 {
	k := frame.Latest(indicators.ColStochK)
	d := frame.Latest(indicators.ColStochD)
	switch {
	case k < 20 && d < 20:
		return 1.0
	case k > 80 && d > 80:
		return -1.0
	case k > d:
		return 0.3
	default:
		return -0.3
	}
}

func (s *CompositeStrategy) trendScore(frame *indicators.Frame) float64 {
	composite := frame.Latest(colTrendComposite)
	switch {
	case composite >= 3:
		return 1.0
	case composite <= 1:
		return -1.0
	case frame.Latest(indicators.ColADX) > 25:
		if frame.Latest(indicators.ColPSARTrend) > 0 {
			return 0.5
		}
		return -0.5
	default:
		return 0
	}
}

// volumeScore follows the trend component: high volume amplifies whichever
// side the trend is leaning toward.
func (s *CompositeStrategy) volumeScore(frame *indicators.Frame, trendScore float64) float64 {
	ratio := valueOr(frame.Latest(indicators.ColVolumeRat), 1)
	switch {
	case ratio > 1.5:
		if trendScore > 0 {
			return 1.0
		}
		return -1.0
	case ratio > 1.2:
		if trendScore > 0 {
			return 0.5
		}
		return -0.5
	default:
		return 0
	}
}

func (s *CompositeStrategy) volatilityScore(frame *indicators.Frame) float64 {
	volatility := valueOr(frame.Latest(colVolatilityIndex), 1)
	switch {
	case volatility < 0.5:
		return 0.3
	case volatility > 2.0:
		return -0.5
	default:
		return 0
	}
}
