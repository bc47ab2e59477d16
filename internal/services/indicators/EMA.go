package indicators

import "math"

// EMAService provides Exponential Moving Average calculations
type EMAService struct{}

func NewEMAService() *EMAService {
	return &EMAService{}
}

// Calculate computes EMA for the entire series. The average is seeded with
// an SMA over the first full window of defined input, so leading NaN runs
// (e.g. a MACD line fed back in for its signal line) are tolerated.
func (s *EMAService) Calculate(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}

	start := firstDefined(values)
	if start < 0 || len(values)-start < period {
		return out
	}

	multiplier := s.getMultiplier(period)

	sum := 0.0
	for _, v := range values[start : start+period] {
		sum += v
	}
	seed := start + period - 1
	out[seed] = sum / float64(period)

	for i := seed + 1; i < len(values); i++ {
		out[i] = s.calculatePoint(values[i], out[i-1], multiplier)
	}
	return out
}

// WilderSmooth applies the alpha=1/period recursive smoothing used by RSI
// and ADX, seeded with the first defined value.
func (s *EMAService) WilderSmooth(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}

	start := firstDefined(values)
	if start < 0 {
		return out
	}

	alpha := 1.0 / float64(period)
	out[start] = values[start]
	for i := start + 1; i < len(values); i++ {
		if math.IsNaN(values[i]) {
			out[i] = out[i-1]
			continue
		}
		out[i] = out[i-1] + alpha*(values[i]-out[i-1])
	}
	return out
}

func (s *EMAService) getMultiplier(period int) float64 {
	return 2.0 / float64(period+1)
}

func (s *EMAService) calculatePoint(value, prevEMA, multiplier float64) float64 {
	return (value-prevEMA)*multiplier + prevEMA
}

func firstDefined(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}
