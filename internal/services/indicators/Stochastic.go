package indicators

import "ForexTradeBot/internal/models"

type StochasticService struct {
	sma *SMAService
}

type StochasticResult struct {
	K []float64
	D []float64
}

func NewStochasticService() *StochasticService {
	return &StochasticService{
		sma: NewSMAService(),
	}
}

// Calculate computes %K over kPeriod and %D as an SMA of %K over dPeriod.
func (s *StochasticService) Calculate(bars []models.Bar, kPeriod, dPeriod int) *StochasticResult {
	n := len(bars)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}

	highMax := s.sma.RollingMax(highs, kPeriod)
	lowMin := s.sma.RollingMin(lows, kPeriod)

	k := nanSlice(n)
	for i := 0; i < n; i++ {
		if !defined(highMax[i]) || !defined(lowMin[i]) {
			continue
		}
		if span := highMax[i] - lowMin[i]; span != 0 {
			k[i] = 100 * (bars[i].Close - lowMin[i]) / span
		}
	}

	return &StochasticResult{
		K: k,
		D: s.sma.Calculate(k, dPeriod),
	}
}
