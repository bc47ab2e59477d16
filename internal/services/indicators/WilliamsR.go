package indicators

import "ForexTradeBot/internal/models"

type WilliamsRService struct {
	sma *SMAService
}

func NewWilliamsRService() *WilliamsRService {
	return &WilliamsRService{
		sma: NewSMAService(),
	}
}

// Calculate computes Williams %R, ranging 0 (at the period high) to -100
// (at the period low).
func (s *WilliamsRService) Calculate(bars []models.Bar, period int) []float64 {
	n := len(bars)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}

	highMax := s.sma.RollingMax(highs, period)
	lowMin := s.sma.RollingMin(lows, period)

	out := nanSlice(n)
	for i := 0; i < n; i++ {
		if !defined(highMax[i]) || !defined(lowMin[i]) {
			continue
		}
		if span := highMax[i] - lowMin[i]; span != 0 {
			out[i] = -100 * (highMax[i] - bars[i].Close) / span
		}
	}
	return out
}
