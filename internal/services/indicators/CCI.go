package indicators

import (
	"math"

	"ForexTradeBot/internal/models"
)

type CCIService struct {
	sma *SMAService
}

func NewCCIService() *CCIService {
	return &CCIService{
		sma: NewSMAService(),
	}
}

// Calculate computes the Commodity Channel Index over the typical price.
func (s *CCIService) Calculate(bars []models.Bar, period int) []float64 {
	n := len(bars)
	out := nanSlice(n)
	if period <= 0 || n < period {
		return out
	}

	typical := make([]float64, n)
	for i, b := range bars {
		typical[i] = (b.High + b.Low + b.Close) / 3
	}

	smaTypical := s.sma.Calculate(typical, period)

	for i := period - 1; i < n; i++ {
		if !defined(smaTypical[i]) {
			continue
		}
		mad := 0.0
		for _, v := range typical[i-period+1 : i+1] {
			mad += math.Abs(v - smaTypical[i])
		}
		mad /= float64(period)
		if mad != 0 {
			out[i] = (typical[i] - smaTypical[i]) / (0.015 * mad)
		}
	}
	return out
}
