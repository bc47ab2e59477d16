package indicators

import (
	"math"

	"ForexTradeBot/internal/models"
)

type ATRService struct {
	sma *SMAService
}

func NewATRService() *ATRService {
	return &ATRService{
		sma: NewSMAService(),
	}
}

// TrueRange returns the per-bar true range; index 0 falls back to high-low
// since there is no previous close.
func (s *ATRService) TrueRange(bars []models.Bar) []float64 {
	tr := make([]float64, len(bars))
	for i, b := range bars {
		hl := b.High - b.Low
		if i == 0 {
			tr[i] = hl
			continue
		}
		prevClose := bars[i-1].Close
		hc := math.Abs(b.High - prevClose)
		lc := math.Abs(b.Low - prevClose)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return tr
}

// Calculate computes the Average True Range as a rolling mean of true range.
func (s *ATRService) Calculate(bars []models.Bar, period int) []float64 {
	if len(bars) == 0 {
		return nil
	}
	return s.sma.Calculate(s.TrueRange(bars), period)
}
