package indicators

import (
	"math"

	"ForexTradeBot/internal/models"
)

// ADXService computes the Average Directional Index from Wilder-smoothed
// directional movement.
type ADXService struct {
	ema *EMAService
	atr *ATRService
}

func NewADXService() *ADXService {
	return &ADXService{
		ema: NewEMAService(),
		atr: NewATRService(),
	}
}

func (s *ADXService) Calculate(bars []models.Bar, period int) []float64 {
	n := len(bars)
	out := nanSlice(n)
	if period <= 0 || n < 2*period {
		return out
	}

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := bars[i].High - bars[i-1].High
		downMove := bars[i-1].Low - bars[i].Low
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	tr := s.atr.TrueRange(bars)
	smoothPlus := s.ema.WilderSmooth(plusDM, period)
	smoothMinus := s.ema.WilderSmooth(minusDM, period)
	smoothTR := s.ema.WilderSmooth(tr, period)

	dx := nanSlice(n)
	for i := 0; i < n; i++ {
		if smoothTR[i] == 0 {
			continue
		}
		plusDI := 100 * smoothPlus[i] / smoothTR[i]
		minusDI := 100 * smoothMinus[i] / smoothTR[i]
		if sum := plusDI + minusDI; sum != 0 {
			dx[i] = 100 * math.Abs(plusDI-minusDI) / sum
		}
	}

	adx := s.ema.WilderSmooth(dx, period)

	// The index needs a full smoothing cycle on top of the DM warm-up
	// before it is meaningful.
	for i := 2 * period; i < n; i++ {
		out[i] = adx[i]
	}
	return out
}
