package indicators

import "ForexTradeBot/internal/models"

// IchimokuService computes the cloud lines. The senkou spans are displaced
// forward by the kijun period; they exist for diagnostics and are never read
// by signal logic.
type IchimokuService struct {
	sma *SMAService
}

type IchimokuResult struct {
	Tenkan  []float64
	Kijun   []float64
	SenkouA []float64
	SenkouB []float64
}

func NewIchimokuService() *IchimokuService {
	return &IchimokuService{
		sma: NewSMAService(),
	}
}

func (s *IchimokuService) Calculate(bars []models.Bar) *IchimokuResult {
	n := len(bars)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}

	tenkan := s.midline(highs, lows, 9)
	kijun := s.midline(highs, lows, 26)
	spanB := s.midline(highs, lows, 52)

	senkouA := nanSlice(n)
	senkouB := nanSlice(n)
	for i := 26; i < n; i++ {
		if defined(tenkan[i-26]) && defined(kijun[i-26]) {
			senkouA[i] = (tenkan[i-26] + kijun[i-26]) / 2
		}
		senkouB[i] = spanB[i-26]
	}

	return &IchimokuResult{
		Tenkan:  tenkan,
		Kijun:   kijun,
		SenkouA: senkouA,
		SenkouB: senkouB,
	}
}

func (s *IchimokuService) midline(highs, lows []float64, period int) []float64 {
	highMax := s.sma.RollingMax(highs, period)
	lowMin := s.sma.RollingMin(lows, period)

	out := nanSlice(len(highs))
	for i := range out {
		if defined(highMax[i]) && defined(lowMin[i]) {
			out[i] = (highMax[i] + lowMin[i]) / 2
		}
	}
	return out
}
