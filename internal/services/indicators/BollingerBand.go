package indicators

type BBandsService struct {
	sma *SMAService
}

type BBandsResult struct {
	Upper    []float64
	Middle   []float64
	Lower    []float64
	Width    []float64 // band spread relative to the middle band
	Position []float64 // where the close sits inside the band, 0..1 when within
}

func NewBBandsService() *BBandsService {
	return &BBandsService{
		sma: NewSMAService(),
	}
}

func (s *BBandsService) Calculate(prices []float64, period int, deviations float64) *BBandsResult {
	n := len(prices)

	middle := s.sma.Calculate(prices, period)
	stdDev := s.sma.RollingStd(prices, period)

	upper := nanSlice(n)
	lower := nanSlice(n)
	width := nanSlice(n)
	position := nanSlice(n)

	for i := 0; i < n; i++ {
		if !defined(middle[i]) || !defined(stdDev[i]) {
			continue
		}
		upper[i] = middle[i] + deviations*stdDev[i]
		lower[i] = middle[i] - deviations*stdDev[i]
		if middle[i] != 0 {
			width[i] = (upper[i] - lower[i]) / middle[i]
		}
		if band := upper[i] - lower[i]; band != 0 {
			position[i] = (prices[i] - lower[i]) / band
		}
	}

	return &BBandsResult{
		Upper:    upper,
		Middle:   middle,
		Lower:    lower,
		Width:    width,
		Position: position,
	}
}
