package indicators

import (
	"math"

	"ForexTradeBot/internal/models"
)

// PSARService computes the Parabolic Stop-and-Reverse. Unlike the rolling
// indicators this is a loop-carried state machine over trend direction,
// extreme point, and acceleration factor; it runs as a single forward scan.
type PSARService struct {
	AFStart     float64
	AFIncrement float64
	AFMax       float64
}

type PSARResult struct {
	SAR   []float64
	Trend []float64 // +1 uptrend, -1 downtrend
}

func NewPSARService() *PSARService {
	return &PSARService{
		AFStart:     0.02,
		AFIncrement: 0.02,
		AFMax:       0.2,
	}
}

func (s *PSARService) Calculate(bars []models.Bar) *PSARResult {
	n := len(bars)
	sar := nanSlice(n)
	trend := nanSlice(n)
	if n == 0 {
		return &PSARResult{SAR: sar, Trend: trend}
	}

	sar[0] = bars[0].Close
	trend[0] = 1
	ep := bars[0].High
	af := s.AFStart

	for i := 1; i < n; i++ {
		projected := sar[i-1] + af*(ep-sar[i-1])

		if trend[i-1] > 0 {
			if bars[i].Low < projected {
				// Downtrend flip: SAR jumps to the prior extreme.
				trend[i] = -1
				sar[i] = math.Max(bars[i-1].High, bars[i].High)
				ep = bars[i].Low
				af = s.AFStart
			} else {
				trend[i] = 1
				sar[i] = projected
				if bars[i].High > ep {
					ep = bars[i].High
					af = math.Min(af+s.AFIncrement, s.AFMax)
				}
			}
		} else {
			if bars[i].High > projected {
				trend[i] = 1
				sar[i] = math.Min(bars[i-1].Low, bars[i].Low)
				ep = bars[i].High
				af = s.AFStart
			} else {
				trend[i] = -1
				sar[i] = projected
				if bars[i].Low < ep {
					ep = bars[i].Low
					af = math.Min(af+s.AFIncrement, s.AFMax)
				}
			}
		}
	}

	return &PSARResult{SAR: sar, Trend: trend}
}
