package trading

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ForexTradeBot/internal/models"
)

// RiskSizer converts an account risk percentage into a broker-valid lot
// size. Sizing fails closed: any error yields zero volume, never a guess.
type RiskSizer struct {
	account models.AccountSource
	log     zerolog.Logger
}

func NewRiskSizer(account models.AccountSource, log zerolog.Logger) *RiskSizer {
	return &RiskSizer{
		account: account,
		log:     log.With().Str("component", "risk_sizer").Logger(),
	}
}

// LotSize computes the volume that risks riskPercent of the current balance
// over a stopLossPips move, snapped to the symbol's volume step and clamped
// to its min/max.
func (s *RiskSizer) LotSize(ctx context.Context, limits models.SymbolLimits, riskPercent, stopLossPips float64) (float64, error) {
	balance, err := s.account.Balance(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get account balance: %w", err)
	}
	if balance <= 0 {
		return 0, fmt.Errorf("account balance %.2f is not positive", balance)
	}

	riskAmount := balance * riskPercent / 100.0

	var lot float64
	switch {
	case stopLossPips > 0 && limits.TickValue > 0 && limits.TickSize > 0:
		lot = (riskAmount / stopLossPips) / limits.TickValue
	case stopLossPips > 0:
		lot = riskAmount / (stopLossPips * 10)
	default:
		lot = riskAmount / 1000.0
	}

	lot = snapToStep(lot, limits.VolumeStep)
	lot = math.Max(limits.MinVolume, math.Min(lot, limits.MaxVolume))
	lot, _ = decimal.NewFromFloat(lot).Round(2).Float64()

	s.log.Info().
		Str("symbol", limits.Symbol).
		Float64("lot", lot).
		Float64("risk_percent", riskPercent).
		Msg("position size calculated")

	return lot, nil
}

// snapToStep rounds a volume to the nearest multiple of the broker's step.
// Decimal arithmetic avoids float drift on steps like 0.01.
func snapToStep(lot, step float64) float64 {
	if step <= 0 {
		return lot
	}
	d := decimal.NewFromFloat(lot)
	st := decimal.NewFromFloat(step)
	snapped, _ := d.Div(st).Round(0).Mul(st).Float64()
	return snapped
}

// StopLevels derives absolute stop-loss and take-profit prices from pip
// offsets, pushing either level out to the symbol's minimum stop distance
// when it lands too close. A pip count of zero disables that level.
func (s *RiskSizer) StopLevels(limits models.SymbolLimits, price float64, direction models.OrderDirection, stopLossPips, takeProfitPips float64) (stopLoss, takeProfit float64) {
	point := limits.Point

	minStop := 10 * point
	if limits.MinStopDistance > 0 {
		minStop = limits.MinStopDistance * point
	}
	minStop = math.Max(minStop, 10*point)

	side := 1.0
	if direction == models.OrderDirectionSell {
		side = -1.0
	}

	if stopLossPips > 0 {
		stopLoss = price - side*stopLossPips*point
		if side*(price-stopLoss) < minStop {
			stopLoss = price - side*minStop
			s.log.Warn().
				Str("symbol", limits.Symbol).
				Float64("min_stop_points", minStop/point).
				Msg("stop loss pushed out to minimum distance")
		}
	}

	if takeProfitPips > 0 {
		takeProfit = price + side*takeProfitPips*point
		if side*(takeProfit-price) < minStop {
			takeProfit = price + side*minStop
			s.log.Warn().
				Str("symbol", limits.Symbol).
				Float64("min_stop_points", minStop/point).
				Msg("take profit pushed out to minimum distance")
		}
	}

	if stopLoss > 0 {
		stopLoss = roundTo(stopLoss, limits.Digits)
	}
	if takeProfit > 0 {
		takeProfit = roundTo(takeProfit, limits.Digits)
	}
	return stopLoss, takeProfit
}

func roundTo(value float64, digits int) float64 {
	scale := math.Pow10(digits)
	return math.Round(value*scale) / scale
}
