package models

import (
	"time"
)

// Bar is one OHLC sample for a symbol and timeframe. The core treats bar
// sequences as chronological, read-only input.
type Bar struct {
	Time       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	TickVolume float64
	Spread     float64
}

// Quote is the current top-of-book snapshot for a symbol.
type Quote struct {
	Bid    float64
	Ask    float64
	Spread float64
	Time   time.Time
}

// SymbolLimits describes the broker-imposed trading constraints of a symbol.
type SymbolLimits struct {
	Symbol          string
	Point           float64 // minimum price increment
	Digits          int
	MinVolume       float64
	MaxVolume       float64
	VolumeStep      float64
	TickValue       float64 // account-currency value of one tick per lot
	TickSize        float64
	MinStopDistance float64 // in points
	Tradable        bool
}

const (
	TimeFrameM1  = "M1"
	TimeFrameM5  = "M5"
	TimeFrameM15 = "M15"
	TimeFrameM30 = "M30"
	TimeFrameH1  = "H1"
	TimeFrameH4  = "H4"
	TimeFrameD1  = "D1"
)

// Closes extracts the close series from a bar sequence.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
