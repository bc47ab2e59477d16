package indicators

import (
	"math"

	"ForexTradeBot/internal/models"
)

// Frame is an ordered bar sequence augmented with named derived columns.
// Warm-up regions hold NaN; a column value at index i depends only on bars
// at index <= i.
type Frame struct {
	Bars []models.Bar

	columns map[string][]float64
}

func NewFrame(bars []models.Bar) *Frame {
	return &Frame{
		Bars:    bars,
		columns: make(map[string][]float64),
	}
}

func (f *Frame) Len() int {
	return len(f.Bars)
}

// Set attaches a derived column. Shorter slices are padded with NaN so every
// column spans the full bar sequence.
func (f *Frame) Set(name string, values []float64) {
	n := len(f.Bars)
	col := make([]float64, n)
	for i := range col {
		if i < len(values) {
			col[i] = values[i]
		} else {
			col[i] = math.NaN()
		}
	}
	f.columns[name] = col
}

// Column returns the named column, or nil when absent.
func (f *Frame) Column(name string) []float64 {
	return f.columns[name]
}

// Has reports whether every named column is present.
func (f *Frame) Has(names ...string) bool {
	for _, name := range names {
		if _, ok := f.columns[name]; !ok {
			return false
		}
	}
	return true
}

// At returns the column value at index i, NaN when the column or index is
// missing.
func (f *Frame) At(name string, i int) float64 {
	col, ok := f.columns[name]
	if !ok || i < 0 || i >= len(col) {
		return math.NaN()
	}
	return col[i]
}

// Latest returns the value at the last bar.
func (f *Frame) Latest(name string) float64 {
	return f.At(name, f.Len()-1)
}

// Prev returns the value at the second-to-last bar.
func (f *Frame) Prev(name string) float64 {
	return f.At(name, f.Len()-2)
}

// LatestBar returns the most recent bar. Callers must check Len first.
func (f *Frame) LatestBar() models.Bar {
	return f.Bars[f.Len()-1]
}

func defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
