package models

import (
	"time"
)

// SignalRecord is the persisted audit row for one strategy evaluation.
// The core never reads these back when deciding; they exist for review.
type SignalRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Symbol    string `gorm:"index;not null"`
	TimeFrame string `gorm:"not null"`
	Strategy  string `gorm:"index;not null"`
	Direction string `gorm:"not null"`
	Strength  float64
	Factors   string // comma-joined factor names
	CreatedAt time.Time `gorm:"index"`
}

func (SignalRecord) TableName() string {
	return "signals"
}
