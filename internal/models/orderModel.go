package models

import (
	"time"
)

type OrderDirection string

const (
	OrderDirectionBuy  OrderDirection = "BUY"
	OrderDirectionSell OrderDirection = "SELL"
)

// OrderIntent is the fully-resolved order the executor hands to the broker.
// Built immediately before submission; prices are absolute, not pip offsets.
type OrderIntent struct {
	Symbol     string
	Direction  OrderDirection
	Volume     float64
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Deviation  int
	Tag        string
}

// RetCode classifies a broker submission result. The set mirrors the return
// codes a dealing server reports; the executor only distinguishes done,
// retryable, and terminal.
type RetCode int

const (
	RetDone RetCode = iota
	RetTimeout
	RetRequote
	RetPriceChanged
	RetPriceOff
	RetTooManyRequests
	RetConnection
	RetNoMoney
	RetTradeDisabled
	RetInvalidVolume
	RetInvalidStops
	RetMarketClosed
	RetRejected
)

// Retryable reports whether a fresh attempt with re-prepared prices can
// reasonably succeed.
func (c RetCode) Retryable() bool {
	switch c {
	case RetTimeout, RetRequote, RetPriceChanged, RetPriceOff, RetTooManyRequests, RetConnection:
		return true
	}
	return false
}

func (c RetCode) String() string {
	switch c {
	case RetDone:
		return "done"
	case RetTimeout:
		return "timeout"
	case RetRequote:
		return "requote"
	case RetPriceChanged:
		return "price changed"
	case RetPriceOff:
		return "no quotes"
	case RetTooManyRequests:
		return "too many requests"
	case RetConnection:
		return "no connection"
	case RetNoMoney:
		return "insufficient funds"
	case RetTradeDisabled:
		return "trading disabled"
	case RetInvalidVolume:
		return "invalid volume"
	case RetInvalidStops:
		return "invalid stop levels"
	case RetMarketClosed:
		return "market closed"
	case RetRejected:
		return "rejected"
	}
	return "unknown"
}

// OrderResult is the broker's answer to one submission attempt.
type OrderResult struct {
	Code   RetCode
	Ticket int64
}

// OrderOutcome is the executor's terminal report to the caller. StopLoss and
// TakeProfit carry the levels actually submitted on the successful attempt.
type OrderOutcome struct {
	Success    bool
	Message    string
	Ticket     int64
	Attempts   int
	StopLoss   float64
	TakeProfit float64
}

// PositionInfo is an open position as reported by the broker.
type PositionInfo struct {
	Ticket       int64
	Symbol       string
	Direction    OrderDirection
	Volume       float64
	OpenPrice    float64
	CurrentPrice float64
	StopLoss     float64
	TakeProfit   float64
	Profit       float64
	OpenTime     time.Time
}

// OrderRecord is the persisted audit row for one execution attempt chain.
type OrderRecord struct {
	ID         uint   `gorm:"primaryKey"`
	Symbol     string `gorm:"index;not null"`
	Direction  string `gorm:"not null"`
	Volume     float64
	StopLoss   float64 `gorm:"type:decimal(20,8)"`
	TakeProfit float64 `gorm:"type:decimal(20,8)"`
	Success    bool
	Message    string
	Ticket     int64
	Attempts   int
	CreatedAt  time.Time
}

func (OrderRecord) TableName() string {
	return "orders"
}
