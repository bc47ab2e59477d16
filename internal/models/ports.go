package models

import (
	"context"
)

// Collaborator ports. These decouple the core from the concrete broker
// connection; the binance adapter satisfies all three.

// PriceSource supplies market data for one broker account.
type PriceSource interface {
	// Bars returns up to count most recent bars, chronological.
	Bars(ctx context.Context, symbol, timeframe string, count int) ([]Bar, error)

	// Quote returns the current bid/ask for a symbol.
	Quote(ctx context.Context, symbol string) (Quote, error)

	// ListSymbols returns every tradable symbol name the broker exposes.
	ListSymbols(ctx context.Context) ([]string, error)

	// SymbolLimits returns the trading constraints of a symbol.
	SymbolLimits(ctx context.Context, symbol string) (SymbolLimits, error)
}

// OrderSink accepts orders. Submit is not idempotent; callers must never
// issue concurrent submissions for the same logical intent.
type OrderSink interface {
	Submit(ctx context.Context, intent OrderIntent) (OrderResult, error)
	Close(ctx context.Context, ticket int64) (OrderResult, error)
	OpenPositions(ctx context.Context, symbol string) ([]PositionInfo, error)
}

// AccountSource reports account state.
type AccountSource interface {
	Balance(ctx context.Context) (float64, error)
}
