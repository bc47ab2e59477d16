package broker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"ForexTradeBot/internal/models"
)

// timeframe names used by the core mapped to exchange interval strings.
var intervals = map[string]string{
	models.TimeFrameM1:  "1m",
	models.TimeFrameM5:  "5m",
	models.TimeFrameM15: "15m",
	models.TimeFrameM30: "30m",
	models.TimeFrameH1:  "1h",
	models.TimeFrameH4:  "4h",
	models.TimeFrameD1:  "1d",
}

// BinanceBroker adapts the futures REST API to the PriceSource, OrderSink
// and AccountSource ports. All calls go through one shared rate limiter and
// a bounded exponential-backoff retry.
type BinanceBroker struct {
	client      *futures.Client
	rateLimiter *rate.Limiter
	httpClient  *http.Client
	log         zerolog.Logger

	mu      sync.Mutex
	tickets map[int64]string // order id -> symbol, for market closes
}

func NewBinanceBroker(apiKey, secretKey string, log zerolog.Logger) *BinanceBroker {
	httpClient := &http.Client{
		Timeout: time.Second * 10,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	client := futures.NewClient(apiKey, secretKey)
	client.HTTPClient = httpClient

	return &BinanceBroker{
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Limit(10), 20),
		httpClient:  httpClient,
		log:         log.With().Str("component", "broker").Logger(),
		tickets:     make(map[int64]string),
	}
}

// withRetry runs op through the rate limiter with up to 3 retries and
// exponential backoff starting at 100ms.
func (b *BinanceBroker) withRetry(ctx context.Context, op func() error) error {
	const maxRetries = 3
	backoff := 100 * time.Millisecond

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if werr := b.rateLimiter.Wait(ctx); werr != nil {
			return werr
		}

		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries {
			return err
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * backoff
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
	return err
}

func (b *BinanceBroker) Bars(ctx context.Context, symbol, timeframe string, count int) ([]models.Bar, error) {
	interval, ok := intervals[timeframe]
	if !ok {
		return nil, fmt.Errorf("unknown timeframe %q", timeframe)
	}

	var klines []*futures.Kline
	err := b.withRetry(ctx, func() error {
		var kerr error
		klines, kerr = b.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(count).
			Do(ctx)
		return kerr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch klines for %s: %w", symbol, err)
	}

	bars := make([]models.Bar, 0, len(klines))
	for _, k := range klines {
		bars = append(bars, models.Bar{
			Time:       time.UnixMilli(k.OpenTime),
			Open:       parseFloat(k.Open),
			High:       parseFloat(k.High),
			Low:        parseFloat(k.Low),
			Close:      parseFloat(k.Close),
			TickVolume: parseFloat(k.Volume),
		})
	}
	return bars, nil
}

func (b *BinanceBroker) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	var tickers []*futures.BookTicker
	err := b.withRetry(ctx, func() error {
		var terr error
		tickers, terr = b.client.NewListBookTickersService().Symbol(symbol).Do(ctx)
		return terr
	})
	if err != nil {
		return models.Quote{}, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}
	if len(tickers) == 0 {
		return models.Quote{}, fmt.Errorf("no quote for %s", symbol)
	}

	bid := parseFloat(tickers[0].BidPrice)
	ask := parseFloat(tickers[0].AskPrice)
	return models.Quote{
		Bid:    bid,
		Ask:    ask,
		Spread: ask - bid,
		Time:   time.Now(),
	}, nil
}

func (b *BinanceBroker) ListSymbols(ctx context.Context) ([]string, error) {
	info, err := b.exchangeInfo(ctx)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		symbols = append(symbols, s.Symbol)
	}
	return symbols, nil
}

func (b *BinanceBroker) SymbolLimits(ctx context.Context, symbol string) (models.SymbolLimits, error) {
	info, err := b.exchangeInfo(ctx)
	if err != nil {
		return models.SymbolLimits{}, err
	}

	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}
		limits := models.SymbolLimits{
			Symbol:   symbol,
			Digits:   s.PricePrecision,
			Tradable: s.Status == "TRADING",
		}
		if pf := s.PriceFilter(); pf != nil {
			limits.Point = parseFloat(pf.TickSize)
			limits.TickSize = limits.Point
		}
		if lf := s.LotSizeFilter(); lf != nil {
			limits.MinVolume = parseFloat(lf.MinQuantity)
			limits.MaxVolume = parseFloat(lf.MaxQuantity)
			limits.VolumeStep = parseFloat(lf.StepSize)
		}
		return limits, nil
	}
	return models.SymbolLimits{}, fmt.Errorf("symbol %s not found", symbol)
}

func (b *BinanceBroker) exchangeInfo(ctx context.Context) (*futures.ExchangeInfo, error) {
	var info *futures.ExchangeInfo
	err := b.withRetry(ctx, func() error {
		var ierr error
		info, ierr = b.client.NewExchangeInfoService().Do(ctx)
		return ierr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch exchange info: %w", err)
	}
	return info, nil
}

func (b *BinanceBroker) Submit(ctx context.Context, intent models.OrderIntent) (models.OrderResult, error) {
	side := futures.SideTypeBuy
	closeSide := futures.SideTypeSell
	if intent.Direction == models.OrderDirectionSell {
		side = futures.SideTypeSell
		closeSide = futures.SideTypeBuy
	}

	if err := b.rateLimiter.Wait(ctx); err != nil {
		return models.OrderResult{Code: models.RetConnection}, err
	}

	quantity := strconv.FormatFloat(intent.Volume, 'f', -1, 64)
	order, err := b.client.NewCreateOrderService().
		Symbol(intent.Symbol).
		Side(side).
		Type(futures.OrderTypeMarket).
		Quantity(quantity).
		NewClientOrderID(intent.Tag).
		Do(ctx)
	if err != nil {
		return models.OrderResult{Code: classifyError(err)}, nil
	}

	b.mu.Lock()
	b.tickets[order.OrderID] = intent.Symbol
	b.mu.Unlock()

	// Protective orders ride alongside the fill. Their failure does not
	// undo the position; it is logged for the operator.
	if intent.StopLoss > 0 {
		b.placeProtective(ctx, intent.Symbol, closeSide, futures.OrderTypeStopMarket, intent.StopLoss)
	}
	if intent.TakeProfit > 0 {
		b.placeProtective(ctx, intent.Symbol, closeSide, futures.OrderTypeTakeProfitMarket, intent.TakeProfit)
	}

	return models.OrderResult{Code: models.RetDone, Ticket: order.OrderID}, nil
}

func (b *BinanceBroker) placeProtective(ctx context.Context, symbol string, side futures.SideType, orderType futures.OrderType, price float64) {
	_, err := b.client.NewCreateOrderService().
		Symbol(symbol).
		Side(side).
		Type(orderType).
		StopPrice(strconv.FormatFloat(price, 'f', -1, 64)).
		ClosePosition(true).
		Do(ctx)
	if err != nil {
		b.log.Warn().
			Str("symbol", symbol).
			Str("type", string(orderType)).
			Float64("price", price).
			Err(err).
			Msg("failed to place protective order")
	}
}

func (b *BinanceBroker) Close(ctx context.Context, ticket int64) (models.OrderResult, error) {
	b.mu.Lock()
	symbol, ok := b.tickets[ticket]
	b.mu.Unlock()
	if !ok {
		return models.OrderResult{Code: models.RetRejected}, fmt.Errorf("unknown ticket %d", ticket)
	}

	positions, err := b.OpenPositions(ctx, symbol)
	if err != nil {
		return models.OrderResult{Code: models.RetConnection}, err
	}

	for _, pos := range positions {
		if pos.Symbol != symbol {
			continue
		}
		side := futures.SideTypeSell
		if pos.Direction == models.OrderDirectionSell {
			side = futures.SideTypeBuy
		}
		if err := b.rateLimiter.Wait(ctx); err != nil {
			return models.OrderResult{Code: models.RetConnection}, err
		}
		order, cerr := b.client.NewCreateOrderService().
			Symbol(symbol).
			Side(side).
			Type(futures.OrderTypeMarket).
			Quantity(strconv.FormatFloat(pos.Volume, 'f', -1, 64)).
			ReduceOnly(true).
			Do(ctx)
		if cerr != nil {
			return models.OrderResult{Code: classifyError(cerr)}, nil
		}
		b.mu.Lock()
		delete(b.tickets, ticket)
		b.mu.Unlock()
		return models.OrderResult{Code: models.RetDone, Ticket: order.OrderID}, nil
	}
	return models.OrderResult{Code: models.RetRejected}, fmt.Errorf("no open position for %s", symbol)
}

func (b *BinanceBroker) OpenPositions(ctx context.Context, symbol string) ([]models.PositionInfo, error) {
	var risks []*futures.PositionRisk
	err := b.withRetry(ctx, func() error {
		var perr error
		svc := b.client.NewGetPositionRiskService()
		if symbol != "" {
			svc = svc.Symbol(symbol)
		}
		risks, perr = svc.Do(ctx)
		return perr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch positions: %w", err)
	}

	var positions []models.PositionInfo
	for _, r := range risks {
		amt := parseFloat(r.PositionAmt)
		if amt == 0 {
			continue
		}
		direction := models.OrderDirectionBuy
		if amt < 0 {
			direction = models.OrderDirectionSell
		}
		positions = append(positions, models.PositionInfo{
			Symbol:       r.Symbol,
			Direction:    direction,
			Volume:       math.Abs(amt),
			OpenPrice:    parseFloat(r.EntryPrice),
			CurrentPrice: parseFloat(r.MarkPrice),
			Profit:       parseFloat(r.UnRealizedProfit),
		})
	}
	return positions, nil
}

func (b *BinanceBroker) Balance(ctx context.Context) (float64, error) {
	var balances []*futures.Balance
	err := b.withRetry(ctx, func() error {
		var berr error
		balances, berr = b.client.NewGetBalanceService().Do(ctx)
		return berr
	})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch balance: %w", err)
	}

	for _, bal := range balances {
		if bal.Asset == "USDT" {
			return parseFloat(bal.Balance), nil
		}
	}
	return 0, errors.New("no USDT balance found")
}

// classifyError maps an API failure onto the executor's retryable/terminal
// retcode set.
func classifyError(err error) models.RetCode {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case -1003:
			return models.RetTooManyRequests
		case -1021: // timestamp out of recv window
			return models.RetTimeout
		case -2019:
			return models.RetNoMoney
		case -4164, -1111:
			return models.RetInvalidVolume
		case -2021:
			return models.RetInvalidStops
		}
		if apiErr.Code <= -1100 && apiErr.Code > -1200 {
			return models.RetRejected
		}
		return models.RetRejected
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.RetTimeout
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "connection") {
		return models.RetConnection
	}
	return models.RetConnection
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
