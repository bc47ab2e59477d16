package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ForexTradeBot/config"
	"ForexTradeBot/internal/handlers"
	"ForexTradeBot/internal/logger"
	"ForexTradeBot/internal/metrics"
	"ForexTradeBot/internal/models"
	"ForexTradeBot/internal/operations/broker"
	"ForexTradeBot/internal/operations/monitor"
	"ForexTradeBot/internal/repositories"
	"ForexTradeBot/internal/services/trading"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)

	// Setup database
	db, err := setupDatabase(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.AutoMigrate(&models.SignalRecord{}, &models.OrderRecord{}); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate tables")
	}

	// Initialize repositories
	signalRepo := repositories.NewSignalRepository(db)
	orderRepo := repositories.NewOrderRepository(db)

	// Initialize broker adapter
	bkr := broker.NewBinanceBroker(cfg.Exchange.APIKey, cfg.Exchange.SecretKey, log)

	// Initialize trading services
	sizer := trading.NewRiskSizer(bkr, log)
	executor := trading.NewOrderExecutor(
		bkr, bkr, sizer,
		cfg.Trading.MaxRetries,
		time.Duration(cfg.Trading.RetryDelaySecs)*time.Second,
		cfg.Trading.SpreadCeiling,
		log,
	)
	handler := handlers.NewTradeHandler(bkr, sizer, executor, signalRepo, orderRepo, 100, log)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start real-time monitor
	mon := monitor.NewRealTimeMonitor(
		bkr,
		time.Duration(cfg.Monitor.IntervalSecs)*time.Second,
		cfg.Monitor.BarWindow,
		log,
	)
	mon.Subscribe(func(state monitor.MarketState) {
		log.Debug().
			Str("sentiment", state.Sentiment).
			Float64("avg_change", state.AverageChange).
			Int("symbols", len(state.Symbols)).
			Msg("market state")
	})
	if err := mon.Start(ctx, cfg.Symbols); err != nil {
		log.Fatal().Err(err).Msg("failed to start monitor")
	}

	// Start metrics endpoint
	metricsSrv := metrics.Serve(cfg.MetricsAddr)

	// Evaluate every symbol once per minute, on the minute
	go runEvaluationLoop(ctx, handler, cfg, log)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down")
	cancel()
	mon.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
}

func runEvaluationLoop(ctx context.Context, handler *handlers.TradeHandler, cfg *config.Config, log zerolog.Logger) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	risk := handlers.RiskParams{
		RiskPercent:    cfg.Trading.RiskPercent,
		StopLossPips:   cfg.Trading.StopLossPips,
		TakeProfitPips: cfg.Trading.TakeProfitPips,
		Deviation:      20,
	}

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			if t.Second() != 0 {
				continue
			}
			for _, symbol := range cfg.Symbols {
				decision, outcome, err := handler.EvaluateAndExecute(
					ctx, symbol, cfg.Trading.DefaultTimeframe, cfg.Trading.DefaultStrategy, risk)
				if err != nil {
					log.Warn().Str("symbol", symbol).Err(err).Msg("evaluation failed")
					continue
				}
				if outcome.Success {
					log.Info().
						Str("symbol", symbol).
						Str("direction", string(decision.Direction)).
						Int64("ticket", outcome.Ticket).
						Msg("trade opened")
				}
			}
		}
	}
}

func setupDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port)
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}
