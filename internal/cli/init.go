// Package cli provides common CLI initialization utilities shared by
// cmd/spendview, cmd/spendview-worker and cmd/spendview-report.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendview/internal/analytics"
	"spendview/internal/backend"
	"spendview/internal/config"
	"spendview/internal/log"
	"spendview/internal/reports"
	"spendview/internal/services"
)

// SetupLogger initializes structured logging at level and makes it the
// process default.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	cfg.Format = os.Getenv("LOG_FORMAT")
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// AssemblerOptions maps the report settings of cfg onto assembler options.
func AssemblerOptions(cfg *config.Config, loc *time.Location) reports.Options {
	opts := reports.DefaultOptions()
	opts.TopKCategories = cfg.TopKCategories
	opts.TopNTransactions = cfg.TopNTransactions
	opts.AllowList = cfg.ReportAllowList
	opts.Estimator = analytics.NewEstimator(cfg.CashbackRate)
	opts.Location = loc
	if cfg.RollupOmitEmpty {
		opts.Rollup = analytics.RollupOmitEmpty
	}
	return opts
}

// Reports bundles a report service with the resources it holds open.
type Reports struct {
	Service  *services.ReportService
	Backend  *backend.BackendResult
	Market   backend.MarketResult
	Location *time.Location
}

// Close releases the backend and stops the market cache.
func (r *Reports) Close() error {
	r.Market.Close()
	return r.Backend.Close()
}

// NewReports opens the configured transaction backend and market feeds and
// wires them into a report service.
func NewReports(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Reports, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}
	storeLogger := logger.WithComponent(log.ComponentStorage)
	res, err := backend.NewFactory(storeLogger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	logger.Info("Transaction backend ready", log.FieldBackend, bcfg.Type.String())

	mkt := backend.NewMarket(cfg)
	svc := services.NewReportService(
		res.Source,
		mkt.Fetcher,
		reports.NewAssembler(AssemblerOptions(cfg, loc)),
		services.ReportConfig{
			SettingsFile: cfg.UserSettingsFile,
			StrictPeriod: cfg.StrictPeriod,
			Location:     loc,
		},
		logger,
	)
	return &Reports{Service: svc, Backend: res, Market: mkt, Location: loc}, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// The returned context is cancelled once a shutdown signal arrives and
// cleanup has run. done is closed after that.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
