package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"spendview/internal/cli"
	apphttp "spendview/internal/http"
	"spendview/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	rep, err := cli.NewReports(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize reports", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer rep.Close()

	srv := apphttp.NewServer(":"+cfg.Port, rep.Service, apphttp.Options{
		Logger:   logger.WithComponent(log.ComponentHTTP),
		Location: rep.Location,
		Ready: func(ctx context.Context) error {
			_, err := rep.Backend.Source.Load(ctx)
			return err
		},
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting spendview server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
