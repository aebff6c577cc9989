package main

import (
	"context"
	"os"
	"time"

	"spendview/internal/amqp"
	"spendview/internal/cli"
	"spendview/internal/log"
	"spendview/internal/reports"
	"spendview/internal/reports/gcs"
	"spendview/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger = logger.WithComponent(log.ComponentWorker)
	logger.Info("Starting spendview-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	rep, err := cli.NewReports(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize reports", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer rep.Close()

	var sinks reports.MultiSink
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		sinks = append(sinks, amqpClient)
		logger.Info("Publishing reports to AMQP", "exchange", cfg.AMQPExchange, "routing_key", cfg.AMQPRoutingKey)
	}
	if cfg.GCSBucket != "" {
		bucket, err := gcs.New(context.Background(), cfg.GCSBucket, cfg.GCSPrefix)
		if err != nil {
			logger.Error("Failed to initialize GCS sink", log.FieldError, err)
			os.Exit(1)
		}
		defer bucket.Close()
		sinks = append(sinks, bucket)
		logger.Info("Publishing reports to GCS", "bucket", cfg.GCSBucket, "prefix", cfg.GCSPrefix)
	}
	if cfg.ReportOutput != "" {
		sinks = append(sinks, reports.NewFileSink(cfg.ReportOutput))
		logger.Info("Writing reports to file", "path", cfg.ReportOutput)
	}
	if len(sinks) == 0 {
		logger.Error("No report destination configured: set AMQP_URL, GCS_BUCKET or REPORT_OUTPUT")
		os.Exit(1)
	}

	w, err := worker.New(rep.Service, sinks, worker.Config{
		Schedule:   cfg.ReportSchedule,
		Location:   rep.Location,
		RunOnStart: cfg.ReportRunOnStart,
	})
	if err != nil {
		logger.Error("Failed to create report worker", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		logger.Info("Shutting down worker...")
		if err := w.Stop(ctx); err != nil {
			logger.Error("Worker shutdown error", log.FieldError, err)
		}
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("Failed to start report worker", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Report worker started", "schedule", cfg.ReportSchedule)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
