// Package worker publishes reports on a cron schedule.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"spendview/internal/reports"
	"spendview/internal/services"
)

// Publisher builds a report and writes it to a sink.
type Publisher interface {
	Publish(ctx context.Context, sink reports.Sink, req services.Request) error
}

// Config holds configuration for the report worker
type Config struct {
	// Schedule is a standard five-field cron expression.
	Schedule string
	// Requests are published in order on every run. Date is filled in with
	// the run time.
	Requests []services.Request
	Location *time.Location
	// RunOnStart publishes once before waiting for the first tick.
	RunOnStart bool
}

// ReportWorker publishes the configured reports each time the schedule fires.
type ReportWorker struct {
	publisher Publisher
	sink      reports.Sink
	config    Config
	now       func() time.Time

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
	runs    int
}

// New creates a worker. The schedule is checked here so a bad expression
// fails at startup.
func New(publisher Publisher, sink reports.Sink, config Config) (*ReportWorker, error) {
	if _, err := cron.ParseStandard(config.Schedule); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", config.Schedule, err)
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if len(config.Requests) == 0 {
		config.Requests = []services.Request{{Kind: services.KindDashboard}}
	}
	return &ReportWorker{
		publisher: publisher,
		sink:      sink,
		config:    config,
		now:       time.Now,
	}, nil
}

// Start schedules the runs. Returns an error if already running. With
// RunOnStart the first run completes before Start returns.
func (w *ReportWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("report worker is already running")
	}

	c := cron.New(cron.WithLocation(w.config.Location))
	if _, err := c.AddFunc(w.config.Schedule, func() {
		if err := w.RunOnce(ctx); err != nil {
			slog.ErrorContext(ctx, "Scheduled report run failed", "error", err)
		}
	}); err != nil {
		w.mu.Unlock()
		return fmt.Errorf("schedule reports: %w", err)
	}

	c.Start()
	w.cron = c
	w.running = true
	w.mu.Unlock()

	slog.InfoContext(ctx, "Report worker started",
		"schedule", w.config.Schedule,
		"reports", len(w.config.Requests))

	// RunOnce takes w.mu itself.
	if w.config.RunOnStart {
		if err := w.RunOnce(ctx); err != nil {
			slog.ErrorContext(ctx, "Initial report run failed", "error", err)
		}
	}
	return nil
}

// Stop stops scheduling and waits for a run in progress.
func (w *ReportWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	c := w.cron
	w.running = false
	w.cron = nil
	w.mu.Unlock()

	select {
	case <-c.Stop().Done():
		slog.InfoContext(ctx, "Report worker stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Report worker stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the worker is currently scheduled
func (w *ReportWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Runs returns how many runs have completed.
func (w *ReportWorker) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// RunOnce publishes every configured report for the current time. A failed
// report does not stop the others; their errors are joined.
func (w *ReportWorker) RunOnce(ctx context.Context) error {
	date := w.now().In(w.config.Location).Format("2006-01-02 15:04:05")

	var errs []error
	for _, req := range w.config.Requests {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if req.Date == "" {
			req.Date = date
		}
		if err := w.publisher.Publish(ctx, w.sink, req); err != nil {
			errs = append(errs, fmt.Errorf("%s report: %w", req.Kind, err))
			continue
		}
		slog.InfoContext(ctx, "Published scheduled report", "kind", req.Kind, "reference_time", req.Date)
	}

	w.mu.Lock()
	w.runs++
	w.mu.Unlock()
	return errors.Join(errs...)
}
