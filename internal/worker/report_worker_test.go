package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"spendview/internal/reports"
	"spendview/internal/services"
)

type fakePublisher struct {
	mu   sync.Mutex
	reqs []services.Request
	fail map[string]error
}

func (f *fakePublisher) Publish(_ context.Context, _ reports.Sink, req services.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.fail[req.Kind]
}

func TestNewRejectsBadSchedule(t *testing.T) {
	if _, err := New(&fakePublisher{}, nil, Config{Schedule: "every morning"}); err == nil {
		t.Fatal("expected schedule error")
	}
}

func TestRunOnce(t *testing.T) {
	pub := &fakePublisher{fail: map[string]error{services.KindPeriod: errors.New("source down")}}
	w, err := New(pub, nil, Config{
		Schedule: "0 8 * * *",
		Location: time.UTC,
		Requests: []services.Request{
			{Kind: services.KindDashboard},
			{Kind: services.KindPeriod, Period: "W"},
			{Kind: services.KindCashback, Year: 2024, Month: 1},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.now = func() time.Time { return time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC) }

	err = w.RunOnce(context.Background())
	if err == nil || !strings.Contains(err.Error(), "period report: source down") {
		t.Fatalf("expected joined period error, got %v", err)
	}
	if len(pub.reqs) != 3 {
		t.Fatalf("a failing report must not stop the rest: %+v", pub.reqs)
	}
	if pub.reqs[0].Date != "2024-01-31 08:00:00" {
		t.Fatalf("date = %q", pub.reqs[0].Date)
	}
	if w.Runs() != 1 {
		t.Fatalf("runs = %d", w.Runs())
	}
}

func TestDefaultRequestIsDashboard(t *testing.T) {
	pub := &fakePublisher{}
	w, err := New(pub, nil, Config{Schedule: "@daily"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(pub.reqs) != 1 || pub.reqs[0].Kind != services.KindDashboard {
		t.Fatalf("unexpected requests %+v", pub.reqs)
	}
}

func TestStartStop(t *testing.T) {
	pub := &fakePublisher{}
	w, err := New(pub, nil, Config{Schedule: "0 8 * * *", RunOnStart: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	started := make(chan error, 1)
	go func() { started <- w.Start(ctx) }()
	select {
	case err := <-started:
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Start with RunOnStart did not return")
	}
	if !w.IsRunning() {
		t.Fatal("worker should be running")
	}
	if err := w.Start(ctx); err == nil {
		t.Fatal("expected error when starting twice")
	}
	if w.Runs() != 1 || len(pub.reqs) != 1 {
		t.Fatalf("RunOnStart should publish once, runs = %d", w.Runs())
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if w.IsRunning() {
		t.Fatal("worker should be stopped")
	}
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
