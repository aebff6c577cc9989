package http

import (
	"context"
	"net/http"

	"spendview/internal/reports"
)

// ReportService is what the handlers need from the report layer.
type ReportService interface {
	Dashboard(ctx context.Context, date string) (reports.DashboardReport, error)
	Period(ctx context.Context, date, period string) (reports.PeriodReport, error)
	CategorySpending(ctx context.Context, category, date string, months int) (reports.CategorySpendingReport, error)
	Cashback(ctx context.Context, year, month int) (reports.CashbackReport, error)
}

// handleDashboard serves GET /api/dashboard?date=
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	date := DateParam(r.URL.Query(), s.now(), s.location)
	rep, err := s.reports.Dashboard(r.Context(), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rep)
}

// handleEvents serves GET /api/events?date=&period=
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := DateParam(q, s.now(), s.location)
	rep, err := s.reports.Period(r.Context(), date, sanitizeInput(q.Get("period")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rep)
}

// handleCategory serves GET /api/reports/category?category=&date=&months=
func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	months, err := IntParam(q, "months", reports.DefaultTrailing)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date := DateParam(q, s.now(), s.location)
	rep, err := s.reports.CategorySpending(r.Context(), sanitizeInput(q.Get("category")), date, months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rep)
}

// handleCashback serves GET /api/reports/cashback?year=&month=
func (s *Server) handleCashback(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now().In(s.location))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.reports.Cashback(r.Context(), p.Year, p.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rep)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady runs the readiness check, when one is configured.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
