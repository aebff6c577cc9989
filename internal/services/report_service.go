package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"spendview/internal/core"
	"spendview/internal/log"
	"spendview/internal/market"
	"spendview/internal/reports"
	"spendview/internal/settings"
	"spendview/internal/sources"
)

// Report kinds, also used as sink names and routing hints.
const (
	KindDashboard = "dashboard"
	KindPeriod    = "period"
	KindCategory  = "category"
	KindCashback  = "cashback"
)

// MarketFetcher supplies the market data shown next to a report.
type MarketFetcher interface {
	Fetch(ctx context.Context, req market.Request) (reports.Market, error)
}

// ReportConfig carries the request-independent report settings.
type ReportConfig struct {
	SettingsFile string
	StrictPeriod bool
	Location     *time.Location
}

// Request describes one report to build. Fields that do not apply to Kind
// are ignored.
type Request struct {
	Kind     string
	Date     string
	Period   string
	Category string
	Months   int
	Year     int
	Month    int
}

// ReportService loads the transaction store and market data and hands them
// to the assembler.
type ReportService struct {
	source    sources.TransactionSource
	market    MarketFetcher
	assembler *reports.Assembler
	cfg       ReportConfig
	logger    *log.StructuredLogger
}

// NewReportService wires a report service. market may be nil, in which case
// reports carry empty rate and price maps.
func NewReportService(source sources.TransactionSource, market MarketFetcher, assembler *reports.Assembler, cfg ReportConfig, logger *log.Logger) *ReportService {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ReportService{
		source:    source,
		market:    market,
		assembler: assembler,
		cfg:       cfg,
		logger:    log.NewStructuredLogger(logger.WithComponent(log.ComponentReports)),
	}
}

// Dashboard builds the dashboard at the reference time in date.
func (s *ReportService) Dashboard(ctx context.Context, date string) (reports.DashboardReport, error) {
	ref, err := core.ParseReferenceTime(date, s.cfg.Location)
	if err != nil {
		return reports.DashboardReport{}, err
	}
	txs, err := s.load(ctx)
	if err != nil {
		return reports.DashboardReport{}, err
	}
	m, err := s.fetchMarket(ctx)
	if err != nil {
		return reports.DashboardReport{}, err
	}
	out, err := s.assembler.Dashboard(txs, ref, m)
	if err != nil {
		return reports.DashboardReport{}, err
	}
	s.logger.LogReportBuilt(ctx, KindDashboard, "", date, len(txs))
	return out, nil
}

// Period builds the income and expense breakdown for the period code.
func (s *ReportService) Period(ctx context.Context, date, period string) (reports.PeriodReport, error) {
	ref, err := core.ParseReferenceTime(date, s.cfg.Location)
	if err != nil {
		return reports.PeriodReport{}, err
	}
	p, err := core.ParsePeriod(period, s.cfg.StrictPeriod)
	if err != nil {
		return reports.PeriodReport{}, err
	}
	txs, err := s.load(ctx)
	if err != nil {
		return reports.PeriodReport{}, err
	}
	m, err := s.fetchMarket(ctx)
	if err != nil {
		return reports.PeriodReport{}, err
	}
	out, err := s.assembler.Period(txs, ref, p, m)
	if err != nil {
		return reports.PeriodReport{}, err
	}
	s.logger.LogReportBuilt(ctx, KindPeriod, p.String(), date, len(txs))
	return out, nil
}

// CategorySpending reports the spend of category over the months trailing
// date. months <= 0 means the default trailing window.
func (s *ReportService) CategorySpending(ctx context.Context, category, date string, months int) (reports.CategorySpendingReport, error) {
	ref, err := core.ParseReferenceTime(date, s.cfg.Location)
	if err != nil {
		return reports.CategorySpendingReport{}, err
	}
	if strings.TrimSpace(category) == "" {
		return reports.CategorySpendingReport{}, fmt.Errorf("%w: empty category", ErrInvalidRequest)
	}
	txs, err := s.load(ctx)
	if err != nil {
		return reports.CategorySpendingReport{}, err
	}
	out, err := s.assembler.CategorySpending(txs, category, ref, months)
	if err != nil {
		return reports.CategorySpendingReport{}, err
	}
	s.logger.LogReportBuilt(ctx, KindCategory, "", date, len(txs))
	return out, nil
}

// Cashback reports the estimated cashback per category for year and month.
func (s *ReportService) Cashback(ctx context.Context, year, month int) (reports.CashbackReport, error) {
	if month < 1 || month > 12 {
		return reports.CashbackReport{}, fmt.Errorf("month %d: %w", month, core.ErrInvalidTimestamp)
	}
	txs, err := s.load(ctx)
	if err != nil {
		return reports.CashbackReport{}, err
	}
	out, err := s.assembler.Cashback(txs, year, time.Month(month))
	if err != nil {
		return reports.CashbackReport{}, err
	}
	s.logger.LogReportBuilt(ctx, KindCashback, "", fmt.Sprintf("%04d-%02d", year, month), len(txs))
	return out, nil
}

// Build dispatches req to the matching report.
func (s *ReportService) Build(ctx context.Context, req Request) (any, error) {
	switch req.Kind {
	case KindDashboard, "":
		return s.Dashboard(ctx, req.Date)
	case KindPeriod:
		return s.Period(ctx, req.Date, req.Period)
	case KindCategory:
		return s.CategorySpending(ctx, req.Category, req.Date, req.Months)
	case KindCashback:
		return s.Cashback(ctx, req.Year, req.Month)
	default:
		return nil, fmt.Errorf("%w: unknown report kind %q", ErrInvalidRequest, req.Kind)
	}
}

// Publish builds req and writes the result to sink.
func (s *ReportService) Publish(ctx context.Context, sink reports.Sink, req Request) error {
	report, err := s.Build(ctx, req)
	if err != nil {
		return err
	}
	kind := req.Kind
	if kind == "" {
		kind = KindDashboard
	}
	if err := sink.Write(ctx, kind, report); err != nil {
		return fmt.Errorf("write %s report: %w", kind, err)
	}
	return nil
}

func (s *ReportService) load(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.source.Load(ctx)
	if err != nil {
		s.logger.LogError(ctx, "Failed to load transactions", err, log.ComponentSource, log.OpLoad, nil)
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return txs, nil
}

func (s *ReportService) fetchMarket(ctx context.Context) (reports.Market, error) {
	if s.market == nil {
		return reports.Market{}, nil
	}
	us, err := settings.Load(s.cfg.SettingsFile)
	if err != nil {
		return reports.Market{}, fmt.Errorf("user settings: %w", err)
	}
	m, err := s.market.Fetch(ctx, market.Request{Currencies: us.Currencies, Stocks: us.Stocks})
	if err != nil {
		fields := log.NewFields()
		fields[log.FieldCurrencies] = len(us.Currencies)
		fields[log.FieldStocks] = len(us.Stocks)
		s.logger.LogError(ctx, "Failed to fetch market data", err, log.ComponentMarket, log.OpFetch, fields)
		return reports.Market{}, fmt.Errorf("fetch market data: %w", err)
	}
	return m, nil
}
