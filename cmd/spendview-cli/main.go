package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"spendview/internal/cli"
	"spendview/internal/config"
	"spendview/internal/log"
	"spendview/internal/reports"
	"spendview/internal/services"
	"spendview/internal/sources/xlsx"
	"spendview/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentCLI)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "report":
		runReport(logger)
	case "import":
		runImport(logger)
	case "migrate":
		runMigrate(logger)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("spendview CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  spendview-cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  report    Build a report and print it as JSON")
	fmt.Println("  import    Copy an operations workbook into the SQLite store")
	fmt.Println("  migrate   Apply SQLite schema migrations")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'spendview-cli <command> -h' for more information on a command.")
}

func runReport(logger *log.Logger) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	kind := fs.String("kind", services.KindDashboard, "report kind: dashboard, period, category or cashback")
	date := fs.String("date", "", "reference date, e.g. 2024-05-17 or '2024-05-17 10:00:00' (default now)")
	period := fs.String("period", "M", "period code for the period report: W, M, Y or ALL")
	category := fs.String("category", "", "category for the category report")
	months := fs.Int("months", reports.DefaultTrailing, "trailing months for the category report")
	year := fs.Int("year", 0, "year for the cashback report (default current)")
	month := fs.Int("month", 0, "month for the cashback report (default current)")
	output := fs.String("output", "", "write the report to this file instead of stdout")
	fs.Parse(os.Args[2:])

	cfg := cli.LoadAndValidateConfig(logger)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rep, err := cli.NewReports(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize reports", log.FieldError, err)
		os.Exit(1)
	}
	defer rep.Close()

	now := time.Now().In(rep.Location)
	req := services.Request{
		Kind:     *kind,
		Date:     *date,
		Period:   *period,
		Category: *category,
		Months:   *months,
		Year:     *year,
		Month:    *month,
	}
	if req.Date == "" {
		req.Date = now.Format("2006-01-02 15:04:05")
	}
	if req.Year == 0 {
		req.Year = now.Year()
	}
	if req.Month == 0 {
		req.Month = int(now.Month())
	}

	var sink reports.Sink = reports.WriterSink{W: os.Stdout}
	if *output != "" {
		sink = reports.NewFileSink(*output)
	}
	if err := rep.Service.Publish(ctx, sink, req); err != nil {
		logger.Error("Report failed", log.FieldError, err, log.FieldReport, req.Kind)
		os.Exit(1)
	}
}

func runImport(logger *log.Logger) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "operations workbook (default OPERATIONS_FILE)")
	sheet := fs.String("sheet", "", "sheet name (default OPERATIONS_SHEET or the first sheet)")
	dbPath := fs.String("db", "", "SQLite database path (default SQLITE_DB_PATH)")
	fs.Parse(os.Args[2:])

	cfg := config.Load()
	if *file == "" {
		*file = cfg.OperationsFile
	}
	if *sheet == "" {
		*sheet = cfg.OperationsSheet
	}
	if *dbPath == "" {
		*dbPath = cfg.SQLiteDBPath
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(*dbPath, loc)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", *dbPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := services.NewImportService(xlsx.New(*file, *sheet, loc), repo).Import(ctx)
	if err != nil {
		logger.Error("Import failed", log.FieldError, err, "file", *file)
		os.Exit(1)
	}
	logger.Info("Import complete",
		log.FieldOperation, log.OpImport,
		log.FieldRows, res.Read,
		log.FieldInserted, res.Inserted,
		"skipped", res.Skipped())
	fmt.Printf("Imported %d of %d transactions (%d already stored).\n", res.Inserted, res.Read, res.Skipped())
}

func runMigrate(logger *log.Logger) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dbPath := fs.String("db", "", "SQLite database path (default SQLITE_DB_PATH)")
	fs.Parse(os.Args[2:])

	if *dbPath == "" {
		*dbPath = config.Load().SQLiteDBPath
	}
	version, err := storage.RunMigrations(*dbPath)
	if err != nil {
		logger.Error("Migration failed", log.FieldError, err, "path", *dbPath)
		os.Exit(1)
	}
	logger.Info("Migrations applied", log.FieldOperation, log.OpMigrate, "version", version)
}
