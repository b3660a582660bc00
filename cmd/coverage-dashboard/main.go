package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"

	"github.com/testops/coverage-dashboard/internal/archive"
	"github.com/testops/coverage-dashboard/internal/config"
	"github.com/testops/coverage-dashboard/internal/dashboard"
	"github.com/testops/coverage-dashboard/internal/db"
	"github.com/testops/coverage-dashboard/internal/export"
	"github.com/testops/coverage-dashboard/internal/metrics"
	"github.com/testops/coverage-dashboard/internal/server"
	"github.com/testops/coverage-dashboard/internal/testrail"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "export":
		cmdExport(os.Args[2:])
	case "units":
		cmdUnits(os.Args[2:])
	case "check":
		cmdCheck(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: coverage-dashboard <command>

Commands:
  serve      Start the dashboard HTTP server
  export     Generate a coverage report file for a business unit
  units      List configured business units
  check      Verify API credentials are configured
`)
}

func newLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)
	return logger
}

// commonFlags registers the flags shared by serve and export.
type commonFlags struct {
	configPath  string
	secretsPath string

	s3Endpoint  string
	s3Region    string
	s3Bucket    string
	s3AccessKey string
	s3SecretKey string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", os.Getenv("COVERAGE_CONFIG"), "business-unit config file (YAML)")
	fs.StringVar(&c.secretsPath, "secrets", envOrDefault("COVERAGE_SECRETS", config.DefaultSecretsPath), "secrets file (TOML)")

	fs.StringVar(&c.s3Endpoint, "s3-endpoint", os.Getenv("S3_ENDPOINT"), "S3 endpoint URL for report archival")
	fs.StringVar(&c.s3Region, "s3-region", envOrDefault("S3_REGION", "us-east-1"), "S3 region")
	fs.StringVar(&c.s3Bucket, "s3-bucket", os.Getenv("S3_BUCKET"), "S3 bucket; empty disables archival")
	fs.StringVar(&c.s3AccessKey, "s3-access-key", os.Getenv("AWS_ACCESS_KEY_ID"), "S3 access key")
	fs.StringVar(&c.s3SecretKey, "s3-secret-key", os.Getenv("AWS_SECRET_ACCESS_KEY"), "S3 secret key")
}

// setup loads configuration and credentials and builds the API client.
func (c *commonFlags) setup(logger *slog.Logger) (*config.Config, *testrail.Client) {
	cfg, err := config.LoadFile(c.configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	creds, err := config.LoadCredentials(c.secretsPath)
	if err != nil {
		logger.Error("load credentials", "error", err)
		os.Exit(1)
	}

	client := testrail.New(testrail.Config{
		URL:    creds.URL,
		Email:  creds.Email,
		APIKey: creds.APIKey,
	})
	return cfg, client
}

func (c *commonFlags) archiveClient(ctx context.Context, logger *slog.Logger) *archive.Client {
	if c.s3Bucket == "" {
		return nil
	}
	arch, err := archive.New(ctx, archive.Config{
		Endpoint:  c.s3Endpoint,
		Region:    c.s3Region,
		Bucket:    c.s3Bucket,
		AccessKey: c.s3AccessKey,
		SecretKey: c.s3SecretKey,
	}, logger.With("component", "archive"))
	if err != nil {
		logger.Error("create archive client", "error", err)
		os.Exit(1)
	}
	logger.Info("report archival enabled", "bucket", c.s3Bucket, "endpoint", c.s3Endpoint)
	return arch
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "listen address")
	dbPath := fs.String("db", "coverage.db", "SQLite database path; empty disables snapshot history")
	var common commonFlags
	common.register(fs)
	fs.Parse(args)

	logger := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, client := common.setup(logger)

	var store *db.DB
	if *dbPath != "" {
		var err error
		store, err = db.Open(*dbPath)
		if err != nil {
			logger.Error("open database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()
	}

	arch := common.archiveClient(ctx, logger)

	svc := dashboard.NewService(cfg, client, store, logger.With("component", "dashboard"))
	srv := server.New(cfg, svc, store, arch, *addr, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server", "error", err)
		os.Exit(1)
	}
}

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	unitName := fs.String("bu", "", "business unit name")
	format := fs.String("format", "xlsx", "export format: xlsx or csv")
	exportType := fs.String("type", "complete", "workbook type: epic or complete")
	out := fs.String("out", "", "output file; default derives from business unit and type")
	var common commonFlags
	common.register(fs)
	fs.Parse(args)

	logger := newLogger()

	if *unitName == "" {
		fmt.Fprintf(os.Stderr, "Required: --bu\n")
		fs.PrintDefaults()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, client := common.setup(logger)
	svc := dashboard.NewService(cfg, client, nil, logger.With("component", "dashboard"))

	report, err := svc.BuildReport(ctx, *unitName, metrics.Filter{}, 0, "")
	if err != nil {
		logger.Error("build report", "error", err)
		os.Exit(1)
	}
	table, err := svc.Table(ctx, *unitName)
	if err != nil {
		logger.Error("fetch table", "error", err)
		os.Exit(1)
	}

	var data []byte
	var contentType string

	switch *format {
	case "csv":
		var buf bytes.Buffer
		if err := export.RecordsCSV(&buf, table); err != nil {
			logger.Error("write csv", "error", err)
			os.Exit(1)
		}
		data = buf.Bytes()
		contentType = "text/csv"
	case "xlsx":
		var f *excelize.File
		var err error
		switch *exportType {
		case "epic":
			f, err = export.EpicWorkbook(*unitName, report.Overall, report.Epics, report.Top, report.Bottom)
		case "complete":
			f, err = export.CompleteWorkbook(*unitName, report.Overall, report.Testim, report.Devices, report.Epics, table)
		default:
			logger.Error("unknown export type", "type", *exportType)
			os.Exit(1)
		}
		if err != nil {
			logger.Error("build workbook", "error", err)
			os.Exit(1)
		}
		buf, err := f.WriteToBuffer()
		if err != nil {
			logger.Error("write workbook", "error", err)
			os.Exit(1)
		}
		data = buf.Bytes()
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		logger.Error("unknown export format", "format", *format)
		os.Exit(1)
	}

	filename := *out
	if filename == "" {
		filename = export.Filename(*unitName, *exportType, *format)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		logger.Error("write export file", "error", err)
		os.Exit(1)
	}
	logger.Info("export written", "file", filename, "bytes", len(data))

	if arch := common.archiveClient(ctx, logger); arch != nil {
		if _, err := arch.Store(ctx, *unitName, filename, data, contentType); err != nil {
			logger.Error("archive export", "error", err)
		}
	}
}

func cmdUnits(args []string) {
	fs := flag.NewFlagSet("units", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("COVERAGE_CONFIG"), "business-unit config file (YAML)")
	fs.Parse(args)

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	for _, name := range cfg.UnitNames() {
		bu, _ := cfg.Unit(name)
		fmt.Printf("%-20s project=%d suite=%d\n", bu.Name, bu.ProjectID, bu.SuiteID)
	}
}

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	secretsPath := fs.String("secrets", envOrDefault("COVERAGE_SECRETS", config.DefaultSecretsPath), "secrets file (TOML)")
	fs.Parse(args)

	creds, err := config.LoadCredentials(*secretsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "not configured: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Credentials configured for %s (%s)\n", creds.URL, creds.Email)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
