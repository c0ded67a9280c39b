package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/username/cryptotax/src/config"
	"github.com/username/cryptotax/src/database"
	"github.com/username/cryptotax/src/fxrate"
	"github.com/username/cryptotax/src/generator"
	"github.com/username/cryptotax/src/logger"
	"github.com/username/cryptotax/src/parsers"
	"github.com/username/cryptotax/src/report"
	"github.com/username/cryptotax/src/tax"
	"golang.org/x/time/rate"
)

func main() {
	generateSeed := flag.Int64("generate", 0, "generate a synthetic transactions file at the input path using this random seed, then exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [input.xlsx [output.xlsx [errors.log]]]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Crypto tax calculator starting...")

	formattedNow := time.Now().Format("2006-01-02_15-04-05")
	inputPath := "transactions.xlsx"
	outputPath := fmt.Sprintf("grouped_taxes_%s.xlsx", formattedNow)
	errorLogPath := fmt.Sprintf("error_%s.log", formattedNow)
	args := flag.Args()
	if len(args) > 0 {
		inputPath = args[0]
	}
	if len(args) > 1 {
		outputPath = args[1]
	}
	if len(args) > 2 {
		errorLogPath = args[2]
	}

	if *generateSeed != 0 {
		if err := generator.Generate(inputPath, *generateSeed); err != nil {
			logger.L.Error("Failed to generate transactions file", "path", inputPath, "error", err)
			os.Exit(1)
		}
		return
	}

	if _, err := os.Stat(inputPath); err != nil {
		logger.L.Error("Input file not found", "path", inputPath, "error", err)
		os.Exit(1)
	}

	errLog, closeErrLog, err := logger.NewFileLogger(errorLogPath)
	if err != nil {
		logger.L.Error("Failed to open error log", "path", errorLogPath, "error", err)
		os.Exit(1)
	}
	defer closeErrLog()

	logger.L.Info("Reading transactions from Excel file...", "path", inputPath)
	parser := parsers.NewXLSXParser(errLog)
	transactions, rejected, err := parser.Parse(inputPath)
	if err != nil {
		logger.L.Error("Failed to parse transactions file", "path", inputPath, "error", err)
		os.Exit(1)
	}
	if rejected > 0 {
		logger.L.Warn("Some rows were rejected, see error log", "rejected", rejected, "errorLog", errorLogPath)
	}

	audit, err := fxrate.NewAuditLogger(config.Cfg.AuditLogPath)
	if err != nil {
		logger.L.Error("Failed to open audit log", "path", config.Cfg.AuditLogPath, "error", err)
		os.Exit(1)
	}
	defer audit.Close()

	// The durable rate store is an optimization; run without it if it fails.
	var store fxrate.RateStore
	if config.Cfg.RateCacheDBPath != "" {
		rateStore, err := database.OpenRateStore(config.Cfg.RateCacheDBPath)
		if err != nil {
			logger.L.Warn("Rate store unavailable, continuing without durable cache", "error", err)
		} else {
			defer rateStore.Close()
			store = rateStore
		}
	}

	limiter := rate.NewLimiter(rate.Every(config.Cfg.RateRequestInterval), 1)
	provider := fxrate.NewECBProvider(
		config.Cfg.RateAPIBaseURL,
		limiter,
		audit,
		store,
		config.Cfg.RateCacheTTL,
		config.Cfg.RateRequestTimeout,
	)

	calculator := tax.NewCalculator(provider, config.Cfg.ReportingCurrency, tax.FlatRule{Rate: config.Cfg.FlatTaxRate})

	logger.L.Info("Calculating crypto taxes...", "transactions", len(transactions), "reportingCurrency", config.Cfg.ReportingCurrency)
	result, err := calculator.CalculateCryptoTaxes(context.Background(), transactions)
	if err != nil {
		// All-or-nothing: no partial report is written on failure.
		logger.L.Error("Tax calculation failed", "error", err)
		os.Exit(1)
	}

	logger.L.Info("Writing grouped taxes to Excel file...", "path", outputPath)
	if err := report.WriteGroupedTaxes(result, outputPath); err != nil {
		logger.L.Error("Failed to write report", "path", outputPath, "error", err)
		os.Exit(1)
	}

	logger.L.Info("Grouped tax calculation completed.", "report", outputPath, "errorLog", errorLogPath)
}
