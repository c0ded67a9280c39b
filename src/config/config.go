package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	ReportingCurrency   string        // common denominator for all P/L and tax figures
	FlatTaxRate         float64       // flat rate applied to positive profit
	RateAPIBaseURL      string        // upstream historical exchange-rate service
	AuditLogPath        string        // append-only log of every upstream call
	RateRequestInterval time.Duration // minimum spacing between upstream calls
	RateRequestTimeout  time.Duration // per-call HTTP deadline
	RateCacheTTL        time.Duration // in-memory rate cache expiration
	RateCacheDBPath     string        // durable rate store; empty disables it
	LogLevel            string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	flatTaxRateStr := getEnv("FLAT_TAX_RATE", "0.30")
	flatTaxRate, err := strconv.ParseFloat(flatTaxRateStr, 64)
	if err != nil || flatTaxRate < 0 || flatTaxRate >= 1 {
		log.Printf("WARNING: Invalid FLAT_TAX_RATE '%s'. Using default 0.30. Error (if any): %v", flatTaxRateStr, err)
		flatTaxRate = 0.30
	}

	Cfg = &AppConfig{
		ReportingCurrency:   getEnv("REPORTING_CURRENCY", "EUR"),
		FlatTaxRate:         flatTaxRate,
		RateAPIBaseURL:      getEnv("RATE_API_BASE_URL", "https://api.exchangeratesapi.io"),
		AuditLogPath:        getEnv("AUDIT_LOG_PATH", "rate_audit.log"),
		RateRequestInterval: getEnvAsDuration("RATE_REQUEST_INTERVAL", 100*time.Millisecond),
		RateRequestTimeout:  getEnvAsDuration("RATE_REQUEST_TIMEOUT", 20*time.Second),
		RateCacheTTL:        getEnvAsDuration("RATE_CACHE_TTL", 15*time.Minute),
		RateCacheDBPath:     getEnv("RATE_CACHE_DB_PATH", "./rates.db"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}

	log.Printf("Configuration loaded: ReportingCurrency=%s, FlatTaxRate=%.2f, RateAPIBaseURL=%s, LogLevel=%s",
		Cfg.ReportingCurrency, Cfg.FlatTaxRate, Cfg.RateAPIBaseURL, Cfg.LogLevel)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
