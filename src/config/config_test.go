package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	LoadConfig()

	if Cfg.ReportingCurrency != "EUR" {
		t.Errorf("ReportingCurrency = %q, want EUR", Cfg.ReportingCurrency)
	}
	if Cfg.FlatTaxRate != 0.30 {
		t.Errorf("FlatTaxRate = %v, want 0.30", Cfg.FlatTaxRate)
	}
	if Cfg.RateRequestInterval != 100*time.Millisecond {
		t.Errorf("RateRequestInterval = %v, want 100ms", Cfg.RateRequestInterval)
	}
	if Cfg.RateAPIBaseURL == "" || Cfg.AuditLogPath == "" {
		t.Error("expected non-empty RateAPIBaseURL and AuditLogPath defaults")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("REPORTING_CURRENCY", "USD")
	t.Setenv("FLAT_TAX_RATE", "0.19")
	t.Setenv("RATE_REQUEST_INTERVAL", "250ms")

	LoadConfig()

	if Cfg.ReportingCurrency != "USD" {
		t.Errorf("ReportingCurrency = %q, want USD", Cfg.ReportingCurrency)
	}
	if Cfg.FlatTaxRate != 0.19 {
		t.Errorf("FlatTaxRate = %v, want 0.19", Cfg.FlatTaxRate)
	}
	if Cfg.RateRequestInterval != 250*time.Millisecond {
		t.Errorf("RateRequestInterval = %v, want 250ms", Cfg.RateRequestInterval)
	}
}

func TestLoadConfigRejectsBadTaxRate(t *testing.T) {
	t.Setenv("FLAT_TAX_RATE", "1.5")

	LoadConfig()

	if Cfg.FlatTaxRate != 0.30 {
		t.Errorf("FlatTaxRate = %v, want fallback 0.30", Cfg.FlatTaxRate)
	}
}
