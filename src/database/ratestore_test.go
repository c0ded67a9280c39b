package database

import (
	"path/filepath"
	"testing"
)

func TestRateStoreRoundTrip(t *testing.T) {
	store, err := OpenRateStore(filepath.Join(t.TempDir(), "rates.db"))
	if err != nil {
		t.Fatalf("OpenRateStore() error = %v", err)
	}
	defer store.Close()

	if _, found, err := store.GetRate("USD", "EUR", "2023-01-01"); err != nil {
		t.Fatalf("GetRate() error = %v", err)
	} else if found {
		t.Fatal("GetRate() found a rate in an empty store")
	}

	if err := store.SaveRate("USD", "EUR", "2023-01-01", 0.9); err != nil {
		t.Fatalf("SaveRate() error = %v", err)
	}

	got, found, err := store.GetRate("USD", "EUR", "2023-01-01")
	if err != nil {
		t.Fatalf("GetRate() error = %v", err)
	}
	if !found || got != 0.9 {
		t.Errorf("GetRate() = %v, %v; want 0.9, true", got, found)
	}

	// Same pair on another date is a distinct entry.
	if _, found, _ := store.GetRate("USD", "EUR", "2023-01-02"); found {
		t.Error("GetRate() found a rate for a date that was never saved")
	}

	// Re-saving the same key replaces rather than erroring.
	if err := store.SaveRate("USD", "EUR", "2023-01-01", 0.91); err != nil {
		t.Fatalf("SaveRate() replace error = %v", err)
	}
	got, _, _ = store.GetRate("USD", "EUR", "2023-01-01")
	if got != 0.91 {
		t.Errorf("GetRate() after replace = %v, want 0.91", got)
	}
}
