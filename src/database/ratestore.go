package database

import (
	"database/sql"
	"fmt"

	"github.com/username/cryptotax/src/logger"
	_ "modernc.org/sqlite"
)

// RateStore is a durable cache of historical exchange rates. Historical rates
// never change once published, so entries are written once and read forever.
type RateStore struct {
	db *sql.DB
}

// OpenRateStore opens (creating if needed) the sqlite database at the given
// path and ensures the schema exists.
func OpenRateStore(databasePath string) (*RateStore, error) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open rate store at %s: %w", databasePath, err)
	}

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS exchange_rates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		from_currency TEXT NOT NULL,
		to_currency TEXT NOT NULL,
		rate_date TEXT NOT NULL,
		rate REAL NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(from_currency, to_currency, rate_date)
	);
	`
	if _, err := db.Exec(createTableStatement); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create exchange_rates table: %w", err)
	}

	if logger.L != nil {
		logger.L.Info("Rate store ready", "path", databasePath)
	}
	return &RateStore{db: db}, nil
}

// GetRate returns the stored rate for a currency pair on a date, and whether
// one was found. rateDate uses the YYYY-MM-DD form used by the upstream API.
func (s *RateStore) GetRate(fromCurrency, toCurrency, rateDate string) (float64, bool, error) {
	var rate float64
	err := s.db.QueryRow(
		"SELECT rate FROM exchange_rates WHERE from_currency = ? AND to_currency = ? AND rate_date = ?",
		fromCurrency, toCurrency, rateDate,
	).Scan(&rate)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query rate %s->%s on %s: %w", fromCurrency, toCurrency, rateDate, err)
	}
	return rate, true, nil
}

// SaveRate stores a fetched rate. Replacing an existing row is harmless since
// historical rates are immutable upstream.
func (s *RateStore) SaveRate(fromCurrency, toCurrency, rateDate string, rate float64) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO exchange_rates (from_currency, to_currency, rate_date, rate) VALUES (?, ?, ?, ?)",
		fromCurrency, toCurrency, rateDate, rate,
	)
	if err != nil {
		return fmt.Errorf("failed to save rate %s->%s on %s: %w", fromCurrency, toCurrency, rateDate, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *RateStore) Close() error {
	return s.db.Close()
}
