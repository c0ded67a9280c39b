package generator

import (
	"path/filepath"
	"testing"

	"github.com/username/cryptotax/src/parsers"
)

func TestGenerateProducesParseableTransactions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.xlsx")
	if err := Generate(path, 42); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	transactions, rejected, err := parsers.NewXLSXParser(nil).Parse(path)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if rejected != 0 {
		t.Errorf("rejected rows = %d, want 0", rejected)
	}

	min := len(cryptocurrencies) * minTransactionsPerAsset
	max := len(cryptocurrencies) * maxTransactionsPerAsset
	if len(transactions) < min || len(transactions) > max {
		t.Errorf("generated %d transactions, want between %d and %d", len(transactions), min, max)
	}

	seen := map[string]bool{}
	for _, tx := range transactions {
		seen[tx.Asset] = true
		if tx.BuyPrice < 0 || tx.SellPrice < 0 || tx.Quantity < 0 {
			t.Errorf("negative amounts in generated transaction: %+v", tx)
		}
	}
	if len(seen) != len(cryptocurrencies) {
		t.Errorf("generated assets = %d, want %d", len(seen), len(cryptocurrencies))
	}
}

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.xlsx")
	pathB := filepath.Join(dir, "b.xlsx")
	if err := Generate(pathA, 7); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := Generate(pathB, 7); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	txsA, _, err := parsers.NewXLSXParser(nil).Parse(pathA)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	txsB, _, err := parsers.NewXLSXParser(nil).Parse(pathB)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(txsA) != len(txsB) {
		t.Fatalf("runs with same seed differ in length: %d vs %d", len(txsA), len(txsB))
	}
	for i := range txsA {
		if txsA[i] != txsB[i] {
			t.Errorf("transaction %d differs between seeded runs: %+v vs %+v", i, txsA[i], txsB[i])
		}
	}
}
