package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_settings.json")
	content := `{"user_currencies": ["USD", "eur", "USD", " "], "user_stocks": ["AAPL", "AMZN", "GOOGL", "MSFT", "TSLA"]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if strings.Join(s.Currencies, ",") != "USD,EUR" {
		t.Errorf("currencies = %v", s.Currencies)
	}
	if len(s.Stocks) != 5 || s.Stocks[4] != "TSLA" {
		t.Errorf("stocks = %v", s.Stocks)
	}
}

func TestLoadMissing(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "absent.json")} {
		s, err := Load(path)
		if err != nil || len(s.Currencies) != 0 || len(s.Stocks) != 0 {
			t.Fatalf("Load(%q): expected empty settings, got %+v %v", path, s, err)
		}
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"user_currencies": "USD"}`)); err == nil {
		t.Fatalf("expected error for wrong type")
	}
}
