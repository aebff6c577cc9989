package google

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendview/internal/core"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{CredentialsJSON: "{}"})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing spreadsheet id" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "test-id"})
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "test-id", CredentialsFile: "/nonexistent/sa.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestClient_LoadWithoutService(t *testing.T) {
	c := newClient(nil, "test", Options{})
	if c.sheet != defaultSheet {
		t.Fatalf("expected default sheet, got %q", c.sheet)
	}
	_, err := c.Load(context.Background())
	if !errors.Is(err, core.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestToRowsParsing(t *testing.T) {
	values := [][]interface{}{
		{"Дата операции", "Номер карты", "Сумма операции", "Категория", "Описание"},
		{"01.11.2023 09:00:00", "*7197", -160.89, "Супермаркеты", "Колхоз"},
		{"02.11.2023 10:30:00", "*7197", 1000000.0, nil, " Зарплата "},
	}
	rows := toRows(values)
	if rows[1][2] != "-160.89" || rows[2][2] != "1000000" || rows[2][3] != "" {
		t.Fatalf("unexpected conversion: %q", rows)
	}

	c := newClient(nil, "test", Options{Location: time.UTC})
	txs, err := c.parser.Parse(rows)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if !txs[1].Amount.Equal(decimal.NewFromInt(1000000)) || txs[1].Description != "Зарплата" {
		t.Fatalf("unexpected transaction: %+v", txs[1])
	}
}
