package xlsx

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"spendview/internal/core"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("SetSheetName: %v", err)
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "operations.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestSourceLoad(t *testing.T) {
	path := writeWorkbook(t, "Отчет по операциям", [][]any{
		{"Дата операции", "Дата платежа", "Номер карты", "Сумма операции", "Категория", "Описание"},
		{"31.12.2021 16:44:00", "31.12.2021", "*7197", -160.89, "Супермаркеты", "Колхоз"},
		{"30.12.2021 10:00:00", "", "*5091", 1500, "", "Пополнение"},
	})

	txs, err := New(path, "", time.UTC).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if !txs[0].Amount.Equal(decimal.RequireFromString("-160.89")) {
		t.Errorf("amount = %s", txs[0].Amount)
	}
	if txs[0].Category != "Супермаркеты" || txs[0].Account != "*7197" {
		t.Errorf("unexpected row: %+v", txs[0])
	}
	if txs[1].Category != "" || !txs[1].Amount.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("unexpected row: %+v", txs[1])
	}
}

func TestSourceLoadNumericDates(t *testing.T) {
	when := time.Date(2023, 11, 1, 12, 0, 0, 0, time.UTC)
	path := writeWorkbook(t, "Sheet1", [][]any{
		{"Дата операции", "Сумма операции"},
		{when, -10},
	})

	txs, err := New(path, "Sheet1", time.UTC).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(txs) != 1 || !txs[0].OperationTime.Equal(when) {
		t.Fatalf("expected %v, got %+v", when, txs)
	}
}

func TestSourceLoadErrors(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing.xlsx"), "", nil).Load(context.Background()); !errors.Is(err, core.ErrSourceUnavailable) {
		t.Fatalf("missing file: expected ErrSourceUnavailable, got %v", err)
	}

	path := writeWorkbook(t, "Sheet1", [][]any{{"Номер карты"}, {"*1"}})
	if _, err := New(path, "", nil).Load(context.Background()); !errors.Is(err, core.ErrSourceUnavailable) {
		t.Fatalf("bad header: expected ErrSourceUnavailable, got %v", err)
	}

	if _, err := New(path, "Nope", nil).Load(context.Background()); !errors.Is(err, core.ErrSourceUnavailable) {
		t.Fatalf("missing sheet: expected ErrSourceUnavailable, got %v", err)
	}
}
