package sources

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"spendview/internal/core"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrMalformedRow  = errors.New("malformed row")
)

// Header names of a bank export, with English aliases for hand-made sheets.
var (
	operationTimeHeaders = []string{"Дата операции", "operation_time", "date"}
	paymentTimeHeaders   = []string{"Дата платежа", "payment_time"}
	accountHeaders       = []string{"Номер карты", "account", "card"}
	amountHeaders        = []string{"Сумма операции", "amount"}
	categoryHeaders      = []string{"Категория", "category"}
	descriptionHeaders   = []string{"Описание", "description"}
)

// timeLayouts are tried in order for date cells.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"02.01.2006 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02.01.2006",
	"1/2/06 15:04",
	"01-02-06 15:04",
}

// Columns maps fields to cell indexes; -1 marks an absent optional column.
type Columns struct {
	OperationTime int
	PaymentTime   int
	Account       int
	Amount        int
	Category      int
	Description   int
}

// RowParser turns spreadsheet rows into transactions.
type RowParser struct {
	// Location interprets dates without a zone. Nil means time.Local.
	Location *time.Location
	// SerialDate converts numeric spreadsheet dates. Nil disables them.
	SerialDate func(float64) (time.Time, error)
}

// ResolveColumns locates the known columns in a header row.
func ResolveColumns(header []string) (Columns, error) {
	cols := Columns{
		OperationTime: indexOf(header, operationTimeHeaders),
		PaymentTime:   indexOf(header, paymentTimeHeaders),
		Account:       indexOf(header, accountHeaders),
		Amount:        indexOf(header, amountHeaders),
		Category:      indexOf(header, categoryHeaders),
		Description:   indexOf(header, descriptionHeaders),
	}
	var missing []string
	if cols.OperationTime == -1 {
		missing = append(missing, operationTimeHeaders[0])
	}
	if cols.Amount == -1 {
		missing = append(missing, amountHeaders[0])
	}
	if len(missing) > 0 {
		return Columns{}, fmt.Errorf("%w: %s; got headers=%v", ErrMissingColumn, strings.Join(missing, ","), header)
	}
	return cols, nil
}

// Parse converts rows whose first row is the header. Blank rows are skipped.
func (p RowParser) Parse(rows [][]string) ([]core.Transaction, error) {
	if len(rows) == 0 {
		return []core.Transaction{}, nil
	}
	cols, err := ResolveColumns(rows[0])
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		t, err := p.ParseRow(cols, row)
		if err != nil {
			// +2: one for the header, one for 1-based numbering
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// ParseRow converts a single data row.
func (p RowParser) ParseRow(cols Columns, row []string) (core.Transaction, error) {
	opTime, err := p.parseTime(safeGet(row, cols.OperationTime))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: operation time: %v", ErrMalformedRow, err)
	}
	amount, err := core.ParseAmount(safeGet(row, cols.Amount))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: amount: %v", ErrMalformedRow, err)
	}

	var payTime time.Time
	if s := strings.TrimSpace(safeGet(row, cols.PaymentTime)); s != "" {
		payTime, err = p.parseTime(s)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("%w: payment time: %v", ErrMalformedRow, err)
		}
	}

	return core.Transaction{
		OperationTime: opTime,
		PaymentTime:   payTime,
		Account:       strings.TrimSpace(safeGet(row, cols.Account)),
		Amount:        amount,
		Category:      cleanCategory(safeGet(row, cols.Category)),
		Description:   strings.TrimSpace(safeGet(row, cols.Description)),
	}, nil
}

func (p RowParser) parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty")
	}
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if p.SerialDate != nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			t, err := p.SerialDate(f)
			if err != nil {
				return time.Time{}, err
			}
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// cleanCategory maps the placeholders exports use for a missing category to
// the empty string.
func cleanCategory(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "nan", "null", "none", "-":
		return ""
	}
	return s
}

func indexOf(header []string, names []string) int {
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		for _, n := range names {
			if strings.EqualFold(h, n) {
				return i
			}
		}
	}
	return -1
}

func safeGet(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
