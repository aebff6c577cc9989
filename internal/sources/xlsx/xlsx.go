// Package xlsx loads transactions from a bank's Excel export.
package xlsx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"spendview/internal/core"
	"spendview/internal/sources"
)

var _ sources.TransactionSource = (*Source)(nil)

// Source reads one sheet of an .xlsx workbook on every Load.
type Source struct {
	path   string
	sheet  string
	parser sources.RowParser
}

// New creates a source for path. An empty sheet selects the first sheet.
func New(path, sheet string, loc *time.Location) *Source {
	return &Source{
		path:  path,
		sheet: strings.TrimSpace(sheet),
		parser: sources.RowParser{
			Location: loc,
			SerialDate: func(f float64) (time.Time, error) {
				return excelize.ExcelDateToTime(f, false)
			},
		},
	}
}

func (s *Source) Load(ctx context.Context) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.readRows()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrSourceUnavailable, err)
	}
	txs, err := s.parser.Parse(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", core.ErrSourceUnavailable, s.path, err)
	}
	return txs, nil
}

func (s *Source) readRows() ([][]string, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, fmt.Errorf("%s has no sheets", s.path)
		}
		sheet = list[0]
	}
	// Raw values keep amounts unformatted and numeric dates as serials.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}
