package http

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// errBadParam marks a query parameter that could not be parsed.
var errBadParam = errors.New("invalid query parameter")

// referenceLayout formats the default reference time.
const referenceLayout = "2006-01-02 15:04:05"

// DateParam returns the date query value, or now in loc when absent.
func DateParam(query url.Values, now time.Time, loc *time.Location) string {
	if v := strings.TrimSpace(query.Get("date")); v != "" {
		return v
	}
	return now.In(loc).Format(referenceLayout)
}

// IntParam parses an optional integer parameter. Absent means def.
func IntParam(query url.Values, name string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", errBadParam, name, v)
	}
	return n, nil
}

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month, defaulting to the month of now.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	year, err := IntParam(query, "year", now.Year())
	if err != nil {
		return MonthParams{}, err
	}
	month, err := IntParam(query, "month", int(now.Month()))
	if err != nil {
		return MonthParams{}, err
	}
	return MonthParams{Year: year, Month: month}, nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
