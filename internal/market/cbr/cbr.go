// Package cbr fetches official exchange rates from the Central Bank of Russia
// daily XML feed.
package cbr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"spendview/internal/core"
	"spendview/internal/sources"
)

// DefaultURL serves the rates of the current day.
const DefaultURL = "https://www.cbr.ru/scripts/XML_daily.asp"

var _ sources.RateProvider = (*Client)(nil)

// Client reads RUB rates, i.e. the price in rubles of one unit of currency.
type Client struct {
	url    string
	client *http.Client
}

func New(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Rates returns the rates of the requested codes that the feed lists. The
// ruble itself is always 1.
func (c *Client) Rates(ctx context.Context, codes []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(codes))
	if len(codes) == 0 {
		return out, nil
	}

	body, err := c.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: cbr: %w", core.ErrMarketUnavailable, err)
	}
	all, err := ParseDaily(body)
	if err != nil {
		return nil, fmt.Errorf("%w: cbr: %w", core.ErrMarketUnavailable, err)
	}

	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "RUB" {
			out[code] = decimal.NewFromInt(1)
			continue
		}
		if rate, ok := all[code]; ok {
			out[code] = rate
		}
	}
	slog.DebugContext(ctx, "CBR rates fetched", "requested", len(codes), "found", len(out))
	return out, nil
}

func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// ParseDaily extracts CharCode → rubles per unit from an XML_daily document.
// Rates are Value divided by Nominal, since some currencies are quoted per 10
// or 100 units.
func ParseDaily(body []byte) (map[string]decimal.Decimal, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("parse XML: %w", err)
	}

	valutes := doc.FindElements("//ValCurs/Valute")
	if len(valutes) == 0 {
		return nil, fmt.Errorf("no rates found in XML")
	}

	out := make(map[string]decimal.Decimal, len(valutes))
	for _, v := range valutes {
		code := strings.ToUpper(strings.TrimSpace(childText(v, "CharCode")))
		if code == "" {
			continue
		}
		value, err := core.ParseAmount(childText(v, "Value"))
		if err != nil {
			return nil, fmt.Errorf("%s value: %w", code, err)
		}
		nominal := decimal.NewFromInt(1)
		if s := strings.TrimSpace(childText(v, "Nominal")); s != "" {
			n, err := core.ParseAmount(s)
			if err != nil || !n.IsPositive() {
				return nil, fmt.Errorf("%s nominal %q is invalid", code, s)
			}
			nominal = n
		}
		out[code] = value.Div(nominal)
	}
	return out, nil
}

func childText(e *etree.Element, tag string) string {
	if c := e.FindElement("./" + tag); c != nil {
		return c.Text()
	}
	return ""
}

// charsetReader decodes the windows-1251 documents the feed serves.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "windows-1251", "cp1251":
		return charmap.Windows1251.NewDecoder().Reader(input), nil
	case "", "utf-8", "utf8":
		return input, nil
	}
	return nil, fmt.Errorf("unsupported charset %q", label)
}
