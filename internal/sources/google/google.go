// Package google loads transactions from a Google Sheets spreadsheet that
// mirrors the bank export columns.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spendview/internal/core"
	"spendview/internal/sources"
)

const defaultSheet = "Operations"

var _ sources.TransactionSource = (*Client)(nil)

// Options configures the Sheets client. One of the credential fields must be
// set.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	Location        *time.Location
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	parser        sources.RowParser
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, spreadsheetID, opts), nil
}

func newClient(svc *gsheet.Service, spreadsheetID string, opts Options) *Client {
	sheet := strings.TrimSpace(opts.SheetName)
	if sheet == "" {
		sheet = defaultSheet
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheet:         sheet,
		parser:        sources.RowParser{Location: opts.Location},
	}
}

// newSheetsService initializes a read-only Sheets service from service
// account credentials, given inline or as a file path.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(opts.CredentialsJSON)
	case strings.TrimSpace(opts.CredentialsFile) != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", opts.CredentialsFile)
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Load reads the whole operations sheet. Numbers are requested unformatted so
// amounts keep their full precision.
func (c *Client) Load(ctx context.Context) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, fmt.Errorf("%w: sheets service not initialized", core.ErrSourceUnavailable)
	}
	rng := fmt.Sprintf("%s!A:Z", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", core.ErrSourceUnavailable, rng, err)
	}
	txs, err := c.parser.Parse(toRows(resp.Values))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", core.ErrSourceUnavailable, rng, err)
	}
	return txs, nil
}

func toRows(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = toStrings(row)
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case nil:
			out[i] = ""
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}
