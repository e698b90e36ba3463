package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"recount/internal/core"
	"recount/internal/store"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	defaultCounterSheet = "Counter"
	defaultEventsSheet  = "Events"
)

// Client mirrors the running total into a single cell of a counter sheet and
// appends audit events as rows of an events sheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	counterSheet  string
	eventsSheet   string
}

// Ensure interface conformance
var (
	_ store.TotalStore  = (*Client)(nil)
	_ store.EventWriter = (*Client)(nil)
	_ store.EventLister = (*Client)(nil)
)

// Config selects the spreadsheet and how to authenticate against it.
type Config struct {
	SpreadsheetID      string
	CounterSheet       string
	EventsSheet        string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if cfg.CounterSheet == "" {
		cfg.CounterSheet = defaultCounterSheet
	}
	if cfg.EventsSheet == "" {
		cfg.EventsSheet = defaultEventsSheet
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		counterSheet:  cfg.CounterSheet,
		eventsSheet:   cfg.EventsSheet,
	}, nil
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	var err error

	switch {
	case cfg.ServiceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(cfg.ServiceAccountJSON)
	case cfg.ServiceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", cfg.ServiceAccountFile)
		credentialsJSON, err = os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "scope", gsheet.SpreadsheetsScope)
	return service, nil
}

func (c *Client) counterRange() string {
	return fmt.Sprintf("%s!A1:B1", c.counterSheet)
}

// ReadTotal reads the total from column B of the counter row.
func (c *Client) ReadTotal(ctx context.Context) (int64, error) {
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.counterRange()).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", c.counterRange(), err)
	}
	return parseTotal(resp.Values)
}

// WriteTotal overwrites the counter row with the given total.
func (c *Client) WriteTotal(ctx context.Context, total int64) error {
	if total < 0 {
		return fmt.Errorf("invalid total %d", total)
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	vr := &gsheet.ValueRange{Values: [][]any{{"Total", total}}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.counterRange(), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", c.counterRange(), err)
	}
	return nil
}

// RecordEvent appends a (name, date) row to the events sheet.
func (c *Client) RecordEvent(ctx context.Context, e core.Event) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:B", c.eventsSheet)
	vr := &gsheet.ValueRange{Values: [][]any{{e.Name, e.Date.UTC().Format(time.RFC3339)}}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", rng, err)
	}
	return nil
}

// ListEvents returns up to limit events, newest first.
func (c *Client) ListEvents(ctx context.Context, limit int) ([]core.Event, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:B", c.eventsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return newestFirst(parseEvents(resp.Values), limit), nil
}
