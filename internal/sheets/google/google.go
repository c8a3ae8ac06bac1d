package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	applog "presupuesto/internal/log"
	ports "presupuesto/internal/sheets"
)

// Client appends mirror rows to one sheet of a spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	loc           *time.Location
	logger        *applog.Logger
}

var (
	_ ports.RowAppender  = (*Client)(nil)
	_ ports.HeaderWriter = (*Client)(nil)
)

// Config holds what New needs. CredentialsJSON is a service account key.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON []byte
	Location        *time.Location
}

// New creates a Sheets client authenticated as a service account. Extra
// options are appended after the credentials.
func New(ctx context.Context, cfg Config, logger *applog.Logger, opts ...option.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if len(cfg.CredentialsJSON) == 0 && len(opts) == 0 {
		return nil, errors.New("missing service account credentials")
	}

	var all []option.ClientOption
	if len(cfg.CredentialsJSON) > 0 {
		all = append(all,
			option.WithCredentialsJSON(cfg.CredentialsJSON),
			option.WithScopes(gsheet.SpreadsheetsScope))
	}
	all = append(all, opts...)

	svc, err := gsheet.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg, logger), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, cfg Config, logger *applog.Logger) *Client {
	if logger == nil {
		logger = applog.Default(applog.ComponentSheets)
	}
	name := strings.TrimSpace(cfg.SheetName)
	if name == "" {
		name = "Movimientos"
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     name,
		loc:           loc,
		logger:        logger.WithComponent(applog.ComponentSheets),
	}
}

func (c *Client) columns() string {
	return fmt.Sprintf("%s!A:%c", quoteSheet(c.sheetName), 'A'+len(ports.Header)-1)
}

// quoteSheet quotes sheet names that A1 notation would otherwise misread.
func quoteSheet(name string) string {
	if strings.ContainsAny(name, " '!:") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}

// AppendRow appends r below the last row of the sheet and returns the
// updated range.
func (c *Client) AppendRow(ctx context.Context, r ports.Row) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	vr := &gsheet.ValueRange{Values: [][]any{r.Values(c.loc)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.columns(), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.DebugContext(ctx, "Appended mirror row",
		applog.FieldOperation, applog.OpAppend,
		applog.FieldEntryKind, r.Kind,
		applog.FieldEntryID, r.ID,
		"range", ref)
	return ref, nil
}

// EnsureHeader writes the header row when the first row is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	first := fmt.Sprintf("%s!A1:%c1", quoteSheet(c.sheetName), 'A'+len(ports.Header)-1)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, first).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", c.sheetName, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	vr := &gsheet.ValueRange{Values: [][]any{ports.Header}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, first, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header of %s: %w", c.sheetName, err)
	}
	c.logger.InfoContext(ctx, "Wrote mirror sheet header", "sheet", c.sheetName)
	return nil
}
