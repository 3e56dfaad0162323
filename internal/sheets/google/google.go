package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	applog "conti/internal/log"
	ports "conti/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client writes month sheets into one spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *applog.Logger
}

// Ensure interface conformance
var _ ports.MonthExporter = (*Client)(nil)

// ErrNoCredentials is returned when neither inline JSON nor a key file is set.
var ErrNoCredentials = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")

// New creates a Sheets client authenticated with service account credentials.
func New(ctx context.Context, spreadsheetID string, credentialsJSON []byte, logger *applog.Logger) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if len(credentialsJSON) == 0 {
		return nil, ErrNoCredentials
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, logger), nil
}

// NewWithService wraps an already configured service.
func NewWithService(svc *gsheet.Service, spreadsheetID string, logger *applog.Logger) *Client {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, logger: logger.WithComponent(applog.ComponentSheets)}
}

// Credentials resolves the service account key. Inline JSON wins over the
// file path; GOOGLE_APPLICATION_CREDENTIALS is the last fallback.
func Credentials(inlineJSON, file string) ([]byte, error) {
	inlineJSON = strings.TrimSpace(inlineJSON)
	file = strings.TrimSpace(file)
	if inlineJSON == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inlineJSON != "":
		return []byte(inlineJSON), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, ErrNoCredentials
	}
}

// newHTTPClientWithPooling creates an HTTP client with bounded timeouts for the Sheets API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// ExportMonth replaces the content of the sheet named after the month,
// creating the sheet when it does not exist yet.
func (c *Client) ExportMonth(ctx context.Context, sheet ports.MonthSheet) (string, error) {
	if strings.TrimSpace(sheet.Title) == "" {
		return "", errors.New("export month: empty sheet title")
	}
	if err := c.ensureSheet(ctx, sheet.Title); err != nil {
		return "", err
	}

	all := quoteSheet(sheet.Title)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, all, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear sheet %s: %w", sheet.Title, err)
	}

	rng := all + "!A1"
	vr := &gsheet.ValueRange{Range: rng, Values: normalizeRows(sheet.Rows)}
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write sheet %s: %w", sheet.Title, err)
	}

	c.logger.InfoContext(ctx, "Month exported to sheets",
		applog.FieldOperation, applog.OpExport,
		applog.FieldMonth, sheet.Title,
		"rows", len(sheet.Rows),
		"range", resp.UpdatedRange)
	return resp.UpdatedRange, nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return nil
		}
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	c.logger.InfoContext(ctx, "Created month sheet", applog.FieldMonth, title)
	return nil
}

// quoteSheet quotes a sheet name for A1 notation. "2024-03" would otherwise
// parse as a formula-like token.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// normalizeRows replaces nil rows so the API receives empty arrays.
func normalizeRows(rows [][]any) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		if r == nil {
			r = []any{}
		}
		out[i] = r
	}
	return out
}
