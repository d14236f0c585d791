package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"

	"marathon_backend/internals/configs"
)

var ErrNotConfigured = errors.New("google sheets export is not configured")

// Exporter overwrites one tab of a spreadsheet with a fresh snapshot.
type Exporter struct {
	srv           *sheetsv4.Service
	spreadsheetID string
	sheet         string
}

func NewExporter(ctx context.Context, cfg configs.SheetsConfig) (*Exporter, error) {
	if cfg.CredentialsFile == "" || cfg.SpreadsheetID == "" {
		return nil, ErrNotConfigured
	}
	if _, err := os.Stat(cfg.CredentialsFile); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	srv, err := sheetsv4.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheetsv4.SpreadsheetsScope),
	)
	if err != nil {
		return nil, err
	}
	sheet := cfg.SheetName
	if sheet == "" {
		sheet = "Participants"
	}
	return &Exporter{srv: srv, spreadsheetID: cfg.SpreadsheetID, sheet: sheet}, nil
}

func (e *Exporter) SpreadsheetID() string { return e.spreadsheetID }

// Replace clears the tab and writes header + rows. Returns the A1 range written.
func (e *Exporter) Replace(ctx context.Context, header []interface{}, rows [][]interface{}) (string, error) {
	rng := e.sheet + "!A:Z"
	if _, err := e.srv.Spreadsheets.Values.Clear(e.spreadsheetID, rng, &sheetsv4.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", rng, err)
	}

	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, header)
	values = append(values, rows...)
	vr := &sheetsv4.ValueRange{Values: values}
	resp, err := e.srv.Spreadsheets.Values.Update(e.spreadsheetID, e.sheet+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("write %s: %w", e.sheet, err)
	}
	return resp.UpdatedRange, nil
}
