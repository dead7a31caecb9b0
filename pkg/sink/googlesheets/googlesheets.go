package googlesheets

import (
	"context"
	"fmt"

	"github.com/user/aperture"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// statusMarker is the fixed value written to the last column of every
// appended row, so the sheet doubles as a triage queue.
const statusMarker = "New"

// GoogleSheetsSink appends each lead as one row to a named range of an
// external spreadsheet. It is the best-effort backup log: callers are expected
// to tolerate its failures.
type GoogleSheetsSink struct {
	spreadsheetID   string
	sheetRange      string
	credentialsJSON string
	credentialsFile string
	svc             *sheets.Service
}

func NewGoogleSheetsSink(spreadsheetID, sheetRange, credentialsJSON, credentialsFile string) *GoogleSheetsSink {
	return &GoogleSheetsSink{
		spreadsheetID:   spreadsheetID,
		sheetRange:      sheetRange,
		credentialsJSON: credentialsJSON,
		credentialsFile: credentialsFile,
	}
}

func (s *GoogleSheetsSink) init(ctx context.Context) error {
	if s.svc != nil {
		return nil
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if s.credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(s.credentialsJSON)))
	} else if s.credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(s.credentialsFile))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create sheets service: %w", err)
	}
	s.svc = svc
	return nil
}

// Write appends the lead as a single row:
// [timestamp, name, email, event date, location, interests, vision, status].
func (s *GoogleSheetsSink) Write(ctx context.Context, lead *aperture.Lead) error {
	if lead == nil {
		return nil
	}
	if err := s.init(ctx); err != nil {
		return err
	}

	rb := &sheets.ValueRange{
		Values: [][]interface{}{{
			lead.ReceivedAt.Format("2006-01-02 15:04:05"),
			lead.FullName,
			lead.Email,
			lead.EventDate,
			lead.EventLocation,
			lead.InterestsJoined(),
			lead.Vision,
			statusMarker,
		}},
	}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.sheetRange, rb).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}
	return nil
}

// Ping verifies the spreadsheet is reachable with the configured credentials.
func (s *GoogleSheetsSink) Ping(ctx context.Context) error {
	if err := s.init(ctx); err != nil {
		return err
	}
	_, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	return err
}

func (s *GoogleSheetsSink) Close() error {
	return nil
}
