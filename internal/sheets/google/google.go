package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"billreminder/internal/log"
	"billreminder/internal/notify"
	ports "billreminder/internal/sheets"
)

var _ ports.BillLedger = (*Client)(nil)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// New creates a Sheets client authenticated with a service account. Extra
// client options are appended after the credentials, which lets tests point
// the client at a local endpoint.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Bills"
	}
	logger = logger.WithComponent(log.ComponentSheets)

	if len(opts) == 0 {
		credentials, err := credentialsJSON(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(credentials),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.InfoContext(ctx, "Google Sheets ledger ready",
		"spreadsheet_id", spreadsheetID,
		"sheet", sheetName)

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}, nil
}

func credentialsJSON(cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// AppendBill adds one ledger row after the last filled row of the sheet.
func (c *Client) AppendBill(ctx context.Context, msg notify.Message) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if msg.Bill.ID == 0 {
		return "", errors.New("message carries no bill")
	}

	rng := fmt.Sprintf("%s!A:%s", quoteSheet(c.sheetName), lastColumn())
	vr := &gsheet.ValueRange{Values: [][]any{ports.Row(msg)}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	ref := updatedRange(resp)
	c.logger.DebugContext(ctx, "Bill appended to ledger",
		log.FieldBillID, msg.Bill.ID,
		"range", ref)
	return ref, nil
}
