// Package gsheets reads and writes the accounting spreadsheet directly
// through the Google Sheets API. It is an alternative backend to the
// Apps Script web app for deployments that have service-account access
// to the sheet; file upload and mail stay on the script either way.
package gsheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jeongsim/accounting-api/internal/domain"
	"github.com/jeongsim/accounting-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var tracer = otel.Tracer("gsheets")

// Tab names mirror the sheet layout the Apps Script reads.
const (
	infoSheet         = "Info"
	approvalSheet     = "Approval"
	accountSheet      = "Account"
	transactionsSheet = "Transactions"
	donationsSheet    = "Donations"
	saintsSheet       = "Saints"
	membersSheet      = "Members"
)

// Client is a Sheets API backend for the accounting spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *zap.Logger
}

// Ensure interface conformance
var (
	_ port.SnapshotFetcher   = (*Client)(nil)
	_ port.TransactionWriter = (*Client)(nil)
	_ port.DonationWriter    = (*Client)(nil)
)

// NewClient creates a Sheets client from service-account credentials,
// given either inline JSON or a file path.
func NewClient(ctx context.Context, spreadsheetID, credsJSON, credsFile string, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	var credentials []byte
	switch {
	case strings.TrimSpace(credsJSON) != "":
		credentials = []byte(credsJSON)
	case strings.TrimSpace(credsFile) != "":
		b, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentials = b
	default:
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID, logger: logger}, nil
}

// FetchSnapshot reads all tabs in one batch and assembles the AppData
// snapshot, equivalent to the script's getData action.
func (c *Client) FetchSnapshot(ctx context.Context) (*domain.AppData, error) {
	ctx, span := tracer.Start(ctx, "Sheets.FetchSnapshot")
	defer span.End()

	ranges := []string{
		infoSheet + "!A:B",
		approvalSheet + "!A:E",
		accountSheet + "!A:B",
		transactionsSheet + "!A:J",
		donationsSheet + "!A:H",
		saintsSheet + "!A:H",
		membersSheet + "!A:C",
	}

	resp, err := c.svc.Spreadsheets.Values.BatchGet(c.spreadsheetID).
		Ranges(ranges...).Context(ctx).Do()
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "sheets/batchGet", Err: err}
	}
	if len(resp.ValueRanges) != len(ranges) {
		return nil, &domain.ErrExternalService{
			Service: "sheets/batchGet",
			Err:     fmt.Errorf("expected %d ranges, got %d", len(ranges), len(resp.ValueRanges)),
		}
	}

	data := &domain.AppData{
		OrgInfo:           parseOrgInfo(resp.ValueRanges[0].Values),
		ApprovalLine:      parseApprovalLine(resp.ValueRanges[1].Values),
		AccountCategories: parseAccountCategories(resp.ValueRanges[2].Values),
		Transactions:      parseTransactions(resp.ValueRanges[3].Values),
		Donations:         parseDonations(resp.ValueRanges[4].Values),
		Saints:            parseSaints(resp.ValueRanges[5].Values),
		Members:           parseMembers(resp.ValueRanges[6].Values),
	}

	c.logger.Debug("sheets: snapshot fetched",
		zap.Int("transactions", len(data.Transactions)),
		zap.Int("donations", len(data.Donations)),
	)
	return data, nil
}

// AddTransaction appends a row to the Transactions tab in the same
// column order the script writes.
func (c *Client) AddTransaction(ctx context.Context, tx domain.Transaction) error {
	ctx, span := tracer.Start(ctx, "Sheets.AddTransaction")
	defer span.End()

	approvals, err := json.Marshal(tx.Approvals)
	if err != nil {
		return fmt.Errorf("encode approvals: %w", err)
	}

	vr := &gsheet.ValueRange{Values: [][]any{{
		tx.ID, tx.Date, string(tx.Type), tx.Category, int64(tx.Amount),
		tx.Description, tx.Vendor, tx.Spender, tx.EvidenceURL, string(approvals),
	}}}

	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, transactionsSheet+"!A:J", vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return &domain.ErrExternalService{Service: "sheets/append", Err: err}
	}
	return nil
}

// UpdateTransaction locates the row by transaction id and rewrites the
// approvals column (J), matching the script's updateTransaction.
func (c *Client) UpdateTransaction(ctx context.Context, tx domain.Transaction) error {
	ctx, span := tracer.Start(ctx, "Sheets.UpdateTransaction")
	defer span.End()

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, transactionsSheet+"!A:A").
		Context(ctx).Do()
	if err != nil {
		return &domain.ErrExternalService{Service: "sheets/get", Err: err}
	}

	row := -1
	for i, r := range resp.Values {
		if i == 0 || len(r) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(r[0])) == tx.ID {
			row = i + 1 // sheet rows are 1-based
			break
		}
	}
	if row < 0 {
		return &domain.ErrNotFound{Resource: "transaction", ID: tx.ID}
	}

	approvals, err := json.Marshal(tx.Approvals)
	if err != nil {
		return fmt.Errorf("encode approvals: %w", err)
	}

	rng := fmt.Sprintf("%s!J%d", transactionsSheet, row)
	vr := &gsheet.ValueRange{Values: [][]any{{string(approvals)}}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return &domain.ErrExternalService{Service: "sheets/update", Err: err}
	}
	return nil
}

// AddDonation appends an issued receipt to the Donations tab.
func (c *Client) AddDonation(ctx context.Context, rec domain.DonationRecord) error {
	ctx, span := tracer.Start(ctx, "Sheets.AddDonation")
	defer span.End()

	vr := &gsheet.ValueRange{Values: [][]any{{
		rec.ID, rec.IssueDate, int(rec.TargetYear), rec.SaintName,
		rec.SaintID, int64(rec.Amount), rec.Issuer, rec.SerialNumber,
	}}}

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, donationsSheet+"!A:H", vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return &domain.ErrExternalService{Service: "sheets/append", Err: err}
	}
	return nil
}
