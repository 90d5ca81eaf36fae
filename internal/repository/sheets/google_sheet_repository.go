package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/sumalatex/suma/internal/config"
	"github.com/sumalatex/suma/internal/sanitize"
	"github.com/sumalatex/suma/pkg/clients/latexapi"
)

// Tabs of the ledger spreadsheet and the columns each one holds.
const (
	PurchaseRange = "Purchases!A:K" // date, name, rubber, tank, net, %, dry, price, note, note amount, total
	SalesRange    = "Sales!A:E"     // date, dry rubber, price, service charge, total
	ExpenseRange  = "Expenses!A:C"  // date, note, amount
)

// Ledger mirrors bills saved in the backend into the shop spreadsheet.
type Ledger interface {
	AppendPurchase(ctx context.Context, bill latexapi.PurchaseRequest) error
	AppendSales(ctx context.Context, bill latexapi.SalesRequest) error
	AppendExpense(ctx context.Context, expense latexapi.ExpenseRequest) error
}

// SpreadsheetLedger implements Ledger on the Google Sheets API.
type SpreadsheetLedger struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewSpreadsheetLedger authenticates with the service account file and targets the configured spreadsheet.
func NewSpreadsheetLedger(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*SpreadsheetLedger, error) {
	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}
	return newSpreadsheetLedger(service, cfg.SpreadsheetID, logger), nil
}

func newSpreadsheetLedger(service *sheetsapi.Service, spreadsheetID string, logger *zap.Logger) *SpreadsheetLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpreadsheetLedger{service: service, spreadsheetID: spreadsheetID, logger: logger}
}

// AppendPurchase adds a purchase bill row.
func (l *SpreadsheetLedger) AppendPurchase(ctx context.Context, bill latexapi.PurchaseRequest) error {
	if err := l.appendRow(ctx, PurchaseRange, purchaseRow(bill)); err != nil {
		return fmt.Errorf("mirror purchase of %s on %s: %w", bill.Name, bill.Date, err)
	}
	return nil
}

// AppendSales adds a sales bill row.
func (l *SpreadsheetLedger) AppendSales(ctx context.Context, bill latexapi.SalesRequest) error {
	if err := l.appendRow(ctx, SalesRange, salesRow(bill)); err != nil {
		return fmt.Errorf("mirror sales on %s: %w", bill.Date, err)
	}
	return nil
}

// AppendExpense adds an expense row.
func (l *SpreadsheetLedger) AppendExpense(ctx context.Context, expense latexapi.ExpenseRequest) error {
	if err := l.appendRow(ctx, ExpenseRange, expenseRow(expense)); err != nil {
		return fmt.Errorf("mirror expense %q on %s: %w", expense.Note, expense.Date, err)
	}
	return nil
}

func purchaseRow(b latexapi.PurchaseRequest) []interface{} {
	return []interface{}{
		b.Date, sanitize.ForSpreadsheet(b.Name), b.RubberWeight, b.TankWeight, b.NetWeight, b.Percentage,
		b.DryRubberWeight, b.BuyingPrice, sanitize.ForSpreadsheet(b.Note), b.NoteAmount, b.TotalAmount,
	}
}

func salesRow(b latexapi.SalesRequest) []interface{} {
	return []interface{}{b.Date, b.TotalDryRubberWeight, b.PricePurchase, b.ServiceCharge, b.TotalAmount}
}

func expenseRow(e latexapi.ExpenseRequest) []interface{} {
	return []interface{}{e.Date, sanitize.ForSpreadsheet(e.Note), e.Amount}
}

// appendRow inserts row below the last filled row of tab. Values are entered as if
// typed, so dates and numbers keep the sheet's formatting.
func (l *SpreadsheetLedger) appendRow(ctx context.Context, tab string, row []interface{}) error {
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{row}}

	_, err := l.service.Spreadsheets.Values.Append(l.spreadsheetID, tab, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", tab, err)
	}

	l.logger.Debug("ledger row appended", zap.String("tab", tab), zap.Int("cells", len(row)))
	return nil
}
