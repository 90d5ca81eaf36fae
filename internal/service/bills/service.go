package bills

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sumalatex/suma/internal/domain/models"
	"github.com/sumalatex/suma/internal/repository/sheets"
	"github.com/sumalatex/suma/internal/sanitize"
	"github.com/sumalatex/suma/internal/valuation"
	"github.com/sumalatex/suma/pkg/clients/latexapi"
)

// ErrIncompleteBill indicates a bill is missing its name or a required figure.
// A settlement may bring the net amount to zero; only the gross amount must be set.
var ErrIncompleteBill = errors.New("bill is incomplete")

// ErrInvalidRange indicates a period whose start is after its end.
var ErrInvalidRange = errors.New("start date must not be after end date")

const dateFormat = latexapi.DateLayout

// Backend is the subset of the record store used when saving bills.
type Backend interface {
	CreatePurchase(ctx context.Context, req latexapi.PurchaseRequest) error
	CreateSales(ctx context.Context, req latexapi.SalesRequest) error
	CreateExpense(ctx context.Context, req latexapi.ExpenseRequest) error
	TotalDryRubber(ctx context.Context, start, end time.Time) (float64, error)
}

// PriceMemory remembers the last buying price used on a saved purchase.
type PriceMemory interface {
	Remember(ctx context.Context, price decimal.Decimal) error
}

// SavedPurchase is a purchase bill as it was submitted.
type SavedPurchase struct {
	Date   string                `json:"date"`
	Name   string                `json:"name"`
	Input  models.PurchaseInput  `json:"-"`
	Result models.PurchaseResult `json:"result"`
}

// SalesQuote is the sales figure for a period before it is saved.
type SalesQuote struct {
	Start           string             `json:"startDate"`
	End             string             `json:"endDate"`
	DryRubberWeight decimal.Decimal    `json:"totalDryRubberWeight"`
	UnitPrice       decimal.Decimal    `json:"pricePurchase"`
	Result          models.SalesResult `json:"result"`
}

// SavedSales is a sales bill as it was submitted.
type SavedSales struct {
	Date  string     `json:"date"`
	Quote SalesQuote `json:"quote"`
}

// Service computes, validates and submits bills.
type Service struct {
	backend Backend
	prices  PriceMemory
	ledger  sheets.Ledger
	loc     *time.Location
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires the bill service. ledger may be nil when the spreadsheet mirror is off.
func NewService(backend Backend, prices PriceMemory, ledger sheets.Ledger, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		backend: backend,
		prices:  prices,
		ledger:  ledger,
		loc:     loc,
		logger:  logger,
		now:     time.Now,
	}
}

// QuotePurchase previews a purchase without saving it.
func (s *Service) QuotePurchase(_ context.Context, input models.PurchaseInput) models.PurchaseResult {
	return valuation.ComputePurchase(input)
}

// SavePurchase computes the bill, submits it and remembers its unit price.
func (s *Service) SavePurchase(ctx context.Context, bill models.PurchaseBill) (SavedPurchase, error) {
	name := sanitize.Text(bill.Name)
	result := valuation.ComputePurchase(bill.Input)

	if name == "" || !complete(bill.Input, result) {
		return SavedPurchase{}, ErrIncompleteBill
	}

	in := bill.Input
	saved := SavedPurchase{
		Date:   s.today().Format(dateFormat),
		Name:   name,
		Input:  in,
		Result: result,
	}

	req := latexapi.PurchaseRequest{
		Date:            saved.Date,
		Name:            name,
		RubberWeight:    in.RubberWeight.Decimal.InexactFloat64(),
		TankWeight:      in.TankWeight.Decimal.InexactFloat64(),
		Percentage:      in.DryPercentage.Decimal.InexactFloat64(),
		DryRubberWeight: result.DryRubberWeight.InexactFloat64(),
		BuyingPrice:     in.UnitPrice.Decimal.InexactFloat64(),
		NetWeight:       result.NetWeight.InexactFloat64(),
		TotalAmount:     result.NetAmount.InexactFloat64(),
		Note:            in.Settlement.Kind.Label(),
		NoteAmount:      result.SettlementAmount.InexactFloat64(),
	}
	if err := s.backend.CreatePurchase(ctx, req); err != nil {
		return SavedPurchase{}, fmt.Errorf("save purchase: %w", err)
	}

	if s.prices != nil {
		if err := s.prices.Remember(ctx, in.UnitPrice.Decimal); err != nil {
			s.logger.Warn("failed to remember buying price", zap.Error(err))
		}
	}

	s.mirror("purchase", func(l sheets.Ledger) error { return l.AppendPurchase(ctx, req) })

	s.logger.Info("purchase saved",
		zap.String("name", name),
		zap.String("net_amount", result.NetAmount.String()),
		zap.String("settlement", in.Settlement.Kind.String()))
	return saved, nil
}

// QuoteSales fetches the dry rubber bought in [start, end] and prices it.
func (s *Service) QuoteSales(ctx context.Context, start, end time.Time, price decimal.NullDecimal) (SalesQuote, error) {
	if start.IsZero() || end.IsZero() {
		return SalesQuote{}, fmt.Errorf("%w: both dates are required", ErrInvalidRange)
	}
	if start.After(end) {
		return SalesQuote{}, ErrInvalidRange
	}

	total, err := s.backend.TotalDryRubber(ctx, start, end)
	if err != nil {
		return SalesQuote{}, fmt.Errorf("quote sales: %w", err)
	}

	dry := decimal.NewFromFloat(total)
	result := valuation.ComputeSales(models.SalesInput{
		DryRubberWeight: decimal.NewNullDecimal(dry),
		UnitPrice:       price,
	})

	return SalesQuote{
		Start:           start.Format(dateFormat),
		End:             end.Format(dateFormat),
		DryRubberWeight: dry,
		UnitPrice:       price.Decimal,
		Result:          result,
	}, nil
}

// SaveSales quotes the period and submits the sales bill.
func (s *Service) SaveSales(ctx context.Context, bill models.SalesBill) (SavedSales, error) {
	quote, err := s.QuoteSales(ctx, bill.Start, bill.End, bill.UnitPrice)
	if err != nil {
		return SavedSales{}, err
	}

	r := quote.Result
	if quote.DryRubberWeight.IsZero() || quote.UnitPrice.IsZero() || r.ServiceCharge.IsZero() || r.TotalAmount.IsZero() {
		return SavedSales{}, ErrIncompleteBill
	}

	saved := SavedSales{Date: s.today().Format(dateFormat), Quote: quote}
	req := latexapi.SalesRequest{
		Date:                 saved.Date,
		TotalDryRubberWeight: quote.DryRubberWeight.InexactFloat64(),
		PricePurchase:        quote.UnitPrice.InexactFloat64(),
		ServiceCharge:        r.ServiceCharge.InexactFloat64(),
		TotalAmount:          r.TotalAmount.InexactFloat64(),
	}
	if err := s.backend.CreateSales(ctx, req); err != nil {
		return SavedSales{}, fmt.Errorf("save sales: %w", err)
	}

	s.mirror("sales", func(l sheets.Ledger) error { return l.AppendSales(ctx, req) })

	s.logger.Info("sales saved", zap.String("total_amount", r.TotalAmount.String()))
	return saved, nil
}

// SaveExpense submits an expense. A zero date means today.
func (s *Service) SaveExpense(ctx context.Context, record models.ExpenseRecord) (models.ExpenseRecord, error) {
	record.Note = sanitize.Text(record.Note)
	if record.Note == "" || !record.Amount.IsPositive() {
		return models.ExpenseRecord{}, ErrIncompleteBill
	}
	if record.Date.IsZero() {
		record.Date = s.today()
	}

	req := latexapi.ExpenseRequest{
		Date:   record.Date.Format(dateFormat),
		Note:   record.Note,
		Amount: record.Amount.InexactFloat64(),
	}
	if err := s.backend.CreateExpense(ctx, req); err != nil {
		return models.ExpenseRecord{}, fmt.Errorf("save expense: %w", err)
	}

	s.mirror("expense", func(l sheets.Ledger) error { return l.AppendExpense(ctx, req) })

	s.logger.Info("expense saved", zap.String("note", record.Note), zap.String("amount", record.Amount.String()))
	return record, nil
}

// Today returns the current shop-local date.
func (s *Service) Today() time.Time {
	return s.today()
}

func (s *Service) today() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

// mirror copies a saved record to the ledger. Failures never undo a saved bill.
func (s *Service) mirror(kind string, write func(sheets.Ledger) error) {
	if s.ledger == nil {
		return
	}
	if err := write(s.ledger); err != nil {
		s.logger.Warn("ledger mirror failed", zap.String("kind", kind), zap.Error(err))
	}
}

func complete(in models.PurchaseInput, r models.PurchaseResult) bool {
	for _, v := range []decimal.NullDecimal{in.RubberWeight, in.TankWeight, in.DryPercentage, in.UnitPrice} {
		if !v.Valid || v.Decimal.IsZero() {
			return false
		}
	}
	return !r.NetWeight.IsZero() && !r.DryRubberWeight.IsZero() && !r.GrossAmount.IsZero()
}

// ParseDate reads a YYYY-MM-DD calendar date in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(dateFormat, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return t, nil
}
