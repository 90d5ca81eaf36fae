package bills

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sumalatex/suma/internal/domain/models"
	"github.com/sumalatex/suma/internal/repository/sheets"
	"github.com/sumalatex/suma/pkg/clients/latexapi"
)

type fakeBackend struct {
	purchases []latexapi.PurchaseRequest
	sales     []latexapi.SalesRequest
	expenses  []latexapi.ExpenseRequest
	dryTotal  float64
	ranges    [][2]time.Time
	err       error
}

func (f *fakeBackend) CreatePurchase(_ context.Context, req latexapi.PurchaseRequest) error {
	if f.err != nil {
		return f.err
	}
	f.purchases = append(f.purchases, req)
	return nil
}

func (f *fakeBackend) CreateSales(_ context.Context, req latexapi.SalesRequest) error {
	if f.err != nil {
		return f.err
	}
	f.sales = append(f.sales, req)
	return nil
}

func (f *fakeBackend) CreateExpense(_ context.Context, req latexapi.ExpenseRequest) error {
	if f.err != nil {
		return f.err
	}
	f.expenses = append(f.expenses, req)
	return nil
}

func (f *fakeBackend) TotalDryRubber(_ context.Context, start, end time.Time) (float64, error) {
	f.ranges = append(f.ranges, [2]time.Time{start, end})
	return f.dryTotal, nil
}

type fakePrices struct {
	remembered []decimal.Decimal
	err        error
}

func (f *fakePrices) Remember(_ context.Context, price decimal.Decimal) error {
	f.remembered = append(f.remembered, price)
	return f.err
}

type fakeLedger struct {
	purchases []latexapi.PurchaseRequest
	sales     []latexapi.SalesRequest
	expenses  []latexapi.ExpenseRequest
	err       error
}

func (f *fakeLedger) AppendPurchase(_ context.Context, bill latexapi.PurchaseRequest) error {
	if f.err != nil {
		return f.err
	}
	f.purchases = append(f.purchases, bill)
	return nil
}

func (f *fakeLedger) AppendSales(_ context.Context, bill latexapi.SalesRequest) error {
	if f.err != nil {
		return f.err
	}
	f.sales = append(f.sales, bill)
	return nil
}

func (f *fakeLedger) AppendExpense(_ context.Context, expense latexapi.ExpenseRequest) error {
	if f.err != nil {
		return f.err
	}
	f.expenses = append(f.expenses, expense)
	return nil
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func newTestService(backend *fakeBackend, prices *fakePrices, ledger sheets.Ledger) *Service {
	bangkok := time.FixedZone("ICT", 7*60*60)
	svc := NewService(backend, prices, ledger, bangkok, nil)
	// 2024-05-01 18:30 UTC is already 2024-05-02 in Bangkok.
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC) }
	return svc
}

func scenarioBill() models.PurchaseBill {
	return models.PurchaseBill{
		Name: "  <b>Somchai</b> ",
		Input: models.PurchaseInput{
			RubberWeight:  nd("100.56"),
			TankWeight:    nd("20.34"),
			DryPercentage: nd("35.78"),
			UnitPrice:     nd("50.25"),
			Settlement:    models.Deduct(decimal.RequireFromString("35.72")),
		},
	}
}

func TestSavePurchase_SubmitsNetAmount(t *testing.T) {
	backend := &fakeBackend{}
	prices := &fakePrices{}
	ledger := &fakeLedger{}
	svc := newTestService(backend, prices, ledger)

	saved, err := svc.SavePurchase(context.Background(), scenarioBill())
	if err != nil {
		t.Fatalf("Expected purchase to save, got %v", err)
	}

	if len(backend.purchases) != 1 {
		t.Fatalf("Expected 1 submitted purchase, got %d", len(backend.purchases))
	}
	req := backend.purchases[0]
	if req.Date != "2024-05-02" {
		t.Errorf("Expected shop-local date 2024-05-02, got %s", req.Date)
	}
	if req.Name != "Somchai" {
		t.Errorf("Expected sanitized name Somchai, got %q", req.Name)
	}
	if req.NetWeight != 80.2 || req.DryRubberWeight != 28.6 {
		t.Errorf("Expected net 80.2 and dry 28.6, got %v and %v", req.NetWeight, req.DryRubberWeight)
	}
	if req.TotalAmount != 1400 {
		t.Errorf("Expected totalAmount 1400 after deduction, got %v", req.TotalAmount)
	}
	if req.Note != "หัก" || req.NoteAmount != 35.72 {
		t.Errorf("Expected note หัก 35.72, got %s %v", req.Note, req.NoteAmount)
	}
	if !saved.Result.GrossAmount.Equal(decimal.RequireFromString("1435.72")) {
		t.Errorf("Expected gross 1435.72, got %s", saved.Result.GrossAmount)
	}

	if len(prices.remembered) != 1 || !prices.remembered[0].Equal(decimal.RequireFromString("50.25")) {
		t.Errorf("Expected buying price 50.25 to be remembered, got %v", prices.remembered)
	}
	if len(ledger.purchases) != 1 || ledger.purchases[0].TotalAmount != 1400 {
		t.Errorf("Expected the submitted purchase mirrored to the ledger, got %+v", ledger.purchases)
	}
}

func TestSavePurchase_SplitSubmitsNetForAllKinds(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(backend, &fakePrices{}, nil)

	bill := scenarioBill()
	bill.Input.Settlement = models.SplitInHalf()
	if _, err := svc.SavePurchase(context.Background(), bill); err != nil {
		t.Fatalf("Expected purchase to save, got %v", err)
	}

	req := backend.purchases[0]
	if req.TotalAmount != 717.86 || req.NoteAmount != 717.86 {
		t.Errorf("Expected split halves of 717.86, got total %v note %v", req.TotalAmount, req.NoteAmount)
	}
	if req.Note != "หาร 2 คน" {
		t.Errorf("Expected split label, got %q", req.Note)
	}
}

func TestSavePurchase_Incomplete(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *models.PurchaseBill)
	}{
		{"empty name", func(b *models.PurchaseBill) { b.Name = "   " }},
		{"markup only name", func(b *models.PurchaseBill) { b.Name = "<script></script>" }},
		{"missing tank weight", func(b *models.PurchaseBill) { b.Input.TankWeight = decimal.NullDecimal{} }},
		{"zero percentage", func(b *models.PurchaseBill) { b.Input.DryPercentage = nd("0") }},
		{"zero net weight", func(b *models.PurchaseBill) { b.Input.TankWeight = nd("100.5") }},
		{"zero gross amount", func(b *models.PurchaseBill) { b.Input.UnitPrice = nd("0.05") }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			backend := &fakeBackend{}
			prices := &fakePrices{}
			svc := newTestService(backend, prices, nil)
			bill := scenarioBill()
			tc.mutate(&bill)

			_, err := svc.SavePurchase(context.Background(), bill)
			if !errors.Is(err, ErrIncompleteBill) {
				t.Fatalf("Expected ErrIncompleteBill, got %v", err)
			}
			if len(backend.purchases) != 0 || len(prices.remembered) != 0 {
				t.Errorf("Expected nothing submitted or remembered")
			}
		})
	}
}

func TestSavePurchase_DeductionUpToGross(t *testing.T) {
	tests := []struct {
		name        string
		deduct      string
		expectTotal float64
	}{
		{"deduction equals gross", "1435.72", 0},
		{"deduction above gross", "1500", -64.28},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			backend := &fakeBackend{}
			svc := newTestService(backend, &fakePrices{}, nil)
			bill := scenarioBill()
			bill.Input.Settlement = models.Deduct(decimal.RequireFromString(tc.deduct))

			if _, err := svc.SavePurchase(context.Background(), bill); err != nil {
				t.Fatalf("Expected purchase to save, got %v", err)
			}
			if len(backend.purchases) != 1 {
				t.Fatalf("Expected 1 submitted purchase, got %d", len(backend.purchases))
			}
			if got := backend.purchases[0].TotalAmount; got != tc.expectTotal {
				t.Errorf("Expected totalAmount %v, got %v", tc.expectTotal, got)
			}
		})
	}
}

func TestSavePurchase_SideEffectFailuresAreNotFatal(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(backend, &fakePrices{err: errors.New("disk full")}, &fakeLedger{err: errors.New("quota")})

	if _, err := svc.SavePurchase(context.Background(), scenarioBill()); err != nil {
		t.Fatalf("Expected save to succeed despite side-effect failures, got %v", err)
	}
	if len(backend.purchases) != 1 {
		t.Errorf("Expected purchase submitted")
	}
}

func TestSavePurchase_BackendError(t *testing.T) {
	backendErr := &latexapi.APIError{Status: 500, Message: "boom"}
	prices := &fakePrices{}
	svc := newTestService(&fakeBackend{err: backendErr}, prices, nil)

	_, err := svc.SavePurchase(context.Background(), scenarioBill())
	var apiErr *latexapi.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected wrapped APIError, got %v", err)
	}
	if len(prices.remembered) != 0 {
		t.Errorf("Expected price not remembered when the save fails")
	}
}

func TestQuoteSales(t *testing.T) {
	backend := &fakeBackend{dryTotal: 200}
	svc := newTestService(backend, nil, nil)
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

	quote, err := svc.QuoteSales(context.Background(), start, end, nd("30"))
	if err != nil {
		t.Fatalf("Expected quote, got %v", err)
	}
	if !quote.Result.Subtotal.Equal(decimal.NewFromInt(6000)) || !quote.Result.TotalAmount.Equal(decimal.NewFromInt(6030)) {
		t.Errorf("Expected 6000 / 6030, got %s / %s", quote.Result.Subtotal, quote.Result.TotalAmount)
	}
	if quote.Start != "2024-05-01" || quote.End != "2024-05-15" {
		t.Errorf("Unexpected range %s..%s", quote.Start, quote.End)
	}

	if _, err := svc.QuoteSales(context.Background(), end, start, nd("30")); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange for reversed range, got %v", err)
	}
	if len(backend.ranges) != 1 {
		t.Errorf("Expected reversed range to skip the backend, got %d calls", len(backend.ranges))
	}
}

func TestSaveSales(t *testing.T) {
	tests := []struct {
		name      string
		dryTotal  float64
		price     decimal.NullDecimal
		expectErr error
	}{
		{"saved", 200, nd("30"), nil},
		{"nothing bought", 0, nd("30"), ErrIncompleteBill},
		{"missing price", 200, decimal.NullDecimal{}, ErrIncompleteBill},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			backend := &fakeBackend{dryTotal: tc.dryTotal}
			ledger := &fakeLedger{}
			svc := newTestService(backend, nil, ledger)
			day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

			saved, err := svc.SaveSales(context.Background(), models.SalesBill{Start: day, End: day, UnitPrice: tc.price})
			if !errors.Is(err, tc.expectErr) {
				t.Fatalf("Expected error %v, got %v", tc.expectErr, err)
			}
			if tc.expectErr != nil {
				if len(backend.sales) != 0 {
					t.Errorf("Expected no sales submitted")
				}
				return
			}
			req := backend.sales[0]
			if req.Date != "2024-05-02" || req.ServiceCharge != 30 || req.TotalAmount != 6030 {
				t.Errorf("Unexpected sales request %+v", req)
			}
			if saved.Date != "2024-05-02" {
				t.Errorf("Expected saved date 2024-05-02, got %s", saved.Date)
			}
			if len(ledger.sales) != 1 {
				t.Errorf("Expected sales mirrored to the ledger")
			}
		})
	}
}

func TestSaveExpense(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(backend, nil, nil)

	saved, err := svc.SaveExpense(context.Background(), models.ExpenseRecord{Note: " ค่าน้ำมัน ", Amount: decimal.NewFromInt(300)})
	if err != nil {
		t.Fatalf("Expected expense to save, got %v", err)
	}
	if saved.Date.Format(dateFormat) != "2024-05-02" {
		t.Errorf("Expected default date today, got %s", saved.Date.Format(dateFormat))
	}
	if backend.expenses[0].Note != "ค่าน้ำมัน" || backend.expenses[0].Amount != 300 {
		t.Errorf("Unexpected expense request %+v", backend.expenses[0])
	}

	for _, bad := range []models.ExpenseRecord{
		{Note: "", Amount: decimal.NewFromInt(1)},
		{Note: "fuel", Amount: decimal.Zero},
		{Note: "fuel", Amount: decimal.NewFromInt(-5)},
	} {
		if _, err := svc.SaveExpense(context.Background(), bad); !errors.Is(err, ErrIncompleteBill) {
			t.Errorf("Expected ErrIncompleteBill for %+v, got %v", bad, err)
		}
	}
}

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("ICT", 7*60*60)
	got, err := ParseDate(" 2024-05-02 ", loc)
	if err != nil {
		t.Fatalf("Expected date to parse, got %v", err)
	}
	if got.Location() != loc || got.Day() != 2 {
		t.Errorf("Unexpected parsed date %v", got)
	}
	if _, err := ParseDate("02/05/2024", loc); err == nil {
		t.Errorf("Expected error for non ISO date")
	}
}
