package receipt

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sumalatex/suma/internal/domain/models"
	"github.com/sumalatex/suma/internal/valuation"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func purchaseReceipt(settlement models.Settlement) Purchase {
	input := models.PurchaseInput{
		RubberWeight:  nd("100.56"),
		TankWeight:    nd("20.34"),
		DryPercentage: nd("35.78"),
		UnitPrice:     nd("50.25"),
		Settlement:    settlement,
	}
	return Purchase{
		Date:   time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC),
		Name:   "Somchai",
		Input:  input,
		Result: valuation.ComputePurchase(input),
	}
}

func TestRenderPurchase(t *testing.T) {
	tests := []struct {
		name        string
		settlement  models.Settlement
		contains    []string
		notContains []string
	}{
		{
			name:        "no settlement",
			settlement:  models.NoSettlement(),
			contains:    []string{"SUMA LATEX APP", "ใบเสร็จรับเงิน", "02/05/2567", "Somchai", "80.20 กก.", "28.60 กก.", "1,435.72 บ."},
			notContains: []string{"ยอดเงิน:"},
		},
		{
			name:       "deduction",
			settlement: models.Deduct(decimal.RequireFromString("35.72")),
			contains:   []string{"ยอดเงิน:", "1,435.72 บ.", "หัก:", "35.72 บ.", "1,400.00 บ."},
		},
		{
			name:        "zero deduction hides the section",
			settlement:  models.Deduct(decimal.Zero),
			notContains: []string{"ยอดเงิน:", "หัก:"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := RenderPurchase(&buf, purchaseReceipt(tc.settlement)); err != nil {
				t.Fatalf("Expected receipt, got %v", err)
			}
			html := buf.String()
			for _, s := range tc.contains {
				if !strings.Contains(html, s) {
					t.Errorf("Expected %q in receipt", s)
				}
			}
			for _, s := range tc.notContains {
				if strings.Contains(html, s) {
					t.Errorf("Expected %q to be absent from receipt", s)
				}
			}
		})
	}
}

func TestRenderPurchase_EscapesName(t *testing.T) {
	p := purchaseReceipt(models.NoSettlement())
	p.Name = "<script>alert(1)</script>"

	var buf bytes.Buffer
	if err := RenderPurchase(&buf, p); err != nil {
		t.Fatalf("Expected receipt, got %v", err)
	}
	if strings.Contains(buf.String(), "<script>") {
		t.Errorf("Expected name to be escaped")
	}
}

func TestRenderSales(t *testing.T) {
	s := Sales{
		Date:            time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		DryRubberWeight: decimal.NewFromInt(200),
		UnitPrice:       decimal.NewFromInt(30),
		Result:          valuation.ComputeSales(models.SalesInput{DryRubberWeight: nd("200"), UnitPrice: nd("30")}),
	}

	var buf bytes.Buffer
	if err := RenderSales(&buf, s); err != nil {
		t.Fatalf("Expected receipt, got %v", err)
	}
	for _, fragment := range []string{"200.00 กก.", "ค่าบริการ:", "30.00 บ.", "6,030.00 บ."} {
		if !strings.Contains(buf.String(), fragment) {
			t.Errorf("Expected %q in sales receipt", fragment)
		}
	}
}
