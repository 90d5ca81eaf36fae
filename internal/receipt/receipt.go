// Package receipt renders 58 mm thermal-printer receipts for saved bills.
package receipt

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sumalatex/suma/internal/domain/models"
	"github.com/sumalatex/suma/internal/thaiformat"
)

// Purchase is the content of a purchase receipt.
type Purchase struct {
	Date   time.Time
	Name   string
	Input  models.PurchaseInput
	Result models.PurchaseResult
}

// Sales is the content of a sales receipt.
type Sales struct {
	Date            time.Time
	DryRubberWeight decimal.Decimal
	UnitPrice       decimal.Decimal
	Result          models.SalesResult
}

type line struct {
	Label string
	Value string
	Bold  bool
}

type page struct {
	Date   string
	Lines  []line
	Adjust []line
	Total  line
}

const layout = `<!DOCTYPE html>
<html lang="th">
<head>
<meta charset="utf-8">
<title>Print Receipt</title>
<style>
@page { size: 58mm auto; margin: 0; }
body { width: 58mm; margin: 0; padding: 4mm; font-size: 1rem; font-family: 'Sarabun', Arial, sans-serif; }
.label { font-size: 0.8rem; }
.divider { border-top: 1px solid black; margin: 2mm 0; }
.text-center { text-align: center; }
.font-bold { font-weight: bold; }
.receipt-item { display: flex; justify-content: space-between; margin: 1mm 0; }
</style>
</head>
<body>
<div class="print-content">
<div class="text-center">
<h3 class="font-bold">SUMA LATEX APP</h3>
<p>ใบเสร็จรับเงิน</p>
<p>วันที่: {{.Date}}</p>
</div>
<div class="divider"></div>
{{range .Lines}}{{template "line" .}}{{end}}<div class="divider"></div>
{{range .Adjust}}{{template "line" .}}{{end}}{{template "line" .Total}}</div>
</body>
</html>
{{define "line"}}<div class="receipt-item{{if .Bold}} font-bold{{end}}"><span class="label">{{.Label}}:</span><span>{{.Value}}</span></div>
{{end}}`

var receiptTemplate = template.Must(template.New("receipt").Parse(layout))

// RenderPurchase writes the purchase receipt. The gross amount and settlement
// lines appear only when a settlement with a non-zero amount was applied.
func RenderPurchase(w io.Writer, p Purchase) error {
	in, r := p.Input, p.Result

	data := page{
		Date: thaiformat.Date(p.Date),
		Lines: []line{
			{Label: "ชื่อ", Value: p.Name},
			{Label: "น้ำหนักยาง", Value: kg(in.RubberWeight.Decimal)},
			{Label: "น้ำหนักถัง", Value: kg(in.TankWeight.Decimal)},
			{Label: "คงเหลือ", Value: kg(r.NetWeight)},
			{Label: "%", Value: in.DryPercentage.Decimal.String() + "%"},
			{Label: "ยางแห้ง", Value: kg(r.DryRubberWeight)},
			{Label: "รับซื้อ", Value: baht(in.UnitPrice.Decimal)},
		},
		Total: line{Label: "ยอดเงินสุทธิ", Value: baht(r.NetAmount), Bold: true},
	}

	if kind := in.Settlement.Kind; kind != models.SettlementNone && !r.SettlementAmount.IsZero() {
		data.Adjust = []line{
			{Label: "ยอดเงิน", Value: baht(r.GrossAmount)},
			{Label: kind.Label(), Value: baht(r.SettlementAmount)},
		}
	}

	if err := receiptTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render purchase receipt: %w", err)
	}
	return nil
}

// RenderSales writes the sales receipt.
func RenderSales(w io.Writer, s Sales) error {
	data := page{
		Date: thaiformat.Date(s.Date),
		Lines: []line{
			{Label: "ยางแห้ง", Value: kg(s.DryRubberWeight)},
			{Label: "รับซื้อ", Value: baht(s.UnitPrice)},
			{Label: "ค่าบริการ", Value: baht(s.Result.ServiceCharge)},
		},
		Total: line{Label: "ยอดเงินสุทธิ", Value: baht(s.Result.TotalAmount), Bold: true},
	}

	if err := receiptTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render sales receipt: %w", err)
	}
	return nil
}

func kg(v decimal.Decimal) string {
	return thaiformat.Decimal(v) + " กก."
}

func baht(v decimal.Decimal) string {
	return thaiformat.Decimal(v) + " บ."
}
