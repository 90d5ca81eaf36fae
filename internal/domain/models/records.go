package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseBill is a purchase entry ready to be computed and submitted.
type PurchaseBill struct {
	Name  string
	Input PurchaseInput
}

// SalesBill is a sales entry covering the dry rubber bought between Start and End.
type SalesBill struct {
	Start     time.Time
	End       time.Time
	UnitPrice decimal.NullDecimal
}

// ExpenseRecord captures a miscellaneous operating expense.
type ExpenseRecord struct {
	Date   time.Time
	Note   string
	Amount decimal.Decimal
}

// RecordKind names the record collections held by the backend.
type RecordKind string

const (
	RecordPurchase RecordKind = "purchase"
	RecordSales    RecordKind = "sales"
	RecordExpense  RecordKind = "expense"
)

// ParseRecordKind validates a kind coming from a URL segment.
func ParseRecordKind(value string) (RecordKind, bool) {
	switch RecordKind(value) {
	case RecordPurchase, RecordSales, RecordExpense:
		return RecordKind(value), true
	}
	return "", false
}

// HistoryRecord is one purchase row of the history view.
type HistoryRecord struct {
	ID           string  `json:"id"`
	Date         string  `json:"date"`
	Name         string  `json:"name"`
	RubberWeight float64 `json:"rubberWeight"`
	TankWeight   float64 `json:"tankWeight"`
	NetWeight    float64 `json:"netWeight"`
	Percentage   float64 `json:"percentage"`
	DryRubber    float64 `json:"dryRubber"`
	PricePerKg   float64 `json:"pricePerKg"`
	TotalAmount  float64 `json:"totalAmount"`
}

// MonthlyAmount is one point of a per-month aggregate series.
type MonthlyAmount struct {
	Month       string  `json:"month"`
	TotalAmount float64 `json:"totalAmount"`
}
