package models

import "github.com/shopspring/decimal"

// PurchaseInput holds the raw readings typed in while entering a purchase bill.
// Every numeric field is optional so "not entered yet" stays distinct from zero.
type PurchaseInput struct {
	RubberWeight  decimal.NullDecimal // scale reading, rubber + tank (kg)
	TankWeight    decimal.NullDecimal // empty tank (kg)
	DryPercentage decimal.NullDecimal // lab dry rubber content, 0-100
	UnitPrice     decimal.NullDecimal // price per kg of dry rubber
	Settlement    Settlement
}

// PurchaseResult is derived entirely from a PurchaseInput.
type PurchaseResult struct {
	NetWeight        decimal.Decimal `json:"netWeight"`
	DryRubberWeight  decimal.Decimal `json:"dryRubberWeight"`
	GrossAmount      decimal.Decimal `json:"grossAmount"`
	SettlementAmount decimal.Decimal `json:"settlementAmount"`
	NetAmount        decimal.Decimal `json:"netAmount"`
}

// SalesInput holds the pre-aggregated dry rubber sold over a period and the agreed price.
type SalesInput struct {
	DryRubberWeight decimal.NullDecimal
	UnitPrice       decimal.NullDecimal
}

// SalesResult is derived entirely from a SalesInput.
type SalesResult struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	ServiceCharge decimal.Decimal `json:"serviceCharge"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}
