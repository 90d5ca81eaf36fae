// Package valuation turns scale and lab readings into billable amounts.
//
// Purchase valuation truncates every raw reading to one decimal place before it is
// multiplied, truncates the dry rubber weight the same way, and only rounds to two places
// for the figures shown on the bill. Sales valuation applies no truncation.
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/sumalatex/suma/internal/domain/models"
)

var (
	hundred           = decimal.NewFromInt(100)
	two               = decimal.NewFromInt(2)
	serviceChargeRate = decimal.RequireFromString("0.005")
)

// Truncate1 keeps the integer part and the first decimal digit, dropping the rest without
// rounding. Values without a fractional part are returned unchanged.
func Truncate1(x decimal.Decimal) decimal.Decimal {
	return x.Truncate(1)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(x decimal.Decimal) decimal.Decimal {
	return x.Round(2)
}

// ComputePurchase values a purchase bill. Missing or zero readings yield the zero result.
func ComputePurchase(in models.PurchaseInput) models.PurchaseResult {
	if !present(in.RubberWeight) || !present(in.TankWeight) || !present(in.DryPercentage) || !present(in.UnitPrice) {
		return models.PurchaseResult{}
	}

	net := Truncate1(in.RubberWeight.Decimal).Sub(Truncate1(in.TankWeight.Decimal))
	dry := Truncate1(net.Mul(Truncate1(in.DryPercentage.Decimal)).Div(hundred))
	gross := Round2(dry.Mul(Truncate1(in.UnitPrice.Decimal)))

	amount, netAmount := settle(gross, in.Settlement)

	return models.PurchaseResult{
		NetWeight:        Round2(net),
		DryRubberWeight:  Round2(dry),
		GrossAmount:      gross,
		SettlementAmount: amount,
		NetAmount:        netAmount,
	}
}

// settle returns the adjustment amount and the net amount after applying s to gross.
func settle(gross decimal.Decimal, s models.Settlement) (decimal.Decimal, decimal.Decimal) {
	amount := decimal.Zero
	if s.Amount.Valid {
		amount = s.Amount.Decimal
	}

	switch s.Kind {
	case models.SettlementDeduct, models.SettlementTransferFeeDeduct:
		return Round2(amount), Round2(gross.Sub(amount))
	case models.SettlementAdd:
		return Round2(amount), Round2(gross.Add(amount))
	case models.SettlementSplitInHalf:
		half := Round2(gross.Div(two))
		return half, Round2(gross.Sub(half))
	default:
		return decimal.Zero, gross
	}
}

// ComputeSales values a sales bill: the dry rubber subtotal plus a 0.5% service charge.
func ComputeSales(in models.SalesInput) models.SalesResult {
	if !present(in.DryRubberWeight) || !present(in.UnitPrice) {
		return models.SalesResult{}
	}

	subtotal := in.DryRubberWeight.Decimal.Mul(in.UnitPrice.Decimal)
	charge := subtotal.Mul(serviceChargeRate)

	return models.SalesResult{
		Subtotal:      subtotal,
		ServiceCharge: charge,
		TotalAmount:   subtotal.Add(charge),
	}
}

func present(v decimal.NullDecimal) bool {
	return v.Valid && !v.Decimal.IsZero()
}
