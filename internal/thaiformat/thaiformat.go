// Package thaiformat renders amounts and weights the way the shop reads them (th-TH grouping).
package thaiformat

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Decimal formats v with two decimals and thousands separators, e.g. 1,435.72.
func Decimal(v decimal.Decimal) string {
	return Float(v.Round(2).InexactFloat64())
}

// Float formats v with two decimals and thousands separators.
func Float(v float64) string {
	return message.NewPrinter(language.Thai).Sprintf("%.2f", v)
}

// buddhistEraOffset converts Gregorian years to the Thai solar calendar.
const buddhistEraOffset = 543

// Date formats t as DD/MM/YYYY in the Buddhist era, as printed on receipts.
func Date(t time.Time) string {
	return fmt.Sprintf("%02d/%02d/%d", t.Day(), int(t.Month()), t.Year()+buddhistEraOffset)
}
