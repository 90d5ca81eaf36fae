package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sumalatex/suma/internal/domain/models"
	"github.com/sumalatex/suma/internal/service/bills"
)

const dateLayout = "2006-01-02"

// formNumber is a numeric form field. JSON numbers and numeric strings are read;
// null, "" and anything unparsable count as not entered.
type formNumber struct {
	decimal.NullDecimal
}

func (n *formNumber) UnmarshalJSON(data []byte) error {
	n.NullDecimal = decimal.NullDecimal{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	text := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return nil
		}
		text = strings.TrimSpace(text)
	}

	if value, err := decimal.NewFromString(text); err == nil {
		n.NullDecimal = decimal.NewNullDecimal(value)
	}
	return nil
}

// purchaseRequest mirrors the purchase bill form. Numbers may be sent as JSON
// numbers or strings; absent fields count as not entered.
type purchaseRequest struct {
	// Date is only read by the receipt endpoint. Saved bills are dated today.
	Date         string     `json:"date"`
	Name         string     `json:"name"`
	RubberWeight formNumber `json:"rubberWeight"`
	TankWeight   formNumber `json:"tankWeight"`
	Percentage   formNumber `json:"percentage"`
	BuyingPrice  formNumber `json:"buyingPrice"`
	Note         string     `json:"note"`
	NoteAmount   formNumber `json:"noteAmount"`
}

func (r purchaseRequest) input() (models.PurchaseInput, error) {
	kind, err := models.ParseSettlementKind(r.Note)
	if err != nil {
		return models.PurchaseInput{}, err
	}
	return models.PurchaseInput{
		RubberWeight:  r.RubberWeight.NullDecimal,
		TankWeight:    r.TankWeight.NullDecimal,
		DryPercentage: r.Percentage.NullDecimal,
		UnitPrice:     r.BuyingPrice.NullDecimal,
		Settlement:    models.Settlement{Kind: kind, Amount: r.NoteAmount.NullDecimal},
	}, nil
}

type salesQuoteRequest struct {
	StartDate     string     `json:"startDate" binding:"required"`
	EndDate       string     `json:"endDate" binding:"required"`
	PricePurchase formNumber `json:"pricePurchase"`
}

func (r salesQuoteRequest) bill(loc *time.Location) (models.SalesBill, error) {
	start, err := bills.ParseDate(r.StartDate, loc)
	if err != nil {
		return models.SalesBill{}, fmt.Errorf("startDate: %w", err)
	}
	end, err := bills.ParseDate(r.EndDate, loc)
	if err != nil {
		return models.SalesBill{}, fmt.Errorf("endDate: %w", err)
	}
	return models.SalesBill{Start: start, End: end, UnitPrice: r.PricePurchase.NullDecimal}, nil
}

type salesReceiptRequest struct {
	Date                 string     `json:"date"`
	TotalDryRubberWeight formNumber `json:"totalDryRubberWeight"`
	PricePurchase        formNumber `json:"pricePurchase"`
}

type expenseRequest struct {
	Date   string          `json:"date"`
	Note   string          `json:"note"`
	Amount decimal.Decimal `json:"amount"`
}

type buyingPriceRequest struct {
	BuyingPrice decimal.Decimal `json:"buyingPrice"`
}

type buyingPriceResponse struct {
	BuyingPrice decimal.Decimal `json:"buyingPrice"`
}

// optionalDate parses value, falling back to fallback when it is empty.
func optionalDate(value string, loc *time.Location, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	return bills.ParseDate(value, loc)
}
