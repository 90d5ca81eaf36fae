package handlers

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sumalatex/suma/internal/domain/models"
	"github.com/sumalatex/suma/internal/receipt"
	"github.com/sumalatex/suma/internal/sanitize"
	"github.com/sumalatex/suma/internal/service/bills"
	"github.com/sumalatex/suma/internal/valuation"
)

// BillService is the bill entry surface used by the HTTP layer.
type BillService interface {
	QuotePurchase(ctx context.Context, input models.PurchaseInput) models.PurchaseResult
	SavePurchase(ctx context.Context, bill models.PurchaseBill) (bills.SavedPurchase, error)
	QuoteSales(ctx context.Context, start, end time.Time, price decimal.NullDecimal) (bills.SalesQuote, error)
	SaveSales(ctx context.Context, bill models.SalesBill) (bills.SavedSales, error)
	SaveExpense(ctx context.Context, record models.ExpenseRecord) (models.ExpenseRecord, error)
	Today() time.Time
}

// PriceService keeps the sticky buying price.
type PriceService interface {
	LastPrice(ctx context.Context) decimal.Decimal
	Remember(ctx context.Context, price decimal.Decimal) error
}

// CacheInvalidator is told when saved records change aggregates.
type CacheInvalidator interface {
	Invalidate()
}

// BillsHandler serves purchase, sales and expense entry.
type BillsHandler struct {
	bills     BillService
	prices    PriceService
	reporting CacheInvalidator
	loc       *time.Location
	logger    *zap.Logger
}

// NewBillsHandler constructs the bill entry handler. reporting may be nil.
func NewBillsHandler(billSvc BillService, prices PriceService, reporting CacheInvalidator, loc *time.Location, logger *zap.Logger) *BillsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &BillsHandler{bills: billSvc, prices: prices, reporting: reporting, loc: loc, logger: logger}
}

// QuotePurchase previews the figures of a purchase bill.
func (h *BillsHandler) QuotePurchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid purchase payload", err)
		return
	}
	input, err := req.input()
	if err != nil {
		badRequest(c, h.logger, err.Error(), err)
		return
	}

	c.JSON(http.StatusOK, h.bills.QuotePurchase(c.Request.Context(), input))
}

// SavePurchase saves a purchase bill dated today in the shop timezone. A date in
// the payload is ignored.
func (h *BillsHandler) SavePurchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid purchase payload", err)
		return
	}
	input, err := req.input()
	if err != nil {
		badRequest(c, h.logger, err.Error(), err)
		return
	}

	saved, err := h.bills.SavePurchase(c.Request.Context(), models.PurchaseBill{Name: req.Name, Input: input})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.invalidate()

	c.JSON(http.StatusCreated, saved)
}

// PurchaseReceipt renders the receipt of a purchase bill without saving it.
func (h *BillsHandler) PurchaseReceipt(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid purchase payload", err)
		return
	}
	input, err := req.input()
	if err != nil {
		badRequest(c, h.logger, err.Error(), err)
		return
	}
	date, err := optionalDate(req.Date, h.loc, h.bills.Today())
	if err != nil {
		badRequest(c, h.logger, err.Error(), err)
		return
	}

	var buf bytes.Buffer
	err = receipt.RenderPurchase(&buf, receipt.Purchase{
		Date:   date,
		Name:   sanitize.Text(req.Name),
		Input:  input,
		Result: h.bills.QuotePurchase(c.Request.Context(), input),
	})
	if err != nil {
		h.logger.Error("failed rendering purchase receipt", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to render receipt"})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// QuoteSales prices the dry rubber bought over a period.
func (h *BillsHandler) QuoteSales(c *gin.Context) {
	var req salesQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid sales payload", err)
		return
	}
	bill, err := req.bill(h.loc)
	if err != nil {
		badRequest(c, h.logger, err.Error(), err)
		return
	}

	quote, err := h.bills.QuoteSales(c.Request.Context(), bill.Start, bill.End, bill.UnitPrice)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// SaveSales saves a sales bill for a period.
func (h *BillsHandler) SaveSales(c *gin.Context) {
	var req salesQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid sales payload", err)
		return
	}
	bill, err := req.bill(h.loc)
	if err != nil {
		badRequest(c, h.logger, err.Error(), err)
		return
	}

	saved, err := h.bills.SaveSales(c.Request.Context(), bill)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.invalidate()

	c.JSON(http.StatusCreated, saved)
}

// SalesReceipt renders a sales receipt from already quoted figures.
func (h *BillsHandler) SalesReceipt(c *gin.Context) {
	var req salesReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid sales payload", err)
		return
	}
	date, err := optionalDate(req.Date, h.loc, h.bills.Today())
	if err != nil {
		badRequest(c, h.logger, err.Error(), err)
		return
	}

	result := valuation.ComputeSales(models.SalesInput{
		DryRubberWeight: req.TotalDryRubberWeight.NullDecimal,
		UnitPrice:       req.PricePurchase.NullDecimal,
	})

	var buf bytes.Buffer
	err = receipt.RenderSales(&buf, receipt.Sales{
		Date:            date,
		DryRubberWeight: req.TotalDryRubberWeight.Decimal,
		UnitPrice:       req.PricePurchase.Decimal,
		Result:          result,
	})
	if err != nil {
		h.logger.Error("failed rendering sales receipt", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to render receipt"})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// SaveExpense saves an operating expense.
func (h *BillsHandler) SaveExpense(c *gin.Context) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid expense payload", err)
		return
	}
	date, err := optionalDate(req.Date, h.loc, time.Time{})
	if err != nil {
		badRequest(c, h.logger, err.Error(), err)
		return
	}

	saved, err := h.bills.SaveExpense(c.Request.Context(), models.ExpenseRecord{Date: date, Note: req.Note, Amount: req.Amount})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.invalidate()

	c.JSON(http.StatusCreated, gin.H{
		"date":   saved.Date.Format(dateLayout),
		"note":   saved.Note,
		"amount": saved.Amount,
	})
}

// GetBuyingPrice returns the price prefilled on the next purchase bill.
func (h *BillsHandler) GetBuyingPrice(c *gin.Context) {
	c.JSON(http.StatusOK, buyingPriceResponse{BuyingPrice: h.prices.LastPrice(c.Request.Context())})
}

// PutBuyingPrice overrides the remembered buying price.
func (h *BillsHandler) PutBuyingPrice(c *gin.Context) {
	var req buyingPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid buying price payload", err)
		return
	}

	if err := h.prices.Remember(c.Request.Context(), req.BuyingPrice); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, buyingPriceResponse{BuyingPrice: req.BuyingPrice})
}

func (h *BillsHandler) invalidate() {
	if h.reporting != nil {
		h.reporting.Invalidate()
	}
}
