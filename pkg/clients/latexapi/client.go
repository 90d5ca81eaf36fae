package latexapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/sumalatex/suma/internal/config"
	"github.com/sumalatex/suma/internal/domain/models"
)

// DateLayout is the calendar date format exchanged with the backend.
const DateLayout = "2006-01-02"

// ErrNotFound is matched by APIError values carrying a 404 status.
var ErrNotFound = errors.New("record not found")

// APIError is returned when the backend answers with a status >= 400.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("latex api error: code=%d, message=%s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client exposes the record operations of the Suma Latex backend.
type Client interface {
	CreatePurchase(ctx context.Context, req PurchaseRequest) error
	CreateSales(ctx context.Context, req SalesRequest) error
	CreateExpense(ctx context.Context, req ExpenseRequest) error
	TotalDryRubber(ctx context.Context, start, end time.Time) (float64, error)
	History(ctx context.Context, q HistoryQuery) ([]models.HistoryRecord, error)
	DeleteHistory(ctx context.Context, id string) error
	DeleteRecord(ctx context.Context, kind models.RecordKind, id string) error
	TotalAmounts(ctx context.Context, kind models.RecordKind, start, end time.Time) ([]models.MonthlyAmount, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient builds a backend client using the provided configuration values.
func NewClient(cfg config.BackendConfig, logger *zap.Logger) *APIClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			// Only reads are retried; a replayed POST would duplicate a bill.
			if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})

	return &APIClient{
		httpClient: restyClient,
		logger:     logger,
	}
}

// PurchaseRequest is the body of POST /purchase.
type PurchaseRequest struct {
	Date            string  `json:"date"`
	Name            string  `json:"name"`
	RubberWeight    float64 `json:"rubberWeight"`
	TankWeight      float64 `json:"tankWeight"`
	Percentage      float64 `json:"percentage"`
	DryRubberWeight float64 `json:"dryRubberWeight"`
	BuyingPrice     float64 `json:"buyingPrice"`
	NetWeight       float64 `json:"netWeight"`
	TotalAmount     float64 `json:"totalAmount"`
	Note            string  `json:"note"`
	NoteAmount      float64 `json:"noteAmount"`
}

// SalesRequest is the body of POST /sales.
type SalesRequest struct {
	Date                 string  `json:"date"`
	TotalDryRubberWeight float64 `json:"totalDryRubberWeight"`
	PricePurchase        float64 `json:"pricePurchase"`
	ServiceCharge        float64 `json:"serviceCharge"`
	TotalAmount          float64 `json:"totalAmount"`
}

// ExpenseRequest is the body of POST /expense.
type ExpenseRequest struct {
	Date   string  `json:"date"`
	Note   string  `json:"note"`
	Amount float64 `json:"amount"`
}

// HistoryQuery filters GET /history/. Zero dates are sent as empty strings.
type HistoryQuery struct {
	Start      time.Time
	End        time.Time
	SearchTerm string
}

type totalDryRubberResponse struct {
	TotalDryRubberWeight float64 `json:"total_dry_rubber_weight"`
}

// recordID accepts both numeric and string identifiers.
type recordID string

func (id *recordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = recordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("record id: %w", err)
	}
	*id = recordID(n.String())
	return nil
}

type historyRow struct {
	ID           recordID `json:"id"`
	Date         string   `json:"date"`
	Name         *string  `json:"name"`
	RubberWeight *float64 `json:"rubberWeight"`
	TankWeight   *float64 `json:"tankWeight"`
	NetWeight    *float64 `json:"netWeight"`
	Percentage   *float64 `json:"percentage"`
	DryRubber    *float64 `json:"dryRubber"`
	PricePerKg   *float64 `json:"pricePerKg"`
	TotalAmount  *float64 `json:"totalAmount"`
}

func (r historyRow) toModel() models.HistoryRecord {
	return models.HistoryRecord{
		ID:           string(r.ID),
		Date:         r.Date,
		Name:         deref(r.Name),
		RubberWeight: deref(r.RubberWeight),
		TankWeight:   deref(r.TankWeight),
		NetWeight:    deref(r.NetWeight),
		Percentage:   deref(r.Percentage),
		DryRubber:    deref(r.DryRubber),
		PricePerKg:   deref(r.PricePerKg),
		TotalAmount:  deref(r.TotalAmount),
	}
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

// errorBody covers the shapes returned by the backend on failure.
type errorBody struct {
	Detail  any    `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (b *errorBody) text() string {
	switch {
	case b == nil:
		return ""
	case b.Message != "":
		return b.Message
	case b.Error != "":
		return b.Error
	case b.Detail != nil:
		if s, ok := b.Detail.(string); ok {
			return s
		}
		raw, _ := json.Marshal(b.Detail)
		return string(raw)
	}
	return ""
}

// CreatePurchase submits a purchase bill.
func (c *APIClient) CreatePurchase(ctx context.Context, req PurchaseRequest) error {
	return c.post(ctx, "/purchase", req, "create purchase")
}

// CreateSales submits a sales bill.
func (c *APIClient) CreateSales(ctx context.Context, req SalesRequest) error {
	return c.post(ctx, "/sales", req, "create sales")
}

// CreateExpense submits an expense record.
func (c *APIClient) CreateExpense(ctx context.Context, req ExpenseRequest) error {
	return c.post(ctx, "/expense", req, "create expense")
}

// TotalDryRubber returns the dry rubber bought between start and end inclusive.
func (c *APIClient) TotalDryRubber(ctx context.Context, start, end time.Time) (float64, error) {
	result := new(totalDryRubberResponse)
	apiErr := new(errorBody)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"start_date": start.Format(DateLayout),
			"end_date":   end.Format(DateLayout),
		}).
		SetResult(result).
		SetError(apiErr).
		Get("/total-dry-rubber")
	if err != nil {
		return 0, fmt.Errorf("fetch total dry rubber: %w", err)
	}
	if err := checkResponse(resp, apiErr); err != nil {
		return 0, err
	}

	return result.TotalDryRubberWeight, nil
}

// History lists purchase rows matching the query.
func (c *APIClient) History(ctx context.Context, q HistoryQuery) ([]models.HistoryRecord, error) {
	var rows []historyRow
	apiErr := new(errorBody)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"startDate":  formatOptionalDate(q.Start),
			"endDate":    formatOptionalDate(q.End),
			"searchTerm": strings.TrimSpace(q.SearchTerm),
		}).
		SetResult(&rows).
		SetError(apiErr).
		Get("/history/")
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	if err := checkResponse(resp, apiErr); err != nil {
		return nil, err
	}

	records := make([]models.HistoryRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toModel())
	}
	return records, nil
}

// DeleteHistory removes a purchase row listed by History.
func (c *APIClient) DeleteHistory(ctx context.Context, id string) error {
	return c.delete(ctx, "/history/{id}", id, "delete history")
}

// DeleteRecord removes a purchase, sales or expense record.
func (c *APIClient) DeleteRecord(ctx context.Context, kind models.RecordKind, id string) error {
	if _, ok := models.ParseRecordKind(string(kind)); !ok {
		return fmt.Errorf("unknown record kind %q", kind)
	}
	return c.delete(ctx, "/"+string(kind)+"/{id}", id, "delete "+string(kind))
}

// TotalAmounts returns the per-month amount series of one record kind.
func (c *APIClient) TotalAmounts(ctx context.Context, kind models.RecordKind, start, end time.Time) ([]models.MonthlyAmount, error) {
	path, err := totalAmountPath(kind)
	if err != nil {
		return nil, err
	}

	var series []models.MonthlyAmount
	apiErr := new(errorBody)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"start_date": start.Format(DateLayout),
			"end_date":   end.Format(DateLayout),
		}).
		SetResult(&series).
		SetError(apiErr).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s totals: %w", kind, err)
	}
	if err := checkResponse(resp, apiErr); err != nil {
		return nil, err
	}

	return series, nil
}

func totalAmountPath(kind models.RecordKind) (string, error) {
	switch kind {
	case models.RecordPurchase:
		return "/purchases/total-amount", nil
	case models.RecordSales:
		return "/sales/total-amount", nil
	case models.RecordExpense:
		return "/expense/total-amount", nil
	}
	return "", fmt.Errorf("unknown record kind %q", kind)
}

func (c *APIClient) post(ctx context.Context, path string, body any, op string) error {
	apiErr := new(errorBody)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetError(apiErr).
		Post(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkResponse(resp, apiErr); err != nil {
		return err
	}

	c.logger.Debug("record submitted", zap.String("path", path), zap.Int("status", resp.StatusCode()))
	return nil
}

func (c *APIClient) delete(ctx context.Context, path, id, op string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s: id must not be empty", op)
	}
	apiErr := new(errorBody)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetError(apiErr).
		Delete(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return checkResponse(resp, apiErr)
}

func checkResponse(resp *resty.Response, apiErr *errorBody) error {
	if resp.StatusCode() < http.StatusBadRequest {
		return nil
	}
	message := apiErr.text()
	if message == "" {
		message = strings.TrimSpace(resp.String())
	}
	return &APIError{Status: resp.StatusCode(), Message: message}
}

func formatOptionalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
