package history

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sumalatex/suma/internal/domain/models"
	"github.com/sumalatex/suma/pkg/clients/latexapi"
)

// ErrInvalidQuery indicates an unknown sort column, quick filter or paging value.
var ErrInvalidQuery = errors.New("invalid history query")

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	dateFormat      = latexapi.DateLayout
)

// Quick filters relative to today.
const (
	QuickToday   = "today"
	Quick1Day    = "1_day"
	Quick15Days  = "15_days"
	Quick30Days  = "30_days"
	Quick3Months = "3_months"
	Quick1Year   = "1_year"
)

// Sort directions.
const (
	SortAscending  = "asc"
	SortDescending = "desc"
)

// Backend is the subset of the record store used by the history view.
type Backend interface {
	History(ctx context.Context, q latexapi.HistoryQuery) ([]models.HistoryRecord, error)
	DeleteHistory(ctx context.Context, id string) error
	DeleteRecord(ctx context.Context, kind models.RecordKind, id string) error
}

// Query selects one page of purchase history.
type Query struct {
	Start       time.Time
	End         time.Time
	QuickFilter string
	Search      string
	SortBy      string
	SortDir     string
	Page        int
	PageSize    int
}

// Page is one page of the filtered history plus totals over every matching row.
type Page struct {
	Start          string                 `json:"startDate"`
	End            string                 `json:"endDate"`
	Records        []models.HistoryRecord `json:"records"`
	Page           int                    `json:"page"`
	PageSize       int                    `json:"pageSize"`
	TotalPages     int                    `json:"totalPages"`
	TotalRecords   int                    `json:"totalRecords"`
	TotalNetWeight float64                `json:"totalNetWeight"`
	TotalAmount    float64                `json:"totalAmount"`
}

// Service serves the purchase history view.
type Service struct {
	backend Backend
	loc     *time.Location
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires the history service.
func NewService(backend Backend, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{backend: backend, loc: loc, logger: logger, now: time.Now}
}

// List fetches, filters, sorts and paginates history rows.
func (s *Service) List(ctx context.Context, q Query) (Page, error) {
	start, end, err := s.resolveRange(q)
	if err != nil {
		return Page{}, err
	}
	less, err := comparator(q.SortBy, q.SortDir)
	if err != nil {
		return Page{}, err
	}
	page, size, err := paging(q.Page, q.PageSize)
	if err != nil {
		return Page{}, err
	}

	search := strings.TrimSpace(q.Search)
	records, err := s.backend.History(ctx, latexapi.HistoryQuery{Start: start, End: end, SearchTerm: search})
	if err != nil {
		return Page{}, fmt.Errorf("load history: %w", err)
	}

	from, to := start.Format(dateFormat), end.Format(dateFormat)
	needle := strings.ToLower(search)
	filtered := make([]models.HistoryRecord, 0, len(records))
	for _, r := range records {
		if needle != "" && !strings.Contains(strings.ToLower(r.Name), needle) {
			continue
		}
		day := dayOf(r.Date)
		if day < from || day > to {
			continue
		}
		filtered = append(filtered, r)
	}

	slices.SortStableFunc(filtered, less)

	netWeight, amount := decimal.Zero, decimal.Zero
	for _, r := range filtered {
		netWeight = netWeight.Add(decimal.NewFromFloat(r.NetWeight))
		amount = amount.Add(decimal.NewFromFloat(r.TotalAmount))
	}

	total := len(filtered)
	totalPages := (total + size - 1) / size
	lo := min((page-1)*size, total)
	hi := min(lo+size, total)

	s.logger.Debug("history listed",
		zap.String("start", from), zap.String("end", to),
		zap.Int("fetched", len(records)), zap.Int("matched", total))

	return Page{
		Start:          from,
		End:            to,
		Records:        filtered[lo:hi],
		Page:           page,
		PageSize:       size,
		TotalPages:     totalPages,
		TotalRecords:   total,
		TotalNetWeight: netWeight.InexactFloat64(),
		TotalAmount:    amount.InexactFloat64(),
	}, nil
}

// Delete removes a purchase row shown in the history view.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.backend.DeleteHistory(ctx, id); err != nil {
		return fmt.Errorf("delete history %s: %w", id, err)
	}
	s.logger.Info("history row deleted", zap.String("id", id))
	return nil
}

// DeleteRecord removes a purchase, sales or expense record.
func (s *Service) DeleteRecord(ctx context.Context, kind models.RecordKind, id string) error {
	if err := s.backend.DeleteRecord(ctx, kind, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	s.logger.Info("record deleted", zap.String("kind", string(kind)), zap.String("id", id))
	return nil
}

func (s *Service) resolveRange(q Query) (time.Time, time.Time, error) {
	today := s.today()

	if q.QuickFilter != "" {
		switch q.QuickFilter {
		case QuickToday:
			return today, today, nil
		case Quick1Day:
			return today.AddDate(0, 0, -1), today, nil
		case Quick15Days:
			return today.AddDate(0, 0, -15), today, nil
		case Quick30Days:
			return today.AddDate(0, 0, -30), today, nil
		case Quick3Months:
			return today.AddDate(0, -3, 0), today, nil
		case Quick1Year:
			return today.AddDate(0, -12, 0), today, nil
		}
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown quick filter %q", ErrInvalidQuery, q.QuickFilter)
	}

	start, end := q.Start, q.End
	if end.IsZero() {
		end = today
	}
	if start.IsZero() {
		start = end
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start date is after end date", ErrInvalidQuery)
	}
	return start, end, nil
}

func (s *Service) today() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

func paging(page, size int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		return 0, 0, fmt.Errorf("%w: page must be positive", ErrInvalidQuery)
	}
	if size < 1 || size > MaxPageSize {
		return 0, 0, fmt.Errorf("%w: page size must be between 1 and %d", ErrInvalidQuery, MaxPageSize)
	}
	return page, size, nil
}

type recordCompare func(a, b models.HistoryRecord) int

var sortColumns = map[string]recordCompare{
	"date":         func(a, b models.HistoryRecord) int { return cmp.Compare(a.Date, b.Date) },
	"name":         func(a, b models.HistoryRecord) int { return cmp.Compare(a.Name, b.Name) },
	"rubberWeight": func(a, b models.HistoryRecord) int { return cmp.Compare(a.RubberWeight, b.RubberWeight) },
	"tankWeight":   func(a, b models.HistoryRecord) int { return cmp.Compare(a.TankWeight, b.TankWeight) },
	"netWeight":    func(a, b models.HistoryRecord) int { return cmp.Compare(a.NetWeight, b.NetWeight) },
	"percentage":   func(a, b models.HistoryRecord) int { return cmp.Compare(a.Percentage, b.Percentage) },
	"dryRubber":    func(a, b models.HistoryRecord) int { return cmp.Compare(a.DryRubber, b.DryRubber) },
	"pricePerKg":   func(a, b models.HistoryRecord) int { return cmp.Compare(a.PricePerKg, b.PricePerKg) },
	"totalAmount":  func(a, b models.HistoryRecord) int { return cmp.Compare(a.TotalAmount, b.TotalAmount) },
}

// comparator defaults to newest first.
func comparator(column, dir string) (recordCompare, error) {
	if column == "" {
		column = "date"
		if dir == "" {
			dir = SortDescending
		}
	}
	compare, ok := sortColumns[column]
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort column %q", ErrInvalidQuery, column)
	}

	switch dir {
	case "", SortAscending:
		return compare, nil
	case SortDescending:
		return func(a, b models.HistoryRecord) int { return compare(b, a) }, nil
	}
	return nil, fmt.Errorf("%w: sort direction must be asc or desc", ErrInvalidQuery)
}

// dayOf trims a timestamp to its calendar day so both "2024-05-01" and
// "2024-05-01T08:00:00" compare as dates.
func dayOf(value string) string {
	if len(value) > len(dateFormat) {
		return value[:len(dateFormat)]
	}
	return value
}
