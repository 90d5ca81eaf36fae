package reporting

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sumalatex/suma/internal/domain/models"
	"github.com/sumalatex/suma/internal/thaiformat"
	"github.com/sumalatex/suma/pkg/clients/latexapi"
)

const dateLayout = latexapi.DateLayout

// Backend is the subset of the record store used for aggregates.
type Backend interface {
	TotalAmounts(ctx context.Context, kind models.RecordKind, start, end time.Time) ([]models.MonthlyAmount, error)
}

// Service builds the dashboard and the end-of-day summary.
type Service struct {
	backend Backend
	cache   *cache.Cache
	logger  *zap.Logger
	now     func() time.Time

	// generation counts Invalidate calls; a dashboard computed across one is not cached.
	mu         sync.Mutex
	generation uint64
}

// NewService wires a new reporting service instance. A nil cache disables caching.
func NewService(backend Backend, dashboardCache *cache.Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: backend, cache: dashboardCache, logger: logger, now: time.Now}
}

// Dashboard totals purchases, sales and expenses over [start, end].
func (s *Service) Dashboard(ctx context.Context, start, end time.Time) (models.Dashboard, error) {
	if start.After(end) {
		return models.Dashboard{}, fmt.Errorf("dashboard range %s..%s: start is after end", start.Format(dateLayout), end.Format(dateLayout))
	}

	key := start.Format(dateLayout) + "|" + end.Format(dateLayout)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if dashboard, ok := cached.(models.Dashboard); ok {
				s.logger.Debug("dashboard served from cache", zap.String("key", key))
				return dashboard, nil
			}
		}
	}

	generation := s.currentGeneration()

	kinds := []models.RecordKind{models.RecordPurchase, models.RecordSales, models.RecordExpense}
	series := make([][]models.MonthlyAmount, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			points, err := s.backend.TotalAmounts(gctx, kind, start, end)
			if err != nil {
				return fmt.Errorf("load %s totals: %w", kind, err)
			}
			series[i] = points
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.Dashboard{}, err
	}

	purchase, sales, expense := sum(series[0]), sum(series[1]), sum(series[2])
	income := sales.Sub(purchase.Add(expense))

	dashboard := models.Dashboard{
		Start:          start.Format(dateLayout),
		End:            end.Format(dateLayout),
		PurchaseAmount: purchase.InexactFloat64(),
		SalesAmount:    sales.InexactFloat64(),
		ExpenseAmount:  expense.InexactFloat64(),
		Income:         income.InexactFloat64(),
		Series:         mergeSeries(series[0], series[1], series[2]),
	}

	s.store(key, dashboard, generation)
	return dashboard, nil
}

// Invalidate drops cached dashboards after records change.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	if s.cache != nil {
		s.cache.Flush()
	}
}

func (s *Service) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// store caches dashboard unless the cache was invalidated after generation was read.
func (s *Service) store(key string, dashboard models.Dashboard, generation uint64) {
	if s.cache == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation {
		s.logger.Debug("dashboard outdated by a record change, not cached", zap.String("key", key))
		return
	}
	s.cache.SetDefault(key, dashboard)
}

// DailySummary builds the summary document for day and its text rendering.
func (s *Service) DailySummary(ctx context.Context, day time.Time) (models.DailySummary, string, error) {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

	dashboard, err := s.Dashboard(ctx, day, day)
	if err != nil {
		return models.DailySummary{}, "", fmt.Errorf("daily summary %s: %w", day.Format(dateLayout), err)
	}

	summary := models.DailySummary{
		Date:           day,
		PurchaseAmount: dashboard.PurchaseAmount,
		SalesAmount:    dashboard.SalesAmount,
		ExpenseAmount:  dashboard.ExpenseAmount,
		Income:         dashboard.Income,
		CreatedAt:      s.now().UTC(),
	}
	return summary, FormatSummary(summary), nil
}

// FormatSummary renders a summary as the text sent to the shop owner.
func FormatSummary(summary models.DailySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SUMA LATEX สรุปประจำวัน %s\n", summary.Date.Format(dateLayout))
	fmt.Fprintf(&b, "รับซื้อ: %s บ.\n", thaiformat.Float(summary.PurchaseAmount))
	fmt.Fprintf(&b, "ขาย: %s บ.\n", thaiformat.Float(summary.SalesAmount))
	fmt.Fprintf(&b, "ค่าใช้จ่าย: %s บ.\n", thaiformat.Float(summary.ExpenseAmount))
	fmt.Fprintf(&b, "รายได้สุทธิ: %s บ.", thaiformat.Float(summary.Income))
	return b.String()
}

func sum(points []models.MonthlyAmount) decimal.Decimal {
	total := decimal.Zero
	for _, p := range points {
		total = total.Add(decimal.NewFromFloat(p.TotalAmount))
	}
	return total
}

// mergeSeries joins the three series by month label, keeping first-seen order.
func mergeSeries(purchase, sales, expense []models.MonthlyAmount) []models.MonthSeries {
	merged := []models.MonthSeries{}
	index := map[string]int{}

	at := func(month string) *models.MonthSeries {
		i, ok := index[month]
		if !ok {
			i = len(merged)
			index[month] = i
			merged = append(merged, models.MonthSeries{Month: month})
		}
		return &merged[i]
	}

	for _, p := range purchase {
		at(p.Month).Purchase += p.TotalAmount
	}
	for _, p := range sales {
		at(p.Month).Sales += p.TotalAmount
	}
	for _, p := range expense {
		at(p.Month).Expense += p.TotalAmount
	}
	return merged
}
