package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sumalatex/suma/internal/domain/models"
)

// DashboardService aggregates totals over a date range.
type DashboardService interface {
	Dashboard(ctx context.Context, start, end time.Time) (models.Dashboard, error)
}

// DashboardHandler serves the home screen figures.
type DashboardHandler struct {
	svc    DashboardService
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardHandler constructs the dashboard handler.
func NewDashboardHandler(svc DashboardService, loc *time.Location, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardHandler{svc: svc, loc: loc, logger: logger, now: time.Now}
}

// Get returns the dashboard. The range defaults to the current month up to today.
func (h *DashboardHandler) Get(c *gin.Context) {
	now := h.now().In(h.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, h.loc)

	start, err := optionalDate(c.Query("startDate"), h.loc, monthStart)
	if err != nil {
		badRequest(c, h.logger, "startDate: "+err.Error(), err)
		return
	}
	end, err := optionalDate(c.Query("endDate"), h.loc, today)
	if err != nil {
		badRequest(c, h.logger, "endDate: "+err.Error(), err)
		return
	}
	if start.After(end) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "startDate must not be after endDate"})
		return
	}

	dashboard, err := h.svc.Dashboard(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
