package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sumalatex/suma/internal/domain/models"
	"github.com/sumalatex/suma/internal/service/history"
)

// HistoryService lists and deletes saved records.
type HistoryService interface {
	List(ctx context.Context, q history.Query) (history.Page, error)
	Delete(ctx context.Context, id string) error
	DeleteRecord(ctx context.Context, kind models.RecordKind, id string) error
}

// HistoryHandler serves the purchase history view.
type HistoryHandler struct {
	svc       HistoryService
	reporting CacheInvalidator
	loc       *time.Location
	logger    *zap.Logger
}

// NewHistoryHandler constructs the history handler. reporting may be nil.
func NewHistoryHandler(svc HistoryService, reporting CacheInvalidator, loc *time.Location, logger *zap.Logger) *HistoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &HistoryHandler{svc: svc, reporting: reporting, loc: loc, logger: logger}
}

// List returns one page of purchase history.
func (h *HistoryHandler) List(c *gin.Context) {
	q := history.Query{
		QuickFilter: c.Query("quickFilter"),
		Search:      c.Query("searchTerm"),
		SortBy:      c.Query("sortBy"),
		SortDir:     c.Query("sortDir"),
	}

	var err error
	if q.Start, err = optionalDate(c.Query("startDate"), h.loc, time.Time{}); err != nil {
		badRequest(c, h.logger, "startDate: "+err.Error(), err)
		return
	}
	if q.End, err = optionalDate(c.Query("endDate"), h.loc, time.Time{}); err != nil {
		badRequest(c, h.logger, "endDate: "+err.Error(), err)
		return
	}
	if q.Page, err = optionalInt(c.Query("page")); err != nil {
		badRequest(c, h.logger, "page must be a number", err)
		return
	}
	if q.PageSize, err = optionalInt(c.Query("pageSize")); err != nil {
		badRequest(c, h.logger, "pageSize must be a number", err)
		return
	}

	page, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Delete removes a purchase row from the history.
func (h *HistoryHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.invalidate()

	c.Status(http.StatusNoContent)
}

// DeleteRecord removes a purchase, sales or expense record.
func (h *HistoryHandler) DeleteRecord(c *gin.Context) {
	kind, ok := models.ParseRecordKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be purchase, sales or expense"})
		return
	}

	if err := h.svc.DeleteRecord(c.Request.Context(), kind, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.invalidate()

	c.Status(http.StatusNoContent)
}

func (h *HistoryHandler) invalidate() {
	if h.reporting != nil {
		h.reporting.Invalidate()
	}
}

func optionalInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
