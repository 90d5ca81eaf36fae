package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sumalatex/suma/internal/service/bills"
	"github.com/sumalatex/suma/internal/service/history"
	"github.com/sumalatex/suma/internal/service/pricing"
	"github.com/sumalatex/suma/pkg/clients/latexapi"
)

// incompleteBillMessage is shown by the bill entry screens.
const incompleteBillMessage = "กรอกข้อมูลให้ครบถ้วน!"

// respondError maps service errors to a status and a JSON {"error": ...} body.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var apiErr *latexapi.APIError

	switch {
	case errors.Is(err, bills.ErrIncompleteBill):
		c.JSON(http.StatusBadRequest, gin.H{"error": incompleteBillMessage})
	case errors.Is(err, bills.ErrInvalidRange),
		errors.Is(err, history.ErrInvalidQuery),
		errors.Is(err, pricing.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, latexapi.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.As(err, &apiErr):
		logger.Error("backend rejected request", zap.Int("backend_status", apiErr.Status), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "record service error"})
	default:
		logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to complete request"})
	}
}

func badRequest(c *gin.Context, logger *zap.Logger, msg string, err error) {
	logger.Warn(msg, zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
