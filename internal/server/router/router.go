package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sumalatex/suma/internal/config"
	"github.com/sumalatex/suma/internal/server/handlers"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Bills     *handlers.BillsHandler
	History   *handlers.HistoryHandler
	Dashboard *handlers.DashboardHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(cfg config.ServerConfig, h Handlers, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(corsMiddleware(cfg.CORSAllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(newIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).middleware())

	api.POST("/purchases/quote", h.Bills.QuotePurchase)
	api.POST("/purchases", h.Bills.SavePurchase)
	api.POST("/purchases/receipt", h.Bills.PurchaseReceipt)
	api.GET("/settings/buying-price", h.Bills.GetBuyingPrice)
	api.PUT("/settings/buying-price", h.Bills.PutBuyingPrice)

	api.POST("/sales/quote", h.Bills.QuoteSales)
	api.POST("/sales", h.Bills.SaveSales)
	api.POST("/sales/receipt", h.Bills.SalesReceipt)

	api.POST("/expenses", h.Bills.SaveExpense)

	api.GET("/history", h.History.List)
	api.DELETE("/history/:id", h.History.Delete)
	api.DELETE("/records/:kind/:id", h.History.DeleteRecord)

	api.GET("/dashboard", h.Dashboard.Get)

	logger.Info("router initialized")

	return r
}
