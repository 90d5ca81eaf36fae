package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/sumalatex/suma/internal/config"
	"github.com/sumalatex/suma/internal/repository/mongodb"
	"github.com/sumalatex/suma/internal/repository/sheets"
	"github.com/sumalatex/suma/internal/repository/sqlite"
	"github.com/sumalatex/suma/internal/scheduler"
	"github.com/sumalatex/suma/internal/server/handlers"
	"github.com/sumalatex/suma/internal/server/router"
	billsvc "github.com/sumalatex/suma/internal/service/bills"
	historysvc "github.com/sumalatex/suma/internal/service/history"
	"github.com/sumalatex/suma/internal/service/pricing"
	reportingsvc "github.com/sumalatex/suma/internal/service/reporting"
	whatsappsvc "github.com/sumalatex/suma/internal/service/whatsapp"
	"github.com/sumalatex/suma/pkg/clients/latexapi"
	whatsappclient "github.com/sumalatex/suma/pkg/clients/whatsapp"
	"github.com/sumalatex/suma/pkg/logger"
)

func main() {
	envFile := flag.String("env", "", "path to an env file (defaults to ./.env when present)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	var mongoRepo *mongodb.MongoDBRepository
	if cfg.MongoDB.Enabled() {
		mongoRepo, err = mongodb.NewMongoDBRepository(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
	} else {
		baseLogger.Info("mongodb not configured, daily summaries will not be archived")
	}

	var priceStore pricing.Store
	switch cfg.Pricing.Store {
	case config.PriceStoreMongoDB:
		priceStore = mongoRepo
	default:
		sqliteStore, err := sqlite.Open(startupCtx, cfg.Pricing.SQLitePath, baseLogger.Named("repo.sqlite"))
		if err != nil {
			baseLogger.Fatal("failed to open price store", zap.Error(err))
		}
		defer func() {
			if err := sqliteStore.Close(); err != nil {
				baseLogger.Error("failed to close price store", zap.Error(err))
			}
		}()
		priceStore = sqliteStore
	}

	var ledger sheets.Ledger
	if cfg.Sheets.Enabled() {
		sheetsLedger, err := sheets.NewSpreadsheetLedger(startupCtx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets ledger", zap.Error(err))
		}
		ledger = sheetsLedger
		baseLogger.Info("google sheets ledger mirror enabled")
	}

	backend := latexapi.NewClient(cfg.Backend, baseLogger.Named("client.latexapi"))

	pricingSvc := pricing.NewService(priceStore, cfg.Pricing.DefaultPrice, baseLogger.Named("svc.pricing"))
	billSvc := billsvc.NewService(backend, pricingSvc, ledger, cfg.TimeLoc, baseLogger.Named("svc.bills"))
	historySvc := historysvc.NewService(backend, cfg.TimeLoc, baseLogger.Named("svc.history"))
	var dashboardCache *cache.Cache
	if cfg.Reporting.CacheTTL > 0 {
		dashboardCache = cache.New(cfg.Reporting.CacheTTL, 2*cfg.Reporting.CacheTTL)
	}
	reportingSvc := reportingsvc.NewService(backend, dashboardCache, baseLogger.Named("svc.reporting"))

	var archive scheduler.SummaryArchive
	if mongoRepo != nil {
		archive = mongoRepo
	}

	var notifier scheduler.OwnerNotifier
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp, baseLogger.Named("client.whatsapp"))
		notifier = whatsappsvc.NewMetaWhatsAppService(whatsClient, cfg.WhatsApp.OwnerID, baseLogger.Named("svc.whatsapp"))
	} else {
		baseLogger.Info("whatsapp not configured, daily summaries will not be sent")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := router.New(cfg.Server, router.Handlers{
		Bills:     handlers.NewBillsHandler(billSvc, pricingSvc, reportingSvc, cfg.TimeLoc, baseLogger.Named("handlers.bills")),
		History:   handlers.NewHistoryHandler(historySvc, reportingSvc, cfg.TimeLoc, baseLogger.Named("handlers.history")),
		Dashboard: handlers.NewDashboardHandler(reportingSvc, cfg.TimeLoc, baseLogger.Named("handlers.dashboard")),
	}, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting.CronSchedule, cfg.TimeLoc, reportingSvc, archive, notifier, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("backend", cfg.Backend.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
