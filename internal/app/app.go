// Package app wires configuration, storage and services into a runnable API.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "travel-ledger/docs"
	"travel-ledger/internal/config"
	"travel-ledger/internal/handler"
	"travel-ledger/internal/matcher"
	"travel-ledger/internal/middleware"
	"travel-ledger/internal/parser"
	"travel-ledger/internal/period"
	"travel-ledger/internal/repository"
	"travel-ledger/internal/service"
	"travel-ledger/pkg/logger"
)

type App struct {
	Config   *config.Config
	Store    repository.Store
	Resolver *period.Resolver
	Redis    *redis.Client

	Packages       service.PackageService
	Parties        service.PartyService
	Invoices       service.InvoiceService
	Transactions   service.TransactionService
	Reconciliation service.ReconciliationService
	Ledger         service.LedgerService
	Exports        service.ExportService
}

// New opens the configured store and builds the service graph.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	loc, err := cfg.Period.Location()
	if err != nil {
		return nil, err
	}
	resolver, err := period.NewResolver(cfg.Period.Locale, loc)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	strategy := matcher.NewDateAmountStrategy(cfg.Match.DateToleranceDays, cfg.Match.AmountTolerance)
	engine := matcher.NewEngine(store, strategy, matcher.WithLockTimeout(cfg.Match.LockTimeout))
	ledger := service.NewLedgerService(store)

	a := &App{
		Config:         cfg,
		Store:          store,
		Resolver:       resolver,
		Packages:       service.NewPackageService(store),
		Parties:        service.NewPartyService(store),
		Invoices:       service.NewInvoiceService(store),
		Transactions:   service.NewTransactionService(store, parser.NewCSVBankTransactionParser(), cfg.App.BatchSize),
		Reconciliation: service.NewReconciliationService(store, engine),
		Ledger:         ledger,
		Exports:        service.NewExportService(store, ledger, resolver, cfg.App.ExportConcurrency),
	}

	if cfg.Server.RedisURL != "" {
		if a.Redis, err = connectRedis(ctx, cfg.Server.RedisURL); err != nil {
			logger.GetLogger().WithError(err).Warn("Redis unavailable, rate limiting in memory")
		}
	}
	return a, nil
}

// OpenStore returns the in-memory store or a migrated Postgres store.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, error) {
	if cfg.Driver != config.StoragePostgres {
		logger.GetLogger().Info("Using in-memory store")
		return repository.NewMemoryStore(), nil
	}

	dsn := cfg.ConnectionString()
	if cfg.AutoMigrate {
		if err := repository.Migrate(dsn); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	db, err := repository.OpenPostgres(ctx, dsn, cfg.MaxOpenConns, cfg.MaxIdleConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.GetLogger().Info("Database connection established")
	return repository.NewPostgresStore(db), nil
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// Router builds the HTTP engine with middleware and every route mounted.
func (a *App) Router() (*gin.Engine, error) {
	limiter, err := middleware.NewLimiter(a.Config.Server.RateLimit, a.Redis)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT: %w", err)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(a.Config.Server.CORSOrigins))
	router.Use(middleware.ErrorHandler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	now := time.Now
	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimit(limiter))
	handler.RegisterRoutes(v1, handler.Handlers{
		Periods:        handler.NewPeriodHandler(a.Resolver, now),
		Packages:       handler.NewPackageHandler(a.Packages, a.Ledger, a.Resolver, now),
		Parties:        handler.NewPartyHandler(a.Parties),
		Invoices:       handler.NewInvoiceHandler(a.Invoices, a.Resolver, now),
		Transactions:   handler.NewTransactionHandler(a.Transactions, a.Resolver, now),
		Reconciliation: handler.NewReconciliationHandler(a.Reconciliation, a.Resolver, now),
		Exports:        handler.NewExportHandler(a.Exports, a.Resolver, now),
	})
	return router, nil
}

func (a *App) Close() error {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	return a.Store.Close()
}
