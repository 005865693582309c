package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"travel-ledger/internal/app"
	"travel-ledger/internal/config"
	"travel-ledger/pkg/logger"
)

// @title Travel Ledger API
// @version 1.0
// @description Invoice and bank transaction reconciliation for travel packages

// @host localhost:8080
// @BasePath /
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.LogFormat)
	logger.GetLogger().Info("Starting Travel Ledger Service")
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to initialise application")
	}
	defer a.Close()

	router, err := a.Router()
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to build router")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.GetLogger().WithField("address", srv.Addr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.GetLogger().WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.GetLogger().Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger().WithError(err).Error("Graceful shutdown failed")
	}
}
