package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gochurn/adapters/api"
	"gochurn/internal"
	"gochurn/internal/config"
	"gochurn/internal/container"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel)).WithPrefix("Server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	if err := appContainer.InitStore(ctx); err != nil {
		log.Fatalf("Failed to initialize model store: %v", err)
	}

	// The model is loaded and validated once; a bad artifact stops startup
	predictor, err := appContainer.PredictionService(ctx)
	if err != nil {
		log.Fatalf("Failed to load model: %v", err)
	}

	metrics := api.NewMetrics()
	server := api.NewServer(predictor, metrics, api.Options{
		GinMode:      appConfig.Server.GinMode,
		FrontendURLs: appConfig.Server.FrontendURLs,
	}, logger)

	httpServer := api.NewHTTPServer(":"+appConfig.Server.Port, server.Handler(),
		appConfig.Server.ReadTimeout, appConfig.Server.WriteTimeout)

	var opsServer *http.Server
	if appConfig.Metrics.Port != "" {
		opsServer = api.NewHTTPServer(":"+appConfig.Metrics.Port,
			api.NewOpsRouter(metrics, predictor.Artifact(), logger),
			appConfig.Server.ReadTimeout, appConfig.Server.WriteTimeout)
		go func() {
			logger.Info("Metrics listening on :%s", appConfig.Metrics.Port)
			if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed: %v", err)
			}
		}()
	}

	go func() {
		logger.Info("Starting churn prediction API on port %s", appConfig.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed: %v", err)
	}
	if opsServer != nil {
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics shutdown failed: %v", err)
		}
	}
}
