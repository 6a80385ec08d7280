package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"surgly/internal/delivery"
	"surgly/internal/extractor"
	"surgly/internal/infrastructure"
	"surgly/internal/usecase"
	"surgly/pkg/config"
	"surgly/pkg/logger"
	"surgly/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info("Starting server")

	m := metrics.New()

	limiter := rate.NewLimiter(rate.Limit(cfg.Fetch.RateLimitPerSecond), cfg.Fetch.RateLimitBurst)

	insightsClient := infrastructure.NewInsightsClient(
		cfg.External.AdsAPIURL,
		cfg.External.AdsAccessToken,
		cfg.Fetch.Timeout,
		limiter,
		log,
		m,
	)
	pageFetcher := infrastructure.NewPageFetcher(
		cfg.Fetch.Timeout,
		cfg.Fetch.MaxPageBytes,
		cfg.Fetch.UserAgent,
		limiter,
		log,
		m,
	)
	diagnosisRepo := infrastructure.NewDiagnosisRepository(log)

	diagnosisService := usecase.NewDiagnosisService(diagnosisRepo, insightsClient, log, m, cfg.Worker.PoolSize)
	landingPageService := usecase.NewLandingPageService(pageFetcher, extractor.New(), log, m)

	handlers := delivery.NewHTTPHandlers(diagnosisService, landingPageService, log, m)
	router := delivery.NewHTTPRouter(
		handlers,
		log,
		m,
		prometheus.DefaultGatherer,
		cfg.Server.RequestTimeout,
		cfg.Server.AllowedOrigins,
	)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
		os.Exit(1)
	}

	log.Info("Server stopped")
}
