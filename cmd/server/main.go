package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"fieldsync/internal/crm"
	"fieldsync/internal/platform/config"
	"fieldsync/internal/platform/health"
	"fieldsync/internal/platform/httpserver"
	"fieldsync/internal/platform/logger"
	"fieldsync/internal/platform/metrics"
	"fieldsync/internal/platform/tracer"
	"fieldsync/internal/source"
	"fieldsync/internal/sync/index"
	"fieldsync/internal/sync/service"
	"fieldsync/internal/sync/transform"
	httptransport "fieldsync/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal sync packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := cfg.ValidateSource(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateCRM(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log.Info("initializing fieldsync",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
	)

	m := metrics.New()

	sourceClient := source.NewClient(source.ClientConfig{
		BaseURL: cfg.Source.BaseURL,
		Token:   cfg.Source.Token,
		Timeout: cfg.HTTPTimeout,
	})
	crmClient := crm.NewClient(crm.ClientConfig{
		BaseURL: cfg.CRM.BaseURL,
		APIKey:  cfg.CRM.APIKey,
		Timeout: cfg.HTTPTimeout,
	})

	resolver := index.NewResolver(crmClient, index.Config{
		TTL:       cfg.IndexTTL,
		PageLimit: cfg.ContactPageLimit,
		MaxPages:  cfg.ContactMaxPages,
	}, m)

	syncService := service.New(service.Config{
		Transformer: transform.New(sourceClient),
		Index:       resolver,
		CRM:         crmClient,
		Logger:      log,
		Metrics:     m,
		Tracer:      tracer.NewOTel(),
	})

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("source-api", cfg.ValidateSource)
	healthHandler.RegisterCheck("crm-api", cfg.ValidateCRM)

	handler := httptransport.NewHandler(syncService, log, m)
	router := httptransport.NewRouter(handler, healthHandler, log)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
