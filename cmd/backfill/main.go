package main

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/time/rate"

	"fieldsync/internal/crm"
	"fieldsync/internal/platform/config"
	"fieldsync/internal/platform/logger"
	"fieldsync/internal/source"
	"fieldsync/internal/sync/index"
	"fieldsync/internal/sync/service"
	"fieldsync/internal/sync/transform"
)

// main runs the one-time bulk backfill: build the contact index once, then
// page through every source customer and sync each page as a batch.
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

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
	}, nil)

	syncService := service.New(service.Config{
		Transformer: transform.New(sourceClient),
		Index:       resolver,
		CRM:         crmClient,
		Throttle:    rate.NewLimiter(rate.Every(cfg.WriteInterval), 1),
		Logger:      log,
	})

	log.Info("building contact index")
	snapshot, err := resolver.Resolve(ctx, true)
	if err != nil {
		log.Error("failed to build contact index", "error", err)
		os.Exit(1)
	}
	log.Info("contact index built", "contacts", snapshot.Size())

	opts := service.Options{
		Index:         snapshot,
		IsInitialSync: true,
	}

	var total service.BatchResult
	page := 1
	for {
		customers, err := sourceClient.ListCustomers(ctx, page, cfg.ContactPageLimit)
		if err != nil {
			log.Error("failed to list customers", "page", page, "error", err)
			os.Exit(1)
		}

		batch, err := syncService.SyncBatch(ctx, customers.Records, opts)
		total.Created += batch.Created
		total.Updated += batch.Updated
		total.Skipped += batch.Skipped
		total.Errors += batch.Errors
		if err != nil {
			log.Error("batch aborted", "page", page, "error", err)
			os.Exit(1)
		}

		log.Info("page synced",
			"page", page,
			"of", customers.TotalPages,
			"created", batch.Created,
			"updated", batch.Updated,
			"skipped", batch.Skipped,
			"errors", batch.Errors,
		)

		if page >= customers.TotalPages || len(customers.Records) == 0 {
			break
		}
		page++
	}

	log.Info("backfill complete",
		"created", total.Created,
		"updated", total.Updated,
		"skipped", total.Skipped,
		"errors", total.Errors,
	)
	if total.Errors > 0 {
		os.Exit(1)
	}
}
