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

	"climas_backend/internal/adapters/storage"
	"climas_backend/internal/catalog"
	"climas_backend/internal/email"
	"climas_backend/internal/events"
	"climas_backend/internal/export"
	apphttp "climas_backend/internal/http"
	"climas_backend/internal/http/router"
	"climas_backend/internal/notification"
	"climas_backend/internal/opportunities"
	"climas_backend/internal/opportunities/repository"
	"climas_backend/internal/pdf"
	"climas_backend/internal/quotes/snapshot"
	"climas_backend/internal/scheduler"
	"climas_backend/internal/whatsapp"
	"climas_backend/platform/config"
	"climas_backend/platform/db"
	"climas_backend/platform/logger"
	"climas_backend/platform/metrics"
	"climas_backend/platform/phone"
	"climas_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.GetHTTPAddr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database ready")

	appMetrics := metrics.New()
	phones := phone.NewNormalizer(cfg.GetDefaultPhoneRegion())
	val := validator.New()
	eventBus := events.NewInMemoryBus(log)

	priceCatalog := catalog.Empty()
	if path := cfg.GetCatalogPath(); path != "" {
		priceCatalog, err = catalog.Load(path)
		if err != nil {
			log.Error("failed to load catalog", "error", err, "path", path)
			panic("failed to load catalog: " + err.Error())
		}
		log.Info("catalog loaded", "path", path, "entries", len(priceCatalog.Entries()))
	}

	var rdb *redis.Client
	if cfg.GetRedisURL() != "" {
		opt, err := redis.ParseURL(cfg.GetRedisURL())
		if err != nil {
			panic("invalid REDIS_URL: " + err.Error())
		}
		rdb = redis.NewClient(opt)
		defer func() { _ = rdb.Close() }()
	}

	deliveries, closeScheduler := initDeliveryScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	notificationModule := notification.New(email.NewSender(cfg), log)
	notificationModule.SetMetrics(appMetrics)
	if wa := whatsapp.NewClient(cfg, phones, log); wa != nil {
		notificationModule.SetWhatsAppSender(wa)
	}
	if deliveries != nil {
		notificationModule.SetScheduler(deliveries)
	}
	notificationModule.RegisterHandlers(eventBus)

	opportunitiesModule := opportunities.NewModule(repository.NewPostgresStore(pool), eventBus, val, log)
	svc := opportunitiesModule.Service()
	svc.SetMetrics(appMetrics)
	svc.SetPhoneNormalizer(phones)
	catalogModule := catalog.NewModule(priceCatalog)
	svc.SetCatalog(catalogModule.Catalog())
	if rdb != nil {
		svc.SetSnapshotCache(snapshot.New(rdb, cfg.GetSnapshotCacheTTL(), log, appMetrics))
	}

	if cfg.IsMinIOEnabled() {
		store, err := storage.NewMinIOStore(cfg)
		if err != nil {
			log.Error("failed to initialize storage", "error", err)
			panic("failed to initialize storage: " + err.Error())
		}
		for _, bucket := range []string{cfg.GetMinioBucketDocuments(), cfg.GetMinioBucketQuotationPDFs()} {
			if err := withRetry(ctx, log, "ensure bucket "+bucket, 5, 2*time.Second, func() error {
				return store.EnsureBucketExists(ctx, bucket)
			}); err != nil {
				log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
				panic("failed to ensure storage bucket exists: " + err.Error())
			}
		}
		svc.SetDocumentStorage(store, cfg.GetMinioBucketDocuments(), cfg.GetMinIOMaxFileSize())

		if cfg.IsGotenbergEnabled() {
			converter := pdf.NewGotenbergClient(cfg.GetGotenbergURL(), cfg.GetGotenbergUsername(), cfg.GetGotenbergPassword())
			svc.SetExporter(export.New(converter, store, cfg.GetMinioBucketQuotationPDFs(), cfg.GetPublicBaseURL(), log))
			log.Info("quotation export enabled", "gotenberg", cfg.GetGotenbergURL())
		}
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  pool,
		Metrics: appMetrics.Handler(),
		Modules: []apphttp.Module{
			opportunitiesModule,
			catalogModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.GetHTTPAddr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		eventBus.Wait()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func initDeliveryScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; quotation deliveries run inline")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize delivery scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s: %w", name, lastErr)
}
