package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"CoursePortal/internal/catalog"
	"CoursePortal/internal/config"
	"CoursePortal/internal/tracing"
	"CoursePortal/internal/web"
	"CoursePortal/pkg/kit"
)

const service = "portal"

func main() {
	cfg, err := config.Load(getenv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.Logging.Level)
	defer func() { _ = log.Sync() }()

	shutdownTracing, err := tracing.Setup("CourseInfoPortal", cfg.Tracing.Enabled)
	if err != nil {
		log.Fatal("tracing setup failed", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	store, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("open store failed", zap.Error(err))
	}

	render, err := web.NewRenderer()
	if err != nil {
		log.Fatal("template parsing failed", zap.Error(err))
	}

	s := &catalog.Server{
		Store:  store,
		Log:    log,
		Render: render,
		Flash:  web.NewFlash(cfg.Session.Secret),
	}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	})

	if err := kit.Serve(":"+cfg.Server.Port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openStore(cfg *config.Config, log *zap.Logger) (catalog.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := sql.Open("pgx", cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		store := catalog.NewPostgresStore(db)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}

		log.Info("using postgres store")
		return store, nil

	default:
		log.Info("using file store", zap.String("path", cfg.Store.Path))
		return catalog.NewFileStore(cfg.Store.Path), nil
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
