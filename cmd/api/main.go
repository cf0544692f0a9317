package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lessonarchiver/internal/config"
	"lessonarchiver/internal/handlers"
	"lessonarchiver/internal/http"
	"lessonarchiver/internal/identity"
	"lessonarchiver/internal/indexer"
	"lessonarchiver/internal/objectstore"
	"lessonarchiver/internal/searchindex"
	"lessonarchiver/internal/service"
	"lessonarchiver/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := storage.Open(storage.Options{
		Driver:          cfg.DB.Driver,
		DSN:             cfg.DB.DSN,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = storage.Close(db)
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	store := storage.NewStore(db)
	slog.Info("Database initialized", "driver", cfg.DB.Driver)

	// Initialize object storage
	objects, err := objectstore.NewS3Store(ctx, objectstore.S3Options{
		Endpoint:     cfg.S3.Endpoint,
		Region:       cfg.S3.Region,
		Bucket:       cfg.S3.Bucket,
		AccessKey:    cfg.S3.AccessKey,
		SecretKey:    cfg.S3.SecretKey,
		UsePathStyle: cfg.S3.UsePathStyle,
	})
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}
	slog.Info("Object storage initialized", "bucket", cfg.S3.Bucket, "endpoint", cfg.S3.Endpoint)

	// Initialize Qdrant search index
	index, err := searchindex.NewQdrantIndex(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.CollectionPrefix)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	defer func() {
		_ = index.Close()
	}()
	if err := index.EnsureCollections(ctx); err != nil {
		log.Fatalf("Failed to ensure Qdrant collections: %v", err)
	}
	slog.Info("Qdrant collections ready", "prefix", cfg.Qdrant.CollectionPrefix)

	notary := identity.NewClient(cfg.Notary.URL, cfg.Notary.Client, cfg.Notary.Key)

	// Index tasks are flushed after each write; the worker retries what is left
	ix := indexer.New(store, index, indexer.Options{
		Interval:  cfg.Indexing.RetryInterval,
		BatchSize: cfg.Indexing.BatchSize,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := ix.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Index worker stopped", "error", err)
		}
	}()

	deps := &http.Deps{
		Auth: service.NewAuthService(notary, store, service.Callbacks{
			App:   cfg.Notary.Callback,
			Local: cfg.Notary.LocalCallback,
		}),
		Files:     service.NewFileService(store, objects, ix, cfg.Upload.TmpDir),
		Notes:     service.NewNoteService(store, ix),
		Tags:      service.NewTagService(store),
		Cabinets:  service.NewCabinetService(store),
		Materials: service.NewMaterialService(store, index),
		HealthChecks: []handlers.HealthCheck{
			{Name: "database", Check: func(ctx context.Context) error { return storage.Ping(ctx, db) }},
			{Name: "search_index", Check: index.Ping},
			{Name: "object_store", Check: objects.Ping},
		},
		PendingTasks: ix.Pending,
		CORSOrigins:  cfg.CORSOrigins,
	}

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           http.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", server.Addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			slog.Error("API server failed", "error", err)
		}
		stop()
	case <-ctx.Done():
		slog.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	<-workerDone
	slog.Info("Shutdown complete")
}
