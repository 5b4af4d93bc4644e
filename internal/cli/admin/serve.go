package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/loreline-ai/loreline/internal/api/handlers"
	"github.com/loreline-ai/loreline/internal/config"
	"github.com/loreline-ai/loreline/internal/database"
	"github.com/loreline-ai/loreline/internal/embedding"
	"github.com/loreline-ai/loreline/internal/fastembed"
	"github.com/loreline-ai/loreline/internal/jobs"
	"github.com/loreline-ai/loreline/internal/ollama"
	"github.com/loreline-ai/loreline/internal/openai"
	"github.com/loreline-ai/loreline/internal/repository"
	"github.com/loreline-ai/loreline/internal/server"
	"github.com/loreline-ai/loreline/internal/service"
	"github.com/loreline-ai/loreline/internal/storage"
	"github.com/loreline-ai/loreline/internal/telemetry"
	"github.com/loreline-ai/loreline/internal/wiki"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the loreline API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	store := repository.NewStore(pool)

	provider, err := buildProvider(ctx, cfg, store)
	if err != nil {
		return err
	}
	log.Printf("embedding backend: %s (dimension %d)", provider.Name(), provider.Dimension())

	var archiver service.Archiver
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archiver = s3Client
	}

	chunker := service.NewChunker(service.DefaultChunkConfig())
	retrievalCfg := service.DefaultRetrievalConfig()
	retrievalCfg.TopK = cfg.SearchTopK
	retrievalCfg.Threshold = cfg.SearchThreshold
	retrievalCfg.DedupThreshold = cfg.DedupThreshold
	retrievalCfg.MaxContextLength = cfg.MaxContextLength
	retrievalCfg.ContextPrefix = cfg.ContextPrefix
	retrievalCfg.ContextSuffix = cfg.ContextSuffix
	retrievalCfg.StalePolicy = cfg.SyncStalePolicy

	retrievalSvc := service.NewRetrievalService(store, provider, chunker, archiver, retrievalCfg)

	wikiClient := wiki.NewClient(wiki.ClientConfig{
		BaseURL: cfg.WikiBaseURL,
		Token:   cfg.WikiToken,
	})

	var wikiSource wiki.Source
	var collector handlers.PageCollector
	var syncWorker *jobs.Worker
	if wikiClient != nil {
		wikiSource = wikiClient
		worker := jobs.NewSyncWorker(wikiSource, retrievalSvc, cfg.SyncCollectionKeys())
		collector = worker

		if cfg.SyncIntervalMinutes > 0 && len(cfg.SyncCollectionKeys()) > 0 {
			syncWorker = jobs.NewWorker(worker, time.Duration(cfg.SyncIntervalMinutes)*time.Minute)
			go syncWorker.Start(ctx)
			log.Printf("sync worker started (every %dm, collections %v)", cfg.SyncIntervalMinutes, cfg.SyncCollectionKeys())
		}
	}

	routerCfg := server.RouterConfig{
		APIToken:        cfg.APIToken,
		DocumentHandler: handlers.NewDocumentHandler(retrievalSvc),
		SearchHandler:   handlers.NewSearchHandler(retrievalSvc),
		SyncHandler:     handlers.NewSyncHandler(collector, retrievalSvc),
		TreeHandler:     handlers.NewTreeHandler(wikiSource),
		SettingsHandler: handlers.NewSettingsHandler(retrievalSvc, provider),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if syncWorker != nil {
		syncWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// buildProvider constructs every configured backend and resolves the
// active one, honoring LORELINE_EMBEDDING_BACKEND when set.
func buildProvider(ctx context.Context, cfg *config.Config, store *repository.Store) (*embedding.Provider, error) {
	var backends []embedding.Backend

	if cfg.HasOpenAI() {
		backends = append(backends, openai.NewClient(openai.Config{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
		}))
	}

	backends = append(backends, ollama.NewClient(ollama.Config{
		BaseURL: cfg.OllamaURL,
		Model:   cfg.OllamaModel,
	}))

	local, err := fastembed.New(fastembed.Config{
		Model:       cfg.LocalModel,
		CacheDir:    cfg.LocalCacheDir,
		InitTimeout: time.Duration(cfg.LocalInitTimeout) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create local embedding backend: %w", err)
	}
	backends = append(backends, local)

	provider := embedding.NewProvider(store, store, backends...)
	if _, err := provider.Resolve(ctx, cfg.EmbeddingBackend); err != nil {
		return nil, fmt.Errorf("failed to resolve embedding backend: %w", err)
	}
	return provider, nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
