package cli

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

	"github.com/sagelearn/sagefeed/internal/api/handlers"
	"github.com/sagelearn/sagefeed/internal/config"
	"github.com/sagelearn/sagefeed/internal/database"
	"github.com/sagelearn/sagefeed/internal/domain"
	"github.com/sagelearn/sagefeed/internal/jobs"
	"github.com/sagelearn/sagefeed/internal/openai"
	"github.com/sagelearn/sagefeed/internal/repository"
	"github.com/sagelearn/sagefeed/internal/server"
	"github.com/sagelearn/sagefeed/internal/service"
	"github.com/sagelearn/sagefeed/internal/storage"
	"github.com/sagelearn/sagefeed/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the sagefeed API server on the specified port",
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

		// Default to 10% sampling in production, 100% in development
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

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	docRepo := repository.NewSourceDocumentRepository(pool)
	chunkRepo := repository.NewSourceChunkRepository(pool)
	linkRepo := repository.NewSkillLinkRepository(pool)
	jobRepo := repository.NewIngestionJobRepository(pool)

	var storageClient service.StorageClientInterface
	if cfg.HasS3() {
		s3Config := storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		}
		s3Client, err := storage.NewS3Client(ctx, s3Config)
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		storageClient = &S3StorageAdapter{client: s3Client}
	}

	var openaiClient *openai.Client
	var ingestionWorker *jobs.Worker
	if cfg.HasOpenAI() {
		openaiClient = openai.NewClient(cfg.OpenAIAPIKey)
	}
	if openaiClient != nil && storageClient != nil {
		ingestionSvc := service.NewIngestionService(docRepo, storageClient, openaiClient)
		ingestionProcessor := jobs.NewIngestionWorker(jobRepo, ingestionSvc)
		ingestionWorker = jobs.NewWorker(ingestionProcessor, cfg.WorkerPollInterval)
		go ingestionWorker.Start(ctx)
		log.Println("ingestion worker started")
	}

	skillSvc := service.NewSkillService(linkRepo, docRepo)

	var documentHandler *handlers.DocumentHandler
	if storageClient != nil {
		documentHandler = handlers.NewDocumentHandler(service.NewDocumentService(docRepo, jobRepo, storageClient))
	} else {
		documentHandler = handlers.NewDocumentHandler(&NoOpDocumentService{})
	}

	var feedbackHandler *handlers.FeedbackHandler
	if openaiClient != nil {
		searchCfg := service.SearchConfig{
			PerSourceLimit: cfg.SearchPerSourceLimit,
			GlobalLimit:    cfg.SearchGlobalLimit,
		}
		feedbackSvc := service.NewFeedbackServiceWithConfig(
			&retrievalRepo{linkRepo, chunkRepo}, openaiClient, openaiClient, searchCfg)
		feedbackHandler = handlers.NewFeedbackHandler(feedbackSvc)
	} else {
		feedbackHandler = handlers.NewFeedbackHandler(&NoOpFeedbackService{})
	}

	routerCfg := server.RouterConfig{
		DocumentHandler: documentHandler,
		SkillHandler:    handlers.NewSkillHandler(skillSvc),
		FeedbackHandler: feedbackHandler,
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

	if ingestionWorker != nil {
		ingestionWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// retrievalRepo joins the link and chunk repositories into the retrieval
// surface the feedback pipeline needs.
type retrievalRepo struct {
	*repository.SkillLinkRepository
	*repository.SourceChunkRepository
}

type S3StorageAdapter struct {
	client *storage.S3Client
}

func (a *S3StorageAdapter) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	return a.client.GenerateUploadURL(ctx, key, contentType)
}

func (a *S3StorageAdapter) GetObjectBytes(ctx context.Context, key string) ([]byte, error) {
	return a.client.GetObjectBytes(ctx, key)
}

func (a *S3StorageAdapter) HeadObject(ctx context.Context, key string) (*service.ObjectMetadata, error) {
	meta, err := a.client.HeadObject(ctx, key)
	if err != nil {
		return nil, err
	}
	return &service.ObjectMetadata{
		ContentLength: meta.ContentLength,
		ContentType:   meta.ContentType,
		ETag:          meta.ETag,
	}, nil
}

type NoOpDocumentService struct{}

func (s *NoOpDocumentService) InitUpload(ctx context.Context, input service.InitUploadInput) (*service.InitUploadResult, error) {
	return nil, fmt.Errorf("document service not configured: S3_ENDPOINT required")
}

func (s *NoOpDocumentService) CompleteUpload(ctx context.Context, input service.CompleteUploadInput) (*domain.SourceDocument, error) {
	return nil, fmt.Errorf("document service not configured: S3_ENDPOINT required")
}

func (s *NoOpDocumentService) GetByID(ctx context.Context, id string) (*domain.SourceDocument, error) {
	return nil, fmt.Errorf("document service not configured: S3_ENDPOINT required")
}

func (s *NoOpDocumentService) ListByInstitution(ctx context.Context, institutionID string) ([]*domain.SourceDocument, error) {
	return nil, fmt.Errorf("document service not configured: S3_ENDPOINT required")
}

func (s *NoOpDocumentService) Reprocess(ctx context.Context, documentID string) (*domain.SourceDocument, error) {
	return nil, fmt.Errorf("document service not configured: S3_ENDPOINT required")
}

type NoOpFeedbackService struct{}

func (s *NoOpFeedbackService) Evaluate(ctx context.Context, query domain.FeedbackQuery) (*domain.FeedbackResult, error) {
	return nil, fmt.Errorf("feedback service not configured: OPENAI_API_KEY required")
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
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
