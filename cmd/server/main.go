package main

import (
	"context"
	"log"

	"contractreview-backend/ai"
	"contractreview-backend/audit"
	"contractreview-backend/cache"
	"contractreview-backend/config"
	"contractreview-backend/diff"
	"contractreview-backend/extraction"
	"contractreview-backend/fallback"
	"contractreview-backend/handlers"
	"contractreview-backend/repository"
	"contractreview-backend/service"
	"contractreview-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Initialize database connections
	db, err := initPostgres(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("failed to initialize Postgres", zap.Error(err))
	}
	defer db.Close()
	logger.Info("postgres connection established")

	// Initialize storage
	fileStorage, err := storage.NewStorage(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}
	logger.Info("storage initialized", zap.String("type", cfg.Storage.Type))

	// Initialize repositories
	reviewRepo := repository.NewReviewRepository(db)
	jobRepo := repository.NewAnalysisJobRepository(db)
	fileRepo := repository.NewContractFileRepository(db)

	extractOpts := []extraction.Option{
		extraction.WithExcerptLength(cfg.Analysis.ExcerptLength),
		extraction.WithNormalizedLength(cfg.Analysis.NormalizedLength),
	}
	generator := fallback.NewGenerator(
		fallback.WithLogger(logger),
		fallback.WithClauseLimit(cfg.Analysis.ClauseLimit),
	)

	opts := []service.ReviewServiceOption{
		service.WithReviewStore(reviewRepo),
		service.WithJobStore(jobRepo),
		service.WithFileStore(fileRepo),
		service.WithStorage(fileStorage),
		service.WithGenerator(generator),
		service.WithLogger(logger),
		service.WithAITimeout(cfg.AI.Timeout),
		service.WithClauseExtraction(cfg.Analysis.ClauseLimit, extractOpts...),
	}

	// Optional infrastructure: each piece disables itself when unconfigured
	if cfg.AI.Enabled() {
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.AI.APIKey))
		if err != nil {
			logger.Fatal("failed to initialize Gemini", zap.Error(err))
		}
		defer client.Close()
		opts = append(opts, service.WithAnalyzer(ai.NewGeminiAnalyzer(client,
			ai.WithModel(cfg.AI.Model),
			ai.WithTemperature(cfg.AI.Temperature),
			ai.WithLogger(logger),
		)))
		logger.Info("gemini analyzer enabled", zap.String("model", cfg.AI.Model))
	} else {
		logger.Warn("GEMINI_API_KEY not set, every review uses the fallback analysis")
	}

	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, analysis cache disabled", zap.Error(err))
		} else {
			opts = append(opts, service.WithCache(cache.NewReportCache(rdb, cfg.Redis.TTL)))
			logger.Info("analysis cache enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	if cfg.Audit.Enabled() {
		recorder, err := audit.Open(cfg.Audit.DBPath)
		if err != nil {
			logger.Fatal("failed to open audit log", zap.Error(err))
		}
		defer recorder.Close()
		opts = append(opts, service.WithAudit(recorder))
		logger.Info("audit log enabled", zap.String("path", cfg.Audit.DBPath))
	}

	engine := diff.NewEngine(diff.WithMaxCells(cfg.Analysis.DiffMaxCells))

	// Initialize services
	reviewService := service.NewReviewService(opts...)
	draftService := service.NewDraftService(
		service.DraftWithReviewStore(reviewRepo),
		service.DraftWithStorage(fileStorage),
		service.DraftWithDiffEngine(engine),
		service.DraftWithLogger(logger),
	)

	// Initialize handlers
	reviewHandler := handlers.NewReviewHandler(reviewService, draftService, logger)
	fileHandler := handlers.NewFileHandler(fileRepo, fileStorage, logger)
	analysisHandler := handlers.NewAnalysisHandler(reviewService, generator,
		handlers.WithDiffEngine(engine),
		handlers.WithExtraction(cfg.Analysis.ClauseLimit, extractOpts...),
	)

	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}
	r := gin.Default()
	handlers.RegisterRoutes(r, reviewHandler, fileHandler, analysisHandler)

	logger.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
