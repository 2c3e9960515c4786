package main

import (
	"context"
	"log"
	"os"

	"contractreview-backend/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	// Drop tables first when asked (development only)
	if len(os.Args) > 1 && os.Args[1] == "--reset" {
		_, err = pool.Exec(ctx, "DROP TABLE IF EXISTS analysis_jobs, reviews, contract_files CASCADE")
		if err != nil {
			logger.Fatal("failed to drop tables", zap.Error(err))
		}
		logger.Info("dropped existing tables")
	}

	tables := []struct {
		name string
		sql  string
	}{
		{
			name: "contract_files",
			sql: `
CREATE TABLE IF NOT EXISTS contract_files (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    filename VARCHAR(255) NOT NULL,
    mime_type VARCHAR(100) NOT NULL,
    size BIGINT NOT NULL,
    storage_path TEXT NOT NULL,
    text_path TEXT,
    content_hash CHAR(64) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
		},
		{
			name: "reviews",
			sql: `
CREATE TABLE IF NOT EXISTS reviews (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    contract_file_id UUID REFERENCES contract_files(id) ON DELETE SET NULL,
    title VARCHAR(255) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'processing', 'completed', 'failed')),
    review_type VARCHAR(50) NOT NULL,
    contract_type VARCHAR(100) NOT NULL DEFAULT '',
    solution_key VARCHAR(50) NOT NULL DEFAULT '',
    solution_title VARCHAR(255) NOT NULL DEFAULT '',

    -- Plain text the analysis ran against
    content TEXT NOT NULL,
    content_hash CHAR(64) NOT NULL,

    score INTEGER CHECK (score BETWEEN 0 AND 100),
    fallback_used BOOLEAN NOT NULL DEFAULT false,
    fallback_reason TEXT,
    analysis JSONB,
    decisions JSONB NOT NULL DEFAULT '[]'::jsonb,
    draft_path TEXT,

    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMPTZ
);`,
		},
		{
			name: "analysis_jobs",
			sql: `
CREATE TABLE IF NOT EXISTS analysis_jobs (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    review_id UUID NOT NULL REFERENCES reviews(id) ON DELETE CASCADE,
    status VARCHAR(20) NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'in_progress', 'completed', 'failed')),
    current_step VARCHAR(100),
    steps JSONB NOT NULL DEFAULT '[]'::jsonb,
    error_message TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMPTZ
);`,
		},
	}

	for _, table := range tables {
		if _, err := pool.Exec(ctx, table.sql); err != nil {
			logger.Fatal("failed to create table", zap.String("table", table.name), zap.Error(err))
		}
		logger.Info("created table", zap.String("table", table.name))
	}

	indexes := []struct {
		name string
		sql  string
	}{
		{
			name: "Reviews by status",
			sql:  "CREATE INDEX IF NOT EXISTS idx_reviews_status ON reviews(status, created_at DESC);",
		},
		{
			name: "Reviews by content hash",
			sql:  "CREATE INDEX IF NOT EXISTS idx_reviews_content_hash ON reviews(content_hash);",
		},
		{
			name: "Fallback reviews",
			sql:  "CREATE INDEX IF NOT EXISTS idx_reviews_fallback ON reviews(created_at DESC) WHERE fallback_used = true;",
		},
		{
			name: "Jobs by review",
			sql:  "CREATE INDEX IF NOT EXISTS idx_analysis_jobs_review ON analysis_jobs(review_id, created_at DESC);",
		},
		{
			name: "Decisions JSONB filtering",
			sql:  "CREATE INDEX IF NOT EXISTS idx_reviews_decisions_gin ON reviews USING gin (decisions);",
		},
	}

	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx.sql); err != nil {
			logger.Warn("failed to create index", zap.String("index", idx.name), zap.Error(err))
		} else {
			logger.Info("created index", zap.String("index", idx.name))
		}
	}

	logger.Info("database schema created",
		zap.Strings("tables", []string{"contract_files", "reviews", "analysis_jobs"}),
		zap.Int("indexes", len(indexes)),
	)
}
