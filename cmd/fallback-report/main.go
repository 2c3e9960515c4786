// Command fallback-report generates deterministic fallback analyses for a
// set of contract text files, one JSON report per file and review type.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"contractreview-backend/config"
	"contractreview-backend/extraction"
	"contractreview-backend/fallback"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type batch struct {
	files        []string
	outDir       string
	reviewTypes  []string
	contractType string
	solution     string
	reason       string
	concurrency  int
}

func main() {
	var (
		outDir       = flag.String("out", "reports", "output directory")
		reviewTypes  = flag.String("types", "full_summary", "comma separated review types")
		contractType = flag.String("contract-type", "", "contract type")
		solution     = flag.String("solution", "", "solution key or title")
		reason       = flag.String("reason", fallback.DefaultFallbackReason, "fallback reason recorded in the report")
		concurrency  = flag.Int("concurrency", 4, "files processed at once")
		at           = flag.String("at", "", "RFC 3339 timestamp to generate at (default now)")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: fallback-report [flags] contract.txt [contract.html ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	now := time.Now
	if *at != "" {
		fixed, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			logger.Fatal("invalid -at timestamp", zap.String("at", *at), zap.Error(err))
		}
		now = func() time.Time { return fixed }
	}

	generator := fallback.NewGenerator(
		fallback.WithClock(now),
		fallback.WithLogger(logger),
		fallback.WithClauseLimit(cfg.Analysis.ClauseLimit),
	)

	b := batch{
		files:        flag.Args(),
		outDir:       *outDir,
		reviewTypes:  splitList(*reviewTypes),
		contractType: *contractType,
		solution:     *solution,
		reason:       *reason,
		concurrency:  *concurrency,
	}
	written, err := b.run(context.Background(), generator, logger)
	if err != nil {
		logger.Fatal("fallback report generation failed", zap.Error(err))
	}
	logger.Info("fallback reports written", zap.Int("count", len(written)), zap.String("dir", b.outDir))
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// run generates every report. The first failure cancels the remaining files.
func (b batch) run(ctx context.Context, generator *fallback.Generator, logger *zap.Logger) ([]string, error) {
	if err := os.MkdirAll(b.outDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "failed to create %s", b.outDir)
	}
	if len(b.reviewTypes) == 0 {
		b.reviewTypes = []string{fallback.DefaultReviewType}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, b.concurrency))

	results := make([][]string, len(b.files))
	for i, path := range b.files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			written, err := b.generate(path, generator)
			if err != nil {
				return err
			}
			results[i] = written
			logger.Debug("generated fallback reports", zap.String("file", path), zap.Int("reports", len(written)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	written := make([]string, 0, len(b.files)*len(b.reviewTypes))
	for _, r := range results {
		written = append(written, r...)
	}
	return written, nil
}

func (b batch) generate(path string, generator *fallback.Generator) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read %s", path)
	}
	content := string(data)
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".html" || ext == ".htm" {
		content = extraction.PlainText(content)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	written := make([]string, 0, len(b.reviewTypes))
	for _, reviewType := range b.reviewTypes {
		analysis := generator.Generate(reviewType, nil, fallback.Options{
			ContractType:    b.contractType,
			FallbackReason:  b.reason,
			ContractContent: content,
			SolutionKey:     b.solution,
			SolutionTitle:   b.solution,
		})

		out, err := json.MarshalIndent(analysis, "", "  ")
		if err != nil {
			return nil, eris.Wrapf(err, "failed to encode report for %s", path)
		}
		target := filepath.Join(b.outDir, fmt.Sprintf("%s.%s.json", name, analysis.ReviewType))
		if err := os.WriteFile(target, append(out, '\n'), 0o644); err != nil {
			return nil, eris.Wrapf(err, "failed to write %s", target)
		}
		written = append(written, target)
	}
	return written, nil
}
