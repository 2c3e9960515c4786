package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"contractreview-backend/ai"
	"contractreview-backend/audit"
	"contractreview-backend/cache"
	"contractreview-backend/decisions"
	"contractreview-backend/extraction"
	"contractreview-backend/fallback"
	"contractreview-backend/models"
	"contractreview-backend/validation"

	"github.com/rotisserie/eris"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Analysis pipeline steps, in order
const (
	StepExtractClauses = "Extracting Clauses"
	StepRunAI          = "Running AI Analysis"
	StepValidate       = "Validating Report"
	StepNormalize      = "Normalizing Decisions"
	StepStore          = "Storing Results"
)

var pipelineSteps = []string{StepExtractClauses, StepRunAI, StepValidate, StepNormalize, StepStore}

// Audit sources
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
	SourceCache    = "cache"
)

const (
	reasonTimeout = "AI analysis timed out"
	reasonFailed  = "AI analysis failed"
	reasonInvalid = "AI report failed validation"
)

// AnalyzeRequest is one synchronous analysis
type AnalyzeRequest struct {
	ReviewID       string
	ReviewType     string
	ContractType   string
	SolutionKey    string
	SolutionTitle  string
	Content        string
	Classification *fallback.Classification

	// SkipCache forces a fresh run
	SkipCache bool
}

// AnalyzeResult is the analysis with its normalized decisions
type AnalyzeResult struct {
	Analysis    *models.Analysis            `json:"analysis"`
	Decisions   []models.NormalizedDecision `json:"decisions"`
	Clauses     []models.ClauseExtraction   `json:"clauses"`
	Fingerprint string                      `json:"fingerprint"`
	Source      string                      `json:"source"`
	CacheHit    bool                        `json:"cache_hit"`
}

// FallbackUsed reports whether the deterministic generator produced the result
func (r *AnalyzeResult) FallbackUsed() bool {
	return r.Analysis != nil && r.Analysis.FallbackUsed
}

// tracker receives step transitions; the synchronous path ignores them
type tracker func(step, status, note string)

func noTracking(string, string, string) {}

// Analyze runs the full pipeline: cache, live AI, validation, fallback on
// any failure, decision normalization, cache store and audit. It only fails
// when ctx is already done.
func (s *ReviewService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	return s.analyze(ctx, req, noTracking)
}

func (s *ReviewService) analyze(ctx context.Context, req AnalyzeRequest, track tracker) (*AnalyzeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "analysis cancelled")
	}

	start := s.now()
	req.ReviewType = strings.TrimSpace(req.ReviewType)
	if req.ReviewType == "" {
		req.ReviewType = fallback.DefaultReviewType
	}
	fingerprint := cache.Fingerprint(req.Content)
	key := cache.Key(req.ReviewType, req.ContractType, req.SolutionKey, fingerprint)

	if hit := s.cached(ctx, req, key); hit != nil {
		hit.Fingerprint = fingerprint
		for _, step := range pipelineSteps {
			track(step, models.StepSkipped, "served from cache")
		}
		s.record(ctx, req, hit, start, "")
		return hit, nil
	}

	track(StepExtractClauses, models.StepInProgress, "")
	clauses := extraction.DeriveClauseExtractions(req.Content, s.clauseLimit, s.extractOpts...)
	track(StepExtractClauses, models.StepCompleted, "")

	track(StepRunAI, models.StepInProgress, "")
	out, reason := s.runAI(ctx, req)
	switch {
	case out != nil:
		track(StepRunAI, models.StepCompleted, "")
	case s.analyzer == nil:
		track(StepRunAI, models.StepSkipped, reason)
	default:
		track(StepRunAI, models.StepFailed, reason)
	}

	track(StepValidate, models.StepInProgress, "")
	var analysis *models.Analysis
	if out != nil {
		report, err := validation.ParseAnalysisReport(out.Report)
		if err != nil {
			s.logger.Warn("AI report rejected",
				zap.String("review_type", req.ReviewType),
				zap.Error(err),
			)
			reason = reasonInvalid
		} else {
			analysis = s.fromAI(req, out, report, start)
		}
	}
	result := &AnalyzeResult{Fingerprint: fingerprint, Source: SourceAI}
	if analysis == nil {
		s.logger.Warn("using fallback analysis",
			zap.String("review_id", req.ReviewID),
			zap.String("review_type", req.ReviewType),
			zap.String("reason", reason),
		)
		analysis = s.generator.Generate(req.ReviewType, req.Classification, fallback.Options{
			ContractType:    req.ContractType,
			FallbackReason:  reason,
			ContractContent: req.Content,
			SolutionKey:     req.SolutionKey,
			SolutionTitle:   req.SolutionTitle,
		})
		result.Source = SourceFallback
	}
	result.Analysis = analysis
	track(StepValidate, models.StepCompleted, "")

	track(StepNormalize, models.StepInProgress, "")
	in := decisions.Input{
		Recommendations: decisions.RecordsFrom(analysis.Recommendations),
		ActionItems:     decisions.RecordsFrom(analysis.ActionItems),
	}
	if out != nil && result.Source == SourceAI {
		in.Recommendations = out.Recommendations
		in.ActionItems = out.ActionItems
		in.LegacyEdits = out.LegacyEdits
	}
	if report := analysis.StructuredReport; report != nil {
		in.ProposedEdits = report.ProposedEdits
		in.Clauses = report.ClauseExtractions
	}
	if len(in.Clauses) == 0 {
		in.Clauses = clauses
	}
	result.Decisions = decisions.Normalize(in)
	result.Clauses = in.Clauses
	track(StepNormalize, models.StepCompleted, "")

	track(StepStore, models.StepInProgress, "")
	if result.Source == SourceAI && !req.SkipCache {
		s.store(ctx, key, result)
	}
	s.record(ctx, req, result, start, reason)
	return result, nil
}

// runAI returns the model output, or nil and the reason the fallback must run
func (s *ReviewService) runAI(ctx context.Context, req AnalyzeRequest) (*ai.Output, string) {
	if s.analyzer == nil {
		return nil, ErrAnalyzerUnavailable.Error()
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, ai.ErrContentRequired.Error()
	}

	aiCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	out, err := s.analyzer.Analyze(aiCtx, ai.Request{
		ReviewType:    req.ReviewType,
		ContractType:  req.ContractType,
		Content:       req.Content,
		SolutionKey:   req.SolutionKey,
		SolutionTitle: req.SolutionTitle,
	})
	if err == nil && out == nil {
		err = ai.ErrEmptyResponse
	}
	if err != nil {
		s.logger.Warn("AI analysis failed",
			zap.String("review_id", req.ReviewID),
			zap.Error(err),
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, reasonTimeout
		}
		return nil, reasonFailed
	}
	return out, ""
}

// fromAI wraps a validated AI report in the legacy analysis envelope
func (s *ReviewService) fromAI(req AnalyzeRequest, out *ai.Output, report *models.AnalysisReport, start time.Time) *models.Analysis {
	score := report.GeneralInformation.ComplianceScore
	if out.Score != nil {
		score = min(100, max(0, *out.Score))
	}
	if report.Metadata.Model == "" {
		report.Metadata.Model = out.Model
	}

	contractType := req.ContractType
	if contractType == "" {
		contractType = lo.CoalesceOrEmpty(report.ContractSummary.ContractType, report.Metadata.ContractType, fallback.DefaultContractType)
	}

	elapsed := s.now().Sub(start).Seconds()
	return &models.Analysis{
		ReviewType:       req.ReviewType,
		ContractType:     contractType,
		Score:            score,
		Confidence:       report.Metadata.Confidence,
		PagesEstimated:   fallback.EstimatePages(req.Content),
		ProcessingTime:   math.Round(elapsed*10) / 10,
		Recommendations:  toFindings(out.Recommendations, models.SourceRecommendation),
		ActionItems:      toFindings(out.ActionItems, models.SourceActionItem),
		Timestamp:        s.now().UTC().Format(time.RFC3339),
		StructuredReport: report,
	}
}

func toFindings(records []decisions.RawRecord, source models.DecisionSource) []models.Finding {
	findings := make([]models.Finding, 0, len(records))
	for i, r := range records {
		d, ok := decisions.FromRecord(r, source, i)
		if !ok {
			continue
		}
		findings = append(findings, models.Finding{
			ID:          d.ID,
			Description: d.Description,
			Severity:    string(d.Severity),
			Department:  d.Department,
			Owner:       d.Owner,
			DueTimeline: d.DueTimeline,
			Category:    d.Category,
			NextStep:    d.NextStep,
			ClauseID:    d.ClauseID,
		})
	}
	return findings
}

func (s *ReviewService) cached(ctx context.Context, req AnalyzeRequest, key string) *AnalyzeResult {
	if s.cache == nil || req.SkipCache {
		return nil
	}
	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if entry == nil || entry.Analysis == nil {
		return nil
	}
	clauses := entry.Clauses
	if len(clauses) == 0 && entry.Analysis.StructuredReport != nil {
		clauses = entry.Analysis.StructuredReport.ClauseExtractions
	}
	return &AnalyzeResult{
		Analysis:  entry.Analysis,
		Decisions: entry.Decisions,
		Clauses:   clauses,
		Source:    SourceCache,
		CacheHit:  true,
	}
}

func (s *ReviewService) store(ctx context.Context, key string, result *AnalyzeResult) {
	if s.cache == nil {
		return
	}
	err := s.cache.Set(ctx, key, &cache.Entry{
		Analysis:  result.Analysis,
		Decisions: result.Decisions,
		Clauses:   result.Clauses,
		StoredAt:  s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *ReviewService) record(ctx context.Context, req AnalyzeRequest, result *AnalyzeResult, start time.Time, reason string) {
	if s.audit == nil {
		return
	}
	entry := audit.Entry{
		ReviewID:      req.ReviewID,
		ReviewType:    req.ReviewType,
		ContractType:  result.Analysis.ContractType,
		Fingerprint:   result.Fingerprint,
		Source:        result.Source,
		Score:         result.Analysis.Score,
		DecisionCount: len(result.Decisions),
		Duration:      s.now().Sub(start),
	}
	if result.Source == SourceFallback {
		entry.FallbackReason = reason
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", zap.String("review_id", req.ReviewID), zap.Error(err))
	}
}
