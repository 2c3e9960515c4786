package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"contractreview-backend/ai"
	"contractreview-backend/cache"
	"contractreview-backend/decisions"
	"contractreview-backend/extraction"
	"contractreview-backend/fallback"
	"contractreview-backend/models"
	"contractreview-backend/repository"
	"contractreview-backend/storage"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	defaultAITimeout = 45 * time.Second
	defaultClauseCap = 8
	maxContractBytes = 5 << 20
	defaultListLimit = 20
)

var (
	ErrReviewNotFound      = errors.New("review not found")
	ErrJobNotFound         = errors.New("analysis job not found")
	ErrFileNotFound        = errors.New("contract file not found")
	ErrContentRequired     = errors.New("contract content or file is required")
	ErrJobCreationFailed   = errors.New("failed to create analysis job")
	ErrReviewNotAnalyzed   = errors.New("review has not been analyzed yet")
	ErrRepositoryNotSet    = errors.New("repository not set")
	ErrAnalyzerUnavailable = errors.New("AI analyzer not configured")
)

// ReviewService orchestrates contract reviews: persistence, the live AI
// path and the deterministic fallback.
type ReviewService struct {
	reviews     ReviewStore
	jobs        JobStore
	files       FileStore
	storage     storage.Storage
	analyzer    ai.Analyzer
	generator   *fallback.Generator
	cache       cache.ReportCache
	audit       AuditRecorder
	logger      *zap.Logger
	now         func() time.Time
	aiTimeout   time.Duration
	clauseLimit int
	extractOpts []extraction.Option
}

// ReviewServiceOption is a functional option for ReviewService
type ReviewServiceOption func(*ReviewService)

// WithReviewStore sets the review store
func WithReviewStore(store ReviewStore) ReviewServiceOption {
	return func(s *ReviewService) {
		s.reviews = store
	}
}

// WithJobStore sets the analysis job store
func WithJobStore(store JobStore) ReviewServiceOption {
	return func(s *ReviewService) {
		s.jobs = store
	}
}

// WithFileStore sets the contract file store
func WithFileStore(store FileStore) ReviewServiceOption {
	return func(s *ReviewService) {
		s.files = store
	}
}

// WithStorage sets the document storage used to read uploaded contracts
func WithStorage(st storage.Storage) ReviewServiceOption {
	return func(s *ReviewService) {
		s.storage = st
	}
}

// WithAnalyzer sets the live AI analyzer. Without one every review uses the fallback.
func WithAnalyzer(a ai.Analyzer) ReviewServiceOption {
	return func(s *ReviewService) {
		s.analyzer = a
	}
}

// WithGenerator sets the fallback generator
func WithGenerator(g *fallback.Generator) ReviewServiceOption {
	return func(s *ReviewService) {
		s.generator = g
	}
}

// WithCache sets the analysis cache
func WithCache(c cache.ReportCache) ReviewServiceOption {
	return func(s *ReviewService) {
		s.cache = c
	}
}

// WithAudit sets the audit recorder
func WithAudit(r AuditRecorder) ReviewServiceOption {
	return func(s *ReviewService) {
		s.audit = r
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ReviewServiceOption {
	return func(s *ReviewService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) ReviewServiceOption {
	return func(s *ReviewService) {
		s.now = now
	}
}

// WithAITimeout bounds each live AI call
func WithAITimeout(d time.Duration) ReviewServiceOption {
	return func(s *ReviewService) {
		if d > 0 {
			s.aiTimeout = d
		}
	}
}

// WithClauseExtraction sets the clause cap and extractor options
func WithClauseExtraction(limit int, opts ...extraction.Option) ReviewServiceOption {
	return func(s *ReviewService) {
		if limit > 0 {
			s.clauseLimit = limit
		}
		s.extractOpts = opts
	}
}

// NewReviewService creates a new review service
func NewReviewService(opts ...ReviewServiceOption) *ReviewService {
	s := &ReviewService{
		logger:      zap.NewNop(),
		now:         time.Now,
		aiTimeout:   defaultAITimeout,
		clauseLimit: defaultClauseCap,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.generator == nil {
		s.generator = fallback.NewGenerator(fallback.WithLogger(s.logger), fallback.WithClock(s.now))
	}
	return s
}

// AnalyzerAvailable reports whether a live analyzer is configured
func (s *ReviewService) AnalyzerAvailable() bool {
	return s.analyzer != nil
}

// CreateReviewRequest represents a request to create a review
type CreateReviewRequest struct {
	Title          string
	ReviewType     string
	ContractType   string
	SolutionKey    string
	SolutionTitle  string
	Content        string
	ContractFileID *uuid.UUID
}

// CreateReviewResult represents the result of creating a review
type CreateReviewResult struct {
	Review *models.Review
	Job    *models.AnalysisJob
}

// CreateReview persists a pending review and its analysis job. Content comes
// from the request or, when absent, from the uploaded contract file.
func (s *ReviewService) CreateReview(ctx context.Context, req CreateReviewRequest) (*CreateReviewResult, error) {
	if s.reviews == nil || s.jobs == nil {
		return nil, ErrRepositoryNotSet
	}

	content := strings.TrimSpace(req.Content)
	if content == "" && req.ContractFileID != nil {
		text, err := s.fileText(ctx, *req.ContractFileID)
		if err != nil {
			return nil, err
		}
		content = strings.TrimSpace(text)
	}
	if content == "" {
		return nil, ErrContentRequired
	}

	reviewType := strings.TrimSpace(req.ReviewType)
	if reviewType == "" {
		reviewType = fallback.DefaultReviewType
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Untitled contract"
	}

	review := &models.Review{
		ContractFileID: req.ContractFileID,
		Title:          title,
		Status:         models.ReviewStatusPending,
		ReviewType:     reviewType,
		ContractType:   strings.TrimSpace(req.ContractType),
		SolutionKey:    strings.TrimSpace(req.SolutionKey),
		SolutionTitle:  strings.TrimSpace(req.SolutionTitle),
		Content:        content,
		ContentHash:    cache.Fingerprint(content),
		Decisions:      make(models.Decisions, 0),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, eris.Wrap(err, "failed to create review")
	}

	job := &models.AnalysisJob{
		ReviewID: review.ID,
		Status:   models.JobStatusPending,
		Steps:    initializeSteps(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		s.logger.Error("failed to create analysis job", zap.String("review_id", review.ID.String()), zap.Error(err))
		return nil, ErrJobCreationFailed
	}

	return &CreateReviewResult{Review: review, Job: job}, nil
}

func (s *ReviewService) fileText(ctx context.Context, fileID uuid.UUID) (string, error) {
	if s.files == nil || s.storage == nil {
		return "", ErrRepositoryNotSet
	}
	file, err := s.files.GetByID(ctx, fileID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrFileNotFound
	}
	if err != nil {
		return "", err
	}

	path := file.StoragePath
	if file.TextPath != nil {
		path = *file.TextPath
	}
	return storage.ReadText(ctx, s.storage, path, maxContractBytes)
}

func initializeSteps() models.AnalysisSteps {
	return lo.Map(pipelineSteps, func(name string, _ int) models.AnalysisStep {
		return models.AnalysisStep{Name: name, Status: models.StepPending}
	})
}

// ProcessReview runs the analysis of a job's review and stores the result.
// It is started in a goroutine after CreateReview.
func (s *ReviewService) ProcessReview(ctx context.Context, jobID uuid.UUID) error {
	if s.reviews == nil || s.jobs == nil {
		return ErrRepositoryNotSet
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return eris.Wrap(err, "failed to load analysis job")
	}

	review, err := s.reviews.GetByID(ctx, job.ReviewID)
	if err != nil {
		s.markJobFailed(ctx, jobID, "failed to load review: "+err.Error())
		return err
	}

	if err := s.jobs.UpdateStatus(ctx, jobID, models.JobStatusInProgress); err != nil {
		return eris.Wrap(err, "failed to update job status")
	}
	if err := s.reviews.UpdateStatus(ctx, review.ID, models.ReviewStatusProcessing); err != nil {
		s.logger.Warn("failed to update review status", zap.String("review_id", review.ID.String()), zap.Error(err))
	}

	progress := &jobProgress{service: s, ctx: ctx, jobID: jobID, steps: job.Steps}
	if len(progress.steps) == 0 {
		progress.steps = initializeSteps()
	}

	result, err := s.analyze(ctx, AnalyzeRequest{
		ReviewID:      review.ID.String(),
		ReviewType:    review.ReviewType,
		ContractType:  review.ContractType,
		SolutionKey:   review.SolutionKey,
		SolutionTitle: review.SolutionTitle,
		Content:       review.Content,
	}, progress.track)
	if err != nil {
		s.failReview(ctx, review.ID, jobID, "analysis failed: "+err.Error())
		return err
	}

	score := result.Analysis.Score
	review.Score = &score
	review.Analysis = result.Analysis
	review.Decisions = result.Decisions
	review.FallbackUsed = result.FallbackUsed()
	review.FallbackReason = nil
	if review.FallbackUsed {
		reason := result.Analysis.FallbackReason
		review.FallbackReason = &reason
	}

	if err := s.reviews.SaveResult(ctx, review); err != nil {
		progress.track(StepStore, models.StepFailed, err.Error())
		s.failReview(ctx, review.ID, jobID, "failed to store results: "+err.Error())
		return err
	}
	progress.track(StepStore, models.StepCompleted, "")

	if err := s.jobs.Complete(ctx, jobID); err != nil {
		return eris.Wrap(err, "failed to complete job")
	}
	return nil
}

// jobProgress mirrors step transitions into the job row
type jobProgress struct {
	service *ReviewService
	ctx     context.Context
	jobID   uuid.UUID
	steps   models.AnalysisSteps
	current string
}

func (p *jobProgress) track(step, status, note string) {
	for i := range p.steps {
		if p.steps[i].Name != step {
			continue
		}
		p.steps[i].Status = status
		if note != "" {
			p.steps[i].Description = note
		}
		if status == models.StepInProgress {
			p.current = step
		}
		break
	}

	if err := p.service.jobs.UpdateProgress(p.ctx, p.jobID, p.current, p.steps); err != nil {
		p.service.logger.Warn("failed to update job progress",
			zap.String("job_id", p.jobID.String()),
			zap.String("step", step),
			zap.Error(err),
		)
	}
}

func (s *ReviewService) failReview(ctx context.Context, reviewID, jobID uuid.UUID, message string) {
	s.markJobFailed(ctx, jobID, message)
	if err := s.reviews.UpdateStatus(ctx, reviewID, models.ReviewStatusFailed); err != nil {
		s.logger.Warn("failed to mark review failed", zap.String("review_id", reviewID.String()), zap.Error(err))
	}
}

// markJobFailed marks a job as failed with an error message
func (s *ReviewService) markJobFailed(ctx context.Context, jobID uuid.UUID, message string) {
	s.logger.Error("analysis job failed", zap.String("job_id", jobID.String()), zap.String("error", message))
	if err := s.jobs.Fail(ctx, jobID, message); err != nil {
		s.logger.Warn("failed to mark job failed", zap.String("job_id", jobID.String()), zap.Error(err))
	}
}

// GetReview retrieves a review by ID
func (s *ReviewService) GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	if s.reviews == nil {
		return nil, ErrRepositoryNotSet
	}
	review, err := s.reviews.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return review, nil
}

// ListReviewsRequest represents a request to list reviews
type ListReviewsRequest struct {
	Status *models.ReviewStatus
	Limit  int
	Offset int
}

// ListReviews lists reviews, newest first
func (s *ReviewService) ListReviews(ctx context.Context, req ListReviewsRequest) ([]*models.Review, error) {
	if s.reviews == nil {
		return nil, ErrRepositoryNotSet
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.reviews.List(ctx, req.Status, limit, max(0, req.Offset))
}

// DeleteReview deletes a review and its stored draft
func (s *ReviewService) DeleteReview(ctx context.Context, id uuid.UUID) error {
	review, err := s.GetReview(ctx, id)
	if err != nil {
		return err
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReviewNotFound
		}
		return err
	}

	if review.DraftPath != nil && s.storage != nil {
		if err := s.storage.Delete(ctx, *review.DraftPath); err != nil {
			s.logger.Warn("failed to delete draft", zap.String("path", *review.DraftPath), zap.Error(err))
		}
	}
	return nil
}

// GetJobStatus retrieves an analysis job
func (s *ReviewService) GetJobStatus(ctx context.Context, jobID uuid.UUID) (*models.AnalysisJob, error) {
	if s.jobs == nil {
		return nil, ErrRepositoryNotSet
	}
	job, err := s.jobs.GetByID(ctx, jobID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// DecisionsResult is a review's decisions bucketed by clause
type DecisionsResult struct {
	Groups []decisions.DecisionGroup  `json:"groups"`
	Badges map[string]decisions.Badge `json:"badges"`
	Total  int                        `json:"total"`
}

// GetDecisions groups a review's decisions by clause and resolves the
// department badge of every department mentioned.
func (s *ReviewService) GetDecisions(ctx context.Context, id uuid.UUID) (*DecisionsResult, error) {
	review, err := s.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.Analysis == nil {
		return nil, ErrReviewNotAnalyzed
	}
	return GroupDecisions(review.Decisions), nil
}

// GroupDecisions builds the grouped view of a decision list
func GroupDecisions(ds []models.NormalizedDecision) *DecisionsResult {
	departments := lo.Uniq(lo.Map(ds, func(d models.NormalizedDecision, _ int) string {
		return d.Department
	}))
	badges := make(map[string]decisions.Badge, len(departments))
	for _, dept := range departments {
		badges[dept] = decisions.DepartmentBadge(dept)
	}

	return &DecisionsResult{
		Groups: decisions.GroupDecisionsByClause(ds),
		Badges: badges,
		Total:  len(ds),
	}
}
