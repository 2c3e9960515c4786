package service

import (
	"context"
	"sync"
	"time"

	"contractreview-backend/ai"
	"contractreview-backend/audit"
	"contractreview-backend/cache"
	"contractreview-backend/models"
	"contractreview-backend/repository"

	"github.com/google/uuid"
)

type fakeReviews struct {
	mu      sync.Mutex
	reviews map[uuid.UUID]*models.Review
}

func newFakeReviews() *fakeReviews {
	return &fakeReviews{reviews: make(map[uuid.UUID]*models.Review)}
}

func (f *fakeReviews) Create(_ context.Context, review *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	review.ID = uuid.New()
	review.CreatedAt = time.Now()
	review.UpdatedAt = review.CreatedAt
	cp := *review
	f.reviews[review.ID] = &cp
	return nil
}

func (f *fakeReviews) GetByID(_ context.Context, id uuid.UUID) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReviews) List(_ context.Context, status *models.ReviewStatus, limit, offset int) ([]*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Review, 0)
	for _, r := range f.reviews {
		if status == nil || r.Status == *status {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeReviews) UpdateStatus(_ context.Context, id uuid.UUID, status models.ReviewStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reviews[id]; ok {
		r.Status = status
	}
	return nil
}

func (f *fakeReviews) SaveResult(_ context.Context, review *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	review.Status = models.ReviewStatusCompleted
	cp := *review
	f.reviews[review.ID] = &cp
	return nil
}

func (f *fakeReviews) SetDraftPath(_ context.Context, id uuid.UUID, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reviews[id]; ok {
		r.DraftPath = &path
	}
	return nil
}

func (f *fakeReviews) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.reviews, id)
	return nil
}

type fakeJobs struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*models.AnalysisJob
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: make(map[uuid.UUID]*models.AnalysisJob)}
}

func (f *fakeJobs) Create(_ context.Context, job *models.AnalysisJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job.ID = uuid.New()
	cp := *job
	cp.Steps = append(models.AnalysisSteps(nil), job.Steps...)
	f.jobs[job.ID] = &cp
	return nil
}

func (f *fakeJobs) GetByID(_ context.Context, id uuid.UUID) (*models.AnalysisJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *j
	cp.Steps = append(models.AnalysisSteps(nil), j.Steps...)
	return &cp, nil
}

func (f *fakeJobs) GetByReviewID(_ context.Context, reviewID uuid.UUID) (*models.AnalysisJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ReviewID == reviewID {
			cp := *j
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeJobs) UpdateStatus(_ context.Context, id uuid.UUID, status models.AnalysisJobStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[id].Status = status
	return nil
}

func (f *fakeJobs) UpdateProgress(_ context.Context, id uuid.UUID, currentStep string, steps models.AnalysisSteps) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[id].CurrentStep = &currentStep
	f.jobs[id].Steps = append(models.AnalysisSteps(nil), steps...)
	return nil
}

func (f *fakeJobs) Complete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	f.jobs[id].Status = models.JobStatusCompleted
	f.jobs[id].CompletedAt = &now
	return nil
}

func (f *fakeJobs) Fail(_ context.Context, id uuid.UUID, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[id].Status = models.JobStatusFailed
	f.jobs[id].ErrorMessage = &errorMessage
	return nil
}

type fakeAnalyzer struct {
	out   *ai.Output
	err   error
	block bool
	calls int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, _ ai.Request) (*ai.Output, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.out, f.err
}

type memoryCache struct {
	entries map[string]*cache.Entry
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]*cache.Entry)}
}

func (c *memoryCache) Get(_ context.Context, key string) (*cache.Entry, error) {
	return c.entries[key], nil
}

func (c *memoryCache) Set(_ context.Context, key string, entry *cache.Entry) error {
	c.entries[key] = entry
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

type recordingAudit struct {
	entries []audit.Entry
}

func (r *recordingAudit) Record(_ context.Context, e audit.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}
