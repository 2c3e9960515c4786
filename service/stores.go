package service

import (
	"context"

	"contractreview-backend/audit"
	"contractreview-backend/models"

	"github.com/google/uuid"
)

// ReviewStore persists reviews. *repository.ReviewRepository satisfies it.
type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	List(ctx context.Context, status *models.ReviewStatus, limit, offset int) ([]*models.Review, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReviewStatus) error
	SaveResult(ctx context.Context, review *models.Review) error
	SetDraftPath(ctx context.Context, id uuid.UUID, path string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// JobStore persists analysis jobs
type JobStore interface {
	Create(ctx context.Context, job *models.AnalysisJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisJob, error)
	GetByReviewID(ctx context.Context, reviewID uuid.UUID) (*models.AnalysisJob, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.AnalysisJobStatus) error
	UpdateProgress(ctx context.Context, id uuid.UUID, currentStep string, steps models.AnalysisSteps) error
	Complete(ctx context.Context, id uuid.UUID) error
	Fail(ctx context.Context, id uuid.UUID, errorMessage string) error
}

// FileStore persists uploaded contract file records
type FileStore interface {
	Create(ctx context.Context, file *models.ContractFile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ContractFile, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuditRecorder receives one entry per analysis run
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry) error
}
