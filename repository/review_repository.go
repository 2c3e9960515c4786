package repository

import (
	"context"
	"fmt"
	"time"

	"contractreview-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reviewColumns = `
		id, contract_file_id, title, status, review_type, contract_type,
		solution_key, solution_title, content, content_hash,
		score, fallback_used, fallback_reason, analysis, decisions, draft_path,
		created_at, updated_at, completed_at`

// ReviewRepository handles database operations for reviews
type ReviewRepository struct {
	db *pgxpool.Pool
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner) (*models.Review, error) {
	review := &models.Review{}
	err := row.Scan(
		&review.ID,
		&review.ContractFileID,
		&review.Title,
		&review.Status,
		&review.ReviewType,
		&review.ContractType,
		&review.SolutionKey,
		&review.SolutionTitle,
		&review.Content,
		&review.ContentHash,
		&review.Score,
		&review.FallbackUsed,
		&review.FallbackReason,
		&review.Analysis,
		&review.Decisions,
		&review.DraftPath,
		&review.CreatedAt,
		&review.UpdatedAt,
		&review.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if review.Decisions == nil {
		review.Decisions = make(models.Decisions, 0)
	}
	return review, nil
}

// Create creates a new review
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (
			contract_file_id, title, status, review_type, contract_type,
			solution_key, solution_title, content, content_hash, decisions
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		review.ContractFileID,
		review.Title,
		review.Status,
		review.ReviewType,
		review.ContractType,
		review.SolutionKey,
		review.SolutionTitle,
		review.Content,
		review.ContentHash,
		review.Decisions,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)

	return wrapErr(err, "insert review")
}

// GetByID retrieves a review by ID
func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	query := `SELECT` + reviewColumns + `
		FROM reviews
		WHERE id = $1`

	review, err := scanReview(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr(err, "select review")
	}
	return review, nil
}

// List retrieves reviews, newest first, optionally filtered by status
func (r *ReviewRepository) List(ctx context.Context, status *models.ReviewStatus, limit, offset int) ([]*models.Review, error) {
	query := `SELECT` + reviewColumns + `
		FROM reviews`

	args := []interface{}{}
	argIndex := 1

	if status != nil {
		query += fmt.Sprintf(" WHERE status = $%d", argIndex)
		args = append(args, *status)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
		if offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argIndex)
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(err, "list reviews")
	}
	defer rows.Close()

	reviews := make([]*models.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, wrapErr(err, "scan review")
		}
		reviews = append(reviews, review)
	}

	return reviews, wrapErr(rows.Err(), "iterate reviews")
}

// UpdateStatus updates the status of a review
func (r *ReviewRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReviewStatus) error {
	query := `
		UPDATE reviews SET
			status = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, status)
	return wrapErr(err, "update review status")
}

// SaveResult stores the analysis outcome and marks the review completed
func (r *ReviewRepository) SaveResult(ctx context.Context, review *models.Review) error {
	now := time.Now()
	query := `
		UPDATE reviews SET
			status = $2,
			score = $3,
			fallback_used = $4,
			fallback_reason = $5,
			analysis = $6,
			decisions = $7,
			completed_at = $8,
			updated_at = $8
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query,
		review.ID,
		models.ReviewStatusCompleted,
		review.Score,
		review.FallbackUsed,
		review.FallbackReason,
		review.Analysis,
		review.Decisions,
		now,
	)
	if err != nil {
		return wrapErr(err, "save review result")
	}

	review.Status = models.ReviewStatusCompleted
	review.CompletedAt = &now
	review.UpdatedAt = now
	return nil
}

// SetDraftPath records where the composed draft was stored
func (r *ReviewRepository) SetDraftPath(ctx context.Context, id uuid.UUID, path string) error {
	query := `
		UPDATE reviews SET
			draft_path = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, path)
	return wrapErr(err, "set draft path")
}

// Delete deletes a review
func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM reviews WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return wrapErr(err, "delete review")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
