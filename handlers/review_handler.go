package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"contractreview-backend/models"
	"contractreview-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewHandler handles HTTP requests for contract reviews
type ReviewHandler struct {
	reviews *service.ReviewService
	drafts  *service.DraftService
	logger  *zap.Logger

	// process runs a job after the response is sent; tests replace it
	process func(jobID uuid.UUID)
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews *service.ReviewService, drafts *service.DraftService, logger *zap.Logger) *ReviewHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &ReviewHandler{reviews: reviews, drafts: drafts, logger: logger}
	h.process = func(jobID uuid.UUID) {
		go h.runJob(jobID)
	}
	return h
}

func (h *ReviewHandler) runJob(jobID uuid.UUID) {
	// Background context so the job outlives the request
	if err := h.reviews.ProcessReview(context.Background(), jobID); err != nil {
		h.logger.Error("analysis job failed", zap.String("job_id", jobID.String()), zap.Error(err))
	}
}

func (h *ReviewHandler) serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReviewNotFound):
		respondError(c, http.StatusNotFound, "REVIEW_NOT_FOUND", "Review not found")
	case errors.Is(err, service.ErrJobNotFound):
		respondError(c, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found")
	case errors.Is(err, service.ErrFileNotFound):
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "Contract file not found")
	case errors.Is(err, service.ErrContentRequired):
		respondError(c, http.StatusBadRequest, "CONTENT_REQUIRED", err.Error())
	case errors.Is(err, service.ErrReviewNotAnalyzed):
		respondError(c, http.StatusConflict, "REVIEW_NOT_ANALYZED", err.Error())
	case errors.Is(err, service.ErrNothingToApply):
		respondError(c, http.StatusBadRequest, "NOTHING_TO_APPLY", err.Error())
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

type createReviewBody struct {
	Title          string     `json:"title"`
	ReviewType     string     `json:"review_type"`
	ContractType   string     `json:"contract_type"`
	SolutionKey    string     `json:"solution_key"`
	SolutionTitle  string     `json:"solution_title"`
	Content        string     `json:"content"`
	ContractFileID *uuid.UUID `json:"contract_file_id"`
}

// CreateReview handles POST /api/reviews. The analysis runs in the
// background; clients poll /api/jobs/:id.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var body createReviewBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.reviews.CreateReview(c.Request.Context(), service.CreateReviewRequest{
		Title:          body.Title,
		ReviewType:     body.ReviewType,
		ContractType:   body.ContractType,
		SolutionKey:    body.SolutionKey,
		SolutionTitle:  body.SolutionTitle,
		Content:        body.Content,
		ContractFileID: body.ContractFileID,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	h.process(result.Job.ID)

	respondOK(c, http.StatusAccepted, gin.H{
		"review_id": result.Review.ID,
		"job_id":    result.Job.ID,
		"status":    result.Job.Status,
		"message":   "Analysis job created. Poll /api/jobs/:id for updates.",
	})
}

// ListReviews handles GET /api/reviews
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	req := service.ListReviewsRequest{}
	if s := c.Query("status"); s != "" {
		status := models.ReviewStatus(s)
		req.Status = &status
	}
	req.Limit, _ = strconv.Atoi(c.Query("limit"))
	req.Offset, _ = strconv.Atoi(c.Query("offset"))

	reviews, err := h.reviews.ListReviews(c.Request.Context(), req)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, reviews)
}

// GetReview handles GET /api/reviews/:id
func (h *ReviewHandler) GetReview(c *gin.Context) {
	id, ok := parseID(c, "review")
	if !ok {
		return
	}

	review, err := h.reviews.GetReview(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, review)
}

// DeleteReview handles DELETE /api/reviews/:id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	id, ok := parseID(c, "review")
	if !ok {
		return
	}

	if err := h.reviews.DeleteReview(c.Request.Context(), id); err != nil {
		h.serviceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"id": id})
}

// GetDecisions handles GET /api/reviews/:id/decisions
func (h *ReviewHandler) GetDecisions(c *gin.Context) {
	id, ok := parseID(c, "review")
	if !ok {
		return
	}

	result, err := h.reviews.GetDecisions(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// ComposeDraft handles POST /api/reviews/:id/draft
func (h *ReviewHandler) ComposeDraft(c *gin.Context) {
	id, ok := parseID(c, "review")
	if !ok {
		return
	}

	var body struct {
		Accepted []string `json:"accepted"`
		Rejected []string `json:"rejected"`
	}
	// An empty body applies the default edits
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
	}

	result, err := h.drafts.ComposeDraft(c.Request.Context(), service.ComposeDraftRequest{
		ReviewID: id,
		Accepted: body.Accepted,
		Rejected: body.Rejected,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// GetJobStatus handles GET /api/jobs/:id
func (h *ReviewHandler) GetJobStatus(c *gin.Context) {
	id, ok := parseID(c, "job")
	if !ok {
		return
	}

	job, err := h.reviews.GetJobStatus(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, job)
}
