package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"contractreview-backend/fallback"
	"contractreview-backend/models"
	"contractreview-backend/repository"
	"contractreview-backend/service"
	"contractreview-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contract = `MASTER SERVICES AGREEMENT

This Agreement is made between Acme Corp and Globex Inc. for managed services.

1. Fees and Payment
The Customer shall pay all fees within thirty days of the invoice date.

2. Limitation of Liability
The Supplier's total liability shall not exceed the fees paid in the prior twelve months.`

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string                   `json:"code"`
		Message string                   `json:"message"`
		Issues  []map[string]interface{} `json:"issues"`
	} `json:"error"`
}

type memReviews struct {
	mu sync.Mutex
	m  map[uuid.UUID]models.Review
}

func (s *memReviews) Create(_ context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = uuid.New()
	s.m[r.ID] = *r
	return nil
}

func (s *memReviews) GetByID(_ context.Context, id uuid.UUID) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.m[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s *memReviews) List(context.Context, *models.ReviewStatus, int, int) ([]*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Review, 0, len(s.m))
	for _, r := range s.m {
		r := r
		out = append(out, &r)
	}
	return out, nil
}

func (s *memReviews) UpdateStatus(_ context.Context, id uuid.UUID, status models.ReviewStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.m[id]
	r.Status = status
	s.m[id] = r
	return nil
}

func (s *memReviews) SaveResult(_ context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Status = models.ReviewStatusCompleted
	s.m[r.ID] = *r
	return nil
}

func (s *memReviews) SetDraftPath(_ context.Context, id uuid.UUID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.m[id]
	r.DraftPath = &path
	s.m[id] = r
	return nil
}

func (s *memReviews) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.m, id)
	return nil
}

type memJobs struct {
	mu sync.Mutex
	m  map[uuid.UUID]models.AnalysisJob
}

func (s *memJobs) Create(_ context.Context, j *models.AnalysisJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j.ID = uuid.New()
	s.m[j.ID] = *j
	return nil
}

func (s *memJobs) GetByID(_ context.Context, id uuid.UUID) (*models.AnalysisJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.m[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	j.Steps = append(models.AnalysisSteps(nil), j.Steps...)
	return &j, nil
}

func (s *memJobs) GetByReviewID(_ context.Context, reviewID uuid.UUID) (*models.AnalysisJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.m {
		if j.ReviewID == reviewID {
			return &j, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memJobs) update(id uuid.UUID, fn func(*models.AnalysisJob)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := s.m[id]
	fn(&j)
	s.m[id] = j
	return nil
}

func (s *memJobs) UpdateStatus(_ context.Context, id uuid.UUID, status models.AnalysisJobStatus) error {
	return s.update(id, func(j *models.AnalysisJob) { j.Status = status })
}

func (s *memJobs) UpdateProgress(_ context.Context, id uuid.UUID, current string, steps models.AnalysisSteps) error {
	return s.update(id, func(j *models.AnalysisJob) {
		j.CurrentStep = &current
		j.Steps = append(models.AnalysisSteps(nil), steps...)
	})
}

func (s *memJobs) Complete(_ context.Context, id uuid.UUID) error {
	return s.update(id, func(j *models.AnalysisJob) { j.Status = models.JobStatusCompleted })
}

func (s *memJobs) Fail(_ context.Context, id uuid.UUID, msg string) error {
	return s.update(id, func(j *models.AnalysisJob) {
		j.Status = models.JobStatusFailed
		j.ErrorMessage = &msg
	})
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	reviewStore := &memReviews{m: make(map[uuid.UUID]models.Review)}
	reviews := service.NewReviewService(
		service.WithReviewStore(reviewStore),
		service.WithJobStore(&memJobs{m: make(map[uuid.UUID]models.AnalysisJob)}),
	)
	drafts := service.NewDraftService(service.DraftWithReviewStore(reviewStore), service.DraftWithStorage(st))

	rh := NewReviewHandler(reviews, drafts, nil)
	rh.process = func(jobID uuid.UUID) {
		require.NoError(t, reviews.ProcessReview(context.Background(), jobID))
	}

	r := gin.New()
	RegisterRoutes(r, rh, nil, NewAnalysisHandler(reviews, fallback.NewGenerator()))
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if path != "/health" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func TestHealth(t *testing.T) {
	code, _ := do(t, newRouter(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestDiffEndpoint(t *testing.T) {
	r := newRouter(t)

	code, env := do(t, r, http.MethodPost, "/api/analysis/diff", gin.H{"original": "a\nb", "updated": "a\nc"})
	require.Equal(t, http.StatusOK, code)
	var track struct {
		HTML string `json:"html"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &track))
	assert.Contains(t, track.HTML, "<del>b</del>")
	assert.Contains(t, track.HTML, "<ins>c</ins>")

	code, env = do(t, r, http.MethodPost, "/api/analysis/diff", gin.H{"original": "a\nb", "updated": "a\nc", "mode": "line"})
	require.Equal(t, http.StatusOK, code)
	var lines struct {
		Stats struct {
			Unchanged int `json:"unchanged"`
			Added     int `json:"added"`
			Removed   int `json:"removed"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &lines))
	assert.Equal(t, 1, lines.Stats.Unchanged)
	assert.Equal(t, 1, lines.Stats.Added)
	assert.Equal(t, 1, lines.Stats.Removed)

	code, env = do(t, r, http.MethodPost, "/api/analysis/diff", gin.H{"mode": "words"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_MODE", env.Error.Code)
}

func TestClausesEndpoint(t *testing.T) {
	code, env := do(t, newRouter(t), http.MethodPost, "/api/analysis/clauses", gin.H{"content": contract})
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Clauses []models.ClauseExtraction `json:"clauses"`
		Parties []string                  `json:"parties"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.Clauses)
	assert.NotEmpty(t, data.Parties)
}

func TestDecisionsEndpoint(t *testing.T) {
	code, env := do(t, newRouter(t), http.MethodPost, "/api/analysis/decisions", gin.H{
		"recommendations": []gin.H{{"description": "Cap liability", "severity": "urgent", "department": "legal"}},
		"action_items":    []gin.H{{"action": "Confirm invoices", "team": "finance"}, {"severity": "low"}},
	})
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Decisions []models.NormalizedDecision `json:"decisions"`
		Badges    map[string]struct {
			Label string `json:"label"`
		} `json:"badges"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Decisions, 2)
	assert.Equal(t, models.SeverityCritical, data.Decisions[0].Severity)
	assert.Equal(t, "Cap liability", data.Decisions[0].Description)
	assert.Equal(t, "Legal", data.Badges["legal"].Label)
	assert.Equal(t, "Finance", data.Badges["finance"].Label)
}

func TestFallbackEndpoint(t *testing.T) {
	code, env := do(t, newRouter(t), http.MethodPost, "/api/analysis/fallback", gin.H{
		"review_type":     "risk_assessment",
		"contractContent": contract,
		"fallbackReason":  "timeout",
	})
	require.Equal(t, http.StatusOK, code)

	var a models.Analysis
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.True(t, a.FallbackUsed)
	assert.Equal(t, "timeout", a.FallbackReason)
	assert.Equal(t, "risk_assessment", a.ReviewType)
	assert.NotEmpty(t, a.Risks)
}

func TestValidateEndpoint(t *testing.T) {
	r := newRouter(t)

	code, env := do(t, r, http.MethodPost, "/api/analysis/validate",
		`{"reviewType":"compliance_score","generalInformation":{"complianceScore":140},"metadata":{"generatedAt":"2026-03-01T10:00:00Z"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "INVALID_REPORT", env.Error.Code)
	assert.NotEmpty(t, env.Error.Issues)

	code, env = do(t, r, http.MethodPost, "/api/analysis/validate",
		"```json\n{\"reviewType\":\"compliance_score\",\"generalInformation\":{\"complianceScore\":64},\"metadata\":{\"generatedAt\":\"2026-03-01T10:00:00Z\",\"source\":\"ai\"}}\n```")
	require.Equal(t, http.StatusOK, code)
	var report models.AnalysisReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 64, report.GeneralInformation.ComplianceScore)
}

func TestRunEndpoint(t *testing.T) {
	code, env := do(t, newRouter(t), http.MethodPost, "/api/analysis/run", gin.H{
		"review_type": "compliance_score",
		"content":     contract,
	})
	require.Equal(t, http.StatusOK, code)

	var result struct {
		Source   string          `json:"source"`
		Analysis models.Analysis `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, service.SourceFallback, result.Source)
	assert.NotEmpty(t, result.Analysis.ComplianceAreas)
}

func TestReviewLifecycle(t *testing.T) {
	r := newRouter(t)

	code, env := do(t, r, http.MethodPost, "/api/reviews", gin.H{
		"title":       "Globex MSA",
		"review_type": "full_summary",
		"content":     contract,
	})
	require.Equal(t, http.StatusAccepted, code)
	var created struct {
		ReviewID uuid.UUID `json:"review_id"`
		JobID    uuid.UUID `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	code, env = do(t, r, http.MethodGet, "/api/jobs/"+created.JobID.String(), nil)
	require.Equal(t, http.StatusOK, code)
	var job models.AnalysisJob
	require.NoError(t, json.Unmarshal(env.Data, &job))
	assert.Equal(t, models.JobStatusCompleted, job.Status)

	code, env = do(t, r, http.MethodGet, "/api/reviews/"+created.ReviewID.String(), nil)
	require.Equal(t, http.StatusOK, code)
	var review models.Review
	require.NoError(t, json.Unmarshal(env.Data, &review))
	assert.Equal(t, models.ReviewStatusCompleted, review.Status)
	assert.True(t, review.FallbackUsed)

	code, _ = do(t, r, http.MethodGet, "/api/reviews/"+created.ReviewID.String()+"/decisions", nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = do(t, r, http.MethodPost, "/api/reviews/"+created.ReviewID.String()+"/draft", gin.H{"accepted": []string{"no-such-edit"}})
	require.Equal(t, http.StatusOK, code)
	var draft service.ComposeDraftResult
	require.NoError(t, json.Unmarshal(env.Data, &draft))
	assert.Contains(t, draft.Skipped, service.SkippedEdit{ID: "no-such-edit", Reason: service.SkipUnknown})

	code, env = do(t, r, http.MethodGet, "/api/reviews", nil)
	require.Equal(t, http.StatusOK, code)
	var list []models.Review
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	code, _ = do(t, r, http.MethodDelete, "/api/reviews/"+created.ReviewID.String(), nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = do(t, r, http.MethodGet, "/api/reviews/"+created.ReviewID.String(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "REVIEW_NOT_FOUND", env.Error.Code)
}

func TestReviewErrors(t *testing.T) {
	r := newRouter(t)

	code, env := do(t, r, http.MethodGet, "/api/reviews/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_ID", env.Error.Code)

	code, env = do(t, r, http.MethodPost, "/api/reviews", gin.H{"title": "empty"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "CONTENT_REQUIRED", env.Error.Code)

	code, env = do(t, r, http.MethodGet, "/api/jobs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "JOB_NOT_FOUND", env.Error.Code)
}
