package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"contractreview-backend/decisions"
	"contractreview-backend/diff"
	"contractreview-backend/extraction"
	"contractreview-backend/fallback"
	"contractreview-backend/models"
	"contractreview-backend/service"
	"contractreview-backend/validation"

	"github.com/gin-gonic/gin"
)

// AnalysisHandler exposes the analysis building blocks as stateless endpoints
type AnalysisHandler struct {
	reviews     *service.ReviewService
	generator   *fallback.Generator
	engine      *diff.Engine
	clauseLimit int
	extractOpts []extraction.Option
}

// AnalysisHandlerOption is a functional option for AnalysisHandler
type AnalysisHandlerOption func(*AnalysisHandler)

// WithDiffEngine sets the diff engine
func WithDiffEngine(e *diff.Engine) AnalysisHandlerOption {
	return func(h *AnalysisHandler) {
		h.engine = e
	}
}

// WithExtraction sets the default clause cap and extractor options
func WithExtraction(limit int, opts ...extraction.Option) AnalysisHandlerOption {
	return func(h *AnalysisHandler) {
		if limit > 0 {
			h.clauseLimit = limit
		}
		h.extractOpts = opts
	}
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(reviews *service.ReviewService, generator *fallback.Generator, opts ...AnalysisHandlerOption) *AnalysisHandler {
	h := &AnalysisHandler{
		reviews:     reviews,
		generator:   generator,
		engine:      diff.NewEngine(),
		clauseLimit: 8,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type diffBody struct {
	Original string `json:"original"`
	Updated  string `json:"updated"`
	Mode     string `json:"mode"`
}

// Diff handles POST /api/analysis/diff. Mode is "line", "token" or
// "track" (the default, tracked-changes blocks with HTML).
func (h *AnalysisHandler) Diff(c *gin.Context) {
	var body diffBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	switch body.Mode {
	case "line":
		chunks := h.engine.LineDiff(body.Original, body.Updated)
		respondOK(c, http.StatusOK, gin.H{"chunks": chunks, "stats": diff.Summarize(chunks)})
	case "token":
		respondOK(c, http.StatusOK, gin.H{"tokens": h.engine.TokenDiff(body.Original, body.Updated)})
	case "", "track":
		blocks := h.engine.TrackChanges(body.Original, body.Updated)
		respondOK(c, http.StatusOK, gin.H{"blocks": blocks, "html": diff.RenderHTML(blocks)})
	default:
		respondError(c, http.StatusBadRequest, "INVALID_MODE", "mode must be line, token or track")
	}
}

// Clauses handles POST /api/analysis/clauses
func (h *AnalysisHandler) Clauses(c *gin.Context) {
	var body struct {
		Content  string `json:"content"`
		HTML     string `json:"html"`
		Limit    int    `json:"limit"`
		FullText bool   `json:"full_text"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	content := body.Content
	if content == "" && body.HTML != "" {
		content = extraction.PlainText(body.HTML)
	}
	limit := body.Limit
	if limit <= 0 {
		limit = h.clauseLimit
	}
	opts := h.extractOpts
	if body.FullText {
		opts = append(append([]extraction.Option(nil), opts...), extraction.WithFullText())
	}

	respondOK(c, http.StatusOK, gin.H{
		"clauses": extraction.DeriveClauseExtractions(content, limit, opts...),
		"parties": extraction.ExtractParties(content),
	})
}

type decisionsBody struct {
	Recommendations json.RawMessage           `json:"recommendations"`
	ActionItems     json.RawMessage           `json:"action_items"`
	LegacyEdits     json.RawMessage           `json:"proposed_edits"`
	ReportEdits     []models.ProposedEdit     `json:"report_edits"`
	Clauses         []models.ClauseExtraction `json:"clauses"`
	Content         string                    `json:"content"`
}

// Decisions handles POST /api/analysis/decisions. Clauses are derived from
// content when none are supplied.
func (h *AnalysisHandler) Decisions(c *gin.Context) {
	var body decisionsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	clauses := body.Clauses
	if len(clauses) == 0 && body.Content != "" {
		clauses = extraction.DeriveClauseExtractions(body.Content, h.clauseLimit, h.extractOpts...)
	}

	ds := decisions.Normalize(decisions.Input{
		Recommendations: decisions.ParseRecords(body.Recommendations),
		ActionItems:     decisions.ParseRecords(body.ActionItems),
		LegacyEdits:     decisions.ParseRecords(body.LegacyEdits),
		ProposedEdits:   body.ReportEdits,
		Clauses:         clauses,
	})
	grouped := service.GroupDecisions(ds)

	respondOK(c, http.StatusOK, gin.H{
		"decisions": ds,
		"groups":    grouped.Groups,
		"badges":    grouped.Badges,
	})
}

type fallbackBody struct {
	ReviewType     string                   `json:"review_type"`
	Classification *fallback.Classification `json:"classification"`
	fallback.Options
}

// Fallback handles POST /api/analysis/fallback
func (h *AnalysisHandler) Fallback(c *gin.Context) {
	var body fallbackBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	respondOK(c, http.StatusOK, h.generator.Generate(body.ReviewType, body.Classification, body.Options))
}

// Validate handles POST /api/analysis/validate. The body is the raw report,
// optionally wrapped in markdown fences or an analysis envelope.
func (h *AnalysisHandler) Validate(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	report, err := validation.ParseAnalysisReport(raw)
	if err != nil {
		var verr *validation.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_REPORT",
					"message": verr.Error(),
					"issues":  verr.Issues,
				},
			})
			return
		}
		respondError(c, http.StatusUnprocessableEntity, "INVALID_REPORT", err.Error())
		return
	}
	respondOK(c, http.StatusOK, report)
}

type runBody struct {
	ReviewType     string                   `json:"review_type"`
	ContractType   string                   `json:"contract_type"`
	SolutionKey    string                   `json:"solution_key"`
	SolutionTitle  string                   `json:"solution_title"`
	Content        string                   `json:"content"`
	Classification *fallback.Classification `json:"classification"`
	SkipCache      bool                     `json:"skip_cache"`
}

// Run handles POST /api/analysis/run: the full pipeline, synchronously and
// without persisting a review.
func (h *AnalysisHandler) Run(c *gin.Context) {
	var body runBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.reviews.Analyze(c.Request.Context(), service.AnalyzeRequest{
		ReviewType:     body.ReviewType,
		ContractType:   body.ContractType,
		SolutionKey:    body.SolutionKey,
		SolutionTitle:  body.SolutionTitle,
		Content:        body.Content,
		Classification: body.Classification,
		SkipCache:      body.SkipCache,
	})
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, "ANALYSIS_CANCELLED", err.Error())
		return
	}
	respondOK(c, http.StatusOK, result)
}
