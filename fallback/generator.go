// Package fallback synthesizes a complete, schema-valid analysis when the
// live AI path fails, times out or returns a report that does not validate.
// Output is a pure function of the inputs and the injected clock.
package fallback

import (
	"math"
	"regexp"
	"strings"
	"time"

	"contractreview-backend/extraction"
	"contractreview-backend/models"
	"contractreview-backend/validation"

	"go.uber.org/zap"
)

const (
	DefaultContractType   = "general_commercial"
	DefaultReviewType     = models.ReviewTypeFullSummary
	DefaultFallbackReason = "AI analysis unavailable"

	baseConfidence = 0.78
	maxConfidence  = 0.9
	wordsPerPage   = 360
	minProcessing  = 2.5
	maxProcessing  = 9.0
	reportLifetime = 30 * 24 * time.Hour
	fallbackModel  = "deterministic-fallback"
)

var keySeparator = regexp.MustCompile(`[^a-z0-9]+`)

// Classification is an upstream guess at the contract type
type Classification struct {
	ContractType string  `json:"contractType"`
	Confidence   float64 `json:"confidence"`
}

// Options carries the per-review inputs of a fallback run
type Options struct {
	ContractType    string `json:"contractType,omitempty"`
	FallbackReason  string `json:"fallbackReason,omitempty"`
	ContractContent string `json:"contractContent,omitempty"`
	SolutionKey     string `json:"solutionKey,omitempty"`
	SolutionTitle   string `json:"solutionTitle,omitempty"`
}

// Generator builds fallback analyses
type Generator struct {
	now         func() time.Time
	logger      *zap.Logger
	playbooks   *Playbooks
	clauseLimit int
}

// GeneratorOption is a functional option for Generator
type GeneratorOption func(*Generator)

// WithClock sets the clock used for timestamps
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		g.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithPlaybooks replaces the embedded solution playbooks
func WithPlaybooks(p *Playbooks) GeneratorOption {
	return func(g *Generator) {
		g.playbooks = p
	}
}

// WithClauseLimit sets how many clauses are extracted from the contract
func WithClauseLimit(n int) GeneratorOption {
	return func(g *Generator) {
		g.clauseLimit = n
	}
}

// NewGenerator creates a generator with the embedded playbooks
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		now:         time.Now,
		logger:      zap.NewNop(),
		playbooks:   DefaultPlaybooks(),
		clauseLimit: extraction.DefaultLimit,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// profile is everything the generator knows about the contract
type profile struct {
	reviewType   string
	contractType string
	reason       string
	hasContent   bool
	words        int
	clauses      []models.ClauseExtraction
	critical     []models.CriticalClause
	parties      []string
	checks       []check
	alignment    *models.SolutionAlignment
	solution     *Solution
	now          time.Time
}

// Generate builds the fallback analysis. It never fails: empty or malformed
// content yields placeholder content and the base confidence.
func (g *Generator) Generate(reviewType string, classification *Classification, opts Options) *models.Analysis {
	p := g.profile(reviewType, classification, opts)

	recs := recommendations(p)
	actions := actionItems(p, recs)
	score := scoreFor(p)

	a := &models.Analysis{
		ReviewType:        p.reviewType,
		ContractType:      p.contractType,
		Score:             score,
		Confidence:        confidence(p, classification),
		PagesEstimated:    pages(p.words),
		ProcessingTime:    processingTime(p.words),
		Recommendations:   findings(recs, "rec"),
		ActionItems:       findings(actions, "action"),
		SolutionAlignment: p.alignment,
		FallbackUsed:      true,
		FallbackReason:    p.reason,
		Timestamp:         p.now.Format(time.RFC3339),
	}
	applyPayload(a, p)

	report := buildReport(p, a, recs, actions)
	validated, err := validation.ValidateAnalysisReport(report)
	if err != nil {
		g.logger.Error("fallback report failed validation",
			zap.String("review_type", p.reviewType),
			zap.String("contract_type", p.contractType),
			zap.Error(err),
		)
		a.StructuredReport = report
		return a
	}
	a.StructuredReport = validated
	return a
}

func (g *Generator) profile(reviewType string, classification *Classification, opts Options) profile {
	content := strings.TrimSpace(opts.ContractContent)

	contractType := opts.ContractType
	if contractType == "" && classification != nil {
		contractType = classification.ContractType
	}

	p := profile{
		reviewType:   normalizeKey(reviewType, DefaultReviewType),
		contractType: normalizeKey(contractType, DefaultContractType),
		reason:       strings.TrimSpace(opts.FallbackReason),
		hasContent:   content != "",
		words:        len(strings.Fields(content)),
		clauses:      extraction.DeriveClauseExtractions(content, g.clauseLimit),
		parties:      extraction.ExtractParties(content),
		now:          g.now().UTC(),
	}
	if p.reason == "" {
		p.reason = DefaultFallbackReason
	}
	p.critical = criticalClauses(p.clauses)
	p.checks = runChecks(p.hasContent, p.clauses, content)
	p.solution, p.alignment = g.playbooks.Align(opts.SolutionKey, opts.SolutionTitle, p.contractType)
	return p
}

// normalizeKey lower-cases s and folds every non-alphanumeric run into "_"
func normalizeKey(s, fallback string) string {
	key := strings.Trim(keySeparator.ReplaceAllString(strings.ToLower(s), "_"), "_")
	if key == "" {
		return fallback
	}
	return key
}

// EstimatePages estimates the page count of contract text
func EstimatePages(content string) int {
	return pages(len(strings.Fields(content)))
}

func pages(words int) int {
	n := int(math.Ceil(float64(words) / wordsPerPage))
	if n < 1 {
		return 1
	}
	return n
}

func processingTime(words int) float64 {
	t := minProcessing + float64(words)/1000
	t = math.Min(maxProcessing, math.Max(minProcessing, t))
	return math.Round(t*10) / 10
}

// confidence starts at the base and only rises with evidence from the text
func confidence(p profile, classification *Classification) float64 {
	c := baseConfidence
	if p.hasContent {
		if len(p.clauses) > 0 {
			c += 0.04
		}
		if len(p.parties) > 0 {
			c += 0.03
		}
		if classification != nil && classification.Confidence >= 0.7 {
			c += 0.03
		}
	}
	return math.Round(math.Min(c, maxConfidence)*100) / 100
}
