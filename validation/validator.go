// Package validation enforces the structural contract of an analysis
// report. Both the live AI path and the fallback generator go through it
// before a report is stored or rendered.
package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"contractreview-backend/models"

	"github.com/samber/lo"
)

const maxDerivedTitle = 120

var reviewTypeSeparator = regexp.MustCompile(`[^a-z0-9]+`)

type validator struct {
	issues []Issue
}

func (v *validator) addf(path, format string, args ...any) {
	v.issues = append(v.issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

// ValidateAnalysisReport checks report and returns a normalized copy:
// nil lists become empty, enumerated fields are coerced to their canonical
// values, missing ids are synthesized and titles fall back to descriptions.
// The input is never modified. Any remaining problem is reported as a
// *ValidationError.
func ValidateAnalysisReport(report *models.AnalysisReport) (*models.AnalysisReport, error) {
	if report == nil {
		return nil, &ValidationError{Issues: []Issue{{Message: "report is required"}}}
	}

	r, err := clone(report)
	if err != nil {
		return nil, &ValidationError{Issues: []Issue{{Message: "report is not serializable: " + err.Error()}}}
	}

	v := &validator{}
	v.header(r)
	v.summary(r)
	v.issuesToAddress(r)
	v.criteria(r)
	v.clauseFindings(r)
	v.proposedEdits(r)
	v.playbookInsights(r)
	v.clauseExtractions(r)
	v.similarity(r)
	v.deviations(r)
	v.actionItems(r)
	if r.DraftMetadata != nil && r.DraftMetadata.DefaultEditIDs == nil {
		r.DraftMetadata.DefaultEditIDs = []string{}
	}

	if len(v.issues) > 0 {
		return nil, &ValidationError{Issues: v.issues}
	}
	return r, nil
}

func clone(report *models.AnalysisReport) (*models.AnalysisReport, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	var out models.AnalysisReport
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (v *validator) header(r *models.AnalysisReport) {
	r.ReviewType = strings.Trim(reviewTypeSeparator.ReplaceAllString(strings.ToLower(r.ReviewType), "_"), "_")
	if r.ReviewType == "" {
		v.addf("reviewType", "is required")
	}

	score := r.GeneralInformation.ComplianceScore
	if score < 0 || score > 100 {
		v.addf("generalInformation.complianceScore", "must be between 0 and 100, got %d", score)
	}

	m := &r.Metadata
	if strings.TrimSpace(m.GeneratedAt) == "" {
		v.addf("metadata.generatedAt", "is required")
	} else if _, err := time.Parse(time.RFC3339, m.GeneratedAt); err != nil {
		v.addf("metadata.generatedAt", "must be an RFC 3339 timestamp, got %q", m.GeneratedAt)
	}
	m.Source = reportSourceEnum.coerce(v, "metadata.source", m.Source)
	if m.Source == models.ReportSourceFallback {
		m.FallbackUsed = true
	}
	if m.SchemaVersion == "" {
		m.SchemaVersion = models.ReportSchemaVersion
	}
	if m.Confidence < 0 || m.Confidence > 1 {
		v.addf("metadata.confidence", "must be between 0 and 1, got %v", m.Confidence)
	}
}

func (v *validator) summary(r *models.AnalysisReport) {
	s := &r.ContractSummary
	s.Parties = compact(s.Parties)
	s.KeyObligations = compact(s.KeyObligations)
}

func (v *validator) issuesToAddress(r *models.AnalysisReport) {
	r.IssuesToAddress = orEmpty(r.IssuesToAddress)
	for i := range r.IssuesToAddress {
		it := &r.IssuesToAddress[i]
		path := fmt.Sprintf("issuesToAddress[%d]", i)
		it.ID = idOr(it.ID, "issue", i)
		it.Title = v.title(path, it.Title, it.Description)
		it.Severity = severityEnum.coerce(v, path+".severity", it.Severity)
		it.ClauseReferences = compact(it.ClauseReferences)
	}
}

func (v *validator) criteria(r *models.AnalysisReport) {
	r.CriteriaMet = orEmpty(r.CriteriaMet)
	for i := range r.CriteriaMet {
		c := &r.CriteriaMet[i]
		path := fmt.Sprintf("criteriaMet[%d]", i)
		c.ID = idOr(c.ID, "criterion", i)
		c.Title = v.title(path, c.Title, c.Description)
		c.Status = criterionStatusEnum.coerce(v, path+".status", c.Status)
	}
}

func (v *validator) clauseFindings(r *models.AnalysisReport) {
	r.ClauseFindings = orEmpty(r.ClauseFindings)
	for i := range r.ClauseFindings {
		f := &r.ClauseFindings[i]
		path := fmt.Sprintf("clauseFindings[%d]", i)
		f.ID = idOr(f.ID, "finding", i)
		f.Title = v.title(path, f.Title, f.Summary)
		f.RiskLevel = riskLevelEnum.coerce(v, path+".riskLevel", f.RiskLevel)
	}
}

// proposedEdits drops edits that carry no before or after text at all
func (v *validator) proposedEdits(r *models.AnalysisReport) {
	kept := make([]models.ProposedEdit, 0, len(r.ProposedEdits))
	for _, e := range r.ProposedEdits {
		hasPreview := e.PreviewHTML != nil && (e.PreviewHTML.Previous != "" || e.PreviewHTML.Updated != "")
		if !e.HasText() && !hasPreview {
			continue
		}
		e.ID = idOr(e.ID, "edit", len(kept))
		kept = append(kept, e)
	}
	r.ProposedEdits = kept
}

func (v *validator) playbookInsights(r *models.AnalysisReport) {
	r.PlaybookInsights = orEmpty(r.PlaybookInsights)
	for i := range r.PlaybookInsights {
		p := &r.PlaybookInsights[i]
		path := fmt.Sprintf("playbookInsights[%d]", i)
		p.ID = idOr(p.ID, "insight", i)
		p.Title = v.title(path, p.Title, p.Summary)
		if p.Severity != "" {
			p.Severity = severityEnum.coerce(v, path+".severity", p.Severity)
		}
	}
}

func (v *validator) clauseExtractions(r *models.AnalysisReport) {
	r.ClauseExtractions = orEmpty(r.ClauseExtractions)
	for i := range r.ClauseExtractions {
		c := &r.ClauseExtractions[i]
		path := fmt.Sprintf("clauseExtractions[%d]", i)
		c.ID = idOr(c.ID, "clause", i)
		if c.ClauseID == "" {
			c.ClauseID = c.ID
		}
		if strings.TrimSpace(c.Title) == "" {
			c.Title = fmt.Sprintf("Clause %d", i+1)
		}
		if c.OriginalText == "" && c.NormalizedText == "" {
			v.addf(path, "originalText or normalizedText is required")
		}
		c.Importance = importanceEnum.coerce(v, path+".importance", c.Importance)
		c.References = compact(c.References)
	}
}

func (v *validator) similarity(r *models.AnalysisReport) {
	r.SimilarityAnalysis = orEmpty(r.SimilarityAnalysis)
	for i := range r.SimilarityAnalysis {
		s := &r.SimilarityAnalysis[i]
		path := fmt.Sprintf("similarityAnalysis[%d]", i)
		s.ID = idOr(s.ID, "similarity", i)
		s.Title = v.title(path, s.Title, s.Summary)
		s.Source = similaritySourceEnum.coerce(v, path+".source", s.Source)
		if s.Score < 0 || s.Score > 100 {
			v.addf(path+".score", "must be between 0 and 100, got %v", s.Score)
		}
	}
}

func (v *validator) deviations(r *models.AnalysisReport) {
	r.DeviationInsights = orEmpty(r.DeviationInsights)
	for i := range r.DeviationInsights {
		d := &r.DeviationInsights[i]
		path := fmt.Sprintf("deviationInsights[%d]", i)
		d.ID = idOr(d.ID, "deviation", i)
		d.Title = v.title(path, d.Title, d.Observed)
		d.Severity = severityEnum.coerce(v, path+".severity", d.Severity)
	}
}

func (v *validator) actionItems(r *models.AnalysisReport) {
	r.ActionItems = orEmpty(r.ActionItems)
	for i := range r.ActionItems {
		a := &r.ActionItems[i]
		path := fmt.Sprintf("actionItems[%d]", i)
		a.ID = idOr(a.ID, "action", i)
		a.Title = v.title(path, a.Title, a.Description)
		a.Priority = priorityEnum.coerce(v, path+".priority", a.Priority)
	}
}

// title returns title, or a title derived from fallback when it is empty
func (v *validator) title(path, title, fallback string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	f := strings.Join(strings.Fields(fallback), " ")
	if f == "" {
		v.addf(path+".title", "is required")
		return ""
	}
	if utf8.RuneCountInString(f) > maxDerivedTitle {
		f = strings.TrimSpace(string([]rune(f)[:maxDerivedTitle-1])) + "…"
	}
	return f
}

func idOr(id, prefix string, i int) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return fmt.Sprintf("%s-%d", prefix, i+1)
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func compact(items []string) []string {
	return lo.FilterMap(items, func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	})
}
