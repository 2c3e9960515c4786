package fallback

import (
	"fmt"
	"math"
	"strings"
	"time"

	"contractreview-backend/diff"
	"contractreview-backend/models"

	"github.com/samber/lo"
)

const (
	maxIssues      = 3
	maxEdits       = 3
	maxInsights    = 3
	maxDeviations  = 2
	maxObligations = 3
)

var perspectiveLabels = map[string]string{
	models.ReviewTypeCompliance:  "Compliance officer",
	models.ReviewTypeRisk:        "Risk manager",
	models.ReviewTypePerspective: "Multi-stakeholder",
}

// buildReport composes the structured report. The validator's output is
// canonical; this is its pre-image.
func buildReport(p profile, a *models.Analysis, recs, actions []item) *models.AnalysisReport {
	edits := proposedEdits(p)

	return &models.AnalysisReport{
		ReviewType:         p.reviewType,
		GeneralInformation: generalInformation(p, a.Score, a.PagesEstimated),
		ContractSummary:    contractSummary(p),
		IssuesToAddress:    issues(recs),
		CriteriaMet:        criteria(p),
		ClauseFindings:     clauseFindings(p),
		ProposedEdits:      edits,
		PlaybookInsights:   playbookInsights(recs),
		ClauseExtractions:  clauseExtractions(p),
		SimilarityAnalysis: similarity(p),
		DeviationInsights:  deviations(p),
		ActionItems:        structuredActions(actions),
		DraftMetadata:      draftMetadata(edits),
		Metadata: models.ReportMetadata{
			GeneratedAt:    p.now.Format(time.RFC3339),
			Source:         models.ReportSourceFallback,
			Model:          fallbackModel,
			SchemaVersion:  models.ReportSchemaVersion,
			ContractType:   p.contractType,
			Confidence:     a.Confidence,
			FallbackUsed:   true,
			FallbackReason: p.reason,
		},
	}
}

func generalInformation(p profile, score, pages int) models.GeneralInformation {
	label, ok := perspectiveLabels[p.reviewType]
	if !ok {
		label = "Executive summary"
	}
	return models.GeneralInformation{
		ComplianceScore:     score,
		SelectedPerspective: label,
		ReviewTimeMinutes:   max(5, pages*4),
		TimeSavingsMinutes:  pages * 30,
		ReviewDate:          p.now.Format(time.RFC3339),
		ReportExpiry:        p.now.Add(reportLifetime).Format(time.RFC3339),
	}
}

func contractSummary(p profile) models.ContractSummary {
	s := models.ContractSummary{
		ContractName: humanize(p.contractType) + " Agreement",
		ContractType: p.contractType,
		Parties:      p.parties,
		Purpose:      "Contract purpose pending full analysis.",
	}
	if p.solution != nil {
		s.ContractName = p.solution.Title
	}
	if len(s.Parties) == 0 {
		s.Parties = []string{"Party A", "Party B"}
	}
	if p.hasContent {
		s.Purpose = fmt.Sprintf("%s between %s.", s.ContractName, strings.Join(s.Parties, " and "))
	}

	s.KeyObligations = lo.Map(lo.Slice(p.critical, 0, maxObligations), func(cc models.CriticalClause, _ int) string {
		return cc.Title
	})
	if len(s.KeyObligations) == 0 {
		s.KeyObligations = []string{"Obligations pending full analysis"}
	}
	if term, ok := lo.Find(p.clauses, func(c models.ClauseExtraction) bool { return c.Category == "term" }); ok {
		s.Term = term.Title
	}
	return s
}

func issues(recs []item) []models.Issue {
	top := lo.Slice(bySeverity(recs), 0, maxIssues)
	return lo.Map(top, func(it item, i int) models.Issue {
		ref := it.clauseID
		if ref == "" {
			ref = "fallback-" + it.category
		}
		return models.Issue{
			ID:               fmt.Sprintf("issue-%d", i+1),
			Title:            it.title,
			Description:      it.description,
			Severity:         it.severity,
			Category:         it.category,
			ClauseReferences: []string{ref},
			Recommendation:   it.nextStep,
		}
	})
}

func criteria(p profile) []models.Criterion {
	present := countState(p.checks, statePresent)
	out := []models.Criterion{
		{
			Title:       "Baseline review executed",
			Description: fmt.Sprintf("Deterministic baseline checks ran against %d standard protections.", len(p.checks)),
			Status:      "met",
			Evidence:    fmt.Sprintf("%d of %d protections present", present, len(p.checks)),
		},
		{
			Title:       "Clause-level validation pending",
			Description: "AI clause-level validation did not complete for this review.",
			Status:      "pending",
			Evidence:    p.reason,
		},
	}
	for _, c := range p.checks {
		if c.state == statePresent {
			out = append(out, models.Criterion{
				Title:    c.label + " present",
				Status:   "met",
				Evidence: c.where(),
			})
		}
	}
	for i := range out {
		out[i].ID = fmt.Sprintf("criterion-%d", i+1)
	}
	return out
}

func clauseFindings(p profile) []models.ClauseFinding {
	if len(p.critical) == 0 {
		return []models.ClauseFinding{{
			ID:             "finding-1",
			ClauseID:       "general",
			Title:          "General contract review",
			Summary:        "Clause-level findings will be available once the full analysis completes.",
			RiskLevel:      "medium",
			Recommendation: "Re-run the AI analysis with the complete contract text.",
		}}
	}
	return lo.Map(p.critical, func(cc models.CriticalClause, i int) models.ClauseFinding {
		return models.ClauseFinding{
			ID:             fmt.Sprintf("finding-%d", i+1),
			ClauseID:       cc.ClauseID,
			Title:          cc.Title,
			Summary:        cc.Reason,
			RiskLevel:      cc.Importance,
			Category:       cc.Category,
			Recommendation: "Compare the clause against the playbook standard.",
		}
	})
}

func clauseExtractions(p profile) []models.ClauseExtraction {
	if len(p.clauses) > 0 {
		return p.clauses
	}
	return []models.ClauseExtraction{{
		ID:           "clause-1",
		ClauseID:     "general",
		Title:        "Full contract",
		OriginalText: "Clause extraction produced no candidate clauses.",
		Importance:   models.ImportanceLow,
		References:   []string{},
	}}
}

// proposedEdits appends the playbook standard wording to the top clauses.
// Edits are anchored on the verbatim clause body so they apply to the
// contract the clauses came from.
func proposedEdits(p profile) []models.ProposedEdit {
	return lo.Map(lo.Slice(p.critical, 0, maxEdits), func(cc models.CriticalClause, i int) models.ProposedEdit {
		standard := "The parties shall confirm this clause against the approved playbook position before execution."
		if pr, ok := protectionFor(cc.Category); ok {
			standard = pr.standard
		}
		anchor := lo.CoalesceOrEmpty(cc.Source, cc.Excerpt)
		updated := anchor + " " + standard
		preview := diff.PreviewHTML(anchor, updated)
		return models.ProposedEdit{
			ID:             fmt.Sprintf("edit-%d", i+1),
			ClauseID:       cc.ClauseID,
			ClauseTitle:    cc.Title,
			AnchorText:     anchor,
			ProposedText:   updated,
			Intent:         "Align " + cc.Title + " with the playbook standard",
			Rationale:      cc.Reason,
			ApplyByDefault: cc.Importance == models.ImportanceHigh,
			PreviousText:   anchor,
			UpdatedText:    updated,
			PreviewHTML:    &preview,
		}
	})
}

func playbookInsights(recs []item) []models.PlaybookInsight {
	return lo.Map(lo.Slice(recs, 0, maxInsights), func(it item, i int) models.PlaybookInsight {
		return models.PlaybookInsight{
			ID:             fmt.Sprintf("insight-%d", i+1),
			Title:          it.title,
			Summary:        it.description,
			Recommendation: it.nextStep,
			Severity:       it.severity,
		}
	})
}

func similarity(p profile) []models.SimilarityEntry {
	baseline := math.Min(92, float64(50+7*countState(p.checks, statePresent)))
	name := humanize(p.contractType)
	return []models.SimilarityEntry{
		{
			ID:      "similarity-1",
			Source:  "baseline",
			Title:   "Standard " + name + " template",
			Score:   baseline,
			Summary: "Estimated from the standard protections found in the text.",
		},
		{
			ID:      "similarity-2",
			Source:  "historical",
			Title:   "Previously reviewed " + name + " agreements",
			Score:   math.Max(0, baseline-6),
			Summary: "Estimated; historical comparison requires the full analysis.",
		},
	}
}

func deviations(p profile) []models.DeviationInsight {
	if len(p.critical) == 0 {
		return []models.DeviationInsight{{
			ID:             "deviation-1",
			Title:          "Awaiting full analysis",
			Expected:       "Clause-by-clause comparison against the playbook",
			Observed:       "Deviation analysis is awaiting full analysis.",
			Severity:       "low",
			Recommendation: "Re-run the AI analysis to compare clauses against the playbook.",
		}}
	}
	return lo.Map(lo.Slice(p.critical, 0, maxDeviations), func(cc models.CriticalClause, i int) models.DeviationInsight {
		expected := "Approved playbook wording"
		if pr, ok := protectionFor(cc.Category); ok {
			expected = pr.standard
		}
		return models.DeviationInsight{
			ID:             fmt.Sprintf("deviation-%d", i+1),
			ClauseID:       cc.ClauseID,
			Title:          cc.Title + " deviation",
			Expected:       expected,
			Observed:       cc.Excerpt,
			Severity:       cc.Importance,
			Recommendation: "Negotiate toward the playbook standard.",
		}
	})
}

var priorities = map[models.Severity]string{
	models.SeverityCritical: "urgent",
	models.SeverityHigh:     "high",
	models.SeverityMedium:   "medium",
	models.SeverityLow:      "low",
	models.SeverityDefault:  "medium",
}

// Priority maps a finding severity onto an action item priority
func Priority(severity string) string {
	return priorities[models.ParseSeverity(severity)]
}

func structuredActions(actions []item) []models.ActionItem {
	return lo.Map(actions, func(it item, i int) models.ActionItem {
		return models.ActionItem{
			ID:          fmt.Sprintf("action-%d", i+1),
			Title:       it.title,
			Description: it.description,
			Priority:    Priority(it.severity),
			Owner:       it.owner,
			Department:  it.department,
			DueTimeline: it.due,
			Category:    it.category,
			NextStep:    it.nextStep,
			ClauseID:    it.clauseID,
		}
	})
}

func draftMetadata(edits []models.ProposedEdit) *models.DraftMetadata {
	defaults := lo.FilterMap(edits, func(e models.ProposedEdit, _ int) (string, bool) {
		return e.ID, e.ApplyByDefault
	})
	return &models.DraftMetadata{
		DraftAvailable:    len(edits) > 0,
		ProposedEditCount: len(edits),
		DefaultEditIDs:    defaults,
		BaseVersion:       "original",
		Notes:             "Fallback edits append the playbook standard wording to flagged clauses.",
	}
}
