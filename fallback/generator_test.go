package fallback

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"contractreview-backend/extraction"
	"contractreview-backend/models"
	"contractreview-backend/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleContract = `MASTER SERVICES AGREEMENT

This Agreement is made between Acme Corp and Globex Inc. for the provision of managed services described in the order form.

1. Fees and Payment
The Customer shall pay all fees within thirty days of the invoice date. Late payments accrue interest at one percent per month.

2. Limitation of Liability
Neither party shall be liable for indirect damages. The Supplier's total liability shall not exceed the fees paid in the prior twelve months.

3. Termination
Either party may terminate this Agreement on ninety days written notice to the other party without cause.`

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestGenerator() *Generator {
	return NewGenerator(WithClock(func() time.Time { return fixedNow }))
}

func TestGenerateIsDeterministic(t *testing.T) {
	g := newTestGenerator()
	opts := Options{ContractContent: sampleContract, SolutionKey: "psa", FallbackReason: "timeout"}

	first, err := json.Marshal(g.Generate(models.ReviewTypeRisk, nil, opts))
	require.NoError(t, err)
	second, err := json.Marshal(g.Generate(models.ReviewTypeRisk, nil, opts))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestGenerateAlwaysValidates(t *testing.T) {
	g := newTestGenerator()
	reviewTypes := []string{
		models.ReviewTypeCompliance,
		models.ReviewTypeRisk,
		models.ReviewTypePerspective,
		models.ReviewTypeFullSummary,
		models.ReviewTypeAIIntegration,
		"something else entirely",
		"",
	}
	for _, rt := range reviewTypes {
		for _, content := range []string{sampleContract, "", "   \n\n  ", "This Agreement is between Acme Corp and Globex Inc."} {
			a := g.Generate(rt, nil, Options{ContractContent: content})
			require.NotNil(t, a.StructuredReport)

			_, err := validation.ValidateAnalysisReport(a.StructuredReport)
			require.NoError(t, err, "review type %q", rt)

			assert.True(t, a.FallbackUsed)
			assert.True(t, a.StructuredReport.Metadata.FallbackUsed)
			assert.Equal(t, models.ReportSourceFallback, a.StructuredReport.Metadata.Source)
			assert.GreaterOrEqual(t, a.Score, 0)
			assert.LessOrEqual(t, a.Score, 100)
			assert.GreaterOrEqual(t, len(a.Recommendations), 3)
			assert.LessOrEqual(t, len(a.Recommendations), 4)
			assert.GreaterOrEqual(t, len(a.ActionItems), 2)
			assert.LessOrEqual(t, len(a.ActionItems), 3)
		}
	}
}

func TestGenerateRiskAssessmentParties(t *testing.T) {
	a := newTestGenerator().Generate("risk_assessment", nil, Options{
		ContractContent: "This Agreement is between Acme Corp and Globex Inc. ...",
	})

	assert.GreaterOrEqual(t, a.Score, 0)
	assert.LessOrEqual(t, a.Score, 100)
	assert.NotEmpty(t, a.Risks)
	assert.Equal(t, []string{"Acme Corp", "Globex Inc"}, a.StructuredReport.ContractSummary.Parties)
}

func TestGenerateWithoutContent(t *testing.T) {
	a := newTestGenerator().Generate(models.ReviewTypeFullSummary, nil, Options{})

	assert.Equal(t, DefaultContractType, a.ContractType)
	assert.InDelta(t, 0.78, a.Confidence, 1e-9)
	assert.Equal(t, 1, a.PagesEstimated)
	assert.InDelta(t, 2.5, a.ProcessingTime, 1e-9)
	assert.Equal(t, defaultBaseScore, a.Score)
	assert.Equal(t, DefaultFallbackReason, a.FallbackReason)
	assert.NotEmpty(t, a.Summary)
	assert.Empty(t, a.CriticalClauses)

	require.Len(t, a.Recommendations, 3)
	for _, rec := range a.Recommendations {
		assert.Equal(t, "medium", rec.Severity)
	}
	require.Len(t, a.ActionItems, 3)
	assert.Equal(t, "intake", a.ActionItems[2].Category)

	r := a.StructuredReport
	assert.Equal(t, []string{"Party A", "Party B"}, r.ContractSummary.Parties)
	require.Len(t, r.ClauseExtractions, 1)
	assert.Equal(t, "general", r.ClauseExtractions[0].ClauseID)
	require.Len(t, r.ClauseFindings, 1)
	require.Len(t, r.DeviationInsights, 1)
	assert.Equal(t, "Awaiting full analysis", r.DeviationInsights[0].Title)
	assert.Empty(t, r.ProposedEdits)
	assert.False(t, r.DraftMetadata.DraftAvailable)
	assert.Equal(t, DefaultFallbackReason, r.Metadata.FallbackReason)
}

func TestGenerateFromContract(t *testing.T) {
	a := newTestGenerator().Generate(models.ReviewTypeRisk, nil, Options{ContractContent: sampleContract})

	assert.Equal(t, 56+4*3-3*3, a.Score)
	assert.InDelta(t, 0.85, a.Confidence, 1e-9)

	// Missing protections come first
	require.Len(t, a.Recommendations, 3)
	assert.Equal(t, "confidentiality", a.Recommendations[0].Category)
	assert.Equal(t, "data_protection", a.Recommendations[1].Category)
	assert.Equal(t, "governing_law", a.Recommendations[2].Category)
	assert.Equal(t, "rec-1", a.Recommendations[0].ID)

	require.Len(t, a.ActionItems, 3)
	assert.Equal(t, "high", a.ActionItems[0].Severity)
	assert.Equal(t, "parsed-1", a.ActionItems[1].ClauseID)
	assert.Equal(t, "escalation", a.ActionItems[2].Category)

	require.Len(t, a.Risks, 5)
	assert.Equal(t, "risk-1", a.Risks[0].ID)
	assert.Equal(t, "parsed-2", a.Risks[3].ClauseReference)

	r := a.StructuredReport
	assert.Equal(t, "2026-03-31T12:00:00Z", r.GeneralInformation.ReportExpiry)
	assert.Equal(t, "2026-03-01T12:00:00Z", r.Metadata.GeneratedAt)
	assert.Len(t, r.ClauseExtractions, 4)
	assert.Len(t, r.IssuesToAddress, 3)
	assert.Equal(t, []string{"fallback-confidentiality"}, r.IssuesToAddress[0].ClauseReferences)
	assert.Equal(t, "met", r.CriteriaMet[0].Status)
	assert.Equal(t, "pending", r.CriteriaMet[1].Status)
	assert.Len(t, r.CriteriaMet, 5)

	require.Len(t, r.ProposedEdits, 3)
	edit := r.ProposedEdits[0]
	assert.Equal(t, "parsed-2", edit.ClauseID)
	assert.True(t, edit.ApplyByDefault)
	assert.Contains(t, edit.UpdatedText, edit.PreviousText)
	require.NotNil(t, edit.PreviewHTML)
	assert.Contains(t, edit.PreviewHTML.Diff, "<ins>")
	assert.False(t, r.ProposedEdits[2].ApplyByDefault)
	assert.Equal(t, []string{"edit-1", "edit-2"}, r.DraftMetadata.DefaultEditIDs)

	require.Len(t, r.DeviationInsights, 2)
	assert.Equal(t, "high", r.DeviationInsights[0].Severity)
	assert.Equal(t, "high", r.ActionItems[0].Priority)
	assert.Equal(t, []string{"Acme Corp", "Globex Inc"}, r.ContractSummary.Parties)
}

func TestGenerateEditsAnchorOnSourceText(t *testing.T) {
	longBody := strings.Repeat("The Supplier's total liability for each claim shall be limited as agreed in the order form. ", 8)
	content := "1. Limitation of Liability\n" +
		"Neither party shall be liable for indirect or consequential damages.\n" +
		longBody + "\n\n" +
		"2. Termination\n" +
		"Either party may terminate this Agreement on ninety days written notice.\n" +
		"Termination does not affect accrued rights."

	a := newTestGenerator().Generate(models.ReviewTypeRisk, nil, Options{ContractContent: content})
	r := a.StructuredReport
	require.Len(t, r.ProposedEdits, 2)

	for _, e := range r.ProposedEdits {
		assert.Contains(t, content, e.AnchorText, e.ID)
		assert.Equal(t, e.AnchorText, e.PreviousText)
		assert.True(t, strings.HasPrefix(e.UpdatedText, e.AnchorText))
	}
	assert.Contains(t, r.ProposedEdits[0].AnchorText, "\n")

	// The display excerpt stays bounded
	for _, c := range r.ClauseExtractions {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.OriginalText), extraction.DefaultExcerptLength)
	}
	assert.NotEqual(t, r.ClauseExtractions[0].SourceText, r.ClauseExtractions[0].OriginalText)
}

func TestGenerateReviewTypePayloads(t *testing.T) {
	g := newTestGenerator()
	opts := Options{ContractContent: sampleContract}

	compliance := g.Generate(models.ReviewTypeCompliance, nil, opts)
	assert.Len(t, compliance.ComplianceAreas, len(protections))
	assert.Len(t, compliance.Violations, 3)
	assert.Empty(t, compliance.Risks)

	perspective := g.Generate(models.ReviewTypePerspective, nil, opts)
	require.Len(t, perspective.Perspectives, 4)
	assert.Equal(t, "Legal", perspective.Perspectives[0].Stakeholder)
	assert.Equal(t, []string{"Governing law is missing"}, perspective.Perspectives[0].Concerns)
	assert.Equal(t, 70, perspective.Perspectives[0].Score)
	assert.Empty(t, perspective.Perspectives[1].Concerns)

	summary := g.Generate("ai_integration", nil, opts)
	assert.Contains(t, summary.Summary, "Acme Corp and Globex Inc")
	assert.Len(t, summary.KeyPoints, len(protections))
	require.Len(t, summary.CriticalClauses, 3)
	assert.Equal(t, models.ImportanceMedium, summary.CriticalClauses[2].Importance)
}

func TestGenerateContractTypeAndClassification(t *testing.T) {
	g := newTestGenerator()

	a := g.Generate("Risk Assessment", &Classification{ContractType: "NDA", Confidence: 0.9}, Options{ContractContent: sampleContract})
	assert.Equal(t, "risk_assessment", a.ReviewType)
	assert.Equal(t, "nda", a.ContractType)
	assert.InDelta(t, 0.88, a.Confidence, 1e-9)
	require.NotNil(t, a.SolutionAlignment)
	assert.True(t, a.SolutionAlignment.Matched)
	assert.Equal(t, "nda", a.SolutionAlignment.SolutionKey)

	a = g.Generate("risk_assessment", &Classification{ContractType: "nda"}, Options{ContractType: "Supply-Agreement "})
	assert.Equal(t, "supply_agreement", a.ContractType)
	assert.InDelta(t, 0.78, a.Confidence, 1e-9)
}

func TestGenerateSolutionAlignment(t *testing.T) {
	g := newTestGenerator()

	a := g.Generate(models.ReviewTypeRisk, nil, Options{ContractContent: sampleContract, SolutionKey: "PSA"})
	require.Len(t, a.Recommendations, 4)
	assert.Equal(t, "solution_alignment", a.Recommendations[3].Category)
	assert.Equal(t, "Professional Services Agreement", a.StructuredReport.ContractSummary.ContractName)

	a = g.Generate(models.ReviewTypeRisk, nil, Options{SolutionTitle: "Data Processing Agreement"})
	assert.Equal(t, "dpa", a.SolutionAlignment.SolutionKey)

	a = g.Generate(models.ReviewTypeRisk, nil, Options{SolutionKey: "widget"})
	assert.False(t, a.SolutionAlignment.Matched)
	assert.Equal(t, "widget", a.SolutionAlignment.SolutionKey)
	assert.NotEmpty(t, a.SolutionAlignment.Priorities)
	assert.Len(t, a.Recommendations, 3)
}

func TestPagesAndProcessingTime(t *testing.T) {
	assert.Equal(t, 1, pages(0))
	assert.Equal(t, 1, pages(360))
	assert.Equal(t, 2, pages(361))
	assert.InDelta(t, 2.5, processingTime(0), 1e-9)
	assert.InDelta(t, 3.5, processingTime(1000), 1e-9)
	assert.InDelta(t, 9.0, processingTime(100000), 1e-9)
}

func TestPriority(t *testing.T) {
	tests := map[string]string{
		"critical": "urgent",
		"HIGH":     "high",
		"medium":   "medium",
		"low":      "low",
		"":         "medium",
		"whatever": "medium",
	}
	for in, want := range tests {
		assert.Equal(t, want, Priority(in), in)
	}
}

func TestParsePlaybooks(t *testing.T) {
	p := DefaultPlaybooks()
	for _, key := range []string{"dpa", "ppc", "eula", "nda", "psa", "ca", "rda"} {
		_, ok := p.Find(key)
		assert.True(t, ok, key)
	}
	s, ok := p.Find("", "Master Services Agreement")
	require.True(t, ok)
	assert.Equal(t, "psa", s.Key)

	_, err := ParsePlaybooks([]byte("solutions: [ {title: x} ]"))
	assert.Error(t, err)
	_, err = ParsePlaybooks([]byte("solutions: {"))
	assert.Error(t, err)
}
