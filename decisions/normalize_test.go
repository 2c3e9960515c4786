package decisions

import (
	"encoding/json"
	"testing"
	"unicode/utf8"

	"contractreview-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(t *testing.T, raw string) []RawRecord {
	t.Helper()
	out := ParseRecords([]byte(raw))
	require.NotNil(t, out)
	return out
}

func TestRawRecordAccessors(t *testing.T) {
	var r RawRecord
	require.NoError(t, json.Unmarshal([]byte(`{
		"title": "  ",
		"recommendation": " Cap liability ",
		"score": 42,
		"apply": "yes",
		"flag": false,
		"nested": {"id": "x"},
		"refs": ["Section 1", "", 3],
		"one": "Section 9"
	}`), &r))

	s, ok := r.String("description", "title", "recommendation")
	assert.True(t, ok)
	assert.Equal(t, "Cap liability", s)

	s, ok = r.String("score")
	assert.True(t, ok)
	assert.Equal(t, "42", s)

	_, ok = r.String("missing", "flag")
	assert.False(t, ok)

	b, ok := r.Bool("apply")
	assert.True(t, ok)
	assert.True(t, b)
	b, ok = r.Bool("flag")
	assert.True(t, ok)
	assert.False(t, b)

	nested, ok := r.Record("nested")
	require.True(t, ok)
	assert.Equal(t, "x", nested.Str("id"))

	assert.Equal(t, []string{"Section 1"}, r.Strings("refs"))
	assert.Equal(t, []string{"Section 9"}, r.Strings("one"))
	assert.Nil(t, r.Strings("missing"))
}

func TestRecordsFrom(t *testing.T) {
	findings := []models.Finding{{ID: "rec-1", Description: "Add a cap", Severity: "high", NextStep: "Draft"}}
	out := RecordsFrom(findings)
	require.Len(t, out, 1)
	assert.Equal(t, "Add a cap", out[0].Str("description"))
	assert.Equal(t, "Draft", out[0].Str("next_step"))

	assert.Nil(t, RecordsFrom(nil))
	assert.Empty(t, RecordsFrom([]int{1, 2}))
	assert.Nil(t, ParseRecords([]byte(`{"not": "a list"}`)))
}

func TestFromRecordAliasesAndDefaults(t *testing.T) {
	rs := records(t, `[
		{"recommendation": "Negotiate a mutual cap", "priority": "URGENT", "assignee": "Dana", "team": "Legal", "deadline": "2 weeks", "type": "liability", "nextStep": "Send redline", "clauseId": "parsed-3"},
		{"action": "Confirm insurance"},
		{"severity": "high"},
		{"text": "Check audit rights", "risk_level": "whatever"}
	]`)

	d, ok := FromRecord(rs[0], models.SourceRecommendation, 0)
	require.True(t, ok)
	assert.Equal(t, models.NormalizedDecision{
		ID:          "rec-1",
		Description: "Negotiate a mutual cap",
		Severity:    models.SeverityCritical,
		Department:  "legal",
		Owner:       "Dana",
		DueTimeline: "2 weeks",
		Category:    "liability",
		NextStep:    "Send redline",
		ClauseID:    "parsed-3",
		Source:      models.SourceRecommendation,
	}, d)

	d, ok = FromRecord(rs[1], models.SourceActionItem, 1)
	require.True(t, ok)
	assert.Equal(t, "action-2", d.ID)
	assert.Equal(t, models.SeverityHigh, d.Severity)

	d, ok = FromRecord(rs[1], models.SourceRecommendation, 1)
	require.True(t, ok)
	assert.Equal(t, models.SeverityMedium, d.Severity)

	_, ok = FromRecord(rs[2], models.SourceRecommendation, 2)
	assert.False(t, ok, "records without a description are dropped")

	d, ok = FromRecord(rs[3], models.SourceRecommendation, 3)
	require.True(t, ok)
	assert.Equal(t, models.SeverityDefault, d.Severity)
}

func TestNormalizeEmpty(t *testing.T) {
	out := Normalize(Input{})
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestNormalizeLinksAndDeduplicates(t *testing.T) {
	in := Input{
		Recommendations: records(t, `[
			{"id": "rec-a", "description": "Cap liability at annual fees", "severity": "high", "owner": "Legal", "proposed_edit_id": "EDIT-1"},
			{"id": "rec-b", "description": "Clarify payment terms", "severity": "low", "owner": "Finance"},
			{"id": "rec-c", "description": "clarify payment terms", "severity": "medium", "owner": "finance"}
		]`),
		ActionItems: records(t, `[
			{"id": "act-a", "description": "Escalate indemnity to GC", "owner": "Legal"},
			{"description": ""}
		]`),
		ProposedEdits: []models.ProposedEdit{
			{ID: "edit-1", ClauseID: "parsed-3", ClauseTitle: "3. Liability", AnchorText: "unlimited liability", ProposedText: "liability capped at fees", Intent: "Cap liability", ApplyByDefault: true},
			{ID: "edit-empty", ClauseTitle: "Nothing"},
		},
	}

	out := Normalize(in)
	require.Len(t, out, 3)

	// High severities first, then alphabetical
	assert.Equal(t, "rec-a", out[0].ID)
	require.NotNil(t, out[0].ProposedEdit)
	assert.Equal(t, "edit-1", out[0].ProposedEdit.ID)
	assert.Equal(t, "parsed-3", out[0].ClauseID)
	assert.Equal(t, "unlimited liability", out[0].ProposedEdit.PreviousText)

	assert.Equal(t, "act-a", out[1].ID)
	assert.Equal(t, models.SeverityHigh, out[1].Severity)

	assert.Equal(t, "rec-b", out[2].ID)
	assert.Equal(t, models.SeverityLow, out[2].Severity)
}

func TestNormalizeEmbeddedEditAndLegacyEdits(t *testing.T) {
	in := Input{
		Recommendations: records(t, `[
			{"id": "r1", "description": "Add data breach notice", "proposed_edit": {"anchor_text": "Supplier shall notify", "proposed_text": "Supplier shall notify within 48 hours"}}
		]`),
		LegacyEdits: records(t, `[
			{"clause_title": "Term", "previewHtml": {"previous": "<p>One year</p>", "updated": "<p>Two years</p>"}, "applyByDefault": "true"},
			{"clause_title": "Empty"}
		]`),
	}

	out := Normalize(in)
	require.Len(t, out, 2)

	assert.Equal(t, "edit-1", out[0].ID)
	assert.Equal(t, "Update clause: Term", out[0].Description)
	assert.Equal(t, models.SeverityHigh, out[0].Severity)
	assert.Equal(t, "legal", out[0].Owner)
	assert.Equal(t, "One year", out[0].ProposedEdit.PreviousText)
	assert.Equal(t, "Two years", out[0].ProposedEdit.UpdatedText)

	assert.Equal(t, "r1", out[1].ID)
	require.NotNil(t, out[1].ProposedEdit)
	assert.Equal(t, "r1-edit", out[1].ProposedEdit.ID)
	assert.Equal(t, "Supplier shall notify within 48 hours", out[1].ProposedEdit.UpdatedText)
}

func TestNormalizeAttachesClausePreviews(t *testing.T) {
	clauses := []models.ClauseExtraction{
		{ClauseID: "parsed-2", Title: "2. Fees", Category: "payment", OriginalText: "Fees are due in 60 days."},
	}
	out := Normalize(Input{
		Recommendations: records(t, `[{"id": "r1", "description": "Shorten payment terms", "category": "payment", "next_step": "Fees are due in 30 days."}]`),
		Clauses:         clauses,
	})
	require.Len(t, out, 1)
	require.NotNil(t, out[0].ProposedEdit)
	assert.True(t, out[0].ProposedEdit.Synthetic)
	assert.Equal(t, "Fees are due in 60 days.", out[0].ProposedEdit.PreviousText)
	assert.Equal(t, "Fees are due in 30 days.", out[0].ProposedEdit.UpdatedText)
	assert.Equal(t, "parsed-2", out[0].ClauseID)
}

func TestFromProposedEdit(t *testing.T) {
	tests := []struct {
		name     string
		edit     models.ProposedEdit
		ok       bool
		desc     string
		severity models.Severity
		previous string
		updated  string
	}{
		{
			name: "intent wins",
			edit: models.ProposedEdit{ID: "e1", Intent: "Tighten scope", AnchorText: "a", ProposedText: "b"},
			ok:   true, desc: "Tighten scope", severity: models.SeverityMedium, previous: "a", updated: "b",
		},
		{
			name: "clause title fallback",
			edit: models.ProposedEdit{ID: "e2", ClauseTitle: "Fees", ApplyByDefault: true, ProposedText: "b"},
			ok:   true, desc: "Update clause: Fees", severity: models.SeverityHigh, previous: "", updated: "b",
		},
		{
			name: "generic fallback",
			edit: models.ProposedEdit{ID: "e3", AnchorText: "a"},
			ok:   true, desc: "Review proposed clause edit", severity: models.SeverityMedium, previous: "a", updated: "",
		},
		{
			name: "explicit texts beat html and anchors",
			edit: models.ProposedEdit{ID: "e4", AnchorText: "a", ProposedText: "b", PreviousText: "prev", UpdatedText: "next",
				PreviewHTML: &models.PreviewHTML{Previous: "<p>h1</p>", Updated: "<p>h2</p>"}},
			ok: true, desc: "Review proposed clause edit", severity: models.SeverityMedium, previous: "prev", updated: "next",
		},
		{
			name: "html beats anchors",
			edit: models.ProposedEdit{ID: "e5", AnchorText: "a", ProposedText: "b",
				PreviewHTML: &models.PreviewHTML{Previous: "<p>h1</p>", Updated: "<p>h2</p>"}},
			ok: true, desc: "Review proposed clause edit", severity: models.SeverityMedium, previous: "h1", updated: "h2",
		},
		{
			name: "no text is discarded",
			edit: models.ProposedEdit{ID: "e6", Intent: "Nothing to show"},
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := FromProposedEdit(tt.edit)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.desc, d.Description)
			assert.Equal(t, tt.severity, d.Severity)
			assert.Equal(t, "legal", d.Department)
			assert.Equal(t, "legal", d.Owner)
			assert.Equal(t, models.SourceProposedEdit, d.Source)
			assert.Equal(t, tt.previous, d.ProposedEdit.PreviousText)
			assert.Equal(t, tt.updated, d.ProposedEdit.UpdatedText)
		})
	}
}

func TestDepartmentBadge(t *testing.T) {
	assert.Equal(t, Badge{"Legal", "purple"}, DepartmentBadge(" LEGAL "))
	assert.Equal(t, Badge{"Finance", "green"}, DepartmentBadge("finance"))
	assert.Equal(t, Badge{"General", "gray"}, DepartmentBadge(""))
	assert.Equal(t, Badge{"Customer Success", "gray"}, DepartmentBadge("customer_success"))

	label := DepartmentBadge("équipe juridique").Label
	assert.Equal(t, "Équipe Juridique", label)
	assert.True(t, utf8.ValidString(label))
}
