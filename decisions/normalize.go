package decisions

import (
	"fmt"
	"strings"

	"contractreview-backend/models"
)

// Field aliases, in resolution order
var (
	descriptionKeys = []string{"description", "recommendation", "action", "title", "text", "summary"}
	severityKeys    = []string{"severity", "priority", "risk_level", "riskLevel", "level"}
	ownerKeys       = []string{"owner", "assignee", "responsible"}
	departmentKeys  = []string{"department", "team"}
	timelineKeys    = []string{"due_timeline", "dueTimeline", "timeline", "deadline", "due_date"}
	categoryKeys    = []string{"category", "type", "area"}
	nextStepKeys    = []string{"next_step", "nextStep"}
	clauseIDKeys    = []string{"clause_id", "clauseId", "clause_reference", "clauseReference"}
	clauseTitleKeys = []string{"clause_title", "clauseTitle", "clause"}
	editKeys        = []string{"proposed_edit", "proposedEdit"}
	editIDKeys      = []string{"proposed_edit_id", "proposedEditId", "edit_id"}
)

var idPrefixes = map[models.DecisionSource]string{
	models.SourceRecommendation: "rec",
	models.SourceActionItem:     "action",
	models.SourceProposedEdit:   "edit",
}

// Input is every raw list a review can carry
type Input struct {
	Recommendations []RawRecord
	ActionItems     []RawRecord
	LegacyEdits     []RawRecord
	ProposedEdits   []models.ProposedEdit
	Clauses         []models.ClauseExtraction
}

// Normalize builds, links, deduplicates and sorts decisions. When clauses
// are supplied, decisions without an edit get a preview matched from them.
func Normalize(in Input) []models.NormalizedDecision {
	previews := make(map[string]*models.ProposedEditPreview)
	editDecisions := make([]models.NormalizedDecision, 0)

	edits := make([]models.ProposedEdit, 0, len(in.LegacyEdits)+len(in.ProposedEdits))
	for i, r := range in.LegacyEdits {
		if e, ok := ParseProposedEdit(r, i); ok {
			edits = append(edits, e)
		}
	}
	edits = append(edits, in.ProposedEdits...)

	for _, e := range edits {
		d, ok := FromProposedEdit(e)
		if !ok {
			continue
		}
		previews[strings.ToLower(e.ID)] = d.ProposedEdit
		editDecisions = append(editDecisions, d)
	}

	decisions := make([]models.NormalizedDecision, 0, len(in.Recommendations)+len(in.ActionItems)+len(editDecisions))
	for i, r := range in.Recommendations {
		if d, ok := FromRecord(r, models.SourceRecommendation, i); ok {
			decisions = append(decisions, linkEdit(d, r, previews))
		}
	}
	for i, r := range in.ActionItems {
		if d, ok := FromRecord(r, models.SourceActionItem, i); ok {
			decisions = append(decisions, linkEdit(d, r, previews))
		}
	}
	decisions = append(decisions, editDecisions...)

	decisions = Deduplicate(decisions)
	if len(in.Clauses) > 0 {
		decisions = AttachFallbackClausePreviews(decisions, in.Clauses)
	}
	Sort(decisions)
	return decisions
}

// DefaultSeverity returns the severity assumed when a record has none
func DefaultSeverity(source models.DecisionSource) models.Severity {
	if source == models.SourceActionItem {
		return models.SeverityHigh
	}
	return models.SeverityMedium
}

// FromRecord converts one raw record. Records without a description are
// dropped (ok is false).
func FromRecord(r RawRecord, source models.DecisionSource, index int) (models.NormalizedDecision, bool) {
	description, ok := r.String(descriptionKeys...)
	if !ok {
		return models.NormalizedDecision{}, false
	}

	id, ok := r.String("id", "decision_id", "recommendation_id", "action_id")
	if !ok {
		id = fmt.Sprintf("%s-%d", idPrefixes[source], index+1)
	}

	severity := DefaultSeverity(source)
	if s, ok := r.String(severityKeys...); ok {
		severity = models.ParseSeverity(s)
	}

	return models.NormalizedDecision{
		ID:          id,
		Description: description,
		Severity:    severity,
		Department:  strings.ToLower(r.Str(departmentKeys...)),
		Owner:       r.Str(ownerKeys...),
		DueTimeline: r.Str(timelineKeys...),
		Category:    r.Str(categoryKeys...),
		NextStep:    r.Str(nextStepKeys...),
		ClauseID:    r.Str(clauseIDKeys...),
		ClauseTitle: r.Str(clauseTitleKeys...),
		Source:      source,
	}, true
}

// linkEdit attaches an embedded or referenced proposed edit to d
func linkEdit(d models.NormalizedDecision, r RawRecord, previews map[string]*models.ProposedEditPreview) models.NormalizedDecision {
	if nested, ok := r.Record(editKeys...); ok {
		if e, ok := ParseProposedEdit(nested, 0); ok {
			if _, hasID := nested.String("id", "edit_id"); !hasID {
				e.ID = d.ID + "-edit"
			}
			if preview, ok := PreviewFromEdit(e); ok {
				d.ProposedEdit = preview
			}
		}
	} else if id, ok := r.String(editIDKeys...); ok {
		if preview, ok := previews[strings.ToLower(id)]; ok {
			copied := *preview
			d.ProposedEdit = &copied
		}
	}

	if d.ProposedEdit != nil {
		if d.ClauseID == "" {
			d.ClauseID = d.ProposedEdit.ClauseID
		}
		if d.ClauseTitle == "" {
			d.ClauseTitle = d.ProposedEdit.ClauseTitle
		}
	}
	return d
}
