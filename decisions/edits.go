package decisions

import (
	"fmt"

	"contractreview-backend/extraction"
	"contractreview-backend/models"
)

const (
	editOwner          = "legal"
	genericEditSummary = "Review proposed clause edit"
	updateClausePrefix = "Update clause: "
)

// ParseProposedEdit reads a legacy or AI-issued edit record. Edits with no
// before or after text, directly or through previewHtml, are rejected.
func ParseProposedEdit(r RawRecord, index int) (models.ProposedEdit, bool) {
	e := models.ProposedEdit{
		ID:           r.Str("id", "edit_id", "editId"),
		ClauseID:     r.Str(clauseIDKeys...),
		ClauseTitle:  r.Str(clauseTitleKeys...),
		AnchorText:   r.Str("anchor_text", "anchorText", "original_text", "originalText", "current_text", "currentText"),
		ProposedText: r.Str("proposed_text", "proposedText", "suggested_text", "suggestedText", "replacement"),
		Intent:       r.Str("intent", "description", "summary"),
		Rationale:    r.Str("rationale", "reason"),
		PreviousText: r.Str("previous_text", "previousText"),
		UpdatedText:  r.Str("updated_text", "updatedText"),
	}
	if e.ID == "" {
		e.ID = fmt.Sprintf("edit-%d", index+1)
	}
	if apply, ok := r.Bool("apply_by_default", "applyByDefault"); ok {
		e.ApplyByDefault = apply
	}
	if preview, ok := r.Record("preview_html", "previewHtml"); ok {
		e.PreviewHTML = &models.PreviewHTML{
			Previous: preview.Str("previous"),
			Updated:  preview.Str("updated"),
			Diff:     preview.Str("diff"),
		}
	}

	if _, ok := PreviewFromEdit(e); !ok {
		return e, false
	}
	return e, true
}

// PreviewFromEdit builds the decision preview for an edit. Explicit
// previous/updated text wins, then the plain text of the HTML preview,
// then anchor/proposed text.
func PreviewFromEdit(e models.ProposedEdit) (*models.ProposedEditPreview, bool) {
	previous := e.PreviousText
	updated := e.UpdatedText
	if e.PreviewHTML != nil {
		if previous == "" {
			previous = extraction.PlainText(e.PreviewHTML.Previous)
		}
		if updated == "" {
			updated = extraction.PlainText(e.PreviewHTML.Updated)
		}
	}
	if previous == "" {
		previous = e.AnchorText
	}
	if updated == "" {
		updated = e.ProposedText
	}
	if previous == "" && updated == "" {
		return nil, false
	}

	return &models.ProposedEditPreview{
		ID:             e.ID,
		ClauseID:       e.ClauseID,
		ClauseTitle:    e.ClauseTitle,
		AnchorText:     e.AnchorText,
		ProposedText:   e.ProposedText,
		Intent:         e.Intent,
		ApplyByDefault: e.ApplyByDefault,
		PreviousText:   previous,
		UpdatedText:    updated,
		PreviewHTML:    e.PreviewHTML,
	}, true
}

// FromProposedEdit turns an edit into a legal-owned decision carrying it
func FromProposedEdit(e models.ProposedEdit) (models.NormalizedDecision, bool) {
	preview, ok := PreviewFromEdit(e)
	if !ok {
		return models.NormalizedDecision{}, false
	}

	description := e.Intent
	switch {
	case description != "":
	case e.ClauseTitle != "":
		description = updateClausePrefix + e.ClauseTitle
	default:
		description = genericEditSummary
	}

	severity := models.SeverityMedium
	if e.ApplyByDefault {
		severity = models.SeverityHigh
	}

	return models.NormalizedDecision{
		ID:           e.ID,
		Description:  description,
		Severity:     severity,
		Department:   editOwner,
		Owner:        editOwner,
		ClauseID:     e.ClauseID,
		ClauseTitle:  e.ClauseTitle,
		Source:       models.SourceProposedEdit,
		ProposedEdit: preview,
	}, true
}
