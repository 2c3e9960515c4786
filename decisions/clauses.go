package decisions

import (
	"regexp"
	"strconv"
	"strings"

	"contractreview-backend/models"
)

var headingNumber = regexp.MustCompile(`^\s*(?:(?i:section|article|clause)\s+[\dIVXLC]+(?:\.\d+)*|\d+(?:\.\d+)*)\.?\s+`)

// AttachFallbackClausePreviews gives every decision without a proposed edit
// a synthetic preview built from the best matching clause. Matching tries,
// in order: exact clause id, clause id substring, category, clause title
// found in the description, and finally the first clause. The decision's
// next step (or description) becomes the proposed text.
func AttachFallbackClausePreviews(ds []models.NormalizedDecision, clauses []models.ClauseExtraction) []models.NormalizedDecision {
	out := make([]models.NormalizedDecision, len(ds))
	copy(out, ds)
	if len(clauses) == 0 {
		return out
	}

	for i := range out {
		d := &out[i]
		if d.ProposedEdit != nil {
			continue
		}
		clause := matchClause(*d, clauses)

		anchor := clause.OriginalText
		if anchor == "" {
			anchor = clause.NormalizedText
		}
		proposed := d.NextStep
		if proposed == "" {
			proposed = d.Description
		}

		d.ProposedEdit = &models.ProposedEditPreview{
			ID:           "fallback-" + d.ID,
			ClauseID:     clause.ClauseID,
			ClauseTitle:  clause.Title,
			AnchorText:   anchor,
			ProposedText: proposed,
			Intent:       d.Description,
			PreviousText: anchor,
			UpdatedText:  proposed,
			Synthetic:    true,
		}
		if d.ClauseID == "" {
			d.ClauseID = clause.ClauseID
		}
		if d.ClauseTitle == "" {
			d.ClauseTitle = clause.Title
		}
	}
	return out
}

func matchClause(d models.NormalizedDecision, clauses []models.ClauseExtraction) models.ClauseExtraction {
	if id := strings.ToLower(strings.TrimSpace(d.ClauseID)); id != "" {
		for _, c := range clauses {
			if strings.ToLower(c.ClauseID) == id {
				return c
			}
		}
		for _, c := range clauses {
			cid := strings.ToLower(c.ClauseID)
			if cid != "" && (strings.Contains(cid, id) || strings.Contains(id, cid)) {
				return c
			}
		}
	}

	if category := strings.ToLower(d.Category); category != "" {
		for _, c := range clauses {
			cc := strings.ToLower(c.Category)
			if cc != "" && (strings.Contains(cc, category) || strings.Contains(category, cc)) {
				return c
			}
		}
	}

	description := strings.ToLower(d.Description)
	for _, c := range clauses {
		title := strings.ToLower(strings.TrimSpace(headingNumber.ReplaceAllString(c.Title, "")))
		if title != "" && strings.Contains(description, title) {
			return c
		}
	}

	return clauses[0]
}

// DecisionGroup is a display bucket of decisions about one clause
type DecisionGroup struct {
	Key         string                      `json:"key"`
	ClauseID    string                      `json:"clauseId,omitempty"`
	ClauseTitle string                      `json:"clauseTitle,omitempty"`
	Decisions   []models.NormalizedDecision `json:"decisions"`
}

// GroupDecisionsByClause buckets decisions by clause id, else clause title,
// both case-insensitively; decisions with neither form singleton groups.
// Groups keep the order in which their keys were first seen.
func GroupDecisionsByClause(ds []models.NormalizedDecision) []DecisionGroup {
	groups := make([]DecisionGroup, 0)
	index := make(map[string]int)

	for i, d := range ds {
		var key string
		switch {
		case strings.TrimSpace(d.ClauseID) != "":
			key = "id:" + strings.ToLower(strings.TrimSpace(d.ClauseID))
		case strings.TrimSpace(d.ClauseTitle) != "":
			key = "title:" + strings.ToLower(strings.TrimSpace(d.ClauseTitle))
		default:
			groups = append(groups, DecisionGroup{
				Key:       "decision:" + d.ID + ":" + strconv.Itoa(i),
				Decisions: []models.NormalizedDecision{d},
			})
			continue
		}

		if g, ok := index[key]; ok {
			groups[g].Decisions = append(groups[g].Decisions, d)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, DecisionGroup{
			Key:         key,
			ClauseID:    d.ClauseID,
			ClauseTitle: d.ClauseTitle,
			Decisions:   []models.NormalizedDecision{d},
		})
	}
	return groups
}
