package models

import "strings"

// Severity of a finding. Ranked critical < high < medium < low < default.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityDefault  Severity = "default"
)

var severityRanks = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
	SeverityDefault:  4,
}

var severityAliases = map[string]Severity{
	"urgent":   SeverityCritical,
	"severe":   SeverityCritical,
	"blocker":  SeverityCritical,
	"major":    SeverityHigh,
	"moderate": SeverityMedium,
	"normal":   SeverityMedium,
	"minor":    SeverityLow,
}

// ParseSeverity maps a free-form severity string onto the rank table.
// Unrecognized values fall to SeverityDefault.
func ParseSeverity(s string) Severity {
	v := strings.ToLower(strings.TrimSpace(s))
	if _, ok := severityRanks[Severity(v)]; ok {
		return Severity(v)
	}
	if alias, ok := severityAliases[v]; ok {
		return alias
	}
	return SeverityDefault
}

// Rank returns the sort rank of the severity
func (s Severity) Rank() int {
	if rank, ok := severityRanks[s]; ok {
		return rank
	}
	return severityRanks[SeverityDefault]
}

// DecisionSource identifies which raw list a decision was built from
type DecisionSource string

const (
	SourceRecommendation DecisionSource = "recommendation"
	SourceActionItem     DecisionSource = "action_item"
	SourceProposedEdit   DecisionSource = "proposed_edit"
)

// ProposedEditPreview is a clause rewrite attached to a decision
type ProposedEditPreview struct {
	ID             string       `json:"id"`
	ClauseID       string       `json:"clauseId,omitempty"`
	ClauseTitle    string       `json:"clauseTitle,omitempty"`
	AnchorText     string       `json:"anchorText,omitempty"`
	ProposedText   string       `json:"proposedText,omitempty"`
	Intent         string       `json:"intent,omitempty"`
	ApplyByDefault bool         `json:"applyByDefault"`
	PreviousText   string       `json:"previousText,omitempty"`
	UpdatedText    string       `json:"updatedText,omitempty"`
	PreviewHTML    *PreviewHTML `json:"previewHtml,omitempty"`

	// Synthetic is set when the preview was matched from extracted clauses
	// rather than supplied with the finding.
	Synthetic bool `json:"synthetic,omitempty"`
}

// Before returns the text being replaced
func (p *ProposedEditPreview) Before() string {
	if p.PreviousText != "" {
		return p.PreviousText
	}
	return p.AnchorText
}

// After returns the replacement text
func (p *ProposedEditPreview) After() string {
	if p.UpdatedText != "" {
		return p.UpdatedText
	}
	return p.ProposedText
}

// NormalizedDecision is the canonical form of one actionable finding
type NormalizedDecision struct {
	ID           string               `json:"id"`
	Description  string               `json:"description"`
	Severity     Severity             `json:"severity"`
	Department   string               `json:"department,omitempty"`
	Owner        string               `json:"owner,omitempty"`
	DueTimeline  string               `json:"dueTimeline,omitempty"`
	Category     string               `json:"category,omitempty"`
	NextStep     string               `json:"nextStep,omitempty"`
	ClauseID     string               `json:"clauseId,omitempty"`
	ClauseTitle  string               `json:"clauseTitle,omitempty"`
	Source       DecisionSource       `json:"source"`
	DuplicateOf  *string              `json:"duplicateOf"`
	ProposedEdit *ProposedEditPreview `json:"proposedEdit,omitempty"`
}
