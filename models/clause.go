package models

// Importance tiers for extracted clauses
const (
	ImportanceHigh   = "high"
	ImportanceMedium = "medium"
	ImportanceLow    = "low"
)

// ClauseExtraction is a candidate contract clause
type ClauseExtraction struct {
	ID             string   `json:"id"`
	ClauseID       string   `json:"clauseId"`
	Title          string   `json:"title"`
	Category       string   `json:"category,omitempty"`
	OriginalText   string   `json:"originalText"`
	NormalizedText string   `json:"normalizedText,omitempty"`
	Importance     string   `json:"importance"`
	Location       string   `json:"location,omitempty"`
	References     []string `json:"references"`

	// SourceText is the clause body exactly as it appears in the contract,
	// so edits anchored on it can be applied to the source text.
	SourceText string `json:"sourceText,omitempty"`
}
