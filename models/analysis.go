package models

import (
	"database/sql/driver"
	"encoding/json"
)

// Finding is a recommendation or action item in the legacy analysis payload
type Finding struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Department  string `json:"department"`
	Owner       string `json:"owner"`
	DueTimeline string `json:"due_timeline"`
	Category    string `json:"category"`
	NextStep    string `json:"next_step"`
	ClauseID    string `json:"clause_id,omitempty"`
}

// ComplianceArea is one regulatory area scored by a compliance review
type ComplianceArea struct {
	Area   string `json:"area"`
	Status string `json:"status"`
	Score  int    `json:"score"`
	Notes  string `json:"notes"`
}

// Violation is a compliance gap
type Violation struct {
	ID          string `json:"id"`
	Area        string `json:"area"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// Risk is one entry of a risk assessment
type Risk struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Level           string `json:"level"`
	Likelihood      string `json:"likelihood"`
	Impact          string `json:"impact"`
	Mitigation      string `json:"mitigation"`
	ClauseReference string `json:"clause_reference,omitempty"`
}

// Perspective is a stakeholder view in a perspective review
type Perspective struct {
	Stakeholder string   `json:"stakeholder"`
	View        string   `json:"view"`
	Concerns    []string `json:"concerns"`
	Score       int      `json:"score"`
}

// CriticalClause is a clause singled out in summary reviews
type CriticalClause struct {
	ClauseID   string `json:"clause_id"`
	Title      string `json:"title"`
	Category   string `json:"category,omitempty"`
	Importance string `json:"importance"`
	Excerpt    string `json:"excerpt"`
	Reason     string `json:"reason"`

	// Source is the verbatim clause body used to anchor edits
	Source string `json:"-"`
}

// SolutionAlignment carries solution-specific guidance
type SolutionAlignment struct {
	SolutionKey   string   `json:"solution_key"`
	SolutionTitle string   `json:"solution_title"`
	Matched       bool     `json:"matched"`
	Priorities    []string `json:"priorities"`
	Controls      []string `json:"controls"`
	Gaps          []string `json:"gaps"`
}

// Analysis is the full analysis payload: legacy top-level fields plus the
// structured report.
type Analysis struct {
	ReviewType     string  `json:"review_type"`
	ContractType   string  `json:"contract_type"`
	Score          int     `json:"score"`
	Confidence     float64 `json:"confidence"`
	PagesEstimated int     `json:"pages_estimated"`
	ProcessingTime float64 `json:"processing_time"`

	Summary         string           `json:"summary,omitempty"`
	KeyPoints       []string         `json:"key_points,omitempty"`
	CriticalClauses []CriticalClause `json:"critical_clauses,omitempty"`
	ComplianceAreas []ComplianceArea `json:"compliance_areas,omitempty"`
	Violations      []Violation      `json:"violations,omitempty"`
	Risks           []Risk           `json:"risks,omitempty"`
	Perspectives    []Perspective    `json:"perspectives,omitempty"`

	Recommendations   []Finding          `json:"recommendations"`
	ActionItems       []Finding          `json:"action_items"`
	SolutionAlignment *SolutionAlignment `json:"solution_alignment,omitempty"`

	FallbackUsed   bool   `json:"fallback_used"`
	FallbackReason string `json:"fallback_reason,omitempty"`
	Timestamp      string `json:"timestamp"`

	StructuredReport *AnalysisReport `json:"structured_report"`
}

// Value implements driver.Valuer for JSONB
func (a Analysis) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB
func (a *Analysis) Scan(value interface{}) error {
	_, err := scanJSONB(value, a)
	return err
}
