package models

import (
	"database/sql/driver"
	"encoding/json"
)

// Report sources
const (
	ReportSourceAI       = "ai"
	ReportSourceFallback = "fallback"
	ReportSourceHybrid   = "hybrid"
)

// ReportSchemaVersion is stamped on every structured report
const ReportSchemaVersion = "2.1"

// AnalysisReport is the structured report rendered by the review UI
type AnalysisReport struct {
	ReviewType         string             `json:"reviewType"`
	GeneralInformation GeneralInformation `json:"generalInformation"`
	ContractSummary    ContractSummary    `json:"contractSummary"`
	IssuesToAddress    []Issue            `json:"issuesToAddress"`
	CriteriaMet        []Criterion        `json:"criteriaMet"`
	ClauseFindings     []ClauseFinding    `json:"clauseFindings"`
	ProposedEdits      []ProposedEdit     `json:"proposedEdits"`
	PlaybookInsights   []PlaybookInsight  `json:"playbookInsights"`
	ClauseExtractions  []ClauseExtraction `json:"clauseExtractions"`
	SimilarityAnalysis []SimilarityEntry  `json:"similarityAnalysis"`
	DeviationInsights  []DeviationInsight `json:"deviationInsights"`
	ActionItems        []ActionItem       `json:"actionItems"`
	DraftMetadata      *DraftMetadata     `json:"draftMetadata,omitempty"`
	Metadata           ReportMetadata     `json:"metadata"`
}

// GeneralInformation is the report header
type GeneralInformation struct {
	ComplianceScore     int    `json:"complianceScore"`
	SelectedPerspective string `json:"selectedPerspective,omitempty"`
	ReviewTimeMinutes   int    `json:"reviewTimeMinutes,omitempty"`
	TimeSavingsMinutes  int    `json:"timeSavingsMinutes,omitempty"`
	ReviewDate          string `json:"reviewDate,omitempty"`
	ReportExpiry        string `json:"reportExpiry,omitempty"`
}

// ContractSummary describes the agreement at a glance
type ContractSummary struct {
	ContractName   string   `json:"contractName,omitempty"`
	ContractType   string   `json:"contractType,omitempty"`
	Parties        []string `json:"parties"`
	Purpose        string   `json:"purpose,omitempty"`
	KeyObligations []string `json:"keyObligations"`
	Term           string   `json:"term,omitempty"`
}

// Issue is a finding the reviewer needs to resolve
type Issue struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	Severity         string   `json:"severity"`
	Category         string   `json:"category,omitempty"`
	ClauseReferences []string `json:"clauseReferences"`
	Recommendation   string   `json:"recommendation,omitempty"`
}

// Criterion is a review criterion and whether it was met
type Criterion struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Evidence    string `json:"evidence,omitempty"`
}

// ClauseFinding is a per-clause assessment
type ClauseFinding struct {
	ID             string `json:"id"`
	ClauseID       string `json:"clauseId,omitempty"`
	Title          string `json:"title"`
	Summary        string `json:"summary,omitempty"`
	RiskLevel      string `json:"riskLevel"`
	Category       string `json:"category,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

// PreviewHTML holds pre-rendered before/after/diff fragments
type PreviewHTML struct {
	Previous string `json:"previous,omitempty"`
	Updated  string `json:"updated,omitempty"`
	Diff     string `json:"diff,omitempty"`
}

// ProposedEdit is a clause rewrite issued in a report
type ProposedEdit struct {
	ID             string       `json:"id"`
	ClauseID       string       `json:"clauseId,omitempty"`
	ClauseTitle    string       `json:"clauseTitle,omitempty"`
	AnchorText     string       `json:"anchorText,omitempty"`
	ProposedText   string       `json:"proposedText,omitempty"`
	Intent         string       `json:"intent,omitempty"`
	Rationale      string       `json:"rationale,omitempty"`
	ApplyByDefault bool         `json:"applyByDefault"`
	PreviousText   string       `json:"previousText,omitempty"`
	UpdatedText    string       `json:"updatedText,omitempty"`
	PreviewHTML    *PreviewHTML `json:"previewHtml,omitempty"`
}

// HasText reports whether the edit carries any before or after text
func (e ProposedEdit) HasText() bool {
	return e.AnchorText != "" || e.ProposedText != "" || e.PreviousText != "" || e.UpdatedText != ""
}

// PlaybookInsight relates findings to the organisation's playbook
type PlaybookInsight struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Summary        string `json:"summary,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
	Severity       string `json:"severity,omitempty"`
}

// SimilarityEntry compares the contract against a reference corpus
type SimilarityEntry struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
	Summary string  `json:"summary,omitempty"`
}

// DeviationInsight flags a departure from the expected position
type DeviationInsight struct {
	ID             string `json:"id"`
	ClauseID       string `json:"clauseId,omitempty"`
	Title          string `json:"title"`
	Expected       string `json:"expected,omitempty"`
	Observed       string `json:"observed,omitempty"`
	Severity       string `json:"severity"`
	Recommendation string `json:"recommendation,omitempty"`
}

// ActionItem is a structured follow-up task
type ActionItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority"`
	Owner       string `json:"owner,omitempty"`
	Department  string `json:"department,omitempty"`
	DueTimeline string `json:"dueTimeline,omitempty"`
	Category    string `json:"category,omitempty"`
	NextStep    string `json:"nextStep,omitempty"`
	ClauseID    string `json:"clauseId,omitempty"`
}

// DraftMetadata describes the state of the generated draft
type DraftMetadata struct {
	DraftAvailable    bool     `json:"draftAvailable"`
	ProposedEditCount int      `json:"proposedEditCount"`
	DefaultEditIDs    []string `json:"defaultEditIds"`
	BaseVersion       string   `json:"baseVersion,omitempty"`
	Notes             string   `json:"notes,omitempty"`
}

// ReportMetadata records provenance of the report
type ReportMetadata struct {
	GeneratedAt    string  `json:"generatedAt"`
	Source         string  `json:"source"`
	Model          string  `json:"model,omitempty"`
	SchemaVersion  string  `json:"schemaVersion"`
	ContractType   string  `json:"contractType,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	FallbackUsed   bool    `json:"fallbackUsed"`
	FallbackReason string  `json:"fallbackReason,omitempty"`
}

// Value implements driver.Valuer for JSONB
func (r AnalysisReport) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB
func (r *AnalysisReport) Scan(value interface{}) error {
	_, err := scanJSONB(value, r)
	return err
}
