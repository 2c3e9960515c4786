package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReviewStatus represents the status of a contract review
type ReviewStatus string

const (
	ReviewStatusPending    ReviewStatus = "pending"
	ReviewStatusProcessing ReviewStatus = "processing"
	ReviewStatusCompleted  ReviewStatus = "completed"
	ReviewStatusFailed     ReviewStatus = "failed"
)

// Review types accepted by the analysis pipeline.
// Any other value is analysed with the summary-style defaults.
const (
	ReviewTypeCompliance    = "compliance_score"
	ReviewTypeRisk          = "risk_assessment"
	ReviewTypePerspective   = "perspective_review"
	ReviewTypeFullSummary   = "full_summary"
	ReviewTypeAIIntegration = "ai_integration"
)

// Decisions is the persisted list of normalized decisions for a review
type Decisions []NormalizedDecision

// Value implements driver.Valuer for JSONB
func (d Decisions) Value() (driver.Value, error) {
	if d == nil {
		return json.Marshal([]NormalizedDecision{})
	}
	return json.Marshal([]NormalizedDecision(d))
}

// Scan implements sql.Scanner for JSONB
func (d *Decisions) Scan(value interface{}) error {
	ok, err := scanJSONB(value, d)
	if !ok && err == nil {
		*d = make(Decisions, 0)
	}
	return err
}

// Review represents a contract review entity
type Review struct {
	ID             uuid.UUID    `json:"id"`
	ContractFileID *uuid.UUID   `json:"contract_file_id,omitempty"`
	Title          string       `json:"title"`
	Status         ReviewStatus `json:"status"`
	ReviewType     string       `json:"review_type"`
	ContractType   string       `json:"contract_type"`
	SolutionKey    string       `json:"solution_key,omitempty"`
	SolutionTitle  string       `json:"solution_title,omitempty"`

	// Content is the plain contract text the analysis ran against
	Content     string `json:"content,omitempty"`
	ContentHash string `json:"content_hash"`

	Score          *int      `json:"score,omitempty"`
	FallbackUsed   bool      `json:"fallback_used"`
	FallbackReason *string   `json:"fallback_reason,omitempty"`
	Analysis       *Analysis `json:"analysis,omitempty"`
	Decisions      Decisions `json:"decisions"`

	DraftPath *string `json:"draft_path,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
