package fallback

import (
	"fmt"
	"slices"
	"strings"

	"contractreview-backend/extraction"
	"contractreview-backend/models"

	"github.com/samber/lo"
)

// protection is a clause every commercial contract is expected to carry
type protection struct {
	category        string
	label           string
	department      string
	owner           string
	missingSeverity string
	standard        string
}

var protections = []protection{
	{
		category:        "liability",
		label:           "Limitation of liability",
		department:      "legal",
		owner:           "Legal Counsel",
		missingSeverity: "critical",
		standard:        "Each party's aggregate liability under this Agreement shall not exceed the fees paid or payable in the twelve (12) months preceding the event giving rise to the claim.",
	},
	{
		category:        "termination",
		label:           "Termination rights",
		department:      "legal",
		owner:           "Legal Counsel",
		missingSeverity: "high",
		standard:        "Either party may terminate this Agreement for material breach that is not cured within thirty (30) days of written notice.",
	},
	{
		category:        "confidentiality",
		label:           "Confidentiality",
		department:      "legal",
		owner:           "Legal Counsel",
		missingSeverity: "high",
		standard:        "Each party shall protect the other party's Confidential Information with at least reasonable care and use it only to perform this Agreement.",
	},
	{
		category:        "data_protection",
		label:           "Data protection",
		department:      "privacy",
		owner:           "Privacy Officer",
		missingSeverity: "high",
		standard:        "Each party shall process personal data in accordance with applicable data protection laws and only on documented instructions.",
	},
	{
		category:        "governing_law",
		label:           "Governing law",
		department:      "legal",
		owner:           "Legal Counsel",
		missingSeverity: "medium",
		standard:        "This Agreement is governed by the laws of the jurisdiction named in the order form, whose courts have exclusive jurisdiction.",
	},
	{
		category:        "payment",
		label:           "Payment terms",
		department:      "finance",
		owner:           "Finance Lead",
		missingSeverity: "medium",
		standard:        "Invoices are payable within thirty (30) days of receipt. Disputed amounts must be notified in writing before the due date.",
	},
}

type checkState int

const (
	stateUnverified checkState = iota
	stateMissing
	statePresent
)

func (s checkState) String() string {
	switch s {
	case statePresent:
		return "present"
	case stateMissing:
		return "missing"
	default:
		return "not verified"
	}
}

type check struct {
	protection
	state  checkState
	clause *models.ClauseExtraction
}

func (c check) where() string {
	if c.clause == nil {
		return "the contract text"
	}
	if c.clause.Location != "" {
		return c.clause.Location
	}
	return c.clause.Title
}

// runChecks looks for each protection first among the extracted clauses,
// then anywhere in the text.
func runChecks(hasContent bool, clauses []models.ClauseExtraction, content string) []check {
	mentioned := extraction.Categories(content)
	checks := make([]check, 0, len(protections))
	for _, p := range protections {
		c := check{protection: p}
		switch {
		case !hasContent:
			c.state = stateUnverified
		default:
			if i := slices.IndexFunc(clauses, func(cl models.ClauseExtraction) bool { return cl.Category == p.category }); i >= 0 {
				c.state = statePresent
				c.clause = &clauses[i]
			} else if lo.Contains(mentioned, p.category) {
				c.state = statePresent
			} else {
				c.state = stateMissing
			}
		}
		checks = append(checks, c)
	}
	return checks
}

func countState(checks []check, state checkState) int {
	return lo.CountBy(checks, func(c check) bool { return c.state == state })
}

var importanceOrder = map[string]int{
	models.ImportanceHigh:   0,
	models.ImportanceMedium: 1,
}

const maxCriticalClauses = 5

// criticalClauses picks the high and medium importance clauses, high first
func criticalClauses(clauses []models.ClauseExtraction) []models.CriticalClause {
	picked := lo.Filter(clauses, func(c models.ClauseExtraction, _ int) bool {
		_, ok := importanceOrder[c.Importance]
		return ok
	})
	slices.SortStableFunc(picked, func(a, b models.ClauseExtraction) int {
		return importanceOrder[a.Importance] - importanceOrder[b.Importance]
	})
	if len(picked) > maxCriticalClauses {
		picked = picked[:maxCriticalClauses]
	}

	return lo.Map(picked, func(c models.ClauseExtraction, _ int) models.CriticalClause {
		return models.CriticalClause{
			ClauseID:   c.ClauseID,
			Title:      c.Title,
			Category:   c.Category,
			Importance: c.Importance,
			Excerpt:    c.OriginalText,
			Reason:     clauseReason(c),
			Source:     lo.CoalesceOrEmpty(c.SourceText, c.OriginalText),
		}
	})
}

func clauseReason(c models.ClauseExtraction) string {
	if p, ok := protectionFor(c.Category); ok {
		return fmt.Sprintf("%s terms allocate material risk and must match the playbook position.", p.label)
	}
	if c.Importance == models.ImportanceHigh {
		return "Contains high-risk keywords that require legal review."
	}
	return "Contains commercial obligations that require confirmation."
}

func protectionFor(category string) (protection, bool) {
	return lo.Find(protections, func(p protection) bool { return p.category == category })
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
