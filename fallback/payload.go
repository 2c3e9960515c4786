package fallback

import (
	"fmt"
	"strings"

	"contractreview-backend/models"

	"github.com/samber/lo"
)

// applyPayload fills the review-type specific legacy fields
func applyPayload(a *models.Analysis, p profile) {
	switch p.reviewType {
	case models.ReviewTypeCompliance:
		a.ComplianceAreas = complianceAreas(p.checks)
		a.Violations = violations(p.checks)
	case models.ReviewTypeRisk:
		a.Risks = risks(p)
	case models.ReviewTypePerspective:
		a.Perspectives = perspectives(p.checks)
	default:
		a.Summary = summary(p)
		a.KeyPoints = keyPoints(p.checks)
		a.CriticalClauses = p.critical
	}
}

var areaScores = map[checkState]int{
	statePresent:    85,
	stateMissing:    40,
	stateUnverified: 60,
}

var areaStatuses = map[checkState]string{
	statePresent:    "compliant",
	stateMissing:    "non_compliant",
	stateUnverified: "not_assessed",
}

func complianceAreas(checks []check) []models.ComplianceArea {
	return lo.Map(checks, func(c check, _ int) models.ComplianceArea {
		notes := fmt.Sprintf("%s is %s.", c.label, c.state)
		if c.state == statePresent {
			notes = fmt.Sprintf("%s found in %s.", c.label, c.where())
		}
		return models.ComplianceArea{
			Area:   c.label,
			Status: areaStatuses[c.state],
			Score:  areaScores[c.state],
			Notes:  notes,
		}
	})
}

func violations(checks []check) []models.Violation {
	out := make([]models.Violation, 0)
	for _, c := range checks {
		if c.state != stateMissing {
			continue
		}
		out = append(out, models.Violation{
			ID:          fmt.Sprintf("violation-%d", len(out)+1),
			Area:        c.label,
			Description: fmt.Sprintf("No %s clause was found in the contract text.", lowerFirst(c.label)),
			Severity:    c.missingSeverity,
		})
	}
	return out
}

const maxClauseRisks = 3

// risks covers missing protections and high importance clauses. The list is
// never empty.
func risks(p profile) []models.Risk {
	out := make([]models.Risk, 0)
	add := func(r models.Risk) {
		r.ID = fmt.Sprintf("risk-%d", len(out)+1)
		out = append(out, r)
	}

	for _, c := range p.checks {
		if c.state != stateMissing {
			continue
		}
		add(models.Risk{
			Title:       "Missing " + lowerFirst(c.label),
			Description: fmt.Sprintf("The contract does not appear to address %s.", lowerFirst(c.label)),
			Level:       c.missingSeverity,
			Likelihood:  "medium",
			Impact:      lo.Ternary(c.missingSeverity == "medium", "medium", "high"),
			Mitigation:  "Insert the standard clause: " + c.standard,
		})
	}

	high := lo.Filter(p.critical, func(cc models.CriticalClause, _ int) bool {
		return cc.Importance == models.ImportanceHigh
	})
	for _, cc := range lo.Slice(high, 0, maxClauseRisks) {
		add(models.Risk{
			Title:           cc.Title + " exposure",
			Description:     cc.Reason,
			Level:           "medium",
			Likelihood:      "low",
			Impact:          "high",
			Mitigation:      "Review the clause wording against the playbook standard.",
			ClauseReference: cc.ClauseID,
		})
	}

	if len(out) == 0 {
		add(models.Risk{
			Title:       "Unverified contractual exposure",
			Description: "Risk could not be assessed without clause-level analysis.",
			Level:       "medium",
			Likelihood:  "medium",
			Impact:      "medium",
			Mitigation:  "Obtain the full contract text and re-run the analysis.",
		})
	}
	return out
}

type stakeholder struct {
	name       string
	categories []string
}

var stakeholders = []stakeholder{
	{"Legal", []string{"liability", "governing_law"}},
	{"Finance", []string{"payment"}},
	{"Operations", []string{"termination"}},
	{"Compliance", []string{"confidentiality", "data_protection"}},
}

func perspectives(checks []check) []models.Perspective {
	return lo.Map(stakeholders, func(s stakeholder, _ int) models.Perspective {
		concerns := make([]string, 0)
		for _, c := range checks {
			if lo.Contains(s.categories, c.category) && c.state != statePresent {
				concerns = append(concerns, fmt.Sprintf("%s is %s", c.label, c.state))
			}
		}
		view := "Position is acceptable pending clause-level validation."
		if len(concerns) > 0 {
			view = "Requires changes before signature."
		}
		return models.Perspective{
			Stakeholder: s.name,
			View:        view,
			Concerns:    concerns,
			Score:       max(0, 85-15*len(concerns)),
		}
	})
}

func summary(p profile) string {
	if !p.hasContent {
		return "Fallback summary generated without contract text. Upload the full contract for a complete review."
	}
	parties := "the parties"
	if len(p.parties) > 0 {
		parties = strings.Join(p.parties, " and ")
	}
	return fmt.Sprintf("%s agreement between %s. %d clauses were extracted and %d of %d standard protections require attention.",
		humanize(p.contractType), parties, len(p.clauses),
		len(p.checks)-countState(p.checks, statePresent), len(p.checks))
}

func keyPoints(checks []check) []string {
	return lo.Map(checks, func(c check, _ int) string {
		if c.state == statePresent {
			return fmt.Sprintf("%s: present in %s", c.label, c.where())
		}
		return fmt.Sprintf("%s: %s", c.label, c.state)
	})
}

// humanize turns a normalized key into title case words
func humanize(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
