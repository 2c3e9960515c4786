package fallback

import (
	"fmt"
	"slices"

	"contractreview-backend/models"

	"github.com/samber/lo"
)

// item is a recommendation or action item before it is flattened into the
// legacy and structured shapes.
type item struct {
	title       string
	description string
	severity    string
	department  string
	owner       string
	due         string
	category    string
	nextStep    string
	clauseID    string
	clauseTitle string
}

const maxBaseRecommendations = 3

var dueBySeverity = map[string]string{
	"critical": "1 business day",
	"high":     "3 business days",
	"medium":   "10 business days",
	"low":      "30 days",
}

func recommendationFor(c check) item {
	it := item{
		department: c.department,
		owner:      c.owner,
		category:   c.category,
	}
	label := lowerFirst(c.label)
	switch c.state {
	case statePresent:
		it.title = c.label + " review"
		it.description = fmt.Sprintf("Confirm the %s terms in %s match the approved playbook position", label, c.where())
		it.severity = "medium"
		it.nextStep = "Compare the clause against the playbook standard and record any deviation"
		if c.clause != nil {
			it.clauseID = c.clause.ClauseID
			it.clauseTitle = c.clause.Title
		}
	case stateMissing:
		it.title = "Missing " + label
		it.description = fmt.Sprintf("Add a %s clause; none was found in the contract text", label)
		it.severity = c.missingSeverity
		it.nextStep = "Propose the standard playbook clause to the counterparty"
	default:
		it.title = "Verify " + label
		it.description = fmt.Sprintf("Verify the %s terms once the full contract text is available", label)
		it.severity = "medium"
		it.nextStep = "Upload the complete contract and re-run the analysis"
	}
	it.due = dueBySeverity[it.severity]
	return it
}

// recommendations lists missing protections first, then present ones, then
// unverified ones, and adds the solution playbook's top priority when a
// playbook matched.
func recommendations(p profile) []item {
	ordered := make([]check, 0, len(p.checks))
	for _, state := range []checkState{stateMissing, statePresent, stateUnverified} {
		ordered = append(ordered, lo.Filter(p.checks, func(c check, _ int) bool { return c.state == state })...)
	}
	if len(ordered) > maxBaseRecommendations {
		ordered = ordered[:maxBaseRecommendations]
	}
	recs := lo.Map(ordered, func(c check, _ int) item { return recommendationFor(c) })

	if p.solution != nil && len(p.solution.Priorities) > 0 {
		recs = append(recs, item{
			title:       p.solution.Title + " priority",
			description: p.solution.Priorities[0],
			severity:    "medium",
			department:  "compliance",
			owner:       "Compliance Lead",
			due:         dueBySeverity["medium"],
			category:    "solution_alignment",
			nextStep:    "Check the contract against the " + p.solution.Title + " playbook controls",
		})
	}
	return recs
}

// actionItems always routes to legal and finance; a third item asks for the
// contract text, or escalates when several protections are missing.
func actionItems(p profile, recs []item) []item {
	legalSeverity := "high"
	if lo.ContainsBy(recs, func(r item) bool { return r.severity == "critical" }) {
		legalSeverity = "critical"
	}
	items := []item{
		{
			title:       "Legal review of flagged clauses",
			description: "Route the contract to legal for clause-level validation of the flagged terms",
			severity:    legalSeverity,
			department:  "legal",
			owner:       "Legal Counsel",
			due:         dueBySeverity[legalSeverity],
			category:    "review",
			nextStep:    "Assign a reviewer and schedule the clause walkthrough",
		},
		{
			title:       "Confirm commercial terms",
			description: "Confirm payment terms, fees and renewal mechanics with the business owner",
			severity:    "medium",
			department:  "finance",
			owner:       "Finance Lead",
			due:         dueBySeverity["medium"],
			category:    "payment",
			nextStep:    "Reconcile the pricing schedule with the approved quote",
		},
	}
	if c, ok := lo.Find(p.checks, func(c check) bool { return c.category == "payment" && c.clause != nil }); ok {
		items[1].clauseID = c.clause.ClauseID
		items[1].clauseTitle = c.clause.Title
	}

	switch {
	case !p.hasContent:
		items = append(items, item{
			title:       "Provide the full contract",
			description: "Upload the complete contract text so clause extraction and AI analysis can run",
			severity:    "high",
			department:  "operations",
			owner:       "Contract Owner",
			due:         dueBySeverity["high"],
			category:    "intake",
			nextStep:    "Attach the signed or latest draft version to the review",
		})
	case countState(p.checks, stateMissing) >= 2:
		items = append(items, item{
			title:       "Escalate missing protections",
			description: fmt.Sprintf("Escalate the %d missing standard protections before negotiation continues", countState(p.checks, stateMissing)),
			severity:    "high",
			department:  "executive",
			owner:       "General Counsel",
			due:         dueBySeverity["high"],
			category:    "escalation",
			nextStep:    "Agree a negotiation position for each missing clause",
		})
	}
	return items
}

var baseScores = map[string]int{
	models.ReviewTypeCompliance:  60,
	models.ReviewTypeRisk:        56,
	models.ReviewTypePerspective: 62,
}

const defaultBaseScore = 64

// scoreFor is rule based: present protections raise the score, missing ones
// lower it. Without content only the base applies.
func scoreFor(p profile) int {
	base, ok := baseScores[p.reviewType]
	if !ok {
		base = defaultBaseScore
	}
	if !p.hasContent {
		return base
	}
	score := base + 4*countState(p.checks, statePresent) - 3*countState(p.checks, stateMissing)
	return max(0, min(100, score))
}

func findings(items []item, prefix string) []models.Finding {
	return lo.Map(items, func(it item, i int) models.Finding {
		return models.Finding{
			ID:          fmt.Sprintf("%s-%d", prefix, i+1),
			Description: it.description,
			Severity:    it.severity,
			Department:  it.department,
			Owner:       it.owner,
			DueTimeline: it.due,
			Category:    it.category,
			NextStep:    it.nextStep,
			ClauseID:    it.clauseID,
		}
	})
}

// bySeverity returns a copy of items ordered by severity rank
func bySeverity(items []item) []item {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b item) int {
		return models.ParseSeverity(a.severity).Rank() - models.ParseSeverity(b.severity).Rank()
	})
	return out
}
