package decisions

import (
	"cmp"
	"slices"
	"strings"

	"contractreview-backend/models"

	"github.com/samber/lo"
)

// signature is the case-insensitive (description, owner) key
func signature(d models.NormalizedDecision) string {
	return strings.ToLower(strings.TrimSpace(d.Description)) + "\x00" + strings.ToLower(strings.TrimSpace(d.Owner))
}

func editKey(d models.NormalizedDecision) string {
	if d.ProposedEdit == nil || d.ProposedEdit.ID == "" {
		return ""
	}
	return strings.ToLower(d.ProposedEdit.ID)
}

// groups assigns every decision to a duplicate group. Decisions sharing a
// proposed-edit id or a signature land in the same group. The group's winner
// is the first member carrying a proposed edit, else its first member.
// Groups are returned in first-seen order.
func groups(ds []models.NormalizedDecision) (winners []int, groupOf []int) {
	byEdit := make(map[string]int)
	bySignature := make(map[string]int)
	groupOf = make([]int, len(ds))

	for i, d := range ds {
		edit, sig := editKey(d), signature(d)

		g, found := -1, false
		if edit != "" {
			g, found = byEdit[edit]
		}
		if !found {
			g, found = bySignature[sig]
		}
		if !found {
			g = len(winners)
			winners = append(winners, i)
		} else if ds[winners[g]].ProposedEdit == nil && d.ProposedEdit != nil {
			winners[g] = i
		}

		groupOf[i] = g
		if edit != "" {
			if _, taken := byEdit[edit]; !taken {
				byEdit[edit] = g
			}
		}
		if _, taken := bySignature[sig]; !taken {
			bySignature[sig] = g
		}
	}
	return winners, groupOf
}

// Deduplicate collapses duplicate decisions, keeping the one that carries a
// proposed edit. It repeats until nothing collapses, so running it on its
// own output is a no-op.
func Deduplicate(ds []models.NormalizedDecision) []models.NormalizedDecision {
	out := ds
	for {
		winners, _ := groups(out)
		if len(winners) == len(out) {
			return slices.Clone(out)
		}
		current := out
		out = lo.Map(winners, func(i int, _ int) models.NormalizedDecision { return current[i] })
	}
}

// MarkDuplicates returns a copy of ds where every losing duplicate has
// DuplicateOf set to the id of the decision that supersedes it.
func MarkDuplicates(ds []models.NormalizedDecision) []models.NormalizedDecision {
	winners, groupOf := groups(ds)

	out := slices.Clone(ds)
	for i := range out {
		w := winners[groupOf[i]]
		if w == i {
			out[i].DuplicateOf = nil
			continue
		}
		id := ds[w].ID
		out[i].DuplicateOf = &id
	}
	return out
}

// Sort orders decisions by severity rank, then description, then id.
// The sort is stable and idempotent.
func Sort(ds []models.NormalizedDecision) {
	slices.SortStableFunc(ds, func(a, b models.NormalizedDecision) int {
		if c := cmp.Compare(a.Severity.Rank(), b.Severity.Rank()); c != 0 {
			return c
		}
		if c := strings.Compare(a.Description, b.Description); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
