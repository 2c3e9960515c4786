package extraction

import (
	"regexp"

	"contractreview-backend/models"
)

var (
	highImportance   = regexp.MustCompile(`(?i)\b(liability|liable|indemnity|indemnif\w*|termination|terminate|governing\s+law|jurisdiction|confidential\w*)\b`)
	mediumImportance = regexp.MustCompile(`(?i)\b(payments?|fees?|invoices?|obligations?|audits?)\b`)
)

type category struct {
	name    string
	pattern *regexp.Regexp
}

// Checked in order; the first match wins.
var categories = []category{
	{"liability", regexp.MustCompile(`(?i)\b(limitation\s+of\s+liability|liability|liable)\b`)},
	{"indemnification", regexp.MustCompile(`(?i)\b(indemnity|indemnif\w*)\b`)},
	{"termination", regexp.MustCompile(`(?i)\b(termination|terminate)\b`)},
	{"confidentiality", regexp.MustCompile(`(?i)\b(confidential\w*|non-disclosure)\b`)},
	{"data_protection", regexp.MustCompile(`(?i)\b(personal\s+data|data\s+protection|gdpr|privacy|processor|sub-?processors?)\b`)},
	{"governing_law", regexp.MustCompile(`(?i)\b(governing\s+law|jurisdiction|venue)\b`)},
	{"payment", regexp.MustCompile(`(?i)\b(payments?|fees?|invoices?|pricing)\b`)},
	{"intellectual_property", regexp.MustCompile(`(?i)\b(intellectual\s+property|licen[cs]e[sd]?|copyright|patents?)\b`)},
	{"warranties", regexp.MustCompile(`(?i)\b(warrant(y|ies)|represents?\s+and\s+warrants?)\b`)},
	{"audit", regexp.MustCompile(`(?i)\b(audits?|inspection)\b`)},
	{"term", regexp.MustCompile(`(?i)\b(term|renewal|effective\s+date)\b`)},
}

// Importance infers the importance tier of clause text from keywords
func Importance(text string) string {
	switch {
	case highImportance.MatchString(text):
		return models.ImportanceHigh
	case mediumImportance.MatchString(text):
		return models.ImportanceMedium
	default:
		return models.ImportanceLow
	}
}

// Categorize returns the first matching category tag, or "" when none applies
func Categorize(text string) string {
	for _, c := range categories {
		if c.pattern.MatchString(text) {
			return c.name
		}
	}
	return ""
}

// Categories returns every matching category tag, in check order
func Categories(text string) []string {
	var out []string
	for _, c := range categories {
		if c.pattern.MatchString(text) {
			out = append(out, c.name)
		}
	}
	return out
}
