package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxPartyLength = 120

var (
	betweenPattern = regexp.MustCompile(`(?i)\bbetween\s+([^\n]+?)\s+and\s+([^\n]+?)(?:[.,;(\n]|$)`)
	leadingArticle = regexp.MustCompile(`(?i)^the\s+`)
)

// ExtractParties finds the two parties of a "between X and Y" recital.
// It returns nil when the pattern does not occur.
func ExtractParties(content string) []string {
	m := betweenPattern.FindStringSubmatch(content)
	if m == nil {
		return nil
	}

	parties := make([]string, 0, 2)
	for _, raw := range m[1:] {
		if party := cleanParty(raw); party != "" {
			parties = append(parties, party)
		}
	}
	if len(parties) == 0 {
		return nil
	}
	return parties
}

func cleanParty(s string) string {
	s = strings.TrimSpace(s)
	s = leadingArticle.ReplaceAllString(s, "")
	s = strings.Trim(s, ` "'“”,;:`)
	if utf8.RuneCountInString(s) > maxPartyLength {
		s = string([]rune(s)[:maxPartyLength])
	}
	return strings.TrimSpace(s)
}
