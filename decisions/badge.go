package decisions

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Badge is the display label and colour tone of a department
type Badge struct {
	Label string `json:"label"`
	Tone  string `json:"tone"`
}

var departmentBadges = map[string]Badge{
	"legal":       {"Legal", "purple"},
	"compliance":  {"Compliance", "blue"},
	"privacy":     {"Privacy", "blue"},
	"security":    {"Security", "red"},
	"it":          {"IT", "red"},
	"finance":     {"Finance", "green"},
	"procurement": {"Procurement", "amber"},
	"operations":  {"Operations", "teal"},
	"business":    {"Business", "teal"},
	"executive":   {"Executive", "slate"},
	"management":  {"Management", "slate"},
}

// DepartmentBadge maps a free-form department tag to its badge
func DepartmentBadge(department string) Badge {
	key := strings.ToLower(strings.TrimSpace(department))
	if b, ok := departmentBadges[key]; ok {
		return b
	}
	if key == "" {
		return Badge{Label: "General", Tone: "gray"}
	}

	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(key))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return Badge{Label: strings.Join(words, " "), Tone: "gray"}
}
