package validation

import (
	"regexp"
	"strings"
)

type enum struct {
	name     string
	values   []string
	aliases  map[string]string
	fallback string
}

var enumSeparator = regexp.MustCompile(`[\s-]+`)

func canonical(s string) string {
	return enumSeparator.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "_")
}

// coerce maps value onto the enum. Empty values take the fallback, known
// aliases are rewritten, anything else is reported.
func (e enum) coerce(v *validator, path, value string) string {
	s := canonical(value)
	if s == "" {
		return e.fallback
	}
	for _, allowed := range e.values {
		if s == allowed {
			return s
		}
	}
	if alias, ok := e.aliases[s]; ok {
		return alias
	}
	v.addf(path, "unsupported %s %q (allowed: %s)", e.name, value, strings.Join(e.values, ", "))
	return value
}

var (
	severityEnum = enum{
		name:   "severity",
		values: []string{"critical", "high", "medium", "low"},
		aliases: map[string]string{
			"urgent": "critical", "severe": "critical", "blocker": "critical",
			"major": "high", "moderate": "medium", "normal": "medium", "default": "medium",
			"minor": "low", "info": "low", "informational": "low",
		},
		fallback: "medium",
	}

	riskLevelEnum = enum{
		name:   "risk level",
		values: []string{"critical", "high", "medium", "low", "info"},
		aliases: map[string]string{
			"urgent": "critical", "severe": "critical",
			"major": "high", "moderate": "medium", "default": "medium",
			"minor": "low", "informational": "info", "none": "info",
		},
		fallback: "medium",
	}

	priorityEnum = enum{
		name:   "priority",
		values: []string{"urgent", "high", "medium", "low"},
		aliases: map[string]string{
			"critical": "urgent", "severe": "urgent", "immediate": "urgent",
			"major": "high", "moderate": "medium", "normal": "medium", "default": "medium",
			"minor": "low",
		},
		fallback: "medium",
	}

	criterionStatusEnum = enum{
		name:   "criterion status",
		values: []string{"met", "partial", "not_met", "pending"},
		aliases: map[string]string{
			"complete": "met", "completed": "met", "satisfied": "met", "pass": "met", "passed": "met", "yes": "met", "true": "met",
			"partially_met": "partial", "partially": "partial",
			"unmet": "not_met", "missing": "not_met", "failed": "not_met", "fail": "not_met", "no": "not_met", "false": "not_met",
			"in_progress": "pending", "todo": "pending", "review": "pending", "unknown": "pending",
		},
		fallback: "pending",
	}

	importanceEnum = enum{
		name:     "importance",
		values:   []string{"high", "medium", "low"},
		aliases:  map[string]string{"critical": "high", "moderate": "medium", "minor": "low"},
		fallback: "low",
	}

	similaritySourceEnum = enum{
		name:   "similarity source",
		values: []string{"baseline", "historical", "ai"},
		aliases: map[string]string{
			"template": "baseline", "reference": "baseline", "standard": "baseline",
			"history": "historical", "previous": "historical",
			"model": "ai", "llm": "ai",
		},
		fallback: "ai",
	}

	reportSourceEnum = enum{
		name:     "report source",
		values:   []string{"ai", "fallback", "hybrid"},
		aliases:  map[string]string{"live": "ai", "llm": "ai", "model": "ai", "deterministic": "fallback"},
		fallback: "ai",
	}
)
