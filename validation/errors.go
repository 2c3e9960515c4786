package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidReport matches every validation failure via errors.Is
var ErrInvalidReport = errors.New("invalid analysis report")

// Issue is one structural problem, addressed by a JSON-style path
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError lists every issue found in a report
type ValidationError struct {
	Issues []Issue `json:"issues"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for i, issue := range e.Issues {
		if i == 5 {
			parts = append(parts, fmt.Sprintf("and %d more", len(e.Issues)-5))
			break
		}
		if issue.Path == "" {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return ErrInvalidReport.Error() + ": " + strings.Join(parts, "; ")
}

// Is reports whether target is ErrInvalidReport
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidReport
}
