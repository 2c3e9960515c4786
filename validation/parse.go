package validation

import (
	"bytes"
	"encoding/json"
	"errors"

	"contractreview-backend/models"
)

// ErrNoJSON is returned when raw model output holds no JSON object
var ErrNoJSON = errors.New("no JSON object found")

// ExtractJSON pulls the outermost JSON object out of model output that may
// be wrapped in markdown fences or surrounded by prose.
func ExtractJSON(raw []byte) ([]byte, error) {
	s := bytes.TrimSpace(raw)
	if bytes.HasPrefix(s, []byte("```")) {
		if nl := bytes.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = bytes.TrimSuffix(bytes.TrimSpace(s), []byte("```"))
	}

	start := bytes.IndexByte(s, '{')
	end := bytes.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return nil, ErrNoJSON
	}
	return s[start : end+1], nil
}

// ParseAnalysisReport decodes and validates a report from raw model output.
// The report may be the whole object or nested under "structured_report".
func ParseAnalysisReport(raw []byte) (*models.AnalysisReport, error) {
	data, err := ExtractJSON(raw)
	if err != nil {
		return nil, &ValidationError{Issues: []Issue{{Message: err.Error()}}}
	}

	var envelope struct {
		Snake json.RawMessage `json:"structured_report"`
		Camel json.RawMessage `json:"structuredReport"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil {
		switch {
		case isObject(envelope.Snake):
			data = envelope.Snake
		case isObject(envelope.Camel):
			data = envelope.Camel
		}
	}

	var report models.AnalysisReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, &ValidationError{Issues: []Issue{{Message: "malformed report JSON: " + err.Error()}}}
	}
	return ValidateAnalysisReport(&report)
}

func isObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}
