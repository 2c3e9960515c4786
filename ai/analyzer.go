// Package ai runs the live contract analysis against a generative model.
// Callers hold an injected Analyzer; there is no package-level client.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	"contractreview-backend/decisions"
	"contractreview-backend/validation"

	"github.com/rotisserie/eris"
)

var (
	ErrClientNotSet     = errors.New("gemini client not set")
	ErrContentRequired  = errors.New("contract content is required")
	ErrEmptyResponse    = errors.New("empty response from model")
	ErrMalformedOutput  = errors.New("malformed model output")
	ErrGenerationFailed = errors.New("failed to generate analysis")
)

// Request is one analysis call
type Request struct {
	ReviewType    string
	ContractType  string
	Content       string
	SolutionKey   string
	SolutionTitle string
}

// Output is the model's answer before validation. Report holds the raw JSON
// object the structured report is parsed from.
type Output struct {
	Score           *int
	Recommendations []decisions.RawRecord
	ActionItems     []decisions.RawRecord
	LegacyEdits     []decisions.RawRecord
	Report          json.RawMessage
	Model           string
}

// Analyzer produces an analysis for a contract
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Output, error)
}

// ParseOutput decodes raw model text into an Output. The legacy lists are
// optional; a missing or malformed list is left empty.
func ParseOutput(raw []byte, model string) (*Output, error) {
	data, err := validation.ExtractJSON(raw)
	if err != nil {
		return nil, eris.Wrap(ErrMalformedOutput, err.Error())
	}

	var env struct {
		Score            *float64        `json:"score"`
		Recommendations  json.RawMessage `json:"recommendations"`
		ActionItems      json.RawMessage `json:"action_items"`
		ActionItemsCamel json.RawMessage `json:"actionItems"`
		ProposedEdits    json.RawMessage `json:"proposed_edits"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, eris.Wrap(ErrMalformedOutput, err.Error())
	}

	out := &Output{
		Recommendations: decisions.ParseRecords(env.Recommendations),
		ActionItems:     decisions.ParseRecords(env.ActionItems),
		LegacyEdits:     decisions.ParseRecords(env.ProposedEdits),
		Report:          data,
		Model:           model,
	}
	if len(out.ActionItems) == 0 {
		out.ActionItems = decisions.ParseRecords(env.ActionItemsCamel)
	}
	if env.Score != nil {
		score := int(math.Round(*env.Score))
		out.Score = &score
	}
	return out, nil
}
