package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"critical", SeverityCritical},
		{" HIGH ", SeverityHigh},
		{"Medium", SeverityMedium},
		{"low", SeverityLow},
		{"default", SeverityDefault},
		{"urgent", SeverityCritical},
		{"moderate", SeverityMedium},
		{"whenever", SeverityDefault},
		{"", SeverityDefault},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSeverity(tt.in))
		})
	}
}

func TestSeverityRankOrder(t *testing.T) {
	ordered := []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityDefault}
	for i, s := range ordered {
		assert.Equal(t, i, s.Rank())
	}
	assert.Equal(t, 4, Severity("bogus").Rank())
}

func TestProposedEditPreviewBeforeAfter(t *testing.T) {
	p := &ProposedEditPreview{AnchorText: "a", ProposedText: "b"}
	assert.Equal(t, "a", p.Before())
	assert.Equal(t, "b", p.After())

	p.PreviousText, p.UpdatedText = "prev", "next"
	assert.Equal(t, "prev", p.Before())
	assert.Equal(t, "next", p.After())
}

func TestAnalysisStepsScan(t *testing.T) {
	var steps AnalysisSteps
	require.NoError(t, steps.Scan(nil))
	assert.NotNil(t, steps)
	assert.Empty(t, steps)

	require.NoError(t, steps.Scan([]byte(`[{"name":"Extracting Clauses","status":"completed"}]`)))
	require.Len(t, steps, 1)
	assert.Equal(t, StepCompleted, steps[0].Status)

	var decisions Decisions
	require.NoError(t, decisions.Scan(`[{"id":"rec-1","description":"x","severity":"high","source":"recommendation","duplicateOf":null}]`))
	require.Len(t, decisions, 1)
	assert.Equal(t, SeverityHigh, decisions[0].Severity)
}
