package ai

import (
	"fmt"
	"strings"
)

const maxPromptContent = 30000

const systemInstruction = `You are an experienced commercial contracts attorney reviewing a contract for a legal team.
Respond with a single JSON object and nothing else. The object has:
- "score": integer 0-100, overall contract health;
- "recommendations": array of {id, description, severity, department, owner, due_timeline, category, next_step, clause_id};
- "action_items": array with the same fields;
- "structured_report": object with reviewType, generalInformation {complianceScore, selectedPerspective, reviewDate, reportExpiry}, contractSummary {contractName, contractType, parties, purpose, keyObligations, term}, issuesToAddress, criteriaMet, clauseFindings, proposedEdits {id, clauseId, clauseTitle, anchorText, proposedText, intent, rationale, applyByDefault}, playbookInsights, clauseExtractions, similarityAnalysis, deviationInsights, actionItems, draftMetadata and metadata {generatedAt (RFC 3339), source "ai", schemaVersion, contractType, confidence 0-1}.
Severities are critical, high, medium or low. Action item priorities are urgent, high, medium or low.
Quote anchorText exactly as it appears in the contract.`

var reviewFocus = map[string]string{
	"compliance_score":   "Score regulatory and policy compliance. Name each compliance area and any violation.",
	"risk_assessment":    "Assess legal and commercial risk. Rate likelihood and impact and propose mitigations.",
	"perspective_review": "Review the contract from the legal, finance, operations and compliance perspectives.",
	"full_summary":       "Summarize the contract, its key points and its critical clauses.",
	"ai_integration":     "Summarize the contract with attention to AI, data use and automated processing terms.",
}

// buildPrompt renders the user prompt for req. Long contracts are cut to
// keep the request inside the model's context window.
func buildPrompt(req Request) string {
	focus, ok := reviewFocus[req.ReviewType]
	if !ok {
		focus = reviewFocus["full_summary"]
	}

	content := req.Content
	if len(content) > maxPromptContent {
		content = content[:maxPromptContent] + "\n\n[Content truncated due to length...]"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Review type: %s\n", req.ReviewType)
	if req.ContractType != "" {
		fmt.Fprintf(&b, "Contract type: %s\n", req.ContractType)
	}
	if req.SolutionKey != "" || req.SolutionTitle != "" {
		fmt.Fprintf(&b, "Solution: %s %s\n", req.SolutionKey, req.SolutionTitle)
	}
	fmt.Fprintf(&b, "Focus: %s\n\nCONTRACT:\n%s\n", focus, content)
	return b.String()
}
