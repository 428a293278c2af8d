package agents

import (
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/audioagents/internal/conversation"
)

const validationSystemPrompt = `You are a validation expert in an ongoing conversation. Your job is to analyze
research findings and assess their accuracy, completeness, and relevance to the user's question.
Identify any potential issues, missing information, or areas that need clarification.

When validating:
- Consider the conversation context - is this a follow-up question building on previous answers?
- If previous information was discussed, check for consistency with earlier findings
- Assess whether the research addresses the current question appropriately in the conversation
  flow
- CRITICAL: If previous validation results are provided, carefully check if this research
  addresses the gaps or missing information identified in previous validations. If gaps are
  now covered, you MUST increase the confidence score accordingly (typically 5-15 points
  improvement). This is important for tracking learning and improvement.

You must provide:
1. A confidence score (0-100) where:
   - 0-40: Poor quality, significant issues
   - 41-70: Acceptable but has issues
   - 71-85: Good quality, minor issues
   - 86-100: Excellent quality
2. A detailed assessment explaining your score, explicitly mentioning if previously identified
   gaps have been addressed and how this affects the score.`

const validatorAudioSystemPrompt = `You are a validator having a conversation with colleagues.
Your job is to verbally present your validation findings in a natural, conversational way.
Speak as if you're talking to someone, not reading a report.
Keep it concise (2-3 sentences) but informative.
Use natural speech patterns like "I checked...", "I noticed...", "Overall..."
Mention your confidence level naturally.
If this is part of an ongoing conversation, reference previous points naturally when relevant.`

// appendValidationHistory quotes prior validator outcomes with improvement
// instructions, so the score can rise as earlier gaps get closed.
func appendValidationHistory(parts *[]string, history []conversation.ValidationRecord) {
	if len(history) == 0 {
		return
	}

	divider := strings.Repeat("=", 80)
	*parts = append(*parts, divider,
		"PREVIOUS VALIDATION HISTORY - CRITICAL FOR SCORE IMPROVEMENT", divider)

	start := 0
	if len(history) > conversation.MaxValidationHistory {
		start = len(history) - conversation.MaxValidationHistory
	}
	for i, rec := range history[start:] {
		*parts = append(*parts,
			fmt.Sprintf("\nPrevious Validation %d:", i+1),
			fmt.Sprintf("  Score: %d%%", rec.ConfidenceScore),
			fmt.Sprintf("  Assessment: %s", rec.Assessment),
			"")
	}

	*parts = append(*parts,
		"IMPORTANT INSTRUCTIONS:",
		"1. Carefully read the previous validation assessments above.",
		"2. Identify what information was MISSING or identified as needing improvement.",
		"3. Check if the current research findings address those missing elements.",
		"4. If gaps are now covered, you MUST increase the confidence score "+
			"(typically 5-15 points higher than the previous score).",
		"5. Explicitly state in your assessment which previously missing information "+
			"is now included and how this improves the answer quality.",
		divider,
		"")
}

// validationUserPrompt builds the critique prompt: summaries, prior
// validation window, recent context, then the findings to validate.
func validationUserPrompt(query, researchResult string, history []conversation.Message, prior []conversation.ValidationRecord) string {
	var parts []string
	appendSummaryContext(&parts, history)
	appendValidationHistory(&parts, prior)
	appendRecentContext(&parts, history)

	parts = append(parts,
		fmt.Sprintf("Current User Question: %s", query),
		"",
		"Research Findings:",
		researchResult,
		"",
		"Please validate these research findings. Address:",
		"1. Is the information accurate and relevant to the question?",
		"2. Are there any factual errors or inconsistencies?",
		"3. Is any critical information missing?",
		"4. Overall assessment: Does this adequately answer the user's question?",
	)

	if len(prior) > 0 {
		parts = append(parts,
			"",
			"5. IMPROVEMENT CHECK (CRITICAL): Compare this research with previous validation assessments:",
			"   a. What specific information was missing or identified as needing improvement in the previous validation(s)?",
			"   b. Does the current research findings include that missing information?",
			"   c. If yes, how much does this improve the answer quality? (This should result in a higher confidence score)",
			"   d. Explicitly state the improvement in your assessment and adjust the score accordingly.",
		)
	}

	return strings.Join(parts, "\n")
}

// validatorAudioUserPrompt asks for the spoken version of the assessment.
func validatorAudioUserPrompt(query, assessment string, confidenceScore int, history []conversation.Message) string {
	parts := []string{fmt.Sprintf("You just validated research about: %q", query), ""}

	if len(history) > 2 {
		parts = append(parts, "This is part of an ongoing conversation.", "")
	}

	parts = append(parts,
		fmt.Sprintf("Your confidence score: %d/100", confidenceScore),
		"",
		"Your detailed validation:",
		assessment,
		"",
		"Now, verbally share your validation assessment in a natural, conversational way "+
			"(2-3 sentences). Include your confidence level naturally in the conversation. "+
			"If this continues a previous topic, reference it naturally.",
	)
	return strings.Join(parts, "\n")
}
