package llm

import "strings"

// PromptBuilder renders the three prompt shapes the session loop needs: the
// initial request, a correction that embeds the failed attempt, and a fresh
// regeneration after a refusal.
type PromptBuilder struct {
	schema string
	rules  []string
}

// NewPromptBuilder builds prompts against the given schema description and
// dialect rule set.
func NewPromptBuilder(schema string, rules []string) *PromptBuilder {
	return &PromptBuilder{schema: schema, rules: rules}
}

// Initial renders the first-attempt prompt for a question.
func (b *PromptBuilder) Initial(question string) string {
	var sb strings.Builder
	b.header(&sb)
	sb.WriteString("QUESTION:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nReply with the SQL statement only.\n")
	return sb.String()
}

// Correction renders a retry prompt that shows the rejected or failed SQL and
// the reason, so the model can repair its own output.
func (b *PromptBuilder) Correction(question, priorSQL, feedback string) string {
	var sb strings.Builder
	b.header(&sb)
	sb.WriteString("QUESTION:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nYOUR PREVIOUS SQL:\n")
	sb.WriteString(priorSQL)
	sb.WriteString("\n\nWHAT WENT WRONG:\n")
	sb.WriteString(feedback)
	sb.WriteString("\n\nFix the query. Reply with the corrected SQL statement only.\n")
	return sb.String()
}

// Fresh renders a clean regeneration prompt after a refusal. It deliberately
// carries nothing from the refused attempt; there is no SQL to correct.
func (b *PromptBuilder) Fresh(question string) string {
	var sb strings.Builder
	b.header(&sb)
	sb.WriteString("QUESTION:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nThis is a routine read-only reporting question over the schema above.")
	sb.WriteString(" Reply with the SQL statement only.\n")
	return sb.String()
}

func (b *PromptBuilder) header(sb *strings.Builder) {
	sb.WriteString("You translate questions into a single read-only SQL query.\n\nRULES:\n")
	for _, rule := range b.rules {
		sb.WriteString("- ")
		sb.WriteString(rule)
		sb.WriteByte('\n')
	}
	sb.WriteString("\nSCHEMA:\n")
	sb.WriteString(b.schema)
	sb.WriteString("\n\n")
}
