package llm

import (
	"strings"
)

// maxPromptChars caps how much document text goes into a single request.
const maxPromptChars = 12000

// BuildSystemPrompt tells the model which labels to use and how to format them.
func BuildSystemPrompt(labels []string) string {
	parts := []string{
		"You extract named entities from product catalogs, spec sheets and price lists.",
		"Return ONLY JSON of the form {\"entities\": {\"LABEL\": [\"value\", ...]}} that matches the provided JSON Schema.",
		"Allowed labels: " + strings.Join(labels, ", ") + ".",
		"PRODUCT is a product or model name. ORG is the manufacturer or brand.",
		"PRICE keeps the currency symbol or code as printed. SKU is a part, model or stock number.",
		"List values in the order they appear, one entry per occurrence of a distinct value.",
		"Omit labels with no values. Never output null.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt frames the document text, truncated to maxPromptChars.
func BuildUserPrompt(text, filename string) string {
	var b strings.Builder
	b.WriteString("Filename: ")
	b.WriteString(filename)
	b.WriteString("\n\nDocument text:\n")
	if len(text) > maxPromptChars {
		b.WriteString(text[:maxPromptChars])
	} else {
		b.WriteString(text)
	}
	return b.String()
}
