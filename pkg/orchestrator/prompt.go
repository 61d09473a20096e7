package orchestrator

import "strings"

// Prompt labels. Changing them changes model behaviour.
const (
	labelDocument = "Document Context: "
	labelWeb      = "Web Knowledge: "
	labelUser     = "User: "
	labelAI       = "AI:"
)

// BuildPrompt assembles the single prompt string sent to the model. The
// result always ends with "User: <userText>\nAI:".
func BuildPrompt(document, summary, userText string) string {
	var b strings.Builder
	b.Grow(len(labelDocument) + len(document) + len(labelWeb) + len(summary) + len(labelUser) + len(userText) + len(labelAI) + 3)

	b.WriteString(labelDocument)
	b.WriteString(document)
	b.WriteByte('\n')
	b.WriteString(labelWeb)
	b.WriteString(summary)
	b.WriteByte('\n')
	b.WriteString(labelUser)
	b.WriteString(userText)
	b.WriteByte('\n')
	b.WriteString(labelAI)

	return b.String()
}
