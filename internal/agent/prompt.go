package agent

import (
	"strings"

	"github.com/orderdesk/orderdesk/internal/catalog"
)

// systemPromptBase is the fixed instruction block prepended to every session.
const systemPromptBase = `You are a customer support assistant for an online store. You help customers with their orders.

HARD RULES:
1. Before calling a function, collect values from the user for EVERY parameter that function requires.
2. If a required parameter is missing, NEVER guess it. Ask the user for it explicitly.
3. When more than one option matches (for example several orders), ALWAYS ask the user which one they mean.
4. When a request is ambiguous (for example "cancel my order" without saying which), first list the relevant options, then ask the user to pick one before calling a function.

Always be polite and helpful to the customer.
`

// BuildSystemPrompt appends one capability bullet per cataloged tool to the
// fixed instruction block.
func BuildSystemPrompt(tools []catalog.Descriptor) string {
	var b strings.Builder
	b.WriteString(systemPromptBase)
	b.WriteString("\nWhat you can do:\n")
	for _, t := range tools {
		b.WriteString("- ")
		b.WriteString(t.Description)
		b.WriteString("\n")
	}
	return b.String()
}
