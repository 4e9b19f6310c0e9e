package agent

import (
	"fmt"
	"strings"

	"github.com/frontdeskhq/frontdesk/internal/knowledge"
	"github.com/frontdeskhq/frontdesk/internal/llm"
)

// historyWindow is how many prior turns are sent to the model.
const historyWindow = 6

// contextWindow is how many prior turns are captured in a help request.
const contextWindow = 4

func systemPrompt(biz knowledge.Business, corpus string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a friendly phone receptionist for %s.\n", biz.Name)
	b.WriteString("Answer caller questions warmly and concisely, in one or two sentences.\n")
	b.WriteString("Only state facts found in the business information below. If the answer is not there, say \"Let me check with my supervisor and get back to you.\"\n")
	b.WriteString("Never invent prices, hours, or policies.\n")
	if corpus != "" {
		b.WriteString("\nBusiness information:\n")
		b.WriteString(corpus)
	}
	return b.String()
}

// buildMessages assembles the model conversation: role instruction with
// grounding context, the trailing window of history, then the new message.
func buildMessages(biz knowledge.Business, corpus string, history []Turn, message string) []llm.Message {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt(biz, corpus)},
	}

	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}
	for _, turn := range history[start:] {
		role := llm.RoleUser
		if turn.Role == RoleAgent {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Content})
	}

	return append(messages, llm.Message{Role: llm.RoleUser, Content: message})
}

// formatRecentContext renders the trailing turns of a conversation for a
// supervisor reading a help request.
func formatRecentContext(history []Turn) string {
	start := 0
	if len(history) > contextWindow {
		start = len(history) - contextWindow
	}

	var lines []string
	for _, turn := range history[start:] {
		label := "Caller"
		if turn.Role == RoleAgent {
			label = "Agent"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", label, turn.Content))
	}
	return strings.Join(lines, "\n")
}
