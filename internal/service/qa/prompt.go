package qa

import (
	"bytes"
	"fmt"

	"github.com/w-h-a/docqa/history"
	"github.com/w-h-a/docqa/index"
)

const instructions = `You are an assistant that answers questions from the context documents below.
Base every answer on that context. When the context does not contain enough information, say so plainly rather than guessing. Cite the parts of the context that support your answer and do not invent facts.`

// buildPrompt assembles the generation prompt in a fixed order: instruction
// block, retrieved context, conversation history newest-last, current
// question. Hosted models are sensitive to this structure; do not reorder.
func buildPrompt(results []index.Result, turns []history.Turn, question string) string {
	var sb bytes.Buffer

	sb.WriteString(instructions)

	sb.WriteString("\n\nCONTEXT DOCUMENTS:\n")
	if len(results) == 0 {
		sb.WriteString("(no matching documents)\n")
	}
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("[%d] %s\n\n", r.Rank, r.Text))
	}

	sb.WriteString("CONVERSATION HISTORY:\n")
	if len(turns) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, turn := range turns {
		sb.WriteString(fmt.Sprintf("[user]: %s\n[assistant]: %s\n", turn.Question, turn.Answer))
	}

	sb.WriteString(fmt.Sprintf("\nCURRENT QUESTION: %s\n\nANSWER:", question))

	return sb.String()
}
