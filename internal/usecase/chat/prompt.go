package chat

import (
	"strings"

	"github.com/aldermoor/braindex/internal/domain"
)

// noContextMarker is injected as the document context when retrieval finds
// nothing, so the model still receives a well-formed prompt.
const noContextMarker = "No context found."

// DefaultTemplate is the answer prompt. The context-only instruction is the
// load-bearing part: it keeps the model from answering outside the corpus.
const DefaultTemplate = `You are a helpful assistant. Use ONLY the following context to answer the question. If the answer is not contained in the context, say "I don't know".

[DOCUMENT CONTEXT]
{{context}}

[RECENT CONVERSATION HISTORY]
{{history}}

[CURRENT QUESTION]
User: {{question}}
Assistant:`

// Template interpolates retrieval context, history and the question into the
// answer prompt. The wording is configuration data; orchestration never
// inspects it.
type Template struct {
	text string
}

// NewTemplate builds a prompt template, falling back to DefaultTemplate when
// text is empty.
func NewTemplate(text string) Template {
	if text == "" {
		text = DefaultTemplate
	}
	return Template{text: text}
}

// Render fills the template. An empty context becomes the no-context marker.
func (t Template) Render(contextText string, history []domain.Message, question string) string {
	if contextText == "" {
		contextText = noContextMarker
	}
	r := strings.NewReplacer(
		"{{context}}", contextText,
		"{{history}}", renderHistory(history),
		"{{question}}", question,
	)
	return r.Replace(t.text)
}

// renderHistory formats messages as "User:"/"Assistant:" lines in the order
// given. An empty history renders as an empty string.
func renderHistory(history []domain.Message) string {
	var b strings.Builder
	for i, m := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch m.Role {
		case domain.RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(m.Content)
	}
	return b.String()
}
