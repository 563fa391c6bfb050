// Package render turns a submission into the Markdown and HTML bodies of
// the notification e-mail.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/formworks/intake-api/internal/models"
)

// Renderer writes a Markdown summary of a submission and its HTML
// rendering. Dialect: CommonMark plus the Typographer extension (smart
// quotes and dashes), since the HTML is user-facing e-mail content.
type Renderer struct {
	md goldmark.Markdown
}

func New() *Renderer {
	return &Renderer{
		md: goldmark.New(goldmark.WithExtensions(extension.Typographer)),
	}
}

// Render emits, per section, a level-2 heading followed by each question's
// prompt and the answer as a block quote. A missing answer renders as an
// empty quote so the document shape never depends on how complete the
// submission is.
func (r *Renderer) Render(sub *models.Submission, q models.Questionnaire) (markdown, html string, err error) {
	var b strings.Builder
	for i, section := range q {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", section.Heading)
		for j, question := range section.Questions {
			if j > 0 {
				b.WriteString("\n\n")
			}
			answer := sub.Answers[question.Name]
			fmt.Fprintf(&b, "%s\n\n> %s", question.Prompt, answer)
		}
	}
	b.WriteString("\n")
	markdown = b.String()

	var out bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &out); err != nil {
		return "", "", fmt.Errorf("render markdown: %w", err)
	}
	return markdown, out.String(), nil
}
