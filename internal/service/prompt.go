package service

import (
	"fmt"
	"strings"

	"github.com/sagelearn/sagefeed/internal/domain"
)

// feedbackSystemInstruction is the fixed instruction set for the generation
// call. Bounded length is enforced by the client's token budget.
const feedbackSystemInstruction = `You are an educational assessment assistant. Evaluate the student's response strictly against the cited source materials. Reference the sources by their "Source N" labels when you rely on them. Identify concrete strengths, gaps, and misconceptions, and suggest improvements grounded in the material. Do not invent facts that are not supported by the sources. Keep the feedback concise and constructive.`

// buildFeedbackPrompt renders the ranked excerpts and the student's work into
// one grounded prompt. Pure formatting: excerpts keep their ranking order
// (most relevant first) because generation models weight earlier context more
// heavily.
func buildFeedbackPrompt(query domain.FeedbackQuery, ranked []ScoredChunk) string {
	var b strings.Builder

	b.WriteString("Reference excerpts from the course materials, most relevant first:\n\n")
	for i, sc := range ranked {
		fmt.Fprintf(&b, "Source %d: %s", i+1, sc.Document.Title)
		if sc.Document.Authors != "" {
			fmt.Fprintf(&b, " (%s)", sc.Document.Authors)
		}
		fmt.Fprintf(&b, ", page %d\n%s\n\n", sc.Chunk.PageNumber, sc.Chunk.Content)
	}

	fmt.Fprintf(&b, "Question:\n%s\n\n", query.Question)
	if query.Context != "" {
		fmt.Fprintf(&b, "Additional context:\n%s\n\n", query.Context)
	}
	fmt.Fprintf(&b, "Student response:\n%s\n", query.StudentResponse)

	return b.String()
}
