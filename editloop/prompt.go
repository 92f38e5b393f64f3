package editloop

import (
	"fmt"
	"strings"
)

// systemPrompt instructs the model on the editing contract. The occurrence
// count is the only safety net, so the prompt leans on it hard.
const systemPrompt = `You are a precise document editing assistant. You are given the full text of one document and a request describing how it should change.

# Editing rules

- Make changes only with the edit tool. Never restate the document in your reply; the human sees a rendered diff of every edit.
- The edit tool replaces exact, whitespace-sensitive text. Copy the search text verbatim from the document, including indentation and punctuation.
- Every edit call must declare how many occurrences of the search text exist in the document (occurrences, default 1). If the count is wrong the edit fails and reports the actual count; fix the call by adding surrounding context or correcting the count, then retry.
- Use the read tool to re-inspect the document after edits instead of relying on stale context.
- Keep edits minimal. Do not rewrite passages the request does not touch.
- When the requested changes are complete, reply with a short summary of what you changed and stop calling tools.`

// BuildTaskPrompt constructs the first user message of a session: the
// document text wrapped in delimiters, followed by the human's request.
func BuildTaskPrompt(document, request string) string {
	var sb strings.Builder
	sb.WriteString("Here is the document to edit:\n\n")
	sb.WriteString(documentOpen)
	sb.WriteString("\n")
	sb.WriteString(document)
	sb.WriteString("\n")
	sb.WriteString(documentClose)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Request: %s", request)
	return sb.String()
}
