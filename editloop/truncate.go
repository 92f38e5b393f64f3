package editloop

import "fmt"

// DefaultToolOutputLimit caps tool result characters sent back to the model.
// The read tool returns the whole document, which can dwarf the rest of the
// conversation; the cap keeps a runaway document from flooding the context.
const DefaultToolOutputLimit = 50000

// TruncateToolOutput applies head/tail character truncation to tool output.
// The full output still reaches the host via the event stream; only the
// model-facing result is capped.
func TruncateToolOutput(output string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultToolOutputLimit
	}
	if len(output) <= maxChars {
		return output
	}

	half := maxChars / 2
	removed := len(output) - maxChars
	return output[:half] +
		fmt.Sprintf("\n\n[Tool output truncated: %d characters removed from the middle. Use the read tool after narrowing the document down if you need the elided region.]\n\n", removed) +
		output[len(output)-half:]
}
