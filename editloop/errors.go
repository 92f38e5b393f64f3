package editloop

import "fmt"

// NoMatchError reports that the search string does not occur in the buffer.
// It is recoverable: surfaced to the model as an error tool result so it can
// retry with corrected arguments.
type NoMatchError struct {
	Search string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no occurrences of %q found in the document", e.Search)
}

// AmbiguousMatchError reports that the actual occurrence count differs from
// the count the caller committed to. Also recoverable; the message tells the
// model how to fix its call.
type AmbiguousMatchError struct {
	Search   string
	Expected int
	Actual   int
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("found %d occurrence(s) of %q but expected %d; include more surrounding context to pin down the match, or set occurrences to the actual count",
		e.Actual, e.Search, e.Expected)
}

// EmptySearchError reports an empty search argument, rejected before the
// buffer is touched.
type EmptySearchError struct{}

func (e *EmptySearchError) Error() string {
	return "search must not be empty"
}

// InternalToolError wraps an unexpected failure inside a tool handler. It is
// always recovered into an error tool result; a faulting tool never aborts
// the loop.
type InternalToolError struct {
	Tool string
	Err  error
}

func (e *InternalToolError) Error() string {
	return fmt.Sprintf("internal tool error (%s): %v", e.Tool, e.Err)
}

func (e *InternalToolError) Unwrap() error { return e.Err }
