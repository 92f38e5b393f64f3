package editloop

import (
	"regexp"
	"strings"
)

var trailingSpace = regexp.MustCompile(`[ \t]+\n`)

// Buffer holds the original and current text of the document being edited.
// The original snapshot never changes after construction; the current
// contents change only through successful Replace calls.
type Buffer struct {
	original string
	contents string
}

// NewBuffer creates a Buffer from loaded document text. The text is
// normalized on the way in: CRLF and bare CR line endings become LF, and
// trailing spaces and tabs before a newline are stripped. The normalized
// form is what both snapshots hold, so an edit-free session compares equal.
func NewBuffer(text string) *Buffer {
	normalized := NormalizeText(text)
	return &Buffer{
		original: normalized,
		contents: normalized,
	}
}

// NormalizeText applies the buffer's line-ending normalization rules.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return trailingSpace.ReplaceAllString(text, "\n")
}

// Contents returns the current document text.
func (b *Buffer) Contents() string { return b.contents }

// OriginalContents returns the snapshot taken at load time.
func (b *Buffer) OriginalContents() string { return b.original }

// Modified reports whether the contents differ from the original snapshot.
func (b *Buffer) Modified() bool { return b.contents != b.original }

// Replace applies the occurrence-exact search/replace mutation. The search
// string is matched literally. If the number of non-overlapping occurrences
// in the current contents is zero the buffer is left untouched and a
// NoMatchError is returned; if it differs from occurrences the buffer is
// left untouched and an AmbiguousMatchError reporting the actual count is
// returned. Otherwise every occurrence is replaced and the new contents are
// committed in a single step. Returns the number of replacements made.
func (b *Buffer) Replace(search, replace string, occurrences int) (int, error) {
	if search == "" {
		return 0, &EmptySearchError{}
	}

	pieces := strings.Split(b.contents, search)
	matches := len(pieces) - 1
	if matches == 0 {
		return 0, &NoMatchError{Search: search}
	}
	if matches != occurrences {
		return 0, &AmbiguousMatchError{
			Search:   search,
			Expected: occurrences,
			Actual:   matches,
		}
	}

	// Commit is the last step: validation failures above never leave the
	// buffer partially mutated.
	b.contents = strings.Join(pieces, replace)
	return matches, nil
}
