package editloop

import (
	"errors"
	"testing"
)

func TestNewBufferNormalizesLineEndings(t *testing.T) {
	buf := NewBuffer("one\r\ntwo\rthree\n")
	if got := buf.Contents(); got != "one\ntwo\nthree\n" {
		t.Errorf("expected normalized line endings, got %q", got)
	}
	if buf.Modified() {
		t.Error("normalization must not count as a modification")
	}
}

func TestNewBufferStripsTrailingWhitespace(t *testing.T) {
	buf := NewBuffer("alpha  \nbeta\t\ngamma\n")
	if got := buf.Contents(); got != "alpha\nbeta\ngamma\n" {
		t.Errorf("expected trailing whitespace stripped, got %q", got)
	}
}

func TestReplaceSingleOccurrence(t *testing.T) {
	buf := NewBuffer("Hello World\n")
	n, err := buf.Replace("World", "Mars", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 replacement, got %d", n)
	}
	if got := buf.Contents(); got != "Hello Mars\n" {
		t.Errorf("expected %q, got %q", "Hello Mars\n", got)
	}
	if !buf.Modified() {
		t.Error("expected buffer to report modified")
	}
	if got := buf.OriginalContents(); got != "Hello World\n" {
		t.Errorf("original snapshot changed: %q", got)
	}
}

func TestReplaceMultipleOccurrences(t *testing.T) {
	buf := NewBuffer("a b a b a\n")
	n, err := buf.Replace("a", "c", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 replacements, got %d", n)
	}
	if got := buf.Contents(); got != "c b c b c\n" {
		t.Errorf("expected %q, got %q", "c b c b c\n", got)
	}
}

func TestReplaceNoMatchLeavesBufferUntouched(t *testing.T) {
	buf := NewBuffer("Hello World\n")
	_, err := buf.Replace("Venus", "Mars", 1)

	var noMatch *NoMatchError
	if !errors.As(err, &noMatch) {
		t.Fatalf("expected NoMatchError, got %v", err)
	}
	if buf.Modified() {
		t.Error("failed replace must leave the buffer unchanged")
	}
}

func TestReplaceCountMismatchReportsActual(t *testing.T) {
	buf := NewBuffer("x y x y x\n")
	_, err := buf.Replace("x", "z", 1)

	var ambiguous *AmbiguousMatchError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected AmbiguousMatchError, got %v", err)
	}
	if ambiguous.Actual != 3 {
		t.Errorf("expected actual count 3, got %d", ambiguous.Actual)
	}
	if ambiguous.Expected != 1 {
		t.Errorf("expected expected count 1, got %d", ambiguous.Expected)
	}
	if buf.Modified() {
		t.Error("failed replace must leave the buffer unchanged")
	}
}

func TestReplaceEmptySearchRejected(t *testing.T) {
	buf := NewBuffer("Hello\n")
	_, err := buf.Replace("", "anything", 1)

	var empty *EmptySearchError
	if !errors.As(err, &empty) {
		t.Fatalf("expected EmptySearchError, got %v", err)
	}
	if buf.Modified() {
		t.Error("rejected replace must leave the buffer unchanged")
	}
}

func TestReplaceIsWhitespaceSensitive(t *testing.T) {
	buf := NewBuffer("func main() {\n\treturn\n}\n")
	if _, err := buf.Replace("  return", "  os.Exit(1)", 1); err == nil {
		t.Fatal("expected no match for space-indented search against tab-indented text")
	}
	if _, err := buf.Replace("\treturn", "\tos.Exit(1)", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReplaceRoundTrip(t *testing.T) {
	buf := NewBuffer("Hello World\n")
	if _, err := buf.Replace("World", "Mars", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := buf.Replace("Mars", "World", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Modified() {
		t.Error("a reverted buffer must compare equal to the original")
	}
}

func TestReplaceDeletion(t *testing.T) {
	buf := NewBuffer("keep remove keep\n")
	if _, err := buf.Replace(" remove", "", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := buf.Contents(); got != "keep keep\n" {
		t.Errorf("expected %q, got %q", "keep keep\n", got)
	}
}
