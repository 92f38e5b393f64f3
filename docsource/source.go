// Package docsource loads and saves the documents redline edits. A Source
// is the boundary to wherever the text actually lives: a file on disk, a
// wiki page, or an issue tracker. Sources surface optimistic-concurrency
// failures as ConflictError; they never retry silently.
package docsource

import (
	"context"
	"fmt"
	"strings"
)

// Source is the document source/sink contract.
type Source interface {
	// Load fetches the current document content.
	Load(ctx context.Context) (string, error)

	// Save persists new content. Returns a SaveError wrapping a
	// ConflictError if the underlying store changed since Load.
	Save(ctx context.Context, content string) error

	// String describes the document for status messages.
	String() string
}

// LoadError wraps a failure to fetch document content.
type LoadError struct {
	Ref string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Ref, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError wraps a failure to persist document content.
type SaveError struct {
	Ref string
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save %s: %v", e.Ref, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// ConflictError reports that the stored content changed since it was
// loaded. It must reach the human; callers never retry it.
type ConflictError struct {
	Ref string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s was modified by someone else since it was loaded", e.Ref)
}

// Options carries the credentials and endpoints remote sources need.
type Options struct {
	WikiBaseURL string // e.g. https://wiki.example.com
	WikiToken   string
	GitHubToken string
}

// Resolve turns a document reference into a Source. Recognized forms:
//
//	wiki:Page_Title          MediaWiki page
//	issue:owner/repo#123     GitHub issue body
//	anything else            local file path
//
// A malformed qualified reference is a fatal startup error.
func Resolve(ref string, opts Options) (Source, error) {
	switch {
	case strings.HasPrefix(ref, "wiki:"):
		title := strings.TrimPrefix(ref, "wiki:")
		if title == "" {
			return nil, fmt.Errorf("wiki reference is missing a page title")
		}
		if opts.WikiBaseURL == "" {
			return nil, fmt.Errorf("wiki reference %q requires a wiki base URL", ref)
		}
		return NewWikiSource(opts.WikiBaseURL, opts.WikiToken, title), nil

	case strings.HasPrefix(ref, "issue:"):
		owner, repo, number, err := parseIssueRef(strings.TrimPrefix(ref, "issue:"))
		if err != nil {
			return nil, err
		}
		return NewIssueSource(owner, repo, number, opts.GitHubToken), nil

	case ref == "":
		return nil, fmt.Errorf("document reference is required")

	default:
		return NewFileSource(ref), nil
	}
}

func parseIssueRef(ref string) (owner, repo string, number int, err error) {
	slash := strings.Index(ref, "/")
	hash := strings.LastIndex(ref, "#")
	if slash <= 0 || hash <= slash+1 || hash == len(ref)-1 {
		return "", "", 0, fmt.Errorf("malformed issue reference %q (expected owner/repo#number)", ref)
	}
	owner = ref[:slash]
	repo = ref[slash+1 : hash]
	if _, err := fmt.Sscanf(ref[hash+1:], "%d", &number); err != nil || number <= 0 {
		return "", "", 0, fmt.Errorf("malformed issue number in %q", ref)
	}
	return owner, repo, number, nil
}
