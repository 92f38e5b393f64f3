package docsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// githubAPIURL is overridable for tests.
var githubAPIURL = "https://api.github.com"

// IssueSource edits a GitHub issue body. The REST API has no revision
// check, so Save re-fetches the body and compares it to the one seen at
// load time before patching.
type IssueSource struct {
	owner      string
	repo       string
	number     int
	token      string
	baseURL    string
	httpClient *http.Client
	loadedBody string
	loaded     bool
}

// NewIssueSource creates a Source for a GitHub issue.
func NewIssueSource(owner, repo string, number int, token string) *IssueSource {
	return &IssueSource{
		owner:   owner,
		repo:    repo,
		number:  number,
		token:   token,
		baseURL: githubAPIURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *IssueSource) String() string {
	return fmt.Sprintf("issue:%s/%s#%d", s.owner, s.repo, s.number)
}

func (s *IssueSource) issueURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/issues/%d", s.baseURL, s.owner, s.repo, s.number)
}

type issueBody struct {
	Body string `json:"body"`
}

// Load fetches the issue body and remembers it for conflict detection.
func (s *IssueSource) Load(ctx context.Context) (string, error) {
	var issue issueBody
	if err := s.fetch(ctx, &issue); err != nil {
		return "", &LoadError{Ref: s.String(), Err: err}
	}
	s.loadedBody = issue.Body
	s.loaded = true
	return issue.Body, nil
}

// Save patches the issue body after verifying it has not changed upstream
// since load.
func (s *IssueSource) Save(ctx context.Context, content string) error {
	if !s.loaded {
		return &SaveError{Ref: s.String(), Err: fmt.Errorf("save before load")}
	}

	var current issueBody
	if err := s.fetch(ctx, &current); err != nil {
		return &SaveError{Ref: s.String(), Err: err}
	}
	if current.Body != s.loadedBody {
		return &SaveError{Ref: s.String(), Err: &ConflictError{Ref: s.String()}}
	}

	payload, err := json.Marshal(issueBody{Body: content})
	if err != nil {
		return &SaveError{Ref: s.String(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, s.issueURL(), bytes.NewReader(payload))
	if err != nil {
		return &SaveError{Ref: s.String(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &SaveError{Ref: s.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &SaveError{Ref: s.String(), Err: httpStatusError(resp)}
	}

	s.loadedBody = content
	return nil
}

func (s *IssueSource) fetch(ctx context.Context, out *issueBody) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.issueURL(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	s.authorize(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httpStatusError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *IssueSource) authorize(req *http.Request) {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
}
