package docsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// WikiSource edits a MediaWiki page through the REST API. The latest
// revision id recorded at load time is sent back on save, so a concurrent
// edit surfaces as a 409 which becomes a ConflictError.
type WikiSource struct {
	baseURL    string
	token      string
	title      string
	httpClient *http.Client
	revisionID int64
}

// NewWikiSource creates a Source for a wiki page title.
func NewWikiSource(baseURL, token, title string) *WikiSource {
	return &WikiSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		title:   title,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *WikiSource) String() string { return "wiki:" + s.title }

func (s *WikiSource) pageURL() string {
	return s.baseURL + "/w/rest.php/v1/page/" + url.PathEscape(s.title)
}

type wikiPage struct {
	Source string `json:"source"`
	Latest struct {
		ID int64 `json:"id"`
	} `json:"latest"`
}

// Load fetches the page source and records its latest revision id.
func (s *WikiSource) Load(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL(), nil)
	if err != nil {
		return "", &LoadError{Ref: s.String(), Err: err}
	}
	s.authorize(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &LoadError{Ref: s.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &LoadError{Ref: s.String(), Err: httpStatusError(resp)}
	}

	var page wikiPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return "", &LoadError{Ref: s.String(), Err: fmt.Errorf("decode page: %w", err)}
	}

	s.revisionID = page.Latest.ID
	return page.Source, nil
}

// Save updates the page, asserting the revision loaded earlier is still the
// latest one. A 409 from the API means someone edited in between.
func (s *WikiSource) Save(ctx context.Context, content string) error {
	if s.revisionID == 0 {
		return &SaveError{Ref: s.String(), Err: fmt.Errorf("save before load")}
	}

	payload := map[string]interface{}{
		"source":  content,
		"comment": "Edited with redline",
		"latest":  map[string]interface{}{"id": s.revisionID},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return &SaveError{Ref: s.String(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.pageURL(), bytes.NewReader(body))
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

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var page wikiPage
		if err := json.NewDecoder(resp.Body).Decode(&page); err == nil && page.Latest.ID != 0 {
			s.revisionID = page.Latest.ID
		}
		return nil
	case http.StatusConflict:
		return &SaveError{Ref: s.String(), Err: &ConflictError{Ref: s.String()}}
	default:
		return &SaveError{Ref: s.String(), Err: httpStatusError(resp)}
	}
}

func (s *WikiSource) authorize(req *http.Request) {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
}

// httpStatusError reads a short error body for diagnostics.
func httpStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
}
