package docsource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newWikiServer(t *testing.T, source string, revisionID int64, saveStatus int) (*httptest.Server, *map[string]interface{}) {
	t.Helper()
	var lastPut map[string]interface{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/w/rest.php/v1/page/Main_Page" {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]interface{}{
				"source": source,
				"latest": map[string]interface{}{"id": revisionID},
			})
		case http.MethodPut:
			if err := json.NewDecoder(r.Body).Decode(&lastPut); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(saveStatus)
			if saveStatus == http.StatusOK {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"source": lastPut["source"],
					"latest": map[string]interface{}{"id": revisionID + 1},
				})
			}
		}
	})

	return httptest.NewServer(handler), &lastPut
}

func TestWikiSourceLoadSave(t *testing.T) {
	server, lastPut := newWikiServer(t, "== Heading ==\nBody text.", 17, http.StatusOK)
	defer server.Close()

	src := NewWikiSource(server.URL, "token", "Main_Page")

	content, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != "== Heading ==\nBody text." {
		t.Errorf("unexpected content: %q", content)
	}

	if err := src.Save(context.Background(), "== Heading ==\nNew body."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	put := *lastPut
	if put["source"] != "== Heading ==\nNew body." {
		t.Errorf("unexpected saved source: %v", put["source"])
	}
	// The loaded revision id must ride along for optimistic concurrency.
	latest, ok := put["latest"].(map[string]interface{})
	if !ok || latest["id"] != float64(17) {
		t.Errorf("expected latest.id 17 in save payload, got %v", put["latest"])
	}
}

func TestWikiSourceSaveConflict(t *testing.T) {
	server, _ := newWikiServer(t, "text", 3, http.StatusConflict)
	defer server.Close()

	src := NewWikiSource(server.URL, "", "Main_Page")
	if _, err := src.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := src.Save(context.Background(), "new text")
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}

func TestWikiSourceSaveBeforeLoad(t *testing.T) {
	src := NewWikiSource("https://wiki.example.com", "", "Main_Page")
	err := src.Save(context.Background(), "text")
	var saveErr *SaveError
	if !errors.As(err, &saveErr) {
		t.Fatalf("expected SaveError, got %v", err)
	}
}

func TestWikiSourceLoadMissingPage(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	src := NewWikiSource(server.URL, "", "Main_Page")
	_, err := src.Load(context.Background())
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
}

func TestWikiSourceSendsBearerToken(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"source": "text",
			"latest": map[string]interface{}{"id": 1},
		})
	}))
	defer server.Close()

	src := NewWikiSource(server.URL, "secret", "Main_Page")
	if _, err := src.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != "Bearer secret" {
		t.Errorf("expected bearer token header, got %q", auth)
	}
}
