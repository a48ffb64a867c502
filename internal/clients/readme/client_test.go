package readme

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotabull/supportsync/internal/pkg/logger"
)

func testClient(t *testing.T, srv *httptest.Server) Client {
	t.Helper()
	c, err := New(logger.NewNop(), Config{
		APIToken:    "rdme-token",
		BaseURL:     srv.URL,
		BackoffUnit: time.Millisecond,
		MaxRetries:  2,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func docServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/categories":
			fmt.Fprint(w, `[{"slug":"getting-started","title":"Getting Started"},
			                {"slug":"faq","title":"FAQ"}]`)
		case r.URL.Path == "/categories/getting-started/docs":
			// "intro" has a nested child tree two levels deep.
			fmt.Fprint(w, `[{"slug":"intro","title":"Intro","children":[
			                  {"slug":"setup","title":"Setup","children":[
			                    {"slug":"setup-advanced","title":"Advanced","children":[]}]}]},
			                {"slug":"billing","title":"Billing","children":[]}]`)
		case r.URL.Path == "/categories/faq/docs":
			// "billing" is cross-listed in both categories.
			fmt.Fprint(w, `[{"slug":"billing","title":"Billing","children":[]}]`)
		case strings.HasPrefix(r.URL.Path, "/docs/"):
			slug := strings.TrimPrefix(r.URL.Path, "/docs/")
			fmt.Fprintf(w, `{"slug":%q,"body":"body of %s"}`, slug, slug)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestFetchAllPages_WalksNestedChildren(t *testing.T) {
	srv := docServer(t)
	defer srv.Close()

	c := testClient(t, srv)
	pages, err := c.FetchAllPages(context.Background())
	if err != nil {
		t.Fatalf("FetchAllPages: %v", err)
	}

	got := make(map[string]string, len(pages))
	for _, p := range pages {
		if _, dup := got[p.Slug]; dup {
			t.Fatalf("slug %q fetched more than once", p.Slug)
		}
		got[p.Slug] = p.Body
	}
	for _, slug := range []string{"intro", "setup", "setup-advanced", "billing"} {
		if _, ok := got[slug]; !ok {
			t.Fatalf("missing page %q, got %v", slug, pages)
		}
	}
	if len(pages) != 4 {
		t.Fatalf("expected 4 unique pages, got %d", len(pages))
	}
	if got["setup-advanced"] != "body of setup-advanced" {
		t.Fatalf("unexpected body: %q", got["setup-advanced"])
	}
}

func TestGetDoc_RetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"slug":"intro","body":"hello"}`)
	}))
	defer srv.Close()

	c := testClient(t, srv)
	page, err := c.GetDoc(context.Background(), "intro")
	if err != nil {
		t.Fatalf("GetDoc: %v", err)
	}
	if page.Body != "hello" {
		t.Fatalf("body = %q", page.Body)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected 2 requests, got %d", n)
	}
}

func TestGetDoc_DoesNotRetryNotFound(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(t, srv)
	if _, err := c.GetDoc(context.Background(), "nope"); err == nil {
		t.Fatalf("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("404 must not be retried, got %d requests", n)
	}
}
