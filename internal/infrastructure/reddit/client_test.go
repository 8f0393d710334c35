package reddit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"newsagent/internal/domain"
)

const threadJSON = `[
  {"data": {"children": [
    {"kind": "t3", "data": {"id": "p1", "title": "Post Title", "author": "alice",
     "subreddit": "testboard", "selftext": "body text", "score": 42, "num_comments": 2}}
  ]}},
  {"data": {"children": [
    {"kind": "t1", "data": {"body": "first comment", "score": 10,
     "replies": {"data": {"children": [
       {"kind": "t1", "data": {"body": "a reply", "score": 3, "replies": ""}}
     ]}}}},
    {"kind": "t1", "data": {"body": "second comment", "score": 5, "replies": ""}},
    {"kind": "more", "data": {}}
  ]}}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()

	var tokenCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		if user, pass, ok := r.BasicAuth(); !ok || user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"access_token": "tok123", "expires_in": 3600}`))
	})
	mux.HandleFunc("/", handler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	c := NewClient("id", "secret", "test-agent")
	c.tokenURL = server.URL + "/api/v1/access_token"
	c.apiBase = server.URL
	return c, &tokenCalls
}

func TestTopPosts(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth, gotAgent string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"data": {"children": [
			{"data": {"id": "p1", "title": "Hello", "author": "alice", "subreddit": "testboard",
			 "permalink": "/r/testboard/comments/p1/hello/", "selftext": "text", "score": 7, "num_comments": 3}}
		]}}`))
	})

	posts, err := c.TopPosts(context.Background(), "testboard", 5, domain.FilterWeek)
	if err != nil {
		t.Fatalf("TopPosts error: %v", err)
	}

	if gotPath != "/r/testboard/top.json?t=week&limit=5&raw_json=1" {
		t.Fatalf("unexpected request path: %s", gotPath)
	}
	if gotAuth != "Bearer tok123" {
		t.Fatalf("unexpected auth header: %s", gotAuth)
	}
	if gotAgent != "test-agent" {
		t.Fatalf("unexpected user agent: %s", gotAgent)
	}

	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	p := posts[0]
	if p.Title != "Hello" || p.Board != "testboard" || p.Score != 7 {
		t.Fatalf("unexpected post: %+v", p)
	}
	if p.Link() != "https://reddit.com/r/testboard/comments/p1/hello/" {
		t.Fatalf("unexpected link: %s", p.Link())
	}
}

func TestThread(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/r/testboard/comments/p1.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(threadJSON))
	})

	thread, err := c.Thread(context.Background(), "https://reddit.com/r/testboard/comments/p1/")
	if err != nil {
		t.Fatalf("Thread error: %v", err)
	}

	if thread.Post.Title != "Post Title" || thread.Post.Score != 42 {
		t.Fatalf("unexpected post: %+v", thread.Post)
	}
	if len(thread.Comments) != 2 {
		t.Fatalf("non-comment children must be skipped, got %d comments", len(thread.Comments))
	}
	if thread.Comments[0].Body != "first comment" || thread.Comments[0].Score != 10 {
		t.Fatalf("unexpected comment: %+v", thread.Comments[0])
	}
	if len(thread.Comments[0].Replies) != 1 || thread.Comments[0].Replies[0].Body != "a reply" {
		t.Fatalf("unexpected replies: %+v", thread.Comments[0].Replies)
	}
	if len(thread.Comments[1].Replies) != 0 {
		t.Fatalf("empty replies string must decode to none, got %+v", thread.Comments[1].Replies)
	}
}

func TestTokenIsCached(t *testing.T) {
	t.Parallel()

	c, tokenCalls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"children": []}}`))
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.TopPosts(ctx, "testboard", 1, domain.FilterDay); err != nil {
			t.Fatalf("TopPosts error: %v", err)
		}
	}

	if got := atomic.LoadInt32(tokenCalls); got != 1 {
		t.Fatalf("expected a single token request, got %d", got)
	}
}

func TestNormalizePermalink(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://reddit.com/r/a/comments/x/":    "/r/a/comments/x",
		"https://www.reddit.com/r/a/comments/x": "/r/a/comments/x",
		"/r/a/comments/x/":                      "/r/a/comments/x",
		"r/a/comments/x":                        "/r/a/comments/x",
	}
	for in, want := range cases {
		if got := normalizePermalink(in); got != want {
			t.Fatalf("normalizePermalink(%q) = %q, want %q", in, got, want)
		}
	}
}
