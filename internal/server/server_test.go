package server

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"postgrid/internal/api"
)

func newTestServer(t *testing.T, posts, perPage int) (*httptest.Server, *Repository) {
	t.Helper()
	repo, err := NewRepository(":memory:")
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	ctx := context.Background()
	if err := repo.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := repo.SeedDemo(ctx, posts); err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}
	ts := httptest.NewServer(New(repo, perPage))
	t.Cleanup(ts.Close)
	return ts, repo
}

func TestListPagination(t *testing.T) {
	ts, _ := newTestServer(t, 25, 12)
	client := api.NewClient(ts.URL, nil)
	ctx := context.Background()

	page1, err := client.ListPosts(ctx, 1)
	if err != nil {
		t.Fatalf("ListPosts(1) error = %v", err)
	}
	if len(page1.Items) != 12 {
		t.Fatalf("page 1 items = %d, want 12", len(page1.Items))
	}
	if page1.NextPage == nil || *page1.NextPage != 2 {
		t.Fatalf("page 1 nextPage = %v, want 2", page1.NextPage)
	}
	if page1.Items[0].Slug != "post-1" {
		t.Errorf("first slug = %q, want %q", page1.Items[0].Slug, "post-1")
	}

	page3, err := client.ListPosts(ctx, 3)
	if err != nil {
		t.Fatalf("ListPosts(3) error = %v", err)
	}
	if len(page3.Items) != 1 {
		t.Fatalf("page 3 items = %d, want 1", len(page3.Items))
	}
	if page3.NextPage != nil {
		t.Fatalf("page 3 nextPage = %v, want nil", *page3.NextPage)
	}
}

func TestListBadPageParameter(t *testing.T) {
	ts, _ := newTestServer(t, 3, 12)
	for _, raw := range []string{"zero", "0", "-1", "1.5"} {
		resp, err := ts.Client().Get(ts.URL + "/api/posts?page=" + raw)
		if err != nil {
			t.Fatalf("GET page=%s error = %v", raw, err)
		}
		resp.Body.Close()
		if resp.StatusCode != 400 {
			t.Errorf("page=%s status = %d, want 400", raw, resp.StatusCode)
		}
	}
}

func TestDetailIncludesSelfEcho(t *testing.T) {
	ts, _ := newTestServer(t, 10, 12)
	client := api.NewClient(ts.URL, nil)

	detail, err := client.GetPost(context.Background(), "post-4")
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if detail.Slug != "post-4" {
		t.Fatalf("slug = %q, want %q", detail.Slug, "post-4")
	}
	if detail.Content == "" {
		t.Fatal("detail content is empty")
	}

	// The raw payload echoes the post in its own related list; Related()
	// filters it back out.
	foundSelf := false
	for _, rel := range detail.RelatedPosts {
		if rel.ID == detail.ID {
			foundSelf = true
		}
	}
	if !foundSelf {
		t.Error("seed data should echo the post in its own related list")
	}
	for _, rel := range detail.Related() {
		if rel.ID == detail.ID {
			t.Error("Related() kept the self echo")
		}
	}
}

func TestDetailNotFound(t *testing.T) {
	ts, _ := newTestServer(t, 3, 12)
	client := api.NewClient(ts.URL, nil)

	_, err := client.GetPost(context.Background(), "no-such-post")
	if !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("GetPost() error = %v, want ErrNotFound", err)
	}
}

func TestStandalonePage(t *testing.T) {
	ts, _ := newTestServer(t, 3, 12)

	resp, err := ts.Client().Get(ts.URL + "/post/post-2")
	if err != nil {
		t.Fatalf("GET /post/post-2 error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	body := string(raw)

	for _, want := range []string{
		"<title>Post 2: Notes from the Grid</title>",
		`property="og:image"`,
		`name="description"`,
		"<h1>Post 2: Notes from the Grid</h1>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page body missing %q", want)
		}
	}

	resp404, err := ts.Client().Get(ts.URL + "/post/missing")
	if err != nil {
		t.Fatalf("GET /post/missing error = %v", err)
	}
	resp404.Body.Close()
	if resp404.StatusCode != 404 {
		t.Errorf("missing page status = %d, want 404", resp404.StatusCode)
	}
}
