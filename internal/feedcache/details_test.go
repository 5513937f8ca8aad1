package feedcache

import (
	"testing"
	"time"

	"postgrid/internal/api"
)

func seededCache(t *testing.T) (*DetailCache, *PageStore) {
	t.Helper()
	store := NewPageStore("posts")
	err := store.Append(0, api.Page{Items: []api.Summary{
		{ID: 1, Slug: "a", Title: "Foo"},
		{ID: 2, Slug: "b", Title: "Bar"},
	}})
	if err != nil {
		t.Fatalf("seed page store: %v", err)
	}
	return NewDetailCache(store, 0), store
}

func TestRequest_SeedsPlaceholderSynchronously(t *testing.T) {
	cache, _ := seededCache(t)

	entry, token, start := cache.Request("a")
	if !start || token == 0 {
		t.Fatalf("expected fetch to start, token=%d start=%v", token, start)
	}
	if entry.State != StatePlaceholder {
		t.Fatalf("expected placeholder state, got %d", entry.State)
	}
	if entry.Summary.Title != "Foo" {
		t.Fatalf("placeholder should carry summary title, got %q", entry.Summary.Title)
	}
}

func TestRequest_ConcurrentCallersAttachToOneFetch(t *testing.T) {
	cache, _ := seededCache(t)

	_, token1, start1 := cache.Request("a")
	_, token2, start2 := cache.Request("a")

	if !start1 {
		t.Fatal("first request should start a fetch")
	}
	if start2 {
		t.Fatal("second request must attach, not start a second fetch")
	}
	if token1 != token2 {
		t.Fatalf("both callers must observe the same fetch: %d vs %d", token1, token2)
	}

	detail := api.Detail{Summary: api.Summary{ID: 1, Slug: "a", Title: "Foo"}, Content: "<p>x</p>"}
	if !cache.Resolve("a", token1, detail) {
		t.Fatal("resolve should apply")
	}
	got := cache.Get("a")
	if got.State != StateFresh || got.Detail == nil || got.Detail.Content != "<p>x</p>" {
		t.Fatalf("unexpected entry after resolve: %+v", got)
	}
}

func TestResolve_StaleTokenIsDiscarded(t *testing.T) {
	cache, _ := seededCache(t)

	_, oldToken, _ := cache.Request("a")
	if !cache.Fail("a", oldToken) {
		t.Fatal("fail should apply to in-flight token")
	}
	_, newToken, start := cache.Request("a")
	if !start {
		t.Fatal("expected a new fetch after failure")
	}

	if cache.Resolve("a", oldToken, api.Detail{Summary: api.Summary{ID: 1, Slug: "a", Title: "OLD"}}) {
		t.Fatal("stale response must be discarded")
	}
	if !cache.Resolve("a", newToken, api.Detail{Summary: api.Summary{ID: 1, Slug: "a", Title: "NEW"}}) {
		t.Fatal("current response must apply")
	}
	if got := cache.Get("a"); got.Summary.Title != "NEW" {
		t.Fatalf("expected newest response to win, got %q", got.Summary.Title)
	}
}

func TestFail_RestoresPreFetchState(t *testing.T) {
	cache, _ := seededCache(t)

	entry, token, _ := cache.Request("a")
	if entry.State != StatePlaceholder {
		t.Fatalf("precondition: expected placeholder, got %d", entry.State)
	}
	if !cache.Fail("a", token) {
		t.Fatal("fail should apply")
	}
	got := cache.Get("a")
	if got.State != StatePlaceholder {
		t.Fatalf("failure must keep the placeholder, got state %d", got.State)
	}
	if got.Fetching {
		t.Fatal("slot must not stay marked in flight after failure")
	}

	// A slug with no placeholder rolls back to absent.
	_, token, _ = cache.Request("zzz")
	cache.Fail("zzz", token)
	if got := cache.Get("zzz"); got.State != StateAbsent {
		t.Fatalf("expected absent after failed cold fetch, got %d", got.State)
	}
}

func TestStaleWhileRevalidate(t *testing.T) {
	cache, _ := seededCache(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.SetNowFunc(func() time.Time { return now })

	_, token, _ := cache.Request("a")
	cache.Resolve("a", token, api.Detail{Summary: api.Summary{ID: 1, Slug: "a", Title: "Foo"}, Content: "v1"})

	// Within the freshness window: no refetch.
	now = now.Add(time.Minute)
	entry, _, start := cache.Request("a")
	if start {
		t.Fatal("fresh entry must not refetch")
	}
	if entry.State != StateFresh {
		t.Fatalf("expected fresh state, got %d", entry.State)
	}

	// Past the window: stale value served immediately, refresh in background.
	now = now.Add(10 * time.Minute)
	entry, token, start = cache.Request("a")
	if !start {
		t.Fatal("expired entry must trigger a background refresh")
	}
	if entry.State != StateRevalidating {
		t.Fatalf("expected revalidating state, got %d", entry.State)
	}
	if entry.Detail == nil || entry.Detail.Content != "v1" {
		t.Fatal("stale value must be served while revalidating")
	}

	cache.Resolve("a", token, api.Detail{Summary: api.Summary{ID: 1, Slug: "a"}, Content: "v2"})
	if got := cache.Get("a"); got.Detail.Content != "v2" || got.State != StateFresh {
		t.Fatalf("unexpected entry after revalidation: %+v", got)
	}
}

func TestPrefetch_NeverDowngradesFreshEntry(t *testing.T) {
	cache, _ := seededCache(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.SetNowFunc(func() time.Time { return now })

	_, token, _ := cache.Request("a")
	cache.Resolve("a", token, api.Detail{Summary: api.Summary{ID: 1, Slug: "a"}, Content: "v1"})

	if _, start := cache.Prefetch("a"); start {
		t.Fatal("prefetch must not refetch a fresh entry")
	}
	if got := cache.Get("a"); got.State != StateFresh || got.Detail.Content != "v1" {
		t.Fatalf("prefetch downgraded entry: %+v", got)
	}

	// Prefetch on a cold slug does start a fetch.
	if _, start := cache.Prefetch("b"); !start {
		t.Fatal("prefetch on cold slug should start a fetch")
	}
	// And the in-flight fetch is reused by a later request.
	_, _, start := cache.Request("b")
	if start {
		t.Fatal("request must attach to the prefetch's in-flight fetch")
	}
}
