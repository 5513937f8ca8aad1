package feedcache

import (
	"testing"

	"postgrid/internal/api"
)

func intPtr(n int) *int { return &n }

func summaries(ids ...int64) []api.Summary {
	out := make([]api.Summary, 0, len(ids))
	for _, id := range ids {
		out = append(out, api.Summary{ID: id, Slug: slugFor(id)})
	}
	return out
}

func slugFor(id int64) string {
	return string(rune('a' + id))
}

func TestAppend_IsIdempotentByPosition(t *testing.T) {
	s := NewPageStore("posts")
	page := api.Page{Items: summaries(1, 2), NextPage: intPtr(2)}

	if err := s.Append(0, page); err != nil {
		t.Fatalf("append returned error: %v", err)
	}
	if err := s.Append(0, page); err != nil {
		t.Fatalf("re-append returned error: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 items after duplicate append, got %d", s.Len())
	}
	if s.PageCount() != 1 {
		t.Fatalf("expected 1 page, got %d", s.PageCount())
	}
}

func TestAppend_RejectsOutOfOrder(t *testing.T) {
	s := NewPageStore("posts")
	if err := s.Append(1, api.Page{}); err == nil {
		t.Fatal("expected out-of-order append error")
	}
}

func TestFindBySlug_SurvivesLaterAppends(t *testing.T) {
	s := NewPageStore("posts")
	if err := s.Append(0, api.Page{Items: summaries(1, 2), NextPage: intPtr(2)}); err != nil {
		t.Fatalf("append page 1: %v", err)
	}

	before, ok := s.FindBySlug(slugFor(1))
	if !ok {
		t.Fatal("expected to find item before later append")
	}

	if err := s.Append(1, api.Page{Items: summaries(3, 4), NextPage: nil}); err != nil {
		t.Fatalf("append page 2: %v", err)
	}

	after, ok := s.FindBySlug(slugFor(1))
	if !ok {
		t.Fatal("expected to find item after later append")
	}
	if before.ID != after.ID {
		t.Fatalf("lookup changed across appends: before=%d after=%d", before.ID, after.ID)
	}
	if s.Len() != 4 {
		t.Fatalf("expected 4 flattened items, got %d", s.Len())
	}
}

func TestNextPage_TokenAndExhaustion(t *testing.T) {
	s := NewPageStore("posts")

	next, ok := s.NextPage()
	if !ok || next != 1 {
		t.Fatalf("empty store should fetch page 1, got %d ok=%v", next, ok)
	}

	if err := s.Append(0, api.Page{Items: summaries(1), NextPage: intPtr(2)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	next, ok = s.NextPage()
	if !ok || next != 2 {
		t.Fatalf("expected next page 2, got %d ok=%v", next, ok)
	}
	if s.Exhausted() {
		t.Fatal("store should not be exhausted with a next token present")
	}

	if err := s.Append(1, api.Page{Items: summaries(2), NextPage: nil}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, ok := s.NextPage(); ok {
		t.Fatal("expected exhausted sentinel after nil next token")
	}
	if !s.Exhausted() {
		t.Fatal("expected store to report exhausted")
	}
}

func TestFindByID(t *testing.T) {
	s := NewPageStore("posts")
	if err := s.Append(0, api.Page{Items: summaries(5, 6)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, ok := s.FindByID(6)
	if !ok || got.ID != 6 {
		t.Fatalf("unexpected lookup result: %+v ok=%v", got, ok)
	}
	if _, ok := s.FindByID(99); ok {
		t.Fatal("expected miss for unknown id")
	}
}
