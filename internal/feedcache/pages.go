package feedcache

import (
	"fmt"

	"postgrid/internal/api"
)

// PageStore holds the ordered pages fetched for one listing key. Pages are
// immutable once appended; the flattened item sequence only ever grows. The
// store is confined to the TUI update loop and needs no locking.
type PageStore struct {
	key      string
	pages    []api.Page
	items    []api.Summary
	next     *int
	hasPages bool
}

// NewPageStore creates an empty store for one listing key. The feed uses a
// single constant key, but the store does not assume that.
func NewPageStore(key string) *PageStore {
	return &PageStore{key: key}
}

func (s *PageStore) Key() string { return s.key }

// Append inserts a fetched page at sequence position seq (zero-based, matching
// fetch order). Re-appending an already-stored position is a no-op, which
// makes retried deliveries idempotent. Appending ahead of the stored sequence
// is a caller error: the pagination controller must serialize fetch-then-append.
func (s *PageStore) Append(seq int, page api.Page) error {
	if seq < len(s.pages) {
		return nil
	}
	if seq > len(s.pages) {
		return fmt.Errorf("append page out of order: have %d pages, got seq %d", len(s.pages), seq)
	}
	s.pages = append(s.pages, page)
	s.items = append(s.items, page.Items...)
	s.next = page.NextPage
	s.hasPages = true
	return nil
}

// Items returns the flattened concatenation of all appended pages in fetch
// order. The returned slice is shared; callers must not mutate it.
func (s *PageStore) Items() []api.Summary {
	return s.items
}

func (s *PageStore) Len() int { return len(s.items) }

func (s *PageStore) PageCount() int { return len(s.pages) }

// FindBySlug scans all pages for the first summary with the given slug. Linear
// scan is fine here: this runs on cache hydration, not per frame.
func (s *PageStore) FindBySlug(slug string) (api.Summary, bool) {
	for _, item := range s.items {
		if item.Slug == slug {
			return item, true
		}
	}
	return api.Summary{}, false
}

// FindByID scans all pages for the first summary with the given identifier.
func (s *PageStore) FindByID(id int64) (api.Summary, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return api.Summary{}, false
}

// NextPage returns the page number for the next fetch. ok is false once the
// listing is exhausted. Before any page has been appended the next fetch is
// page 1.
func (s *PageStore) NextPage() (int, bool) {
	if !s.hasPages {
		return 1, true
	}
	if s.next == nil {
		return 0, false
	}
	return *s.next, true
}

// Exhausted reports whether the last appended page carried no next-page token.
func (s *PageStore) Exhausted() bool {
	return s.hasPages && s.next == nil
}
