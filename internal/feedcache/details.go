package feedcache

import (
	"time"

	"postgrid/internal/api"
)

// State tags a detail cache entry.
type State int

const (
	// StateAbsent means the cache holds nothing for the slug.
	StateAbsent State = iota
	// StatePlaceholder means the entry carries only summary data, synthesized
	// from the page store while the first detail fetch is in flight.
	StatePlaceholder
	// StateFresh means a full detail record is present.
	StateFresh
	// StateRevalidating means a full (but expired) detail record is being
	// served while a background refresh is in flight.
	StateRevalidating
)

// Entry is a synchronous snapshot of one cache slot.
type Entry struct {
	State     State
	Summary   api.Summary
	Detail    *api.Detail
	FetchedAt time.Time
	Fetching  bool
}

// DefaultFreshFor is how long a fetched detail is reusable without a refresh.
const DefaultFreshFor = 5 * time.Minute

type slot struct {
	hasSummary bool
	summary    api.Summary
	detail     *api.Detail
	fetchedAt  time.Time
	inflight   uint64 // 0 when no fetch is in flight
}

// DetailCache is the per-slug detail cache. Like the PageStore it is confined
// to the update loop: no locking, but every fetch is tagged with a sequence
// token so that late responses can never clobber a newer request's slot.
type DetailCache struct {
	store    *PageStore
	slots    map[string]*slot
	freshFor time.Duration
	nowFn    func() time.Time
	seq      uint64
}

func NewDetailCache(store *PageStore, freshFor time.Duration) *DetailCache {
	if freshFor <= 0 {
		freshFor = DefaultFreshFor
	}
	return &DetailCache{
		store:    store,
		slots:    make(map[string]*slot),
		freshFor: freshFor,
		nowFn:    time.Now,
	}
}

// SetNowFunc overrides the cache clock. Test hook.
func (c *DetailCache) SetNowFunc(nowFn func() time.Time) {
	if nowFn != nil {
		c.nowFn = nowFn
	}
}

// Get returns the current entry for slug without side effects.
func (c *DetailCache) Get(slug string) Entry {
	s, ok := c.slots[slug]
	if !ok {
		return Entry{State: StateAbsent}
	}
	return c.snapshot(s)
}

// Request returns the current entry for slug, seeding a placeholder from the
// page store when the slot is empty, and decides whether the caller should
// start a network fetch. When start is true the caller must run the fetch and
// deliver its result through Resolve or Fail with the returned token. When a
// fetch is already in flight, callers attach to it: start is false and token
// is the in-flight token.
func (c *DetailCache) Request(slug string) (entry Entry, token uint64, start bool) {
	s, ok := c.slots[slug]
	if !ok {
		s = &slot{}
		if summary, found := c.store.FindBySlug(slug); found {
			s.summary = summary
			s.hasSummary = true
		}
		c.slots[slug] = s
	}

	if s.inflight != 0 {
		return c.snapshot(s), s.inflight, false
	}
	if s.detail != nil && c.nowFn().Sub(s.fetchedAt) < c.freshFor {
		return c.snapshot(s), 0, false
	}

	c.seq++
	s.inflight = c.seq
	return c.snapshot(s), s.inflight, true
}

// Prefetch is Request for intent signals (cursor hover). It never downgrades a
// fresher slot: a fresh-within-window or in-flight entry stays untouched and
// no fetch starts.
func (c *DetailCache) Prefetch(slug string) (token uint64, start bool) {
	_, token, start = c.Request(slug)
	return token, start
}

// Resolve applies a completed fetch. The result is accepted only when token
// still identifies the slot's in-flight fetch; a superseded response is
// silently discarded so it can never overwrite a newer request's data.
func (c *DetailCache) Resolve(slug string, token uint64, detail api.Detail) bool {
	s, ok := c.slots[slug]
	if !ok || s.inflight == 0 || s.inflight != token {
		return false
	}
	d := detail
	s.detail = &d
	s.summary = d.Summary
	s.hasSummary = true
	s.fetchedAt = c.nowFn()
	s.inflight = 0
	return true
}

// Fail rolls the slot back to its pre-fetch state. A previously fetched detail
// (revalidation failure) stays served; a placeholder stays a placeholder; an
// empty slot is dropped so the next Request starts clean.
func (c *DetailCache) Fail(slug string, token uint64) bool {
	s, ok := c.slots[slug]
	if !ok || s.inflight == 0 || s.inflight != token {
		return false
	}
	s.inflight = 0
	if s.detail == nil && !s.hasSummary {
		delete(c.slots, slug)
	}
	return true
}

func (c *DetailCache) snapshot(s *slot) Entry {
	e := Entry{
		Summary:   s.summary,
		FetchedAt: s.fetchedAt,
		Fetching:  s.inflight != 0,
	}
	switch {
	case s.detail != nil:
		e.Detail = s.detail
		e.Summary = s.detail.Summary
		if s.inflight != 0 {
			e.State = StateRevalidating
		} else {
			e.State = StateFresh
		}
	case s.hasSummary:
		e.State = StatePlaceholder
	default:
		e.State = StateAbsent
	}
	return e
}
