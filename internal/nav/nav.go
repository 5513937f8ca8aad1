// Package nav decides how an "open item" intent is presented and keeps the
// synthetic history stack, background scroll lock, and scroll restoration
// consistent across overlay round-trips.
package nav

import "time"

// Origin describes how an open-item intent was produced.
type Origin int

const (
	// OriginFeed is an in-app activation of a feed card.
	OriginFeed Origin = iota
	// OriginRelated is an activation of a related item inside an open overlay.
	OriginRelated
	// OriginDirect is a cold load of an item route (deep link, refresh).
	OriginDirect
)

// Presentation is the resolved rendering mode for an intent.
type Presentation int

const (
	PresentOverlay Presentation = iota
	PresentFullPage
)

// Resolve maps an intent to a presentation. It is a pure function of the
// trigger origin and the current route stack: in-app activations layer an
// overlay over whatever is below, direct loads always get the standalone
// view.
func Resolve(origin Origin, stack []Route) Presentation {
	if origin == OriginDirect {
		return PresentFullPage
	}
	return PresentOverlay
}

type RouteKind int

const (
	RouteFeed RouteKind = iota
	RoutePost
)

// Route is one addressable location: the feed root or a per-item route.
type Route struct {
	Kind RouteKind
	Slug string
}

// RestorePlan is a bounded multi-attempt scroll restoration. The immediate
// attempt plus staggered retries tolerate the feed's asynchronous re-render
// after data changed while the overlay was up.
type RestorePlan struct {
	Offset int
	Delays []time.Duration
}

func defaultRestoreDelays() []time.Duration {
	return []time.Duration{0, 50 * time.Millisecond, 100 * time.Millisecond}
}

// OpenResult tells the view layer what to do with a resolved intent.
type OpenResult struct {
	Presentation Presentation
	Slug         string
	// ResetOverlayScroll is set when the overlay should jump back to its top,
	// i.e. on open and on every in-overlay slug change. The overlay shell
	// itself is never torn down between related-item navigations.
	ResetOverlayScroll bool
}

// Navigator owns the route stack for one session. It is confined to the
// update loop, like the caches.
type Navigator struct {
	stack       []Route
	overlayOpen bool
	overlaySlug string
	savedScroll int
	hasSaved    bool
	locked      bool
}

func NewNavigator() *Navigator {
	return &Navigator{stack: []Route{{Kind: RouteFeed}}}
}

// Current returns the route on top of the stack.
func (n *Navigator) Current() Route {
	return n.stack[len(n.stack)-1]
}

func (n *Navigator) Depth() int { return len(n.stack) }

// OverlayOpen reports whether an overlay is showing, and for which slug.
func (n *Navigator) OverlayOpen() (string, bool) {
	return n.overlaySlug, n.overlayOpen
}

// Locked reports whether background feed scrolling is locked.
func (n *Navigator) Locked() bool { return n.locked }

// Open handles an open-item intent. feedScroll is the feed's current scroll
// offset, captured when (and only when) a fresh overlay opens over the feed.
func (n *Navigator) Open(slug string, origin Origin, feedScroll int) OpenResult {
	pres := Resolve(origin, n.stack)
	n.stack = append(n.stack, Route{Kind: RoutePost, Slug: slug})

	if pres == PresentFullPage {
		return OpenResult{Presentation: pres, Slug: slug}
	}

	if !n.overlayOpen {
		n.savedScroll = feedScroll
		n.hasSaved = true
		n.locked = true
		n.overlayOpen = true
	}
	n.overlaySlug = slug
	return OpenResult{Presentation: pres, Slug: slug, ResetOverlayScroll: true}
}

// Dismiss closes the overlay outright (explicit close or Escape), unwinding
// every item route pushed while it was up. The returned plan restores the
// feed scroll offset captured at open time; ok is false when no overlay was
// showing.
func (n *Navigator) Dismiss() (RestorePlan, bool) {
	if !n.overlayOpen {
		return RestorePlan{}, false
	}
	for len(n.stack) > 1 && n.stack[len(n.stack)-1].Kind == RoutePost {
		n.stack = n.stack[:len(n.stack)-1]
	}
	return n.closeOverlay()
}

// BackResult describes what a single history-back step did.
type BackResult struct {
	// Dismissed is set when the back step closed the overlay; Plan then holds
	// the scroll restoration.
	Dismissed bool
	Plan      RestorePlan
	// Slug is the item the overlay now shows when the back step landed on an
	// earlier item route.
	Slug               string
	ResetOverlayScroll bool
}

// Back pops one history entry. Landing on an earlier item route swaps the
// overlay's slug in place; landing on the feed root closes the overlay.
func (n *Navigator) Back() (BackResult, bool) {
	if len(n.stack) <= 1 {
		return BackResult{}, false
	}
	n.stack = n.stack[:len(n.stack)-1]
	top := n.Current()

	if top.Kind == RoutePost && n.overlayOpen {
		n.overlaySlug = top.Slug
		return BackResult{Slug: top.Slug, ResetOverlayScroll: true}, true
	}

	if n.overlayOpen {
		plan, _ := n.closeOverlay()
		return BackResult{Dismissed: true, Plan: plan}, true
	}
	return BackResult{}, true
}

// VisibilityChanged records the feed scroll offset when the session is
// hidden. It never dismisses anything and never produces a restore plan;
// only explicit navigation does.
func (n *Navigator) VisibilityChanged(hidden bool, feedScroll int) {
	if hidden && !n.overlayOpen {
		n.savedScroll = feedScroll
		n.hasSaved = true
	}
}

func (n *Navigator) closeOverlay() (RestorePlan, bool) {
	n.overlayOpen = false
	n.overlaySlug = ""
	n.locked = false
	plan := RestorePlan{Offset: n.savedScroll, Delays: defaultRestoreDelays()}
	if !n.hasSaved {
		plan.Delays = nil
	}
	return plan, true
}
