package feedview

// PagerState is the pagination controller's current phase.
type PagerState int

const (
	PagerIdle PagerState = iota
	PagerFetching
	PagerExhausted
)

func (s PagerState) String() string {
	switch s {
	case PagerIdle:
		return "idle"
	case PagerFetching:
		return "fetching"
	case PagerExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// DefaultTriggerDistance is how close to the end of the content (in scroll
// units) the viewport must get before the next page fetch fires.
const DefaultTriggerDistance = 800

// Pager turns raw scroll positions into at-most-one-in-flight page fetches.
// Observe is a cheap synchronous comparison safe to run on every scroll
// event; it reads nothing beyond the arguments it is handed.
type Pager struct {
	triggerDistance int
	state           PagerState
}

func NewPager(triggerDistance int) *Pager {
	if triggerDistance <= 0 {
		triggerDistance = DefaultTriggerDistance
	}
	return &Pager{triggerDistance: triggerDistance}
}

func (p *Pager) State() PagerState { return p.state }

// Observe checks whether the scroll position has entered the trigger zone and,
// if the controller is idle, transitions to fetching and returns true exactly
// once. While a fetch is in flight or the listing is exhausted it returns
// false no matter how many times the zone is re-entered.
func (p *Pager) Observe(scrollOffset, viewportSize, totalHeight int) bool {
	if p.state != PagerIdle {
		return false
	}
	if scrollOffset+viewportSize < totalHeight-p.triggerDistance {
		return false
	}
	p.state = PagerFetching
	return true
}

// FetchDone resolves the in-flight fetch. hasNext=false moves the controller
// to its terminal exhausted state; a failed fetch returns to idle so the next
// trigger-zone entry can retry. The controller can never be left stuck in
// fetching.
func (p *Pager) FetchDone(hasNext bool, err error) {
	if p.state != PagerFetching {
		return
	}
	if err != nil {
		p.state = PagerIdle
		return
	}
	if !hasNext {
		p.state = PagerExhausted
		return
	}
	p.state = PagerIdle
}
