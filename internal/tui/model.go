package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"postgrid/internal/api"
	"postgrid/internal/feedcache"
	"postgrid/internal/feedview"
	"postgrid/internal/nav"
	"postgrid/internal/tui/theme"
)

type Service interface {
	ListPosts(ctx context.Context, page int) (api.Page, error)
	GetPost(ctx context.Context, slug string) (api.Detail, error)
}

type pageFetchedMsg struct {
	seq  int
	page api.Page
}

type pageErrorMsg struct {
	seq int
	err error
}

type detailFetchedMsg struct {
	slug   string
	token  uint64
	detail api.Detail
}

type detailErrorMsg struct {
	slug  string
	token uint64
	err   error
}

type restoreScrollMsg struct {
	gen     int
	attempt int
}

// Options carries the tunables the config layer resolves.
type Options struct {
	RowHeight       int
	Overscan        int
	TriggerDistance int
	FreshFor        time.Duration
	// DirectSlug, when set, boots straight into the standalone view of one
	// post instead of the feed. This is the cold-load path: no overlay, no
	// feed state behind it.
	DirectSlug string
}

type Model struct {
	service Service
	pages   *feedcache.PageStore
	details *feedcache.DetailCache
	pager   *feedview.Pager
	nav     *nav.Navigator
	theme   theme.Theme

	// detailErrs holds the last failed detail fetch per slug. Kept separate
	// from err, which belongs to the feed listing: a broken post must not
	// bleed into the feed's status line.
	detailErrs map[string]error

	rowHeight int
	overscan  int

	width   int
	height  int
	columns int
	cursor  int
	scroll  int

	overlay  viewport.Model
	spin     spinner.Model
	spinning bool

	restoreGen  int
	restorePlan nav.RestorePlan

	directSlug string
	notFound   bool

	status string
	err    error
}

func NewModel(service Service, opts Options) Model {
	if opts.RowHeight < 3 {
		opts.RowHeight = 5
	}
	if opts.Overscan < 0 {
		opts.Overscan = 2
	}
	if opts.TriggerDistance <= 0 {
		opts.TriggerDistance = 40
	}

	pages := feedcache.NewPageStore("posts")
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		service:    service,
		pages:      pages,
		details:    feedcache.NewDetailCache(pages, opts.FreshFor),
		detailErrs: make(map[string]error),
		pager:      feedview.NewPager(opts.TriggerDistance),
		nav:        nav.NewNavigator(),
		theme:      theme.Default(),
		rowHeight:  opts.RowHeight,
		overscan:   opts.Overscan,
		overlay:    viewport.New(0, 0),
		spin:       sp,
		directSlug: opts.DirectSlug,
		columns:    1,
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.service == nil {
		return nil
	}
	if m.directSlug != "" {
		m.nav.Open(m.directSlug, nav.OriginDirect, 0)
		_, token, start := m.details.Request(m.directSlug)
		if !start {
			return m.spin.Tick
		}
		return tea.Batch(m.spin.Tick, fetchDetailCmd(m.service, m.directSlug, token))
	}
	return tea.Batch(m.spin.Tick, m.maybeFetchPage())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.columns = responsiveColumns(msg.Width)
		m.overlay.Width = m.contentWidth()
		m.overlay.Height = m.overlayBodyHeight()
		m.clampScroll()
		m.clampCursor()
		m.syncOverlayContent()
		return m, m.maybeFetchPage()

	case tea.BlurMsg:
		// The terminal losing focus is the analogue of the page being
		// hidden: save the feed position, never restore from here.
		if _, open := m.nav.OverlayOpen(); !open {
			m.nav.VisibilityChanged(true, m.scroll)
		}
		return m, nil
	case tea.FocusMsg:
		m.nav.VisibilityChanged(false, m.scroll)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case pageFetchedMsg:
		if err := m.pages.Append(msg.seq, msg.page); err != nil {
			m.pager.FetchDone(true, err)
			m.err = err
			return m, nil
		}
		m.pager.FetchDone(msg.page.NextPage != nil, nil)
		m.err = nil
		m.status = ""
		// The new page may still leave us inside the trigger zone.
		return m, m.maybeFetchPage()

	case pageErrorMsg:
		m.pager.FetchDone(true, msg.err)
		m.err = msg.err
		m.status = "fetch failed, press r to retry"
		return m, nil

	case detailFetchedMsg:
		if m.details.Resolve(msg.slug, msg.token, msg.detail) {
			delete(m.detailErrs, msg.slug)
		}
		m.syncOverlayContent()
		return m, nil

	case detailErrorMsg:
		// A superseded fetch's failure must not mark a slot a newer request
		// already owns.
		if !m.details.Fail(msg.slug, msg.token) {
			return m, nil
		}
		if m.directSlug == msg.slug && errors.Is(msg.err, api.ErrNotFound) {
			m.notFound = true
			return m, nil
		}
		m.detailErrs[msg.slug] = msg.err
		m.syncOverlayContent()
		return m, nil

	case restoreScrollMsg:
		return m.applyRestore(msg)

	case spinner.TickMsg:
		if !m.anythingLoading() {
			m.spinning = false
			return m, nil
		}
		m.spinning = true
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if slug, open := m.nav.OverlayOpen(); open {
		return m.handleOverlayKey(msg, slug)
	}
	if m.directSlug != "" {
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "r":
			return m.retryDetail(m.directSlug)
		}
		var cmd tea.Cmd
		m.overlay, cmd = m.overlay.Update(msg)
		return m, cmd
	}
	return m.handleFeedKey(msg)
}

func (m Model) handleFeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r":
		m.err = nil
		m.status = ""
		return m, m.maybeFetchPage()
	case "up", "k":
		return m.moveCursor(-m.columns)
	case "down", "j":
		return m.moveCursor(m.columns)
	case "left", "h":
		return m.moveCursor(-1)
	case "right", "l":
		return m.moveCursor(1)
	case "pgup", "ctrl+b":
		return m.moveCursor(-m.columns * m.pageRows())
	case "pgdown", "ctrl+f":
		return m.moveCursor(m.columns * m.pageRows())
	case "g":
		return m.moveCursorTo(0)
	case "G":
		return m.moveCursorTo(m.pages.Len() - 1)
	case "enter":
		item, ok := m.currentItem()
		if !ok {
			return m, nil
		}
		return m.openPost(item.Slug, nav.OriginFeed)
	}
	return m, nil
}

func (m Model) handleOverlayKey(msg tea.KeyMsg, slug string) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc":
		return m.dismissOverlay()
	case "backspace":
		return m.historyBack()
	case "r":
		return m.retryDetail(slug)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		entry := m.details.Get(slug)
		if entry.Detail == nil {
			return m, nil
		}
		related := entry.Detail.Related()
		idx := int(key[0] - '1')
		if idx >= len(related) {
			return m, nil
		}
		return m.openPost(related[idx].Slug, nav.OriginRelated)
	}
	var cmd tea.Cmd
	m.overlay, cmd = m.overlay.Update(msg)
	return m, cmd
}

func (m Model) moveCursor(delta int) (tea.Model, tea.Cmd) {
	return m.moveCursorTo(m.cursor + delta)
}

func (m Model) moveCursorTo(target int) (tea.Model, tea.Cmd) {
	n := m.pages.Len()
	if n == 0 {
		return m, nil
	}
	if target < 0 {
		target = 0
	}
	if target > n-1 {
		target = n - 1
	}
	m.cursor = target
	m.ensureCursorVisible()

	var cmds []tea.Cmd
	if item, ok := m.currentItem(); ok {
		// Resting the cursor on a card is the hover signal: warm the detail
		// cache so opening it is instant.
		if token, start := m.details.Prefetch(item.Slug); start {
			cmds = append(cmds, fetchDetailCmd(m.service, item.Slug, token))
		}
	}
	if cmd := m.maybeFetchPage(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if !m.spinning && m.anythingLoading() {
		cmds = append(cmds, m.spin.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) openPost(slug string, origin nav.Origin) (tea.Model, tea.Cmd) {
	res := m.nav.Open(slug, origin, m.scroll)
	if res.ResetOverlayScroll {
		m.overlay.GotoTop()
	}

	var cmds []tea.Cmd
	_, token, start := m.details.Request(slug)
	if start {
		cmds = append(cmds, fetchDetailCmd(m.service, slug, token))
	}
	m.syncOverlayContent()
	if !m.spinning {
		cmds = append(cmds, m.spin.Tick)
	}
	return m, tea.Batch(cmds...)
}

// retryDetail re-requests one slug's detail after a failed fetch. The error
// is cleared up front so the view drops the failure notice as soon as the
// retry is in flight.
func (m Model) retryDetail(slug string) (tea.Model, tea.Cmd) {
	if _, failed := m.detailErrs[slug]; !failed {
		return m, nil
	}
	delete(m.detailErrs, slug)

	var cmds []tea.Cmd
	_, token, start := m.details.Request(slug)
	if start {
		cmds = append(cmds, fetchDetailCmd(m.service, slug, token))
	}
	m.syncOverlayContent()
	if !m.spinning {
		cmds = append(cmds, m.spin.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) dismissOverlay() (tea.Model, tea.Cmd) {
	plan, ok := m.nav.Dismiss()
	if !ok {
		return m, nil
	}
	return m.startRestore(plan)
}

func (m Model) historyBack() (tea.Model, tea.Cmd) {
	res, ok := m.nav.Back()
	if !ok {
		return m, nil
	}
	if res.Dismissed {
		return m.startRestore(res.Plan)
	}
	if res.ResetOverlayScroll {
		m.overlay.GotoTop()
	}
	var cmds []tea.Cmd
	_, token, start := m.details.Request(res.Slug)
	if start {
		cmds = append(cmds, fetchDetailCmd(m.service, res.Slug, token))
	}
	m.syncOverlayContent()
	return m, tea.Batch(cmds...)
}

// startRestore kicks off the bounded restore sequence. Each dismissal bumps
// the generation so attempts left over from an earlier dismissal are ignored.
func (m Model) startRestore(plan nav.RestorePlan) (tea.Model, tea.Cmd) {
	if len(plan.Delays) == 0 {
		return m, nil
	}
	m.restoreGen++
	m.restorePlan = plan
	return m, restoreAttemptCmd(m.restoreGen, 0, plan.Delays[0])
}

func (m Model) applyRestore(msg restoreScrollMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.restoreGen {
		return m, nil
	}
	target := m.restorePlan.Offset
	if target <= m.maxScroll() {
		m.scroll = target
		return m, m.maybeFetchPage()
	}
	next := msg.attempt + 1
	if next < len(m.restorePlan.Delays) {
		return m, restoreAttemptCmd(msg.gen, next, m.restorePlan.Delays[next])
	}
	// Out of attempts: land as close as the rendered content allows.
	m.scroll = m.maxScroll()
	m.clampCursor()
	return m, m.maybeFetchPage()
}

// maybeFetchPage asks the pager whether the current viewport position warrants
// loading the next page and, if so, issues exactly one fetch command.
func (m Model) maybeFetchPage() tea.Cmd {
	if m.service == nil || m.directSlug != "" {
		return nil
	}
	next, ok := m.pages.NextPage()
	if !ok {
		return nil
	}
	if !m.pager.Observe(m.scroll, m.gridHeight(), m.totalHeight()) {
		return nil
	}
	return fetchPageCmd(m.service, m.pages.PageCount(), next)
}

func (m *Model) ensureCursorVisible() {
	if m.columns < 1 {
		return
	}
	row := m.cursor / m.columns
	top := row * m.rowHeight
	bottom := top + m.rowHeight
	if top < m.scroll {
		m.scroll = top
	}
	if h := m.gridHeight(); bottom > m.scroll+h {
		m.scroll = bottom - h
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

func (m *Model) clampScroll() {
	if m.scroll > m.maxScroll() {
		m.scroll = m.maxScroll()
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

func (m *Model) clampCursor() {
	if n := m.pages.Len(); m.cursor >= n && n > 0 {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) currentItem() (api.Summary, bool) {
	items := m.pages.Items()
	if m.cursor < 0 || m.cursor >= len(items) {
		return api.Summary{}, false
	}
	return items[m.cursor], true
}

func (m Model) rowCount() int {
	if m.columns < 1 {
		return 0
	}
	return (m.pages.Len() + m.columns - 1) / m.columns
}

func (m Model) totalHeight() int {
	return m.rowCount() * m.rowHeight
}

func (m Model) maxScroll() int {
	max := m.totalHeight() - m.gridHeight()
	if max < 0 {
		return 0
	}
	return max
}

// gridHeight is the feed's scrollable viewport in lines: everything between
// the header and the status line.
func (m Model) gridHeight() int {
	h := m.height - 2
	if h < 1 {
		return 1
	}
	return h
}

func (m Model) pageRows() int {
	rows := m.gridHeight() / m.rowHeight
	if rows < 1 {
		return 1
	}
	return rows
}

func (m Model) contentWidth() int {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) overlayBodyHeight() int {
	h := m.height - 5
	if h < 3 {
		h = 3
	}
	return h
}

func (m Model) anythingLoading() bool {
	if m.pager.State() == feedview.PagerFetching {
		return true
	}
	if slug, open := m.nav.OverlayOpen(); open {
		return m.details.Get(slug).Fetching
	}
	if m.directSlug != "" {
		return m.details.Get(m.directSlug).Fetching
	}
	return false
}

// responsiveColumns maps terminal width to grid columns the way narrow,
// medium, and wide breakpoints would.
func responsiveColumns(width int) int {
	switch {
	case width < 80:
		return 1
	case width < 120:
		return 2
	default:
		return 3
	}
}

func fetchPageCmd(service Service, seq, page int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		result, err := service.ListPosts(ctx, page)
		if err != nil {
			return pageErrorMsg{seq: seq, err: err}
		}
		return pageFetchedMsg{seq: seq, page: result}
	}
}

func fetchDetailCmd(service Service, slug string, token uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		detail, err := service.GetPost(ctx, slug)
		if err != nil {
			return detailErrorMsg{slug: slug, token: token, err: err}
		}
		return detailFetchedMsg{slug: slug, token: token, detail: detail}
	}
}

func restoreAttemptCmd(gen, attempt int, delay time.Duration) tea.Cmd {
	if delay <= 0 {
		return func() tea.Msg {
			return restoreScrollMsg{gen: gen, attempt: attempt}
		}
	}
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return restoreScrollMsg{gen: gen, attempt: attempt}
	})
}
