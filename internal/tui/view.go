package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"postgrid/internal/api"
	"postgrid/internal/feedcache"
	"postgrid/internal/feedview"
	"postgrid/internal/render/body"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}
	if m.notFound {
		return m.viewNotFound()
	}
	if m.directSlug != "" {
		return m.viewStandalone()
	}
	if slug, open := m.nav.OverlayOpen(); open {
		return m.viewOverlay(slug)
	}
	return m.viewFeed()
}

func (m Model) viewFeed() string {
	var b strings.Builder
	b.WriteString(m.feedHeader())
	b.WriteByte('\n')

	items := m.pages.Items()
	if len(items) == 0 {
		b.WriteString(m.emptyFeedBody())
	} else {
		b.WriteString(strings.Join(m.gridLines(items), "\n"))
	}
	b.WriteByte('\n')
	b.WriteString(m.statusLine())
	return b.String()
}

func (m Model) feedHeader() string {
	title := m.theme.Title.Render("postgrid")
	pill := m.theme.StatusPill.Render("feed")
	spin := ""
	if m.spinning {
		spin = " " + m.spin.View()
	}
	return title + " " + pill + spin
}

func (m Model) emptyFeedBody() string {
	h := m.gridHeight()
	lines := make([]string, 0, h)
	switch m.pager.State() {
	case feedview.PagerFetching:
		// First page still loading: show skeleton cards instead of a blank
		// screen.
		lines = append(lines, m.skeletonRow()...)
	case feedview.PagerExhausted:
		lines = append(lines, m.theme.CardMeta.Render("the feed is empty"))
	default:
		lines = append(lines, m.theme.CardMeta.Render("nothing loaded yet, press r"))
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines[:h], "\n")
}

func (m Model) skeletonRow() []string {
	w := m.cardWidth()
	bar := m.theme.Skeleton.Render(strings.Repeat("░", maxInt(w-4, 4)))
	cards := make([]string, 0, m.columns)
	for c := 0; c < m.columns; c++ {
		inner := make([]string, m.rowHeight-2)
		for i := range inner {
			inner[i] = bar
		}
		cards = append(cards, m.theme.CardBox.Render(strings.Join(inner, "\n")))
	}
	return strings.Split(lipgloss.JoinHorizontal(lipgloss.Top, cards...), "\n")
}

// gridLines renders only the rows inside the visible window and slices the
// result down to the viewport. Work is proportional to what is on screen, not
// to how many pages have been loaded.
func (m Model) gridLines(items []api.Summary) []string {
	rows := feedview.Partition(items, m.columns)
	win := feedview.VisibleWindow(len(rows), m.scroll, m.gridHeight(), m.rowHeight, m.overscan)

	lines := make([]string, 0, (win.End-win.Start)*m.rowHeight)
	for r := win.Start; r < win.End; r++ {
		lines = append(lines, m.renderRow(rows[r], r)...)
	}

	top := m.scroll - win.OffsetOf(win.Start)
	if top < 0 {
		top = 0
	}
	if top > len(lines) {
		top = len(lines)
	}
	end := top + m.gridHeight()
	if end > len(lines) {
		end = len(lines)
	}
	out := lines[top:end]
	for len(out) < m.gridHeight() {
		out = append(out, "")
	}
	return out
}

// renderRow renders one grid row as exactly rowHeight terminal lines.
func (m Model) renderRow(row []api.Summary, rowIdx int) []string {
	cards := make([]string, 0, m.columns)
	for c, item := range row {
		active := rowIdx*m.columns+c == m.cursor
		cards = append(cards, m.renderCard(item, active))
	}
	joined := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	return fitLines(strings.Split(joined, "\n"), m.rowHeight)
}

func (m Model) renderCard(item api.Summary, active bool) string {
	w := m.cardWidth() - 4
	if w < 8 {
		w = 8
	}
	inner := make([]string, 0, m.rowHeight-2)
	inner = append(inner, m.theme.CardTitle.Render(truncate(item.Title, w)))
	inner = append(inner, m.theme.CardMeta.Render(truncate(item.Author+" · "+item.PublishedAt.Format("2 Jan 2006"), w)))
	for _, line := range body.Wrap(item.ShortDesc, w) {
		if len(inner) >= m.rowHeight-2 {
			break
		}
		inner = append(inner, m.theme.CardDesc.Render(line))
	}
	inner = fitLines(inner, m.rowHeight-2)
	return m.theme.RenderCard(active, strings.Join(inner, "\n"))
}

func (m Model) cardWidth() int {
	w := m.width / m.columns
	if w < 12 {
		w = 12
	}
	return w
}

func (m Model) statusLine() string {
	var state string
	switch m.pager.State() {
	case feedview.PagerFetching:
		state = m.theme.StateLoad.Render("loading more…")
	case feedview.PagerExhausted:
		state = m.theme.StateIdle.Render("end of feed")
	default:
		if m.err != nil {
			state = m.theme.StateWarn.Render(m.err.Error())
		} else {
			state = m.theme.StateIdle.Render("idle")
		}
	}
	counts := m.theme.CardMeta.Render(
		fmt.Sprintf("%d posts · %d pages", m.pages.Len(), m.pages.PageCount()),
	)
	hints := m.theme.CardMeta.Render("↑↓←→ move · enter open · q quit")
	if m.status != "" {
		hints = m.theme.CardMeta.Render(m.status)
	}
	return state + "  " + counts + "  " + hints
}

func (m Model) viewOverlay(slug string) string {
	entry := m.details.Get(slug)

	var b strings.Builder
	b.WriteString(m.theme.Title.Render("postgrid"))
	b.WriteString(" ")
	b.WriteString(m.theme.StatusPill.Render("post/" + slug))
	if m.spinning {
		b.WriteString(" " + m.spin.View())
	}
	b.WriteByte('\n')

	b.WriteString(m.theme.OverlayTitle.Render(truncate(entry.Summary.Title, m.contentWidth())))
	b.WriteByte('\n')
	byline := entry.Summary.Author
	if !entry.Summary.PublishedAt.IsZero() {
		byline += " · " + entry.Summary.PublishedAt.Format("2 Jan 2006")
	}
	if entry.State == feedcache.StateRevalidating {
		byline += " · refreshing"
	}
	b.WriteString(m.theme.OverlayByline.Render(byline))
	b.WriteByte('\n')

	hints := "esc close · backspace back · 1-9 related · j/k scroll"
	if err := m.detailErrs[slug]; err != nil {
		b.WriteString(m.theme.StateWarn.Render("couldn't load this post: " + err.Error()))
		b.WriteByte('\n')
		hints = "r retry · " + hints
	}

	b.WriteString(m.overlay.View())
	b.WriteByte('\n')
	b.WriteString(m.theme.CardMeta.Render(hints))
	return b.String()
}

func (m Model) viewStandalone() string {
	entry := m.details.Get(m.directSlug)

	var b strings.Builder
	b.WriteString(m.theme.Title.Render("postgrid"))
	b.WriteString(" ")
	b.WriteString(m.theme.StatusPill.Render("post/" + m.directSlug))
	if m.spinning {
		b.WriteString(" " + m.spin.View())
	}
	b.WriteByte('\n')
	b.WriteString(m.theme.OverlayTitle.Render(truncate(entry.Summary.Title, m.contentWidth())))
	b.WriteByte('\n')
	if entry.Summary.Author != "" {
		b.WriteString(m.theme.OverlayByline.Render(entry.Summary.Author))
	}
	b.WriteByte('\n')

	hints := "q quit · j/k scroll"
	if err := m.detailErrs[m.directSlug]; err != nil {
		b.WriteString(m.theme.StateWarn.Render("couldn't load this post: " + err.Error()))
		b.WriteByte('\n')
		hints = "r retry · " + hints
	}

	b.WriteString(m.overlay.View())
	b.WriteByte('\n')
	b.WriteString(m.theme.CardMeta.Render(hints))
	return b.String()
}

func (m Model) viewNotFound() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("postgrid"))
	b.WriteByte('\n')
	b.WriteString(m.theme.StateWarn.Render(fmt.Sprintf("post %q not found", m.directSlug)))
	b.WriteByte('\n')
	b.WriteString(m.theme.CardMeta.Render("q quit"))
	return b.String()
}

// syncOverlayContent rebuilds the overlay viewport from the detail cache.
// Placeholder entries render the summary plus a skeleton body so the overlay
// is useful before the fetch lands.
func (m *Model) syncOverlayContent() {
	slug, open := m.nav.OverlayOpen()
	if !open {
		if m.directSlug == "" {
			return
		}
		slug = m.directSlug
	}

	entry := m.details.Get(slug)
	w := m.contentWidth()

	var lines []string
	switch {
	case entry.Detail != nil:
		lines = body.Lines(entry.Detail.Content, w)
		related := entry.Detail.Related()
		if len(related) > 0 {
			lines = append(lines, "", m.theme.SectionHead.Render("Related"))
			for i, rel := range related {
				if i >= 9 {
					break
				}
				lines = append(lines, fmt.Sprintf(" %d. %s", i+1,
					m.theme.CardTitle.Render(truncate(rel.Title, w-6))))
			}
		}
	case entry.State == feedcache.StatePlaceholder:
		lines = body.Wrap(entry.Summary.ShortDesc, w)
		lines = append(lines, "", m.theme.Skeleton.Render(strings.Repeat("░", maxInt(w/2, 8))))
	default:
		lines = []string{m.theme.CardMeta.Render("loading…")}
	}
	m.overlay.SetContent(strings.Join(lines, "\n"))
}

func truncate(s string, w int) string {
	if w < 1 {
		return ""
	}
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w == 1 {
		return "…"
	}
	return string(r[:w-1]) + "…"
}

func fitLines(lines []string, h int) []string {
	if len(lines) > h {
		return lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return lines
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
