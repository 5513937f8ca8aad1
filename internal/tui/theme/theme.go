package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Title      lipgloss.Style
	StatusPill lipgloss.Style
	CardTitle  lipgloss.Style
	CardDesc   lipgloss.Style
	CardMeta   lipgloss.Style
	CardBox    lipgloss.Style
	CardActive lipgloss.Style
	Skeleton   lipgloss.Style

	OverlayBox    lipgloss.Style
	OverlayTitle  lipgloss.Style
	OverlayByline lipgloss.Style
	SectionHead   lipgloss.Style

	StateIdle lipgloss.Style
	StateWarn lipgloss.Style
	StateLoad lipgloss.Style
}

func Default() Theme {
	cpMauve := lipgloss.Color("#cba6f7")
	cpRed := lipgloss.Color("#f38ba8")
	cpPeach := lipgloss.Color("#fab387")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpTeal := lipgloss.Color("#94e2d5")
	cpLavender := lipgloss.Color("#b4befe")
	cpText := lipgloss.Color("#cdd6f4")
	cpSubtext0 := lipgloss.Color("#a6adc8")
	cpSubtext1 := lipgloss.Color("#bac2de")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpSurface0 := lipgloss.Color("#313244")
	cpSurface1 := lipgloss.Color("#45475a")

	return Theme{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		StatusPill: lipgloss.NewStyle().Foreground(cpLavender).Background(cpSurface0).Padding(0, 1),
		CardTitle:  lipgloss.NewStyle().Bold(true).Foreground(cpText),
		CardDesc:   lipgloss.NewStyle().Foreground(cpSubtext1),
		CardMeta:   lipgloss.NewStyle().Foreground(cpOverlay1),
		CardBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cpSurface1).
			Padding(0, 1),
		CardActive: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cpLavender).
			Padding(0, 1),
		Skeleton: lipgloss.NewStyle().Foreground(cpSurface1),

		OverlayBox: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(cpMauve).
			Padding(1, 2),
		OverlayTitle:  lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		OverlayByline: lipgloss.NewStyle().Italic(true).Foreground(cpSubtext0),
		SectionHead:   lipgloss.NewStyle().Bold(true).Foreground(cpTeal),

		StateIdle: lipgloss.NewStyle().Foreground(cpGreen),
		StateWarn: lipgloss.NewStyle().Foreground(cpRed),
		StateLoad: lipgloss.NewStyle().Foreground(cpPeach),
	}
}

// RenderCard wraps the already-styled card body in a border, swapping to the
// highlighted border when the cursor is on it.
func (t Theme) RenderCard(active bool, body string) string {
	if active {
		return t.CardActive.Render(body)
	}
	return t.CardBox.Render(body)
}
