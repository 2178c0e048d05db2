package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/ballpit/internal/physics"
)

var bodyStyles = map[physics.Color]lipgloss.Style{
	physics.Red:    lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f")),
	physics.Blue:   lipgloss.NewStyle().Foreground(lipgloss.Color("#5f87ff")),
	physics.Yellow: lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd75f")),
}

// inkWall is the canvas ink used for the arena border.
const inkWall = 1000

type styles struct {
	wall   lipgloss.Style
	panel  lipgloss.Style
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	graph  lipgloss.Style
	help   lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		wall:   lipgloss.NewStyle().Foreground(t.Border),
		panel:  lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(t.Muted).Padding(1, 2).Width(42),
		header: lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		label:  lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		value:  lipgloss.NewStyle().Foreground(t.Text),
		graph:  lipgloss.NewStyle().Foreground(t.Border).Padding(1, 0),
		help:   lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		ok:     lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		warn:   lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
	}
}

func (s styles) paint(ink int, text string) string {
	if ink == inkWall {
		return s.wall.Render(text)
	}
	if st, ok := bodyStyles[physics.Color(ink)]; ok && ink >= 0 {
		return st.Render(text)
	}
	return text
}

// SparklineChart renders a mini sparkline from values
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	// Show the most recent values that fit.
	if len(values) > width {
		values = values[len(values)-width:]
	}

	var result strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))
		result.WriteRune(chars[idx])
	}
	return result.String()
}
