package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	canvas lipgloss.Style
	stats  lipgloss.Style
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	graph  lipgloss.Style
	help   lipgloss.Style

	running   lipgloss.Style
	paused    lipgloss.Style
	converged lipgloss.Style
	failed    lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		canvas: lipgloss.NewStyle().Padding(1, 2).Foreground(t.Primary),
		stats: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(48),
		header:    lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		label:     lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		value:     lipgloss.NewStyle().Foreground(t.Text),
		graph:     lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
		help:      lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		running:   lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		paused:    lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		converged: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		failed:    lipgloss.NewStyle().Bold(true).Foreground(t.Error),
	}
}

// ProgressBar renders a filled bar for a fraction in [0, 1].
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Sparkline renders values as a single row of block glyphs, sampling to
// at most width glyphs.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := max(len(values)/width, 1)
	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		idx := int((values[i*step] - lo) / rng * float64(len(chars)-1))
		b.WriteRune(chars[max(0, min(idx, len(chars)-1))])
	}
	return b.String()
}
