package viz

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/radtrans/internal/equilibrium"
)

const (
	canvasWidth  = 40
	canvasHeight = 20
	tickRate     = time.Second / 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Factory builds a fresh solver. The live view calls it on start and on
// every reset.
type Factory func() (*equilibrium.Solver, error)

// Model steps an equilibrium solver once per tick and renders the
// temperature profile next to the run statistics.
type Model struct {
	name      string
	factory   Factory
	solver    *equilibrium.Solver
	pressures []float64
	maxIter   int

	olr      []float64
	err      error
	running  bool
	playHead int // -1 follows the solver, otherwise an index into History
	showHelp bool
	theme    int
	styles   styles
	canvas   *Canvas
}

// NewModel builds the first solver and returns a running view.
func NewModel(name string, maxIterations int, factory Factory) (Model, error) {
	m := Model{
		name:     name,
		factory:  factory,
		maxIter:  maxIterations,
		running:  true,
		playHead: -1,
		canvas:   NewCanvas(canvasWidth, canvasHeight),
	}
	m.SetTheme(Themes[0].Name)
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// SetTheme selects a theme by name.
func (m *Model) SetTheme(name string) {
	m.theme = themeIndex(name)
	m.styles = newStyles(Themes[m.theme])
}

// Solver returns the solver currently driven by the view.
func (m Model) Solver() *equilibrium.Solver { return m.solver }

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.err = m.reset()
		case "n":
			if !m.running {
				m.step()
			}
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "t":
			m.SetTheme(Themes[(m.theme+1)%len(Themes)].Name)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && m.playHead == -1 {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) reset() error {
	s, err := m.factory()
	if err != nil {
		return err
	}
	m.solver = s
	m.pressures = s.Column().Pressure
	m.olr = m.olr[:0]
	m.playHead = -1
	return nil
}

// step advances the solver once. Finished runs are left as they are.
func (m *Model) step() {
	if m.solver == nil || m.err != nil || m.solver.Status() != equilibrium.StatusIterating {
		return
	}
	it, err := m.solver.Step()
	if err != nil {
		if !errors.Is(err, equilibrium.ErrAlreadyFinished) {
			m.err = err
		}
		return
	}
	m.olr = append(m.olr, it.OutgoingFlux())
}

// scrub moves the replay head through the profile history. Moving past
// the newest profile returns to following the solver.
func (m *Model) scrub(dir int) {
	if m.solver == nil {
		return
	}
	n := len(m.solver.Result().History)
	if n == 0 {
		return
	}
	m.running = false
	if m.playHead == -1 {
		m.playHead = n - 1
	}
	m.playHead += dir
	switch {
	case m.playHead < 0:
		m.playHead = 0
	case m.playHead >= n:
		m.playHead = -1
	}
}

// profile returns the profile on display and its history index.
func (m Model) profile() ([]float64, int) {
	hist := m.solver.Result().History
	if len(hist) == 0 {
		return nil, 0
	}
	if m.playHead >= 0 && m.playHead < len(hist) {
		return hist[m.playHead], m.playHead
	}
	return hist[len(hist)-1], len(hist) - 1
}

func (m Model) statusLine() string {
	st := m.styles
	switch {
	case m.err != nil:
		return st.failed.Render("FAILED")
	case m.playHead >= 0:
		return st.paused.Render(fmt.Sprintf("REPLAY %d", m.playHead))
	case m.solver.Status() == equilibrium.StatusConverged:
		return st.converged.Render("CONVERGED")
	case m.solver.Status() == equilibrium.StatusExhausted:
		return st.failed.Render("EXHAUSTED")
	case !m.running:
		return st.paused.Render("PAUSED")
	default:
		return st.running.Render("ITERATING")
	}
}

func (m Model) View() string {
	if m.solver == nil {
		if m.err != nil {
			return m.styles.failed.Render("error: "+m.err.Error()) + "\n"
		}
		return ""
	}
	st := m.styles
	res := m.solver.Result()
	temps, index := m.profile()

	tMin, tMax := temperatureRange(res.History)
	m.canvas.Clear()
	m.canvas.Profile(m.pressures, temps, tMin, tMax)
	axis := st.label.UnsetWidth().Render(fmt.Sprintf("%.0f K%s%.0f K", tMin,
		strings.Repeat(" ", max(canvasWidth-12, 1)), tMax))
	canvasView := st.canvas.Render(m.canvas.String() + axis)

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.statusLine() + "\n\n")

	if len(res.MaxChange) > 1 {
		chart := asciigraph.Plot(logSeries(res.MaxChange),
			asciigraph.Height(5), asciigraph.Width(32), asciigraph.Caption("log10 max |dT|"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Iteration", fmt.Sprintf("%d / %d", index, m.maxIter))
	if m.maxIter > 0 {
		row("Budget", ProgressBar(float64(res.Iterations)/float64(m.maxIter), 20))
	}
	if n := len(res.MaxChange); n > 0 {
		row("max |dT|", fmt.Sprintf("%.3g K", res.MaxChange[n-1]))
	}
	if n := len(res.Imbalance); n > 0 {
		row("Imbalance", fmt.Sprintf("%.2e", res.Imbalance[n-1]))
	}
	if n := len(m.olr); n > 0 {
		row("OLR", fmt.Sprintf("%.4g W/m2", m.olr[n-1]))
		row("", Sparkline(m.olr, 24))
	}
	if len(temps) > 0 {
		row("T bottom", fmt.Sprintf("%.1f K", temps[0]))
		row("T top", fmt.Sprintf("%.1f K", temps[len(temps)-1]))
	}

	if len(res.Metrics) > 0 {
		s.WriteString("\nMETRICS\n")
		names := make([]string, 0, len(res.Metrics))
		for k := range res.Metrics {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			row(k, fmt.Sprintf("%.4g", res.Metrics[k]))
		}
	}
	if m.err != nil {
		s.WriteString("\n" + st.failed.Render(m.err.Error()) + "\n")
	}

	s.WriteString(st.help.Render("SP:Pause N:Step R:Reset Q:Quit\nT:Theme  [ ]:Replay ?:Help"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))

	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume iteration   ║
║  N        - Single step while paused ║
║  R        - Restart from the preset  ║
║  [ ]      - Replay profile history   ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

func temperatureRange(history [][]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range history {
		for _, t := range row {
			lo = math.Min(lo, t)
			hi = math.Max(hi, t)
		}
	}
	if math.IsInf(lo, 0) {
		return 0, 1
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

// logSeries maps a positive series to log10, flooring zeros.
func logSeries(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Log10(math.Max(x, 1e-12))
	}
	return out
}
