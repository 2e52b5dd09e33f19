package viz

import (
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/radtrans/internal/config"
	"github.com/san-kum/radtrans/internal/equilibrium"
)

func toyFactory(t *testing.T) Factory {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	setup, err := config.GetPreset("toy").Build(log)
	require.NoError(t, err)
	return setup.NewSolver
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestModelStepsOnTick(t *testing.T) {
	m, err := NewModel("toy", 500, toyFactory(t))
	require.NoError(t, err)
	assert.NotNil(t, m.Init())

	for i := 0; i < 3; i++ {
		m = update(t, m, TickMsg{})
	}
	assert.Equal(t, 3, m.Solver().Result().Iterations)
	assert.Len(t, m.olr, 3)

	view := m.View()
	assert.Contains(t, view, "TOY")
	assert.Contains(t, view, "ITERATING")
	assert.Contains(t, view, "OLR")
}

func TestModelPauseAndSingleStep(t *testing.T) {
	m, err := NewModel("toy", 500, toyFactory(t))
	require.NoError(t, err)

	m = update(t, m, key(" "))
	assert.False(t, m.running)
	m = update(t, m, TickMsg{})
	assert.Equal(t, 0, m.Solver().Result().Iterations, "paused view must not step")
	assert.Contains(t, m.View(), "PAUSED")

	m = update(t, m, key("n"))
	assert.Equal(t, 1, m.Solver().Result().Iterations)
}

func TestModelRunsToConvergence(t *testing.T) {
	m, err := NewModel("toy", 500, toyFactory(t))
	require.NoError(t, err)

	for i := 0; i < 500 && m.Solver().Status() == equilibrium.StatusIterating; i++ {
		m = update(t, m, TickMsg{})
	}
	require.Equal(t, equilibrium.StatusConverged, m.Solver().Status())

	n := m.Solver().Result().Iterations
	m = update(t, m, TickMsg{})
	assert.Equal(t, n, m.Solver().Result().Iterations, "finished run is not stepped")
	assert.NoError(t, m.err)
	assert.Contains(t, m.View(), "CONVERGED")
}

func TestModelReset(t *testing.T) {
	m, err := NewModel("toy", 500, toyFactory(t))
	require.NoError(t, err)
	m = update(t, m, TickMsg{})
	m = update(t, m, TickMsg{})
	first := m.Solver()

	m = update(t, m, key("r"))
	assert.NotSame(t, first, m.Solver())
	assert.Equal(t, 0, m.Solver().Result().Iterations)
	assert.Empty(t, m.olr)
}

func TestModelReplay(t *testing.T) {
	m, err := NewModel("toy", 500, toyFactory(t))
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		m = update(t, m, TickMsg{})
	}

	m = update(t, m, key("["))
	assert.False(t, m.running)
	assert.Equal(t, 3, m.playHead)
	_, index := m.profile()
	assert.Equal(t, 3, index)
	assert.Contains(t, m.View(), "REPLAY 3")

	m = update(t, m, key("]"))
	m = update(t, m, key("]"))
	assert.Equal(t, -1, m.playHead, "scrubbing past the newest profile follows the solver")
}

func TestModelThemeAndHelp(t *testing.T) {
	m, err := NewModel("toy", 500, toyFactory(t))
	require.NoError(t, err)

	m = update(t, m, key("t"))
	assert.Equal(t, 1, m.theme)
	m = update(t, m, key("?"))
	assert.Contains(t, m.View(), "KEYBOARD SHORTCUTS")

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	_, quit := cmd().(tea.QuitMsg)
	assert.True(t, quit)
}

func TestNewModelFactoryError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewModel("broken", 10, func() (*equilibrium.Solver, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestCanvasProfile(t *testing.T) {
	c := NewCanvas(10, 5)
	c.Profile([]float64{1e5, 1e3, 10}, []float64{1000, 600, 300}, 300, 1000)
	out := c.String()
	assert.Equal(t, 5, strings.Count(out, "\n"))
	assert.NotEqual(t, strings.Repeat(string(rune(blank)), 10), strings.Split(out, "\n")[0],
		"top row holds the lowest pressure point")
	// bottom layer sits at the hottest column
	assert.NotEqual(t, rune(blank), c.Grid[4][9])
}

func TestSparklineAndProgress(t *testing.T) {
	assert.Equal(t, "▁▅█", Sparkline([]float64{0, 0.6, 1}, 3))
	assert.Equal(t, "───", Sparkline(nil, 3))
	assert.Equal(t, "██░░", ProgressBar(0.5, 4))
	assert.Equal(t, "████", ProgressBar(2, 4))
}

func TestThemes(t *testing.T) {
	assert.Equal(t, "infrared", GetTheme("nope").Name)
	assert.Equal(t, ThemeOcean, GetTheme("ocean"))
	assert.Equal(t, []string{"infrared", "retro", "minimal", "ocean"}, ThemeNames())
}
