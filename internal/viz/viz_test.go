package viz

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/ballpit/internal/physics"
	"github.com/san-kum/ballpit/internal/sim"
)

type fakeSource struct {
	bodies []physics.BodyState
	err    error
	calls  int
}

func (f *fakeSource) Snapshot() ([]physics.BodyState, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]physics.BodyState, len(f.bodies))
	copy(out, f.bodies)
	return out, nil
}

func (f *fakeSource) Stats() sim.Stats {
	return sim.Stats{Bodies: len(f.bodies), Steps: 42, Collisions: 3}
}

var arena = physics.Arena{Width: 400, Height: 400}

func source() *fakeSource {
	return &fakeSource{bodies: []physics.BodyState{
		{ID: 0, Color: physics.Red, Radius: 10, Position: physics.Vec(100, 100), Velocity: physics.Vec(3, 4)},
		{ID: 1, Color: physics.Yellow, Radius: 10, Position: physics.Vec(300, 300), Velocity: physics.Vec(0, 0)},
	}}
}

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0, 5)
	c.Set(3, 3, 6)
	c.Set(-1, 0, 7)
	c.Set(4, 0, 7)

	assert.Equal(t, rune(0x2801), c.Grid[0][0])
	assert.Equal(t, rune(0x2880), c.Grid[0][1])
	assert.Equal(t, 5, c.Ink[0][0])
	assert.Equal(t, 6, c.Ink[0][1])
	assert.Equal(t, "⠁⢀\n", c.String())

	c.Clear()
	assert.Equal(t, rune(blank), c.Grid[0][0])
	assert.Equal(t, NoInk, c.Ink[0][1])
}

func TestCanvasDrawDisc(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawDisc(10, 10, 3, 2)

	set := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0 {
				set++
				dx, dy := x-10, y-10
				assert.LessOrEqual(t, dx*dx+dy*dy, 9)
			}
		}
	}
	assert.Equal(t, 29, set)

	c.Clear()
	c.DrawDisc(0, 0, 0, 1)
	assert.Equal(t, rune(0x2801), c.Grid[0][0])

	c.DrawDisc(-50, -50, 4, 1)
	c.DrawDisc(1000, 1000, 4, 1)
}

func TestCanvasRenderRuns(t *testing.T) {
	c := NewCanvas(4, 1)
	c.Set(0, 0, 1)
	c.Set(2, 0, 1)
	c.Set(6, 0, 2)

	var runs []string
	c.Render(func(ink int, s string) string {
		runs = append(runs, s)
		return s
	})
	assert.Equal(t, []string{"⠁⠁", "⠀", "⠁"}, runs)
}

func TestModelRefreshesOnTick(t *testing.T) {
	src := source()
	m := NewModel(src, arena, nil)

	next, cmd := m.Update(TickMsg{})
	require.NotNil(t, cmd)
	m = next.(Model)
	assert.Equal(t, 1, src.calls)
	assert.Len(t, m.bodies, 2)
	assert.Equal(t, uint64(42), m.stats.Steps)
	require.Len(t, m.energyHistory, 1)
	assert.InDelta(t, 12.5, m.energyHistory[0], 1e-12)
	assert.InDelta(t, 2.5, m.speedHistory[0], 1e-12)

	view := m.View()
	assert.Contains(t, view, "BALLPIT")
	assert.Contains(t, view, "RUNNING")
	assert.Contains(t, view, "Collisions")
}

func TestModelAppliesUpdates(t *testing.T) {
	ch := make(chan sim.Update, 1)
	m := NewModel(source(), arena, ch)
	next, _ := m.Update(TickMsg{})
	m = next.(Model)

	next, cmd := m.Update(UpdateMsg{BodyID: 1, Color: physics.Yellow, Position: physics.Vec(250, 260)})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, uint64(1), m.received)
	assert.Equal(t, physics.Vec(250, 260), m.bodies[1].Position)

	ch <- sim.Update{BodyID: 0}
	msg := cmd()
	assert.Equal(t, UpdateMsg{BodyID: 0}, msg)

	close(ch)
	assert.Nil(t, waitForUpdate(ch)())
	assert.Nil(t, waitForUpdate(nil))
}

func TestModelPause(t *testing.T) {
	src := source()
	m := NewModel(src, arena, nil)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = next.(Model)
	assert.False(t, m.running)

	next, _ = m.Update(TickMsg{})
	m = next.(Model)
	assert.Zero(t, src.calls)
	assert.Contains(t, m.View(), "PAUSED")
}

func TestModelKeys(t *testing.T) {
	m := NewModel(source(), arena, nil)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	m = next.(Model)
	assert.Equal(t, Themes[1].Name, m.theme.Name)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	m = next.(Model)
	assert.True(t, strings.Contains(m.View(), "KEYBOARD SHORTCUTS"))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModelShowsEngineError(t *testing.T) {
	src := source()
	src.err = sim.ErrAlreadyDisposed
	m := NewModel(src, arena, nil)

	next, _ := m.Update(TickMsg{})
	m = next.(Model)
	assert.True(t, errors.Is(m.err, sim.ErrAlreadyDisposed))
	assert.Contains(t, m.View(), "engine stopped")
}

func TestSparklineChart(t *testing.T) {
	assert.Equal(t, "───", SparklineChart(nil, 3))
	assert.Equal(t, "▁█", SparklineChart([]float64{0, 1}, 5))
	assert.Equal(t, "▁▁", SparklineChart([]float64{5, 5}, 2))
	assert.Len(t, []rune(SparklineChart([]float64{1, 2, 3, 4, 5}, 3)), 3)
}

func TestThemes(t *testing.T) {
	assert.Equal(t, []string{"cyberpunk", "retro", "minimal"}, ThemeNames())
	assert.Equal(t, ThemeRetroGreen, GetTheme("retro"))
	assert.Equal(t, ThemeCyberpunk, GetTheme("nope"))
	assert.Equal(t, ThemeCyberpunk, nextTheme("minimal"))
}
