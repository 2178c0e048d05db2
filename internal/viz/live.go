package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/ballpit/internal/metrics"
	"github.com/san-kum/ballpit/internal/physics"
	"github.com/san-kum/ballpit/internal/sim"
)

const (
	width           = 60
	height          = 24
	historyCapacity = 300
	frameInterval   = time.Second / 30
)

// Source is what the view reads from a running engine.
type Source interface {
	Snapshot() ([]physics.BodyState, error)
	Stats() sim.Stats
}

type TickMsg time.Time

// UpdateMsg carries one position notification from the engine.
type UpdateMsg sim.Update

// Model draws the arena from periodic snapshots. Between snapshots it moves bodies
// to the positions carried by incoming notifications, so motion shows up at the
// engine's rate rather than the frame rate.
type Model struct {
	src     Source
	arena   physics.Arena
	updates <-chan sim.Update

	canvas *Canvas
	theme  Theme
	styles styles

	bodies   []physics.BodyState
	index    map[int]int
	stats    sim.Stats
	err      error
	received uint64

	speedHistory  []float64
	energyHistory []float64

	running  bool
	showHelp bool
}

// NewModel builds a view over src. updates may be nil, in which case only
// snapshots move the bodies.
func NewModel(src Source, arena physics.Arena, updates <-chan sim.Update) Model {
	theme := Themes[0]
	return Model{
		src:           src,
		arena:         arena,
		updates:       updates,
		canvas:        NewCanvas(width, height),
		theme:         theme,
		styles:        newStyles(theme),
		index:         make(map[int]int),
		speedHistory:  make([]float64, 0, historyCapacity),
		energyHistory: make([]float64, 0, historyCapacity),
		running:       true,
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func waitForUpdate(ch <-chan sim.Update) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return UpdateMsg(u)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), waitForUpdate(m.updates))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "t":
			m.theme = nextTheme(m.theme.Name)
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case UpdateMsg:
		m.received++
		if i, ok := m.index[msg.BodyID]; ok && m.running {
			m.bodies[i].Position = msg.Position
		}
		return m, waitForUpdate(m.updates)
	case TickMsg:
		if m.running {
			m.refresh()
		}
		return m, tick()
	}
	return m, nil
}

// refresh replaces the drawn state with a fresh snapshot.
func (m *Model) refresh() {
	snap, err := m.src.Snapshot()
	if err != nil {
		m.err = err
		return
	}
	m.bodies = snap
	clear(m.index)
	for i, b := range snap {
		m.index[b.ID] = i
	}
	m.stats = m.src.Stats()

	m.speedHistory = appendCapped(m.speedHistory, metrics.MeanSpeed(snap))
	m.energyHistory = appendCapped(m.energyHistory, metrics.TotalKineticEnergy(snap))
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

// project maps arena coordinates to canvas sub-pixels.
func (m *Model) project(p physics.Vector) (int, int) {
	cw, ch := m.canvas.PixelSize()
	b := m.arena.Bounds()
	if b.X <= 0 || b.Y <= 0 {
		return 0, 0
	}
	x := int(math.Round(p.X / b.X * float64(cw-1)))
	y := int(math.Round(p.Y / b.Y * float64(ch-1)))
	return x, y
}

func (m *Model) draw() {
	m.canvas.Clear()
	cw, ch := m.canvas.PixelSize()
	m.canvas.DrawRect(0, 0, cw-1, ch-1, inkWall)

	scale := float64(cw-1) / m.arena.Bounds().X
	for _, b := range m.bodies {
		x, y := m.project(b.Position)
		r := int(b.Radius * scale)
		m.canvas.DrawDisc(x, y, r, int(b.Color))
	}
}

func (m Model) View() string {
	if m.err != nil {
		return m.styles.warn.Render("engine stopped: "+m.err.Error()) + "\n"
	}
	m.draw()
	canvasView := lipgloss.NewStyle().Padding(1, 2).Render(m.canvas.Render(m.styles.paint))

	var s strings.Builder
	s.WriteString(m.styles.header.Render("BALLPIT") + "\n")
	if m.running {
		s.WriteString(m.styles.ok.Render("RUNNING") + "\n\n")
	} else {
		s.WriteString(m.styles.warn.Render("PAUSED") + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(m.styles.label.Render(label) + m.styles.value.Render(value) + "\n")
	}
	row("Bodies", fmt.Sprintf("%d", len(m.bodies)))
	row("Steps", fmt.Sprintf("%d", m.stats.Steps))
	row("Collisions", fmt.Sprintf("%d", m.stats.Collisions))
	row("In contact", fmt.Sprintf("%d", m.stats.ActiveContacts))
	row("Updates", fmt.Sprintf("%d", m.received))
	if m.stats.DiagWritten+m.stats.DiagDropped > 0 {
		row("Diag", fmt.Sprintf("%d written, %d dropped", m.stats.DiagWritten, m.stats.DiagDropped))
	}
	if n := len(m.energyHistory); n > 0 {
		row("Energy", fmt.Sprintf("%.3f", m.energyHistory[n-1]))
		row("Mean speed", fmt.Sprintf("%.3f", m.speedHistory[n-1]))
	}

	if len(m.speedHistory) > 1 {
		chart := asciigraph.Plot(m.speedHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Mean speed"))
		s.WriteString(m.styles.graph.Render(chart) + "\n")
		s.WriteString(m.styles.label.Render("Energy") + SparklineChart(m.energyHistory, 24) + "\n")
	}

	s.WriteString(m.styles.help.Render("SP:Pause T:Theme ?:Help Q:Quit"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, m.styles.panel.Render(s.String()))

	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Freeze/resume the view   ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// Run blocks until the user quits the live view.
func Run(src Source, arena physics.Arena, updates <-chan sim.Update) error {
	_, err := tea.NewProgram(NewModel(src, arena, updates), tea.WithAltScreen()).Run()
	return err
}
