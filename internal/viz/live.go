package viz

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/partsim/internal/body"
	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/metrics"
	"github.com/san-kum/partsim/internal/mutators"
	"github.com/san-kum/partsim/internal/quadtree"
	"github.com/san-kum/partsim/internal/sim"
	"github.com/san-kum/partsim/internal/vec"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 120
	frameInterval   = time.Second / 60

	// canvas origin on screen: one border cell on each side
	originX = 1
	originY = 1
)

type TickMsg time.Time

// Model runs a simulation one step per tick and draws its snapshot.
type Model struct {
	cfg      *config.Config
	simOpts  []sim.Option
	sim      *sim.Simulation
	canvas   *Canvas
	overlay  *Canvas
	proj     projection
	theme    Theme
	pusher   *mutators.PointerPusher
	speed    *metrics.MeanSpeed
	history  []float64
	running  bool
	debug    bool
	err      error
	logger   *slog.Logger
	snapshot []body.Particle
}

type Option func(*Model)

func WithDebug(on bool) Option { return func(m *Model) { m.debug = on } }

func WithTheme(name string) Option { return func(m *Model) { m.theme = GetTheme(name) } }

func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		m.logger = l
		m.simOpts = append(m.simOpts, sim.WithLogger(l))
	}
}

func WithSimOptions(opts ...sim.Option) Option {
	return func(m *Model) { m.simOpts = append(m.simOpts, opts...) }
}

// NewModel builds the simulation for cfg and the view around it.
func NewModel(cfg *config.Config, opts ...Option) (*Model, error) {
	m := &Model{
		cfg:     cfg,
		canvas:  NewCanvas(width, height),
		overlay: NewCanvas(width, height),
		theme:   Themes[0],
		speed:   metrics.NewMeanSpeed(),
		history: make([]float64, 0, historyCapacity),
		running: true,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.proj = newProjection(m.canvas, cfg.World.Width, cfg.World.Height)
	if err := m.reset(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) reset() error {
	if m.sim != nil {
		m.sim.Close()
	}
	s, err := sim.New(m.cfg, m.simOpts...)
	if err != nil {
		return err
	}
	m.sim = s
	m.err = nil
	m.pusher = nil
	for _, mu := range s.Mutators() {
		if p, ok := mu.(*mutators.PointerPusher); ok {
			m.pusher = p
			break
		}
	}
	m.speed.Reset()
	m.history = m.history[:0]
	m.snapshot = s.SnapshotInto(m.snapshot[:0])
	return nil
}

// Close releases the simulation.
func (m *Model) Close() {
	if m.sim != nil {
		m.sim.Close()
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m *Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "space":
			m.running = !m.running
		case "n":
			if !m.running {
				m.step()
			}
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
			}
		case "d":
			m.debug = !m.debug
		case "t":
			m.theme = nextTheme(m.theme)
		}
	case tea.MouseMsg:
		m.pointer(msg)
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	if m.err != nil {
		return
	}
	if err := m.sim.Step(); err != nil {
		m.err = err
		m.running = false
		m.logger.Error("live step failed", "err", err)
		return
	}
	m.speed.Observe(m.sim.Frame())
	m.history = append(m.history, m.speed.Value())
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
	m.snapshot = m.sim.SnapshotInto(m.snapshot[:0])
}

// pointer moves the pusher, if one is configured, to the mouse position.
func (m *Model) pointer(msg tea.MouseMsg) {
	if m.pusher == nil {
		return
	}
	col, rowIdx := msg.X-originX, msg.Y-originY
	if col < 0 || rowIdx < 0 || col >= m.canvas.Width || rowIdx >= m.canvas.Height {
		m.pusher.Clear()
		return
	}
	switch msg.Action {
	case tea.MouseActionPress, tea.MouseActionMotion:
		x, y := m.proj.toWorld(float64(col*2)+1, float64(rowIdx*4)+2)
		m.pusher.SetPosition(vec.New(x, y))
	case tea.MouseActionRelease:
		m.pusher.Clear()
	}
}

func (m *Model) draw() {
	m.canvas.Clear()
	m.overlay.Clear()
	for _, p := range m.snapshot {
		if p.Opacity < 0.05 {
			continue
		}
		x, y := m.proj.toPixel(p.Position.X, p.Position.Y)
		m.canvas.DrawCircle(x, y, m.proj.length(p.Radius))
	}
	if m.debug {
		m.sim.Debug(overlaySink{m})
	}
}

type overlaySink struct{ m *Model }

func (o overlaySink) Circle(center vec.Vec2, radius float64, label string) {
	x, y := o.m.proj.toPixel(center.X, center.Y)
	o.m.overlay.DrawCircle(x, y, o.m.proj.length(radius))
}

func (o overlaySink) Rect(b quadtree.Box) {
	lo, hi := b.Min(), b.Max()
	x0, y0 := o.m.proj.toPixel(lo.X, lo.Y)
	x1, y1 := o.m.proj.toPixel(hi.X, hi.Y)
	o.m.overlay.DrawRect(x0, y0, x1, y1)
}

// render merges the particle and overlay layers, colouring cells by layer.
func (m *Model) render() string {
	particle := lipgloss.NewStyle().Foreground(m.theme.Primary)
	marker := lipgloss.NewStyle().Foreground(m.theme.Debug)

	var b strings.Builder
	for r := range m.canvas.Grid {
		for c, cell := range m.canvas.Grid[r] {
			over := m.overlay.Grid[r][c]
			switch {
			case cell != blank:
				b.WriteString(particle.Render(string(cell | over)))
			case over != blank:
				b.WriteString(marker.Render(string(over)))
			default:
				b.WriteRune(blank)
			}
		}
		if r < len(m.canvas.Grid)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// View renders the canvas and the HUD side by side.
func (m *Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.render())

	var s strings.Builder
	title := strings.ToUpper(m.cfg.Name)
	if title == "" {
		title = "PARTSIM"
	}
	s.WriteString(headerStyle.Foreground(m.theme.Accent).Render(title) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(statusCrashed.Render("CRASHED") + "\n")
	case m.running:
		s.WriteString(statusRunning.Render("RUNNING") + "\n")
	default:
		s.WriteString(statusPaused.Render("PAUSED") + "\n")
	}

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("mean speed"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	f := m.sim.Frame()
	s.WriteString(row("Step", "%d", f.Step))
	s.WriteString(row("Entities", "%d", len(f.Entities)))
	s.WriteString(row("Dropped", "%d", f.Dropped))
	s.WriteString(row("Speed", "%.3f", m.speed.Value()))
	s.WriteString(row("Mutators", "%d", len(m.sim.Mutators())))
	s.WriteString(row("Theme", "%s", m.theme.Name))
	if m.pusher != nil {
		s.WriteString(row("Pointer", "%s", "mouse"))
	}
	if m.err != nil {
		s.WriteString("\n" + statusCrashed.Render(fmt.Sprint(m.err)) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause N:Step R:Reset Q:Quit\nD:Debug  T:Theme"))
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}
