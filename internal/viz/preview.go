package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/effect"
	"github.com/san-kum/treelights/internal/spatial"
)

const (
	width           = 72
	height          = 30
	statsWidth      = 40
	historyCapacity = 120
	spinStep        = 0.03
)

type TickMsg time.Time

// Model steps an effect and draws its frames. Each tick advances the
// effect by exactly one frame time, so a paused preview resumes where it
// stopped.
type Model struct {
	fx      *effect.Effect
	scene   *Scene
	camera  *Camera
	canvas  *Canvas
	onFrame func([]color.RGB)

	paused, spin, tree, showHelp bool
	theme                        int
	lumaHistory                  []float64
}

// Option configures a preview Model.
type Option func(*Model)

// WithFrameHook calls fn with every rendered frame, e.g. to mirror the
// preview onto hardware.
func WithFrameHook(fn func([]color.RGB)) Option {
	return func(m *Model) { m.onFrame = fn }
}

// WithTheme selects the chrome theme by name.
func WithTheme(name string) Option {
	return func(m *Model) { m.theme = themeIndex(name) }
}

// WithStripView starts in strip view even when geometry is available.
func WithStripView() Option {
	return func(m *Model) { m.tree = false }
}

// NewModel starts fx and prepares a preview of it. A nil spatial model
// forces strip view.
func NewModel(fx *effect.Effect, sm *spatial.Model, opts ...Option) Model {
	m := Model{
		fx:          fx,
		scene:       NewScene(sm),
		camera:      NewCamera(),
		canvas:      NewCanvas(width, height),
		spin:        true,
		tree:        sm != nil,
		lumaHistory: make([]float64, 0, historyCapacity),
	}
	for _, opt := range opts {
		opt(&m)
	}
	if !fx.Running() {
		fx.Start()
	}
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.fx.FrameTime(), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input and advances the effect on each tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "r":
			m.fx.Reset()
			m.lumaHistory = m.lumaHistory[:0]
		case "v":
			if m.scene.Len() > 0 {
				m.tree = !m.tree
			}
		case "s":
			m.spin = !m.spin
		case "left", "h":
			m.camera.Spin(-0.1)
		case "right", "l":
			m.camera.Spin(0.1)
		case "up", "k":
			m.camera.Tilt(0.1)
		case "down", "j":
			m.camera.Tilt(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		w := max(msg.Width-statsWidth-8, 10)
		h := max(msg.Height-4, 5)
		m.canvas = NewCanvas(w, h)
	case TickMsg:
		if !m.paused {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) step() {
	buf := m.fx.Step(m.fx.FrameTime().Seconds())
	pixels := buf.Pixels()
	if m.onFrame != nil {
		m.onFrame(pixels)
	}
	if len(m.lumaHistory) == historyCapacity {
		m.lumaHistory = append(m.lumaHistory[:0], m.lumaHistory[1:]...)
	}
	m.lumaHistory = append(m.lumaHistory, meanLuma(pixels))
	if m.spin && m.tree {
		m.camera.Spin(spinStep)
	}
}

func meanLuma(pixels []color.RGB) float64 {
	if len(pixels) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range pixels {
		sum += p.Luma()
	}
	return sum / float64(len(pixels))
}

func (m *Model) draw() {
	m.canvas.Clear()
	pixels := m.fx.Buffer().Pixels()
	if m.tree {
		Render3D(m.canvas, m.scene, pixels, m.camera)
		return
	}
	RenderStrip(m.canvas, pixels)
}

func (m Model) View() string {
	theme := Themes[m.theme]
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle(theme).Render(strings.ToUpper(m.fx.Name())) + "\n")
	status := "RUNNING"
	if m.paused {
		status = "PAUSED"
	}
	view := "strip"
	if m.tree {
		view = "tree"
	}
	s.WriteString(statusStyle(theme, m.paused).Render(status) + "  " + valueStyle.Render(view) + "\n")
	if len(m.lumaHistory) > 1 {
		chart := asciigraph.Plot(m.lumaHistory, asciigraph.Height(4), asciigraph.Width(28), asciigraph.Caption("Brightness"))
		s.WriteString(graphStyle(theme).Render(chart) + "\n")
	}
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("LEDs", fmt.Sprintf("%d", m.fx.LEDCount()))
	row("FPS", fmt.Sprintf("%d", m.fx.FPS()))
	row("Frames", fmt.Sprintf("%d", m.fx.FrameCount()))
	row("Time", fmt.Sprintf("%.2fs", m.fx.Time()))
	lit := 0
	for _, p := range m.fx.Buffer().Pixels() {
		if p != color.Black {
			lit++
		}
	}
	ratio := 0.0
	if n := m.fx.LEDCount(); n > 0 {
		ratio = float64(lit) / float64(n)
	}
	row("Lit", ProgressBar(ratio, 12)+fmt.Sprintf(" %d", lit))
	row("Theme", theme.Name)
	s.WriteString(helpStyle.Render("─────────────────────\nSP:Pause R:Reset Q:Quit\nV:View S:Spin T:Theme ?:Help"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════╗
║        KEYBOARD SHORTCUTS        ║
╠══════════════════════════════════╣
║  Space  - Pause/Resume           ║
║  R      - Reset the effect       ║
║  V      - Toggle tree/strip view ║
║  S      - Toggle auto-spin       ║
║  ←/→    - Spin the tree          ║
║  ↑/↓    - Tilt the camera        ║
║  +/-    - Zoom                   ║
║  T      - Cycle themes           ║
║  Q      - Quit                   ║
╚══════════════════════════════════╝
` + "\n" + mainView
	}
	return mainView
}

// Paused reports whether ticks currently leave the effect untouched.
func (m Model) Paused() bool { return m.paused }

// TreeView reports whether LEDs are drawn at their 3D positions.
func (m Model) TreeView() bool { return m.tree }

// Run starts the preview on the terminal and blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
