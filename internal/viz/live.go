package viz

import (
	"fmt"
	"image"
	"image/gif"
	"os"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	width           = 64
	height          = 24
	historyCapacity = 300
	cursorStep      = 0.25
	obstacleRadius  = 0.6
	gifDotSize      = 3
)

// tunables are the parameters the live view exposes for adjustment.
var tunables = []string{
	"viscosity", "surfaceTension", "gasConstant", "pressureScale",
	"gravityScale", "interactionForce", "sourceRate", "waveAmplitude",
	"whirlpoolStrength",
}

type TickMsg time.Time

// Model is the bubbletea model of the live terminal view. It owns the
// engine while the program runs.
type Model struct {
	eng       *sim.Engine
	canvas    *Canvas
	cam       *Camera
	theme     Theme
	st        styles
	fps       int
	running   bool
	selected  int
	cursor    r3.Vec
	last      metrics.Frame
	energy    []float64
	heights   []float64
	recording bool
	frames    []*image.Paletted
	GIFPath   string
	status    string
	showHelp  bool
}

func NewModel(eng *sim.Engine, fps int) Model {
	if fps <= 0 {
		fps = 30
	}
	b := eng.World().Bounds()
	return Model{
		eng:     eng,
		canvas:  NewCanvas(width, height),
		cam:     NewCamera(),
		theme:   ThemeOcean,
		st:      newStyles(ThemeOcean),
		fps:     fps,
		running: true,
		cursor:  r3.Vec{X: 0, Y: b.Max.Y / 4, Z: 0},
		energy:  make([]float64, 0, historyCapacity),
		heights: make([]float64, 0, historyCapacity),
		GIFPath: "fluidsim.gif",
		last:    eng.Sample(),
	}
}

// Run starts the full-screen program and blocks until it exits.
func Run(eng *sim.Engine, fps int) error {
	_, err := tea.NewProgram(NewModel(eng, fps), tea.WithAltScreen()).Run()
	return err
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.eng.ResetSimulation()
			m.clearHistory()
			m.status = "reset"
		case "n":
			m.cycleScenario(1)
		case "N":
			m.cycleScenario(-1)
		case "tab":
			m.selected = (m.selected + 1) % len(tunables)
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "w":
			m.moveCursor(r3.Vec{Z: -cursorStep})
		case "s":
			m.moveCursor(r3.Vec{Z: cursorStep})
		case "a":
			m.moveCursor(r3.Vec{X: -cursorStep})
		case "d":
			m.moveCursor(r3.Vec{X: cursorStep})
		case "f":
			m.moveCursor(r3.Vec{Y: cursorStep})
		case "c":
			m.moveCursor(r3.Vec{Y: -cursorStep})
		case "i":
			n := m.eng.ApplyInteractionForce(m.cursor)
			m.status = fmt.Sprintf("impulse hit %d particles", n)
		case "o":
			m.eng.AddObstacle(m.cursor, obstacleRadius)
			m.status = "obstacle added"
		case "e":
			m.eng.AddSource(m.cursor)
			m.status = "source added"
		case "v":
			m.cam.Cycle()
		case "left":
			m.cam.Rotate(-0.1)
		case "right":
			m.cam.Rotate(0.1)
		case "pgup":
			m.cam.Tilt(0.1)
		case "pgdown":
			m.cam.Tilt(-0.1)
		case "+", "=":
			m.cam.ZoomIn()
		case "-", "_":
			m.cam.ZoomOut()
		case "t":
			m.theme = NextTheme(m.theme)
			m.st = newStyles(m.theme)
		case "g":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		m.draw()
		if m.recording {
			m.frames = append(m.frames, m.canvas.Image(gifDotSize))
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) step() {
	m.eng.Step(0)
	m.last = m.eng.Sample()
	m.energy = appendCapped(m.energy, m.last.KineticEnergy)
	m.heights = appendCapped(m.heights, m.last.MeanHeight)
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

func (m *Model) clearHistory() {
	m.energy = m.energy[:0]
	m.heights = m.heights[:0]
	m.last = m.eng.Sample()
}

func (m *Model) cycleScenario(dir int) {
	names := m.eng.Controller().Catalog().Names()
	i := slices.Index(names, m.eng.Controller().Active())
	next := names[(i+dir+len(names))%len(names)]
	m.eng.LoadScenario(next)
	m.clearHistory()
	m.status = "loaded " + next
}

func (m *Model) adjustParam(factor float64) {
	name := tunables[m.selected]
	p := m.eng.Params()
	v, err := p.Get(name)
	if err != nil {
		m.status = err.Error()
		return
	}
	if v == 0 {
		v = 0.01
	}
	if err := m.eng.SetParameter(name, v*factor); err != nil {
		m.status = err.Error()
	}
}

func (m *Model) moveCursor(d r3.Vec) {
	b := m.eng.World().Bounds()
	c := r3.Add(m.cursor, d)
	c.X = min(max(c.X, b.Min.X), b.Max.X)
	c.Y = min(max(c.Y, b.Min.Y), b.Max.Y)
	c.Z = min(max(c.Z, b.Min.Z), b.Max.Z)
	m.cursor = c
}

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.frames = m.frames[:0]
		m.status = "recording"
		return
	}
	m.recording = false
	if err := saveGIF(m.GIFPath, m.frames); err != nil {
		m.status = "gif: " + err.Error()
	} else {
		m.status = fmt.Sprintf("saved %d frames to %s", len(m.frames), m.GIFPath)
	}
	m.frames = nil
}

func saveGIF(path string, frames []*image.Paletted) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames recorded")
	}
	anim := gif.GIF{LoopCount: 0}
	for _, f := range frames {
		anim.Image = append(anim.Image, f)
		anim.Delay = append(anim.Delay, 3)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (m *Model) draw() {
	Render(m.canvas, m.eng.World(), m.cam)
	sw, sh := m.canvas.Dots()
	if x, y, _, ok := m.cam.Project(m.cursor, m.eng.World().Bounds(), sw, sh); ok {
		m.canvas.DrawCircle(x, y, 2)
	}
}

// View renders the canvas beside the stats panel.
func (m Model) View() string {
	m.draw()
	st := m.st
	p := m.eng.Params()

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.eng.Controller().Active())) + "\n")
	if m.running {
		s.WriteString(st.running.Render("RUNNING"))
	} else {
		s.WriteString(st.paused.Render("PAUSED"))
	}
	if m.recording {
		s.WriteString(st.bad.Render("  ● REC"))
	}
	s.WriteString("\n\n")

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.eng.World().Clock.Now()))
	row("Particles", fmt.Sprintf("%d/%d", m.last.Particles, p.ParticleCount))
	s.WriteString(st.label.Render("") + st.ProgressBar(float64(m.last.Particles)/float64(max(p.ParticleCount, 1)), 20) + "\n")
	row("Max speed", fmt.Sprintf("%.2f", m.last.MaxSpeed))
	row("Density", fmt.Sprintf("%.1f ± %.1f", m.last.MeanDensity, m.last.DensityStdDev))
	row("Height", Sparkline(m.heights, 24))
	row("View", m.cam.View.String())
	row("Cursor", fmt.Sprintf("(%.1f, %.1f, %.1f)", m.cursor.X, m.cursor.Y, m.cursor.Z))

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	s.WriteString("\nPARAMETERS\n")
	for i, name := range tunables {
		v, _ := p.Get(name)
		line := fmt.Sprintf("%-18s %.3f", name, v)
		if i == m.selected {
			s.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.label.UnsetWidth().Render(line) + "\n")
		}
	}
	if m.status != "" {
		s.WriteString("\n" + st.value.Render(m.status) + "\n")
	}
	s.WriteString(st.help.Render("SP:Pause R:Reset N:Scenario Q:Quit\nWASD/F/C:Cursor I:Impulse O:Obstacle E:Source\n?:Help"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, st.canvas.Render(m.canvas.String()), st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + main
	}
	return main
}

const helpText = `
  Space      pause / resume
  R          reset particles and obstacles
  N / Shift+N next / previous scenario
  Tab        select parameter
  Up / Down  adjust parameter by 5%
  W A S D    move cursor in the floor plane
  F / C      raise / lower cursor
  I          impulse at cursor
  O          obstacle at cursor
  E          particle source at cursor
  V          cycle side / top / orbit view
  Left/Right rotate orbit view
  PgUp/PgDn  tilt orbit view
  + / -      zoom
  T          cycle theme
  G          start / stop GIF recording
  Q          quit
`
