// Package tui is a terminal monitor of the audio engine: musical position,
// detected pitch and the state of patterns.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dudk/dunjams/clock"
	"github.com/dudk/dunjams/pitch"
)

// RefreshInterval is the period of screen updates.
const RefreshInterval = 50 * time.Millisecond

const (
	beatsPerBar   = 4
	saturationBar = 20
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Toggler is a pattern which can be started and stopped.
type Toggler interface {
	Toggle()
	Playing() bool
}

// TickMsg triggers refresh of the screen.
type TickMsg time.Time

// Model is a bubbletea model of the monitor.
type Model struct {
	sched       *clock.Scheduler
	tracker     *pitch.Tracker
	metronome   Toggler
	arpeggiator Toggler
	target      int
	quitting    bool

	tick       clock.Tick
	midi       int
	held       int
	saturation float64
	load       float64

	header lipgloss.Style
	dim    lipgloss.Style
	active lipgloss.Style
}

// New returns monitor of the scheduler. Tracker and patterns are optional.
func New(s *clock.Scheduler, t *pitch.Tracker, metronome, arpeggiator Toggler) Model {
	return Model{
		sched:       s,
		tracker:     t,
		metronome:   metronome,
		arpeggiator: arpeggiator,
		target:      69,
		header:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		dim:         lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		active:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
}

// Refresh schedules the next screen update.
func Refresh() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return Refresh()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "m":
			if m.metronome != nil {
				m.metronome.Toggle()
			}
		case "a":
			if m.arpeggiator != nil {
				m.arpeggiator.Toggle()
			}
		case "+", "=":
			if m.target < 127 {
				m.target++
			}
		case "-", "_":
			if m.target > 0 {
				m.target--
			}
		}
		m.refresh()
	case TickMsg:
		m.refresh()
		return m, Refresh()
	}
	return m, nil
}

// refresh reads the state of the engine.
func (m *Model) refresh() {
	m.tick = m.sched.Tick()
	m.load = m.sched.Load()
	if m.tracker != nil {
		m.midi = m.tracker.Midi()
		m.held = m.tracker.HeldMidi()
		m.saturation = m.tracker.Saturation(pitch.Normalize(float64(m.target)))
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(m.header.Render(fmt.Sprintf("dunjams  %.1fbpm  %s", m.sched.TempoMap().BPM(), Position(m.tick))))
	out.WriteString("\n\n")

	if m.tracker != nil {
		fmt.Fprintf(&out, "pitch  %-4s held %-4s\n", NoteName(m.midi), NoteName(m.held))
		fmt.Fprintf(&out, "target %-4s %s\n", NoteName(m.target), m.bar(m.saturation))
	}
	fmt.Fprintf(&out, "metronome %s  arpeggiator %s\n", m.state(m.metronome), m.state(m.arpeggiator))
	out.WriteString(m.dim.Render(fmt.Sprintf("load %.3fms", m.load)))
	out.WriteString("\n\n")
	out.WriteString(m.dim.Render("m:metronome  a:arpeggiator  +/-:target  q:quit"))
	return out.String()
}

func (m Model) state(t Toggler) string {
	switch {
	case t == nil:
		return m.dim.Render("-")
	case t.Playing():
		return m.active.Render("on")
	}
	return m.dim.Render("off")
}

func (m Model) bar(saturation float64) string {
	filled := int(saturation*saturationBar + 0.5)
	return "[" + m.active.Render(strings.Repeat("#", filled)) + strings.Repeat(".", saturationBar-filled) + "]"
}

// Position formats tick as bar.beat.tick in four quarters per bar.
func Position(t clock.Tick) string {
	if t < 0 {
		return fmt.Sprintf("%d", t)
	}
	beats := t / clock.TicksPerQuarter
	return fmt.Sprintf("%d.%d.%03d", beats/beatsPerBar+1, beats%beatsPerBar+1, t%clock.TicksPerQuarter)
}

// NoteName returns scientific name of midi pitch. Zero is silence.
func NoteName(midi int) string {
	if midi <= 0 {
		return "-"
	}
	return fmt.Sprintf("%s%d", noteNames[midi%12], midi/12-1)
}
