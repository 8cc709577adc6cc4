package tui_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/dunjams"
	"github.com/dudk/dunjams/clock"
	"github.com/dudk/dunjams/pitch"
	"github.com/dudk/dunjams/tui"
)

type toggler struct {
	playing bool
}

func (t *toggler) Toggle()       { t.playing = !t.playing }
func (t *toggler) Playing() bool { return t.playing }

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestPosition(t *testing.T) {
	tests := []struct {
		tick     clock.Tick
		expected string
	}{
		{tick: 0, expected: "1.1.000"},
		{tick: 479, expected: "1.1.479"},
		{tick: 480, expected: "1.2.000"},
		{tick: 1920, expected: "2.1.000"},
		{tick: 2000, expected: "2.1.080"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, tui.Position(test.tick))
	}
}

func TestNoteName(t *testing.T) {
	tests := []struct {
		midi     int
		expected string
	}{
		{midi: 0, expected: "-"},
		{midi: 60, expected: "C4"},
		{midi: 61, expected: "C#4"},
		{midi: 69, expected: "A4"},
		{midi: 21, expected: "A0"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, tui.NoteName(test.midi))
	}
}

func TestModel(t *testing.T) {
	tempo, err := clock.NewTempoMap(120)
	require.NoError(t, err)
	s, err := clock.NewScheduler(tempo, dunjams.DefaultSampleRate)
	require.NoError(t, err)
	tracker, err := pitch.NewTracker(pitch.DefaultThresholds(), nil)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		tracker.AddPitch(69)
	}
	buf := make([]float64, 2*22050)
	s.Generate(buf, 2)

	metronome, arpeggiator := &toggler{}, &toggler{}
	var m tea.Model = tui.New(s, tracker, metronome, arpeggiator)
	assert.NotNil(t, m.Init())

	m, cmd := m.Update(tui.TickMsg{})
	assert.NotNil(t, cmd)
	view := m.View()
	assert.Contains(t, view, "120.0bpm")
	assert.Contains(t, view, "1.2.000")
	assert.Contains(t, view, "A4")
	assert.Contains(t, view, "off")

	m, _ = m.Update(key('m'))
	assert.True(t, metronome.Playing())
	assert.False(t, arpeggiator.Playing())
	m, _ = m.Update(key('a'))
	assert.True(t, arpeggiator.Playing())
	assert.Contains(t, m.View(), "on")

	m, _ = m.Update(key('+'))
	assert.Contains(t, m.View(), "A#4")

	m, cmd = m.Update(key('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, m.View())
}

func TestModelWithoutTracker(t *testing.T) {
	tempo, err := clock.NewTempoMap(90)
	require.NoError(t, err)
	s, err := clock.NewScheduler(tempo, dunjams.DefaultSampleRate)
	require.NoError(t, err)

	var m tea.Model = tui.New(s, nil, nil, nil)
	m, _ = m.Update(key('m'))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
