package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-pattern/ccbus"
	"go-pattern/sequencer"
	"go-pattern/theme"
	"go-pattern/widgets"
)

const (
	frameRate = 30 * time.Millisecond
	bpmStep   = 5.0
)

var slotLabels = [sequencer.NumSlots]string{
	"v0", "v1", "v2", "v3", "v4", "v5", "v6", "v7", "bd", "sn", "hh", "cp",
}

// Transport is the part of the scheduler the monitor drives
type Transport interface {
	Play() error
	Stop()
	SetBPM(bpm float64)
	State() sequencer.State
}

// light fades out over its highlight duration
type light struct {
	until   time.Time
	total   time.Duration
	sustain bool
}

func (l light) level(now time.Time) float64 {
	if l.total <= 0 || !now.Before(l.until) {
		return 0
	}
	return float64(l.until.Sub(now)) / float64(l.total)
}

type Model struct {
	Transport Transport
	Theme     *theme.Theme
	Title     string

	states   <-chan sequencer.State
	triggers <-chan sequencer.Trigger
	changes  <-chan ccbus.Change

	state    sequencer.State
	lights   [sequencer.NumSlots]light
	last     *ccbus.Change
	err      error
	quitting bool
	now      func() time.Time
}

type StateMsg sequencer.State

type TriggerMsg sequencer.Trigger

type ChangeMsg ccbus.Change

type tickMsg time.Time

// NewModel creates a monitor. Any of the channels may be nil.
func NewModel(t Transport, th *theme.Theme, states <-chan sequencer.State, triggers <-chan sequencer.Trigger, changes <-chan ccbus.Change) Model {
	if th == nil {
		th = theme.New(nil)
	}
	return Model{
		Transport: t,
		Theme:     th,
		Title:     "go-pattern",
		states:    states,
		triggers:  triggers,
		changes:   changes,
		state:     t.State(),
		now:       time.Now,
	}
}

func ListenForState(ch <-chan sequencer.State) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return StateMsg(st)
	}
}

func ListenForTriggers(ch <-chan sequencer.Trigger) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		tr, ok := <-ch
		if !ok {
			return nil
		}
		return TriggerMsg(tr)
	}
}

func ListenForChanges(ch <-chan ccbus.Change) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return ChangeMsg(c)
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForState(m.states),
		ListenForTriggers(m.triggers),
		ListenForChanges(m.changes),
		tick(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "p", " ":
			if m.Transport.State().Playing {
				m.Transport.Stop()
			} else {
				m.err = m.Transport.Play()
			}
			m.state = m.Transport.State()

		case "+", "=":
			m.Transport.SetBPM(m.Transport.State().BPM + bpmStep)
			m.state = m.Transport.State()

		case "-", "_":
			m.Transport.SetBPM(m.Transport.State().BPM - bpmStep)
			m.state = m.Transport.State()
		}

	case StateMsg:
		m.state = sequencer.State(msg)
		return m, ListenForState(m.states)

	case TriggerMsg:
		if msg.Voice >= 0 && msg.Voice < sequencer.NumSlots {
			d := time.Duration(msg.DurationMS) * time.Millisecond
			m.lights[msg.Voice] = light{until: m.now().Add(d), total: d, sustain: msg.DurationMS > 250}
		}
		return m, ListenForTriggers(m.triggers)

	case ChangeMsg:
		c := ccbus.Change(msg)
		m.last = &c
		return m, ListenForChanges(m.changes)

	case tickMsg:
		return m, tick()
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.state
	now := m.now()

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	playState := string(m.Theme.Symbols.Stopped) + " STOP"
	if st.Playing {
		playState = string(m.Theme.Symbols.Playing) + " PLAY"
	}
	session := ""
	if st.Playing {
		session = "  " + st.Session.String()[:8]
	}
	header := headerStyle.Render(fmt.Sprintf("%s  %s  %5.1fbpm  cycle %d.%03d%s",
		m.Title, playState, st.BPM, st.Cycle, int(st.CyclePosition*1000), session))

	meter := dimStyle.Render(widgets.RenderMeter(32, st.CyclePosition, '━', '─'))

	lights := make([]widgets.Light, sequencer.NumSlots)
	for i, l := range m.lights {
		level := l.level(now)
		sym := m.Theme.Symbols.Unlit
		switch {
		case level > 0 && l.sustain:
			sym = m.Theme.Symbols.Sustain
		case level > 0:
			sym = m.Theme.Symbols.Lit
		}
		lights[i] = widgets.Light{
			Color:  m.Theme.VoiceRGB(i, sequencer.NumSlots, max(level, 0.15)),
			Symbol: sym,
			Label:  slotLabels[i],
		}
	}

	last := ""
	if m.last != nil {
		last = dimStyle.Render(fmt.Sprintf("%s = %.3f  (%s)", m.last.ControlID, m.last.Value, m.last.Origin))
	}

	help := dimStyle.Render("p:play/stop  +/-:tempo  q:quit")

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n")
	out.WriteString(meter)
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderLightRow(lights))
	out.WriteString("\n\n")
	if last != "" {
		out.WriteString(last)
		out.WriteString("\n")
	}
	if m.err != nil {
		out.WriteString(warnStyle.Render(m.err.Error()))
		out.WriteString("\n")
	}
	out.WriteString(help)

	return out.String()
}
