// Package term is the terminal renderer of the timer.
package term

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pomodoro/internal/core/timer"
	"pomodoro/internal/stats"
	"pomodoro/internal/ui/shell"
)

// Controls are the controller operations bound to keys.
type Controls interface {
	Toggle() shell.Action
	Stop()
	BreakNow()
	ToggleSound() bool
	NextAction() shell.Action
}

type tickMsg struct {
	timeLeft int
	total    int
}

type phaseMsg struct {
	phase  timer.Phase
	round  int
	rounds int
	action shell.Action
}

type summaryMsg stats.Summary

type soundMsg bool

type Model struct {
	controls Controls
	phase    timer.Phase
	action   shell.Action
	round    int
	rounds   int
	timeLeft int
	total    int
	summary  stats.Summary
	soundOn  bool
	progress progress.Model
	help     help.Model
	width    int
	height   int
}

func New(controls Controls, soundOn bool) Model {
	prog := progress.New(progress.WithScaledGradient("#FF6B6B", "#4ECDC4"))
	prog.Width = 60

	return Model{
		controls: controls,
		phase:    timer.PhaseStopped,
		action:   shell.ActionStart,
		round:    1,
		soundOn:  soundOn,
		progress: prog,
		help:     help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(min(msg.Width-20, 80), 10)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, keys.Toggle):
			return m, m.run(func() { m.controls.Toggle() })
		case key.Matches(msg, keys.Stop):
			return m, m.run(m.controls.Stop)
		case key.Matches(msg, keys.Break):
			return m, m.run(m.controls.BreakNow)
		case key.Matches(msg, keys.Mute):
			controls := m.controls
			return m, func() tea.Msg { return soundMsg(controls.ToggleSound()) }
		}

	case tickMsg:
		m.timeLeft = msg.timeLeft
		m.total = msg.total
		return m, nil

	case phaseMsg:
		m.phase = msg.phase
		m.round = msg.round
		m.rounds = msg.rounds
		m.action = msg.action
		return m, nil

	case summaryMsg:
		m.summary = stats.Summary(msg)
		return m, nil

	case soundMsg:
		m.soundOn = bool(msg)
		return m, nil
	}

	return m, nil
}

// run performs a controller call off the event loop.
func (m Model) run(call func()) tea.Cmd {
	return func() tea.Msg {
		call()
		return nil
	}
}

func (m Model) View() string {
	phaseStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(phaseColor(m.phase))).
		MarginBottom(1)

	timerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(phaseColor(m.phase))).
		Padding(1, 4).
		MarginBottom(1)

	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888")).
		MarginTop(1)

	round := ""
	if m.rounds > 0 {
		round = shell.RoundText(m.round, m.rounds)
	}

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		phaseStyle.Render(shell.StatusText(m.phase)),
		timerStyle.Render(shell.FormatClock(m.timeLeft)),
		m.progress.ViewAs(shell.Progress(m.timeLeft, m.total)),
		infoStyle.Render(round+"  •  next: "+string(m.action)+"  •  "+soundText(m.soundOn)),
		infoStyle.Render(shell.SummaryText(m.summary)),
		m.help.View(keys),
	)

	if m.width == 0 {
		return content
	}
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func phaseColor(phase timer.Phase) string {
	switch {
	case phase == timer.PhaseWork:
		return "#FF6B6B"
	case phase.IsBreak():
		return "#4ECDC4"
	default:
		return "#95A5A6"
	}
}

func soundText(on bool) string {
	if on {
		return "sound on"
	}
	return "sound off"
}
