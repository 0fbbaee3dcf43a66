package term

import (
	tea "github.com/charmbracelet/bubbletea"

	"pomodoro/internal/core/timer"
	"pomodoro/internal/stats"
	"pomodoro/internal/ui/shell"
)

// View forwards controller updates into a running program. It implements
// shell.View.
type View struct {
	send func(tea.Msg)
	next func() shell.Action
}

// NewView sends through program; next reports the controller's next action.
func NewView(program *tea.Program, next func() shell.Action) *View {
	return &View{send: program.Send, next: next}
}

func (view *View) ShowTick(timeLeft, total int) {
	view.send(tickMsg{timeLeft: timeLeft, total: total})
}

func (view *View) ShowPhase(phase timer.Phase, round, rounds int) {
	view.send(phaseMsg{phase: phase, round: round, rounds: rounds, action: view.next()})
}

func (view *View) ShowSummary(summary stats.Summary) {
	view.send(summaryMsg(summary))
}
