package tray

import (
	"fmt"

	"fyne.io/fyne/v2"

	"pomodoro/internal/core/timer"
	"pomodoro/internal/stats"
	"pomodoro/internal/ui/shell"
	"pomodoro/resources"
)

// View mirrors the timer in the tray menu. It implements shell.View.
type View struct {
	manager *Manager
	next    func() shell.Action
	phase   timer.Phase
}

// NewView binds manager to the controller's next action.
func NewView(manager *Manager, next func() shell.Action) *View {
	return &View{manager: manager, next: next, phase: timer.PhaseStopped}
}

// ShowTick updates the status once per minute to keep menu rebuilds rare.
func (view *View) ShowTick(timeLeft, _ int) {
	if timeLeft%60 != 0 {
		return
	}
	fyne.Do(func() {
		view.manager.SetStatus(statusLine(view.phase, timeLeft))
	})
}

func (view *View) ShowPhase(phase timer.Phase, _, _ int) {
	action := view.next()
	fyne.Do(func() {
		if phase != timer.PhasePaused {
			view.phase = phase
		}
		view.manager.SetStatus(shell.StatusText(phase))
		view.manager.SetAction(string(action))
		view.manager.SetRunning(phase != timer.PhaseStopped)
		view.manager.SetIcon(resources.PhaseIcon(phase))
	})
}

func (view *View) ShowSummary(stats.Summary) {}

func statusLine(phase timer.Phase, timeLeft int) string {
	if phase == timer.PhaseStopped {
		return shell.StatusText(phase)
	}
	return fmt.Sprintf("%s %s left", phase, shell.FormatClock(timeLeft))
}
