package dashboard

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"pomodoro/internal/core/timer"
	"pomodoro/internal/stats"
	"pomodoro/internal/ui/shell"
)

// Controls are the controller operations the window triggers.
type Controls interface {
	Toggle() shell.Action
	Stop()
	ToggleSound() bool
	NextAction() shell.Action
}

// Callbacks open the secondary windows.
type Callbacks struct {
	OnStatistics  func()
	OnPreferences func()
}

var (
	workColor  = color.NRGBA{R: 0xFF, G: 0x6B, B: 0x6B, A: 0xFF}
	breakColor = color.NRGBA{R: 0x4E, G: 0xCD, B: 0xC4, A: 0xFF}
	pauseColor = color.NRGBA{R: 0x95, G: 0xA5, B: 0xA6, A: 0xFF}
)

// Window is the main timer window. It implements shell.View.
type Window struct {
	window       fyne.Window
	controls     Controls
	callbacks    Callbacks
	timeLabel    *canvas.Text
	phaseLabel   *widget.Label
	roundLabel   *widget.Label
	statusLabel  *widget.Label
	summaryLabel *widget.Label
	progress     *widget.ProgressBar
	toggleButton *widget.Button
	stopButton   *widget.Button
	soundButton  *widget.Button
}

// New creates the main window.
func New(app fyne.App, controls Controls, soundEnabled bool, callbacks Callbacks) *Window {
	window := app.NewWindow("Pomodoro Timer")
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}

	timeLabel := canvas.NewText(shell.FormatClock(0), pauseColor)
	timeLabel.Alignment = fyne.TextAlignCenter
	timeLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	timeLabel.TextSize = 64

	dashboard := &Window{
		window:       window,
		controls:     controls,
		callbacks:    callbacks,
		timeLabel:    timeLabel,
		phaseLabel:   widget.NewLabelWithStyle(shell.StatusText(timer.PhaseStopped), fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		roundLabel:   widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{}),
		statusLabel:  widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Italic: true}),
		summaryLabel: widget.NewLabelWithStyle(shell.SummaryText(stats.Summary{}), fyne.TextAlignCenter, fyne.TextStyle{}),
		progress:     widget.NewProgressBar(),
	}
	dashboard.toggleButton = widget.NewButton(string(shell.ActionStart), dashboard.handleToggle)
	dashboard.stopButton = widget.NewButton("Stop", dashboard.handleStop)
	dashboard.stopButton.Disable()
	dashboard.soundButton = widget.NewButton(soundLabel(soundEnabled), dashboard.handleSound)

	statsButton := widget.NewButton("Statistics", func() {
		if dashboard.callbacks.OnStatistics != nil {
			dashboard.callbacks.OnStatistics()
		}
	})
	settingsButton := widget.NewButton("Settings", func() {
		if dashboard.callbacks.OnPreferences != nil {
			dashboard.callbacks.OnPreferences()
		}
	})

	content := container.NewVBox(
		dashboard.phaseLabel,
		dashboard.timeLabel,
		dashboard.progress,
		dashboard.roundLabel,
		container.NewGridWithColumns(2, dashboard.toggleButton, dashboard.stopButton),
		container.NewHBox(statsButton, settingsButton, layout.NewSpacer(), dashboard.soundButton),
		widget.NewSeparator(),
		dashboard.statusLabel,
		dashboard.summaryLabel,
	)
	window.SetContent(container.NewPadded(content))
	window.Resize(fyne.NewSize(400, 520))

	return dashboard
}

// Show displays the window.
func (dashboard *Window) Show() {
	dashboard.window.Show()
	dashboard.window.RequestFocus()
}

// Window exposes the fyne window for dialogs and close handling.
func (dashboard *Window) Window() fyne.Window {
	return dashboard.window
}

// SetStatus shows a transient message such as an error.
func (dashboard *Window) SetStatus(message string) {
	fyne.Do(func() {
		dashboard.statusLabel.SetText(message)
	})
}

// SetSound relabels the sound button after a change made elsewhere.
func (dashboard *Window) SetSound(enabled bool) {
	fyne.Do(func() {
		dashboard.soundButton.SetText(soundLabel(enabled))
	})
}

func (dashboard *Window) ShowTick(timeLeft, total int) {
	fyne.Do(func() {
		dashboard.timeLabel.Text = shell.FormatClock(timeLeft)
		dashboard.timeLabel.Refresh()
		dashboard.progress.SetValue(shell.Progress(timeLeft, total))
	})
}

func (dashboard *Window) ShowPhase(phase timer.Phase, round, rounds int) {
	action := dashboard.controls.NextAction()
	fyne.Do(func() {
		dashboard.phaseLabel.SetText(shell.StatusText(phase))
		dashboard.roundLabel.SetText(shell.RoundText(round, rounds))
		dashboard.timeLabel.Color = phaseColor(phase)
		dashboard.timeLabel.Refresh()
		dashboard.toggleButton.SetText(string(action))
		if phase == timer.PhaseStopped {
			dashboard.stopButton.Disable()
			dashboard.progress.SetValue(0)
		} else {
			dashboard.stopButton.Enable()
		}
	})
}

func (dashboard *Window) ShowSummary(summary stats.Summary) {
	fyne.Do(func() {
		dashboard.summaryLabel.SetText(shell.SummaryText(summary))
	})
}

func (dashboard *Window) handleToggle() {
	dashboard.controls.Toggle()
	dashboard.toggleButton.SetText(string(dashboard.controls.NextAction()))
}

func (dashboard *Window) handleStop() {
	dashboard.controls.Stop()
}

func (dashboard *Window) handleSound() {
	dashboard.soundButton.SetText(soundLabel(dashboard.controls.ToggleSound()))
}

func phaseColor(phase timer.Phase) color.Color {
	switch {
	case phase == timer.PhaseWork:
		return workColor
	case phase.IsBreak():
		return breakColor
	default:
		return pauseColor
	}
}

func soundLabel(enabled bool) string {
	if enabled {
		return "Sound: on"
	}
	return "Sound: off"
}
