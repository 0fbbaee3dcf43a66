package preferences

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"pomodoro/internal/stats"
)

// Window handles the settings UI.
type Window struct {
	window     fyne.Window
	current    func() Settings
	settings   Settings
	onSave     func(Settings)
	onCancel   func()
	work       *widget.Entry
	shortBreak *widget.Entry
	longBreak  *widget.Entry
	rounds     *widget.Entry
	sound      *widget.Check
	autostart  *widget.Check
	backend    *widget.Select
	logLevel   *widget.Select
}

// New creates a settings window. current supplies the live settings every
// time the window is shown.
func New(app fyne.App, current func() Settings, onSave func(Settings)) *Window {
	window := app.NewWindow("Settings")

	prefs := &Window{
		window:     window,
		current:    current,
		onSave:     onSave,
		work:       widget.NewEntry(),
		shortBreak: widget.NewEntry(),
		longBreak:  widget.NewEntry(),
		rounds:     widget.NewEntry(),
		sound:      widget.NewCheck("Sound notifications", nil),
		autostart:  widget.NewCheck("Launch at login", nil),
		backend:    widget.NewSelect([]string{stats.BackendCSV, stats.BackendSQLite}, nil),
		logLevel:   widget.NewSelect(logLevels(), nil),
	}
	prefs.UpdateSettings(current())

	form := container.NewVBox(
		widget.NewLabelWithStyle("Timer", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Work time"), prefs.work, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Short break"), prefs.shortBreak, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Long break"), prefs.longBreak, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Rounds before long break"), prefs.rounds),
		widget.NewLabelWithStyle("General", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.sound,
		prefs.autostart,
		container.NewHBox(widget.NewLabel("Statistics storage"), prefs.backend),
		container.NewHBox(widget.NewLabel("Log level"), prefs.logLevel),
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", prefs.handleCancel)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(400, 360))
	window.SetCloseIntercept(func() {
		window.Hide()
	})

	return prefs
}

// Show reloads the live settings and displays the window.
func (prefs *Window) Show() {
	prefs.UpdateSettings(prefs.current())
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// SetOnCancel registers a callback for the cancel button.
func (prefs *Window) SetOnCancel(onCancel func()) {
	prefs.onCancel = onCancel
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.work.SetText(strconv.Itoa(settings.WorkMinutes))
	prefs.shortBreak.SetText(strconv.Itoa(settings.ShortBreakMinutes))
	prefs.longBreak.SetText(strconv.Itoa(settings.LongBreakMinutes))
	prefs.rounds.SetText(strconv.Itoa(settings.Rounds))
	prefs.sound.SetChecked(settings.SoundEnabled)
	prefs.autostart.SetChecked(settings.LaunchAtLogin)
	prefs.backend.SetSelected(settings.StatsBackend)
	prefs.logLevel.SetSelected(settings.LogLevel)
}

func (prefs *Window) handleSave() {
	settings := prefs.collect()
	prefs.settings = settings
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

func (prefs *Window) handleCancel() {
	prefs.window.Hide()
	if prefs.onCancel != nil {
		prefs.onCancel()
	}
}

// collect reads the form. Out of range numbers keep their previous value.
func (prefs *Window) collect() Settings {
	settings := prefs.settings

	if minutes, ok := parseInRange(prefs.work.Text, MaxWorkMinutes); ok {
		settings.WorkMinutes = minutes
	}
	if minutes, ok := parseInRange(prefs.shortBreak.Text, MaxShortBreakMinutes); ok {
		settings.ShortBreakMinutes = minutes
	}
	if minutes, ok := parseInRange(prefs.longBreak.Text, MaxLongBreakMinutes); ok {
		settings.LongBreakMinutes = minutes
	}
	if rounds, ok := parseInRange(prefs.rounds.Text, MaxRounds); ok {
		settings.Rounds = rounds
	}

	settings.SoundEnabled = prefs.sound.Checked
	settings.LaunchAtLogin = prefs.autostart.Checked
	if ValidBackend(prefs.backend.Selected) {
		settings.StatsBackend = prefs.backend.Selected
	}
	if prefs.logLevel.Selected != "" {
		settings.LogLevel = prefs.logLevel.Selected
	}
	return settings
}

func parseInRange(value string, upper int) (int, bool) {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 || parsed > upper {
		return 0, false
	}
	return parsed, true
}

func logLevels() []string {
	levels := make([]string, 0, len(logrus.AllLevels))
	for _, level := range logrus.AllLevels {
		levels = append(levels, level.String())
	}
	return levels
}
