package dashboard

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"pomodoro/internal/stats"
)

// HistoryDays is the window shown by the statistics view.
const HistoryDays = 30

const cellSize = 18

// HistorySource answers history queries.
type HistorySource interface {
	History(ctx context.Context, days int) ([]stats.DaySummary, error)
}

var intensityColors = []color.NRGBA{
	{R: 0xEB, G: 0xED, B: 0xF0, A: 0xFF},
	{R: 0x9B, G: 0xE9, B: 0xA8, A: 0xFF},
	{R: 0x40, G: 0xC4, B: 0x63, A: 0xFF},
	{R: 0x30, G: 0xA1, B: 0x4E, A: 0xFF},
	{R: 0x21, G: 0x6E, B: 0x39, A: 0xFF},
}

// StatsWindow shows worked minutes of the last days as a weekday grid.
type StatsWindow struct {
	window fyne.Window
	source HistorySource
	log    logrus.FieldLogger
}

func NewStatsWindow(app fyne.App, source HistorySource, logger logrus.FieldLogger) *StatsWindow {
	window := app.NewWindow("Pomodoro Statistics")
	window.SetCloseIntercept(func() {
		window.Hide()
	})
	return &StatsWindow{window: window, source: source, log: logger}
}

// Show reloads the history and displays the window.
func (statsWindow *StatsWindow) Show() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	history, err := statsWindow.source.History(ctx, HistoryDays)
	if err != nil {
		statsWindow.log.WithError(err).Warn("could not load statistics history")
		statsWindow.window.SetContent(widget.NewLabel(fmt.Sprintf("Could not load statistics: %v", err)))
	} else {
		statsWindow.window.SetContent(buildHistory(history))
	}
	statsWindow.window.Show()
	statsWindow.window.RequestFocus()
}

func buildHistory(history []stats.DaySummary) fyne.CanvasObject {
	weekdays := container.NewVBox()
	for _, day := range []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"} {
		label := canvas.NewText(day, theme.Color(theme.ColorNameForeground))
		label.TextSize = 11
		weekdays.Add(container.NewGridWrap(fyne.NewSize(32, cellSize), label))
	}

	columns := container.NewHBox(weekdays)
	for _, week := range weekGrid(history) {
		column := container.NewVBox()
		for _, day := range week {
			cell := canvas.NewRectangle(color.Transparent)
			if day != nil {
				cell.FillColor = intensityColors[intensity(day.Minutes)]
			}
			cell.SetMinSize(fyne.NewSize(cellSize, cellSize))
			cell.CornerRadius = 3
			column.Add(cell)
		}
		columns.Add(column)
	}

	totals := stats.Totals(history)
	summary := container.NewGridWithColumns(3,
		widget.NewLabel(fmt.Sprintf("Total: %d min", totals.TotalMinutes)),
		widget.NewLabel(fmt.Sprintf("Active days: %d", totals.ActiveDays)),
		widget.NewLabel(fmt.Sprintf("Per day: %d min", totals.AveragePerDay)),
	)

	return container.NewPadded(container.NewVBox(
		widget.NewLabelWithStyle(fmt.Sprintf("Your activity over the last %d days", HistoryDays),
			fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		container.NewCenter(columns),
		summary,
	))
}

// weekGrid arranges days into Monday-first week columns. Slots before the
// first day and after the last are nil.
func weekGrid(history []stats.DaySummary) [][7]*stats.DaySummary {
	var weeks [][7]*stats.DaySummary
	var current [7]*stats.DaySummary
	started := false
	for i := range history {
		date, err := time.Parse("2006-01-02", history[i].Date)
		if err != nil {
			continue
		}
		slot := (int(date.Weekday()) + 6) % 7
		if started && slot == 0 {
			weeks = append(weeks, current)
			current = [7]*stats.DaySummary{}
		}
		current[slot] = &history[i]
		started = true
	}
	if started {
		weeks = append(weeks, current)
	}
	return weeks
}

// intensity buckets minutes into a color level.
func intensity(minutes int) int {
	switch {
	case minutes <= 0:
		return 0
	case minutes < 30:
		return 1
	case minutes < 60:
		return 2
	case minutes < 90:
		return 3
	default:
		return 4
	}
}
