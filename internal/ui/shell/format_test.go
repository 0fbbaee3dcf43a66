package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pomodoro/internal/core/timer"
	"pomodoro/internal/stats"
)

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "25:00", FormatClock(1500))
	assert.Equal(t, "00:59", FormatClock(59))
	assert.Equal(t, "00:00", FormatClock(-3))
	assert.Equal(t, "100:01", FormatClock(6001))
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0.0, Progress(1500, 1500))
	assert.Equal(t, 0.5, Progress(750, 1500))
	assert.Equal(t, 1.0, Progress(0, 1500))
	assert.Equal(t, 1.0, Progress(-10, 1500))
	assert.Equal(t, 0.0, Progress(10, 0))
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "Time to work!", StatusText(timer.PhaseWork))
	assert.Equal(t, "Long break!", StatusText(timer.PhaseLongBreak))
	assert.Equal(t, "Ready to work", StatusText(timer.PhaseStopped))
}

func TestSummaryText(t *testing.T) {
	text := SummaryText(stats.Summary{TodayMinutes: 50, TotalMinutes: 120, TotalSessions: 4, AverageSession: 30})

	assert.Equal(t, "Today: 50 min\nTotal: 120 min (4 sessions, avg 30.0 min)", text)
}

func TestViewsFanOut(t *testing.T) {
	first, second := &fakeView{}, &fakeView{}
	views := Views{first, second}

	views.ShowPhase(timer.PhaseBreak, 2, 4)
	views.ShowTick(10, 300)
	views.ShowSummary(stats.Summary{TotalMinutes: 1})

	for _, view := range []*fakeView{first, second} {
		assert.Equal(t, []timer.Phase{timer.PhaseBreak}, view.Phases())
		assert.Equal(t, [2]int{10, 300}, view.lastTick)
		assert.Len(t, view.summaries, 1)
	}
}
