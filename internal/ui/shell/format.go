package shell

import (
	"fmt"

	"pomodoro/internal/core/timer"
	"pomodoro/internal/stats"
)

// StatusText is the headline shown for phase.
func StatusText(phase timer.Phase) string {
	switch phase {
	case timer.PhaseWork:
		return "Time to work!"
	case timer.PhaseBreak:
		return "Time to rest!"
	case timer.PhaseLongBreak:
		return "Long break!"
	case timer.PhasePaused:
		return "Paused"
	default:
		return "Ready to work"
	}
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Progress is the elapsed share of the phase, between 0 and 1.
func Progress(timeLeft, total int) float64 {
	if total <= 0 {
		return 0
	}
	elapsed := float64(total-timeLeft) / float64(total)
	return min(max(elapsed, 0), 1)
}

// RoundText renders the round counter, e.g. "Round 2 of 4".
func RoundText(round, rounds int) string {
	return fmt.Sprintf("Round %d of %d", round, rounds)
}

// SummaryText renders the today/total line.
func SummaryText(summary stats.Summary) string {
	return fmt.Sprintf("Today: %d min\nTotal: %d min (%d sessions, avg %.1f min)",
		summary.TodayMinutes, summary.TotalMinutes, summary.TotalSessions, summary.AverageSession)
}

// Views fans every update out to several renderers.
type Views []View

func (views Views) ShowTick(timeLeft, total int) {
	for _, view := range views {
		view.ShowTick(timeLeft, total)
	}
}

func (views Views) ShowPhase(phase timer.Phase, round, rounds int) {
	for _, view := range views {
		view.ShowPhase(phase, round, rounds)
	}
}

func (views Views) ShowSummary(summary stats.Summary) {
	for _, view := range views {
		view.ShowSummary(summary)
	}
}
