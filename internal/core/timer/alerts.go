package timer

import "fmt"

// Cue identifies the sound played at the end of a phase.
type Cue string

const (
	CueWorkOver  Cue = "relax"
	CueBreakOver Cue = "notification"
)

const notificationTitle = "Pomodoro Timer"

// SoundPlayer plays a notification cue.
type SoundPlayer interface {
	Play(cue Cue) error
}

// Notifier delivers a desktop notification.
type Notifier interface {
	Notify(title, message string) error
}

// Alerts groups the end-of-phase collaborators. Nil members are skipped.
type Alerts struct {
	Sound    SoundPlayer
	Notifier Notifier
}

func phaseEndMessage(finished Phase, next Phase, nextSeconds int) string {
	length := describeLength(nextSeconds)
	if finished == PhaseWork {
		if next == PhaseLongBreak {
			return fmt.Sprintf("Work time is over!\nStarting a %s long break.", length)
		}
		return fmt.Sprintf("Work time is over!\nStarting a %s break.", length)
	}
	return fmt.Sprintf("Break is over!\nStarting a %s work session.", length)
}

func describeLength(seconds int) string {
	if seconds >= 60 && seconds%60 == 0 {
		return fmt.Sprintf("%d-minute", seconds/60)
	}
	return fmt.Sprintf("%d-second", seconds)
}
