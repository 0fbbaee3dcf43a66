package model

const (
	// MinPhaseSeconds is the duration a non-positive phase length is raised to.
	MinPhaseSeconds = 60

	DefaultWorkMinutes       = 25
	DefaultShortBreakMinutes = 5
	DefaultLongBreakMinutes  = 15
	DefaultRounds            = 4
)

// TimerConfig contains the phase lengths of a Pomodoro cycle in seconds.
type TimerConfig struct {
	WorkSeconds       int
	ShortBreakSeconds int
	LongBreakSeconds  int
	Rounds            int
}

// DefaultTimerConfig returns the classic 25/5/15 cycle with four rounds.
func DefaultTimerConfig() TimerConfig {
	return FromMinutes(DefaultWorkMinutes, DefaultShortBreakMinutes, DefaultLongBreakMinutes, DefaultRounds)
}

// FromMinutes builds a TimerConfig from minute values.
// Every value is clamped to at least one.
func FromMinutes(work, shortBreak, longBreak, rounds int) TimerConfig {
	return TimerConfig{
		WorkSeconds:       atLeastOne(work) * 60,
		ShortBreakSeconds: atLeastOne(shortBreak) * 60,
		LongBreakSeconds:  atLeastOne(longBreak) * 60,
		Rounds:            atLeastOne(rounds),
	}
}

// Normalize replaces non-positive durations with MinPhaseSeconds and
// non-positive rounds with 1.
func (config TimerConfig) Normalize() TimerConfig {
	if config.WorkSeconds <= 0 {
		config.WorkSeconds = MinPhaseSeconds
	}
	if config.ShortBreakSeconds <= 0 {
		config.ShortBreakSeconds = MinPhaseSeconds
	}
	if config.LongBreakSeconds <= 0 {
		config.LongBreakSeconds = MinPhaseSeconds
	}
	if config.Rounds <= 0 {
		config.Rounds = 1
	}
	return config
}

func atLeastOne(value int) int {
	if value < 1 {
		return 1
	}
	return value
}
