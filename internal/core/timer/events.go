package timer

// Phase is the name announced on every state change.
type Phase string

const (
	PhaseWork      Phase = "work"
	PhaseBreak     Phase = "break"
	PhaseLongBreak Phase = "long_break"
	PhasePaused    Phase = "pause"
	PhaseStopped   Phase = "stop"
)

// IsBreak reports whether the phase is a short or long break.
func (phase Phase) IsBreak() bool {
	return phase == PhaseBreak || phase == PhaseLongBreak
}

// Callbacks are invoked by the engine outside of its lock, possibly from
// the countdown goroutine. A returned error or a panic counts as a
// listener failure.
type Callbacks struct {
	OnTick        func(timeLeft int) error
	OnStateChange func(phase Phase) error
}

// Snapshot is a consistent copy of the engine state.
type Snapshot struct {
	Phase      Phase
	Round      int
	Rounds     int
	TimeLeft   int
	PhaseTotal int
	Running    bool
	Paused     bool
	ErrorCount int
}
