package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"pomodoro/internal/core/timer"
)

const bellChar = "\a"

// Bell plays notification cues as a terminal bell. A muted bell only logs
// the cue.
type Bell struct {
	mu    sync.Mutex
	out   io.Writer
	log   logrus.FieldLogger
	muted bool
}

// NewBell creates a Bell writing to out. A nil out never rings.
func NewBell(out io.Writer, logger logrus.FieldLogger) *Bell {
	return &Bell{out: out, log: logger}
}

// Play rings the bell for cue unless muted.
func (bell *Bell) Play(cue timer.Cue) error {
	bell.mu.Lock()
	defer bell.mu.Unlock()

	if bell.muted {
		bell.log.WithField("cue", cue).Debug("sound muted")
		return nil
	}
	bell.log.WithField("cue", cue).Info("playing sound")
	if bell.out == nil {
		return nil
	}
	if _, err := io.WriteString(bell.out, bellChar); err != nil {
		return fmt.Errorf("ring bell for %s: %w", cue, err)
	}
	return nil
}

func (bell *Bell) SetMuted(muted bool) {
	bell.mu.Lock()
	defer bell.mu.Unlock()
	bell.muted = muted
}

func (bell *Bell) Muted() bool {
	bell.mu.Lock()
	defer bell.mu.Unlock()
	return bell.muted
}

// Toggle flips the mute state and reports whether sound is now enabled.
func (bell *Bell) Toggle() bool {
	bell.mu.Lock()
	defer bell.mu.Unlock()
	bell.muted = !bell.muted
	return !bell.muted
}
