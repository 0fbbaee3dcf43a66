package timer

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pomodoro/internal/core/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	fastTick = 5 * time.Millisecond
	slowTick = time.Hour
	waitFor  = 2 * time.Second
)

type recorder struct {
	mu      sync.Mutex
	engine  *Engine
	ticks   []int
	states  []Phase
	rounds  []int
	tickErr error
	stateFn func(Phase) error
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnTick: func(timeLeft int) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.ticks = append(r.ticks, timeLeft)
			return r.tickErr
		},
		OnStateChange: func(phase Phase) error {
			round := r.engine.Round()
			r.mu.Lock()
			r.states = append(r.states, phase)
			r.rounds = append(r.rounds, round)
			fn := r.stateFn
			r.mu.Unlock()
			if fn != nil {
				return fn(phase)
			}
			return nil
		},
	}
}

func (r *recorder) Ticks() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.ticks...)
}

func (r *recorder) States() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Phase(nil), r.states...)
}

func (r *recorder) Rounds() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.rounds...)
}

func newTestEngine(t *testing.T, config model.TimerConfig, tick time.Duration) (*Engine, *recorder, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	engine := New(config, Options{
		TickInterval:      tick,
		PausePollInterval: time.Millisecond,
		JoinTimeout:       50 * time.Millisecond,
		Logger:            logger,
	})
	rec := &recorder{engine: engine}
	engine.SetCallbacks(rec.callbacks())
	t.Cleanup(engine.Stop)
	return engine, rec, hook
}

func seconds(work, shortBreak, longBreak, rounds int) model.TimerConfig {
	return model.TimerConfig{
		WorkSeconds:       work,
		ShortBreakSeconds: shortBreak,
		LongBreakSeconds:  longBreak,
		Rounds:            rounds,
	}
}

func TestNewEngineIsStopped(t *testing.T) {
	engine, _, _ := newTestEngine(t, model.DefaultTimerConfig(), slowTick)

	snapshot := engine.Snapshot()
	assert.Equal(t, PhaseStopped, snapshot.Phase)
	assert.Equal(t, 1, snapshot.Round)
	assert.Equal(t, 1500, snapshot.TimeLeft)
	assert.False(t, snapshot.Running)
}

func TestNewEngineNormalizesConfig(t *testing.T) {
	engine, _, _ := newTestEngine(t, seconds(0, -1, 0, 0), slowTick)

	assert.Equal(t, seconds(60, 60, 60, 1), engine.Config())
}

func TestStartWorkSetsWorkPhase(t *testing.T) {
	engine, rec, _ := newTestEngine(t, seconds(1500, 300, 900, 4), slowTick)

	engine.StartWork()

	assert.Equal(t, PhaseWork, engine.Phase())
	assert.Equal(t, 1500, engine.TimeLeft())
	assert.True(t, engine.Running())
	assert.Equal(t, []Phase{PhaseWork}, rec.States())

	require.Eventually(t, func() bool { return len(rec.Ticks()) == 1 }, waitFor, time.Millisecond)
	assert.Equal(t, []int{1500}, rec.Ticks())
}

func TestStartWorkReplacesRunningCountdown(t *testing.T) {
	engine, rec, _ := newTestEngine(t, seconds(100, 10, 20, 4), fastTick)

	engine.StartWork()
	require.Eventually(t, func() bool { return engine.TimeLeft() < 98 }, waitFor, time.Millisecond)

	engine.StartWork()
	assert.GreaterOrEqual(t, engine.TimeLeft(), 99)
	assert.Equal(t, []Phase{PhaseWork, PhaseWork}, rec.States())
}

func TestStartBreakChoosesBreakKind(t *testing.T) {
	t.Run("short break before the last round", func(t *testing.T) {
		engine, rec, _ := newTestEngine(t, seconds(1500, 300, 900, 4), slowTick)

		engine.StartBreak()

		assert.Equal(t, PhaseBreak, engine.Phase())
		assert.Equal(t, 300, engine.TimeLeft())
		assert.Equal(t, []Phase{PhaseBreak}, rec.States())
	})

	t.Run("long break on the last round", func(t *testing.T) {
		engine, rec, _ := newTestEngine(t, seconds(1500, 300, 900, 1), slowTick)

		engine.StartBreak()

		assert.Equal(t, PhaseLongBreak, engine.Phase())
		assert.Equal(t, 900, engine.TimeLeft())
		assert.Equal(t, []Phase{PhaseLongBreak}, rec.States())
	})
}

func TestRoundProgression(t *testing.T) {
	engine, rec, _ := newTestEngine(t, seconds(1, 1, 1, 3), fastTick)

	engine.StartWork()
	require.Eventually(t, func() bool { return len(rec.States()) >= 8 }, waitFor, time.Millisecond)
	engine.Stop()

	assert.Equal(t, []Phase{
		PhaseWork, PhaseBreak, PhaseWork, PhaseBreak, PhaseWork, PhaseLongBreak, PhaseWork, PhaseBreak,
	}, rec.States()[:8])
	assert.Equal(t, []int{1, 2, 2, 3, 3, 1, 1, 2}, rec.Rounds()[:8])
}

func TestEndToEndCycle(t *testing.T) {
	engine, rec, _ := newTestEngine(t, seconds(1, 1, 1, 2), fastTick)

	engine.StartWork()
	require.Eventually(t, func() bool { return len(rec.States()) >= 8 }, waitFor, time.Millisecond)
	engine.Stop()

	states := rec.States()[:8]
	assert.Equal(t, []Phase{
		PhaseWork, PhaseBreak, PhaseWork, PhaseLongBreak, PhaseWork, PhaseBreak, PhaseWork, PhaseLongBreak,
	}, states)
	assert.Equal(t, 1, rec.Rounds()[3], "round wraps when the long break begins")

	work, long := 0, 0
	for _, phase := range states {
		switch phase {
		case PhaseWork:
			work++
		case PhaseLongBreak:
			long++
		}
	}
	assert.Equal(t, work/2, long)
	assert.Contains(t, rec.Ticks(), 1)
}

func TestStopIsIdempotent(t *testing.T) {
	engine, rec, _ := newTestEngine(t, model.DefaultTimerConfig(), slowTick)

	assert.NotPanics(t, func() {
		engine.Stop()
		assert.False(t, engine.Running())
		engine.Stop()
		assert.False(t, engine.Running())
	})
	assert.Equal(t, []Phase{PhaseStopped, PhaseStopped}, rec.States())
}

func TestStopTerminatesCountdown(t *testing.T) {
	engine, rec, _ := newTestEngine(t, seconds(1000, 10, 10, 4), fastTick)

	engine.StartWork()
	require.Eventually(t, func() bool { return len(rec.Ticks()) >= 3 }, waitFor, time.Millisecond)
	engine.Stop()

	assert.False(t, engine.Running())
	assert.Equal(t, PhaseStopped, engine.Phase())
	ticks := len(rec.Ticks())
	time.Sleep(10 * fastTick)
	assert.Equal(t, ticks, len(rec.Ticks()))
	assert.Equal(t, PhaseStopped, rec.States()[len(rec.States())-1])
}

func TestPauseResumePreservesTimeLeft(t *testing.T) {
	engine, rec, _ := newTestEngine(t, seconds(10, 5, 5, 4), slowTick)

	engine.StartWork()
	require.Eventually(t, func() bool { return len(rec.Ticks()) == 1 }, waitFor, time.Millisecond)

	engine.Pause()
	assert.Equal(t, PhasePaused, engine.Phase())
	assert.True(t, engine.Paused())
	assert.Equal(t, 10, engine.TimeLeft())

	engine.Resume()
	assert.Equal(t, 10, engine.TimeLeft())
	assert.Equal(t, PhaseWork, engine.Phase())
	assert.Equal(t, []Phase{PhaseWork, PhasePaused, PhaseWork}, rec.States())
}

func TestPauseSuspendsCountdown(t *testing.T) {
	engine, rec, _ := newTestEngine(t, seconds(1000, 5, 5, 4), fastTick)

	engine.StartWork()
	require.Eventually(t, func() bool { return len(rec.Ticks()) >= 3 }, waitFor, time.Millisecond)

	engine.Pause()
	frozen := engine.TimeLeft()
	time.Sleep(20 * fastTick)
	assert.Equal(t, frozen, engine.TimeLeft())

	engine.Resume()
	require.Eventually(t, func() bool { return engine.TimeLeft() < frozen }, waitFor, time.Millisecond)
}

func TestResumeReannouncesBreak(t *testing.T) {
	engine, rec, _ := newTestEngine(t, seconds(10, 5, 7, 1), slowTick)

	engine.StartBreak()
	engine.Pause()
	engine.Resume()

	assert.Equal(t, []Phase{PhaseLongBreak, PhasePaused, PhaseLongBreak}, rec.States())
}

func TestPauseAndResumeIgnoredWhenNotApplicable(t *testing.T) {
	engine, rec, _ := newTestEngine(t, model.DefaultTimerConfig(), slowTick)

	engine.Pause()
	engine.Resume()
	assert.Empty(t, rec.States())

	engine.StartWork()
	engine.Resume()
	engine.Pause()
	engine.Pause()
	assert.Equal(t, []Phase{PhaseWork, PhasePaused}, rec.States())
}

func TestTimeLeftNeverNegative(t *testing.T) {
	engine, _, _ := newTestEngine(t, model.DefaultTimerConfig(), slowTick)

	engine.mu.Lock()
	engine.timeLeft = -5
	engine.mu.Unlock()

	assert.Equal(t, 0, engine.TimeLeft())
	assert.Equal(t, 0, engine.Snapshot().TimeLeft)
}

func TestTickListenerFailuresStopEngine(t *testing.T) {
	engine, rec, hook := newTestEngine(t, seconds(1000, 5, 5, 4), fastTick)
	rec.tickErr = errors.New("display gone")

	assert.NotPanics(t, engine.StartWork)
	require.Eventually(t, func() bool { return !engine.Running() }, waitFor, time.Millisecond)

	assert.Equal(t, PhaseStopped, engine.Phase())
	assert.Len(t, rec.Ticks(), MaxConsecutiveErrors)
	assert.Equal(t, []Phase{PhaseWork, PhaseStopped}, rec.States())
	assert.Equal(t, MaxConsecutiveErrors, engine.Snapshot().ErrorCount)

	var sawLimit bool
	for _, entry := range hook.AllEntries() {
		if strings.Contains(entry.Message, "error limit reached") {
			sawLimit = true
		}
	}
	assert.True(t, sawLimit)
}

func TestIterationFailuresStopEngine(t *testing.T) {
	engine, rec, hook := newTestEngine(t, seconds(1000, 5, 5, 4), fastTick)
	var mu sync.Mutex
	iterations := 0
	engine.beforeStep = func() {
		mu.Lock()
		iterations++
		mu.Unlock()
		panic("frame dropped")
	}

	assert.NotPanics(t, engine.StartWork)
	require.Eventually(t, func() bool { return !engine.Running() }, waitFor, time.Millisecond)

	assert.Equal(t, PhaseStopped, engine.Phase())
	assert.False(t, engine.Paused())
	assert.Equal(t, []Phase{PhaseWork, PhaseStopped}, rec.States())
	assert.Empty(t, rec.Ticks())
	assert.Zero(t, engine.Snapshot().ErrorCount)
	mu.Lock()
	assert.Equal(t, MaxConsecutiveErrors, iterations)
	mu.Unlock()

	var loopFailures int
	var sawStop bool
	for _, entry := range hook.AllEntries() {
		if strings.Contains(entry.Message, "too many countdown failures") {
			sawStop = true
		}
		err, ok := entry.Data[logrus.ErrorKey].(error)
		if !ok {
			continue
		}
		var f failure
		if errors.As(err, &f) && f.kind == FailureLoop {
			assert.ErrorIs(t, err, ErrLoopPanic)
			loopFailures++
		}
	}
	assert.Equal(t, MaxConsecutiveErrors, loopFailures)
	assert.True(t, sawStop)
}

func TestIterationFailuresAreCountedWithoutReset(t *testing.T) {
	engine, rec, _ := newTestEngine(t, seconds(1000, 5, 5, 4), fastTick)
	var mu sync.Mutex
	iterations := 0
	engine.beforeStep = func() {
		mu.Lock()
		iterations++
		n := iterations
		mu.Unlock()
		// Failures on every other iteration, never three in a row.
		if n%2 == 1 {
			panic("frame dropped")
		}
	}

	engine.StartWork()
	require.Eventually(t, func() bool { return !engine.Running() }, waitFor, time.Millisecond)

	assert.Equal(t, PhaseStopped, engine.Phase())
	assert.Len(t, rec.Ticks(), MaxConsecutiveErrors-1)
	mu.Lock()
	assert.Equal(t, 2*MaxConsecutiveErrors-1, iterations)
	mu.Unlock()
}

func TestListenerPanicIsRecovered(t *testing.T) {
	engine, rec, hook := newTestEngine(t, seconds(1000, 5, 5, 4), slowTick)
	rec.stateFn = func(phase Phase) error {
		if phase == PhaseWork {
			panic("renderer exploded")
		}
		return nil
	}

	assert.NotPanics(t, engine.StartWork)

	assert.True(t, engine.Running())
	assert.Equal(t, 1, engine.Snapshot().ErrorCount)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	err, ok := entry.Data[logrus.ErrorKey].(error)
	require.True(t, ok)
	assert.ErrorIs(t, err, ErrListenerPanic)
}

func TestStartWorkResetsErrorCount(t *testing.T) {
	engine, rec, _ := newTestEngine(t, seconds(1000, 5, 5, 4), slowTick)
	failing := true
	rec.stateFn = func(phase Phase) error {
		if failing && phase == PhasePaused {
			return errors.New("pause icon missing")
		}
		return nil
	}

	engine.StartWork()
	engine.Pause()
	engine.Resume()
	engine.Pause()
	engine.Resume()
	assert.Equal(t, 2, engine.Snapshot().ErrorCount)

	failing = false
	engine.StartWork()
	assert.Equal(t, 0, engine.Snapshot().ErrorCount)
	assert.True(t, engine.Running())
}

func TestForcedStopDoesNotRecurse(t *testing.T) {
	engine, rec, _ := newTestEngine(t, seconds(1000, 5, 5, 4), slowTick)
	rec.stateFn = func(Phase) error { return errors.New("listener offline") }

	engine.StartWork()
	engine.Pause()
	engine.Resume()

	assert.False(t, engine.Running())
	assert.Equal(t, []Phase{PhaseWork, PhasePaused, PhaseWork, PhaseStopped}, rec.States())
	assert.Equal(t, MaxConsecutiveErrors+1, engine.Snapshot().ErrorCount)
}

func TestUpdateConfigAppliesToNextPhase(t *testing.T) {
	engine, _, _ := newTestEngine(t, seconds(100, 10, 20, 4), slowTick)

	engine.StartWork()
	engine.UpdateConfig(seconds(200, 30, 40, 2))
	assert.Equal(t, 100, engine.TimeLeft())

	engine.StartWork()
	assert.Equal(t, 200, engine.TimeLeft())

	engine.Stop()
	engine.UpdateConfig(seconds(0, 30, 40, 2))
	assert.Equal(t, 60, engine.TimeLeft())
}

func TestUpdateConfigClampsRound(t *testing.T) {
	engine, _, _ := newTestEngine(t, seconds(100, 10, 20, 4), slowTick)
	engine.mu.Lock()
	engine.round = 4
	engine.mu.Unlock()

	engine.UpdateConfig(seconds(100, 10, 20, 2))

	assert.Equal(t, 2, engine.Round())
}

type fakeSound struct {
	mu    sync.Mutex
	cues  []Cue
	err   error
	panic bool
}

func (sound *fakeSound) Play(cue Cue) error {
	sound.mu.Lock()
	defer sound.mu.Unlock()
	sound.cues = append(sound.cues, cue)
	if sound.panic {
		panic("speaker unplugged")
	}
	return sound.err
}

func (sound *fakeSound) Cues() []Cue {
	sound.mu.Lock()
	defer sound.mu.Unlock()
	return append([]Cue(nil), sound.cues...)
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (notifier *fakeNotifier) Notify(title, message string) error {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	notifier.messages = append(notifier.messages, title+": "+message)
	return notifier.err
}

func (notifier *fakeNotifier) Messages() []string {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	return append([]string(nil), notifier.messages...)
}

func TestAlertsFireAtPhaseEnd(t *testing.T) {
	engine, rec, _ := newTestEngine(t, seconds(1, 120, 900, 4), fastTick)
	sound := &fakeSound{}
	notifier := &fakeNotifier{}
	engine.SetAlerts(Alerts{Sound: sound, Notifier: notifier})

	engine.StartWork()
	require.Eventually(t, func() bool { return len(rec.States()) >= 2 }, waitFor, time.Millisecond)

	assert.Equal(t, []Cue{CueWorkOver}, sound.Cues())
	require.Len(t, notifier.Messages(), 1)
	assert.Equal(t, "Pomodoro Timer: Work time is over!\nStarting a 2-minute break.", notifier.Messages()[0])
}

func TestAlertFailuresAreNotCounted(t *testing.T) {
	engine, rec, hook := newTestEngine(t, seconds(1, 1, 1, 4), fastTick)
	engine.SetAlerts(Alerts{
		Sound:    &fakeSound{panic: true},
		Notifier: &fakeNotifier{err: errors.New("no notification daemon")},
	})

	engine.StartWork()
	require.Eventually(t, func() bool { return len(rec.States()) >= 4 }, waitFor, time.Millisecond)

	assert.True(t, engine.Running())
	assert.Equal(t, 0, engine.Snapshot().ErrorCount)

	var warnings int
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.GreaterOrEqual(t, warnings, 2)
}

func TestCallbacksMayReenterEngine(t *testing.T) {
	engine, rec, _ := newTestEngine(t, seconds(1000, 5, 5, 4), fastTick)
	rec.stateFn = func(phase Phase) error {
		if phase == PhaseWork {
			_ = engine.Snapshot()
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		engine.StartWork()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("StartWork deadlocked with a re-entrant listener")
	}
}
