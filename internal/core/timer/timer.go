package timer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pomodoro/internal/core/model"
	"pomodoro/internal/logs"
)

// Options contains runtime options for the Engine.
type Options struct {
	TickInterval      time.Duration
	PausePollInterval time.Duration
	JoinTimeout       time.Duration
	Logger            logrus.FieldLogger
}

// countdown is one background ticking goroutine. A countdown only mutates
// engine state while its context is live; detaching cancels it.
type countdown struct {
	ctx    context.Context
	cancel context.CancelFunc
	ready  chan struct{}
	done   chan struct{}
}

func newCountdown() *countdown {
	ctx, cancel := context.WithCancel(context.Background())
	return &countdown{
		ctx:    ctx,
		cancel: cancel,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Engine is the Pomodoro state machine. It cycles through work and break
// phases on a background goroutine and reports ticks and phase changes to
// the registered callbacks.
type Engine struct {
	mu         sync.Mutex
	config     model.TimerConfig
	options    Options
	log        logrus.FieldLogger
	callbacks  Callbacks
	alerts     Alerts
	phase      Phase
	paused     bool
	round      int
	timeLeft   int
	running    bool
	errorCount int
	current    *countdown

	// beforeStep runs at the start of every iteration when set. Tests use it
	// to inject iteration failures.
	beforeStep func()
}

// New creates a stopped Engine with the provided configuration.
func New(config model.TimerConfig, options Options) *Engine {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.PausePollInterval <= 0 {
		options.PausePollInterval = 100 * time.Millisecond
	}
	if options.JoinTimeout <= 0 {
		options.JoinTimeout = 100 * time.Millisecond
	}
	if options.Logger == nil {
		options.Logger = logs.New("timer")
	}

	engine := &Engine{
		config:  config.Normalize(),
		options: options,
		log:     options.Logger,
		phase:   PhaseStopped,
		round:   1,
	}
	engine.timeLeft = engine.config.WorkSeconds
	return engine
}

// SetCallbacks registers the tick and state-change listeners.
func (engine *Engine) SetCallbacks(callbacks Callbacks) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.callbacks = callbacks
}

// SetAlerts injects the end-of-phase collaborators.
func (engine *Engine) SetAlerts(alerts Alerts) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.alerts = alerts
}

// UpdateConfig replaces the configuration. It applies from the next phase.
func (engine *Engine) UpdateConfig(config model.TimerConfig) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.config = config.Normalize()
	if engine.round > engine.config.Rounds {
		engine.round = engine.config.Rounds
	}
	if !engine.running {
		engine.timeLeft = engine.config.WorkSeconds
	}
}

// StartWork begins a work phase, replacing any running countdown.
func (engine *Engine) StartWork() {
	engine.begin(nil, func() Phase {
		engine.errorCount = 0
		return PhaseWork
	})
}

// StartBreak begins a break. It is a long break iff the current round has
// reached the configured number of rounds.
func (engine *Engine) StartBreak() {
	engine.begin(nil, engine.breakPhaseLocked)
}

// Pause suspends decrementing without stopping the countdown.
func (engine *Engine) Pause() {
	engine.mu.Lock()
	if !engine.running || engine.paused {
		engine.mu.Unlock()
		return
	}
	engine.paused = true
	timeLeft := engine.timeLeft
	engine.mu.Unlock()

	engine.log.WithField("time_left", timeLeft).Info("timer paused")
	engine.deliverState(PhasePaused, nil)
}

// Resume continues a paused countdown and re-announces its phase.
func (engine *Engine) Resume() {
	engine.mu.Lock()
	if !engine.paused {
		engine.mu.Unlock()
		return
	}
	engine.paused = false
	phase := engine.phase
	engine.mu.Unlock()

	engine.log.WithField("phase", phase).Info("timer resumed")
	engine.deliverState(phase, nil)
}

// Stop terminates the countdown and announces the stopped state. Calling
// Stop on a stopped engine only repeats the announcement.
func (engine *Engine) Stop() {
	engine.stop(nil, false)
}

// TimeLeft returns the remaining seconds of the current phase, never negative.
func (engine *Engine) TimeLeft() int {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return max(0, engine.timeLeft)
}

// Phase returns the observable phase; PhasePaused while paused.
func (engine *Engine) Phase() Phase {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.observedPhaseLocked()
}

// Round returns the current round, starting at 1.
func (engine *Engine) Round() int {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.round
}

// Running reports whether a countdown is active.
func (engine *Engine) Running() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.running
}

// Paused reports whether the countdown is suspended.
func (engine *Engine) Paused() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.paused
}

// Config returns the normalized configuration.
func (engine *Engine) Config() model.TimerConfig {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.config
}

// PhaseTotal returns the configured length of phase in seconds.
func (engine *Engine) PhaseTotal(phase Phase) int {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.phaseSecondsLocked(phase)
}

// Snapshot returns a consistent copy of the engine state.
func (engine *Engine) Snapshot() Snapshot {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return Snapshot{
		Phase:      engine.observedPhaseLocked(),
		Round:      engine.round,
		Rounds:     engine.config.Rounds,
		TimeLeft:   max(0, engine.timeLeft),
		PhaseTotal: engine.phaseSecondsLocked(engine.phase),
		Running:    engine.running,
		Paused:     engine.paused,
		ErrorCount: engine.errorCount,
	}
}

// begin switches to the phase chosen by prepare and launches a fresh
// countdown. self is the countdown requesting the switch, nil for callers
// outside the engine.
func (engine *Engine) begin(self *countdown, prepare func() Phase) {
	engine.mu.Lock()
	if self != nil && engine.current != self {
		engine.mu.Unlock()
		return
	}
	previous := engine.detachLocked()
	phase := prepare()
	engine.phase = phase
	engine.timeLeft = engine.phaseSecondsLocked(phase)
	engine.paused = false
	engine.running = true
	next := newCountdown()
	engine.current = next
	round := engine.round
	timeLeft := engine.timeLeft
	engine.mu.Unlock()

	if previous != self {
		engine.await(previous)
	}

	engine.log.WithFields(logrus.Fields{
		"phase":     phase,
		"round":     round,
		"time_left": timeLeft,
	}).Info("phase started")

	go engine.run(next)
	engine.deliverState(phase, next)
	close(next.ready)
}

func (engine *Engine) stop(self *countdown, forced bool) {
	engine.mu.Lock()
	if forced && (!engine.running || (self != nil && engine.current != self)) {
		engine.mu.Unlock()
		return
	}
	previous := engine.detachLocked()
	engine.running = false
	engine.paused = false
	engine.phase = PhaseStopped
	engine.mu.Unlock()

	if previous != self {
		engine.await(previous)
	}

	engine.log.WithField("forced", forced).Info("timer stopped")
	engine.deliverState(PhaseStopped, nil)
}

// nextCycle moves to the phase following the one that just ended.
func (engine *Engine) nextCycle(self *countdown) {
	engine.begin(self, func() Phase {
		if engine.phase != PhaseWork {
			engine.errorCount = 0
			return PhaseWork
		}
		next := engine.breakPhaseLocked()
		engine.advanceRoundLocked()
		return next
	})
}

func (engine *Engine) run(c *countdown) {
	defer close(c.done)

	select {
	case <-c.ready:
	case <-c.ctx.Done():
		return
	}

	loopFailures := 0
	for {
		exit, err := engine.iterate(c)
		if err == nil {
			if exit {
				return
			}
			continue
		}

		loopFailures++
		engine.log.WithError(err).WithField("failures", loopFailures).Error("countdown iteration failed")
		if loopFailures >= MaxConsecutiveErrors {
			engine.log.Error("too many countdown failures, stopping timer")
			engine.stop(c, true)
			return
		}
		if !sleepWithContext(c.ctx, engine.options.TickInterval) {
			return
		}
	}
}

func (engine *Engine) iterate(c *countdown) (exit bool, err error) {
	err = capture(ErrLoopPanic, func() error {
		if engine.beforeStep != nil {
			engine.beforeStep()
		}
		exit = engine.step(c)
		return nil
	})
	if err != nil {
		return false, failure{kind: FailureLoop, op: "countdown", err: err}
	}
	return exit, nil
}

// step runs one countdown iteration and reports whether the countdown is over.
func (engine *Engine) step(c *countdown) bool {
	engine.mu.Lock()
	if c.ctx.Err() != nil {
		engine.mu.Unlock()
		return true
	}
	paused := engine.paused
	timeLeft := engine.timeLeft
	engine.mu.Unlock()

	if paused {
		return !sleepWithContext(c.ctx, engine.options.PausePollInterval)
	}

	if engine.deliverTick(timeLeft, c) == OutcomeForcedStop {
		return true
	}
	if !sleepWithContext(c.ctx, engine.options.TickInterval) {
		return true
	}

	engine.mu.Lock()
	if c.ctx.Err() != nil {
		engine.mu.Unlock()
		return true
	}
	if engine.paused {
		engine.mu.Unlock()
		return false
	}
	engine.timeLeft--
	finished := engine.timeLeft <= 0
	engine.mu.Unlock()

	if !finished {
		return false
	}
	engine.finishPhase(c)
	return true
}

func (engine *Engine) finishPhase(c *countdown) {
	engine.mu.Lock()
	finished := engine.phase
	next := PhaseWork
	if finished == PhaseWork {
		next = engine.breakPhaseLocked()
	}
	nextSeconds := engine.phaseSecondsLocked(next)
	alerts := engine.alerts
	engine.mu.Unlock()

	cue := CueBreakOver
	if finished == PhaseWork {
		cue = CueWorkOver
	}
	if alerts.Sound != nil {
		engine.collaborate("sound", func() error { return alerts.Sound.Play(cue) })
	}
	if alerts.Notifier != nil {
		message := phaseEndMessage(finished, next, nextSeconds)
		engine.collaborate("notification", func() error {
			return alerts.Notifier.Notify(notificationTitle, message)
		})
	}

	engine.nextCycle(c)
}

func (engine *Engine) collaborate(op string, fn func() error) {
	if err := capture(ErrCollaboratorPanic, fn); err != nil {
		engine.fail(failure{kind: FailureCollaborator, op: op, err: err}, nil)
	}
}

func (engine *Engine) deliverTick(timeLeft int, self *countdown) Outcome {
	engine.mu.Lock()
	handler := engine.callbacks.OnTick
	engine.mu.Unlock()
	if handler == nil {
		return OutcomeRecovered
	}

	err := capture(ErrListenerPanic, func() error { return handler(timeLeft) })
	if err == nil {
		return OutcomeRecovered
	}
	return engine.fail(failure{kind: FailureListener, op: "tick", err: err}, self)
}

func (engine *Engine) deliverState(phase Phase, self *countdown) Outcome {
	engine.mu.Lock()
	handler := engine.callbacks.OnStateChange
	engine.mu.Unlock()
	if handler == nil {
		return OutcomeRecovered
	}

	err := capture(ErrListenerPanic, func() error { return handler(phase) })
	if err == nil {
		return OutcomeRecovered
	}
	return engine.fail(failure{kind: FailureListener, op: "state_change:" + string(phase), err: err}, self)
}

// fail records a failure and stops the engine once the budget is spent.
// Collaborator failures are only logged.
func (engine *Engine) fail(f failure, self *countdown) Outcome {
	if f.kind == FailureCollaborator {
		engine.log.WithError(f).Warn("collaborator failed")
		return OutcomeRecovered
	}

	engine.mu.Lock()
	engine.errorCount++
	count := engine.errorCount
	engine.mu.Unlock()

	entry := engine.log.WithError(f).WithField("errors", count)
	if count < MaxConsecutiveErrors {
		entry.Error("recovered from failure")
		return OutcomeRecovered
	}

	entry.Error("error limit reached, stopping timer")
	engine.stop(self, true)
	return OutcomeForcedStop
}

// detachLocked cancels the current countdown and returns it for joining.
func (engine *Engine) detachLocked() *countdown {
	previous := engine.current
	engine.current = nil
	if previous != nil {
		previous.cancel()
	}
	return previous
}

// await waits for a detached countdown to exit, at most JoinTimeout.
func (engine *Engine) await(c *countdown) {
	if c == nil {
		return
	}
	timer := time.NewTimer(engine.options.JoinTimeout)
	defer timer.Stop()
	select {
	case <-c.done:
	case <-timer.C:
		engine.log.Debug("countdown did not exit within join timeout")
	}
}

func (engine *Engine) breakPhaseLocked() Phase {
	if engine.round >= engine.config.Rounds {
		return PhaseLongBreak
	}
	return PhaseBreak
}

func (engine *Engine) advanceRoundLocked() {
	if engine.round >= engine.config.Rounds {
		engine.round = 1
		return
	}
	engine.round++
}

func (engine *Engine) phaseSecondsLocked(phase Phase) int {
	switch phase {
	case PhaseBreak:
		return engine.config.ShortBreakSeconds
	case PhaseLongBreak:
		return engine.config.LongBreakSeconds
	default:
		return engine.config.WorkSeconds
	}
}

func (engine *Engine) observedPhaseLocked() Phase {
	if engine.running && engine.paused {
		return PhasePaused
	}
	return engine.phase
}

func sleepWithContext(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
