// Package shell connects the timer engine to a renderer and to the
// statistics store. It holds no toolkit code; renderers implement View and
// marshal calls onto their own UI thread.
package shell

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"pomodoro/internal/core/timer"
	"pomodoro/internal/stats"
	"pomodoro/internal/ui/preferences"
)

const secondsPerMinute = 60

// Action is what the main button does next.
type Action string

const (
	ActionStart  Action = "Start"
	ActionPause  Action = "Pause"
	ActionResume Action = "Resume"
)

// View renders controller updates. Calls arrive from the countdown
// goroutine as well as the caller's goroutine.
type View interface {
	ShowTick(timeLeft, total int)
	ShowPhase(phase timer.Phase, round, rounds int)
	ShowSummary(summary stats.Summary)
}

// Sound is the mutable part of the sound player.
type Sound interface {
	SetMuted(muted bool)
	Toggle() bool
}

// Autostart switches launch at login.
type Autostart interface {
	Apply(enabled bool) error
}

// Dependencies wires a Controller. Sound, Autostart, Persist and
// SetLogLevel are optional.
type Dependencies struct {
	Engine      *timer.Engine
	Store       stats.Store
	Sound       Sound
	Autostart   Autostart
	Persist     func(preferences.Settings) error
	SetLogLevel func(level string) error
	Logger      logrus.FieldLogger
}

// Controller drives the engine on behalf of a UI and records worked minutes.
type Controller struct {
	engine      *timer.Engine
	store       stats.Store
	sound       Sound
	autostart   Autostart
	persist     func(preferences.Settings) error
	setLogLevel func(string) error
	log         logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	mu          sync.Mutex
	view        View
	settings    preferences.Settings
	phase       timer.Phase
	sessionID   string
	workSeconds int
	resuming    bool
}

// New registers the controller as the engine's listener.
func New(deps Dependencies, settings preferences.Settings) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	controller := &Controller{
		engine:      deps.Engine,
		store:       deps.Store,
		sound:       deps.Sound,
		autostart:   deps.Autostart,
		persist:     deps.Persist,
		setLogLevel: deps.SetLogLevel,
		log:         deps.Logger,
		ctx:         ctx,
		cancel:      cancel,
		settings:    settings,
		phase:       timer.PhaseStopped,
	}
	if controller.log == nil {
		controller.log = logrus.StandardLogger()
	}
	if controller.sound != nil {
		controller.sound.SetMuted(!settings.SoundEnabled)
	}

	controller.engine.SetCallbacks(timer.Callbacks{
		OnTick:        controller.handleTick,
		OnStateChange: controller.handleState,
	})
	return controller
}

// SetView attaches the renderer and pushes the current state to it.
func (controller *Controller) SetView(view View) {
	controller.mu.Lock()
	controller.view = view
	controller.mu.Unlock()

	snapshot := controller.engine.Snapshot()
	if view == nil {
		return
	}
	view.ShowPhase(snapshot.Phase, snapshot.Round, snapshot.Rounds)
	view.ShowTick(snapshot.TimeLeft, snapshot.PhaseTotal)
	controller.refreshSummary()
}

// NextAction reports what Toggle would do.
func (controller *Controller) NextAction() Action {
	snapshot := controller.engine.Snapshot()
	switch {
	case !snapshot.Running:
		return ActionStart
	case snapshot.Paused:
		return ActionResume
	default:
		return ActionPause
	}
}

// Toggle starts a stopped timer, pauses a running one and resumes a paused one.
func (controller *Controller) Toggle() Action {
	action := controller.NextAction()
	switch action {
	case ActionStart:
		controller.engine.StartWork()
	case ActionResume:
		controller.mu.Lock()
		controller.resuming = true
		controller.mu.Unlock()
		controller.engine.Resume()
		controller.mu.Lock()
		controller.resuming = false
		controller.mu.Unlock()
	case ActionPause:
		controller.engine.Pause()
	}
	return action
}

// BreakNow starts a break immediately; a long one on the last round.
func (controller *Controller) BreakNow() {
	controller.engine.StartBreak()
}

func (controller *Controller) Stop() {
	controller.engine.Stop()
}

func (controller *Controller) Snapshot() timer.Snapshot {
	return controller.engine.Snapshot()
}

func (controller *Controller) Settings() preferences.Settings {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.settings
}

// ToggleSound flips the mute state, persists it and reports whether sound
// is now enabled.
func (controller *Controller) ToggleSound() bool {
	controller.mu.Lock()
	enabled := !controller.settings.SoundEnabled
	controller.settings.SoundEnabled = enabled
	settings := controller.settings
	controller.mu.Unlock()

	if controller.sound != nil {
		controller.sound.SetMuted(!enabled)
	}
	controller.log.WithField("enabled", enabled).Info("sound toggled")
	if err := controller.save(settings); err != nil {
		controller.log.WithError(err).Warn("could not persist sound setting")
	}
	return enabled
}

// ApplySettings reconfigures the engine and persists settings. The new
// durations apply from the next phase; the stats backend after a restart.
func (controller *Controller) ApplySettings(settings preferences.Settings) error {
	controller.mu.Lock()
	previous := controller.settings
	controller.settings = settings
	controller.mu.Unlock()

	controller.engine.UpdateConfig(settings.TimerConfig())
	if controller.sound != nil {
		controller.sound.SetMuted(!settings.SoundEnabled)
	}

	var errs []error
	if controller.setLogLevel != nil && settings.LogLevel != previous.LogLevel {
		if err := controller.setLogLevel(settings.LogLevel); err != nil {
			errs = append(errs, fmt.Errorf("set log level: %w", err))
		}
	}
	if controller.autostart != nil && settings.LaunchAtLogin != previous.LaunchAtLogin {
		if err := controller.autostart.Apply(settings.LaunchAtLogin); err != nil {
			errs = append(errs, fmt.Errorf("apply launch at login: %w", err))
		}
	}
	if settings.StatsBackend != previous.StatsBackend {
		controller.log.WithField("backend", settings.StatsBackend).Info("stats backend changes after restart")
	}
	if err := controller.save(settings); err != nil {
		errs = append(errs, err)
	}

	controller.log.WithField("config", settings.TimerConfig()).Info("settings applied")
	return errors.Join(errs...)
}

func (controller *Controller) Summary(ctx context.Context) (stats.Summary, error) {
	return controller.store.Summary(ctx)
}

func (controller *Controller) History(ctx context.Context, days int) ([]stats.DaySummary, error) {
	return controller.store.History(ctx, days)
}

// Close stops the engine and releases the store. A partial minute is dropped.
func (controller *Controller) Close() error {
	var err error
	controller.once.Do(func() {
		controller.engine.Stop()
		controller.cancel()
		err = controller.store.Close()
	})
	return err
}

func (controller *Controller) save(settings preferences.Settings) error {
	if controller.persist == nil {
		return nil
	}
	if err := controller.persist(settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (controller *Controller) handleTick(timeLeft int) error {
	controller.mu.Lock()
	view := controller.view
	phase := controller.phase
	var entry *stats.Entry
	if phase == timer.PhaseWork {
		controller.workSeconds++
		if controller.workSeconds >= secondsPerMinute {
			controller.workSeconds = 0
			entry = &stats.Entry{SessionID: controller.sessionID, Minutes: 1}
		}
	}
	controller.mu.Unlock()

	if view != nil {
		view.ShowTick(timeLeft, controller.engine.PhaseTotal(phase))
	}
	if entry != nil {
		controller.record(*entry)
	}
	return nil
}

func (controller *Controller) handleState(phase timer.Phase) error {
	controller.mu.Lock()
	controller.phase = phase
	switch {
	case phase == timer.PhaseWork && !controller.resuming:
		controller.sessionID = stats.NewSessionID()
		controller.workSeconds = 0
	case phase == timer.PhaseStopped:
		if controller.workSeconds > 0 {
			controller.log.WithField("seconds", controller.workSeconds).Debug("dropping partial minute")
		}
		controller.sessionID = ""
		controller.workSeconds = 0
	}
	view := controller.view
	controller.mu.Unlock()

	if view != nil {
		snapshot := controller.engine.Snapshot()
		view.ShowPhase(phase, snapshot.Round, snapshot.Rounds)
		if phase != timer.PhasePaused {
			view.ShowTick(snapshot.TimeLeft, controller.engine.PhaseTotal(phase))
		}
	}
	controller.refreshSummary()
	return nil
}

// record stores one worked minute. Failures are logged only.
func (controller *Controller) record(entry stats.Entry) {
	if err := controller.store.Add(controller.ctx, entry); err != nil {
		controller.log.WithError(err).WithField("session_id", entry.SessionID).Warn("could not record worked minute")
		return
	}
	controller.refreshSummary()
}

func (controller *Controller) refreshSummary() {
	controller.mu.Lock()
	view := controller.view
	controller.mu.Unlock()
	if view == nil || controller.ctx.Err() != nil {
		return
	}

	summary, err := controller.store.Summary(controller.ctx)
	if err != nil {
		controller.log.WithError(err).Warn("could not read statistics")
		return
	}
	view.ShowSummary(summary)
}
