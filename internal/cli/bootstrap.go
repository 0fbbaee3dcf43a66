package cli

import (
	"fmt"
	"io"

	"pomodoro/internal/core/timer"
	"pomodoro/internal/notify"
	"pomodoro/internal/platform"
	"pomodoro/internal/stats"
	"pomodoro/internal/storage"
	"pomodoro/internal/ui/preferences"
	"pomodoro/internal/ui/shell"
)

// session bundles what a renderer needs to drive the timer.
type session struct {
	controller *shell.Controller
	engine     *timer.Engine
	bell       *notify.Bell
}

// persistFunc decides how settings changes reach the settings file.
type persistFunc func(preferences.Settings) error

func (env *environment) saveSettings(settings preferences.Settings) error {
	return storage.SaveSettings(env.fs, env.configDir, settings)
}

// newSession opens the statistics store and builds the engine and controller.
func (env *environment) newSession(settings preferences.Settings, notifier timer.Notifier, bellOut io.Writer, persist persistFunc) (*session, error) {
	store, err := stats.Open(settings.StatsBackend, env.fs, env.configDir, stats.Options{
		Logger: env.newLogger("stats"),
	})
	if err != nil {
		return nil, fmt.Errorf("open statistics: %w", err)
	}

	engine := timer.New(settings.TimerConfig(), timer.Options{
		Logger: env.newLogger("timer"),
	})
	bell := notify.NewBell(bellOut, env.newLogger("sound"))
	engine.SetAlerts(timer.Alerts{Sound: bell, Notifier: notifier})

	controller := shell.New(shell.Dependencies{
		Engine:      engine,
		Store:       store,
		Sound:       bell,
		Autostart:   platform.NewAutostart(env.platform, appName),
		Persist:     persist,
		SetLogLevel: env.setLogLevel,
		Logger:      env.newLogger("shell"),
	}, settings)

	env.logger.WithField("backend", settings.StatsBackend).WithField("config_dir", env.configDir).Info("timer ready")
	return &session{controller: controller, engine: engine, bell: bell}, nil
}
