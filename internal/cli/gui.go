package cli

import (
	"errors"
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/spf13/cobra"

	"pomodoro/internal/core/timer"
	"pomodoro/internal/notify"
	"pomodoro/internal/platform"
	"pomodoro/internal/ui/dashboard"
	"pomodoro/internal/ui/preferences"
	"pomodoro/internal/ui/shell"
	"pomodoro/internal/ui/tray"
	"pomodoro/resources"
)

func newGUICmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Open the timer window and tray menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGUI(cmd, env)
		},
	}
}

func runGUI(cmd *cobra.Command, env *environment) error {
	guard, err := platform.AcquireSingleInstance(cmd.Context(), appName)
	if err != nil {
		if errors.Is(err, platform.ErrAlreadyRunning) {
			env.logger.WithError(err).Warn("another instance is running")
			return nil
		}
		return fmt.Errorf("single instance: %w", err)
	}
	defer func() {
		_ = guard.Release()
	}()

	fyneApp := app.NewWithID(appID)
	fyneApp.SetIcon(resources.MustIcon(resources.IconWork))
	notifier := notify.NewDesktopNotifier(fyneApp, env.newLogger("notify"))

	parts, err := env.newSession(env.settings, notifier, os.Stdout, env.saveSettings)
	if err != nil {
		window := fyneApp.NewWindow(appName)
		window.Resize(fyne.NewSize(360, 160))
		dialog.ShowError(err, window)
		window.SetOnClosed(fyneApp.Quit)
		window.ShowAndRun()
		return err
	}
	controller := parts.controller
	defer func() {
		if err := controller.Close(); err != nil {
			env.logger.WithError(err).Warn("close timer")
		}
	}()

	statsWindow := dashboard.NewStatsWindow(fyneApp, controller, env.newLogger("statistics"))

	var timerWindow *dashboard.Window
	var trayManager *tray.Manager
	prefsWindow := preferences.New(fyneApp, controller.Settings, func(updated preferences.Settings) {
		if err := controller.ApplySettings(updated); err != nil {
			env.logger.WithError(err).Warn("apply settings")
			timerWindow.SetStatus(fmt.Sprintf("Settings: %v", err))
			dialog.ShowError(err, timerWindow.Window())
		} else {
			timerWindow.SetStatus("Settings saved")
		}
		timerWindow.SetSound(updated.SoundEnabled)
		if trayManager != nil {
			trayManager.SetSound(updated.SoundEnabled)
		}
	})

	prefsWindow.SetOnCancel(func() {
		timerWindow.SetStatus("")
	})

	timerWindow = dashboard.New(fyneApp, controller, controller.Settings().SoundEnabled, dashboard.Callbacks{
		OnStatistics:  statsWindow.Show,
		OnPreferences: prefsWindow.Show,
	})

	views := shell.Views{timerWindow}
	desktopApp, ok := fyneApp.(desktop.App)
	if ok {
		trayManager = tray.New(desktopApp, tray.Callbacks{
			OnShow:     timerWindow.Show,
			OnToggle:   func() { controller.Toggle() },
			OnStop:     controller.Stop,
			OnBreakNow: controller.BreakNow,
			OnStatistics: func() {
				statsWindow.Show()
			},
			OnPreferences: prefsWindow.Show,
			OnToggleSound: func() {
				enabled := controller.ToggleSound()
				trayManager.SetSound(enabled)
				timerWindow.SetSound(enabled)
			},
			OnQuit: fyneApp.Quit,
		})
		trayManager.SetSound(controller.Settings().SoundEnabled)
		trayManager.SetIcon(resources.PhaseIcon(timer.PhaseStopped))
		views = append(views, tray.NewView(trayManager, controller.NextAction))

		timerWindow.Window().SetCloseIntercept(func() {
			timerWindow.Window().Hide()
		})
	} else {
		env.logger.Info("system tray unsupported, closing the window quits")
		timerWindow.Window().SetCloseIntercept(fyneApp.Quit)
	}
	controller.SetView(views)

	env.logger.Info("gui started")
	timerWindow.Window().ShowAndRun()
	env.logger.Info("gui stopped")
	return nil
}
