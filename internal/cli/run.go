package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pomodoro/internal/logs"
	"pomodoro/internal/notify"
	"pomodoro/internal/ui/preferences"
	"pomodoro/internal/ui/term"
)

const terminalLogFile = "pomodoro.log"

type runOptions struct {
	work       int
	shortBreak int
	longBreak  int
	rounds     int
	autoStart  bool
}

func newRunCmd(env *environment) *cobra.Command {
	options := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the timer in the terminal",
		Long:  "Runs the timer as a full-screen terminal UI. Durations given as flags apply to this session only.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTerminal(cmd, env, options)
		},
	}
	cmd.Flags().IntVar(&options.work, "work", 0, "work minutes for this session")
	cmd.Flags().IntVar(&options.shortBreak, "short", 0, "short break minutes for this session")
	cmd.Flags().IntVar(&options.longBreak, "long", 0, "long break minutes for this session")
	cmd.Flags().IntVar(&options.rounds, "rounds", 0, "work rounds before a long break")
	cmd.Flags().BoolVar(&options.autoStart, "start", false, "start working immediately")
	return cmd
}

// apply overrides the saved durations with the flags the user set.
func (options *runOptions) apply(cmd *cobra.Command, settings preferences.Settings) (preferences.Settings, error) {
	flags := cmd.Flags()
	if flags.Changed("work") {
		settings.WorkMinutes = options.work
	}
	if flags.Changed("short") {
		settings.ShortBreakMinutes = options.shortBreak
	}
	if flags.Changed("long") {
		settings.LongBreakMinutes = options.longBreak
	}
	if flags.Changed("rounds") {
		settings.Rounds = options.rounds
	}
	return settings, settings.Validate()
}

func runTerminal(cmd *cobra.Command, env *environment, options *runOptions) error {
	settings, err := options.apply(cmd, env.settings)
	if err != nil {
		return err
	}

	logFile, err := logs.OpenFile(env.fs, env.configDir, terminalLogFile)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	env.redirectLogs(logFile)

	// Overrides stay out of the settings file; only sound toggles persist.
	persist := func(updated preferences.Settings) error {
		saved := env.settings
		saved.SoundEnabled = updated.SoundEnabled
		return env.saveSettings(saved)
	}
	parts, err := env.newSession(settings, notify.NewLogNotifier(env.newLogger("notify")), os.Stdout, persist)
	if err != nil {
		return err
	}
	controller := parts.controller
	defer func() {
		if err := controller.Close(); err != nil {
			env.logger.WithError(err).Warn("close timer")
		}
	}()

	program := tea.NewProgram(
		term.New(controller, settings.SoundEnabled),
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	// Send blocks until the program's event loop is running.
	go func() {
		controller.SetView(term.NewView(program, controller.NextAction))
		if options.autoStart {
			controller.Toggle()
		}
	}()

	env.logger.WithField("work", settings.WorkMinutes).WithField("rounds", settings.Rounds).Info("terminal session started")
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("terminal ui: %w", err)
	}
	env.logger.Info("terminal session finished")
	return nil
}
