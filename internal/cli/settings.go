package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pomodoro/internal/platform"
	"pomodoro/internal/storage"
	"pomodoro/internal/ui/preferences"
)

var errNothingToSet = errors.New("nothing to change, see --help")

func newSettingsCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change saved settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the saved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printSettings(cmd.OutOrStdout(), env.configDir, env.settings)
			return nil
		},
	})
	cmd.AddCommand(newSettingsSetCmd(env))
	return cmd
}

type setOptions struct {
	work       int
	shortBreak int
	longBreak  int
	rounds     int
	sound      bool
	autostart  bool
	backend    string
	logLevel   string
}

func newSettingsSetCmd(env *environment) *cobra.Command {
	options := &setOptions{}
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change saved settings",
		Example: "  pomodoro settings set --work 50 --short 10\n" +
			"  pomodoro settings set --backend sqlite --sound=false",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSettingsSet(cmd, env, options)
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&options.work, "work", 0, "work minutes")
	flags.IntVar(&options.shortBreak, "short", 0, "short break minutes")
	flags.IntVar(&options.longBreak, "long", 0, "long break minutes")
	flags.IntVar(&options.rounds, "rounds", 0, "work rounds before a long break")
	flags.BoolVar(&options.sound, "sound", true, "sound notifications")
	flags.BoolVar(&options.autostart, "autostart", false, "launch at login")
	flags.StringVar(&options.backend, "backend", "", "statistics storage: csv or sqlite")
	flags.StringVar(&options.logLevel, "level", "", "saved log level: trace, debug, info, warn, error")
	return cmd
}

func runSettingsSet(cmd *cobra.Command, env *environment, options *setOptions) error {
	changed := false
	cmd.LocalFlags().VisitAll(func(flag *pflag.Flag) {
		changed = changed || flag.Changed
	})
	if !changed {
		return errNothingToSet
	}

	flags := cmd.Flags()

	settings := env.settings
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
	if flags.Changed("sound") {
		settings.SoundEnabled = options.sound
	}
	if flags.Changed("autostart") {
		settings.LaunchAtLogin = options.autostart
	}
	if flags.Changed("backend") {
		settings.StatsBackend = options.backend
	}
	if flags.Changed("level") {
		settings.LogLevel = options.logLevel
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	if settings.LaunchAtLogin != env.settings.LaunchAtLogin {
		if err := platform.NewAutostart(env.platform, appName).Apply(settings.LaunchAtLogin); err != nil {
			return fmt.Errorf("launch at login: %w", err)
		}
	}
	if err := storage.SaveSettings(env.fs, env.configDir, settings); err != nil {
		return err
	}
	env.settings = settings
	env.logger.WithField("path", storage.SettingsPath(env.configDir)).Debug("settings saved")

	printSettings(cmd.OutOrStdout(), env.configDir, settings)
	return nil
}

func printSettings(out io.Writer, configDir string, settings preferences.Settings) {
	fmt.Fprintf(out, "file:                %s\n", storage.SettingsPath(configDir))
	fmt.Fprintf(out, "work_minutes:        %d\n", settings.WorkMinutes)
	fmt.Fprintf(out, "short_break_minutes: %d\n", settings.ShortBreakMinutes)
	fmt.Fprintf(out, "long_break_minutes:  %d\n", settings.LongBreakMinutes)
	fmt.Fprintf(out, "rounds:              %d\n", settings.Rounds)
	fmt.Fprintf(out, "sound_enabled:       %t\n", settings.SoundEnabled)
	fmt.Fprintf(out, "launch_at_login:     %t\n", settings.LaunchAtLogin)
	fmt.Fprintf(out, "stats_backend:       %s\n", settings.StatsBackend)
	fmt.Fprintf(out, "log_level:           %s\n", settings.LogLevel)
}
