// Package cli wires the timer, statistics and renderers into the pomodoro
// command.
package cli

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"pomodoro/internal/logs"
	"pomodoro/internal/platform"
	"pomodoro/internal/storage"
	"pomodoro/internal/ui/preferences"
)

const (
	appName = "Pomodoro"
	appID   = "com.pomodoro.timer"
)

// environment is resolved once per invocation before any command runs.
type environment struct {
	fs        afero.Fs
	platform  platform.Service
	configDir string
	settings  preferences.Settings
	logger    *logrus.Logger
	logOutput io.Writer
	level     string
	loggers   []*logrus.Logger
}

type rootOptions struct {
	configDir string
	logLevel  string
}

// NewRoot builds the pomodoro command tree on the OS filesystem.
func NewRoot() *cobra.Command {
	return newRoot(afero.NewOsFs())
}

func newRoot(fs afero.Fs) *cobra.Command {
	options := &rootOptions{}
	env := &environment{fs: fs, platform: platform.NewService(fs)}

	cmd := &cobra.Command{
		Use:           "pomodoro",
		Short:         "Pomodoro productivity timer",
		Long:          "Cycles between work intervals and breaks, notifies at every phase change and keeps per-day statistics.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return env.load(cmd, options)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(cmd, env)
		},
	}

	cmd.PersistentFlags().StringVar(&options.configDir, "config-dir", "", "directory holding settings and statistics (default: user config dir)")
	cmd.PersistentFlags().StringVar(&options.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	cmd.AddCommand(newGUICmd(env))
	cmd.AddCommand(newRunCmd(env))
	cmd.AddCommand(newStatsCmd(env))
	cmd.AddCommand(newSettingsCmd(env))
	return cmd
}

func (env *environment) load(cmd *cobra.Command, options *rootOptions) error {
	env.logOutput = cmd.ErrOrStderr()
	env.logger = env.newLogger("pomodoro")

	configDir := options.configDir
	if configDir == "" {
		dir, err := env.platform.AppConfigDir(appName)
		if err != nil {
			return fmt.Errorf("resolve config dir: %w", err)
		}
		configDir = dir
	}
	env.configDir = configDir

	settings, err := storage.LoadSettings(env.fs, configDir)
	if err != nil {
		env.logger.WithError(err).Warn("using default settings")
	}
	env.settings = settings

	level := settings.LogLevel
	if options.logLevel != "" {
		level = options.logLevel
	}
	if err := env.setLogLevel(level); err != nil {
		env.logger.WithError(err).Warn("invalid log level")
	}
	return nil
}

// newLogger returns a logger for owner that follows the shared level and output.
func (env *environment) newLogger(owner string) *logrus.Logger {
	logger := logs.NewWithOutput(owner, env.logOutput, false)
	_ = logs.SetLevel(logger, env.level)
	env.loggers = append(env.loggers, logger)
	return logger
}

func (env *environment) setLogLevel(level string) error {
	env.level = level
	var err error
	for _, logger := range env.loggers {
		err = logs.SetLevel(logger, level)
	}
	return err
}

// redirectLogs sends every logger to output from now on.
func (env *environment) redirectLogs(output io.Writer) {
	env.logOutput = output
	for _, logger := range env.loggers {
		logger.SetOutput(output)
	}
}
