package preferences

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"pomodoro/internal/core/model"
	"pomodoro/internal/stats"
)

var ErrInvalidSettings = errors.New("invalid settings")

// Settings defines editable user preferences.
type Settings struct {
	WorkMinutes       int
	ShortBreakMinutes int
	LongBreakMinutes  int
	Rounds            int

	SoundEnabled  bool
	LaunchAtLogin bool

	StatsBackend string
	LogLevel     string
}

// DefaultSettings returns default settings for the Pomodoro timer.
func DefaultSettings() Settings {
	return Settings{
		WorkMinutes:       model.DefaultWorkMinutes,
		ShortBreakMinutes: model.DefaultShortBreakMinutes,
		LongBreakMinutes:  model.DefaultLongBreakMinutes,
		Rounds:            model.DefaultRounds,
		SoundEnabled:      true,
		LaunchAtLogin:     false,
		StatsBackend:      stats.BackendCSV,
		LogLevel:          logrus.InfoLevel.String(),
	}
}

// TimerConfig converts settings to a TimerConfig.
func (settings Settings) TimerConfig() model.TimerConfig {
	return model.FromMinutes(
		settings.WorkMinutes,
		settings.ShortBreakMinutes,
		settings.LongBreakMinutes,
		settings.Rounds,
	)
}

// Validate reports the first value that cannot be used as is.
func (settings Settings) Validate() error {
	switch {
	case settings.WorkMinutes < 1:
		return fmt.Errorf("%w: work minutes must be at least 1", ErrInvalidSettings)
	case settings.ShortBreakMinutes < 1:
		return fmt.Errorf("%w: short break minutes must be at least 1", ErrInvalidSettings)
	case settings.LongBreakMinutes < 1:
		return fmt.Errorf("%w: long break minutes must be at least 1", ErrInvalidSettings)
	case settings.Rounds < 1:
		return fmt.Errorf("%w: rounds must be at least 1", ErrInvalidSettings)
	}
	if !ValidBackend(settings.StatsBackend) {
		return fmt.Errorf("%w: unknown stats backend %q", ErrInvalidSettings, settings.StatsBackend)
	}
	if _, err := logrus.ParseLevel(settings.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return nil
}

func ValidBackend(backend string) bool {
	return backend == stats.BackendCSV || backend == stats.BackendSQLite
}

// Ranges accepted by the settings form.
const (
	MaxWorkMinutes       = 60
	MaxShortBreakMinutes = 30
	MaxLongBreakMinutes  = 60
	MaxRounds            = 10
)
