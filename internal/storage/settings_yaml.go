package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"pomodoro/internal/fsutil"
	"pomodoro/internal/ui/preferences"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	WorkMinutes       int    `yaml:"work_minutes"`
	ShortBreakMinutes int    `yaml:"short_break_minutes"`
	LongBreakMinutes  int    `yaml:"long_break_minutes"`
	Rounds            int    `yaml:"rounds"`
	SoundEnabled      *bool  `yaml:"sound_enabled"`
	LaunchAtLogin     bool   `yaml:"launch_at_login"`
	StatsBackend      string `yaml:"stats_backend"`
	LogLevel          string `yaml:"log_level"`
}

// SettingsPath returns the settings file inside configDir.
func SettingsPath(configDir string) string {
	return filepath.Join(configDir, settingsFileName)
}

// LoadSettings reads user preferences from YAML.
// If the file does not exist, default settings are returned. Unusable
// values fall back to their defaults.
func LoadSettings(fs afero.Fs, configDir string) (preferences.Settings, error) {
	settings := preferences.DefaultSettings()

	rawData, err := afero.ReadFile(fs, SettingsPath(configDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes user preferences to YAML.
func SaveSettings(fs afero.Fs, configDir string, settings preferences.Settings) error {
	soundEnabled := settings.SoundEnabled
	fileData := yamlSettings{
		WorkMinutes:       settings.WorkMinutes,
		ShortBreakMinutes: settings.ShortBreakMinutes,
		LongBreakMinutes:  settings.LongBreakMinutes,
		Rounds:            settings.Rounds,
		SoundEnabled:      &soundEnabled,
		LaunchAtLogin:     settings.LaunchAtLogin,
		StatsBackend:      settings.StatsBackend,
		LogLevel:          settings.LogLevel,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := fsutil.WriteFileAtomic(fs, SettingsPath(configDir), serialized); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	if fileData.WorkMinutes > 0 {
		settings.WorkMinutes = fileData.WorkMinutes
	}
	if fileData.ShortBreakMinutes > 0 {
		settings.ShortBreakMinutes = fileData.ShortBreakMinutes
	}
	if fileData.LongBreakMinutes > 0 {
		settings.LongBreakMinutes = fileData.LongBreakMinutes
	}
	if fileData.Rounds > 0 {
		settings.Rounds = fileData.Rounds
	}
	if fileData.SoundEnabled != nil {
		settings.SoundEnabled = *fileData.SoundEnabled
	}
	if preferences.ValidBackend(fileData.StatsBackend) {
		settings.StatsBackend = fileData.StatsBackend
	}
	if _, err := logrus.ParseLevel(fileData.LogLevel); err == nil && fileData.LogLevel != "" {
		settings.LogLevel = fileData.LogLevel
	}

	settings.LaunchAtLogin = fileData.LaunchAtLogin
}
