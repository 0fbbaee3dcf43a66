package cli

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/internal/stats"
	"pomodoro/internal/storage"
	"pomodoro/internal/ui/preferences"
)

const testConfigDir = "/config/pomodoro"

func execute(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	root := newRoot(fs)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config-dir", testConfigDir}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestSettingsShowDefaults(t *testing.T) {
	out, err := execute(t, afero.NewMemMapFs(), "settings", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "work_minutes:        25\n")
	assert.Contains(t, out, "rounds:              4\n")
	assert.Contains(t, out, "sound_enabled:       true\n")
	assert.Contains(t, out, "stats_backend:       csv\n")
	assert.Contains(t, out, storage.SettingsPath(testConfigDir))
}

func TestSettingsSetPersists(t *testing.T) {
	fs := afero.NewMemMapFs()

	out, err := execute(t, fs, "settings", "set", "--work", "50", "--short", "10", "--sound=false", "--backend", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "work_minutes:        50\n")

	saved, err := storage.LoadSettings(fs, testConfigDir)
	require.NoError(t, err)
	assert.Equal(t, 50, saved.WorkMinutes)
	assert.Equal(t, 10, saved.ShortBreakMinutes)
	assert.Equal(t, 15, saved.LongBreakMinutes)
	assert.False(t, saved.SoundEnabled)
	assert.Equal(t, stats.BackendSQLite, saved.StatsBackend)

	out, err = execute(t, fs, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "short_break_minutes: 10\n")
	assert.Contains(t, out, "sound_enabled:       false\n")
}

func TestSettingsSetRejectsInvalidValues(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := execute(t, fs, "settings", "set", "--rounds", "0")
	require.ErrorIs(t, err, preferences.ErrInvalidSettings)

	_, err = execute(t, fs, "settings", "set", "--backend", "postgres")
	require.ErrorIs(t, err, preferences.ErrInvalidSettings)

	exists, err := afero.Exists(fs, storage.SettingsPath(testConfigDir))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSettingsSetNeedsAFlag(t *testing.T) {
	_, err := execute(t, afero.NewMemMapFs(), "settings", "set")
	require.ErrorIs(t, err, errNothingToSet)
}

func TestStatsPrintsSummaryAndHistory(t *testing.T) {
	fs := afero.NewMemMapFs()
	today := time.Now().Format("2006-01-02")
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	content := "date,work_minutes,session_id\n" +
		fmt.Sprintf("%s,20,a\n", yesterday) +
		fmt.Sprintf("%s,15,b\n", today) +
		fmt.Sprintf("%s,10,b\n", today)
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testConfigDir, stats.CSVFileName), []byte(content), 0o644))

	out, err := execute(t, fs, "stats", "--days", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Today:    25 min\n")
	assert.Contains(t, out, "Total:    45 min\n")
	assert.Contains(t, out, "Sessions: 2\n")
	assert.Contains(t, out, "Average:  22.5 min\n")
	assert.Contains(t, out, "Last 2 days:\n")
	assert.Contains(t, out, fmt.Sprintf("  %s    20 min\n", yesterday))
	assert.Contains(t, out, fmt.Sprintf("  %s    25 min\n", today))
	assert.Contains(t, out, "45 min over 2 active days, 23 min per active day\n")
}

func TestStatsOnEmptyStore(t *testing.T) {
	out, err := execute(t, afero.NewMemMapFs(), "stats", "--days", "0")
	require.NoError(t, err)

	assert.Contains(t, out, "Total:    0 min\n")
	assert.Contains(t, out, "Average:  0.0 min\n")
	assert.NotContains(t, out, "Last")
}

func TestStatsRejectsNegativeDays(t *testing.T) {
	_, err := execute(t, afero.NewMemMapFs(), "stats", "--days", "-1")
	require.ErrorIs(t, err, stats.ErrInvalidDays)
}

func TestRunOverridesApplyToSessionOnly(t *testing.T) {
	env := &environment{fs: afero.NewMemMapFs(), settings: preferences.DefaultSettings()}
	cmd := newRunCmd(env)
	require.NoError(t, cmd.ParseFlags([]string{"--work", "1", "--rounds", "2"}))

	settings, err := (&runOptions{work: 1, rounds: 2}).apply(cmd, env.settings)
	require.NoError(t, err)
	assert.Equal(t, 1, settings.WorkMinutes)
	assert.Equal(t, 2, settings.Rounds)
	assert.Equal(t, 5, settings.ShortBreakMinutes)
	assert.Equal(t, 25, env.settings.WorkMinutes)
}

func TestRunRejectsInvalidOverride(t *testing.T) {
	env := &environment{settings: preferences.DefaultSettings()}
	cmd := newRunCmd(env)
	require.NoError(t, cmd.ParseFlags([]string{"--short", "0"}))

	_, err := (&runOptions{}).apply(cmd, env.settings)
	require.ErrorIs(t, err, preferences.ErrInvalidSettings)
}

func TestSetLogLevelReachesEveryLogger(t *testing.T) {
	env := &environment{logOutput: io.Discard}
	first := env.newLogger("a")
	require.NoError(t, env.setLogLevel("debug"))
	second := env.newLogger("b")

	assert.Equal(t, "debug", first.GetLevel().String())
	assert.Equal(t, "debug", second.GetLevel().String())
	require.Error(t, env.setLogLevel("loud"))
}
