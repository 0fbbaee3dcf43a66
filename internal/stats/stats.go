// Package stats accumulates worked minutes per day and answers aggregate
// queries over them.
package stats

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"pomodoro/internal/logs"
)

const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"

	CSVFileName    = "pomodoro_stats.csv"
	SQLiteFileName = "pomodoro_stats.db"

	dateLayout = "2006-01-02"
)

var (
	ErrUnknownBackend = errors.New("unknown stats backend")
	ErrInvalidDays    = errors.New("history needs at least one day")
	ErrInvalidMinutes = errors.New("minutes must be positive")
)

// Entry is one recorded chunk of work.
type Entry struct {
	SessionID  string
	Date       string
	Minutes    int
	RecordedAt time.Time
}

// Summary aggregates all recorded work.
type Summary struct {
	TodayMinutes   int
	TotalMinutes   int
	TotalSessions  int
	AverageSession float64
}

// DaySummary is the worked minutes of a single day.
type DaySummary struct {
	Date    string
	Minutes int
}

// Store persists entries and answers aggregate queries.
type Store interface {
	Add(ctx context.Context, entry Entry) error
	Summary(ctx context.Context) (Summary, error)
	History(ctx context.Context, days int) ([]DaySummary, error)
	Close() error
}

// Options are shared by all backends.
type Options struct {
	Now    func() time.Time
	Logger logrus.FieldLogger
}

func (options Options) withDefaults() Options {
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Logger == nil {
		options.Logger = logs.New("stats")
	}
	return options
}

// Open creates the store for backend inside dir.
func Open(backend string, fs afero.Fs, dir string, options Options) (Store, error) {
	switch backend {
	case BackendCSV, "":
		return NewCSVStore(fs, filepath.Join(dir, CSVFileName), options)
	case BackendSQLite:
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create stats directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(dir, SQLiteFileName), options)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// NewSessionID returns a time-sortable identifier for a work session.
func NewSessionID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// prepare validates entry and fills the date and timestamp from now.
func prepare(entry Entry, now time.Time) (Entry, error) {
	if entry.Minutes <= 0 {
		return entry, fmt.Errorf("%w: %d", ErrInvalidMinutes, entry.Minutes)
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = now
	}
	if entry.Date == "" {
		entry.Date = entry.RecordedAt.Format(dateLayout)
	}
	return entry, nil
}

func summarize(entries []Entry, today string) Summary {
	var summary Summary
	sessions := make(map[string]struct{})
	for _, entry := range entries {
		summary.TotalMinutes += entry.Minutes
		if entry.Date == today {
			summary.TodayMinutes += entry.Minutes
		}
		if entry.SessionID == "" {
			summary.TotalSessions++
			continue
		}
		if _, seen := sessions[entry.SessionID]; !seen {
			sessions[entry.SessionID] = struct{}{}
			summary.TotalSessions++
		}
	}
	summary.AverageSession = average(summary.TotalMinutes, summary.TotalSessions)
	return summary
}

func average(minutes, sessions int) float64 {
	if sessions == 0 {
		return 0
	}
	return math.Round(float64(minutes)/float64(sessions)*10) / 10
}

// window returns the last days dates ending with now, oldest first.
func window(now time.Time, days int) []string {
	dates := make([]string, days)
	for i := 0; i < days; i++ {
		dates[i] = now.AddDate(0, 0, i-days+1).Format(dateLayout)
	}
	return dates
}

func fillHistory(dates []string, minutes map[string]int) []DaySummary {
	history := make([]DaySummary, len(dates))
	for i, date := range dates {
		history[i] = DaySummary{Date: date, Minutes: minutes[date]}
	}
	return history
}

// HistoryTotals summarizes a history window.
type HistoryTotals struct {
	TotalMinutes int
	ActiveDays   int
	// AveragePerDay is averaged over active days and rounded.
	AveragePerDay int
}

func Totals(history []DaySummary) HistoryTotals {
	var totals HistoryTotals
	for _, day := range history {
		totals.TotalMinutes += day.Minutes
		if day.Minutes > 0 {
			totals.ActiveDays++
		}
	}
	totals.AveragePerDay = int(math.Round(float64(totals.TotalMinutes) / float64(max(totals.ActiveDays, 1))))
	return totals
}
