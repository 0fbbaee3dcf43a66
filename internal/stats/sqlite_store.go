package stats

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

const schema = `
CREATE TABLE IF NOT EXISTS work_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL DEFAULT '',
	day TEXT NOT NULL,
	minutes INTEGER NOT NULL CHECK (minutes > 0),
	recorded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_work_log_day ON work_log(day);
`

// SQLiteStore keeps entries in a single work_log table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
	log logrus.FieldLogger
}

// NewSQLiteStore opens (or creates) the database at dsn and applies the schema.
func NewSQLiteStore(dsn string, options Options) (*SQLiteStore, error) {
	options = options.withDefaults()

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open stats database: %w", err)
	}
	// ":memory:" databases live per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply stats schema: %w", err)
	}

	options.Logger.WithField("dsn", dsn).Debug("opened stats database")
	return &SQLiteStore{db: db, now: options.Now, log: options.Logger}, nil
}

func (store *SQLiteStore) Add(ctx context.Context, entry Entry) error {
	entry, err := prepare(entry, store.now())
	if err != nil {
		return err
	}
	_, err = store.db.ExecContext(ctx,
		`INSERT INTO work_log (session_id, day, minutes, recorded_at) VALUES (?, ?, ?, ?)`,
		entry.SessionID, entry.Date, entry.Minutes, entry.RecordedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert work log: %w", err)
	}
	return nil
}

func (store *SQLiteStore) Summary(ctx context.Context) (Summary, error) {
	var summary Summary
	today := store.now().Format(dateLayout)

	err := store.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(minutes), 0) FROM work_log WHERE day = ?`, today,
	).Scan(&summary.TodayMinutes)
	if err != nil {
		return Summary{}, fmt.Errorf("query today minutes: %w", err)
	}

	err = store.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(minutes), 0),
			COUNT(DISTINCT NULLIF(session_id, '')) + COALESCE(SUM(CASE WHEN session_id = '' THEN 1 ELSE 0 END), 0)
		FROM work_log`,
	).Scan(&summary.TotalMinutes, &summary.TotalSessions)
	if err != nil {
		return Summary{}, fmt.Errorf("query totals: %w", err)
	}

	summary.AverageSession = average(summary.TotalMinutes, summary.TotalSessions)
	return summary, nil
}

func (store *SQLiteStore) History(ctx context.Context, days int) ([]DaySummary, error) {
	if days < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDays, days)
	}
	dates := window(store.now(), days)

	rows, err := store.db.QueryContext(ctx,
		`SELECT day, SUM(minutes) FROM work_log WHERE day >= ? AND day <= ? GROUP BY day`,
		dates[0], dates[len(dates)-1],
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	minutes := make(map[string]int)
	for rows.Next() {
		var day string
		var total int
		if err := rows.Scan(&day, &total); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		minutes[day] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return fillHistory(dates, minutes), nil
}

func (store *SQLiteStore) Close() error {
	return store.db.Close()
}
