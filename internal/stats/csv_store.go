package stats

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"pomodoro/internal/fsutil"
)

var csvHeader = []string{"date", "work_minutes", "session_id"}

// CSVStore keeps entries in a flat CSV file, one row per recorded chunk.
// Files written with only the date and work_minutes columns are still read.
type CSVStore struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
	now  func() time.Time
	log  logrus.FieldLogger
}

// NewCSVStore opens path, creating it with a header when missing.
func NewCSVStore(fs afero.Fs, path string, options Options) (*CSVStore, error) {
	options = options.withDefaults()
	store := &CSVStore{
		fs:   fs,
		path: path,
		now:  options.Now,
		log:  options.Logger,
	}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("check stats file: %w", err)
	}
	if !exists {
		header, err := encodeRows([][]string{csvHeader})
		if err != nil {
			return nil, err
		}
		if err := fsutil.WriteFileAtomic(fs, path, header); err != nil {
			return nil, fmt.Errorf("create stats file: %w", err)
		}
		store.log.WithField("path", path).Info("created stats file")
	}
	return store, nil
}

func (store *CSVStore) Add(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry, err := prepare(entry, store.now())
	if err != nil {
		return err
	}
	row, err := encodeRows([][]string{{entry.Date, strconv.Itoa(entry.Minutes), entry.SessionID}})
	if err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	file, err := store.fs.OpenFile(store.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open stats file: %w", err)
	}
	if _, err := file.Write(row); err != nil {
		_ = file.Close()
		return fmt.Errorf("append stats row: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close stats file: %w", err)
	}
	return nil
}

func (store *CSVStore) Summary(ctx context.Context) (Summary, error) {
	entries, err := store.entries(ctx)
	if err != nil {
		return Summary{}, err
	}
	return summarize(entries, store.now().Format(dateLayout)), nil
}

func (store *CSVStore) History(ctx context.Context, days int) ([]DaySummary, error) {
	if days < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDays, days)
	}
	entries, err := store.entries(ctx)
	if err != nil {
		return nil, err
	}

	minutes := make(map[string]int)
	for _, entry := range entries {
		minutes[entry.Date] += entry.Minutes
	}
	return fillHistory(window(store.now(), days), minutes), nil
}

func (store *CSVStore) Close() error {
	return nil
}

// entries reads every well-formed row. Malformed rows are logged and skipped.
func (store *CSVStore) entries(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	file, err := store.fs.Open(store.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open stats file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var entries []Entry
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			store.log.WithError(err).WithField("line", line).Warn("skipping malformed stats row")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read stats file: %w", err)
		}
		if line == 1 && len(record) > 0 && record[0] == csvHeader[0] {
			continue
		}

		entry, ok := parseRecord(record)
		if !ok {
			store.log.WithField("line", line).WithField("row", record).Warn("skipping malformed stats row")
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseRecord(record []string) (Entry, bool) {
	if len(record) < 2 || record[0] == "" {
		return Entry{}, false
	}
	if _, err := time.Parse(dateLayout, record[0]); err != nil {
		return Entry{}, false
	}
	minutes, err := strconv.Atoi(record[1])
	if err != nil || minutes < 0 {
		return Entry{}, false
	}
	entry := Entry{Date: record[0], Minutes: minutes}
	if len(record) > 2 {
		entry.SessionID = record[2]
	}
	return entry, true
}

func encodeRows(rows [][]string) ([]byte, error) {
	var buffer bytes.Buffer
	writer := csv.NewWriter(&buffer)
	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("encode stats rows: %w", err)
	}
	return buffer.Bytes(), nil
}
