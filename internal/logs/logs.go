package logs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// formatter prefixes every entry with the owning component.
type formatter struct {
	owner string
	lf    log.Formatter
}

// Format satisfies the log.Formatter interface.
func (f *formatter) Format(e *log.Entry) ([]byte, error) {
	e.Message = fmt.Sprintf("[%s] %s", f.owner, e.Message)
	return f.lf.Format(e)
}

// New returns a logger writing to stderr with the owner prefix.
func New(owner string) *log.Logger {
	return NewWithOutput(owner, os.Stderr, false)
}

// NewWithOutput returns a logger writing to output. Colors are only
// forced for interactive outputs.
func NewWithOutput(owner string, output io.Writer, colors bool) *log.Logger {
	logger := log.New()
	logger.SetOutput(output)
	logger.SetFormatter(&formatter{
		owner: owner,
		lf: &log.TextFormatter{
			ForceColors:     colors,
			DisableColors:   !colors,
			FullTimestamp:   true,
			TimestampFormat: time.StampMilli,
		},
	})
	return logger
}

// SetLevel parses level and applies it. Unknown levels leave the logger at info.
func SetLevel(logger *log.Logger, level string) error {
	if level == "" {
		logger.SetLevel(log.InfoLevel)
		return nil
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		logger.SetLevel(log.InfoLevel)
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	logger.SetLevel(parsed)
	return nil
}

// OpenFile opens (or creates) an append-only log file under dir.
func OpenFile(fs afero.Fs, dir, name string) (afero.File, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := fs.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}
