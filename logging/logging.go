// Package logging configures the application logger and manages the per-run
// log files that the "logs" command reads back.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
	"golang.org/x/xerrors"
)

// DefaultDir returns the default log directory, ~/.bq2dbt/logs.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", xerrors.Errorf("resolve log directory: %w", err)
	}
	return filepath.Join(home, ".bq2dbt", "logs"), nil
}

// Config carries the settings for setting up the application logger.
type Config struct {
	// Dir is where per-run log files are written. Empty selects DefaultDir.
	Dir string

	// Verbose lowers the level from Info to Debug.
	Verbose bool

	// Clock supplies the run timestamp embedded in the file name. Defaults
	// to the wall clock.
	Clock clock.Clock
}

// RunLog is an open per-run log file.
type RunLog struct {
	// Path of the log file on disk.
	Path string

	// ID of this run.
	ID string

	file *os.File
}

// Close flushes and closes the underlying file.
func (r *RunLog) Close() error {
	return r.file.Close()
}

// Setup points logger at a fresh per-run log file, named after the run
// timestamp and a random run ID so concurrent runs never collide, and
// mirrors output to stderr through a hook. The file always captures debug
// output; Verbose only controls what reaches the console. The returned
// RunLog must be closed when the run finishes.
func Setup(logger *logrus.Logger, cfg Config) (*RunLog, error) {
	if cfg.Dir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		cfg.Dir = dir
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, xerrors.Errorf("create log directory: %w", err)
	}

	runID := uuid.New().String()[:8]
	name := fmt.Sprintf("%s_%s.log", cfg.Clock.Now().UTC().Format("20060102T150405"), runID)
	path := filepath.Join(cfg.Dir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, xerrors.Errorf("create run log file: %w", err)
	}

	consoleLevels := []logrus.Level{
		logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel,
		logrus.WarnLevel, logrus.InfoLevel,
	}
	if cfg.Verbose {
		consoleLevels = logrus.AllLevels
	}

	logger.SetOutput(file)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.AddHook(&writer.Hook{Writer: os.Stderr, LogLevels: consoleLevels})

	return &RunLog{Path: path, ID: runID, file: file}, nil
}

// Entry describes one stored run log.
type Entry struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// List returns the stored run logs, newest first. A limit of zero or less
// returns everything. A missing log directory is an empty list, not an
// error.
func List(dir string, limit int) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, xerrors.Errorf("list run logs: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".log") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			return nil, xerrors.Errorf("list run logs: %w", err)
		}
		entries = append(entries, Entry{
			Name:    de.Name(),
			Path:    filepath.Join(dir, de.Name()),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	// File names start with the run timestamp, so name order is run order.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name > entries[j].Name })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Read returns the content of one stored run log by file name.
func Read(dir, name string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", xerrors.Errorf("read run log %s: %w", name, err)
	}
	return string(raw), nil
}

// ReadLatest returns the name and content of the most recent run log.
func ReadLatest(dir string) (string, string, error) {
	entries, err := List(dir, 1)
	if err != nil {
		return "", "", err
	}
	if len(entries) == 0 {
		return "", "", xerrors.Errorf("no run logs found in %s", dir)
	}
	content, err := Read(dir, entries[0].Name)
	if err != nil {
		return "", "", err
	}
	return entries[0].Name, content, nil
}
