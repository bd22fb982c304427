package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const filePrefix = "portal-"

// RotatingLogger writes to one file per ISO week, opening numbered overflow
// files once the size cap is reached, and prunes files past retention.
type RotatingLogger struct {
	dir         string
	retention   time.Duration
	maxFileSize int64

	mu      sync.Mutex
	file    *os.File
	week    string
	part    int
	written int64

	stop chan struct{}
	done chan struct{}
}

// NewRotatingLogger creates the log directory and opens the current file.
func NewRotatingLogger(dir string, retentionWeeks int, maxFileSize int64) (*RotatingLogger, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	rl := &RotatingLogger{
		dir:         dir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}

	rl.mu.Lock()
	err := rl.openFor(weekKey(time.Now()))
	rl.mu.Unlock()
	if err != nil {
		return nil, err
	}

	go rl.pruneLoop()
	return rl, nil
}

// weekKey returns the ISO week in YYYY-Www form.
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func (rl *RotatingLogger) fileName(week string, part int) string {
	if part == 0 {
		return fmt.Sprintf("%s%s.log", filePrefix, week)
	}
	return fmt.Sprintf("%s%s_%02d.log", filePrefix, week, part)
}

// openFor opens the first file of week that still has room. Caller holds mu.
func (rl *RotatingLogger) openFor(week string) error {
	if rl.file != nil {
		if err := rl.file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
		}
		rl.file = nil
	}

	part := 0
	if week == rl.week {
		part = rl.part
	}

	for {
		path := filepath.Join(rl.dir, rl.fileName(week, part))
		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) || (err == nil && (rl.maxFileSize <= 0 || info.Size() < rl.maxFileSize)) {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
			if err != nil {
				return fmt.Errorf("failed to open log file %s: %w", path, err)
			}
			rl.file = f
			rl.week = week
			rl.part = part
			rl.written = 0
			if info != nil {
				rl.written = info.Size()
			}
			return nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to stat log file %s: %w", path, err)
		}
		part++
	}
}

// Write implements io.Writer.
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := weekKey(time.Now())
	switch {
	case week != rl.week:
		rl.part = 0
		if err := rl.openFor(week); err != nil {
			return 0, err
		}
	case rl.maxFileSize > 0 && rl.written+int64(len(p)) > rl.maxFileSize && rl.written > 0:
		rl.part++
		if err := rl.openFor(week); err != nil {
			return 0, err
		}
	}

	if rl.file == nil {
		return 0, fmt.Errorf("no log file available")
	}

	n, err := rl.file.Write(p)
	rl.written += int64(n)
	return n, err
}

// prune removes log files whose modification time is past retention.
func (rl *RotatingLogger) prune() (int, error) {
	entries, err := os.ReadDir(rl.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := time.Now().Add(-rl.retention)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(rl.dir, name)); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (rl *RotatingLogger) pruneLoop() {
	defer close(rl.done)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			// Console only: logging through slog here would re-enter Write.
			if n, err := rl.prune(); err != nil {
				fmt.Fprintf(os.Stderr, "log pruning failed: %v\n", err)
			} else if n > 0 {
				fmt.Printf("Pruned %d old log files\n", n)
			}
		}
	}
}

// Close stops pruning and closes the current file.
func (rl *RotatingLogger) Close() error {
	select {
	case <-rl.stop:
	default:
		close(rl.stop)
	}
	<-rl.done

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.file == nil {
		return nil
	}
	err := rl.file.Close()
	rl.file = nil
	return err
}

// SetupLogger builds a logger writing text to stdout and, when opts.Dir is
// set, JSON to a rotating file. Failing to open the file degrades to console only.
func SetupLogger(opts Options) (*slog.Logger, *RotatingLogger) {
	level := ParseLevel(opts.Level)
	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})

	if opts.Dir == "" {
		return slog.New(console), nil
	}

	retention := opts.RetentionWeeks
	if retention <= 0 {
		retention = 4
	}
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = 100 * 1024 * 1024
	}

	rotator, err := NewRotatingLogger(opts.Dir, retention, maxSize)
	if err != nil {
		logger := slog.New(console)
		logger.Error("Failed to initialize rotating logger, using console only", "error", err)
		return logger, nil
	}

	file := slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: level})
	return slog.New(&fanoutHandler{handlers: []slog.Handler{console, file}}), rotator
}

// fanoutHandler dispatches every record to each enabled handler.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}
